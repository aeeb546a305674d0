package profile

import "fmt"

// Global message numbers used by the semantic layer.
const (
	MesgFileID         uint16 = 0
	MesgSession        uint16 = 18
	MesgLap            uint16 = 19
	MesgRecord         uint16 = 20
	MesgDeviceInfo     uint16 = 23
	MesgActivity       uint16 = 34
	MesgMonitoring     uint16 = 55
	MesgMonitoringInfo uint16 = 103
	MesgStressLevel    uint16 = 227
	MesgSleepLevel     uint16 = 275
)

// FieldTimestamp is the field number the format reserves for absolute
// timestamps across all message types.
const FieldTimestamp uint8 = 253

// FieldSpec describes the semantic identity and unit conversion of one
// (message, field) pair. Physical value = raw/Scale - Offset.
type FieldSpec struct {
	Name   string
	Unit   string
	Scale  float64
	Offset float64
}

// Apply converts a raw field value into physical units.
func (s FieldSpec) Apply(raw float64) float64 {
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	return raw/scale - s.Offset
}

type key struct {
	mesg  uint16
	field uint8
}

// Store maps (global message number, field number) to field specs. A
// Store built from Builtin covers the messages the semantic decoder
// consumes; overlay files can extend or replace entries for vendor
// specific fields.
type Store struct {
	specs     map[key]FieldSpec
	mesgNames map[uint16]string
}

// Lookup returns the spec for one field of one message type.
func (s *Store) Lookup(mesg uint16, field uint8) (FieldSpec, bool) {
	if s == nil {
		return FieldSpec{}, false
	}
	spec, ok := s.specs[key{mesg: mesg, field: field}]
	return spec, ok
}

// MessageName returns the semantic name of a global message type.
func (s *Store) MessageName(mesg uint16) string {
	if s != nil {
		if name, ok := s.mesgNames[mesg]; ok {
			return name
		}
	}
	return fmt.Sprintf("mesg_%d", mesg)
}

// Scale is a convenience lookup that applies the field's unit conversion,
// treating unknown fields as unscaled.
func (s *Store) Scale(mesg uint16, field uint8, raw float64) float64 {
	spec, ok := s.Lookup(mesg, field)
	if !ok {
		return raw
	}
	return spec.Apply(raw)
}

func (s *Store) put(mesg uint16, field uint8, spec FieldSpec) {
	s.specs[key{mesg: mesg, field: field}] = spec
}

// Builtin returns a store populated with the static profile table for the
// message types this subsystem interprets.
func Builtin() *Store {
	s := &Store{
		specs: make(map[key]FieldSpec),
		mesgNames: map[uint16]string{
			MesgFileID:         "file_id",
			MesgSession:        "session",
			MesgLap:            "lap",
			MesgRecord:         "record",
			MesgDeviceInfo:     "device_info",
			MesgActivity:       "activity",
			MesgMonitoring:     "monitoring",
			MesgMonitoringInfo: "monitoring_info",
			MesgStressLevel:    "stress_level",
			MesgSleepLevel:     "sleep_level",
		},
	}

	// file_id
	s.put(MesgFileID, 0, FieldSpec{Name: "type"})
	s.put(MesgFileID, 1, FieldSpec{Name: "manufacturer"})
	s.put(MesgFileID, 2, FieldSpec{Name: "product"})
	s.put(MesgFileID, 3, FieldSpec{Name: "serial_number"})
	s.put(MesgFileID, 4, FieldSpec{Name: "time_created", Unit: "s"})

	// device_info
	s.put(MesgDeviceInfo, 0, FieldSpec{Name: "device_index"})
	s.put(MesgDeviceInfo, 1, FieldSpec{Name: "device_type"})
	s.put(MesgDeviceInfo, 2, FieldSpec{Name: "manufacturer"})
	s.put(MesgDeviceInfo, 3, FieldSpec{Name: "serial_number"})
	s.put(MesgDeviceInfo, 4, FieldSpec{Name: "product"})
	s.put(MesgDeviceInfo, 5, FieldSpec{Name: "software_version", Scale: 100})

	// session
	s.put(MesgSession, FieldTimestamp, FieldSpec{Name: "timestamp", Unit: "s"})
	s.put(MesgSession, 2, FieldSpec{Name: "start_time", Unit: "s"})
	s.put(MesgSession, 3, FieldSpec{Name: "start_position_lat", Unit: "semicircles"})
	s.put(MesgSession, 4, FieldSpec{Name: "start_position_long", Unit: "semicircles"})
	s.put(MesgSession, 5, FieldSpec{Name: "sport"})
	s.put(MesgSession, 6, FieldSpec{Name: "sub_sport"})
	s.put(MesgSession, 7, FieldSpec{Name: "total_elapsed_time", Unit: "s", Scale: 1000})
	s.put(MesgSession, 8, FieldSpec{Name: "total_timer_time", Unit: "s", Scale: 1000})
	s.put(MesgSession, 9, FieldSpec{Name: "total_distance", Unit: "m", Scale: 100})
	s.put(MesgSession, 11, FieldSpec{Name: "total_calories", Unit: "kcal"})
	s.put(MesgSession, 14, FieldSpec{Name: "avg_speed", Unit: "m/s", Scale: 1000})
	s.put(MesgSession, 15, FieldSpec{Name: "max_speed", Unit: "m/s", Scale: 1000})
	s.put(MesgSession, 16, FieldSpec{Name: "avg_heart_rate", Unit: "bpm"})
	s.put(MesgSession, 17, FieldSpec{Name: "max_heart_rate", Unit: "bpm"})
	s.put(MesgSession, 18, FieldSpec{Name: "avg_cadence", Unit: "rpm"})
	s.put(MesgSession, 19, FieldSpec{Name: "max_cadence", Unit: "rpm"})
	s.put(MesgSession, 20, FieldSpec{Name: "avg_power", Unit: "watts"})
	s.put(MesgSession, 21, FieldSpec{Name: "max_power", Unit: "watts"})
	s.put(MesgSession, 22, FieldSpec{Name: "total_ascent", Unit: "m"})
	s.put(MesgSession, 23, FieldSpec{Name: "total_descent", Unit: "m"})

	// lap
	s.put(MesgLap, FieldTimestamp, FieldSpec{Name: "timestamp", Unit: "s"})
	s.put(MesgLap, 2, FieldSpec{Name: "start_time", Unit: "s"})
	s.put(MesgLap, 3, FieldSpec{Name: "start_position_lat", Unit: "semicircles"})
	s.put(MesgLap, 4, FieldSpec{Name: "start_position_long", Unit: "semicircles"})
	s.put(MesgLap, 5, FieldSpec{Name: "end_position_lat", Unit: "semicircles"})
	s.put(MesgLap, 6, FieldSpec{Name: "end_position_long", Unit: "semicircles"})
	s.put(MesgLap, 7, FieldSpec{Name: "total_elapsed_time", Unit: "s", Scale: 1000})
	s.put(MesgLap, 8, FieldSpec{Name: "total_timer_time", Unit: "s", Scale: 1000})
	s.put(MesgLap, 9, FieldSpec{Name: "total_distance", Unit: "m", Scale: 100})
	s.put(MesgLap, 11, FieldSpec{Name: "total_calories", Unit: "kcal"})
	s.put(MesgLap, 13, FieldSpec{Name: "avg_speed", Unit: "m/s", Scale: 1000})
	s.put(MesgLap, 14, FieldSpec{Name: "max_speed", Unit: "m/s", Scale: 1000})
	s.put(MesgLap, 15, FieldSpec{Name: "avg_heart_rate", Unit: "bpm"})
	s.put(MesgLap, 16, FieldSpec{Name: "max_heart_rate", Unit: "bpm"})
	s.put(MesgLap, 17, FieldSpec{Name: "avg_cadence", Unit: "rpm"})
	s.put(MesgLap, 19, FieldSpec{Name: "avg_power", Unit: "watts"})
	s.put(MesgLap, 20, FieldSpec{Name: "max_power", Unit: "watts"})
	s.put(MesgLap, 21, FieldSpec{Name: "total_ascent", Unit: "m"})
	s.put(MesgLap, 22, FieldSpec{Name: "total_descent", Unit: "m"})

	// record
	s.put(MesgRecord, FieldTimestamp, FieldSpec{Name: "timestamp", Unit: "s"})
	s.put(MesgRecord, 0, FieldSpec{Name: "position_lat", Unit: "semicircles"})
	s.put(MesgRecord, 1, FieldSpec{Name: "position_long", Unit: "semicircles"})
	s.put(MesgRecord, 2, FieldSpec{Name: "altitude", Unit: "m", Scale: 5, Offset: 500})
	s.put(MesgRecord, 3, FieldSpec{Name: "heart_rate", Unit: "bpm"})
	s.put(MesgRecord, 4, FieldSpec{Name: "cadence", Unit: "rpm"})
	s.put(MesgRecord, 5, FieldSpec{Name: "distance", Unit: "m", Scale: 100})
	s.put(MesgRecord, 6, FieldSpec{Name: "speed", Unit: "m/s", Scale: 1000})
	s.put(MesgRecord, 7, FieldSpec{Name: "power", Unit: "watts"})
	s.put(MesgRecord, 13, FieldSpec{Name: "temperature", Unit: "C"})

	// activity
	s.put(MesgActivity, FieldTimestamp, FieldSpec{Name: "timestamp", Unit: "s"})
	s.put(MesgActivity, 0, FieldSpec{Name: "total_timer_time", Unit: "s", Scale: 1000})
	s.put(MesgActivity, 1, FieldSpec{Name: "num_sessions"})
	s.put(MesgActivity, 5, FieldSpec{Name: "local_timestamp", Unit: "s"})

	// monitoring
	s.put(MesgMonitoring, FieldTimestamp, FieldSpec{Name: "timestamp", Unit: "s"})
	s.put(MesgMonitoring, 1, FieldSpec{Name: "calories", Unit: "kcal"})
	s.put(MesgMonitoring, 2, FieldSpec{Name: "distance", Unit: "m", Scale: 100})
	s.put(MesgMonitoring, 3, FieldSpec{Name: "steps"})
	s.put(MesgMonitoring, 4, FieldSpec{Name: "active_time", Unit: "s", Scale: 1000})
	s.put(MesgMonitoring, 5, FieldSpec{Name: "activity_type"})
	s.put(MesgMonitoring, 27, FieldSpec{Name: "heart_rate", Unit: "bpm"})

	// monitoring_info
	s.put(MesgMonitoringInfo, FieldTimestamp, FieldSpec{Name: "timestamp", Unit: "s"})
	s.put(MesgMonitoringInfo, 0, FieldSpec{Name: "local_timestamp", Unit: "s"})

	// stress_level
	s.put(MesgStressLevel, 0, FieldSpec{Name: "stress_level_value"})
	s.put(MesgStressLevel, 1, FieldSpec{Name: "stress_level_time", Unit: "s"})

	// sleep_level
	s.put(MesgSleepLevel, FieldTimestamp, FieldSpec{Name: "timestamp", Unit: "s"})
	s.put(MesgSleepLevel, 0, FieldSpec{Name: "sleep_level"})

	return s
}
