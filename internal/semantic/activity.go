package semantic

import (
	"fmt"
	"time"

	"example.com/fitgate/internal/fit"
	"example.com/fitgate/internal/profile"
)

// Activity is one decoded workout: session-level aggregates plus ordered
// laps and time-series records.
type Activity struct {
	Sport     string    `json:"sport"`
	SubSport  string    `json:"subSport,omitempty"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	TotalElapsedSeconds float64 `json:"totalElapsedSeconds"`
	TotalTimerSeconds   float64 `json:"totalTimerSeconds"`
	TotalDistanceMeters float64 `json:"totalDistanceMeters"`
	TotalCalories       int     `json:"totalCalories"`
	TotalAscentMeters   float64 `json:"totalAscentMeters"`
	TotalDescentMeters  float64 `json:"totalDescentMeters"`

	AvgHeartRate int     `json:"avgHeartRate,omitempty"`
	MaxHeartRate int     `json:"maxHeartRate,omitempty"`
	AvgSpeedMPS  float64 `json:"avgSpeedMps,omitempty"`
	MaxSpeedMPS  float64 `json:"maxSpeedMps,omitempty"`
	AvgCadence   int     `json:"avgCadence,omitempty"`
	MaxCadence   int     `json:"maxCadence,omitempty"`
	AvgPower     int     `json:"avgPowerWatts,omitempty"`
	MaxPower     int     `json:"maxPowerWatts,omitempty"`

	Laps    []Lap    `json:"laps,omitempty"`
	Records []Record `json:"records,omitempty"`
}

// Lap is one lap-level aggregate in stream order.
type Lap struct {
	StartTime           time.Time `json:"startTime"`
	TotalElapsedSeconds float64   `json:"totalElapsedSeconds"`
	TotalTimerSeconds   float64   `json:"totalTimerSeconds"`
	TotalDistanceMeters float64   `json:"totalDistanceMeters"`
	TotalCalories       int       `json:"totalCalories,omitempty"`
	AvgHeartRate        int       `json:"avgHeartRate,omitempty"`
	MaxHeartRate        int       `json:"maxHeartRate,omitempty"`
	AvgSpeedMPS         float64   `json:"avgSpeedMps,omitempty"`
	MaxSpeedMPS         float64   `json:"maxSpeedMps,omitempty"`
	AvgCadence          int       `json:"avgCadence,omitempty"`
	AvgPower            int       `json:"avgPowerWatts,omitempty"`
	TotalAscentMeters   float64   `json:"totalAscentMeters,omitempty"`
	TotalDescentMeters  float64   `json:"totalDescentMeters,omitempty"`
}

// Record is one time-series sample. Optional channels are pointers so a
// missing reading is distinguishable from zero.
type Record struct {
	Timestamp      time.Time `json:"timestamp"`
	Lat            *float64  `json:"lat,omitempty"`
	Lon            *float64  `json:"lon,omitempty"`
	AltitudeMeters *float64  `json:"altitudeMeters,omitempty"`
	HeartRate      *int      `json:"heartRate,omitempty"`
	Cadence        *int      `json:"cadence,omitempty"`
	SpeedMPS       *float64  `json:"speedMps,omitempty"`
	PowerWatts     *int      `json:"powerWatts,omitempty"`
	DistanceMeters *float64  `json:"distanceMeters,omitempty"`
	TemperatureC   *int      `json:"temperatureC,omitempty"`
}

var sportNames = map[uint64]string{
	0:  "generic",
	1:  "running",
	2:  "cycling",
	3:  "transition",
	4:  "fitness_equipment",
	5:  "swimming",
	10: "training",
	11: "walking",
	17: "hiking",
	13: "alpine_skiing",
	12: "cross_country_skiing",
}

// DecodeActivity builds one Activity from an ordered message sequence.
// It returns nil when the stream is not classified as an activity or
// carries no session message; callers routinely probe files with the
// wrong decoder, so neither case is an error.
func DecodeActivity(store *profile.Store, msgs []fit.Message) *Activity {
	if Classify(msgs) != ClassActivity {
		return nil
	}
	var session *fit.Message
	for i := range msgs {
		if msgs[i].GlobalMesgNum == profile.MesgSession {
			session = &msgs[i]
			break
		}
	}
	if session == nil {
		return nil
	}

	act := &Activity{}
	if sport, ok := session.Field(5).Uint(); ok {
		act.Sport = sportName(sport)
	}
	if sub, ok := session.Field(6).Uint(); ok && sub != 0 {
		act.SubSport = fmt.Sprintf("sub_sport_%d", sub)
	}
	if start, ok := session.Field(2).Uint(); ok {
		act.StartTime = TimestampToTime(uint32(start))
	}
	if ts, ok := session.Field(profile.FieldTimestamp).Uint(); ok {
		act.EndTime = TimestampToTime(uint32(ts))
	}
	act.TotalElapsedSeconds = scaled(store, session, profile.MesgSession, 7)
	act.TotalTimerSeconds = scaled(store, session, profile.MesgSession, 8)
	act.TotalDistanceMeters = scaled(store, session, profile.MesgSession, 9)
	act.TotalCalories = intField(session, 11)
	act.AvgHeartRate = intField(session, 16)
	act.MaxHeartRate = intField(session, 17)
	act.AvgSpeedMPS = scaled(store, session, profile.MesgSession, 14)
	act.MaxSpeedMPS = scaled(store, session, profile.MesgSession, 15)
	act.AvgCadence = intField(session, 18)
	act.MaxCadence = intField(session, 19)
	act.AvgPower = intField(session, 20)
	act.MaxPower = intField(session, 21)
	act.TotalAscentMeters = scaled(store, session, profile.MesgSession, 22)
	act.TotalDescentMeters = scaled(store, session, profile.MesgSession, 23)

	for i := range msgs {
		switch msgs[i].GlobalMesgNum {
		case profile.MesgLap:
			act.Laps = append(act.Laps, decodeLap(store, &msgs[i]))
		case profile.MesgRecord:
			act.Records = append(act.Records, decodeRecord(store, &msgs[i]))
		}
	}
	return act
}

func decodeLap(store *profile.Store, msg *fit.Message) Lap {
	lap := Lap{
		TotalElapsedSeconds: scaled(store, msg, profile.MesgLap, 7),
		TotalTimerSeconds:   scaled(store, msg, profile.MesgLap, 8),
		TotalDistanceMeters: scaled(store, msg, profile.MesgLap, 9),
		TotalCalories:       intField(msg, 11),
		AvgSpeedMPS:         scaled(store, msg, profile.MesgLap, 13),
		MaxSpeedMPS:         scaled(store, msg, profile.MesgLap, 14),
		AvgHeartRate:        intField(msg, 15),
		MaxHeartRate:        intField(msg, 16),
		AvgCadence:          intField(msg, 17),
		AvgPower:            intField(msg, 19),
		TotalAscentMeters:   scaled(store, msg, profile.MesgLap, 21),
		TotalDescentMeters:  scaled(store, msg, profile.MesgLap, 22),
	}
	if start, ok := msg.Field(2).Uint(); ok {
		lap.StartTime = TimestampToTime(uint32(start))
	}
	return lap
}

func decodeRecord(store *profile.Store, msg *fit.Message) Record {
	rec := Record{}
	if ts, ok := msg.Field(profile.FieldTimestamp).Uint(); ok {
		rec.Timestamp = TimestampToTime(uint32(ts))
	}
	if lat, ok := msg.Field(0).Int(); ok {
		if lon, ok := msg.Field(1).Int(); ok {
			latDeg := SemicirclesToDegrees(int32(lat))
			lonDeg := SemicirclesToDegrees(int32(lon))
			rec.Lat, rec.Lon = &latDeg, &lonDeg
		}
	}
	if v, ok := msg.Field(2).Float(); ok {
		alt := store.Scale(profile.MesgRecord, 2, v)
		rec.AltitudeMeters = &alt
	}
	if v, ok := msg.Field(3).Uint(); ok {
		hr := int(v)
		rec.HeartRate = &hr
	}
	if v, ok := msg.Field(4).Uint(); ok {
		cad := int(v)
		rec.Cadence = &cad
	}
	if v, ok := msg.Field(6).Float(); ok {
		speed := store.Scale(profile.MesgRecord, 6, v)
		rec.SpeedMPS = &speed
	}
	if v, ok := msg.Field(7).Uint(); ok {
		power := int(v)
		rec.PowerWatts = &power
	}
	if v, ok := msg.Field(5).Float(); ok {
		dist := store.Scale(profile.MesgRecord, 5, v)
		rec.DistanceMeters = &dist
	}
	if v, ok := msg.Field(13).Int(); ok {
		temp := int(v)
		rec.TemperatureC = &temp
	}
	return rec
}

// scaled reads a numeric field and applies the profile unit conversion,
// returning 0 for absent fields.
func scaled(store *profile.Store, msg *fit.Message, mesg uint16, field uint8) float64 {
	v, ok := msg.Field(field).Float()
	if !ok {
		return 0
	}
	return store.Scale(mesg, field, v)
}

func intField(msg *fit.Message, field uint8) int {
	v, ok := msg.Field(field).Uint()
	if !ok {
		return 0
	}
	return int(v)
}

func sportName(id uint64) string {
	if name, ok := sportNames[id]; ok {
		return name
	}
	return fmt.Sprintf("sport_%d", id)
}
