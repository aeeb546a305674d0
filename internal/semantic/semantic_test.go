package semantic

import (
	"math"
	"testing"
	"time"

	"example.com/fitgate/internal/fit"
	"example.com/fitgate/internal/profile"
)

func msg(global uint16, fields map[uint8]fit.Value) fit.Message {
	return fit.Message{GlobalMesgNum: global, Fields: fields}
}

func fileID(fileType uint64) fit.Message {
	return msg(profile.MesgFileID, map[uint8]fit.Value{
		0: fit.UintValue(fileType),
		1: fit.UintValue(1),    // garmin
		2: fit.UintValue(2697), // product
		3: fit.UintValue(987654321),
	})
}

func TestSemicircleConversion(t *testing.T) {
	tests := []struct {
		semis int32
		want  float64
	}{
		{0, 0},
		{1 << 30, 90},
		{-(1 << 30), -90},
		{math.MinInt32, -180},
	}
	for _, tc := range tests {
		got := SemicirclesToDegrees(tc.semis)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("SemicirclesToDegrees(%d) = %v, want %v", tc.semis, got, tc.want)
		}
	}
	// Round trip within one semicircle of quantization.
	if got := DegreesToSemicircles(SemicirclesToDegrees(123456789)); got != 123456789 {
		t.Fatalf("round trip = %d, want 123456789", got)
	}
}

func TestTimestampToTime(t *testing.T) {
	if got := TimestampToTime(0); !got.Equal(Epoch()) {
		t.Fatalf("TimestampToTime(0) = %v, want %v", got, Epoch())
	}
	want := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := TimestampToTime(86400); !got.Equal(want) {
		t.Fatalf("TimestampToTime(86400) = %v, want %v", got, want)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		msgs []fit.Message
		want FileClassification
	}{
		{name: "activity", msgs: []fit.Message{fileID(4)}, want: ClassActivity},
		{name: "monitoring a", msgs: []fit.Message{fileID(15)}, want: ClassMonitoring},
		{name: "monitoring b", msgs: []fit.Message{fileID(32)}, want: ClassMonitoring},
		{name: "settings", msgs: []fit.Message{fileID(2)}, want: ClassSettings},
		{name: "no file_id", msgs: []fit.Message{msg(profile.MesgRecord, nil)}, want: ClassUnknown},
		{name: "empty", msgs: nil, want: ClassUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.msgs); got != tc.want {
				t.Fatalf("Classify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDeviceInfo(t *testing.T) {
	msgs := []fit.Message{
		fileID(4),
		msg(profile.MesgDeviceInfo, map[uint8]fit.Value{
			2: fit.UintValue(1),
			4: fit.UintValue(2697),
			3: fit.UintValue(123456),
		}),
	}
	id, ok := DeviceInfo(msgs)
	if !ok {
		t.Fatalf("DeviceInfo found nothing")
	}
	if id.Manufacturer != "garmin" {
		t.Fatalf("Manufacturer = %q, want garmin", id.Manufacturer)
	}
	if id.SerialNumber != 123456 {
		t.Fatalf("SerialNumber = %d, want 123456", id.SerialNumber)
	}

	// Falls back to file_id identity when no device_info exists.
	id, ok = DeviceInfo([]fit.Message{fileID(4)})
	if !ok {
		t.Fatalf("file_id fallback found nothing")
	}
	if id.SerialNumber != 987654321 {
		t.Fatalf("fallback SerialNumber = %d, want 987654321", id.SerialNumber)
	}

	if _, ok := DeviceInfo(nil); ok {
		t.Fatalf("DeviceInfo(nil) reported an identity")
	}
}

func TestDecodeActivity(t *testing.T) {
	store := profile.Builtin()
	msgs := []fit.Message{
		fileID(4),
		msg(profile.MesgSession, map[uint8]fit.Value{
			profile.FieldTimestamp: fit.UintValue(3600),
			2:                      fit.UintValue(0),
			5:                      fit.UintValue(1), // running
			7:                      fit.UintValue(3_600_000),
			8:                      fit.UintValue(3_500_000),
			9:                      fit.UintValue(1_000_000), // 10 km
			11:                     fit.UintValue(720),
			16:                     fit.UintValue(150),
			17:                     fit.UintValue(182),
			14:                     fit.UintValue(2778), // 2.778 m/s
		}),
		msg(profile.MesgLap, map[uint8]fit.Value{
			2: fit.UintValue(0),
			7: fit.UintValue(1_800_000),
			9: fit.UintValue(500_000),
		}),
		msg(profile.MesgRecord, map[uint8]fit.Value{
			profile.FieldTimestamp: fit.UintValue(10),
			0:                      fit.IntValue(1 << 30),  // 90 deg
			1:                      fit.IntValue(-(1 << 29)), // -45 deg
			2:                      fit.UintValue(2600),    // 20 m
			3:                      fit.UintValue(140),
			6:                      fit.UintValue(2500), // 2.5 m/s
		}),
		msg(profile.MesgRecord, map[uint8]fit.Value{
			profile.FieldTimestamp: fit.UintValue(11),
			3:                      fit.UintValue(141),
		}),
	}

	act := DecodeActivity(store, msgs)
	if act == nil {
		t.Fatalf("DecodeActivity returned nil")
	}
	if act.Sport != "running" {
		t.Fatalf("Sport = %q, want running", act.Sport)
	}
	if act.TotalElapsedSeconds != 3600 {
		t.Fatalf("TotalElapsedSeconds = %v, want 3600", act.TotalElapsedSeconds)
	}
	if act.TotalDistanceMeters != 10000 {
		t.Fatalf("TotalDistanceMeters = %v, want 10000", act.TotalDistanceMeters)
	}
	if act.TotalCalories != 720 {
		t.Fatalf("TotalCalories = %d, want 720", act.TotalCalories)
	}
	if act.MaxHeartRate != 182 {
		t.Fatalf("MaxHeartRate = %d, want 182", act.MaxHeartRate)
	}
	if !act.EndTime.Equal(Epoch().Add(time.Hour)) {
		t.Fatalf("EndTime = %v", act.EndTime)
	}

	if len(act.Laps) != 1 {
		t.Fatalf("laps = %d, want 1", len(act.Laps))
	}
	if act.Laps[0].TotalDistanceMeters != 5000 {
		t.Fatalf("lap distance = %v, want 5000", act.Laps[0].TotalDistanceMeters)
	}

	if len(act.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(act.Records))
	}
	rec := act.Records[0]
	if rec.Lat == nil || rec.Lon == nil {
		t.Fatalf("record position missing")
	}
	if math.Abs(*rec.Lat-90) > 1e-9 || math.Abs(*rec.Lon+45) > 1e-9 {
		t.Fatalf("position = %v,%v, want 90,-45", *rec.Lat, *rec.Lon)
	}
	if rec.AltitudeMeters == nil || *rec.AltitudeMeters != 20 {
		t.Fatalf("altitude = %v, want 20", rec.AltitudeMeters)
	}
	if rec.SpeedMPS == nil || *rec.SpeedMPS != 2.5 {
		t.Fatalf("speed = %v, want 2.5", rec.SpeedMPS)
	}
	// Second record has no position reading.
	if act.Records[1].Lat != nil {
		t.Fatalf("second record grew a position")
	}
}

func TestDecodeActivityAbsent(t *testing.T) {
	store := profile.Builtin()
	if act := DecodeActivity(store, []fit.Message{fileID(15)}); act != nil {
		t.Fatalf("monitoring stream decoded as activity: %+v", act)
	}
	if act := DecodeActivity(store, []fit.Message{fileID(4)}); act != nil {
		t.Fatalf("sessionless activity stream decoded: %+v", act)
	}
}

func TestDecodeMonitoring(t *testing.T) {
	store := profile.Builtin()
	const day1 = uint64(86400)  // 1990-01-01
	const day2 = uint64(172800) // 1990-01-02
	msgs := []fit.Message{
		fileID(15),
		msg(profile.MesgMonitoring, map[uint8]fit.Value{
			profile.FieldTimestamp: fit.UintValue(day1 + 100),
			3:                      fit.UintValue(1000),
			27:                     fit.UintValue(60),
		}),
		msg(profile.MesgMonitoring, map[uint8]fit.Value{
			profile.FieldTimestamp: fit.UintValue(day1 + 200),
			3:                      fit.UintValue(4500), // cumulative overwrite
			2:                      fit.UintValue(320_000),
			1:                      fit.UintValue(210),
			27:                     fit.UintValue(80),
		}),
		msg(profile.MesgStressLevel, map[uint8]fit.Value{
			0: fit.IntValue(30),
			1: fit.UintValue(day1 + 150),
		}),
		msg(profile.MesgStressLevel, map[uint8]fit.Value{
			0: fit.IntValue(-1), // device unable to compute, ignored
			1: fit.UintValue(day1 + 160),
		}),
		msg(profile.MesgSleepLevel, map[uint8]fit.Value{
			profile.FieldTimestamp: fit.UintValue(day2 + 10),
			0:                      fit.UintValue(3),
		}),
		msg(profile.MesgMonitoring, map[uint8]fit.Value{
			profile.FieldTimestamp: fit.UintValue(day2 + 50),
			3:                      fit.UintValue(12),
		}),
	}

	days := DecodeMonitoring(store, msgs)
	if len(days) != 2 {
		t.Fatalf("days = %d, want 2", len(days))
	}
	d1, d2 := days[0], days[1]
	if d1.Date != "1990-01-01" || d2.Date != "1990-01-02" {
		t.Fatalf("dates = %s, %s", d1.Date, d2.Date)
	}
	if d1.Steps != 4500 {
		t.Fatalf("steps = %d, want 4500", d1.Steps)
	}
	if d1.DistanceMeters != 3200 {
		t.Fatalf("distance = %v, want 3200", d1.DistanceMeters)
	}
	if d1.HeartRateMin != 60 || d1.HeartRateMax != 80 || d1.HeartRateAvg != 70 {
		t.Fatalf("heart rate min/max/avg = %d/%d/%d, want 60/80/70",
			d1.HeartRateMin, d1.HeartRateMax, d1.HeartRateAvg)
	}
	if d1.StressAvg != 30 {
		t.Fatalf("stress avg = %d, want 30", d1.StressAvg)
	}
	if len(d1.SleepSamples) != 0 {
		t.Fatalf("day 1 grew sleep samples")
	}
	if d2.Steps != 12 || len(d2.SleepSamples) != 1 || d2.SleepSamples[0].Level != 3 {
		t.Fatalf("day 2 = %+v", d2)
	}
}

func TestDecodeMonitoringAbsent(t *testing.T) {
	store := profile.Builtin()
	if days := DecodeMonitoring(store, []fit.Message{fileID(4)}); days != nil {
		t.Fatalf("activity stream decoded as monitoring")
	}
	if days := DecodeMonitoring(store, []fit.Message{fileID(2)}); days != nil {
		t.Fatalf("settings stream decoded as monitoring")
	}
	// Unknown class with a session message is activity shaped.
	unknown := []fit.Message{msg(profile.MesgSession, nil)}
	if days := DecodeMonitoring(store, unknown); days != nil {
		t.Fatalf("sessionful unknown stream decoded as monitoring")
	}
}

func TestMergeDays(t *testing.T) {
	a := []MonitoringDay{
		{Date: "1990-01-01", Steps: 100, HeartRateMin: 55, HeartRateMax: 120},
	}
	b := []MonitoringDay{
		{Date: "1990-01-01", Steps: 4000, HeartRateMin: 61, HeartRateMax: 150,
			SleepSamples: []SleepSample{{Level: 2}}},
		{Date: "1990-01-02", Steps: 7},
	}
	merged := MergeDays(a, b)
	if len(merged) != 2 {
		t.Fatalf("merged days = %d, want 2", len(merged))
	}
	d := merged[0]
	if d.Steps != 4000 {
		t.Fatalf("steps = %d, want 4000", d.Steps)
	}
	if d.HeartRateMin != 55 || d.HeartRateMax != 150 {
		t.Fatalf("hr min/max = %d/%d, want 55/150", d.HeartRateMin, d.HeartRateMax)
	}
	if len(d.SleepSamples) != 1 {
		t.Fatalf("sleep samples = %d, want 1", len(d.SleepSamples))
	}
	if merged[1].Date != "1990-01-02" {
		t.Fatalf("second day = %s", merged[1].Date)
	}
}
