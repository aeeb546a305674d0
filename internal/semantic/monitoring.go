package semantic

import (
	"sort"
	"time"

	"example.com/fitgate/internal/fit"
	"example.com/fitgate/internal/profile"
)

// MonitoringDay aggregates one UTC calendar day of wellness data. Cumulative
// counters (steps, distance, calories, active time) take the latest value
// seen for the day; sampled channels (heart rate, stress, sleep level)
// accumulate.
type MonitoringDay struct {
	Date string `json:"date"` // ISO yyyy-mm-dd

	Steps          int     `json:"steps,omitempty"`
	DistanceMeters float64 `json:"distanceMeters,omitempty"`
	Calories       int     `json:"calories,omitempty"`
	ActiveSeconds  float64 `json:"activeSeconds,omitempty"`

	HeartRateMin int `json:"heartRateMin,omitempty"`
	HeartRateMax int `json:"heartRateMax,omitempty"`
	HeartRateAvg int `json:"heartRateAvg,omitempty"`

	StressAvg int `json:"stressAvg,omitempty"`

	SleepSamples []SleepSample `json:"sleepSamples,omitempty"`

	hrSum     int
	hrCount   int
	stressSum int
	stressN   int
}

// SleepSample is one sleep-level reading.
type SleepSample struct {
	Time  time.Time `json:"time"`
	Level int       `json:"level"`
}

// DecodeMonitoring groups monitoring, stress and sleep messages by the
// calendar date of their timestamp and returns one aggregate per day,
// sorted by date. It returns nil for streams classified as something
// other than monitoring, and also refuses activity-shaped streams (ones
// carrying a session message) so probing with the wrong decoder yields
// an absent result instead of garbage.
func DecodeMonitoring(store *profile.Store, msgs []fit.Message) []MonitoringDay {
	class := Classify(msgs)
	if class == ClassActivity || class == ClassSettings {
		return nil
	}
	if class == ClassUnknown {
		for _, msg := range msgs {
			if msg.GlobalMesgNum == profile.MesgSession {
				return nil
			}
		}
	}

	days := make(map[string]*MonitoringDay)
	day := func(ts uint32) *MonitoringDay {
		date := TimestampToTime(ts).Format("2006-01-02")
		d, ok := days[date]
		if !ok {
			d = &MonitoringDay{Date: date}
			days[date] = d
		}
		return d
	}

	for i := range msgs {
		msg := &msgs[i]
		switch msg.GlobalMesgNum {
		case profile.MesgMonitoring:
			ts, ok := msg.Field(profile.FieldTimestamp).Uint()
			if !ok {
				continue
			}
			d := day(uint32(ts))
			if v, ok := msg.Field(3).Uint(); ok {
				d.Steps = int(v)
			}
			if v, ok := msg.Field(2).Float(); ok {
				d.DistanceMeters = store.Scale(profile.MesgMonitoring, 2, v)
			}
			if v, ok := msg.Field(1).Uint(); ok {
				d.Calories = int(v)
			}
			if v, ok := msg.Field(4).Float(); ok {
				d.ActiveSeconds = store.Scale(profile.MesgMonitoring, 4, v)
			}
			if v, ok := msg.Field(27).Uint(); ok {
				d.addHeartRate(int(v))
			}
		case profile.MesgStressLevel:
			ts, ok := msg.Field(1).Uint()
			if !ok {
				continue
			}
			if v, ok := msg.Field(0).Int(); ok && v >= 0 {
				d := day(uint32(ts))
				d.stressSum += int(v)
				d.stressN++
				d.StressAvg = d.stressSum / d.stressN
			}
		case profile.MesgSleepLevel:
			ts, ok := msg.Field(profile.FieldTimestamp).Uint()
			if !ok {
				continue
			}
			if v, ok := msg.Field(0).Uint(); ok {
				d := day(uint32(ts))
				d.SleepSamples = append(d.SleepSamples, SleepSample{
					Time:  TimestampToTime(uint32(ts)),
					Level: int(v),
				})
			}
		}
	}

	out := make([]MonitoringDay, 0, len(days))
	for _, d := range days {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (d *MonitoringDay) addHeartRate(hr int) {
	if d.HeartRateMin == 0 || hr < d.HeartRateMin {
		d.HeartRateMin = hr
	}
	if hr > d.HeartRateMax {
		d.HeartRateMax = hr
	}
	d.hrSum += hr
	d.hrCount++
	d.HeartRateAvg = d.hrSum / d.hrCount
}

// MergeDays merges day aggregates from multiple files by the same
// merge-by-date rule the decoder uses internally: later cumulative values
// overwrite, samples append. The result is sorted by date.
func MergeDays(lists ...[]MonitoringDay) []MonitoringDay {
	merged := make(map[string]*MonitoringDay)
	for _, list := range lists {
		for i := range list {
			src := &list[i]
			dst, ok := merged[src.Date]
			if !ok {
				clone := *src
				merged[src.Date] = &clone
				continue
			}
			if src.Steps != 0 {
				dst.Steps = src.Steps
			}
			if src.DistanceMeters != 0 {
				dst.DistanceMeters = src.DistanceMeters
			}
			if src.Calories != 0 {
				dst.Calories = src.Calories
			}
			if src.ActiveSeconds != 0 {
				dst.ActiveSeconds = src.ActiveSeconds
			}
			if src.HeartRateMin != 0 && (dst.HeartRateMin == 0 || src.HeartRateMin < dst.HeartRateMin) {
				dst.HeartRateMin = src.HeartRateMin
			}
			if src.HeartRateMax > dst.HeartRateMax {
				dst.HeartRateMax = src.HeartRateMax
			}
			if src.HeartRateAvg != 0 {
				dst.HeartRateAvg = src.HeartRateAvg
			}
			if src.StressAvg != 0 {
				dst.StressAvg = src.StressAvg
			}
			dst.SleepSamples = append(dst.SleepSamples, src.SleepSamples...)
		}
	}
	out := make([]MonitoringDay, 0, len(merged))
	for _, d := range merged {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
