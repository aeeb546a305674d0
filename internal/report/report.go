package report

import (
	"encoding/json"
	"os"

	"example.com/fitgate/internal/semantic"
)

// FileSummary is the decode result for one file in a machine-readable
// shape. Exactly one of Activity or MonitoringDays is populated unless
// the file defied classification.
type FileSummary struct {
	Path           string                      `json:"path,omitempty"`
	Fingerprint    string                      `json:"fingerprint"`
	SizeBytes      int64                       `json:"sizeBytes"`
	Classification semantic.FileClassification `json:"classification"`
	Device         *semantic.DeviceIdentity    `json:"device,omitempty"`

	Messages       int `json:"messages"`
	SkippedRecords int `json:"skippedRecords,omitempty"`
	SkippedBytes   int `json:"skippedBytes,omitempty"`

	Activity       *semantic.Activity       `json:"activity,omitempty"`
	MonitoringDays []semantic.MonitoringDay `json:"monitoringDays,omitempty"`
}

func SaveSummaryJSON(sum FileSummary, out string) error {
	b, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadSummaryJSON(path string) (FileSummary, error) {
	var sum FileSummary
	b, err := os.ReadFile(path)
	if err != nil {
		return sum, err
	}
	err = json.Unmarshal(b, &sum)
	return sum, err
}
