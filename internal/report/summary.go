package report

import (
	"example.com/fitgate/internal/common"
	"example.com/fitgate/internal/fit"
	"example.com/fitgate/internal/profile"
	"example.com/fitgate/internal/semantic"
)

// Summarize decodes buf and assembles the full summary for it. The path
// is carried through verbatim for display only.
func Summarize(store *profile.Store, path string, buf []byte) (FileSummary, error) {
	file, err := fit.ParseBytes(buf)
	if err != nil {
		return FileSummary{}, err
	}
	sum := FileSummary{
		Path:           path,
		Fingerprint:    common.Sha256OfBytes(buf),
		SizeBytes:      int64(len(buf)),
		Classification: semantic.Classify(file.Messages),
		Messages:       len(file.Messages),
		SkippedRecords: file.SkippedRecords,
		SkippedBytes:   file.SkippedBytes,
	}
	if id, ok := semantic.DeviceInfo(file.Messages); ok {
		sum.Device = &id
	}
	sum.Activity = semantic.DecodeActivity(store, file.Messages)
	sum.MonitoringDays = semantic.DecodeMonitoring(store, file.Messages)
	return sum, nil
}
