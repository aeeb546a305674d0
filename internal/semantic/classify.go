package semantic

import (
	"example.com/fitgate/internal/fit"
	"example.com/fitgate/internal/profile"
)

// FileClassification is the kind of file derived from the file identity
// message near the start of the stream.
type FileClassification string

const (
	ClassActivity   FileClassification = "activity"
	ClassMonitoring FileClassification = "monitoring"
	ClassSettings   FileClassification = "settings"
	ClassUnknown    FileClassification = "unknown"
)

// File type enum values carried by the identity message.
const (
	fileTypeSettings        = 2
	fileTypeActivity        = 4
	fileTypeMonitoringA     = 15
	fileTypeMonitoringDaily = 28
	fileTypeMonitoringB     = 32
)

// Classify inspects the first file identity message and maps its type
// field to a classification. Streams without an identity message, or
// with a type this subsystem does not interpret, classify as unknown.
func Classify(msgs []fit.Message) FileClassification {
	for _, msg := range msgs {
		if msg.GlobalMesgNum != profile.MesgFileID {
			continue
		}
		t, ok := msg.Field(0).Uint()
		if !ok {
			return ClassUnknown
		}
		switch t {
		case fileTypeActivity:
			return ClassActivity
		case fileTypeMonitoringA, fileTypeMonitoringDaily, fileTypeMonitoringB:
			return ClassMonitoring
		case fileTypeSettings:
			return ClassSettings
		}
		return ClassUnknown
	}
	return ClassUnknown
}
