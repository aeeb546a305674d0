package semantic

import "time"

// The format stores GPS coordinates as 32-bit signed semicircles where
// 2^31 semicircles equal 180 degrees.
const degreesPerSemicircle = 180.0 / 2147483648.0

// epoch is the format's timestamp origin, offset from the Unix epoch.
var epoch = time.Date(1989, time.December, 31, 0, 0, 0, 0, time.UTC)

// SemicirclesToDegrees converts a raw coordinate to degrees.
func SemicirclesToDegrees(s int32) float64 {
	return float64(s) * degreesPerSemicircle
}

// DegreesToSemicircles is the inverse conversion.
func DegreesToSemicircles(d float64) int32 {
	return int32(d / degreesPerSemicircle)
}

// TimestampToTime converts a raw device timestamp (seconds since the
// format's epoch) to calendar time.
func TimestampToTime(ts uint32) time.Time {
	return epoch.Add(time.Duration(ts) * time.Second)
}

// Epoch returns the format's epoch instant.
func Epoch() time.Time {
	return epoch
}
