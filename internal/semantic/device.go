package semantic

import (
	"fmt"

	"example.com/fitgate/internal/fit"
	"example.com/fitgate/internal/profile"
)

// DeviceIdentity names the hardware that produced a file. Absence is
// normal for files written before the device info message existed.
type DeviceIdentity struct {
	Manufacturer string `json:"manufacturer"`
	Product      string `json:"product"`
	SerialNumber uint32 `json:"serialNumber,omitempty"`
}

var manufacturerNames = map[uint64]string{
	1:   "garmin",
	15:  "dynastream",
	23:  "suunto",
	32:  "wahoo_fitness",
	38:  "sigmasport",
	63:  "specialized",
	89:  "tacx",
	260: "zwift",
	265: "strava",
	294: "hammerhead",
}

// DeviceInfo scans for a device identity message and returns the
// manufacturer, product and serial number if present. The second return
// is false when the stream carries no usable identity, which callers
// treat as normal rather than as an error.
func DeviceInfo(msgs []fit.Message) (DeviceIdentity, bool) {
	for _, msg := range msgs {
		if msg.GlobalMesgNum != profile.MesgDeviceInfo {
			continue
		}
		if id, ok := identityFrom(msg, 2, 4, 3); ok {
			return id, true
		}
	}
	// The identity message doubles as a fallback on files that never
	// write device_info.
	for _, msg := range msgs {
		if msg.GlobalMesgNum != profile.MesgFileID {
			continue
		}
		if id, ok := identityFrom(msg, 1, 2, 3); ok {
			return id, true
		}
	}
	return DeviceIdentity{}, false
}

func identityFrom(msg fit.Message, mfgField, productField, serialField uint8) (DeviceIdentity, bool) {
	mfg, ok := msg.Field(mfgField).Uint()
	if !ok {
		return DeviceIdentity{}, false
	}
	id := DeviceIdentity{Manufacturer: manufacturerName(mfg)}
	if product, ok := msg.Field(productField).Uint(); ok {
		id.Product = fmt.Sprintf("product_%d", product)
	}
	if serial, ok := msg.Field(serialField).Uint(); ok {
		id.SerialNumber = uint32(serial)
	}
	return id, true
}

func manufacturerName(id uint64) string {
	if name, ok := manufacturerNames[id]; ok {
		return name
	}
	return fmt.Sprintf("manufacturer_%d", id)
}
