package fit

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	legacyHeaderSize   = 12
	extendedHeaderSize = 14
)

var fileSignature = [4]byte{'.', 'F', 'I', 'T'}

var (
	ErrTooSmall         = errors.New("buffer shorter than minimum file header")
	ErrBadHeaderSize    = errors.New("file header declares an unsupported size")
	ErrInvalidSignature = errors.New("file signature is not .FIT")
)

// ParseFileHeader validates the start of buf and returns the decoded
// header together with the byte offsets of the message region. This is
// the only place file-level structural validity is enforced; everything
// downstream trusts the returned bounds. The region end is clamped to the
// buffer end so a truncated file yields a shorter, still safe, region.
func ParseFileHeader(buf []byte) (FileHeader, int, int, error) {
	var hdr FileHeader
	if len(buf) < legacyHeaderSize {
		return hdr, 0, 0, fmt.Errorf("%w: %d bytes", ErrTooSmall, len(buf))
	}
	hdr.HeaderSize = buf[0]
	if hdr.HeaderSize != legacyHeaderSize && hdr.HeaderSize != extendedHeaderSize {
		return hdr, 0, 0, fmt.Errorf("%w: %d", ErrBadHeaderSize, hdr.HeaderSize)
	}
	copy(hdr.Signature[:], buf[8:12])
	if hdr.Signature != fileSignature {
		return hdr, 0, 0, fmt.Errorf("%w: %q", ErrInvalidSignature, hdr.Signature[:])
	}
	hdr.ProtocolVersion = buf[1]
	hdr.ProfileVersion = binary.LittleEndian.Uint16(buf[2:4])
	hdr.DataSize = binary.LittleEndian.Uint32(buf[4:8])
	if hdr.HeaderSize == extendedHeaderSize && len(buf) >= extendedHeaderSize {
		// Read but not verified.
		hdr.CRC = binary.LittleEndian.Uint16(buf[12:14])
	}
	start := int(hdr.HeaderSize)
	if start > len(buf) {
		start = len(buf)
	}
	end := start + int(hdr.DataSize)
	if end > len(buf) {
		end = len(buf)
	}
	return hdr, start, end, nil
}
