package fit

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"example.com/fitgate/internal/common"
)

const (
	headerCompressedBit  = 0x80
	headerDefinitionBit  = 0x40
	headerDevFieldsBit   = 0x20
	headerLocalMask      = 0x0F
	compressedLocalShift = 5
	compressedLocalMask  = 0x03
	compressedOffsetMask = 0x1F

	maxLocalMessages = 16
	devFieldDescSize = 3

	// Bound on the total bytes a parse may skip while resynchronizing
	// after corrupt records. Past this the remainder of the region is
	// considered unrecoverable and the parse ends with partial results.
	maxResyncBytes = 64 * 1024

	timestampFieldNum = 253
)

// Reader walks the message region of one buffer record by record. All of
// its mutable state (the 16-slot definition table, the cursor position,
// the running timestamp) is owned by a single parse invocation, so two
// buffers parsed concurrently never interfere.
type Reader struct {
	cur    *cursor
	header FileHeader

	defs [maxLocalMessages]*MessageDefinition

	lastTimestamp uint32
	timestampSeen bool

	skippedRecords int
	skippedBytes   int

	metrics *common.Metrics
}

// NewReader validates the file header of buf and prepares a record
// iterator over its message region. Header problems are the only fatal
// errors this package produces.
func NewReader(buf []byte) (*Reader, error) {
	hdr, start, end, err := ParseFileHeader(buf)
	if err != nil {
		return nil, err
	}
	cur := newCursor(buf[:end])
	cur.pos = start
	return &Reader{cur: cur, header: hdr}, nil
}

// Header returns the validated file header.
func (r *Reader) Header() FileHeader {
	return r.header
}

// SetMetrics attaches a metrics recorder to the reader.
func (r *Reader) SetMetrics(m *common.Metrics) {
	r.metrics = m
	if r.metrics != nil {
		r.metrics.SetTotalBytes(int64(len(r.cur.buf)))
	}
}

// SkippedRecords reports how many records were dropped so far.
func (r *Reader) SkippedRecords() int {
	return r.skippedRecords
}

// SkippedBytes reports how many bytes were consumed by resynchronization.
func (r *Reader) SkippedBytes() int {
	return r.skippedBytes
}

// Next returns the next decoded data message, consuming any definition
// records along the way. It returns io.EOF when the message region is
// exhausted. A malformed record is never fatal: the reader advances one
// byte past the failed record's start and resumes scanning, bounded by
// maxResyncBytes per file.
func (r *Reader) Next() (Message, error) {
	for {
		if r.cur.remaining() == 0 {
			return Message{}, io.EOF
		}
		start := r.cur.pos
		msg, ok, err := r.readRecord()
		if err != nil {
			if r.skippedBytes >= maxResyncBytes {
				common.Logf("resync budget exhausted at offset %d, ending parse", start)
				return Message{}, io.EOF
			}
			common.Logf("record at offset %d dropped: %v", start, err)
			r.cur.pos = start + 1
			r.skippedBytes++
			r.skippedRecords++
			if r.metrics != nil {
				r.metrics.IncResync()
			}
			continue
		}
		if r.metrics != nil {
			r.metrics.AddBytes(int64(r.cur.pos - start))
		}
		if !ok {
			continue
		}
		if r.metrics != nil {
			r.metrics.AddMessage()
		}
		return msg, nil
	}
}

// readRecord consumes one record. ok is false for definition records and
// for data records that had to be discarded without error (undefined
// slot). Any returned error means the cursor state for this record is
// unusable and the caller must resynchronize.
func (r *Reader) readRecord() (Message, bool, error) {
	hdr, err := r.cur.u8()
	if err != nil {
		return Message{}, false, err
	}

	if hdr&headerCompressedBit != 0 {
		local := (hdr >> compressedLocalShift) & compressedLocalMask
		offset := hdr & compressedOffsetMask
		def := r.defs[local]
		if def == nil {
			// A dangling data record of unknown shape cannot be decoded;
			// drop it and let the scan continue at the next byte.
			r.skippedRecords++
			common.Logf("compressed record references undefined local type %d, dropped", local)
			return Message{}, false, nil
		}
		msg, err := r.readDataBody(def)
		if err != nil {
			return Message{}, false, err
		}
		r.applyCompressedTimestamp(&msg, offset)
		return msg, true, nil
	}

	local := hdr & headerLocalMask
	if hdr&headerDefinitionBit != 0 {
		if err := r.readDefinition(local, hdr&headerDevFieldsBit != 0); err != nil {
			return Message{}, false, err
		}
		if r.metrics != nil {
			r.metrics.AddDefinition()
		}
		return Message{}, false, nil
	}

	def := r.defs[local]
	if def == nil {
		r.skippedRecords++
		common.Logf("data record references undefined local type %d, dropped", local)
		return Message{}, false, nil
	}
	msg, err := r.readDataBody(def)
	if err != nil {
		return Message{}, false, err
	}
	return msg, true, nil
}

func (r *Reader) readDefinition(local uint8, hasDevFields bool) error {
	if _, err := r.cur.u8(); err != nil { // reserved
		return err
	}
	arch, err := r.cur.u8()
	if err != nil {
		return err
	}
	def := &MessageDefinition{BigEndian: arch != 0}
	order := def.byteOrder()
	def.GlobalMesgNum, err = r.cur.u16(order)
	if err != nil {
		return err
	}
	count, err := r.cur.u8()
	if err != nil {
		return err
	}
	def.Fields = make([]FieldDefinition, 0, count)
	for i := 0; i < int(count); i++ {
		triple, err := r.cur.bytes(3)
		if err != nil {
			return err
		}
		def.Fields = append(def.Fields, FieldDefinition{
			Number:   triple[0],
			Size:     triple[1],
			BaseType: triple[2],
		})
	}
	if hasDevFields {
		devCount, err := r.cur.u8()
		if err != nil {
			return err
		}
		// Developer field descriptors are skipped unparsed; their values
		// are not surfaced as domain data.
		if err := r.cur.skip(int(devCount) * devFieldDescSize); err != nil {
			return err
		}
	}
	r.defs[local] = def
	return nil
}

func (r *Reader) readDataBody(def *MessageDefinition) (Message, error) {
	order := def.byteOrder()
	msg := Message{
		GlobalMesgNum: def.GlobalMesgNum,
		Fields:        make(map[uint8]Value, len(def.Fields)),
	}
	for _, fd := range def.Fields {
		v, err := decodeField(r.cur, fd, order)
		if err != nil {
			return Message{}, fmt.Errorf("field %d: %w", fd.Number, err)
		}
		if v.IsAbsent() {
			continue
		}
		msg.Fields[fd.Number] = v
		if fd.Number == timestampFieldNum {
			if ts, ok := v.Uint(); ok {
				r.lastTimestamp = uint32(ts)
				r.timestampSeen = true
			}
		}
	}
	return msg, nil
}

// applyCompressedTimestamp reconstructs an absolute timestamp from the
// 5-bit seconds offset of a compressed record header, relative to the
// most recent full timestamp seen in the stream. Without a prior full
// timestamp the offset is unanchored and the message is left as decoded.
func (r *Reader) applyCompressedTimestamp(msg *Message, offset uint8) {
	if !r.timestampSeen {
		return
	}
	ts := r.lastTimestamp&^uint32(compressedOffsetMask) | uint32(offset)
	if ts < r.lastTimestamp {
		ts += compressedOffsetMask + 1
	}
	r.lastTimestamp = ts
	if _, exists := msg.Fields[timestampFieldNum]; !exists {
		msg.Fields[timestampFieldNum] = UintValue(uint64(ts))
	}
}

func (def *MessageDefinition) byteOrder() binary.ByteOrder {
	if def.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Drain consumes every remaining message from the reader and collects
// them into a File.
func Drain(reader *Reader) (*File, error) {
	file := &File{Header: reader.Header()}
	for {
		msg, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		file.Messages = append(file.Messages, msg)
	}
	file.SkippedRecords = reader.SkippedRecords()
	file.SkippedBytes = reader.SkippedBytes()
	return file, nil
}

// ParseBytes decodes every message in buf. Decoding is a pure function of
// the input bytes: no state survives between invocations.
func ParseBytes(buf []byte) (*File, error) {
	reader, err := NewReader(buf)
	if err != nil {
		return nil, err
	}
	return Drain(reader)
}

// ParseFile reads and decodes the file at path.
func ParseFile(path string) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBytes(buf)
}
