package fit

import (
	"encoding/binary"
	"io"
	"math"
)

// cursor is a sequential reader over an immutable byte buffer. Every read
// advances the position by the read width; reading past the end of the
// buffer fails with io.ErrUnexpectedEOF and leaves the position unchanged.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, io.ErrUnexpectedEOF
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

func (c *cursor) skip(n int) error {
	_, err := c.bytes(n)
	return err
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) s8() (int8, error) {
	v, err := c.u8()
	return int8(v), err
}

func (c *cursor) u16(order binary.ByteOrder) (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

func (c *cursor) s16(order binary.ByteOrder) (int16, error) {
	v, err := c.u16(order)
	return int16(v), err
}

func (c *cursor) u32(order binary.ByteOrder) (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (c *cursor) s32(order binary.ByteOrder) (int32, error) {
	v, err := c.u32(order)
	return int32(v), err
}

func (c *cursor) u64(order binary.ByteOrder) (uint64, error) {
	b, err := c.bytes(8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

func (c *cursor) s64(order binary.ByteOrder) (int64, error) {
	v, err := c.u64(order)
	return int64(v), err
}

func (c *cursor) f32(order binary.ByteOrder) (float32, error) {
	v, err := c.u32(order)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (c *cursor) f64(order binary.ByteOrder) (float64, error) {
	v, err := c.u64(order)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}
