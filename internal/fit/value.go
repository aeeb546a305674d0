package fit

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Base type tags as they appear in field definitions. The high bit marks
// multi-byte types; the low five bits are the type number.
const (
	BaseEnum    = 0x00
	BaseSint8   = 0x01
	BaseUint8   = 0x02
	BaseSint16  = 0x83
	BaseUint16  = 0x84
	BaseSint32  = 0x85
	BaseUint32  = 0x86
	BaseString  = 0x07
	BaseFloat32 = 0x88
	BaseFloat64 = 0x89
	BaseUint8z  = 0x0A
	BaseUint16z = 0x8B
	BaseUint32z = 0x8C
	BaseByte    = 0x0D
	BaseSint64  = 0x8E
	BaseUint64  = 0x8F
	BaseUint64z = 0x90
)

// ValueKind enumerates the closed set of decoded value shapes. Every call
// site switches on the kind instead of trusting an untyped result.
type ValueKind uint8

const (
	KindAbsent ValueKind = iota
	KindUint
	KindInt
	KindFloat
	KindString
	KindBytes
	KindArray
)

func (k ValueKind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is one decoded field value. The zero Value is absent.
type Value struct {
	kind ValueKind
	u    uint64
	i    int64
	f    float64
	s    string
	raw  []byte
	arr  []Value
}

// Exported constructors let consumers and tests assemble messages
// without going through the wire format.

func UintValue(v uint64) Value   { return Value{kind: KindUint, u: v} }
func IntValue(v int64) Value     { return Value{kind: KindInt, i: v} }
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }
func StringValue(v string) Value { return Value{kind: KindString, s: v} }
func BytesValue(v []byte) Value  { return Value{kind: KindBytes, raw: v} }
func ArrayValue(v []Value) Value { return Value{kind: KindArray, arr: v} }

// Kind reports the value's shape.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether the field carried the base type's "no data"
// sentinel (or was missing entirely).
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Uint returns the value as an unsigned integer.
func (v Value) Uint() (uint64, bool) {
	if v.kind != KindUint {
		return 0, false
	}
	return v.u, true
}

// Int returns the value as a signed integer.
func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Float returns any scalar numeric value widened to float64.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindUint:
		return float64(v.u), true
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Text returns the value as a string.
func (v Value) Text() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Raw returns the undecoded byte span of a byte-typed field.
func (v Value) Raw() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.raw, true
}

// Values returns the elements of a fixed-length array field.
func (v Value) Values() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// baseTypeWidth returns the natural element width of a base type, or 0
// for variable-width types (string, byte and anything unrecognized).
func baseTypeWidth(baseType uint8) int {
	switch baseType {
	case BaseEnum, BaseSint8, BaseUint8, BaseUint8z:
		return 1
	case BaseSint16, BaseUint16, BaseUint16z:
		return 2
	case BaseSint32, BaseUint32, BaseUint32z, BaseFloat32:
		return 4
	case BaseSint64, BaseUint64, BaseUint64z, BaseFloat64:
		return 8
	}
	return 0
}

// decodeElement reads one element of the given base type without sentinel
// filtering. Callers that need filtering check the literal afterwards.
func decodeElement(cur *cursor, baseType uint8, order binary.ByteOrder) (Value, error) {
	switch baseType {
	case BaseEnum, BaseUint8, BaseUint8z:
		v, err := cur.u8()
		return UintValue(uint64(v)), err
	case BaseSint8:
		v, err := cur.s8()
		return IntValue(int64(v)), err
	case BaseUint16, BaseUint16z:
		v, err := cur.u16(order)
		return UintValue(uint64(v)), err
	case BaseSint16:
		v, err := cur.s16(order)
		return IntValue(int64(v)), err
	case BaseUint32, BaseUint32z:
		v, err := cur.u32(order)
		return UintValue(uint64(v)), err
	case BaseSint32:
		v, err := cur.s32(order)
		return IntValue(int64(v)), err
	case BaseUint64, BaseUint64z:
		v, err := cur.u64(order)
		return UintValue(v), err
	case BaseSint64:
		v, err := cur.s64(order)
		return IntValue(v), err
	case BaseFloat32:
		v, err := cur.f32(order)
		return FloatValue(float64(v)), err
	case BaseFloat64:
		v, err := cur.f64(order)
		return FloatValue(v), err
	}
	return Value{}, fmt.Errorf("base type 0x%02X has no scalar decode", baseType)
}

// isInvalid reports whether a decoded scalar carries the base type's
// "no data" sentinel. 64-bit integer types have no sentinel.
func isInvalid(baseType uint8, v Value) bool {
	switch baseType {
	case BaseEnum, BaseUint8, BaseUint8z:
		return v.u == 0xFF
	case BaseSint8:
		return v.i == 0x7F
	case BaseUint16, BaseUint16z:
		return v.u == 0xFFFF
	case BaseSint16:
		return v.i == 0x7FFF
	case BaseUint32, BaseUint32z:
		return v.u == 0xFFFFFFFF
	case BaseSint32:
		return v.i == 0x7FFFFFFF
	case BaseFloat32, BaseFloat64:
		return math.IsNaN(v.f)
	}
	return false
}

// decodeField consumes exactly def.Size bytes from the cursor and returns
// the field's decoded value. A size that is a multiple of the base type's
// natural width greater than one decodes as a fixed-length array; sentinel
// filtering applies to single-valued fields only, so array elements keep
// their literal bit patterns.
func decodeField(cur *cursor, def FieldDefinition, order binary.ByteOrder) (Value, error) {
	size := int(def.Size)
	switch def.BaseType {
	case BaseString:
		raw, err := cur.bytes(size)
		if err != nil {
			return Value{}, err
		}
		s := string(raw)
		if i := strings.IndexByte(s, 0); i >= 0 {
			s = s[:i]
		}
		if s == "" {
			return Value{}, nil
		}
		return StringValue(s), nil
	case BaseByte:
		raw, err := cur.bytes(size)
		if err != nil {
			return Value{}, err
		}
		return BytesValue(raw), nil
	}

	width := baseTypeWidth(def.BaseType)
	if width == 0 || size < width || size%width != 0 {
		// Unknown tag or a size that does not fit the type: consume the
		// declared bytes as an opaque span so the record stays aligned.
		raw, err := cur.bytes(size)
		if err != nil {
			return Value{}, err
		}
		return BytesValue(raw), nil
	}

	if size == width {
		v, err := decodeElement(cur, def.BaseType, order)
		if err != nil {
			return Value{}, err
		}
		if isInvalid(def.BaseType, v) {
			return Value{}, nil
		}
		return v, nil
	}

	elems := make([]Value, 0, size/width)
	for i := 0; i < size/width; i++ {
		v, err := decodeElement(cur, def.BaseType, order)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
	return ArrayValue(elems), nil
}
