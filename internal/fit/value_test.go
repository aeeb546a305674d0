package fit

import (
	"encoding/binary"
	"math"
	"testing"
)

func decodeOne(t *testing.T, def FieldDefinition, order binary.ByteOrder, raw []byte) Value {
	t.Helper()
	cur := &cursor{buf: raw}
	v, err := decodeField(cur, def, order)
	if err != nil {
		t.Fatalf("decodeField returned error: %v", err)
	}
	if cur.remaining() != 0 {
		t.Fatalf("decodeField left %d bytes unread", cur.remaining())
	}
	return v
}

func TestDecodeScalars(t *testing.T) {
	tests := []struct {
		name     string
		baseType uint8
		size     uint8
		raw      []byte
		check    func(t *testing.T, v Value)
	}{
		{
			name: "uint8", baseType: BaseUint8, size: 1, raw: []byte{200},
			check: func(t *testing.T, v Value) {
				if got, ok := v.Uint(); !ok || got != 200 {
					t.Fatalf("value = %v, want 200", v)
				}
			},
		},
		{
			name: "sint8 negative", baseType: BaseSint8, size: 1, raw: []byte{0xF6},
			check: func(t *testing.T, v Value) {
				if got, ok := v.Int(); !ok || got != -10 {
					t.Fatalf("value = %v, want -10", v)
				}
			},
		},
		{
			name: "sint32 negative", baseType: BaseSint32, size: 4, raw: []byte{0x00, 0x00, 0x00, 0x80},
			check: func(t *testing.T, v Value) {
				if got, ok := v.Int(); !ok || got != math.MinInt32 {
					t.Fatalf("value = %v, want %d", v, math.MinInt32)
				}
			},
		},
		{
			name: "float32", baseType: BaseFloat32, size: 4,
			raw: binary.LittleEndian.AppendUint32(nil, math.Float32bits(1.5)),
			check: func(t *testing.T, v Value) {
				if got, ok := v.Float(); !ok || got != 1.5 {
					t.Fatalf("value = %v, want 1.5", v)
				}
			},
		},
		{
			name: "uint64 all ones has no sentinel", baseType: BaseUint64, size: 8,
			raw: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
			check: func(t *testing.T, v Value) {
				if got, ok := v.Uint(); !ok || got != math.MaxUint64 {
					t.Fatalf("value = %v, want max uint64", v)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := decodeOne(t, FieldDefinition{Size: tc.size, BaseType: tc.baseType}, binary.LittleEndian, tc.raw)
			tc.check(t, v)
		})
	}
}

func TestDecodeSentinels(t *testing.T) {
	tests := []struct {
		name     string
		baseType uint8
		size     uint8
		raw      []byte
	}{
		{name: "enum", baseType: BaseEnum, size: 1, raw: []byte{0xFF}},
		{name: "uint8z", baseType: BaseUint8z, size: 1, raw: []byte{0xFF}},
		{name: "sint8", baseType: BaseSint8, size: 1, raw: []byte{0x7F}},
		{name: "uint16", baseType: BaseUint16, size: 2, raw: []byte{0xFF, 0xFF}},
		{name: "sint16", baseType: BaseSint16, size: 2, raw: []byte{0xFF, 0x7F}},
		{name: "uint32", baseType: BaseUint32, size: 4, raw: []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{name: "sint32", baseType: BaseSint32, size: 4, raw: []byte{0xFF, 0xFF, 0xFF, 0x7F}},
		{
			name: "float32 nan", baseType: BaseFloat32, size: 4,
			raw: binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(math.NaN()))),
		},
		{
			name: "float64 nan", baseType: BaseFloat64, size: 8,
			raw: binary.LittleEndian.AppendUint64(nil, math.Float64bits(math.NaN())),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := decodeOne(t, FieldDefinition{Size: tc.size, BaseType: tc.baseType}, binary.LittleEndian, tc.raw)
			if !v.IsAbsent() {
				t.Fatalf("sentinel decoded as %v, want absent", v)
			}
		})
	}
}

func TestDecodeString(t *testing.T) {
	t.Run("nul terminated", func(t *testing.T) {
		v := decodeOne(t, FieldDefinition{Size: 8, BaseType: BaseString}, binary.LittleEndian,
			[]byte{'e', 'd', 'g', 'e', 0, 'x', 'x', 'x'})
		if got, ok := v.Text(); !ok || got != "edge" {
			t.Fatalf("value = %v, want %q", v, "edge")
		}
	})
	t.Run("empty is absent", func(t *testing.T) {
		v := decodeOne(t, FieldDefinition{Size: 4, BaseType: BaseString}, binary.LittleEndian,
			[]byte{0, 0, 0, 0})
		if !v.IsAbsent() {
			t.Fatalf("empty string decoded as %v, want absent", v)
		}
	})
}

func TestDecodeByteField(t *testing.T) {
	v := decodeOne(t, FieldDefinition{Size: 3, BaseType: BaseByte}, binary.LittleEndian,
		[]byte{0xDE, 0xAD, 0xBE})
	raw, ok := v.Raw()
	if !ok || len(raw) != 3 || raw[0] != 0xDE {
		t.Fatalf("value = %v, want raw bytes", v)
	}
}

func TestDecodeArrayKeepsSentinelElements(t *testing.T) {
	// Array elements are not filtered, only scalars are.
	v := decodeOne(t, FieldDefinition{Size: 6, BaseType: BaseUint16}, binary.LittleEndian,
		[]byte{0x01, 0x00, 0xFF, 0xFF, 0x03, 0x00})
	elems, ok := v.Values()
	if !ok {
		t.Fatalf("value = %v, want array", v)
	}
	if len(elems) != 3 {
		t.Fatalf("len = %d, want 3", len(elems))
	}
	if got, _ := elems[1].Uint(); got != 0xFFFF {
		t.Fatalf("elems[1] = %v, want 65535", elems[1])
	}
}

func TestDecodeOpaqueFallback(t *testing.T) {
	t.Run("unknown base type", func(t *testing.T) {
		v := decodeOne(t, FieldDefinition{Size: 2, BaseType: 0x7E}, binary.LittleEndian, []byte{1, 2})
		if _, ok := v.Raw(); !ok {
			t.Fatalf("value = %v, want opaque bytes", v)
		}
	})
	t.Run("size not a multiple of width", func(t *testing.T) {
		v := decodeOne(t, FieldDefinition{Size: 3, BaseType: BaseUint16}, binary.LittleEndian, []byte{1, 2, 3})
		if _, ok := v.Raw(); !ok {
			t.Fatalf("value = %v, want opaque bytes", v)
		}
	})
}

func TestBigEndianScalar(t *testing.T) {
	v := decodeOne(t, FieldDefinition{Size: 2, BaseType: BaseUint16}, binary.BigEndian, []byte{0x12, 0x34})
	if got, ok := v.Uint(); !ok || got != 0x1234 {
		t.Fatalf("value = %v, want 0x1234", v)
	}
}
