package fit

// FileHeader is the decoded form of the 12- or 14-byte file header.
type FileHeader struct {
	HeaderSize      uint8
	ProtocolVersion uint8
	ProfileVersion  uint16
	DataSize        uint32
	Signature       [4]byte
	CRC             uint16
}

// FieldDefinition describes one field slot inside a message definition:
// the field number, the number of bytes the field occupies in a data
// record, and the base type tag selecting the decode rule.
type FieldDefinition struct {
	Number   uint8
	Size     uint8
	BaseType uint8
}

// MessageDefinition is the layout bound to one local message type slot.
// A slot's definition is replaced wholesale when a new definition record
// arrives for the same slot.
type MessageDefinition struct {
	GlobalMesgNum uint16
	BigEndian     bool
	Fields        []FieldDefinition
}

// Message is one decoded data record. Fields maps field number to the
// decoded value; fields whose raw bytes equalled the base type's invalid
// sentinel are omitted from the map.
type Message struct {
	GlobalMesgNum uint16
	Fields        map[uint8]Value
}

// Field returns the decoded value for the given field number. A missing
// field yields an absent value.
func (m Message) Field(num uint8) Value {
	v, ok := m.Fields[num]
	if !ok {
		return Value{}
	}
	return v
}

// File is the result of parsing one complete buffer.
type File struct {
	Header         FileHeader
	Messages       []Message
	SkippedRecords int
	SkippedBytes   int
}
