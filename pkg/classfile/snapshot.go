package classfile

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is a serializable view of a parsed class file holding raw
// indices and bytes exactly as they were read.
type Snapshot struct {
	MinorVersion uint16             `cbor:"1,keyasint"`
	MajorVersion uint16             `cbor:"2,keyasint"`
	AccessFlags  uint16             `cbor:"3,keyasint"`
	ThisClass    uint16             `cbor:"4,keyasint"`
	SuperClass   uint16             `cbor:"5,keyasint"`
	Interfaces   []uint16           `cbor:"6,keyasint"`
	Constants    []SnapshotConstant `cbor:"7,keyasint"`
	Fields       []SnapshotMember   `cbor:"8,keyasint"`
	Methods      []SnapshotMember   `cbor:"9,keyasint"`
}

// SnapshotConstant holds one constant pool entry. A and B are the entry's
// u2 index fields in file order; Utf8 is set only for Utf8 entries.
type SnapshotConstant struct {
	Index uint16 `cbor:"1,keyasint"`
	Tag   uint8  `cbor:"2,keyasint"`
	Utf8  []byte `cbor:"3,keyasint,omitempty"`
	A     uint16 `cbor:"4,keyasint,omitempty"`
	B     uint16 `cbor:"5,keyasint,omitempty"`
}

// SnapshotMember holds a field or method.
type SnapshotMember struct {
	AccessFlags     uint16        `cbor:"1,keyasint"`
	NameIndex       uint16        `cbor:"2,keyasint"`
	DescriptorIndex uint16        `cbor:"3,keyasint"`
	Code            *SnapshotCode `cbor:"4,keyasint,omitempty"`
}

// SnapshotCode summarizes a Code attribute.
type SnapshotCode struct {
	MaxStack  uint16 `cbor:"1,keyasint"`
	MaxLocals uint16 `cbor:"2,keyasint"`
	Code      []byte `cbor:"3,keyasint"`
}

// cborEncMode uses canonical mode so equal snapshots encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("classfile: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// NewSnapshot captures cf.
func NewSnapshot(cf *ClassFile) *Snapshot {
	s := &Snapshot{
		MinorVersion: cf.MinorVersion,
		MajorVersion: cf.MajorVersion,
		AccessFlags:  uint16(cf.AccessFlags),
		ThisClass:    cf.ThisClass,
		SuperClass:   cf.SuperClass,
		Interfaces:   cf.Interfaces,
	}
	for i, entry := range cf.ConstantPool {
		if entry == nil {
			continue
		}
		c := SnapshotConstant{Index: uint16(i), Tag: uint8(entry.Kind())}
		switch e := entry.(type) {
		case *ConstantUtf8:
			c.Utf8 = e.Bytes
		case *ConstantClass:
			c.A = e.NameIndex
		case *ConstantString:
			c.A = e.StringIndex
		case *ConstantNameAndType:
			c.A, c.B = e.NameIndex, e.DescriptorIndex
		case memberRef:
			c.A, c.B = e.refIndices()
		}
		s.Constants = append(s.Constants, c)
	}
	for i := range cf.Fields {
		s.Fields = append(s.Fields, snapshotMember(&cf.Fields[i].memberInfo, nil))
	}
	for i := range cf.Methods {
		s.Methods = append(s.Methods, snapshotMember(&cf.Methods[i].memberInfo, cf.Methods[i].Code()))
	}
	return s
}

func snapshotMember(m *memberInfo, code *CodeAttribute) SnapshotMember {
	sm := SnapshotMember{
		AccessFlags:     uint16(m.AccessFlags),
		NameIndex:       m.NameIndex,
		DescriptorIndex: m.DescriptorIndex,
	}
	if code != nil {
		sm.Code = &SnapshotCode{MaxStack: code.MaxStack, MaxLocals: code.MaxLocals, Code: code.Code}
	}
	return sm
}

// EncodeSnapshot serializes s to canonical CBOR.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// DecodeSnapshot deserializes a Snapshot from CBOR bytes.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("classfile: unmarshal snapshot: %w", err)
	}
	return &s, nil
}
