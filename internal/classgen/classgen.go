// Package classgen assembles class file byte streams for tests.
package classgen

import "encoding/binary"

// Constant pool tags written by the builder.
const (
	tagUtf8               = 1
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
)

// Attribute is an opaque attribute written as name + payload.
type Attribute struct {
	Name string
	Data []byte
}

// Code describes a Code attribute. ExceptionEntries zeroed 8-byte exception
// table entries are written.
type Code struct {
	MaxStack         uint16
	MaxLocals        uint16
	Code             []byte
	ExceptionEntries int
	Attributes       []Attribute
}

// Member describes a field or method.
type Member struct {
	Flags      uint16
	Name       string
	Descriptor string
	Code       *Code
	Attributes []Attribute
}

type constant struct {
	tag     uint8
	payload []byte
}

// Builder accumulates a class file. Zero-value fields of the header are
// filled by New.
type Builder struct {
	Magic uint32
	Minor uint16
	Major uint16
	Flags uint16

	pool       []constant
	utf8s      map[string]uint16
	classes    map[string]uint16
	thisClass  uint16
	superClass uint16
	interfaces []uint16
	fields     []Member
	methods    []Member
	attributes []Attribute
	trailing   []byte
}

// New starts a class named name extending java/lang/Object, version 50.0.
func New(name string) *Builder {
	b := &Builder{
		Magic:   0xCAFEBABE,
		Major:   50,
		Flags:   0x0021,
		utf8s:   make(map[string]uint16),
		classes: make(map[string]uint16),
	}
	b.thisClass = b.Class(name)
	b.superClass = b.Class("java/lang/Object")
	return b
}

func (b *Builder) add(tag uint8, payload []byte) uint16 {
	b.pool = append(b.pool, constant{tag: tag, payload: payload})
	return uint16(len(b.pool))
}

func u2(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

// Raw appends an arbitrary constant pool entry and returns its index.
func (b *Builder) Raw(tag uint8, payload []byte) uint16 {
	return b.add(tag, payload)
}

// Utf8 returns the index of a Utf8 entry for s, adding it once.
func (b *Builder) Utf8(s string) uint16 {
	if i, ok := b.utf8s[s]; ok {
		return i
	}
	payload := append(u2(uint16(len(s))), s...)
	i := b.add(tagUtf8, payload)
	b.utf8s[s] = i
	return i
}

// Class returns the index of a Class entry for name, adding it once.
func (b *Builder) Class(name string) uint16 {
	if i, ok := b.classes[name]; ok {
		return i
	}
	n := b.Utf8(name)
	i := b.add(tagClass, u2(n))
	b.classes[name] = i
	return i
}

// String adds a String entry.
func (b *Builder) String(s string) uint16 {
	return b.add(tagString, u2(b.Utf8(s)))
}

// NameAndType adds a NameAndType entry.
func (b *Builder) NameAndType(name, descriptor string) uint16 {
	n, d := b.Utf8(name), b.Utf8(descriptor)
	return b.add(tagNameAndType, append(u2(n), u2(d)...))
}

func (b *Builder) ref(tag uint8, class, name, descriptor string) uint16 {
	c := b.Class(class)
	nat := b.NameAndType(name, descriptor)
	return b.add(tag, append(u2(c), u2(nat)...))
}

// Fieldref adds a Fieldref entry.
func (b *Builder) Fieldref(class, name, descriptor string) uint16 {
	return b.ref(tagFieldref, class, name, descriptor)
}

// Methodref adds a Methodref entry.
func (b *Builder) Methodref(class, name, descriptor string) uint16 {
	return b.ref(tagMethodref, class, name, descriptor)
}

// InterfaceMethodref adds an InterfaceMethodref entry.
func (b *Builder) InterfaceMethodref(class, name, descriptor string) uint16 {
	return b.ref(tagInterfaceMethodref, class, name, descriptor)
}

// Interface adds name to the interfaces list.
func (b *Builder) Interface(name string) {
	b.interfaces = append(b.interfaces, b.Class(name))
}

// Field adds a field.
func (b *Builder) Field(m Member) {
	b.intern(m)
	b.fields = append(b.fields, m)
}

// Method adds a method.
func (b *Builder) Method(m Member) {
	b.intern(m)
	b.methods = append(b.methods, m)
}

// Attribute adds a class-level attribute.
func (b *Builder) Attribute(a Attribute) {
	b.Utf8(a.Name)
	b.attributes = append(b.attributes, a)
}

// Trailing appends bytes after the class attributes.
func (b *Builder) Trailing(data []byte) {
	b.trailing = append(b.trailing, data...)
}

// intern allocates pool entries for every name a member uses so indices
// are fixed before Bytes is called.
func (b *Builder) intern(m Member) {
	b.Utf8(m.Name)
	b.Utf8(m.Descriptor)
	for _, a := range m.Attributes {
		b.Utf8(a.Name)
	}
	if m.Code != nil {
		b.Utf8("Code")
		for _, a := range m.Code.Attributes {
			b.Utf8(a.Name)
		}
	}
}

// Bytes encodes the class file.
func (b *Builder) Bytes() []byte {
	var out []byte
	out = binary.BigEndian.AppendUint32(out, b.Magic)
	out = binary.BigEndian.AppendUint16(out, b.Minor)
	out = binary.BigEndian.AppendUint16(out, b.Major)
	out = binary.BigEndian.AppendUint16(out, uint16(len(b.pool)+1))
	for _, c := range b.pool {
		out = append(out, c.tag)
		out = append(out, c.payload...)
	}
	out = binary.BigEndian.AppendUint16(out, b.Flags)
	out = binary.BigEndian.AppendUint16(out, b.thisClass)
	out = binary.BigEndian.AppendUint16(out, b.superClass)
	out = binary.BigEndian.AppendUint16(out, uint16(len(b.interfaces)))
	for _, i := range b.interfaces {
		out = binary.BigEndian.AppendUint16(out, i)
	}
	out = b.appendMembers(out, b.fields)
	out = b.appendMembers(out, b.methods)
	out = b.appendAttributes(out, b.attributes)
	return append(out, b.trailing...)
}

func (b *Builder) appendMembers(out []byte, members []Member) []byte {
	out = binary.BigEndian.AppendUint16(out, uint16(len(members)))
	for _, m := range members {
		out = binary.BigEndian.AppendUint16(out, m.Flags)
		out = binary.BigEndian.AppendUint16(out, b.utf8s[m.Name])
		out = binary.BigEndian.AppendUint16(out, b.utf8s[m.Descriptor])
		attrs := m.Attributes
		if m.Code != nil {
			attrs = append([]Attribute{{Name: "Code", Data: b.codePayload(m.Code)}}, attrs...)
		}
		out = b.appendAttributes(out, attrs)
	}
	return out
}

func (b *Builder) appendAttributes(out []byte, attrs []Attribute) []byte {
	out = binary.BigEndian.AppendUint16(out, uint16(len(attrs)))
	for _, a := range attrs {
		out = binary.BigEndian.AppendUint16(out, b.utf8s[a.Name])
		out = binary.BigEndian.AppendUint32(out, uint32(len(a.Data)))
		out = append(out, a.Data...)
	}
	return out
}

func (b *Builder) codePayload(c *Code) []byte {
	var out []byte
	out = binary.BigEndian.AppendUint16(out, c.MaxStack)
	out = binary.BigEndian.AppendUint16(out, c.MaxLocals)
	out = binary.BigEndian.AppendUint32(out, uint32(len(c.Code)))
	out = append(out, c.Code...)
	out = binary.BigEndian.AppendUint16(out, uint16(c.ExceptionEntries))
	out = append(out, make([]byte, 8*c.ExceptionEntries)...)
	return b.appendAttributes(out, c.Attributes)
}

// CodeAttribute returns the encoded payload of c, for tests that place a
// Code attribute by hand.
func (b *Builder) CodeAttribute(c *Code) []byte {
	for _, a := range c.Attributes {
		b.Utf8(a.Name)
	}
	return b.codePayload(c)
}
