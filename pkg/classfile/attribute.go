package classfile

// Attribute is implemented by *AttributeInfo and *CodeAttribute.
type Attribute interface {
	AttributeNameIndex() uint16
	attribute()
}

// AttributeInfo is an attribute kept as an opaque payload.
type AttributeInfo struct {
	NameIndex uint16
	Name      string
	Info      []byte
}

func (a *AttributeInfo) AttributeNameIndex() uint16 { return a.NameIndex }
func (a *AttributeInfo) attribute()                 {}

// CodeAttribute represents the Code attribute of a method. The exception
// table is consumed during parsing and not retained.
type CodeAttribute struct {
	NameIndex  uint16
	MaxStack   uint16
	MaxLocals  uint16
	Code       []byte
	Attributes []Attribute
}

func (c *CodeAttribute) AttributeNameIndex() uint16 { return c.NameIndex }
func (c *CodeAttribute) attribute()                 {}

const codeAttributeName = "Code"
