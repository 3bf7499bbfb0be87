package classfile

import "fmt"

// AccessFlags holds class, field or method access_flags.
type AccessFlags uint16

// Access flags
const (
	AccPublic    AccessFlags = 0x0001
	AccPrivate   AccessFlags = 0x0002
	AccProtected AccessFlags = 0x0004
	AccStatic    AccessFlags = 0x0008
	AccFinal     AccessFlags = 0x0010
	AccSuper     AccessFlags = 0x0020
	AccNative    AccessFlags = 0x0100
	AccInterface AccessFlags = 0x0200
	AccAbstract  AccessFlags = 0x0400
)

func (f AccessFlags) IsPublic() bool    { return f&AccPublic != 0 }
func (f AccessFlags) IsStatic() bool    { return f&AccStatic != 0 }
func (f AccessFlags) IsNative() bool    { return f&AccNative != 0 }
func (f AccessFlags) IsInterface() bool { return f&AccInterface != 0 }
func (f AccessFlags) IsAbstract() bool  { return f&AccAbstract != 0 }

// ClassFile represents a parsed .class file. Indices are kept as they appear
// in the file and resolved through ConstantPool when used.
type ClassFile struct {
	Magic        uint32
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   []Attribute

	// Diagnostics collects non-fatal anomalies seen while parsing.
	Diagnostics []Diagnostic
}

// Diagnostic records one non-fatal anomaly found during parsing.
type Diagnostic struct {
	Offset int64  // byte offset in the class file
	Kind   string // "unhandled_attribute", "trailing_data"
	Msg    string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at offset %d: %s", d.Kind, d.Offset, d.Msg)
}

// ClassName returns the fully qualified internal name of this class.
func (cf *ClassFile) ClassName() (string, error) {
	return cf.ConstantPool.ClassName(cf.ThisClass)
}

// SuperClassName returns the internal name of the super class, or "" when
// super_class is 0.
func (cf *ClassFile) SuperClassName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}
	return cf.ConstantPool.ClassName(cf.SuperClass)
}

// FindMethod finds a method by name and descriptor. Methods whose name or
// descriptor does not resolve are skipped.
func (cf *ClassFile) FindMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		m := &cf.Methods[i]
		n, err := m.Name()
		if err != nil || n != name {
			continue
		}
		if d, err := m.Descriptor(); err == nil && d == descriptor {
			return m
		}
	}
	return nil
}

// FindMethodByName finds the first method with the given name.
func (cf *ClassFile) FindMethodByName(name string) *MethodInfo {
	for i := range cf.Methods {
		if n, err := cf.Methods[i].Name(); err == nil && n == name {
			return &cf.Methods[i]
		}
	}
	return nil
}

// memberInfo is the layout shared by field_info and method_info.
type memberInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute

	pool ConstantPool
}

// Name resolves name_index through the owning class file's constant pool.
func (m *memberInfo) Name() (string, error) {
	return m.pool.Utf8(m.NameIndex)
}

// Descriptor resolves descriptor_index.
func (m *memberInfo) Descriptor() (string, error) {
	return m.pool.Utf8(m.DescriptorIndex)
}

// FieldInfo represents a field in a class file.
type FieldInfo struct {
	memberInfo
}

// MethodInfo represents a method in a class file.
type MethodInfo struct {
	memberInfo
}

// Code returns the method's Code attribute, or nil for abstract and native
// methods.
func (m *MethodInfo) Code() *CodeAttribute {
	for _, attr := range m.Attributes {
		if code, ok := attr.(*CodeAttribute); ok {
			return code
		}
	}
	return nil
}

// String renders the method as name:descriptor, falling back to indices.
func (m *MethodInfo) String() string {
	name, err := m.Name()
	if err != nil {
		name = fmt.Sprintf("#%d", m.NameIndex)
	}
	desc, err := m.Descriptor()
	if err != nil {
		desc = fmt.Sprintf("#%d", m.DescriptorIndex)
	}
	return name + ":" + desc
}
