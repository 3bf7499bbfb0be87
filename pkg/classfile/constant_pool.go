package classfile

import "fmt"

// ConstantKind is a constant pool tag.
type ConstantKind uint8

// Constant pool tags
const (
	KindNone               ConstantKind = 0
	KindUtf8               ConstantKind = 1
	KindInteger            ConstantKind = 3
	KindFloat              ConstantKind = 4
	KindLong               ConstantKind = 5
	KindDouble             ConstantKind = 6
	KindClass              ConstantKind = 7
	KindString             ConstantKind = 8
	KindFieldref           ConstantKind = 9
	KindMethodref          ConstantKind = 10
	KindInterfaceMethodref ConstantKind = 11
	KindNameAndType        ConstantKind = 12
	KindMethodHandle       ConstantKind = 15
	KindMethodType         ConstantKind = 16
	KindInvokeDynamic      ConstantKind = 18
)

var kindNames = map[ConstantKind]string{
	KindNone:               "none",
	KindUtf8:               "Utf8",
	KindInteger:            "Integer",
	KindFloat:              "Float",
	KindLong:               "Long",
	KindDouble:             "Double",
	KindClass:              "Class",
	KindString:             "String",
	KindFieldref:           "Fieldref",
	KindMethodref:          "Methodref",
	KindInterfaceMethodref: "InterfaceMethodref",
	KindNameAndType:        "NameAndType",
	KindMethodHandle:       "MethodHandle",
	KindMethodType:         "MethodType",
	KindInvokeDynamic:      "InvokeDynamic",
}

func (k ConstantKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("tag(%d)", uint8(k))
}

// Supported reports whether entries of this kind are modelled.
func (k ConstantKind) Supported() bool {
	switch k {
	case KindUtf8, KindClass, KindString, KindFieldref, KindMethodref,
		KindInterfaceMethodref, KindNameAndType:
		return true
	}
	return false
}

// recognized reports whether the tag is in the class file tag table at all.
func (k ConstantKind) recognized() bool {
	switch k {
	case KindInteger, KindFloat, KindLong, KindDouble,
		KindMethodHandle, KindMethodType, KindInvokeDynamic:
		return true
	}
	return k.Supported()
}

// ConstantPoolEntry is implemented by all constant pool entry types.
type ConstantPoolEntry interface {
	Kind() ConstantKind
}

type ConstantUtf8 struct {
	Bytes []byte
}

func (c *ConstantUtf8) Kind() ConstantKind { return KindUtf8 }

func (c *ConstantUtf8) String() string { return string(c.Bytes) }

type ConstantClass struct {
	NameIndex uint16
}

func (c *ConstantClass) Kind() ConstantKind { return KindClass }

type ConstantString struct {
	StringIndex uint16
}

func (c *ConstantString) Kind() ConstantKind { return KindString }

type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldref) Kind() ConstantKind { return KindFieldref }

type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodref) Kind() ConstantKind { return KindMethodref }

type ConstantInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantInterfaceMethodref) Kind() ConstantKind { return KindInterfaceMethodref }

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndType) Kind() ConstantKind { return KindNameAndType }

// memberRef is implemented by the three *ref entries.
type memberRef interface {
	ConstantPoolEntry
	refIndices() (classIndex, nameAndTypeIndex uint16)
}

func (c *ConstantFieldref) refIndices() (uint16, uint16) { return c.ClassIndex, c.NameAndTypeIndex }
func (c *ConstantMethodref) refIndices() (uint16, uint16) {
	return c.ClassIndex, c.NameAndTypeIndex
}
func (c *ConstantInterfaceMethodref) refIndices() (uint16, uint16) {
	return c.ClassIndex, c.NameAndTypeIndex
}

// ConstantPool is the 1-indexed constant table of a class file. Index 0 is
// never valid.
type ConstantPool []ConstantPoolEntry

// Count returns constant_pool_count as it appears in the class file.
func (cp ConstantPool) Count() int {
	return len(cp)
}

// Fetch returns the entry at index if it exists and has the expected kind.
// References are not validated at parse time, so every lookup goes through
// here.
func (cp ConstantPool) Fetch(index uint16, kind ConstantKind) (ConstantPoolEntry, error) {
	if index == 0 || int(index) >= len(cp) || cp[index] == nil {
		return nil, &UnresolvedConstantError{Index: index, Expected: kind, Actual: KindNone}
	}
	entry := cp[index]
	if entry.Kind() != kind {
		return nil, &UnresolvedConstantError{Index: index, Expected: kind, Actual: entry.Kind()}
	}
	return entry, nil
}

// KindAt returns the kind of the entry at index, or KindNone.
func (cp ConstantPool) KindAt(index uint16) ConstantKind {
	if int(index) >= len(cp) || cp[index] == nil {
		return KindNone
	}
	return cp[index].Kind()
}

// Utf8 returns the string held by the Utf8 entry at index.
func (cp ConstantPool) Utf8(index uint16) (string, error) {
	entry, err := cp.Fetch(index, KindUtf8)
	if err != nil {
		return "", err
	}
	return entry.(*ConstantUtf8).String(), nil
}

// ClassName returns the internal class name referenced by a Class entry.
func (cp ConstantPool) ClassName(index uint16) (string, error) {
	entry, err := cp.Fetch(index, KindClass)
	if err != nil {
		return "", err
	}
	name, err := cp.Utf8(entry.(*ConstantClass).NameIndex)
	if err != nil {
		return "", fmt.Errorf("resolving class name: %w", err)
	}
	return name, nil
}

// StringValue returns the text of a String entry.
func (cp ConstantPool) StringValue(index uint16) (string, error) {
	entry, err := cp.Fetch(index, KindString)
	if err != nil {
		return "", err
	}
	s, err := cp.Utf8(entry.(*ConstantString).StringIndex)
	if err != nil {
		return "", fmt.Errorf("resolving string: %w", err)
	}
	return s, nil
}

// NameAndType returns the name and descriptor of a NameAndType entry.
func (cp ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	entry, err := cp.Fetch(index, KindNameAndType)
	if err != nil {
		return "", "", err
	}
	nat := entry.(*ConstantNameAndType)
	name, err = cp.Utf8(nat.NameIndex)
	if err != nil {
		return "", "", fmt.Errorf("resolving member name: %w", err)
	}
	descriptor, err = cp.Utf8(nat.DescriptorIndex)
	if err != nil {
		return "", "", fmt.Errorf("resolving member descriptor: %w", err)
	}
	return name, descriptor, nil
}

// MemberRef is a resolved Fieldref, Methodref or InterfaceMethodref.
type MemberRef struct {
	Kind       ConstantKind
	ClassName  string
	Name       string
	Descriptor string
}

// Key returns the "name:descriptor" form used by native method tables.
func (m *MemberRef) Key() string {
	return m.Name + ":" + m.Descriptor
}

func (m *MemberRef) String() string {
	return m.ClassName + "." + m.Name + ":" + m.Descriptor
}

// ResolveMember follows class_index and name_and_type_index of the *ref
// entry at index. The result is not cached.
func (cp ConstantPool) ResolveMember(index uint16, kind ConstantKind) (*MemberRef, error) {
	entry, err := cp.Fetch(index, kind)
	if err != nil {
		return nil, err
	}
	ref, ok := entry.(memberRef)
	if !ok {
		return nil, &UnresolvedConstantError{Index: index, Expected: kind, Actual: entry.Kind()}
	}
	classIndex, natIndex := ref.refIndices()

	className, err := cp.ClassName(classIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving %s class: %w", kind, err)
	}
	name, descriptor, err := cp.NameAndType(natIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving %s name and type: %w", kind, err)
	}
	return &MemberRef{
		Kind:       kind,
		ClassName:  className,
		Name:       name,
		Descriptor: descriptor,
	}, nil
}

// ResolveField resolves a Fieldref entry.
func (cp ConstantPool) ResolveField(index uint16) (*MemberRef, error) {
	return cp.ResolveMember(index, KindFieldref)
}

// ResolveMethod resolves a Methodref or InterfaceMethodref entry.
func (cp ConstantPool) ResolveMethod(index uint16) (*MemberRef, error) {
	if cp.KindAt(index) == KindInterfaceMethodref {
		return cp.ResolveMember(index, KindInterfaceMethodref)
	}
	return cp.ResolveMember(index, KindMethodref)
}
