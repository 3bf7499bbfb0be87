package classfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
)

const classMagic = 0xCAFEBABE

// DefaultMajorVersion is the only class file major version accepted unless
// Options says otherwise (50, Java SE 6).
const DefaultMajorVersion = 50

var log = commonlog.GetLogger("nanojvm.classfile")

// Options configures parsing.
type Options struct {
	MajorVersion uint16
}

// DefaultOptions accepts DefaultMajorVersion.
func DefaultOptions() Options {
	return Options{MajorVersion: DefaultMajorVersion}
}

// ParseFile opens and parses a .class file from the given path. The file is
// closed on every return path.
func ParseFile(path string, opts Options) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseWithOptions(f, opts)
}

// ParseBytes parses a class file held in memory.
func ParseBytes(data []byte, opts Options) (*ClassFile, error) {
	return ParseWithOptions(bytes.NewReader(data), opts)
}

// Parse reads a .class file with DefaultOptions.
func Parse(r io.Reader) (*ClassFile, error) {
	return ParseWithOptions(r, DefaultOptions())
}

// ParseWithOptions reads a .class file from r in file order.
func ParseWithOptions(r io.Reader, opts Options) (*ClassFile, error) {
	p := &parser{r: NewReader(r), opts: opts, cf: &ClassFile{}}
	if err := p.parse(); err != nil {
		return nil, p.classify(err)
	}
	return p.cf, nil
}

type parser struct {
	r    *Reader
	opts Options
	cf   *ClassFile
}

// classify turns truncation anywhere in the stream into a
// MalformedClassFileError while keeping the wrapped context.
func (p *parser) classify(err error) error {
	var trunc *TruncatedInputError
	var malformed *MalformedClassFileError
	if errors.As(err, &trunc) && !errors.As(err, &malformed) {
		return &MalformedClassFileError{Offset: trunc.Offset, Reason: "truncated stream", Err: err}
	}
	return err
}

func (p *parser) diagnose(offset int64, kind, msg string) {
	d := Diagnostic{Offset: offset, Kind: kind, Msg: msg}
	p.cf.Diagnostics = append(p.cf.Diagnostics, d)
	log.Warning(msg, "kind", kind, "offset", d.Offset)
}

func (p *parser) parse() error {
	r, cf := p.r, p.cf
	var err error

	// Magic number
	if cf.Magic, err = r.ReadU4(); err != nil {
		return fmt.Errorf("reading magic number: %w", err)
	}
	if cf.Magic != classMagic {
		return &MalformedClassFileError{
			Offset: 0,
			Reason: fmt.Sprintf("invalid magic number 0x%08X (expected 0xCAFEBABE)", cf.Magic),
		}
	}

	// Version
	if cf.MinorVersion, err = r.ReadU2(); err != nil {
		return fmt.Errorf("reading minor version: %w", err)
	}
	if cf.MajorVersion, err = r.ReadU2(); err != nil {
		return fmt.Errorf("reading major version: %w", err)
	}
	if cf.MajorVersion != p.opts.MajorVersion {
		return &UnsupportedVersionError{Major: cf.MajorVersion, Minor: cf.MinorVersion, Want: p.opts.MajorVersion}
	}

	// Constant pool
	cpCount, err := r.ReadU2()
	if err != nil {
		return fmt.Errorf("reading constant pool count: %w", err)
	}
	if cf.ConstantPool, err = p.parseConstantPool(cpCount); err != nil {
		return fmt.Errorf("parsing constant pool: %w", err)
	}

	// Access flags, this_class, super_class
	flags, err := r.ReadU2()
	if err != nil {
		return fmt.Errorf("reading access flags: %w", err)
	}
	cf.AccessFlags = AccessFlags(flags)
	if cf.ThisClass, err = r.ReadU2(); err != nil {
		return fmt.Errorf("reading this_class: %w", err)
	}
	if cf.SuperClass, err = r.ReadU2(); err != nil {
		return fmt.Errorf("reading super_class: %w", err)
	}

	// Interfaces
	interfacesCount, err := r.ReadU2()
	if err != nil {
		return fmt.Errorf("reading interfaces count: %w", err)
	}
	cf.Interfaces = make([]uint16, interfacesCount)
	for i := range cf.Interfaces {
		if cf.Interfaces[i], err = r.ReadU2(); err != nil {
			return fmt.Errorf("reading interface %d: %w", i, err)
		}
	}

	// Fields
	fieldsCount, err := r.ReadU2()
	if err != nil {
		return fmt.Errorf("reading fields count: %w", err)
	}
	cf.Fields = make([]FieldInfo, fieldsCount)
	for i := range cf.Fields {
		if cf.Fields[i].memberInfo, err = p.parseMember(); err != nil {
			return fmt.Errorf("parsing field %d: %w", i, err)
		}
	}

	// Methods
	methodsCount, err := r.ReadU2()
	if err != nil {
		return fmt.Errorf("reading methods count: %w", err)
	}
	cf.Methods = make([]MethodInfo, methodsCount)
	for i := range cf.Methods {
		if cf.Methods[i].memberInfo, err = p.parseMember(); err != nil {
			return fmt.Errorf("parsing method %d: %w", i, err)
		}
	}

	// Class-level attributes
	if cf.Attributes, err = p.parseAttributes(r); err != nil {
		return fmt.Errorf("parsing class attributes: %w", err)
	}

	if !r.atEOF() {
		p.diagnose(r.Offset(), "trailing_data", "bytes remain after class attributes")
	}
	return nil
}

// parseConstantPool reads constant_pool_count-1 entries. The returned pool
// is 1-indexed: index 0 is nil.
func (p *parser) parseConstantPool(count uint16) (ConstantPool, error) {
	r := p.r
	pool := make(ConstantPool, count)

	for i := uint16(1); i < count; i++ {
		tag, err := r.ReadU1()
		if err != nil {
			return nil, fmt.Errorf("reading constant pool tag at index %d: %w", i, err)
		}
		kind := ConstantKind(tag)
		if !kind.recognized() {
			return nil, &UnknownConstantTagError{Index: i, Tag: tag}
		}
		if !kind.Supported() {
			return nil, &UnsupportedConstantError{Index: i, Tag: kind}
		}

		if kind == KindUtf8 {
			length, err := r.ReadU2()
			if err != nil {
				return nil, fmt.Errorf("reading Utf8 length at index %d: %w", i, err)
			}
			data, err := r.ReadBytes(int(length))
			if err != nil {
				return nil, fmt.Errorf("reading Utf8 bytes at index %d: %w", i, err)
			}
			pool[i] = &ConstantUtf8{Bytes: data}
			continue
		}

		// Every other supported entry is one or two u2 indices.
		a, err := r.ReadU2()
		if err != nil {
			return nil, fmt.Errorf("reading %s at index %d: %w", kind, i, err)
		}
		switch kind {
		case KindClass:
			pool[i] = &ConstantClass{NameIndex: a}
			continue
		case KindString:
			pool[i] = &ConstantString{StringIndex: a}
			continue
		}

		b, err := r.ReadU2()
		if err != nil {
			return nil, fmt.Errorf("reading %s at index %d: %w", kind, i, err)
		}
		switch kind {
		case KindFieldref:
			pool[i] = &ConstantFieldref{ClassIndex: a, NameAndTypeIndex: b}
		case KindMethodref:
			pool[i] = &ConstantMethodref{ClassIndex: a, NameAndTypeIndex: b}
		case KindInterfaceMethodref:
			pool[i] = &ConstantInterfaceMethodref{ClassIndex: a, NameAndTypeIndex: b}
		case KindNameAndType:
			pool[i] = &ConstantNameAndType{NameIndex: a, DescriptorIndex: b}
		}
	}

	return pool, nil
}

func (p *parser) parseMember() (memberInfo, error) {
	r := p.r
	var m memberInfo
	flags, err := r.ReadU2()
	if err != nil {
		return m, fmt.Errorf("reading access flags: %w", err)
	}
	m.AccessFlags = AccessFlags(flags)
	if m.NameIndex, err = r.ReadU2(); err != nil {
		return m, fmt.Errorf("reading name index: %w", err)
	}
	if m.DescriptorIndex, err = r.ReadU2(); err != nil {
		return m, fmt.Errorf("reading descriptor index: %w", err)
	}
	if m.Attributes, err = p.parseAttributes(r); err != nil {
		return m, fmt.Errorf("parsing attributes: %w", err)
	}
	m.pool = p.cf.ConstantPool
	return m, nil
}

// parseAttributes reads attributes_count followed by that many attributes.
// Dispatch is on the resolved attribute name.
func (p *parser) parseAttributes(r *Reader) ([]Attribute, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("reading attributes count: %w", err)
	}
	attrs := make([]Attribute, count)
	for i := range attrs {
		nameIndex, err := r.ReadU2()
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d name index: %w", i, err)
		}
		length, err := r.ReadU4()
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d length: %w", i, err)
		}
		start := r.Offset()
		data, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d data: %w", i, err)
		}

		name, err := p.cf.ConstantPool.Utf8(nameIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving attribute %d name: %w", i, err)
		}

		if name == codeAttributeName {
			code, err := p.parseCodeAttribute(nameIndex, data, start)
			if err != nil {
				return nil, fmt.Errorf("parsing Code attribute: %w", err)
			}
			attrs[i] = code
			continue
		}

		p.diagnose(start, "unhandled_attribute", fmt.Sprintf("unhandled attribute %q (%d bytes)", name, length))
		attrs[i] = &AttributeInfo{NameIndex: nameIndex, Name: name, Info: data}
	}
	return attrs, nil
}

// parseCodeAttribute decodes a Code payload. start is the payload's offset
// in the class file, used to report absolute offsets.
func (p *parser) parseCodeAttribute(nameIndex uint16, data []byte, start int64) (*CodeAttribute, error) {
	r := NewReader(bytes.NewReader(data))
	r.off = start
	code := &CodeAttribute{NameIndex: nameIndex}
	var err error

	if code.MaxStack, err = r.ReadU2(); err != nil {
		return nil, fmt.Errorf("reading max_stack: %w", err)
	}
	if code.MaxLocals, err = r.ReadU2(); err != nil {
		return nil, fmt.Errorf("reading max_locals: %w", err)
	}
	codeLength, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("reading code_length: %w", err)
	}
	if int64(codeLength) > int64(len(data)) {
		return nil, &MalformedClassFileError{
			Offset: r.Offset(),
			Reason: fmt.Sprintf("code_length %d exceeds attribute length %d", codeLength, len(data)),
		}
	}
	if code.Code, err = r.ReadBytes(int(codeLength)); err != nil {
		return nil, fmt.Errorf("reading code: %w", err)
	}

	// Exception handling is not supported, so the table is skipped.
	exTableLen, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("reading exception table length: %w", err)
	}
	if err := r.Skip(int64(exTableLen) * 8); err != nil {
		return nil, fmt.Errorf("skipping exception table: %w", err)
	}

	if code.Attributes, err = p.parseAttributes(r); err != nil {
		return nil, fmt.Errorf("parsing Code attributes: %w", err)
	}

	if consumed := r.Offset() - start; consumed != int64(len(data)) {
		return nil, &MalformedClassFileError{
			Offset: r.Offset(),
			Reason: fmt.Sprintf("Code attribute length %d, contents use %d", len(data), consumed),
		}
	}
	return code, nil
}
