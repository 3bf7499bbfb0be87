package classfile

import "fmt"

// TruncatedInputError is returned when the byte source ends before a read
// could be satisfied.
type TruncatedInputError struct {
	Offset int64
	Need   int
	Have   int
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("truncated input at offset %d: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

// MalformedClassFileError reports a structurally invalid class file: a bad
// magic number, a truncated stream or an inconsistent attribute length.
type MalformedClassFileError struct {
	Offset int64
	Reason string
	Err    error
}

func (e *MalformedClassFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed class file at offset %d: %s: %v", e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed class file at offset %d: %s", e.Offset, e.Reason)
}

func (e *MalformedClassFileError) Unwrap() error { return e.Err }

// UnsupportedVersionError is returned when the major version differs from the
// configured one.
type UnsupportedVersionError struct {
	Major uint16
	Minor uint16
	Want  uint16
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported class file version %d.%d (want major %d)", e.Major, e.Minor, e.Want)
}

// UnsupportedConstantError is returned for a recognized constant pool tag
// that this implementation does not model (numeric, method handle, method
// type and invokedynamic constants).
type UnsupportedConstantError struct {
	Index uint16
	Tag   ConstantKind
}

func (e *UnsupportedConstantError) Error() string {
	return fmt.Sprintf("unsupported constant %s (tag %d) at index %d", e.Tag, uint8(e.Tag), e.Index)
}

// UnknownConstantTagError is returned for a tag byte outside the constant
// pool tag table.
type UnknownConstantTagError struct {
	Index uint16
	Tag   uint8
}

func (e *UnknownConstantTagError) Error() string {
	return fmt.Sprintf("unknown constant pool tag %d at index %d", e.Tag, e.Index)
}

// UnresolvedConstantError is returned when a constant pool index is out of
// range or refers to an entry of a different kind than expected. Actual is
// KindNone for out-of-range indices.
type UnresolvedConstantError struct {
	Index    uint16
	Expected ConstantKind
	Actual   ConstantKind
}

func (e *UnresolvedConstantError) Error() string {
	if e.Actual == KindNone {
		return fmt.Sprintf("constant pool index %d does not resolve (want %s)", e.Index, e.Expected)
	}
	return fmt.Sprintf("constant pool index %d is %s, want %s", e.Index, e.Actual, e.Expected)
}
