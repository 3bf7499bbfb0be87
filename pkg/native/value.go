package native

import (
	"fmt"
	"strconv"
)

// Kind identifies what a Value holds.
type Kind int

const (
	// KindVoid is the "no value" result of a void method. It is also the
	// zero Value, so unset local slots read as Void.
	KindVoid Kind = iota
	KindInt
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is an operand stack or local variable value.
type Value struct {
	Kind Kind
	Int  int32
	Str  string
	Obj  *Object
}

// Void is the "no value" sentinel.
var Void = Value{}

// IntValue creates an integer Value.
func IntValue(v int32) Value {
	return Value{Kind: KindInt, Int: v}
}

// StringValue creates a string Value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// ObjectValue creates an object reference Value.
func ObjectValue(o *Object) Value {
	return Value{Kind: KindObject, Obj: o}
}

// IsVoid reports whether v is the "no value" sentinel.
func (v Value) IsVoid() bool {
	return v.Kind == KindVoid
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(int(v.Int))
	case KindString:
		return v.Str
	case KindObject:
		return v.Obj.String()
	}
	return "<void>"
}
