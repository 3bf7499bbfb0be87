package native

import (
	"fmt"
	"strings"
)

// MethodType is a parsed method descriptor.
type MethodType struct {
	Params []string // one field descriptor per parameter
	Return string   // "V" for void
}

// Void reports whether the method returns no value.
func (t MethodType) Void() bool {
	return t.Return == "V"
}

// ParseMethodDescriptor parses a descriptor such as
// "(ILjava/lang/String;)Ljava/lang/StringBuilder;".
func ParseMethodDescriptor(descriptor string) (MethodType, error) {
	var t MethodType
	if !strings.HasPrefix(descriptor, "(") {
		return t, fmt.Errorf("invalid method descriptor %q: missing '('", descriptor)
	}
	end := strings.IndexByte(descriptor, ')')
	if end < 0 {
		return t, fmt.Errorf("invalid method descriptor %q: missing ')'", descriptor)
	}

	params := descriptor[1:end]
	for len(params) > 0 {
		n, err := fieldTypeLength(params)
		if err != nil {
			return t, fmt.Errorf("invalid method descriptor %q: %w", descriptor, err)
		}
		t.Params = append(t.Params, params[:n])
		params = params[n:]
	}

	ret := descriptor[end+1:]
	if ret != "V" {
		n, err := fieldTypeLength(ret)
		if err != nil || n != len(ret) {
			return t, fmt.Errorf("invalid method descriptor %q: bad return type %q", descriptor, ret)
		}
	}
	t.Return = ret
	return t, nil
}

// fieldTypeLength returns the length of the field descriptor at the start
// of s.
func fieldTypeLength(s string) (int, error) {
	i := 0
	for i < len(s) && s[i] == '[' {
		i++
	}
	if i >= len(s) {
		return 0, fmt.Errorf("array of nothing in %q", s)
	}
	switch s[i] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return i + 1, nil
	case 'L':
		semi := strings.IndexByte(s[i:], ';')
		if semi <= 1 {
			return 0, fmt.Errorf("unterminated class type in %q", s)
		}
		return i + semi + 1, nil
	}
	return 0, fmt.Errorf("invalid type descriptor char '%c' in %q", s[i], s)
}
