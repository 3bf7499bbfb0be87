package native

const (
	stringBuilderClass = "java/lang/StringBuilder"
	// valueField is the accumulated string of a StringBuilder.
	valueField = "str"
)

func newStringBuilderClass(*Registry, LineWriter) (*Class, error) {
	c := NewClass(stringBuilderClass)

	appendWith := func(render func(args []Value) (string, error)) NativeFunc {
		return func(args []Value) (Value, error) {
			o, err := c.receiver("append", args)
			if err != nil {
				return Void, err
			}
			s, err := render(args)
			if err != nil {
				return Void, err
			}
			o.Set(valueField, StringValue(o.Get(valueField).Str+s))
			return args[0], nil
		}
	}

	defs := []struct {
		name, desc string
		fn         NativeFunc
	}{
		{"<init>", "()V", func(args []Value) (Value, error) {
			o, err := c.receiver("<init>", args)
			if err != nil {
				return Void, err
			}
			o.Set(valueField, StringValue(""))
			return Void, nil
		}},
		{"append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;", appendWith(func(args []Value) (string, error) {
			return argString("append", args, 1)
		})},
		{"append", "(I)Ljava/lang/StringBuilder;", appendWith(func(args []Value) (string, error) {
			if _, err := argInt("append", args, 1); err != nil {
				return "", err
			}
			return args[1].String(), nil
		})},
		{"append", "(C)Ljava/lang/StringBuilder;", appendWith(func(args []Value) (string, error) {
			ch, err := argInt("append", args, 1)
			if err != nil {
				return "", err
			}
			return string(rune(uint16(ch))), nil
		})},
		{"toString", "()Ljava/lang/String;", func(args []Value) (Value, error) {
			o, err := c.receiver("toString", args)
			if err != nil {
				return Void, err
			}
			return StringValue(o.Get(valueField).Str), nil
		}},
	}
	for _, d := range defs {
		if err := c.DefineInstance(d.name, d.desc, d.fn); err != nil {
			return nil, err
		}
	}
	return c, nil
}
