package native

import "strconv"

func formatInt(method string) NativeFunc {
	return func(args []Value) (Value, error) {
		v, err := argInt(method, args, 0)
		if err != nil {
			return Void, err
		}
		return StringValue(strconv.Itoa(int(v))), nil
	}
}

func newIntegerClass(*Registry, LineWriter) (*Class, error) {
	c := NewClass("java/lang/Integer")
	err := c.DefineStatic("toString", "(I)Ljava/lang/String;", formatInt("Integer.toString"))
	return c, err
}

func newStringClass(*Registry, LineWriter) (*Class, error) {
	c := NewClass("java/lang/String")
	err := c.DefineStatic("valueOf", "(I)Ljava/lang/String;", formatInt("String.valueOf"))
	return c, err
}
