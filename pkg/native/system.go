package native

import "strings"

const printStreamClass = "java/io/PrintStream"

// printStream holds the sink of a PrintStream object. Objects only carry
// Values, so the sink lives beside the class definition.
type printStream struct {
	class *Class
	sink  LineWriter
	// pending collects print output per object until the next println.
	pending map[*Object]*strings.Builder
	order   []*Object
}

func newPrintStreamClass(r *Registry, sink LineWriter) (*Class, error) {
	c := NewClass(printStreamClass)
	ps := &printStream{class: c, sink: sink, pending: make(map[*Object]*strings.Builder)}

	defs := []struct {
		name, desc string
		fn         NativeFunc
	}{
		{"println", "(Ljava/lang/String;)V", func(args []Value) (Value, error) {
			s, err := argString("println", args, 1)
			if err != nil {
				return Void, err
			}
			return ps.println(args, s)
		}},
		{"println", "(I)V", func(args []Value) (Value, error) {
			if _, err := argInt("println", args, 1); err != nil {
				return Void, err
			}
			return ps.println(args, args[1].String())
		}},
		{"println", "()V", func(args []Value) (Value, error) {
			return ps.println(args, "")
		}},
		{"print", "(Ljava/lang/String;)V", func(args []Value) (Value, error) {
			o, err := c.receiver("print", args)
			if err != nil {
				return Void, err
			}
			s, err := argString("print", args, 1)
			if err != nil {
				return Void, err
			}
			ps.buffer(o).WriteString(s)
			return Void, nil
		}},
	}
	for _, d := range defs {
		if err := c.DefineInstance(d.name, d.desc, d.fn); err != nil {
			return nil, err
		}
	}
	r.streams = append(r.streams, ps)
	return c, nil
}

func (ps *printStream) buffer(o *Object) *strings.Builder {
	b, ok := ps.pending[o]
	if !ok {
		b = &strings.Builder{}
		ps.pending[o] = b
		ps.order = append(ps.order, o)
	}
	return b
}

func (ps *printStream) println(args []Value, s string) (Value, error) {
	o, err := ps.class.receiver("println", args)
	if err != nil {
		return Void, err
	}
	if b, ok := ps.pending[o]; ok && b.Len() > 0 {
		s = b.String() + s
		b.Reset()
	}
	return Void, ps.sink.WriteLine(s)
}

func (ps *printStream) flush() error {
	for _, o := range ps.order {
		b := ps.pending[o]
		if b.Len() == 0 {
			continue
		}
		line := b.String()
		b.Reset()
		if err := ps.sink.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

func newSystemClass(r *Registry, _ LineWriter) (*Class, error) {
	ps, ok := r.classes[printStreamClass]
	if !ok {
		return nil, &RegistrationError{Class: "java/lang/System", Reason: "java/io/PrintStream is not registered"}
	}
	c := NewClass("java/lang/System")
	c.SetStaticField("out", ObjectValue(NewObject(ps)))
	return c, nil
}
