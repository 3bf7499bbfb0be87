package native

import "fmt"

// NativeFunc implements a native method. Instance methods receive the
// receiver as args[0].
type NativeFunc func(args []Value) (Value, error)

// Method is an entry of a class's static or instance method table.
type Method struct {
	Class      *Class
	Name       string
	Descriptor string
	Type       MethodType
	Static     bool
	Fn         NativeFunc
}

// Key returns "name:descriptor".
func (m *Method) Key() string {
	return m.Name + ":" + m.Descriptor
}

// Arity is the number of values Fn is called with, including the receiver
// for instance methods.
func (m *Method) Arity() int {
	if m.Static {
		return len(m.Type.Params)
	}
	return len(m.Type.Params) + 1
}

// Invoke calls the method with exactly Arity arguments. Void methods always
// yield Void.
func (m *Method) Invoke(args []Value) (Value, error) {
	if len(args) != m.Arity() {
		return Void, fmt.Errorf("%s.%s: got %d arguments, want %d", m.Class.Name, m.Key(), len(args), m.Arity())
	}
	result, err := m.Fn(args)
	if err != nil {
		return Void, err
	}
	if m.Type.Void() {
		return Void, nil
	}
	return result, nil
}

// Class is a natively implemented class: static field values plus static
// and instance method tables keyed by "name:descriptor".
//
// Classes are not safe for concurrent mutation.
type Class struct {
	Name            string
	staticFields    map[string]Value
	staticMethods   map[string]*Method
	instanceMethods map[string]*Method
}

// NewClass creates an empty class with the given internal name.
func NewClass(name string) *Class {
	return &Class{
		Name:            name,
		staticFields:    make(map[string]Value),
		staticMethods:   make(map[string]*Method),
		instanceMethods: make(map[string]*Method),
	}
}

func (c *Class) define(table map[string]*Method, static bool, name, descriptor string, fn NativeFunc) error {
	key := name + ":" + descriptor
	if fn == nil {
		return &RegistrationError{Class: c.Name, Key: key, Reason: "nil implementation"}
	}
	if _, dup := table[key]; dup {
		return &RegistrationError{Class: c.Name, Key: key, Reason: "already defined"}
	}
	t, err := ParseMethodDescriptor(descriptor)
	if err != nil {
		return &RegistrationError{Class: c.Name, Key: key, Reason: err.Error()}
	}
	if name == "<init>" && (static || !t.Void()) {
		return &RegistrationError{Class: c.Name, Key: key, Reason: "constructors must be void instance methods"}
	}
	table[key] = &Method{
		Class:      c,
		Name:       name,
		Descriptor: descriptor,
		Type:       t,
		Static:     static,
		Fn:         fn,
	}
	return nil
}

// DefineStatic adds a static method. Malformed descriptors and duplicate
// keys are rejected.
func (c *Class) DefineStatic(name, descriptor string, fn NativeFunc) error {
	return c.define(c.staticMethods, true, name, descriptor, fn)
}

// DefineInstance adds an instance method.
func (c *Class) DefineInstance(name, descriptor string, fn NativeFunc) error {
	return c.define(c.instanceMethods, false, name, descriptor, fn)
}

// SetStaticField sets a static field value.
func (c *Class) SetStaticField(name string, v Value) {
	c.staticFields[name] = v
}

// StaticField returns a static field value.
func (c *Class) StaticField(name string) (Value, error) {
	v, ok := c.staticFields[name]
	if !ok {
		return Void, &FieldNotFoundError{Class: c.Name, Name: name}
	}
	return v, nil
}

// StaticMethod looks up a static method by name and descriptor.
func (c *Class) StaticMethod(name, descriptor string) (*Method, error) {
	m, ok := c.staticMethods[name+":"+descriptor]
	if !ok {
		return nil, &MethodNotFoundError{Class: c.Name, Name: name, Descriptor: descriptor, Static: true}
	}
	return m, nil
}

// InstanceMethod looks up an instance method by name and descriptor.
func (c *Class) InstanceMethod(name, descriptor string) (*Method, error) {
	m, ok := c.instanceMethods[name+":"+descriptor]
	if !ok {
		return nil, &MethodNotFoundError{Class: c.Name, Name: name, Descriptor: descriptor}
	}
	return m, nil
}

// receiver returns args[0] as an object of class c.
func (c *Class) receiver(method string, args []Value) (*Object, error) {
	if len(args) == 0 || args[0].Kind != KindObject || !args[0].Obj.InstanceOf(c) {
		var got Value
		if len(args) > 0 {
			got = args[0]
		}
		return nil, &ReceiverError{Class: c.Name, Method: method, Got: got}
	}
	return args[0].Obj, nil
}

func argInt(method string, args []Value, i int) (int32, error) {
	if args[i].Kind != KindInt {
		return 0, &ArgumentError{Method: method, Index: i, Want: KindInt, Got: args[i].Kind}
	}
	return args[i].Int, nil
}

func argString(method string, args []Value, i int) (string, error) {
	if args[i].Kind != KindString {
		return "", &ArgumentError{Method: method, Index: i, Want: KindString, Got: args[i].Kind}
	}
	return args[i].Str, nil
}
