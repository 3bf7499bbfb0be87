package native

import "fmt"

// ClassNotFoundError is returned when a class name is not registered.
type ClassNotFoundError struct {
	Name string
}

func (e *ClassNotFoundError) Error() string {
	return fmt.Sprintf("class %s not found", e.Name)
}

// MethodNotFoundError is returned when a class has no native method for a
// name and descriptor.
type MethodNotFoundError struct {
	Class      string
	Name       string
	Descriptor string
	Static     bool
}

func (e *MethodNotFoundError) Error() string {
	kind := "instance"
	if e.Static {
		kind = "static"
	}
	return fmt.Sprintf("%s method %s.%s:%s not found", kind, e.Class, e.Name, e.Descriptor)
}

// FieldNotFoundError is returned for an unknown static field.
type FieldNotFoundError struct {
	Class string
	Name  string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("static field %s.%s not found", e.Class, e.Name)
}

// ReceiverError is returned when an instance method is called on a value
// that is not an object of its class.
type ReceiverError struct {
	Class  string
	Method string
	Got    Value
}

func (e *ReceiverError) Error() string {
	return fmt.Sprintf("%s.%s: receiver is %s %s, not a %s", e.Class, e.Method, e.Got.Kind, e.Got, e.Class)
}

// ArgumentError is returned when a native method receives an argument of
// the wrong kind.
type ArgumentError struct {
	Method string
	Index  int
	Want   Kind
	Got    Kind
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: argument %d is %s, want %s", e.Method, e.Index, e.Got, e.Want)
}

// RegistrationError is returned when a class or method table entry is
// rejected while the registry is built.
type RegistrationError struct {
	Class  string
	Key    string
	Reason string
}

func (e *RegistrationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("registering %s: %s", e.Class, e.Reason)
	}
	return fmt.Sprintf("registering %s %s: %s", e.Class, e.Key, e.Reason)
}
