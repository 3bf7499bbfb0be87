package native

import "fmt"

// Object is an instance created by the new instruction: a field bag tagged
// with the class it was created from.
//
// Objects are not safe for concurrent mutation.
type Object struct {
	Class  *Class
	Fields map[string]Value
}

// NewObject creates an empty instance of class.
func NewObject(class *Class) *Object {
	return &Object{Class: class, Fields: make(map[string]Value)}
}

// Get returns the field value, or Void if unset.
func (o *Object) Get(name string) Value {
	return o.Fields[name]
}

// Set stores a field value.
func (o *Object) Set(name string, v Value) {
	o.Fields[name] = v
}

// InstanceOf reports whether o was created from class.
func (o *Object) InstanceOf(class *Class) bool {
	return o != nil && o.Class == class
}

func (o *Object) String() string {
	if o == nil {
		return "null"
	}
	return fmt.Sprintf("%s@%p", o.Class.Name, o)
}
