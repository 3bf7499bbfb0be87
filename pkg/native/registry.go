// Package native implements the bootstrap class library that bytecode can
// call into: classes whose methods and static fields are Go values rather
// than interpreted code.
package native

import (
	"sort"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("nanojvm.native")

// Registry maps internal class names to native classes. A Registry is built
// per VM run and is not safe for concurrent use.
type Registry struct {
	classes map[string]*Class
	streams []*printStream
}

// bootstrap lists the builders of the fixed class library, in dependency
// order.
var bootstrap = []func(r *Registry, sink LineWriter) (*Class, error){
	newObjectClass,
	newPrintStreamClass,
	newSystemClass,
	newStringBuilderClass,
	newIntegerClass,
	newStringClass,
}

// NewRegistry builds the bootstrap class library. Lines printed through
// System.out are written to sink.
func NewRegistry(sink LineWriter) (*Registry, error) {
	r := &Registry{classes: make(map[string]*Class)}
	for _, build := range bootstrap {
		c, err := build(r, sink)
		if err != nil {
			return nil, err
		}
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	log.Debugf("registered %d native classes", len(r.classes))
	return r, nil
}

// Register adds a class. Registering a name twice is an error.
func (r *Registry) Register(c *Class) error {
	if c == nil || c.Name == "" {
		return &RegistrationError{Reason: "class has no name"}
	}
	if _, dup := r.classes[c.Name]; dup {
		return &RegistrationError{Class: c.Name, Reason: "already registered"}
	}
	r.classes[c.Name] = c
	return nil
}

// Lookup returns the class registered under name.
func (r *Registry) Lookup(name string) (*Class, error) {
	c, ok := r.classes[name]
	if !ok {
		return nil, &ClassNotFoundError{Name: name}
	}
	return c, nil
}

// Names returns the registered class names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Flush writes any text printed to System.out without a terminating
// println as a final line.
func (r *Registry) Flush() error {
	for _, ps := range r.streams {
		if err := ps.flush(); err != nil {
			return err
		}
	}
	return nil
}

func newObjectClass(*Registry, LineWriter) (*Class, error) {
	c := NewClass("java/lang/Object")
	err := c.DefineInstance("<init>", "()V", func(args []Value) (Value, error) {
		return Void, nil
	})
	return c, err
}
