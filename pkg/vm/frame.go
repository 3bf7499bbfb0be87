package vm

import "github.com/daimatz/nanojvm/pkg/native"

// Frame is the execution context of one method activation. Code is
// borrowed from the method's Code attribute.
type Frame struct {
	Method string
	Locals []native.Value
	Stack  []native.Value
	Code   []byte
	// PC is the offset of the instruction being executed.
	PC int

	maxStack int
	// executed counts instructions run in this frame.
	executed int64
}

// NewFrame creates a frame with maxLocals slots and an operand stack of at
// most maxStack values.
func NewFrame(maxLocals, maxStack uint16, code []byte) *Frame {
	return &Frame{
		Locals:   make([]native.Value, maxLocals),
		Stack:    make([]native.Value, 0, maxStack),
		Code:     code,
		maxStack: int(maxStack),
	}
}

// Depth returns the number of values on the operand stack.
func (f *Frame) Depth() int {
	return len(f.Stack)
}

// Executed returns the number of instructions run in this frame.
func (f *Frame) Executed() int64 {
	return f.executed
}

// Push pushes a value onto the operand stack.
func (f *Frame) Push(v native.Value) error {
	if len(f.Stack) >= f.maxStack {
		return &StackOverflowError{PC: f.PC, MaxStack: f.maxStack}
	}
	f.Stack = append(f.Stack, v)
	return nil
}

// Pop pops a value from the operand stack.
func (f *Frame) Pop() (native.Value, error) {
	n := len(f.Stack)
	if n == 0 {
		return native.Void, &StackUnderflowError{PC: f.PC, Depth: 0, Need: 1}
	}
	v := f.Stack[n-1]
	f.Stack = f.Stack[:n-1]
	return v, nil
}

// PopN pops n values and returns them in push order, so the deepest value
// comes first.
func (f *Frame) PopN(n int) ([]native.Value, error) {
	depth := len(f.Stack)
	if n > depth {
		return nil, &StackUnderflowError{PC: f.PC, Depth: depth, Need: n}
	}
	vals := make([]native.Value, n)
	copy(vals, f.Stack[depth-n:])
	f.Stack = f.Stack[:depth-n]
	return vals, nil
}

// Peek returns the top of the operand stack without popping it.
func (f *Frame) Peek() (native.Value, error) {
	n := len(f.Stack)
	if n == 0 {
		return native.Void, &StackUnderflowError{PC: f.PC, Depth: 0, Need: 1}
	}
	return f.Stack[n-1], nil
}

// Local returns the value at the given local variable index.
func (f *Frame) Local(index int) (native.Value, error) {
	if index < 0 || index >= len(f.Locals) {
		return native.Void, &LocalIndexError{PC: f.PC, Index: index, MaxLocals: len(f.Locals)}
	}
	return f.Locals[index], nil
}

// SetLocal sets the value at the given local variable index.
func (f *Frame) SetLocal(index int, v native.Value) error {
	if index < 0 || index >= len(f.Locals) {
		return &LocalIndexError{PC: f.PC, Index: index, MaxLocals: len(f.Locals)}
	}
	f.Locals[index] = v
	return nil
}
