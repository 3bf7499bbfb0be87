package vm

import (
	"context"

	"github.com/tliron/commonlog"

	"github.com/daimatz/nanojvm/pkg/classfile"
	"github.com/daimatz/nanojvm/pkg/native"
)

var log = commonlog.GetLogger("nanojvm.vm")

const (
	// DefaultMaxInstructions is the per-run instruction budget.
	DefaultMaxInstructions = 10_000_000
	// DefaultCheckInterval is how many instructions run between checks of
	// the context.
	DefaultCheckInterval = 1024
)

// Interpreter executes method code against a constant pool and a native
// class registry. An Interpreter serves a single run and is not safe for
// concurrent use.
type Interpreter struct {
	registry *native.Registry
	pool     classfile.ConstantPool

	maxInstructions int64
	checkInterval   int64
	trace           bool

	// executed counts instructions across every frame of the run.
	executed int64
}

// NewInterpreter creates an interpreter. A MaxInstructions of 0 disables the
// budget.
func NewInterpreter(registry *native.Registry, pool classfile.ConstantPool, opts Options) *Interpreter {
	interval := int64(opts.CheckInterval)
	if interval < 1 {
		interval = DefaultCheckInterval
	}
	return &Interpreter{
		registry:        registry,
		pool:            pool,
		maxInstructions: opts.MaxInstructions,
		checkInterval:   interval,
		trace:           log.AllowLevel(commonlog.Debug),
	}
}

// Executed returns the number of instructions run so far.
func (in *Interpreter) Executed() int64 {
	return in.executed
}

// Exec runs f until a return instruction or a fault, and returns the value
// the method returned, or native.Void.
func (in *Interpreter) Exec(ctx context.Context, f *Frame) (native.Value, error) {
	for {
		if in.maxInstructions > 0 && in.executed >= in.maxInstructions {
			return native.Void, &BudgetExceededError{Limit: in.maxInstructions, PC: f.PC}
		}
		if in.executed%in.checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return native.Void, err
			}
		}

		ins, err := decode(f.Code, f.PC)
		if err != nil {
			return native.Void, in.fault(f, Opcode(0), err)
		}
		in.executed++
		f.executed++
		if in.trace {
			log.Debugf("%s %s [depth %d]", f.Method, formatInstruction(ins, in.pool), f.Depth())
		}

		next, ret, done, err := in.execute(f, ins)
		if err != nil {
			return native.Void, in.fault(f, ins.op, err)
		}
		if done {
			return ret, nil
		}
		f.PC = next
	}
}

func (in *Interpreter) fault(f *Frame, op Opcode, err error) error {
	if op == 0 {
		if u, ok := err.(*UnknownOpcodeError); ok {
			op = u.Opcode
		} else if c, ok := err.(*CodeOverrunError); ok {
			op = c.Opcode
		}
	}
	return &Fault{Method: f.Method, PC: f.PC, Opcode: op, Err: err}
}
