package vm

import (
	"fmt"

	"github.com/daimatz/nanojvm/pkg/classfile"
	"github.com/daimatz/nanojvm/pkg/native"
)

// StackUnderflowError is returned when an instruction pops more values than
// the operand stack holds.
type StackUnderflowError struct {
	PC    int
	Depth int
	Need  int
}

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("operand stack underflow at pc %d: need %d, depth %d", e.PC, e.Need, e.Depth)
}

// StackOverflowError is returned when a push exceeds the method's max_stack.
type StackOverflowError struct {
	PC       int
	MaxStack int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("operand stack overflow at pc %d: max_stack %d", e.PC, e.MaxStack)
}

// UnknownOpcodeError is returned for an opcode outside the supported set.
type UnknownOpcodeError struct {
	Opcode Opcode
	PC     int
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode 0x%02x at pc %d", byte(e.Opcode), e.PC)
}

// UnsupportedConstantUseError is returned when an instruction references a
// constant kind it cannot load, such as ldc on a Class entry.
type UnsupportedConstantUseError struct {
	PC     int
	Opcode Opcode
	Index  uint16
	Kind   classfile.ConstantKind
}

func (e *UnsupportedConstantUseError) Error() string {
	return fmt.Sprintf("%s at pc %d: constant #%d is %s", e.Opcode, e.PC, e.Index, e.Kind)
}

// OperandTypeError is returned when a value has the wrong kind for the
// instruction consuming it.
type OperandTypeError struct {
	PC     int
	Opcode Opcode
	Want   string
	Got    native.Kind
}

func (e *OperandTypeError) Error() string {
	return fmt.Sprintf("%s at pc %d: operand is %s, want %s", e.Opcode, e.PC, e.Got, e.Want)
}

// LocalIndexError is returned for a local variable slot outside the frame.
type LocalIndexError struct {
	PC        int
	Index     int
	MaxLocals int
}

func (e *LocalIndexError) Error() string {
	return fmt.Sprintf("local variable %d out of range at pc %d (max_locals %d)", e.Index, e.PC, e.MaxLocals)
}

// CodeOverrunError is returned when execution or operand decoding runs past
// the end of the code array.
type CodeOverrunError struct {
	PC     int
	Opcode Opcode
	Need   int
	Have   int
}

func (e *CodeOverrunError) Error() string {
	if e.Need == 1 && e.Have == 0 && e.Opcode == 0 {
		return fmt.Sprintf("execution ran off the end of the code at pc %d", e.PC)
	}
	return fmt.Sprintf("%s at pc %d: need %d operand bytes, have %d", e.Opcode, e.PC, e.Need, e.Have)
}

// BranchTargetError is returned when a branch leaves the code array.
type BranchTargetError struct {
	PC         int
	Target     int
	CodeLength int
}

func (e *BranchTargetError) Error() string {
	return fmt.Sprintf("branch at pc %d targets %d outside code of length %d", e.PC, e.Target, e.CodeLength)
}

// BudgetExceededError is returned when a run executes more instructions than
// its configured budget.
type BudgetExceededError struct {
	Limit int64
	PC    int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("instruction budget of %d exceeded at pc %d", e.Limit, e.PC)
}

// NoCodeError is returned when the entry method has no Code attribute.
type NoCodeError struct {
	Method string
}

func (e *NoCodeError) Error() string {
	return fmt.Sprintf("method %s has no Code attribute", e.Method)
}

// Fault records where a run was aborted and wraps the cause.
type Fault struct {
	Method string
	PC     int
	Opcode Opcode
	Err    error
}

func (e *Fault) Error() string {
	return fmt.Sprintf("%s: pc %d (%s): %v", e.Method, e.PC, e.Opcode, e.Err)
}

func (e *Fault) Unwrap() error { return e.Err }
