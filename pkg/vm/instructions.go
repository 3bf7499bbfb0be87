package vm

import (
	"github.com/daimatz/nanojvm/pkg/classfile"
	"github.com/daimatz/nanojvm/pkg/native"
)

const wantReference = "reference"

// execute applies one instruction to f. It returns the pc of the next
// instruction, or done with the method's return value.
func (in *Interpreter) execute(f *Frame, ins instruction) (next int, ret native.Value, done bool, err error) {
	next = ins.pc + ins.length()

	switch ins.op {
	case OpNop:
		// do nothing

	// --- Constant load instructions ---
	case OpIconstM1, OpIconst0, OpIconst1, OpIconst2, OpIconst3, OpIconst4, OpIconst5:
		err = f.Push(native.IntValue(int32(ins.op) - int32(OpIconst0)))
	case OpBipush:
		err = f.Push(native.IntValue(int32(ins.i1())))
	case OpSipush:
		err = f.Push(native.IntValue(int32(ins.i2())))
	case OpLdc:
		err = in.executeLdc(f, ins, uint16(ins.u1()))
	case OpLdcW:
		err = in.executeLdc(f, ins, ins.u2())

	// --- Load instructions ---
	case OpIload:
		err = in.load(f, ins, int(ins.u1()), native.KindInt)
	case OpIload0, OpIload1, OpIload2, OpIload3:
		err = in.load(f, ins, int(ins.op-OpIload0), native.KindInt)
	case OpAload:
		err = in.load(f, ins, int(ins.u1()), native.KindObject)
	case OpAload0, OpAload1, OpAload2, OpAload3:
		err = in.load(f, ins, int(ins.op-OpAload0), native.KindObject)

	// --- Store instructions ---
	case OpIstore:
		err = in.store(f, ins, int(ins.u1()), native.KindInt)
	case OpIstore0, OpIstore1, OpIstore2, OpIstore3:
		err = in.store(f, ins, int(ins.op-OpIstore0), native.KindInt)
	case OpAstore:
		err = in.store(f, ins, int(ins.u1()), native.KindObject)
	case OpAstore0, OpAstore1, OpAstore2, OpAstore3:
		err = in.store(f, ins, int(ins.op-OpAstore0), native.KindObject)

	// --- Stack instructions ---
	case OpPop:
		_, err = f.Pop()
	case OpDup:
		var v native.Value
		if v, err = f.Peek(); err == nil {
			err = f.Push(v)
		}

	// --- Arithmetic instructions ---
	case OpIadd, OpIsub:
		var a, b int32
		if a, b, err = popInts(f, ins); err != nil {
			break
		}
		// int32 arithmetic wraps in Go, as it must here.
		if ins.op == OpIadd {
			err = f.Push(native.IntValue(a + b))
		} else {
			err = f.Push(native.IntValue(a - b))
		}
	case OpIinc:
		index := int(ins.u1())
		var v native.Value
		if v, err = f.Local(index); err != nil {
			break
		}
		if v.Kind != native.KindInt {
			err = &OperandTypeError{PC: ins.pc, Opcode: ins.op, Want: native.KindInt.String(), Got: v.Kind}
			break
		}
		err = f.SetLocal(index, native.IntValue(v.Int+int32(ins.i1n(1))))

	// --- Control flow ---
	case OpIfeq, OpIfne:
		var v int32
		if v, err = popInt(f, ins); err != nil {
			break
		}
		if (v == 0) == (ins.op == OpIfeq) {
			next, err = branch(f, ins)
		}
	case OpIfIcmplt, OpIfIcmpge:
		var a, b int32
		if a, b, err = popInts(f, ins); err != nil {
			break
		}
		if (a < b) == (ins.op == OpIfIcmplt) {
			next, err = branch(f, ins)
		}
	case OpGoto:
		next, err = branch(f, ins)

	// --- Return instructions ---
	case OpReturn:
		return next, native.Void, true, nil
	case OpIreturn:
		var v int32
		if v, err = popInt(f, ins); err != nil {
			break
		}
		return next, native.IntValue(v), true, nil
	case OpAreturn:
		var v native.Value
		if v, err = popRef(f, ins); err != nil {
			break
		}
		return next, v, true, nil

	// --- Object and method instructions ---
	case OpGetstatic:
		err = in.executeGetstatic(f, ins)
	case OpNew:
		err = in.executeNew(f, ins)
	case OpInvokevirtual, OpInvokespecial:
		err = in.executeInvokeInstance(f, ins)
	case OpInvokestatic:
		err = in.executeInvokestatic(f, ins)

	default:
		err = &UnknownOpcodeError{Opcode: ins.op, PC: ins.pc}
	}
	return next, native.Void, false, err
}

// i1n returns operand byte i as a signed value.
func (ins instruction) i1n(i int) int8 {
	return int8(ins.operands[i])
}

// branch returns the target of a branch: the instruction's own pc plus its
// signed 16-bit offset.
func branch(f *Frame, ins instruction) (int, error) {
	target := ins.pc + int(ins.i2())
	if target < 0 || target >= len(f.Code) {
		return 0, &BranchTargetError{PC: ins.pc, Target: target, CodeLength: len(f.Code)}
	}
	return target, nil
}

func popInt(f *Frame, ins instruction) (int32, error) {
	v, err := f.Pop()
	if err != nil {
		return 0, err
	}
	if v.Kind != native.KindInt {
		return 0, &OperandTypeError{PC: ins.pc, Opcode: ins.op, Want: native.KindInt.String(), Got: v.Kind}
	}
	return v.Int, nil
}

// popInts pops value2 then value1 and returns them as (value1, value2).
func popInts(f *Frame, ins instruction) (int32, int32, error) {
	if f.Depth() < 2 {
		return 0, 0, &StackUnderflowError{PC: ins.pc, Depth: f.Depth(), Need: 2}
	}
	b, err := popInt(f, ins)
	if err != nil {
		return 0, 0, err
	}
	a, err := popInt(f, ins)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func isReference(k native.Kind) bool {
	return k == native.KindString || k == native.KindObject
}

func popRef(f *Frame, ins instruction) (native.Value, error) {
	v, err := f.Pop()
	if err != nil {
		return native.Void, err
	}
	if !isReference(v.Kind) {
		return native.Void, &OperandTypeError{PC: ins.pc, Opcode: ins.op, Want: wantReference, Got: v.Kind}
	}
	return v, nil
}

// checkKind reports whether v suits a load or store of kind. KindObject
// stands for any reference.
func checkKind(ins instruction, v native.Value, kind native.Kind) error {
	if kind == native.KindInt && v.Kind == native.KindInt {
		return nil
	}
	if kind == native.KindObject && isReference(v.Kind) {
		return nil
	}
	want := wantReference
	if kind == native.KindInt {
		want = native.KindInt.String()
	}
	return &OperandTypeError{PC: ins.pc, Opcode: ins.op, Want: want, Got: v.Kind}
}

func (in *Interpreter) load(f *Frame, ins instruction, index int, kind native.Kind) error {
	v, err := f.Local(index)
	if err != nil {
		return err
	}
	if err := checkKind(ins, v, kind); err != nil {
		return err
	}
	return f.Push(v)
}

func (in *Interpreter) store(f *Frame, ins instruction, index int, kind native.Kind) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	if err := checkKind(ins, v, kind); err != nil {
		return err
	}
	return f.SetLocal(index, v)
}

// executeLdc pushes a String constant. Other loadable kinds are outside the
// supported value set.
func (in *Interpreter) executeLdc(f *Frame, ins instruction, index uint16) error {
	switch kind := in.pool.KindAt(index); kind {
	case classfile.KindString:
		s, err := in.pool.StringValue(index)
		if err != nil {
			return err
		}
		return f.Push(native.StringValue(s))
	case classfile.KindNone:
		_, err := in.pool.Fetch(index, classfile.KindString)
		return err
	default:
		return &UnsupportedConstantUseError{PC: ins.pc, Opcode: ins.op, Index: index, Kind: kind}
	}
}

func (in *Interpreter) executeGetstatic(f *Frame, ins instruction) error {
	ref, err := in.pool.ResolveField(ins.u2())
	if err != nil {
		return err
	}
	class, err := in.registry.Lookup(ref.ClassName)
	if err != nil {
		return err
	}
	v, err := class.StaticField(ref.Name)
	if err != nil {
		return err
	}
	return f.Push(v)
}

// executeNew creates an object tagged with the resolved native class.
func (in *Interpreter) executeNew(f *Frame, ins instruction) error {
	name, err := in.pool.ClassName(ins.u2())
	if err != nil {
		return err
	}
	class, err := in.registry.Lookup(name)
	if err != nil {
		return err
	}
	return f.Push(native.ObjectValue(native.NewObject(class)))
}

// executeInvokeInstance handles invokevirtual and invokespecial. Lookup is
// flat: name:descriptor on the resolved owner class only. The receiver and
// arguments are popped together, receiver first in call order.
func (in *Interpreter) executeInvokeInstance(f *Frame, ins instruction) error {
	ref, err := in.pool.ResolveMethod(ins.u2())
	if err != nil {
		return err
	}
	class, err := in.registry.Lookup(ref.ClassName)
	if err != nil {
		return err
	}
	method, err := class.InstanceMethod(ref.Name, ref.Descriptor)
	if err != nil {
		return err
	}
	args, err := f.PopN(method.Arity())
	if err != nil {
		return err
	}
	result, err := method.Invoke(args)
	if err != nil {
		return err
	}
	// invokespecial is a constructor-style call and pushes nothing.
	if ins.op == OpInvokevirtual && !result.IsVoid() {
		return f.Push(result)
	}
	return nil
}

func (in *Interpreter) executeInvokestatic(f *Frame, ins instruction) error {
	ref, err := in.pool.ResolveMethod(ins.u2())
	if err != nil {
		return err
	}
	class, err := in.registry.Lookup(ref.ClassName)
	if err != nil {
		return err
	}
	method, err := class.StaticMethod(ref.Name, ref.Descriptor)
	if err != nil {
		return err
	}
	args, err := f.PopN(method.Arity())
	if err != nil {
		return err
	}
	result, err := method.Invoke(args)
	if err != nil {
		return err
	}
	if !result.IsVoid() {
		return f.Push(result)
	}
	return nil
}
