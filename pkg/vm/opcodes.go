package vm

import "fmt"

// Opcode is a single-byte instruction identifier.
type Opcode byte

// Opcodes
const (
	OpNop           Opcode = 0x00
	OpIconstM1      Opcode = 0x02
	OpIconst0       Opcode = 0x03
	OpIconst1       Opcode = 0x04
	OpIconst2       Opcode = 0x05
	OpIconst3       Opcode = 0x06
	OpIconst4       Opcode = 0x07
	OpIconst5       Opcode = 0x08
	OpBipush        Opcode = 0x10
	OpSipush        Opcode = 0x11
	OpLdc           Opcode = 0x12
	OpLdcW          Opcode = 0x13
	OpIload         Opcode = 0x15
	OpAload         Opcode = 0x19
	OpIload0        Opcode = 0x1A
	OpIload1        Opcode = 0x1B
	OpIload2        Opcode = 0x1C
	OpIload3        Opcode = 0x1D
	OpAload0        Opcode = 0x2A
	OpAload1        Opcode = 0x2B
	OpAload2        Opcode = 0x2C
	OpAload3        Opcode = 0x2D
	OpIstore        Opcode = 0x36
	OpAstore        Opcode = 0x3A
	OpIstore0       Opcode = 0x3B
	OpIstore1       Opcode = 0x3C
	OpIstore2       Opcode = 0x3D
	OpIstore3       Opcode = 0x3E
	OpAstore0       Opcode = 0x4B
	OpAstore1       Opcode = 0x4C
	OpAstore2       Opcode = 0x4D
	OpAstore3       Opcode = 0x4E
	OpPop           Opcode = 0x57
	OpDup           Opcode = 0x59
	OpIadd          Opcode = 0x60
	OpIsub          Opcode = 0x64
	OpIinc          Opcode = 0x84
	OpIfeq          Opcode = 0x99
	OpIfne          Opcode = 0x9A
	OpIfIcmplt      Opcode = 0xA1
	OpIfIcmpge      Opcode = 0xA2
	OpGoto          Opcode = 0xA7
	OpIreturn       Opcode = 0xAC
	OpAreturn       Opcode = 0xB0
	OpReturn        Opcode = 0xB1
	OpGetstatic     Opcode = 0xB2
	OpInvokevirtual Opcode = 0xB6
	OpInvokespecial Opcode = 0xB7
	OpInvokestatic  Opcode = 0xB8
	OpNew           Opcode = 0xBB
)

type opcodeInfo struct {
	name     string
	operands int // operand bytes following the opcode
}

// opcodeTable is the closed set of instructions the interpreter decodes.
var opcodeTable = map[Opcode]opcodeInfo{
	OpNop:           {"nop", 0},
	OpIconstM1:      {"iconst_m1", 0},
	OpIconst0:       {"iconst_0", 0},
	OpIconst1:       {"iconst_1", 0},
	OpIconst2:       {"iconst_2", 0},
	OpIconst3:       {"iconst_3", 0},
	OpIconst4:       {"iconst_4", 0},
	OpIconst5:       {"iconst_5", 0},
	OpBipush:        {"bipush", 1},
	OpSipush:        {"sipush", 2},
	OpLdc:           {"ldc", 1},
	OpLdcW:          {"ldc_w", 2},
	OpIload:         {"iload", 1},
	OpAload:         {"aload", 1},
	OpIload0:        {"iload_0", 0},
	OpIload1:        {"iload_1", 0},
	OpIload2:        {"iload_2", 0},
	OpIload3:        {"iload_3", 0},
	OpAload0:        {"aload_0", 0},
	OpAload1:        {"aload_1", 0},
	OpAload2:        {"aload_2", 0},
	OpAload3:        {"aload_3", 0},
	OpIstore:        {"istore", 1},
	OpAstore:        {"astore", 1},
	OpIstore0:       {"istore_0", 0},
	OpIstore1:       {"istore_1", 0},
	OpIstore2:       {"istore_2", 0},
	OpIstore3:       {"istore_3", 0},
	OpAstore0:       {"astore_0", 0},
	OpAstore1:       {"astore_1", 0},
	OpAstore2:       {"astore_2", 0},
	OpAstore3:       {"astore_3", 0},
	OpPop:           {"pop", 0},
	OpDup:           {"dup", 0},
	OpIadd:          {"iadd", 0},
	OpIsub:          {"isub", 0},
	OpIinc:          {"iinc", 2},
	OpIfeq:          {"ifeq", 2},
	OpIfne:          {"ifne", 2},
	OpIfIcmplt:      {"if_icmplt", 2},
	OpIfIcmpge:      {"if_icmpge", 2},
	OpGoto:          {"goto", 2},
	OpIreturn:       {"ireturn", 0},
	OpAreturn:       {"areturn", 0},
	OpReturn:        {"return", 0},
	OpGetstatic:     {"getstatic", 2},
	OpInvokevirtual: {"invokevirtual", 2},
	OpInvokespecial: {"invokespecial", 2},
	OpInvokestatic:  {"invokestatic", 2},
	OpNew:           {"new", 2},
}

func (op Opcode) String() string {
	if info, ok := opcodeTable[op]; ok {
		return info.name
	}
	return fmt.Sprintf("opcode(0x%02x)", byte(op))
}

// instruction is one decoded instruction. Operands are borrowed from the
// method's code array.
type instruction struct {
	pc       int
	op       Opcode
	operands []byte
}

func (ins instruction) length() int {
	return 1 + len(ins.operands)
}

func (ins instruction) u1() uint8 {
	return ins.operands[0]
}

func (ins instruction) i1() int8 {
	return int8(ins.operands[0])
}

func (ins instruction) u2() uint16 {
	return uint16(ins.operands[0])<<8 | uint16(ins.operands[1])
}

func (ins instruction) i2() int16 {
	return int16(ins.u2())
}

// decode reads the instruction at pc, checking that its operands fit in
// code.
func decode(code []byte, pc int) (instruction, error) {
	if pc < 0 || pc >= len(code) {
		return instruction{}, &CodeOverrunError{PC: pc, Need: 1, Have: 0}
	}
	op := Opcode(code[pc])
	info, ok := opcodeTable[op]
	if !ok {
		return instruction{}, &UnknownOpcodeError{Opcode: op, PC: pc}
	}
	end := pc + 1 + info.operands
	if end > len(code) {
		return instruction{}, &CodeOverrunError{PC: pc, Opcode: op, Need: info.operands, Have: len(code) - pc - 1}
	}
	return instruction{pc: pc, op: op, operands: code[pc+1 : end]}, nil
}
