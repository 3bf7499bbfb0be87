package vm

import (
	"fmt"

	"github.com/daimatz/nanojvm/pkg/classfile"
)

// Disassemble renders code one instruction per line, resolving constant
// pool operands where it can. Decoding stops at the first undecodable
// instruction, whose error is returned with the lines before it.
func Disassemble(code []byte, pool classfile.ConstantPool) ([]string, error) {
	var lines []string
	for pc := 0; pc < len(code); {
		ins, err := decode(code, pc)
		if err != nil {
			return lines, err
		}
		lines = append(lines, formatInstruction(ins, pool))
		pc += ins.length()
	}
	return lines, nil
}

func formatInstruction(ins instruction, pool classfile.ConstantPool) string {
	prefix := fmt.Sprintf("%4d: %s", ins.pc, ins.op)
	switch ins.op {
	case OpBipush:
		return fmt.Sprintf("%s %d", prefix, ins.i1())
	case OpSipush:
		return fmt.Sprintf("%s %d", prefix, ins.i2())
	case OpIload, OpAload, OpIstore, OpAstore:
		return fmt.Sprintf("%s %d", prefix, ins.u1())
	case OpIinc:
		return fmt.Sprintf("%s %d %d", prefix, ins.u1(), ins.i1n(1))
	case OpIfeq, OpIfne, OpIfIcmplt, OpIfIcmpge, OpGoto:
		return fmt.Sprintf("%s %d", prefix, ins.pc+int(ins.i2()))
	case OpLdc:
		return fmt.Sprintf("%s #%d%s", prefix, ins.u1(), describeConstant(pool, uint16(ins.u1())))
	case OpLdcW, OpGetstatic, OpNew, OpInvokevirtual, OpInvokespecial, OpInvokestatic:
		return fmt.Sprintf("%s #%d%s", prefix, ins.u2(), describeConstant(pool, ins.u2()))
	}
	return prefix
}

func describeConstant(pool classfile.ConstantPool, index uint16) string {
	switch pool.KindAt(index) {
	case classfile.KindString:
		if s, err := pool.StringValue(index); err == nil {
			return fmt.Sprintf(" // %q", s)
		}
	case classfile.KindClass:
		if name, err := pool.ClassName(index); err == nil {
			return " // " + name
		}
	case classfile.KindFieldref:
		if ref, err := pool.ResolveField(index); err == nil {
			return " // " + ref.String()
		}
	case classfile.KindMethodref, classfile.KindInterfaceMethodref:
		if ref, err := pool.ResolveMethod(index); err == nil {
			return " // " + ref.String()
		}
	}
	return ""
}
