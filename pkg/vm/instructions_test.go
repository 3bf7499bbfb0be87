package vm

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/daimatz/nanojvm/internal/classgen"
	"github.com/daimatz/nanojvm/pkg/classfile"
	"github.com/daimatz/nanojvm/pkg/native"
)

// testPool builds a constant pool with build and parses it back.
func testPool(t *testing.T, build func(b *classgen.Builder)) classfile.ConstantPool {
	t.Helper()
	b := classgen.New("Test")
	if build != nil {
		build(b)
	}
	cf, err := classfile.Parse(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cf.ConstantPool
}

// execute runs code in a fresh frame whose locals start with the given
// values, and returns the method's result.
func execute(t *testing.T, pool classfile.ConstantPool, opts Options, code []byte, locals ...native.Value) (native.Value, *Interpreter, error) {
	t.Helper()
	registry, err := native.NewRegistry(&native.LineRecorder{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	maxLocals := uint16(len(locals))
	if maxLocals < 4 {
		maxLocals = 4
	}
	frame := NewFrame(maxLocals, 10, code)
	frame.Method = "Test.test:()V"
	copy(frame.Locals, locals)

	in := NewInterpreter(registry, pool, opts)
	v, err := in.Exec(context.Background(), frame)
	return v, in, err
}

// executeAndGetInt runs bytecode that must end with ireturn (0xAC).
// Optional locals are set as int32 values starting at index 0.
func executeAndGetInt(t *testing.T, code []byte, locals ...int32) int32 {
	t.Helper()
	vals := make([]native.Value, len(locals))
	for i, v := range locals {
		vals[i] = native.IntValue(v)
	}
	v, _, err := execute(t, nil, DefaultOptions(), code, vals...)
	if err != nil {
		t.Fatalf("execution error: %v", err)
	}
	if v.Kind != native.KindInt {
		t.Fatalf("bytecode did not return an int (missing ireturn?): %v", v)
	}
	return v.Int
}

// executeErr runs code that must fail and returns the error.
func executeErr(t *testing.T, pool classfile.ConstantPool, code []byte, locals ...native.Value) error {
	t.Helper()
	_, _, err := execute(t, pool, DefaultOptions(), code, locals...)
	if err == nil {
		t.Fatal("execution succeeded, want error")
	}
	return err
}

func TestIconst(t *testing.T) {
	tests := []struct {
		name   string
		opcode byte
		want   int32
	}{
		{"iconst_m1", 0x02, -1},
		{"iconst_0", 0x03, 0},
		{"iconst_1", 0x04, 1},
		{"iconst_2", 0x05, 2},
		{"iconst_3", 0x06, 3},
		{"iconst_4", 0x07, 4},
		{"iconst_5", 0x08, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := []byte{tt.opcode, 0xAC} // iconst_N, ireturn
			got := executeAndGetInt(t, code)
			if got != tt.want {
				t.Errorf("%s: got %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}

func TestBipushSipush(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want int32
	}{
		{"bipush positive", []byte{0x10, 42, 0xAC}, 42},
		{"bipush negative", []byte{0x10, 0xFB, 0xAC}, -5},
		{"bipush min", []byte{0x10, 0x80, 0xAC}, -128},
		{"sipush 1000", []byte{0x11, 0x03, 0xE8, 0xAC}, 1000},
		{"sipush -1000", []byte{0x11, 0xFC, 0x18, 0xAC}, -1000},
		{"sipush max", []byte{0x11, 0x7F, 0xFF, 0xAC}, 32767},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := executeAndGetInt(t, tt.code); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestArithmeticInstructions(t *testing.T) {
	tests := []struct {
		name   string
		code   []byte
		locals []int32
		want   int32
	}{
		{
			name: "iadd: 3+4=7",
			code: []byte{0x06, 0x07, 0x60, 0xAC}, // iconst_3, iconst_4, iadd, ireturn
			want: 7,
		},
		{
			name: "isub: 5-3=2",
			code: []byte{0x08, 0x06, 0x64, 0xAC}, // iconst_5, iconst_3, isub, ireturn
			want: 2,
		},
		{
			name: "isub operand order: 3-5=-2",
			code: []byte{0x06, 0x08, 0x64, 0xAC},
			want: -2,
		},
		{
			name:   "iadd wraps: MaxInt32+1",
			code:   []byte{0x1A, 0x04, 0x60, 0xAC}, // iload_0, iconst_1, iadd, ireturn
			locals: []int32{math.MaxInt32},
			want:   math.MinInt32,
		},
		{
			name:   "isub wraps: MinInt32-1",
			code:   []byte{0x1A, 0x04, 0x64, 0xAC},
			locals: []int32{math.MinInt32},
			want:   math.MaxInt32,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := executeAndGetInt(t, tt.code, tt.locals...); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIinc(t *testing.T) {
	values := []int32{0, 1, -1, 127, -128, math.MaxInt32, math.MinInt32, math.MaxInt32 - 50}
	deltas := []int8{0, 1, -1, 127, -128, 100}

	// iinc は 32 ビットで折り返す
	for _, v := range values {
		for _, d := range deltas {
			code := []byte{0x84, 0x00, byte(d), 0x1A, 0xAC} // iinc 0 d, iload_0, ireturn
			got := executeAndGetInt(t, code, v)
			want := int32(uint32(int64(v) + int64(d)))
			if got != want {
				t.Errorf("iinc %d by %d: got %d, want %d", v, d, got, want)
			}
		}
	}
}

func TestIfIcmp(t *testing.T) {
	// 0: iload_0, 1: iload_1, 2: if_icmpXX +7, 5: iconst_0, 6: ireturn,
	// 7: nop, 8: nop, 9: iconst_1, 10: ireturn
	code := func(op byte) []byte {
		return []byte{0x1A, 0x1B, op, 0x00, 0x07, 0x03, 0xAC, 0x00, 0x00, 0x04, 0xAC}
	}
	pairs := [][2]int32{
		{1, 2}, {2, 1}, {3, 3}, {-1, 0}, {0, -1},
		{math.MinInt32, math.MaxInt32}, {math.MaxInt32, math.MinInt32},
	}

	for _, p := range pairs {
		taken := executeAndGetInt(t, code(0xA1), p[0], p[1]) == 1
		if taken != (p[0] < p[1]) {
			t.Errorf("if_icmplt %d, %d: taken=%v", p[0], p[1], taken)
		}
		taken = executeAndGetInt(t, code(0xA2), p[0], p[1]) == 1
		if taken != (p[0] >= p[1]) {
			t.Errorf("if_icmpge %d, %d: taken=%v", p[0], p[1], taken)
		}
	}
}

func TestBranchTarget(t *testing.T) {
	code := make([]byte, 20)
	code[10] = byte(OpIfIcmplt)
	code[11], code[12] = 0xFF, 0xFA // -6

	tests := []struct {
		name       string
		val1, val2 int32
		want       int
	}{
		{"taken", 1, 2, 4},
		{"not taken", 2, 1, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFrame(0, 2, code)
			f.PC = 10
			f.Push(native.IntValue(tt.val1))
			f.Push(native.IntValue(tt.val2))

			ins, err := decode(code, 10)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			in := NewInterpreter(nil, nil, DefaultOptions())
			next, _, done, err := in.execute(f, ins)
			if err != nil || done {
				t.Fatalf("execute: done=%v, %v", done, err)
			}
			if next != tt.want {
				t.Errorf("next pc: got %d, want %d", next, tt.want)
			}
		})
	}
}

func TestBranch(t *testing.T) {
	tests := []struct {
		name   string
		code   []byte
		locals []int32
		want   int32
	}{
		{
			// 0: iload_0, 1: ifeq +5, 4: iconst_2, 5: ireturn, 6: iconst_1, 7: ireturn
			name:   "ifeq taken",
			code:   []byte{0x1A, 0x99, 0x00, 0x05, 0x05, 0xAC, 0x04, 0xAC},
			locals: []int32{0},
			want:   1,
		},
		{
			name:   "ifeq not taken",
			code:   []byte{0x1A, 0x99, 0x00, 0x05, 0x05, 0xAC, 0x04, 0xAC},
			locals: []int32{7},
			want:   2,
		},
		{
			name:   "ifne taken",
			code:   []byte{0x1A, 0x9A, 0x00, 0x05, 0x05, 0xAC, 0x04, 0xAC},
			locals: []int32{-3},
			want:   1,
		},
		{
			// 0: goto +4, 3: nop, 4: iconst_3, 5: ireturn
			name: "goto forward",
			code: []byte{0xA7, 0x00, 0x04, 0x00, 0x06, 0xAC},
			want: 3,
		},
		{
			// sum 1..4: 0: iconst_0, 1: istore_1, 2: iinc 1 1, 5: iload_1,
			// 6: iload_0, 7: iadd, 8: istore_0, 9: iload_1, 10: iconst_4,
			// 11: if_icmplt -9, 14: iload_0, 15: ireturn
			name: "backward loop",
			code: []byte{
				0x03, 0x3C, 0x84, 0x01, 0x01, 0x1B, 0x1A, 0x60, 0x3B,
				0x1B, 0x07, 0xA1, 0xFF, 0xF7, 0x1A, 0xAC,
			},
			locals: []int32{0},
			want:   10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := executeAndGetInt(t, tt.code, tt.locals...); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStackOps(t *testing.T) {
	t.Run("dup", func(t *testing.T) {
		code := []byte{0x06, 0x59, 0x60, 0xAC} // iconst_3, dup, iadd, ireturn
		if got := executeAndGetInt(t, code); got != 6 {
			t.Errorf("got %d, want 6", got)
		}
	})

	t.Run("pop", func(t *testing.T) {
		code := []byte{0x04, 0x05, 0x57, 0xAC} // iconst_1, iconst_2, pop, ireturn
		if got := executeAndGetInt(t, code); got != 1 {
			t.Errorf("got %d, want 1", got)
		}
	})
}

func TestLocalVarInstructions(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want int32
	}{
		{"istore_0/iload_0", []byte{0x10, 10, 0x3B, 0x1A, 0xAC}, 10},
		{"istore_2/iload_2", []byte{0x10, 12, 0x3D, 0x1C, 0xAC}, 12},
		{"istore_3/iload_3", []byte{0x10, 13, 0x3E, 0x1D, 0xAC}, 13},
		{"istore 3/iload 3", []byte{0x10, 33, 0x36, 0x03, 0x15, 0x03, 0xAC}, 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := executeAndGetInt(t, tt.code); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}

	t.Run("astore/aload", func(t *testing.T) {
		var str uint16
		pool := testPool(t, func(b *classgen.Builder) { str = b.String("kept") })
		// ldc, astore_2, aload_2, astore 3, aload 3, areturn
		code := []byte{0x12, byte(str), 0x4D, 0x2C, 0x3A, 0x03, 0x19, 0x03, 0xB0}
		v, _, err := execute(t, pool, DefaultOptions(), code)
		if err != nil || v.Str != "kept" {
			t.Errorf("got %v, %v", v, err)
		}
	})

	t.Run("iload of a reference", func(t *testing.T) {
		err := executeErr(t, nil, []byte{0x1A, 0xAC}, native.StringValue("s"))
		var typeErr *OperandTypeError
		if !errors.As(err, &typeErr) || typeErr.Opcode != OpIload0 || typeErr.Got != native.KindString {
			t.Errorf("got %v, want OperandTypeError", err)
		}
	})

	t.Run("slot out of range", func(t *testing.T) {
		err := executeErr(t, nil, []byte{0x03, 0x36, 0x09, 0xB1}) // iconst_0, istore 9, return
		var localErr *LocalIndexError
		if !errors.As(err, &localErr) || localErr.Index != 9 {
			t.Errorf("got %v, want LocalIndexError", err)
		}
	})
}

func TestLdc(t *testing.T) {
	var str, class uint16
	pool := testPool(t, func(b *classgen.Builder) {
		str = b.String("hello")
		class = b.Class("java/lang/Object")
	})

	t.Run("string", func(t *testing.T) {
		for _, code := range [][]byte{
			{0x12, byte(str), 0xB0},
			{0x13, byte(str >> 8), byte(str), 0xB0},
		} {
			v, _, err := execute(t, pool, DefaultOptions(), code)
			if err != nil || v.Kind != native.KindString || v.Str != "hello" {
				t.Errorf("% X: got %v, %v", code, v, err)
			}
		}
	})

	t.Run("class entry", func(t *testing.T) {
		err := executeErr(t, pool, []byte{0x12, byte(class), 0xB0})
		var useErr *UnsupportedConstantUseError
		if !errors.As(err, &useErr) || useErr.Index != class || useErr.Kind != classfile.KindClass {
			t.Errorf("got %v, want UnsupportedConstantUseError", err)
		}
	})

	t.Run("index zero", func(t *testing.T) {
		err := executeErr(t, pool, []byte{0x12, 0x00, 0xB0})
		var unresolved *classfile.UnresolvedConstantError
		if !errors.As(err, &unresolved) || unresolved.Index != 0 {
			t.Errorf("got %v, want UnresolvedConstantError", err)
		}
	})
}

func TestInvokestatic(t *testing.T) {
	var toString uint16
	pool := testPool(t, func(b *classgen.Builder) {
		toString = b.Methodref("java/lang/Integer", "toString", "(I)Ljava/lang/String;")
	})
	// bipush -7, invokestatic Integer.toString, areturn
	code := []byte{0x10, 0xF9, 0xB8, byte(toString >> 8), byte(toString), 0xB0}
	v, _, err := execute(t, pool, DefaultOptions(), code)
	if err != nil || v.Str != "-7" {
		t.Errorf("got %v, %v", v, err)
	}
}

func TestReceiverMismatch(t *testing.T) {
	var out, str, appendRef uint16
	pool := testPool(t, func(b *classgen.Builder) {
		out = b.Fieldref("java/lang/System", "out", "Ljava/io/PrintStream;")
		str = b.String("x")
		appendRef = b.Methodref("java/lang/StringBuilder", "append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;")
	})
	// getstatic System.out, ldc "x", invokevirtual StringBuilder.append
	code := []byte{
		0xB2, byte(out >> 8), byte(out),
		0x12, byte(str),
		0xB6, byte(appendRef >> 8), byte(appendRef),
		0xB1,
	}
	err := executeErr(t, pool, code)
	var recvErr *native.ReceiverError
	if !errors.As(err, &recvErr) {
		t.Errorf("got %v, want ReceiverError", err)
	}
}

func TestFaults(t *testing.T) {
	tests := []struct {
		name  string
		code  []byte
		pc    int
		check func(err error) bool
	}{
		{"unknown opcode", []byte{0x04, 0x01}, 1, func(err error) bool {
			var e *UnknownOpcodeError
			return errors.As(err, &e) && e.Opcode == 0x01 && e.PC == 1
		}},
		{"stack underflow", []byte{0x04, 0x60}, 1, func(err error) bool {
			var e *StackUnderflowError
			return errors.As(err, &e) && e.Need == 2 && e.Depth == 1
		}},
		{"pop on empty stack", []byte{0x57, 0xB1}, 0, func(err error) bool {
			var e *StackUnderflowError
			return errors.As(err, &e)
		}},
		{"truncated operands", []byte{0x03, 0x11, 0x00}, 1, func(err error) bool {
			var e *CodeOverrunError
			return errors.As(err, &e) && e.Opcode == OpSipush && e.Need == 2 && e.Have == 1
		}},
		{"falls off the end", []byte{0x03, 0x57}, 2, func(err error) bool {
			var e *CodeOverrunError
			return errors.As(err, &e) && e.PC == 2
		}},
		{"branch before code", []byte{0x00, 0xA7, 0xFF, 0xF0}, 1, func(err error) bool {
			var e *BranchTargetError
			return errors.As(err, &e) && e.Target == -15
		}},
		{"ireturn of void", []byte{0xAC}, 0, func(err error) bool {
			var e *StackUnderflowError
			return errors.As(err, &e)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := executeErr(t, nil, tt.code)
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
			var fault *Fault
			if !errors.As(err, &fault) || fault.PC != tt.pc || fault.Method != "Test.test:()V" {
				t.Errorf("got %v, want Fault at pc %d", err, tt.pc)
			}
		})
	}

	t.Run("iadd on a string", func(t *testing.T) {
		var str uint16
		pool := testPool(t, func(b *classgen.Builder) { str = b.String("s") })
		err := executeErr(t, pool, []byte{0x04, 0x12, byte(str), 0x60, 0xAC})
		var typeErr *OperandTypeError
		if !errors.As(err, &typeErr) || typeErr.Opcode != OpIadd || typeErr.Want != "int" {
			t.Errorf("got %v, want OperandTypeError", err)
		}
	})

	t.Run("max_stack", func(t *testing.T) {
		code := make([]byte, 0, 12)
		for i := 0; i < 11; i++ {
			code = append(code, 0x04)
		}
		err := executeErr(t, nil, append(code, 0xB1))
		var overflow *StackOverflowError
		if !errors.As(err, &overflow) || overflow.PC != 10 {
			t.Errorf("got %v, want StackOverflowError at pc 10", err)
		}
	})
}

func TestBudget(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"goto self", []byte{0xA7, 0x00, 0x00}},
		// 0: iconst_0, 1: iconst_1, 2: if_icmplt -2
		{"compare loop", []byte{0x03, 0x04, 0xA1, 0xFF, 0xFE}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MaxInstructions = 100
			_, in, err := execute(t, nil, opts, tt.code)
			var budget *BudgetExceededError
			if !errors.As(err, &budget) || budget.Limit != 100 {
				t.Fatalf("got %v, want BudgetExceededError", err)
			}
			if in.Executed() != 100 {
				t.Errorf("executed: got %d, want 100", in.Executed())
			}
		})
	}
}

func TestCancellation(t *testing.T) {
	registry, err := native.NewRegistry(&native.LineRecorder{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	opts := DefaultOptions()
	opts.MaxInstructions = 0
	opts.CheckInterval = 16
	in := NewInterpreter(registry, nil, opts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = in.Exec(ctx, NewFrame(0, 1, []byte{0xA7, 0x00, 0x00}))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestDisassemble(t *testing.T) {
	var out, str, printlnRef uint16
	pool := testPool(t, func(b *classgen.Builder) {
		out = b.Fieldref("java/lang/System", "out", "Ljava/io/PrintStream;")
		str = b.String("hi")
		printlnRef = b.Methodref("java/io/PrintStream", "println", "(Ljava/lang/String;)V")
	})
	code := []byte{
		0xB2, byte(out >> 8), byte(out),
		0x12, byte(str),
		0xB6, byte(printlnRef >> 8), byte(printlnRef),
		0x84, 0x01, 0xFF,
		0xA7, 0xFF, 0xF5,
	}

	lines, err := Disassemble(code, pool)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	want := []string{
		"   0: getstatic #" + strconv.Itoa(int(out)) + " // java/lang/System.out:Ljava/io/PrintStream;",
		"   3: ldc #" + strconv.Itoa(int(str)) + ` // "hi"`,
		"   5: invokevirtual #" + strconv.Itoa(int(printlnRef)) + " // java/io/PrintStream.println:(Ljava/lang/String;)V",
		"   8: iinc 1 -1",
		"  11: goto 0",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}

	if _, err := Disassemble([]byte{0x04, 0xFE}, pool); err == nil {
		t.Error("Disassemble of an unknown opcode succeeded")
	}
}
