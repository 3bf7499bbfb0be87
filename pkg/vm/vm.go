// Package vm runs methods of a parsed class file against the native class
// library.
package vm

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/daimatz/nanojvm/pkg/classfile"
	"github.com/daimatz/nanojvm/pkg/native"
)

// Options configures a VM.
type Options struct {
	// Class configures parsing for Execute and ExecuteFile.
	Class classfile.Options
	// MaxInstructions bounds the instructions of one run; 0 disables it.
	MaxInstructions int64
	// CheckInterval is how many instructions run between context checks.
	CheckInterval int
	// Sink receives lines printed through System.out.
	Sink native.LineWriter
}

// DefaultOptions returns options printing to standard output.
func DefaultOptions() Options {
	return Options{
		Class:           classfile.DefaultOptions(),
		MaxInstructions: DefaultMaxInstructions,
		CheckInterval:   DefaultCheckInterval,
		Sink:            native.WriterSink{W: os.Stdout},
	}
}

// RunStats describes a finished run.
type RunStats struct {
	Instructions int64
	// Result is the entry method's return value, or native.Void.
	Result native.Value
}

// VM is the virtual machine that executes Java bytecode.
type VM struct {
	opts Options
}

// NewVM creates a VM. A nil Sink discards output.
func NewVM(opts Options) *VM {
	if opts.Sink == nil {
		opts.Sink = native.WriterSink{W: io.Discard}
	}
	return &VM{opts: opts}
}

// Execute parses a class file from r and runs its first method named entry.
func (vm *VM) Execute(ctx context.Context, r io.Reader, entry string, args []native.Value) (RunStats, error) {
	cf, err := classfile.ParseWithOptions(r, vm.opts.Class)
	if err != nil {
		return RunStats{}, err
	}
	return vm.Run(ctx, cf, entry, args)
}

// ExecuteFile is Execute for a class file on disk.
func (vm *VM) ExecuteFile(ctx context.Context, path, entry string, args []native.Value) (RunStats, error) {
	cf, err := classfile.ParseFile(path, vm.opts.Class)
	if err != nil {
		return RunStats{}, err
	}
	return vm.Run(ctx, cf, entry, args)
}

// Run executes the first method of cf named entry.
func (vm *VM) Run(ctx context.Context, cf *classfile.ClassFile, entry string, args []native.Value) (RunStats, error) {
	return vm.RunMethod(ctx, cf, entry, "", args)
}

// RunMethod executes the method of cf with the given name and descriptor,
// or the first method with that name if descriptor is empty. args seed the
// local variable slots from 0.
func (vm *VM) RunMethod(ctx context.Context, cf *classfile.ClassFile, name, descriptor string, args []native.Value) (RunStats, error) {
	className, err := cf.ClassName()
	if err != nil {
		return RunStats{}, err
	}

	var method *classfile.MethodInfo
	if descriptor == "" {
		method = cf.FindMethodByName(name)
	} else {
		method = cf.FindMethod(name, descriptor)
	}
	if method == nil {
		return RunStats{}, &native.MethodNotFoundError{Class: className, Name: name, Descriptor: descriptor}
	}
	desc, err := method.Descriptor()
	if err != nil {
		return RunStats{}, err
	}
	label := fmt.Sprintf("%s.%s:%s", className, name, desc)

	code := method.Code()
	if code == nil {
		return RunStats{}, &NoCodeError{Method: label}
	}

	registry, err := native.NewRegistry(vm.opts.Sink)
	if err != nil {
		return RunStats{}, err
	}

	maxLocals := code.MaxLocals
	if int(maxLocals) < len(args) {
		maxLocals = uint16(len(args))
	}
	frame := NewFrame(maxLocals, code.MaxStack, code.Code)
	frame.Method = label
	copy(frame.Locals, args)

	interp := NewInterpreter(registry, cf.ConstantPool, vm.opts)
	result, runErr := interp.Exec(ctx, frame)
	stats := RunStats{Instructions: interp.Executed(), Result: result}

	if err := registry.Flush(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		log.Errorf("%s aborted after %d instructions: %s", label, stats.Instructions, runErr)
		return stats, runErr
	}
	log.Infof("%s returned after %d instructions", label, stats.Instructions)
	return stats, nil
}
