// nanojvm runs a method of a compiled class against the built-in class
// library.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/daimatz/nanojvm/pkg/classfile"
	"github.com/daimatz/nanojvm/pkg/config"
	"github.com/daimatz/nanojvm/pkg/native"
	"github.com/daimatz/nanojvm/pkg/vm"
)

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	entry := flag.String("m", "main", "Entry method name")
	descriptor := flag.String("descriptor", "", "Entry method descriptor (default: first method named -m)")
	classPath := flag.String("cp", ".", "Class path for class names: directories and .jar files")
	verbosity := flag.Int("v", 0, "Log verbosity (-1 quiet .. 2 debug)")
	logPath := flag.String("log", "", "Log file (default stderr)")
	maxInstructions := flag.Int64("max-instructions", -1, "Instruction budget, 0 for none (default from config)")
	dump := flag.String("dump", "", "Write a CBOR snapshot of the parsed class to this file and exit")
	disasm := flag.Bool("disasm", false, "Print the entry method's bytecode and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nanojvm [options] <file.class | class/Name>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  nanojvm Hello.class               # Run Hello.main\n")
		fmt.Fprintf(os.Stderr, "  nanojvm -cp lib.jar demo/Hello    # Load demo/Hello from a jar\n")
		fmt.Fprintf(os.Stderr, "  nanojvm -disasm Hello.class       # Show main's bytecode\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Log.Verbosity = *verbosity
		case "log":
			cfg.Log.Path = *logPath
		case "max-instructions":
			cfg.Interpreter.MaxInstructions = *maxInstructions
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	var path *string
	if cfg.Log.Path != "" {
		path = &cfg.Log.Path
	}
	commonlog.Configure(cfg.Log.Verbosity, path)

	cf, err := loadClass(flag.Arg(0), *classPath, cfg.ClassOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *dump != "":
		err = writeSnapshot(cf, *dump)
	case *disasm:
		err = printDisassembly(cf, *entry, *descriptor)
	default:
		err = run(cf, cfg, *entry, *descriptor)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadClass parses arg as a file path when it ends in .class, and otherwise
// looks it up on the class path.
func loadClass(arg, classPath string, opts classfile.Options) (*classfile.ClassFile, error) {
	if strings.HasSuffix(arg, ".class") {
		return classfile.ParseFile(arg, opts)
	}
	cp := vm.NewClassPath(vm.ParseClassPath(classPath), opts)
	return cp.Load(strings.ReplaceAll(arg, ".", "/"))
}

func run(cf *classfile.ClassFile, cfg *config.Config, entry, descriptor string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := cfg.VMOptions()
	opts.Sink = native.WriterSink{W: os.Stdout}
	_, err := vm.NewVM(opts).RunMethod(ctx, cf, entry, descriptor, nil)
	return err
}

func writeSnapshot(cf *classfile.ClassFile, path string) error {
	data, err := classfile.EncodeSnapshot(classfile.NewSnapshot(cf))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printDisassembly(cf *classfile.ClassFile, entry, descriptor string) error {
	method := cf.FindMethodByName(entry)
	if descriptor != "" {
		method = cf.FindMethod(entry, descriptor)
	}
	if method == nil {
		return fmt.Errorf("method %s%s not found", entry, descriptor)
	}
	code := method.Code()
	if code == nil {
		return fmt.Errorf("method %s has no Code attribute", method)
	}

	fmt.Printf("%s (max_stack=%d, max_locals=%d)\n", method, code.MaxStack, code.MaxLocals)
	lines, err := vm.Disassemble(code.Code, cf.ConstantPool)
	for _, line := range lines {
		fmt.Println(line)
	}
	return err
}
