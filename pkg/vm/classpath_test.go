package vm

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/daimatz/nanojvm/internal/classgen"
	"github.com/daimatz/nanojvm/pkg/classfile"
	"github.com/daimatz/nanojvm/pkg/native"
)

func writeJar(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestClassPath(t *testing.T) {
	dir := t.TempDir()
	classDir := filepath.Join(dir, "classes")
	if err := os.MkdirAll(filepath.Join(classDir, "demo"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(classDir, "demo", "Hello.class"), classgen.New("demo/Hello").Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	jar := filepath.Join(dir, "lib.jar")
	writeJar(t, jar, map[string][]byte{
		"demo/Util.class":    classgen.New("demo/Util").Bytes(),
		"demo/Renamed.class": classgen.New("demo/Other").Bytes(),
	})

	cp := NewClassPath([]string{filepath.Join(dir, "missing"), classDir, jar}, classfile.DefaultOptions())

	t.Run("directory", func(t *testing.T) {
		cf, err := cp.Load("demo/Hello")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if name, _ := cf.ClassName(); name != "demo/Hello" {
			t.Errorf("class name: got %q", name)
		}
		again, _ := cp.Load("demo/Hello")
		if again != cf {
			t.Error("second Load did not return the cached class")
		}
	})

	t.Run("jar", func(t *testing.T) {
		cf, err := cp.Load("demo/Util")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if name, _ := cf.ClassName(); name != "demo/Util" {
			t.Errorf("class name: got %q", name)
		}
	})

	t.Run("name mismatch", func(t *testing.T) {
		if _, err := cp.Load("demo/Renamed"); err == nil {
			t.Error("Load of a class declaring another name succeeded")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := cp.Load("demo/Nowhere")
		var notFound *native.ClassNotFoundError
		if !errors.As(err, &notFound) || notFound.Name != "demo/Nowhere" {
			t.Errorf("got %v, want ClassNotFoundError", err)
		}
	})
}

func TestParseClassPath(t *testing.T) {
	sep := string(filepath.ListSeparator)
	got := ParseClassPath("a" + sep + sep + "b.jar")
	if len(got) != 2 || got[0] != "a" || got[1] != "b.jar" {
		t.Errorf("got %q", got)
	}
}
