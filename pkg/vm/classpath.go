package vm

import (
	"archive/zip"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/daimatz/nanojvm/pkg/classfile"
	"github.com/daimatz/nanojvm/pkg/native"
)

// ClassPath finds class files by internal name in a list of directories and
// .jar archives, searched in order. Parsed classes are cached.
type ClassPath struct {
	Entries []string
	opts    classfile.Options
	cache   map[string]*classfile.ClassFile
}

// NewClassPath creates a class path over entries.
func NewClassPath(entries []string, opts classfile.Options) *ClassPath {
	return &ClassPath{
		Entries: entries,
		opts:    opts,
		cache:   make(map[string]*classfile.ClassFile),
	}
}

// ParseClassPath splits a list joined with the OS path list separator.
func ParseClassPath(s string) []string {
	var entries []string
	for _, e := range filepath.SplitList(s) {
		if e != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

// Load returns the class named name, such as "demo/Hello". A class missing
// from every entry is a native.ClassNotFoundError.
func (cp *ClassPath) Load(name string) (*classfile.ClassFile, error) {
	if cf, ok := cp.cache[name]; ok {
		return cf, nil
	}
	for _, entry := range cp.Entries {
		var cf *classfile.ClassFile
		var err error
		if strings.HasSuffix(entry, ".jar") {
			cf, err = cp.loadFromJar(entry, name)
		} else {
			cf, err = cp.loadFromDir(entry, name)
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if got, err := cf.ClassName(); err != nil || got != name {
			return nil, fmt.Errorf("classpath: %s in %s declares class %q", name, entry, got)
		}
		cp.cache[name] = cf
		return cf, nil
	}
	return nil, &native.ClassNotFoundError{Name: name}
}

func (cp *ClassPath) loadFromDir(dir, name string) (*classfile.ClassFile, error) {
	path := filepath.Join(dir, filepath.FromSlash(name)+".class")
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	cf, err := classfile.ParseFile(path, cp.opts)
	if err != nil {
		return nil, fmt.Errorf("classpath: parsing %s: %w", path, err)
	}
	return cf, nil
}

func (cp *ClassPath) loadFromJar(jar, name string) (*classfile.ClassFile, error) {
	zr, err := zip.OpenReader(jar)
	if err != nil {
		return nil, fmt.Errorf("classpath: opening %s: %w", jar, err)
	}
	defer zr.Close()

	rc, err := zr.Open(name + ".class")
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	cf, err := classfile.ParseWithOptions(rc, cp.opts)
	if err != nil {
		return nil, fmt.Errorf("classpath: parsing %s!%s.class: %w", jar, name, err)
	}
	return cf, nil
}
