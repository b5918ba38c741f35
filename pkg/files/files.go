// Package files loads blask programs from disk, picking the decoder by file
// extension.
package files

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"blask/pkg/asm"
	"blask/pkg/isa"
)

const (
	ExtSource = ".blasm"
	ExtBinary = ".bin"
	ExtBits   = ".bits"
)

var ErrUnknownFormat = errors.New("files: unknown program format")

// Program is a loaded instruction sequence. Source and SourceMap are set
// only for assembly input.
type Program struct {
	Path         string
	Instructions []isa.Instruction
	Source       string
	SourceMap    map[uint16]int
}

// SourceError carries the text an assembly failure refers to so callers can
// render diagnostics.
type SourceError struct {
	Path   string
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// GetPathInfo resolves relPath to an absolute path and its directory.
func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}
	return fullPath, filepath.Dir(fullPath), nil
}

// LoadProgram reads path as assembly (.blasm), little-endian words (.bin) or
// base-2 text words (.bits).
func LoadProgram(path string) (*Program, error) {
	fullPath, _, err := GetPathInfo(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := &Program{Path: fullPath}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtSource:
		var data []byte
		if data, err = io.ReadAll(f); err != nil {
			break
		}
		p.Source = string(data)
		p.Instructions, p.SourceMap, err = asm.Assemble(p.Source)
		if err != nil {
			return nil, &SourceError{Path: path, Source: p.Source, Err: err}
		}
	case ExtBinary:
		p.Instructions, err = isa.ReadProgram(f)
	case ExtBits:
		p.Instructions, err = ReadBits(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ReadBits parses one base-2 word per line. Blank lines are skipped.
func ReadBits(r io.Reader) ([]isa.Instruction, error) {
	var prog []isa.Instruction
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		w, err := strconv.ParseUint(text, 2, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		inst, err := isa.Decode(uint32(w))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		prog = append(prog, inst)
	}
	return prog, sc.Err()
}

// WriteBits writes each word as 32 base-2 digits on its own line.
func WriteBits(w io.Writer, prog []isa.Instruction) error {
	for _, inst := range prog {
		if _, err := fmt.Fprintf(w, "%032b\n", inst.Word()); err != nil {
			return err
		}
	}
	return nil
}

// WriteBinary stores prog at path, as base-2 text when the extension is
// .bits and as little-endian words otherwise.
func WriteBinary(path string, prog []isa.Instruction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if strings.ToLower(filepath.Ext(path)) == ExtBits {
		err = WriteBits(f, prog)
	} else {
		err = isa.WriteProgram(f, prog)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// DefaultOutputPath swaps the input extension for .bin.
func DefaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ExtBinary
	}
	return strings.TrimSuffix(inPath, ext) + ExtBinary
}
