package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"blask/pkg/isa"
)

// snapshotState is the JSON part of a hibernation archive.
type snapshotState struct {
	Regs     [NumRegs]uint16 `json:"regs"`
	PC       int             `json:"pc"`
	Halted   bool            `json:"halted"`
	Steps    uint64          `json:"steps"`
	MaxSteps int             `json:"max_steps"`
	Branches bool            `json:"branches"`
}

const (
	stateEntry   = "state.json"
	bufferEntry  = "buffer.bin"
	programEntry = "program.bin"
)

// HibernateToBytes serialises the machine into an in-memory ZIP archive:
// state.json, buffer.bin (LE words) and program.bin (LE instruction words).
func (c *CPU) HibernateToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := c.Hibernate(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *CPU) Hibernate(w io.Writer) error {
	zw := zip.NewWriter(w)

	state := snapshotState{
		Regs:     c.Regs,
		PC:       c.PC,
		Halted:   c.Halted,
		Steps:    c.steps,
		MaxSteps: c.config.MaxSteps,
		Branches: c.config.Branches,
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := writeZipEntry(zw, stateEntry, jsonData); err != nil {
		return err
	}
	if err := writeZipEntry(zw, bufferEntry, uint16SliceToLE(c.Buf[:])); err != nil {
		return err
	}
	if err := writeZipEntry(zw, programEntry, isa.EncodeProgram(c.Program)); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

// RestoreFromBytes rebuilds a machine from an archive produced by
// HibernateToBytes.
func RestoreFromBytes(data []byte) (*CPU, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, stateEntry)
	if err != nil {
		return nil, err
	}
	var state snapshotState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}

	raw, err := readZipEntry(fileMap, programEntry)
	if err != nil {
		return nil, err
	}
	prog, err := isa.DecodeProgram(raw)
	if err != nil {
		return nil, fmt.Errorf("restore program: %w", err)
	}

	c := NewCPUWithConfig(prog, Config{MaxSteps: state.MaxSteps, Branches: state.Branches})
	c.Regs = state.Regs
	c.PC = state.PC
	c.Halted = state.Halted
	c.steps = state.Steps

	if raw, err := readZipEntry(fileMap, bufferEntry); err == nil {
		leToUint16Slice(raw, c.Buf[:])
	}
	return c, nil
}

// Restore reads a whole archive from r.
func Restore(r io.Reader) (*CPU, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return RestoreFromBytes(data)
}

// HibernateToFile writes the hibernation archive to the given file path.
func (c *CPU) HibernateToFile(path string) error {
	data, err := c.HibernateToBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RestoreFromFile reads a hibernation archive from the given file path.
func RestoreFromFile(path string) (*CPU, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return RestoreFromBytes(data)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func uint16SliceToLE(src []uint16) []byte {
	out := make([]byte, len(src)*2)
	for i, v := range src {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func leToUint16Slice(src []byte, dst []uint16) {
	for i := range dst {
		if i*2+1 < len(src) {
			dst[i] = binary.LittleEndian.Uint16(src[i*2:])
		}
	}
}
