// Package script runs Lua checks against the state of a finished program.
//
// The script sees these globals:
//
//	reg(i)            value of register i
//	buf(i)            word i of the data buffer
//	buf(x, y)         word at framebuffer pixel (x, y)
//	pc()              next instruction index
//	steps()           instructions executed
//	len()             program length
//	expect(cond, msg) records msg as a failure when cond is false
package script

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"blask/pkg/cpu"
	"blask/pkg/grid"
)

// ExpectationError lists every failed expect call in order.
type ExpectationError struct {
	Messages []string
}

func (e *ExpectationError) Error() string {
	return "script: expectation failed: " + strings.Join(e.Messages, "; ")
}

type checker struct {
	cpu      *cpu.CPU
	failures []string
}

func newState(c *cpu.CPU) (*lua.LState, *checker) {
	ch := &checker{cpu: c}
	L := lua.NewState()
	L.SetGlobal("reg", L.NewFunction(ch.reg))
	L.SetGlobal("buf", L.NewFunction(ch.buf))
	L.SetGlobal("pc", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(c.PC))
		return 1
	}))
	L.SetGlobal("steps", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(c.Steps()))
		return 1
	}))
	L.SetGlobal("len", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(c.Len()))
		return 1
	}))
	L.SetGlobal("expect", L.NewFunction(ch.expect))
	return L, ch
}

func (ch *checker) reg(L *lua.LState) int {
	r, err := cpu.NewReg(L.CheckInt(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	L.Push(lua.LNumber(ch.cpu.Reg(r)))
	return 1
}

// buf(i) reads word i; buf(x, y) reads the word at framebuffer pixel (x, y).
func (ch *checker) buf(L *lua.LState) int {
	i := L.CheckInt(1)
	if L.GetTop() >= 2 {
		x, y := i, L.CheckInt(2)
		if x < 0 || x >= cpu.BufferWidth || y < 0 || y >= cpu.BufferHeight {
			L.ArgError(1, fmt.Sprintf("pixel (%d, %d) out of range", x, y))
			return 0
		}
		i = grid.Index(x, y, cpu.BufferWidth)
	}
	if i < 0 || i >= cpu.BufferSize {
		L.ArgError(1, fmt.Sprintf("buffer index %d out of range", i))
		return 0
	}
	L.Push(lua.LNumber(ch.cpu.Buf[i]))
	return 1
}

func (ch *checker) expect(L *lua.LState) int {
	if !L.ToBool(1) {
		msg := L.OptString(2, "expect failed")
		if where := strings.TrimSpace(L.Where(1)); where != "" {
			msg = where + " " + msg
		}
		ch.failures = append(ch.failures, msg)
	}
	return 0
}

func (ch *checker) result() error {
	if len(ch.failures) == 0 {
		return nil
	}
	return &ExpectationError{Messages: ch.failures}
}

// Run executes src against c. Lua errors are returned as is; failed
// expectations are collected into an *ExpectationError.
func Run(c *cpu.CPU, src string) error {
	L, ch := newState(c)
	defer L.Close()
	if err := L.DoString(src); err != nil {
		return err
	}
	return ch.result()
}

// RunFile is Run with the script read from path.
func RunFile(c *cpu.CPU, path string) error {
	L, ch := newState(c)
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return err
	}
	return ch.result()
}
