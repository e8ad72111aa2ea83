// Package loader reads machine programs produced by the assembler
// front end: an ordered instruction list with labels already resolved
// into immediates, plus the initial register and memory images.
package loader

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sarchlab/tomsim/insts"
)

// Program is a loaded machine program ready for simulation.
type Program struct {
	Instructions []insts.Instruction
	Registers    map[string]int64
	Memory       map[uint64]int64
}

type programFile struct {
	Instructions []instructionEntry `json:"instructions"`
	Registers    map[string]int64   `json:"registers"`
	Memory       map[string]int64   `json:"memory"`
}

type instructionEntry struct {
	Op   string `json:"op"`
	Dest string `json:"dest,omitempty"`
	Src1 string `json:"src1,omitempty"`
	Src2 string `json:"src2,omitempty"`
	Imm  int64  `json:"imm,omitempty"`
}

// Load reads a program from a JSON file.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading program")
	}
	prog, err := Parse(data)
	return prog, errors.Wrapf(err, "loading %s", path)
}

// Parse decodes a program from JSON.
func Parse(data []byte) (*Program, error) {
	var file programFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parsing program")
	}

	prog := &Program{
		Instructions: make([]insts.Instruction, 0, len(file.Instructions)),
		Registers:    file.Registers,
		Memory:       make(map[uint64]int64, len(file.Memory)),
	}
	if prog.Registers == nil {
		prog.Registers = map[string]int64{}
	}

	for i, entry := range file.Instructions {
		op, ok := insts.ParseOpcode(entry.Op)
		if !ok {
			return nil, errors.Errorf("instruction %d: unknown opcode %q", i, entry.Op)
		}
		inst := insts.Instruction{
			ID:   i,
			Op:   op,
			Dest: entry.Dest,
			Src1: entry.Src1,
			Src2: entry.Src2,
			Imm:  entry.Imm,
		}
		if err := inst.Validate(); err != nil {
			return nil, err
		}
		prog.Instructions = append(prog.Instructions, inst)
	}

	for key, value := range file.Memory {
		addr, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "memory address %q", key)
		}
		prog.Memory[addr] = value
	}

	return prog, nil
}
