// Package instr contains the UM instruction codec: decoding a 32-bit
// instruction word into an opcode and its operand fields.
//
// Instruction format
//
// Each instruction is 32 bits wide. Bit 31 is the most significant bit.
// The opcode occupies the top 4 bits (28-31). For the three-register
// opcodes (0-12) the remaining operand fields are:
//
//	<Opcode:4><Unused:19><A:3><B:3><C:3>
//
// For opcode 13 (load value) the fields are:
//
//	<Opcode:4><A:3><Literal:25>
//
// All field extractions are unsigned. Opcodes outside 0-13 decode but
// have no defined operation; the engine treats executing one as a fatal
// error.
package instr

import (
	"fmt"

	"github.com/mbryksin/umvm/pkg/word"
)

// The following constants define the fourteen UM opcodes.
const (
	OpcodeCMov = uint32(iota)
	OpcodeLoad
	OpcodeStore
	OpcodeAdd
	OpcodeMul
	OpcodeDiv
	OpcodeNand
	OpcodeHalt
	OpcodeMapSegment
	OpcodeUnmapSegment
	OpcodeOutput
	OpcodeInput
	OpcodeLoadProgram
	OpcodeLoadValue

	// NumOpcodes is the count of defined opcodes (0..13).
	NumOpcodes = OpcodeLoadValue + 1
)

// names gives a short mnemonic to each opcode, used by Disassemble and
// by fault reporting.
var names = [NumOpcodes]string{
	OpcodeCMov:         "cmov",
	OpcodeLoad:         "load",
	OpcodeStore:        "store",
	OpcodeAdd:          "add",
	OpcodeMul:          "mul",
	OpcodeDiv:          "div",
	OpcodeNand:         "nand",
	OpcodeHalt:         "halt",
	OpcodeMapSegment:   "map",
	OpcodeUnmapSegment: "unmap",
	OpcodeOutput:       "output",
	OpcodeInput:        "input",
	OpcodeLoadProgram:  "loadprogram",
	OpcodeLoadValue:    "loadvalue",
}

// Name returns the mnemonic for opcode, or "undefined" if opcode is
// outside 0..13.
func Name(opcode uint32) string {
	if opcode < NumOpcodes {
		return names[opcode]
	}
	return "undefined"
}

// DecodeOpcode extracts the 4-bit opcode from an instruction word.
func DecodeOpcode(w uint32) uint32 {
	return word.Bits(w, 28, 31)
}

// DecodeABC extracts the three 3-bit register fields used by the
// three-register instruction forms (opcodes 0-12).
func DecodeABC(w uint32) (a, b, c uint32) {
	return word.Bits(w, 6, 8), word.Bits(w, 3, 5), word.Bits(w, 0, 2)
}

// DecodeLoadValue extracts register A and the 25-bit literal used by
// the load-value instruction form (opcode 13).
func DecodeLoadValue(w uint32) (a, literal uint32) {
	return word.Bits(w, 25, 27), word.Bits(w, 0, 24)
}

// Disassemble renders a single instruction word as human-readable text.
// It is a pure function with no effect on execution; it exists only to
// back the optional -v trace flag in cmd/um.
func Disassemble(w uint32) string {
	opcode := DecodeOpcode(w)
	if opcode == OpcodeLoadValue {
		a, lit := DecodeLoadValue(w)
		return fmt.Sprintf("loadvalue r%d %d", a, lit)
	}
	if opcode >= NumOpcodes {
		return fmt.Sprintf("undefined 0x%08x", w)
	}
	a, b, c := DecodeABC(w)
	return fmt.Sprintf("%s r%d r%d r%d", Name(opcode), a, b, c)
}
