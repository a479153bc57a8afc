// Package vm implements the UM execution engine: the register file,
// program counter, halted flag, and segment store, and the
// fetch-decode-dispatch loop that drives them.
package vm

import (
	"errors"
	"fmt"
	"io"

	"github.com/mbryksin/umvm/pkg/instr"
	"github.com/mbryksin/umvm/pkg/segstore"
	"github.com/mbryksin/umvm/pkg/word"
)

// NumRegisters is the number of general-purpose registers.
const NumRegisters = 8

// Fault describes a fatal precondition violation. Run stops and returns
// it to the caller (cmd/um then exits the process); it is not
// recoverable by the guest program.
type Fault struct {
	// Op is the mnemonic of the instruction that faulted.
	Op string
	// PC is the program counter at the instruction that faulted.
	PC uint32
	// Err is the underlying cause.
	Err error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("vm: fault at pc=%d executing %s: %s", f.PC, f.Op, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// The following sentinel errors classify the fatal conditions the
// engine can raise; they are wrapped in a Fault by the dispatch loop.
var (
	// ErrDivideByZero indicates a divide instruction with a zero divisor.
	ErrDivideByZero = errors.New("vm: division by zero")
	// ErrOutputRange indicates an output value greater than 255.
	ErrOutputRange = errors.New("vm: output value exceeds 255")
	// ErrUndefinedOpcode indicates an opcode outside 0..13.
	ErrUndefinedOpcode = errors.New("vm: undefined opcode")
)

// Engine owns the register file, program counter, halted flag, and
// segment store for one execution. Nothing here is package-level state,
// so multiple Engines may coexist in one process without interference.
type Engine struct {
	regs    [NumRegisters]uint32
	pc      uint32
	halted  bool
	store   *segstore.Store
	progLen uint32

	in     io.Reader
	out    io.Writer
	trace  func(pc, w uint32)
	input1 [1]byte
}

// Option configures an Engine constructed by New.
type Option func(*Engine)

// WithTrace installs a callback invoked with the program counter and
// raw instruction word immediately before that instruction executes.
// It exists solely to back cmd/um's optional -v flag; it has no effect
// on execution semantics.
func WithTrace(fn func(pc, w uint32)) Option {
	return func(e *Engine) { e.trace = fn }
}

// New constructs an engine ready to run program, reading input opcodes
// from in and writing output opcodes to out.
func New(program []uint32, in io.Reader, out io.Writer, opts ...Option) *Engine {
	e := &Engine{
		store:   segstore.New(program),
		progLen: uint32(len(program)),
		in:      in,
		out:     out,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run drives the fetch-decode-dispatch loop until the halted flag is
// set or the program counter reaches the end of segment 0. It returns
// nil on either form of normal termination, and a *Fault on any fatal
// precondition violation.
func (e *Engine) Run() error {
	for !e.halted && e.pc < e.progLen {
		w, err := e.store.Get(0, e.pc)
		if err != nil {
			// Segment 0 is never tombstoned and pc < progLen is the loop
			// guard, so this can only happen if progLen and segment 0's
			// length have been allowed to diverge; treat it as the same
			// class of fatal error as any other segmented access fault.
			return &Fault{Op: "fetch", PC: e.pc, Err: err}
		}
		fetchPC := e.pc
		e.pc++
		if e.trace != nil {
			e.trace(fetchPC, w)
		}
		if err := e.dispatch(fetchPC, w); err != nil {
			if errors.Is(err, errHalt) {
				e.halted = true
				break
			}
			return err
		}
	}
	return nil
}

// errHalt unwinds the halt opcode through dispatch without treating it
// as a fault.
var errHalt = errors.New("vm: halt")

// dispatch decodes w and applies the corresponding operation. Opcodes
// outside 0..13 are fatal, realized here as a dense table indexed by
// the 4-bit opcode rather than a switch.
func (e *Engine) dispatch(pc, w uint32) error {
	opcode := instr.DecodeOpcode(w)
	if opcode >= instr.NumOpcodes {
		return &Fault{Op: "undefined", PC: pc, Err: ErrUndefinedOpcode}
	}
	if opcode == instr.OpcodeLoadValue {
		a, lit := instr.DecodeLoadValue(w)
		e.regs[a] = lit
		return nil
	}
	a, b, c := instr.DecodeABC(w)
	if err := opTable[opcode](e, a, b, c); err != nil {
		if err == errHalt {
			return errHalt
		}
		return &Fault{Op: instr.Name(opcode), PC: pc, Err: err}
	}
	return nil
}

// opFunc is the shape of every three-register operation's implementation.
type opFunc func(e *Engine, a, b, c uint32) error

var opTable = [instr.NumOpcodes]opFunc{
	instr.OpcodeCMov:         opCMov,
	instr.OpcodeLoad:         opLoad,
	instr.OpcodeStore:        opStore,
	instr.OpcodeAdd:          opAdd,
	instr.OpcodeMul:          opMul,
	instr.OpcodeDiv:          opDiv,
	instr.OpcodeNand:         opNand,
	instr.OpcodeHalt:         opHalt,
	instr.OpcodeMapSegment:   opMapSegment,
	instr.OpcodeUnmapSegment: opUnmapSegment,
	instr.OpcodeOutput:       opOutput,
	instr.OpcodeInput:        opInput,
	instr.OpcodeLoadProgram:  opLoadProgram,
}

func opCMov(e *Engine, a, b, c uint32) error {
	if e.regs[c] != 0 {
		e.regs[a] = e.regs[b]
	}
	return nil
}

func opLoad(e *Engine, a, b, c uint32) error {
	v, err := e.store.Get(e.regs[b], e.regs[c])
	if err != nil {
		return err
	}
	e.regs[a] = v
	return nil
}

func opStore(e *Engine, a, b, c uint32) error {
	return e.store.Set(e.regs[a], e.regs[b], e.regs[c])
}

func opAdd(e *Engine, a, b, c uint32) error {
	e.regs[a] = word.Add(e.regs[b], e.regs[c])
	return nil
}

func opMul(e *Engine, a, b, c uint32) error {
	e.regs[a] = word.Mul(e.regs[b], e.regs[c])
	return nil
}

func opDiv(e *Engine, a, b, c uint32) error {
	if e.regs[c] == 0 {
		return ErrDivideByZero
	}
	e.regs[a] = word.Div(e.regs[b], e.regs[c])
	return nil
}

func opNand(e *Engine, a, b, c uint32) error {
	e.regs[a] = word.Nand(e.regs[b], e.regs[c])
	return nil
}

func opHalt(e *Engine, a, b, c uint32) error {
	return errHalt
}

func opMapSegment(e *Engine, a, b, c uint32) error {
	e.regs[b] = e.store.Map(e.regs[c])
	return nil
}

func opUnmapSegment(e *Engine, a, b, c uint32) error {
	return e.store.Unmap(e.regs[c])
}

func opOutput(e *Engine, a, b, c uint32) error {
	v := e.regs[c]
	if v > 255 {
		return ErrOutputRange
	}
	_, err := e.out.Write([]byte{byte(v)})
	return err
}

func opInput(e *Engine, a, b, c uint32) error {
	n, err := e.in.Read(e.input1[:])
	if err == io.EOF || n == 0 {
		e.regs[c] = 0xFFFFFFFF
		return nil
	}
	if err != nil {
		return err
	}
	e.regs[c] = uint32(e.input1[0])
	return nil
}

func opLoadProgram(e *Engine, a, b, c uint32) error {
	if e.regs[b] != 0 {
		length, err := e.store.DuplicateToZero(e.regs[b])
		if err != nil {
			return err
		}
		e.progLen = length
	}
	e.pc = e.regs[c]
	return nil
}
