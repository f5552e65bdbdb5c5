// Package cpu implements the 6502 CPU emulation for the NES.
//
// The core is the 2A03 variant: decimal mode only toggles the D flag and
// ADC/SBC stay binary. Execution is driven from outside one instruction
// (Step) or one clock cycle (Tick) at a time; interrupt lines are plain state
// polled at instruction boundaries.
package cpu

import (
	"io"
	"log"
)

// CPU constants
const (
	// Stack base address
	stackBase = 0x0100
	// Status register bit masks
	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01
	// Zero page mask
	zeroPageMask = 0xFF
	// Page boundary mask
	pageMask = 0xFF00
	// Interrupt vectors
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE

	// Stack pointer after the reset sequence
	resetStackPointer = 0xFD
	// Cycles taken by the reset and interrupt entry sequences
	resetCycles     = 7
	interruptCycles = 7
)

// NMIVector, ResetVector and IRQVector are the addresses of the little-endian
// vectors the CPU loads PC from.
const (
	NMIVector   uint16 = nmiVector
	ResetVector uint16 = resetVector
	IRQVector   uint16 = irqVector
)

// State is the execution phase of the CPU as observed between bus accesses.
type State uint8

const (
	Fetching State = iota
	Decoding
	Executing
	InterruptEntry
	Halted
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "Fetching"
	case Decoding:
		return "Decoding"
	case Executing:
		return "Executing"
	case InterruptEntry:
		return "InterruptEntry"
	case Halted:
		return "Halted"
	}
	return "Unknown"
}

// IRQSource identifies one device holding the shared IRQ line. The line is
// active while any source holds it.
type IRQSource uint8

const (
	IRQExternal IRQSource = 1 << iota
	IRQFrameCounter
	IRQDMC
	IRQMapper
)

// MemoryInterface defines the interface for CPU memory access
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// WrapReader is implemented by memories that can fetch a pointer without
// carrying into the high byte. The CPU uses it for zero-page and JMP
// indirect pointers when available.
type WrapReader interface {
	Read16Wrap(address uint16) uint16
}

// InterruptSink is the capability peripherals use to signal the CPU.
type InterruptSink interface {
	SetNMI(active bool)
	SetIRQ(source IRQSource, active bool)
}

// CPU represents the 6502 processor used in the NES
type CPU struct {
	// Registers
	A  uint8  // Accumulator
	X  uint8  // X register
	Y  uint8  // Y register
	SP uint8  // Stack pointer
	PC uint16 // Program counter

	// Status register flags. Break and Unused have no storage; they only
	// exist in copies of the status pushed to the stack.
	C bool // Carry
	Z bool // Zero
	I bool // Interrupt disable
	D bool // Decimal mode (flag only on the 2A03)
	V bool // Overflow
	N bool // Negative

	memory MemoryInterface

	cycles uint64
	// cycles still to burn for the instruction started by Tick
	remaining uint64

	state  State
	halted bool

	// Interrupt lines
	resetPending bool
	nmiLine      bool
	nmiPending   bool
	irqLines     IRQSource
	irqPending   bool

	// CLI, SEI and PLP change I one instruction late as far as IRQ polling
	// is concerned; iDelayed holds the value polling should see instead.
	iDelay   bool
	iDelayed bool

	logger *log.Logger

	// Debug and loop detection fields
	enableDebugLogging  bool
	enableLoopDetection bool
	lastPC              uint16
	pcStayCount         int
}

// New creates a new CPU in its power-up state. The RESET line starts
// asserted, so the first Step performs the reset sequence unless the driver
// calls Reset first.
func New(memory MemoryInterface) *CPU {
	return &CPU{
		memory:       memory,
		SP:           0x00,
		I:            true,
		state:        InterruptEntry,
		resetPending: true,
		logger:       log.New(io.Discard, "", 0),
	}
}

// SetLogger sets the logger used for debug output.
func (cpu *CPU) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	cpu.logger = logger
}

// Reset performs the 6502 reset sequence immediately. It takes 7 cycles: two
// dummy reads at PC, three suppressed stack pushes that appear on the bus as
// reads, and the two vector reads. A, X, Y and the flags other than I are
// left as they were.
func (cpu *CPU) Reset() {
	cpu.state = InterruptEntry

	cpu.read(cpu.PC)
	cpu.read(cpu.PC)
	for i := 0; i < 3; i++ {
		cpu.read(stackBase + uint16(cpu.SP))
		cpu.SP--
	}
	cpu.SP = resetStackPointer
	cpu.I = true
	cpu.PC = cpu.readWord(resetVector)

	cpu.cycles += resetCycles
	cpu.remaining = 0
	cpu.resetPending = false
	cpu.nmiPending = false
	cpu.irqPending = false
	cpu.iDelay = false
	cpu.halted = false
	cpu.state = Fetching
}

// AssertReset raises the RESET line; the next Step performs the reset
// sequence regardless of any other pending interrupt or a halted CPU.
func (cpu *CPU) AssertReset() {
	cpu.resetPending = true
}

// Step executes a single CPU instruction, or an interrupt entry sequence when
// one is pending, and returns the cycles taken. If Tick is part way through
// an instruction, Step only finishes it and returns the cycles left.
func (cpu *CPU) Step() uint64 {
	if cpu.remaining > 0 {
		rest := cpu.remaining
		cpu.remaining = 0
		return rest
	}

	if cpu.resetPending {
		cpu.Reset()
		return resetCycles
	}

	if cpu.halted {
		// the clock keeps running while the processor is jammed
		cpu.cycles++
		return 1
	}

	irqMasked := cpu.I
	if cpu.iDelay {
		irqMasked = cpu.iDelayed
		cpu.iDelay = false
	}

	if cpu.nmiPending {
		cpu.nmiPending = false
		cpu.interrupt(nmiVector)
		return interruptCycles
	}
	if cpu.irqActive() && !irqMasked {
		cpu.irqPending = false
		cpu.interrupt(irqVector)
		return interruptCycles
	}

	currentPC := cpu.PC
	cpu.state = Fetching
	opcode := cpu.read(cpu.PC)
	cpu.state = Decoding
	instruction := &instructionTable[opcode]

	if cpu.enableLoopDetection {
		cpu.detectInfiniteLoop(currentPC, opcode)
	}
	if cpu.enableDebugLogging {
		cpu.logInstruction(currentPC, opcode, instruction)
	}

	cpu.PC++
	cpu.state = Executing
	address, pageCrossed := cpu.operandAddress(instruction)
	extraCycles := cpu.execute(instruction, address, pageCrossed)
	if pageCrossed && instruction.Penalty == PageCrossPenalty {
		extraCycles++
	}

	if !cpu.halted {
		cpu.state = Fetching
	}

	totalCycles := uint64(instruction.Cycles) + uint64(extraCycles)
	cpu.cycles += totalCycles
	return totalCycles
}

// Tick advances the CPU by one clock cycle and reports whether an
// instruction or interrupt sequence completed on it. The instruction's bus
// activity happens on its first cycle; the rest of its cycles are idle.
func (cpu *CPU) Tick() bool {
	if cpu.remaining == 0 {
		cpu.remaining = cpu.Step()
	}
	cpu.remaining--
	return cpu.remaining == 0
}

// Busy reports whether Tick is part way through an instruction.
func (cpu *CPU) Busy() bool {
	return cpu.remaining > 0
}

// State returns the current execution phase. Between calls to Step it is
// Halted, InterruptEntry when an interrupt will be taken next, or Fetching;
// register hooks called during Step see Fetching, Decoding or Executing.
func (cpu *CPU) State() State {
	switch {
	case cpu.resetPending:
		return InterruptEntry
	case cpu.halted:
		return Halted
	case cpu.remaining > 0:
		return Executing
	case cpu.state != Fetching:
		return cpu.state
	case cpu.nmiPending:
		return InterruptEntry
	case cpu.irqActive() && !cpu.irqMaskForPoll():
		return InterruptEntry
	}
	return Fetching
}

// Halted reports whether a JAM opcode has locked up the processor. Only a
// RESET recovers it.
func (cpu *CPU) Halted() bool {
	return cpu.halted
}

// Cycles returns the number of cycles consumed since power-up.
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// SetCycles overrides the cycle counter, for matching reference logs.
func (cpu *CPU) SetCycles(cycles uint64) {
	cpu.cycles = cycles
}

func (cpu *CPU) irqActive() bool {
	return cpu.irqLines != 0 || cpu.irqPending
}

func (cpu *CPU) irqMaskForPoll() bool {
	if cpu.iDelay {
		return cpu.iDelayed
	}
	return cpu.I
}

// interrupt performs the NMI/IRQ entry sequence: push PC and status with
// Break clear, set I, load PC from the vector.
func (cpu *CPU) interrupt(vector uint16) {
	cpu.state = InterruptEntry
	// two dummy reads of the next opcode byte
	cpu.read(cpu.PC)
	cpu.read(cpu.PC)
	cpu.pushWord(cpu.PC)
	cpu.push((cpu.GetStatusByte() &^ bFlagMask) | unusedMask)
	cpu.I = true
	cpu.PC = cpu.readWord(vector)
	cpu.cycles += interruptCycles
	cpu.state = Fetching
}

// SetNMI sets the NMI line level. An interrupt is latched on the transition
// from inactive to active; holding the line active does not latch again.
func (cpu *CPU) SetNMI(active bool) {
	if active && !cpu.nmiLine {
		cpu.nmiPending = true
	}
	cpu.nmiLine = active
}

// SetIRQ sets the level of one source on the shared IRQ line.
func (cpu *CPU) SetIRQ(source IRQSource, active bool) {
	if active {
		cpu.irqLines |= source
	} else {
		cpu.irqLines &^= source
	}
}

// TriggerNMI latches a single NMI regardless of the line level.
func (cpu *CPU) TriggerNMI() {
	cpu.nmiPending = true
}

// TriggerIRQ requests a single IRQ; it stays pending until serviced.
func (cpu *CPU) TriggerIRQ() {
	cpu.irqPending = true
}

// NMIPending reports whether an NMI is latched and waiting.
func (cpu *CPU) NMIPending() bool {
	return cpu.nmiPending
}

// Memory access

func (cpu *CPU) read(address uint16) uint8 {
	return cpu.memory.Read(address)
}

func (cpu *CPU) write(address uint16, value uint8) {
	cpu.memory.Write(address, value)
}

func (cpu *CPU) readWord(address uint16) uint16 {
	low := uint16(cpu.read(address))
	high := uint16(cpu.read(address + 1))
	return high<<8 | low
}

// readWordWrap reads a pointer without carrying into the high byte: a low
// byte at $xxFF is followed by the high byte at $xx00.
func (cpu *CPU) readWordWrap(address uint16) uint16 {
	if w, ok := cpu.memory.(WrapReader); ok {
		return w.Read16Wrap(address)
	}
	low := uint16(cpu.read(address))
	high := uint16(cpu.read((address & pageMask) | uint16(uint8(address)+1)))
	return high<<8 | low
}

// Stack operations
func (cpu *CPU) push(value uint8) {
	cpu.write(stackBase+uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.read(stackBase + uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8))
	cpu.push(uint8(value))
}

func (cpu *CPU) popWord() uint16 {
	low := uint16(cpu.pop())
	high := uint16(cpu.pop())
	return high<<8 | low
}

// setZN sets Zero and Negative flags based on value
func (cpu *CPU) setZN(value uint8) {
	cpu.Z = value == 0
	cpu.N = value&nFlagMask != 0
}

// GetStatusByte returns the status register as a byte. Unused reads as set
// and Break as clear.
func (cpu *CPU) GetStatusByte() uint8 {
	status := uint8(unusedMask)
	if cpu.N {
		status |= nFlagMask
	}
	if cpu.V {
		status |= vFlagMask
	}
	if cpu.D {
		status |= dFlagMask
	}
	if cpu.I {
		status |= iFlagMask
	}
	if cpu.Z {
		status |= zFlagMask
	}
	if cpu.C {
		status |= cFlagMask
	}
	return status
}

// SetStatusByte sets the status register from a byte. Break and Unused are
// ignored.
func (cpu *CPU) SetStatusByte(status uint8) {
	cpu.N = status&nFlagMask != 0
	cpu.V = status&vFlagMask != 0
	cpu.D = status&dFlagMask != 0
	cpu.I = status&iFlagMask != 0
	cpu.Z = status&zFlagMask != 0
	cpu.C = status&cFlagMask != 0
}

// Registers is a snapshot of the programmer-visible CPU state.
type Registers struct {
	A, X, Y uint8
	SP      uint8
	PC      uint16
	P       uint8
	Cycles  uint64
}

// Registers returns a snapshot of the registers and cycle count.
func (cpu *CPU) Registers() Registers {
	return Registers{
		A:      cpu.A,
		X:      cpu.X,
		Y:      cpu.Y,
		SP:     cpu.SP,
		PC:     cpu.PC,
		P:      cpu.GetStatusByte(),
		Cycles: cpu.cycles,
	}
}
