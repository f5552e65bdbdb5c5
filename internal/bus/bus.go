// Package bus drives the CPU and the chips clocked alongside it.
package bus

import (
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"slices"

	"nescore/internal/cpu"
	"nescore/internal/memory"
)

const (
	// OAM DMA stalls the CPU for 513 cycles, plus one when it starts on an
	// odd cycle.
	dmaCycles = 513
	oamSize   = 256
)

// ErrInvalidRatio is returned by Attach for a clock ratio below one.
var ErrInvalidRatio = errors.New("clock ratio must be at least 1")

// Clocked is a chip advanced in lock-step with the CPU.
type Clocked interface {
	Step()
}

// DMATarget receives the bytes copied by OAM DMA.
type DMATarget interface {
	WriteOAM(index uint8, value uint8)
}

type attachment struct {
	chip  Clocked
	ratio uint64
}

// Bus connects the CPU, the address bus and any attached chips
type Bus struct {
	CPU    *cpu.CPU
	Memory *memory.Memory

	chips []attachment
	oam   DMATarget

	// total cycles, DMA stalls included
	cycles uint64

	// Timing coordination
	dmaRequested     bool
	dmaSuspendCycles uint64
	dmaInProgress    bool

	// Execution logging for testing
	executionLog   []ExecutionEvent
	loggingEnabled bool

	// Memory monitoring for debugging
	memoryWatchpoints map[uint16]uint8 // Address -> previous value
	watchpointLogging bool

	trace  io.Writer
	logger *log.Logger
}

// the CPU fetches pointers through the address bus's page-wrapping read
var _ cpu.WrapReader = (*memory.Memory)(nil)

// New builds the address bus around cart and the CPU on top of it, then
// performs the power-on reset. OAM DMA writes to $4014 are routed to the
// bus so the CPU stall is modelled.
func New(cart memory.Cartridge, opts ...memory.Option) (*Bus, error) {
	b := &Bus{
		memoryWatchpoints: make(map[uint16]uint8),
		logger:            log.New(io.Discard, "", 0),
	}

	opts = append(opts, memory.WithDMA(b.TriggerOAMDMA))
	mem, err := memory.New(cart, opts...)
	if err != nil {
		return nil, fmt.Errorf("bus: %w", err)
	}
	b.Memory = mem
	b.CPU = cpu.New(mem)

	b.Reset()
	return b, nil
}

// Reset performs the CPU reset sequence and clears the bus state. The cycle
// counter restarts at the 7 cycles the reset takes.
func (b *Bus) Reset() {
	b.CPU.SetCycles(0)
	b.CPU.Reset()
	b.cycles = b.CPU.Cycles()

	b.dmaRequested = false
	b.dmaSuspendCycles = 0
	b.dmaInProgress = false

	b.executionLog = b.executionLog[:0]
}

// Attach adds a chip that is stepped ratio times per CPU cycle (3 for the
// NTSC PPU, 1 for the APU).
func (b *Bus) Attach(chip Clocked, ratio int) error {
	if ratio < 1 {
		return fmt.Errorf("attach %T: %d: %w", chip, ratio, ErrInvalidRatio)
	}
	b.chips = append(b.chips, attachment{chip: chip, ratio: uint64(ratio)})
	return nil
}

// SetOAMTarget sets where OAM DMA copies its 256 bytes.
func (b *Bus) SetOAMTarget(target DMATarget) {
	b.oam = target
}

// Interrupts returns the interrupt lines attached chips should drive.
func (b *Bus) Interrupts() cpu.InterruptSink {
	return b.CPU
}

// SetTraceWriter enables a nestest-style trace line per instruction; nil
// disables it.
func (b *Bus) SetTraceWriter(w io.Writer) {
	b.trace = w
}

// SetLogger sets the logger for the bus and the CPU.
func (b *Bus) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	b.logger = logger
	b.CPU.SetLogger(logger)
}

// Step executes one CPU instruction, interrupt entry, or DMA stall cycle and
// advances the attached chips to match. It returns the CPU cycles taken.
func (b *Bus) Step() uint64 {
	prePC := b.CPU.PC
	preState := b.CPU.State()
	var preOpcode uint8

	var cycles uint64
	switch {
	case b.CPU.Busy():
		// finish the instruction Tick started; its bus activity is done
		cycles = b.CPU.Step()
	case b.dmaSuspendCycles > 0:
		cycles = 1
		b.stallCycle()
	default:
		preOpcode = b.Memory.Peek(prePC)
		b.traceInstruction()
		cycles = b.CPU.Step()
	}

	b.advanceChips(cycles)
	b.cycles += cycles
	b.startPendingDMA()

	if b.watchpointLogging {
		b.CheckMemoryWatchpoints()
	}

	if b.loggingEnabled {
		b.executionLog = append(b.executionLog, ExecutionEvent{
			StepNumber:     len(b.executionLog) + 1,
			CPUCycles:      b.cycles,
			DMAActive:      b.dmaInProgress,
			InterruptTaken: preState == cpu.InterruptEntry,
			PCValue:        prePC,
			InstructionOp:  preOpcode,
		})
	}
	return cycles
}

// Tick advances the system by a single CPU cycle and reports whether an
// instruction or interrupt entry completed on it.
func (b *Bus) Tick() bool {
	var done bool
	switch {
	case b.CPU.Busy():
		done = b.CPU.Tick()
	case b.dmaSuspendCycles > 0:
		b.stallCycle()
	default:
		b.traceInstruction()
		done = b.CPU.Tick()
	}

	b.advanceChips(1)
	b.cycles++
	b.startPendingDMA()

	if done && b.watchpointLogging {
		b.CheckMemoryWatchpoints()
	}
	return done
}

// RunCycles runs the system for at least the given number of CPU cycles,
// stopping on an instruction boundary.
func (b *Bus) RunCycles(cycles uint64) {
	targetCycles := b.cycles + cycles

	for b.cycles < targetCycles {
		b.Step()
	}
}

func (b *Bus) traceInstruction() {
	if b.trace == nil || b.CPU.State() != cpu.Fetching {
		return
	}
	fmt.Fprintln(b.trace, b.CPU.Trace(b.Memory.Peek))
}

func (b *Bus) advanceChips(cycles uint64) {
	for _, a := range b.chips {
		for i := uint64(0); i < cycles*a.ratio; i++ {
			a.chip.Step()
		}
	}
}

func (b *Bus) stallCycle() {
	b.dmaSuspendCycles--
	if b.dmaSuspendCycles == 0 {
		b.dmaInProgress = false
	}
}

// TriggerOAMDMA copies page $XX00-$XXFF to the OAM target. The CPU stall
// starts once the instruction that wrote $4014 has finished.
func (b *Bus) TriggerOAMDMA(sourcePage uint8) {
	if b.dmaInProgress || b.dmaRequested {
		return // DMA already in progress
	}
	b.dmaRequested = true

	sourceAddress := uint16(sourcePage) << 8
	for i := 0; i < oamSize; i++ {
		data := b.Memory.Read(sourceAddress + uint16(i))
		if b.oam != nil {
			b.oam.WriteOAM(uint8(i), data)
		}
	}
}

func (b *Bus) startPendingDMA() {
	if !b.dmaRequested || b.CPU.Busy() {
		return
	}
	b.dmaRequested = false

	stall := uint64(dmaCycles)
	if b.cycles%2 == 1 {
		stall++
	}
	b.dmaSuspendCycles = stall
	b.dmaInProgress = true
}

// GetCycleCount returns the total cycle count, DMA stalls included
func (b *Bus) GetCycleCount() uint64 {
	return b.cycles
}

// SetCycles overrides the cycle counter of the bus and the CPU, for matching
// reference logs that start at a given count.
func (b *Bus) SetCycles(cycles uint64) {
	b.cycles = cycles
	b.CPU.SetCycles(cycles)
}

// IsDMAInProgress returns whether DMA is currently in progress
func (b *Bus) IsDMAInProgress() bool {
	return b.dmaInProgress || b.dmaRequested
}

// ExecutionEvent represents a single execution step for testing
type ExecutionEvent struct {
	StepNumber     int
	CPUCycles      uint64
	DMAActive      bool
	InterruptTaken bool
	PCValue        uint16
	InstructionOp  uint8
}

// GetExecutionLog returns execution log for integration testing
func (b *Bus) GetExecutionLog() []ExecutionEvent {
	return b.executionLog
}

// EnableExecutionLogging enables execution logging for testing
func (b *Bus) EnableExecutionLogging() {
	b.loggingEnabled = true
}

// DisableExecutionLogging disables execution logging
func (b *Bus) DisableExecutionLogging() {
	b.loggingEnabled = false
}

// ClearExecutionLog clears the execution log
func (b *Bus) ClearExecutionLog() {
	b.executionLog = b.executionLog[:0]
}

// CPUState represents CPU state snapshot for testing
type CPUState struct {
	PC      uint16
	A, X, Y uint8
	SP      uint8
	Cycles  uint64
	Flags   CPUFlags
	Halted  bool
}

// CPUFlags represents CPU status flags for testing
type CPUFlags struct {
	N, V, D, I, Z, C bool
}

// GetCPUState returns the current CPU state for testing
func (b *Bus) GetCPUState() CPUState {
	return CPUState{
		PC:     b.CPU.PC,
		A:      b.CPU.A,
		X:      b.CPU.X,
		Y:      b.CPU.Y,
		SP:     b.CPU.SP,
		Cycles: b.cycles,
		Flags: CPUFlags{
			N: b.CPU.N,
			V: b.CPU.V,
			D: b.CPU.D,
			I: b.CPU.I,
			Z: b.CPU.Z,
			C: b.CPU.C,
		},
		Halted: b.CPU.Halted(),
	}
}

// WatchpointHit records a change seen at a watched address.
type WatchpointHit struct {
	Address  uint16
	Previous uint8
	Current  uint8
}

// AddMemoryWatchpoint adds a memory address to monitor for changes
func (b *Bus) AddMemoryWatchpoint(address uint16) {
	b.memoryWatchpoints[address] = b.Memory.Peek(address)
}

// RemoveMemoryWatchpoint stops monitoring address.
func (b *Bus) RemoveMemoryWatchpoint(address uint16) {
	delete(b.memoryWatchpoints, address)
}

// EnableWatchpointLogging enables/disables memory watchpoint checks after
// every instruction
func (b *Bus) EnableWatchpointLogging(enabled bool) {
	b.watchpointLogging = enabled
}

// CheckMemoryWatchpoints checks all watchpoints for changes, logs them and
// returns them in address order.
func (b *Bus) CheckMemoryWatchpoints() []WatchpointHit {
	var hits []WatchpointHit
	for _, address := range slices.Sorted(maps.Keys(b.memoryWatchpoints)) {
		previousValue := b.memoryWatchpoints[address]
		currentValue := b.Memory.Peek(address)
		if currentValue == previousValue {
			continue
		}
		b.logger.Printf("[MEMORY_WATCH] Cycle %d: $%04X changed from $%02X to $%02X",
			b.cycles, address, previousValue, currentValue)
		b.memoryWatchpoints[address] = currentValue
		hits = append(hits, WatchpointHit{Address: address, Previous: previousValue, Current: currentValue})
	}
	return hits
}

// EnableCPUDebug enables/disables CPU debug logging and loop detection
func (b *Bus) EnableCPUDebug(enable bool) {
	b.CPU.EnableDebugLogging(enable)
	b.CPU.EnableLoopDetection(enable)
}
