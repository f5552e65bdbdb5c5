// Package memory implements the CPU address bus of the NES.
//
// Every address has exactly one owner, decided when the bus is built: the
// internal RAM, a peripheral register window, or the cartridge. Register
// windows are capability objects (a read hook and a write hook); any value
// implementing RegisterHandler can occupy one. Addresses nobody owns return
// the open-bus value, the last byte driven on the data lines.
package memory

import (
	"errors"
	"fmt"
	"io"
	"log"
)

// Address map
const (
	ramStart   = 0x0000
	ramEnd     = 0x1FFF
	ramSize    = 0x0800
	ppuStart   = 0x2000
	ppuEnd     = 0x3FFF
	ppuPeriod  = 8
	ioStart    = 0x4000
	ioEnd      = 0x4017
	cartStart  = 0x4020
	addressTop = 0xFFFF

	// OAMDMARegister starts a sprite DMA when written.
	OAMDMARegister = 0x4014
	// APUStatusRegister is the only readable APU register.
	APUStatusRegister = 0x4015
	// Controller ports
	Joypad1Register = 0x4016
	Joypad2Register = 0x4017
	// OAMDataRegister is the PPU register DMA bytes are written to.
	OAMDataRegister = 0x2004
)

// Configuration errors
var (
	ErrNoCartridge   = errors.New("no cartridge attached")
	ErrRegionOverlap = errors.New("address region already owned")
	ErrInvalidWindow = errors.New("invalid register window")
)

// ConfigError reports a bus that cannot be built.
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("memory config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// RegisterHandler is the capability a peripheral needs to occupy a register
// window. Addresses passed in are canonical: mirrors are folded onto the
// first copy of the window.
type RegisterHandler interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// Peeker is implemented by register handlers that can report a register's
// value without the side effects of a real read.
type Peeker interface {
	PeekRegister(address uint16) uint8
}

// RegisterFuncs adapts a pair of hook functions to RegisterHandler. A nil
// Read hook reads as zero; a nil Write hook ignores writes.
type RegisterFuncs struct {
	Read  func(address uint16) uint8
	Write func(address uint16, value uint8)
}

func (f RegisterFuncs) ReadRegister(address uint16) uint8 {
	if f.Read == nil {
		return 0
	}
	return f.Read(address)
}

func (f RegisterFuncs) WriteRegister(address uint16, value uint8) {
	if f.Write != nil {
		f.Write(address, value)
	}
}

// APUInterface defines the interface for APU register access
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputInterface defines the interface for input system access
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Cartridge is the cartridge side of the bus. MapsPRG reports whether the
// board drives the data lines for an address in $4020-$FFFF; reads of
// addresses it does not map return open bus.
type Cartridge interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	MapsPRG(address uint16) bool
}

// Window places a register handler on a range of the address space. The
// range repeats every Period bytes; a zero Period means no mirroring.
type Window struct {
	Name    string
	Start   uint16
	End     uint16
	Period  uint16
	Handler RegisterHandler
}

type regionKind uint8

const (
	regionUnmapped regionKind = iota
	regionRAM
	regionWindow
	regionCartridge
)

type region struct {
	name    string
	kind    regionKind
	start   uint16
	period  uint16
	handler RegisterHandler
}

// canonical folds a mirrored address onto the first copy of the window.
func (r *region) canonical(address uint16) uint16 {
	if r.period == 0 {
		return address
	}
	return r.start + (address-r.start)%r.period
}

// Memory represents the NES CPU memory map
type Memory struct {
	// Internal RAM (2KB, mirrored to 8KB)
	ram [ramSize]uint8

	// owner holds an index into regions for every address; 0 is unmapped.
	owner   [0x10000]uint8
	regions []region

	cartridge Cartridge
	ppu       RegisterHandler
	apu       APUInterface
	input     InputInterface

	dmaCallback func(uint8)

	// Open bus - last value driven on the data bus
	openBusValue uint8

	windows     []Window
	powerUp     PowerUpPattern
	logger      *log.Logger
	diagnostics bool
	unmapped    uint64
}

// Option configures a Memory under construction.
type Option func(*Memory)

// WithPPU places the PPU registers at $2000-$3FFF, mirrored every 8 bytes.
func WithPPU(ppu RegisterHandler) Option {
	return func(m *Memory) { m.ppu = ppu }
}

// WithAPU routes APU register writes and $4015 reads to apu.
func WithAPU(apu APUInterface) Option {
	return func(m *Memory) { m.apu = apu }
}

// WithInput routes the controller ports to input.
func WithInput(input InputInterface) Option {
	return func(m *Memory) { m.input = input }
}

// WithDMA sets the function called with the page number written to $4014.
func WithDMA(callback func(uint8)) Option {
	return func(m *Memory) { m.dmaCallback = callback }
}

// WithWindow claims an additional register window. Windows may use the
// test-mode registers at $4018-$401F or any part of cartridge space.
func WithWindow(w Window) Option {
	return func(m *Memory) { m.windows = append(m.windows, w) }
}

// WithLogger sets the logger used for bus diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(m *Memory) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDiagnostics logs every access that resolves to open bus.
func WithDiagnostics(enable bool) Option {
	return func(m *Memory) { m.diagnostics = enable }
}

// WithPowerUpPattern selects the RAM contents at power-up.
func WithPowerUpPattern(p PowerUpPattern) Option {
	return func(m *Memory) { m.powerUp = p }
}

// New builds the address bus. A cartridge is required; overlapping windows
// are rejected.
func New(cart Cartridge, opts ...Option) (*Memory, error) {
	m := &Memory{
		cartridge: cart,
		logger:    log.New(io.Discard, "", 0),
		regions:   []region{{name: "open bus", kind: regionUnmapped}},
	}
	for _, opt := range opts {
		opt(m)
	}

	if cart == nil {
		return nil, &ConfigError{Field: "cartridge", Value: nil, Err: ErrNoCartridge}
	}

	if err := m.claim(region{name: "ram", kind: regionRAM, start: ramStart, period: ramSize}, ramEnd); err != nil {
		return nil, err
	}
	if m.ppu != nil {
		ppu := region{name: "ppu", kind: regionWindow, start: ppuStart, period: ppuPeriod, handler: m.ppu}
		if err := m.claim(ppu, ppuEnd); err != nil {
			return nil, err
		}
	}
	ioRegion := region{name: "apu/io", kind: regionWindow, start: ioStart, handler: ioRegisters{m}}
	if err := m.claim(ioRegion, ioEnd); err != nil {
		return nil, err
	}
	for _, w := range m.windows {
		if err := m.addWindow(w); err != nil {
			return nil, err
		}
	}

	// the cartridge owns whatever cartridge space is left
	m.regions = append(m.regions, region{name: "cartridge", kind: regionCartridge})
	cartIndex := uint8(len(m.regions) - 1)
	for address := uint32(cartStart); address <= addressTop; address++ {
		if m.owner[address] == 0 {
			m.owner[address] = cartIndex
		}
	}

	m.initializePowerUpRAM()
	return m, nil
}

func (m *Memory) addWindow(w Window) error {
	size := uint32(w.End) - uint32(w.Start) + 1
	switch {
	case w.Handler == nil:
		return &ConfigError{Field: "window." + w.Name + ".handler", Value: nil, Err: ErrInvalidWindow}
	case w.End < w.Start:
		return &ConfigError{Field: "window." + w.Name + ".end", Value: fmt.Sprintf("$%04X", w.End), Err: ErrInvalidWindow}
	case uint32(w.Period) > size:
		return &ConfigError{Field: "window." + w.Name + ".period", Value: w.Period, Err: ErrInvalidWindow}
	}
	return m.claim(region{name: w.Name, kind: regionWindow, start: w.Start, period: w.Period, handler: w.Handler}, w.End)
}

// claim records r as the owner of r.start through end.
func (m *Memory) claim(r region, end uint16) error {
	if len(m.regions) == 0xFF {
		return &ConfigError{Field: r.name, Value: len(m.regions), Err: fmt.Errorf("too many regions: %w", ErrInvalidWindow)}
	}
	for address := uint32(r.start); address <= uint32(end); address++ {
		if other := m.owner[address]; other != 0 {
			return &ConfigError{
				Field: r.name,
				Value: fmt.Sprintf("$%04X-$%04X", r.start, end),
				Err:   fmt.Errorf("$%04X owned by %s: %w", address, m.regions[other].name, ErrRegionOverlap),
			}
		}
	}
	m.regions = append(m.regions, r)
	index := uint8(len(m.regions) - 1)
	for address := uint32(r.start); address <= uint32(end); address++ {
		m.owner[address] = index
	}
	return nil
}

// SetDMACallback sets the DMA callback function
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	var value uint8

	r := &m.regions[m.owner[address]]
	switch r.kind {
	case regionRAM:
		value = m.ram[address&(ramSize-1)]
	case regionWindow:
		value = r.handler.ReadRegister(r.canonical(address))
	case regionCartridge:
		if m.cartridge.MapsPRG(address) {
			value = m.cartridge.ReadPRG(address)
		} else {
			value = m.openBus("read", address)
		}
	default:
		value = m.openBus("read", address)
	}

	// the last value on the bus lingers
	m.openBusValue = value
	return value
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	m.openBusValue = value

	r := &m.regions[m.owner[address]]
	switch r.kind {
	case regionRAM:
		m.ram[address&(ramSize-1)] = value
	case regionWindow:
		r.handler.WriteRegister(r.canonical(address), value)
	case regionCartridge:
		if m.cartridge.MapsPRG(address) {
			m.cartridge.WritePRG(address, value)
		} else {
			m.openBus("write", address)
		}
	default:
		m.openBus("write", address)
	}
}

// openBus records an unmapped access and returns the open-bus value.
func (m *Memory) openBus(access string, address uint16) uint8 {
	m.unmapped++
	if m.diagnostics {
		m.logger.Printf("[MEMORY_MONITOR] unmapped %s at $%04X, open bus $%02X", access, address, m.openBusValue)
	}
	return m.openBusValue
}

// Read16 reads a little-endian word; the high byte comes from address+1.
func (m *Memory) Read16(address uint16) uint16 {
	low := uint16(m.Read(address))
	high := uint16(m.Read(address + 1))
	return high<<8 | low
}

// Read16Wrap reads a little-endian word without carrying into the high byte
// of the address, as the 6502 does for JMP ($xxFF) and zero-page pointers.
func (m *Memory) Read16Wrap(address uint16) uint16 {
	low := uint16(m.Read(address))
	high := uint16(m.Read((address & 0xFF00) | ((address + 1) & 0x00FF)))
	return high<<8 | low
}

// Peek returns the byte at address without side effects and without
// touching the open-bus value. Register windows answer with the open-bus
// value unless their handler implements Peeker.
func (m *Memory) Peek(address uint16) uint8 {
	r := &m.regions[m.owner[address]]
	switch r.kind {
	case regionRAM:
		return m.ram[address&(ramSize-1)]
	case regionWindow:
		if p, ok := r.handler.(Peeker); ok {
			return p.PeekRegister(r.canonical(address))
		}
	case regionCartridge:
		if m.cartridge.MapsPRG(address) {
			return m.cartridge.ReadPRG(address)
		}
	}
	return m.openBusValue
}

// OpenBus returns the value currently floating on the data bus.
func (m *Memory) OpenBus() uint8 {
	return m.openBusValue
}

// UnmappedAccesses returns how many accesses resolved to open bus.
func (m *Memory) UnmappedAccesses() uint64 {
	return m.unmapped
}

// Owner names the region that owns address.
func (m *Memory) Owner(address uint16) string {
	return m.regions[m.owner[address]].name
}

// ioRegisters is the handler for $4000-$4017.
type ioRegisters struct {
	m *Memory
}

func (r ioRegisters) ReadRegister(address uint16) uint8 {
	m := r.m
	switch {
	case address == APUStatusRegister && m.apu != nil:
		return m.apu.ReadStatus()
	case (address == Joypad1Register || address == Joypad2Register) && m.input != nil:
		return m.input.Read(address)
	}
	// other APU/I/O registers are write-only, and unplugged ports float
	return m.openBus("read", address)
}

func (r ioRegisters) WriteRegister(address uint16, value uint8) {
	m := r.m
	switch {
	case address == OAMDMARegister:
		if m.dmaCallback != nil {
			m.dmaCallback(value)
		} else if m.ppu != nil {
			m.performOAMDMA(value)
		}
	case address == Joypad1Register:
		if m.input != nil {
			m.input.Write(address, value)
		}
	case address <= 0x4013 || address == APUStatusRegister || address == Joypad2Register:
		if m.apu != nil {
			m.apu.WriteRegister(address, value)
		}
	}
}

// PeekRegister reports the controller and status registers as open bus so
// that tracing never clocks a shift register.
func (r ioRegisters) PeekRegister(address uint16) uint8 {
	return r.m.openBusValue
}

// performOAMDMA copies a page straight to the PPU when no DMA callback is
// set. It does not model the CPU stall.
func (m *Memory) performOAMDMA(page uint8) {
	baseAddress := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		value := m.Read(baseAddress + i)
		m.ppu.WriteRegister(OAMDataRegister, value)
	}
}
