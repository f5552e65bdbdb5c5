// Package cartridge implements the PRG side of an NES cartridge.
package cartridge

import (
	"errors"
	"fmt"
)

const (
	prgBankSize = 0x4000
	prgRAMBytes = 0x2000

	prgRAMStart = 0x6000
	prgROMStart = 0x8000
)

var (
	// ErrInvalidPRGSize is returned when the PRG image is not 16 or 32 KiB.
	ErrInvalidPRGSize = errors.New("PRG ROM must be 16 KiB or 32 KiB")
	// ErrInvalidPRGRAMSize is returned when PRG RAM is neither absent nor 8 KiB.
	ErrInvalidPRGRAMSize = errors.New("PRG RAM must be 0 or 8 KiB")
)

// Mapper translates CPU addresses in cartridge space to ROM and RAM.
type Mapper interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	MapsPRG(address uint16) bool
}

// Cartridge represents a NES cartridge
type Cartridge struct {
	prgROM []uint8
	prgRAM []uint8

	mapper Mapper
}

// New builds an NROM cartridge from a raw PRG image. prgRAMSize is the size
// of the work RAM at $6000-$7FFF in bytes.
func New(prg []uint8, prgRAMSize int) (*Cartridge, error) {
	if len(prg) != prgBankSize && len(prg) != 2*prgBankSize {
		return nil, fmt.Errorf("cartridge: %d bytes: %w", len(prg), ErrInvalidPRGSize)
	}
	if prgRAMSize != 0 && prgRAMSize != prgRAMBytes {
		return nil, fmt.Errorf("cartridge: %d bytes: %w", prgRAMSize, ErrInvalidPRGRAMSize)
	}

	cart := &Cartridge{
		prgROM: append([]uint8(nil), prg...),
	}
	if prgRAMSize > 0 {
		cart.prgRAM = make([]uint8, prgRAMSize)
	}
	cart.mapper = NewMapper000(cart)
	return cart, nil
}

// ReadPRG reads from PRG ROM/RAM
func (c *Cartridge) ReadPRG(address uint16) uint8 {
	return c.mapper.ReadPRG(address)
}

// WritePRG writes to PRG RAM; writes to ROM are discarded.
func (c *Cartridge) WritePRG(address uint16, value uint8) {
	c.mapper.WritePRG(address, value)
}

// MapsPRG reports whether the cartridge drives the bus at address.
func (c *Cartridge) MapsPRG(address uint16) bool {
	return c.mapper.MapsPRG(address)
}

// PRGBanks returns the number of 16 KiB PRG banks.
func (c *Cartridge) PRGBanks() int {
	return len(c.prgROM) / prgBankSize
}

// HasPRGRAM reports whether work RAM is fitted.
func (c *Cartridge) HasPRGRAM() bool {
	return len(c.prgRAM) > 0
}
