package cartridge

import (
	"errors"
	"fmt"
)

// ErrProgramTooLarge is returned when code does not fit below the vectors.
var ErrProgramTooLarge = errors.New("program overlaps the interrupt vectors")

// Vectors holds the three interrupt vectors at the top of PRG ROM.
type Vectors struct {
	NMI   uint16
	Reset uint16
	IRQ   uint16
}

// BuildPRG returns a 32 KiB PRG image with code placed at origin and the
// vectors written to $FFFA-$FFFF. A zero Reset vector defaults to origin.
// Unused bytes are filled with $EA (NOP).
func BuildPRG(origin uint16, code []uint8, vectors Vectors) ([]uint8, error) {
	if origin < prgROMStart {
		return nil, fmt.Errorf("build PRG: origin $%04X is below $%04X", origin, prgROMStart)
	}
	if int(origin)+len(code) > 0xFFFA {
		return nil, fmt.Errorf("build PRG: %d bytes at $%04X: %w", len(code), origin, ErrProgramTooLarge)
	}

	prg := make([]uint8, 2*prgBankSize)
	for i := range prg {
		prg[i] = 0xEA
	}
	copy(prg[origin-prgROMStart:], code)

	if vectors.Reset == 0 {
		vectors.Reset = origin
	}
	for i, v := range []uint16{vectors.NMI, vectors.Reset, vectors.IRQ} {
		offset := 0x7FFA + 2*i
		prg[offset] = uint8(v)
		prg[offset+1] = uint8(v >> 8)
	}
	return prg, nil
}
