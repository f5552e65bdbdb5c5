package memory

import (
	"fmt"
	"strings"
)

// PowerUpPattern selects the contents of internal RAM at power-up.
type PowerUpPattern uint8

const (
	// PowerUpZero clears RAM.
	PowerUpZero PowerUpPattern = iota
	// PowerUpMixed fills RAM with the $00/$FF/$AA/$55 patterns seen on
	// real consoles.
	PowerUpMixed
	// PowerUpOnes fills RAM with $FF.
	PowerUpOnes
)

var powerUpNames = map[PowerUpPattern]string{
	PowerUpZero:  "zero",
	PowerUpMixed: "mixed",
	PowerUpOnes:  "ones",
}

func (p PowerUpPattern) String() string {
	if name, ok := powerUpNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PowerUpPattern(%d)", uint8(p))
}

// ParsePowerUpPattern converts a configuration name to a pattern.
func ParsePowerUpPattern(name string) (PowerUpPattern, error) {
	for p, n := range powerUpNames {
		if strings.EqualFold(n, name) {
			return p, nil
		}
	}
	return PowerUpZero, fmt.Errorf("unknown power-up pattern %q", name)
}

// initializePowerUpRAM fills RAM according to the selected pattern
func (m *Memory) initializePowerUpRAM() {
	for i := range m.ram {
		switch m.powerUp {
		case PowerUpOnes:
			m.ram[i] = 0xFF
		case PowerUpMixed:
			m.ram[i] = mixedPowerUpByte(i)
		default:
			m.ram[i] = 0x00
		}
	}
}

// mixedPowerUpByte returns the power-up value of RAM offset i. Real NES RAM
// comes up in semi-random stripes rather than all zeros.
func mixedPowerUpByte(i int) uint8 {
	switch {
	case i < 0x100:
		// First page: alternating $00/$FF pattern
		if i%2 == 0 {
			return 0x00
		}
		return 0xFF
	case i < 0x200:
		// Second page: mostly $00 with some $FF
		if i%16 < 2 {
			return 0xFF
		}
		return 0x00
	case i < 0x300:
		// Third page: checkerboard pattern
		if (i/8)%2 == (i%8)/4 {
			return 0xAA
		}
		return 0x55
	case i < 0x400:
		// Fourth page: mostly $FF
		if i%8 == 0 {
			return 0x00
		}
		return 0xFF
	}
	return [4]uint8{0x00, 0xFF, 0xAA, 0x55}[i%4]
}
