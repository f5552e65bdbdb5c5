package cartridge

import (
	"testing"
)

// TestMapper000_16KBMirroring tests that a single bank fills both halves
func TestMapper000_16KBMirroring(t *testing.T) {
	cart, err := New(patternPRG(0x4000), 0)
	if err != nil {
		t.Fatal(err)
	}

	for _, offset := range []uint16{0x0000, 0x0123, 0x3FFF} {
		low := cart.ReadPRG(0x8000 + offset)
		high := cart.ReadPRG(0xC000 + offset)
		if low != high {
			t.Errorf("offset $%04X: $8000 half = 0x%02X, $C000 half = 0x%02X", offset, low, high)
		}
	}
	if got := cart.ReadPRG(0x8123); got != 0x01^0x23 {
		t.Errorf("ReadPRG($8123) = 0x%02X", got)
	}
}

// TestMapper000_32KBDirect tests that a two-bank image is not mirrored
func TestMapper000_32KBDirect(t *testing.T) {
	prg := patternPRG(0x8000)
	cart, err := New(prg, 0)
	if err != nil {
		t.Fatal(err)
	}

	if cart.ReadPRG(0xC000) != prg[0x4000] {
		t.Errorf("ReadPRG($C000) = 0x%02X, want 0x%02X", cart.ReadPRG(0xC000), prg[0x4000])
	}
	if cart.ReadPRG(0xFFFF) != prg[0x7FFF] {
		t.Errorf("ReadPRG($FFFF) = 0x%02X, want 0x%02X", cart.ReadPRG(0xFFFF), prg[0x7FFF])
	}
}

func TestMapper000_ROMWritesDiscarded(t *testing.T) {
	prg := patternPRG(0x8000)
	cart, err := New(prg, 0x2000)
	if err != nil {
		t.Fatal(err)
	}

	before := cart.ReadPRG(0x8010)
	cart.WritePRG(0x8010, ^before)
	if cart.ReadPRG(0x8010) != before {
		t.Error("ROM write was not discarded")
	}
}

func TestMapper000_PRGRAM(t *testing.T) {
	testCases := []struct {
		name    string
		ramSize int
		maps    map[uint16]bool
	}{
		{
			name:    "with RAM",
			ramSize: 0x2000,
			maps:    map[uint16]bool{0x4020: false, 0x5FFF: false, 0x6000: true, 0x7FFF: true, 0x8000: true},
		},
		{
			name:    "without RAM",
			ramSize: 0,
			maps:    map[uint16]bool{0x4020: false, 0x6000: false, 0x7FFF: false, 0x8000: true, 0xFFFF: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cart, err := New(patternPRG(0x4000), tc.ramSize)
			if err != nil {
				t.Fatal(err)
			}
			for address, want := range tc.maps {
				if got := cart.MapsPRG(address); got != want {
					t.Errorf("MapsPRG($%04X) = %v, want %v", address, got, want)
				}
			}

			cart.WritePRG(0x6000, 0x5A)
			cart.WritePRG(0x7FFF, 0xA5)
			want0, want1 := uint8(0x5A), uint8(0xA5)
			if tc.ramSize == 0 {
				want0, want1 = 0, 0
			}
			if cart.ReadPRG(0x6000) != want0 || cart.ReadPRG(0x7FFF) != want1 {
				t.Errorf("PRG RAM = 0x%02X/0x%02X, want 0x%02X/0x%02X",
					cart.ReadPRG(0x6000), cart.ReadPRG(0x7FFF), want0, want1)
			}
		})
	}
}
