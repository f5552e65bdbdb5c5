package cpu

import (
	"testing"
)

func TestTrace(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		want    string
	}{
		{
			name:    "official",
			program: []uint8{0x4C, 0xF5, 0xC5},
			want:    "C000  4C F5 C5  JMP $C5F5                       A:00 X:00 Y:00 P:24 SP:FD CYC:7",
		},
		{
			name:    "unofficial",
			program: []uint8{0x04, 0xA9},
			want:    "C000  04 A9    *NOP $A9                         A:00 X:00 Y:00 P:24 SP:FD CYC:7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			helper := NewCPUTestHelper()
			helper.LoadProgram(0xC000, tt.program...)
			helper.SetupResetVector(0xC000)

			got := helper.CPU.Trace(helper.Memory.Peek)
			if got != tt.want {
				t.Errorf("Trace mismatch\n got: %q\nwant: %q", got, tt.want)
			}
			if helper.Memory.GetReadCount(0xC000) != 0 {
				t.Error("Trace must not read through the bus")
			}
		})
	}
}

func TestDisassemble(t *testing.T) {
	tests := []struct {
		bytes  []uint8
		want   string
		length int
	}{
		{[]uint8{0xEA}, "NOP", 1},
		{[]uint8{0x0A}, "ASL A", 1},
		{[]uint8{0xA9, 0x05}, "LDA #$05", 2},
		{[]uint8{0xA5, 0x10}, "LDA $10", 2},
		{[]uint8{0xB5, 0x10}, "LDA $10,X", 2},
		{[]uint8{0xB6, 0x10}, "LDX $10,Y", 2},
		{[]uint8{0xD0, 0xFE}, "BNE $8000", 2},
		{[]uint8{0xAD, 0x34, 0x12}, "LDA $1234", 3},
		{[]uint8{0xBD, 0x34, 0x12}, "LDA $1234,X", 3},
		{[]uint8{0xB9, 0x34, 0x12}, "LDA $1234,Y", 3},
		{[]uint8{0x6C, 0xFF, 0x02}, "JMP ($02FF)", 3},
		{[]uint8{0xA1, 0x20}, "LDA ($20,X)", 2},
		{[]uint8{0xB1, 0x20}, "LDA ($20),Y", 2},
		{[]uint8{0xC7, 0x20}, "DCP $20", 2},
		{[]uint8{0x02}, "JAM", 1},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			memory := NewMockMemory()
			memory.SetBytes(0x8000, tt.bytes...)
			got, length := Disassemble(memory.Peek, 0x8000)
			if got != tt.want || length != tt.length {
				t.Errorf("Expected %q (%d bytes), got %q (%d bytes)", tt.want, tt.length, got, length)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		Fetching:       "Fetching",
		Decoding:       "Decoding",
		Executing:      "Executing",
		InterruptEntry: "InterruptEntry",
		Halted:         "Halted",
		State(99):      "Unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
