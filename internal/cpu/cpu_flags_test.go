package cpu

import (
	"testing"
)

// TestADCTruthTable checks ADC against a signed/unsigned reference for every
// operand pair and carry-in.
func TestADCTruthTable(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.LoadProgram(0x8000, 0x69, 0x00) // ADC #imm
	helper.SetupResetVector(0x8000)

	for a := 0; a < 256; a++ {
		for m := 0; m < 256; m++ {
			for carry := 0; carry < 2; carry++ {
				helper.Memory.SetBytes(0x8001, uint8(m))
				helper.CPU.PC = 0x8000
				helper.CPU.A = uint8(a)
				helper.CPU.C = carry == 1
				helper.CPU.Step()

				sum := a + m + carry
				signed := int(int8(a)) + int(int8(m)) + carry
				wantA := uint8(sum)
				wantC := sum > 0xFF
				wantV := signed < -128 || signed > 127

				if helper.CPU.A != wantA || helper.CPU.C != wantC || helper.CPU.V != wantV ||
					helper.CPU.Z != (wantA == 0) || helper.CPU.N != (wantA&0x80 != 0) {
					t.Fatalf("ADC A=%02X M=%02X C=%d: got A=%02X C=%v V=%v Z=%v N=%v",
						a, m, carry, helper.CPU.A, helper.CPU.C, helper.CPU.V, helper.CPU.Z, helper.CPU.N)
				}
			}
		}
	}
}

// TestSBCTruthTable checks SBC, where carry set means no borrow
func TestSBCTruthTable(t *testing.T) {
	for _, opcode := range []uint8{0xE9, 0xEB} {
		helper := NewCPUTestHelper()
		helper.LoadProgram(0x8000, opcode, 0x00)
		helper.SetupResetVector(0x8000)

		for a := 0; a < 256; a++ {
			for m := 0; m < 256; m++ {
				for carry := 0; carry < 2; carry++ {
					helper.Memory.SetBytes(0x8001, uint8(m))
					helper.CPU.PC = 0x8000
					helper.CPU.A = uint8(a)
					helper.CPU.C = carry == 1
					helper.CPU.Step()

					borrow := 1 - carry
					diff := a - m - borrow
					signed := int(int8(a)) - int(int8(m)) - borrow
					wantA := uint8(diff)
					wantC := diff >= 0
					wantV := signed < -128 || signed > 127

					if helper.CPU.A != wantA || helper.CPU.C != wantC || helper.CPU.V != wantV ||
						helper.CPU.Z != (wantA == 0) || helper.CPU.N != (wantA&0x80 != 0) {
						t.Fatalf("SBC(0x%02X) A=%02X M=%02X C=%d: got A=%02X C=%v V=%v",
							opcode, a, m, carry, helper.CPU.A, helper.CPU.C, helper.CPU.V)
					}
				}
			}
		}
	}
}

// TestDecimalFlagIgnored tests that ADC stays binary with D set
func TestDecimalFlagIgnored(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.Run(3, 0xF8, 0xA9, 0x09, 0x69, 0x01) // SED; LDA #$09; ADC #$01

	if helper.CPU.A != 0x0A {
		t.Errorf("Expected binary result 0x0A, got 0x%02X", helper.CPU.A)
	}
	if !helper.CPU.D {
		t.Error("Expected D set")
	}
}

// TestZeroNegativeFlags tests Z/N after every register-loading instruction
func TestZeroNegativeFlags(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		steps   int
		zero    bool
		neg     bool
	}{
		{"LDA zero", []uint8{0xA9, 0x00}, 1, true, false},
		{"LDA negative", []uint8{0xA9, 0x80}, 1, false, true},
		{"LDA positive", []uint8{0xA9, 0x7F}, 1, false, false},
		{"LDX negative", []uint8{0xA2, 0xFF}, 1, false, true},
		{"LDY zero", []uint8{0xA0, 0x00}, 1, true, false},
		{"TAX", []uint8{0xA9, 0x90, 0xAA}, 2, false, true},
		{"TAY zero", []uint8{0xA8}, 1, true, false},
		{"TSX", []uint8{0xBA}, 1, false, true}, // SP=$FD
		{"TXA", []uint8{0xA2, 0x00, 0x8A}, 2, true, false},
		{"TYA", []uint8{0xA0, 0xC0, 0x98}, 2, false, true},
		{"INX wraps", []uint8{0xA2, 0xFF, 0xE8}, 2, true, false},
		{"DEX wraps", []uint8{0xCA}, 1, false, true},
		{"INY", []uint8{0xC8}, 1, false, false},
		{"DEY", []uint8{0xA0, 0x01, 0x88}, 2, true, false},
		{"AND", []uint8{0xA9, 0xF0, 0x29, 0x0F}, 2, true, false},
		{"ORA", []uint8{0x09, 0x80}, 1, false, true},
		{"EOR", []uint8{0xA9, 0xFF, 0x49, 0xFF}, 2, true, false},
		{"PLA", []uint8{0xA9, 0x80, 0x48, 0xA9, 0x00, 0x68}, 4, false, true},
		{"INC memory", []uint8{0xE6, 0x10}, 1, false, false},
		{"DEC memory", []uint8{0xC6, 0x10}, 1, false, true},
		{"LAX", []uint8{0xA7, 0x10}, 1, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			helper := NewCPUTestHelper()
			helper.Run(tt.steps, tt.program...)
			if helper.CPU.Z != tt.zero || helper.CPU.N != tt.neg {
				t.Errorf("Expected Z=%v N=%v, got Z=%v N=%v", tt.zero, tt.neg, helper.CPU.Z, helper.CPU.N)
			}
		})
	}
}

// TestCompareFlags tests CMP, CPX and CPY
func TestCompareFlags(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		c, z, n bool
	}{
		{"CMP equal", []uint8{0xA9, 0x40, 0xC9, 0x40}, true, true, false},
		{"CMP greater", []uint8{0xA9, 0x41, 0xC9, 0x40}, true, false, false},
		{"CMP less", []uint8{0xA9, 0x3F, 0xC9, 0x40}, false, false, true},
		{"CPX equal", []uint8{0xA2, 0x10, 0xE0, 0x10}, true, true, false},
		{"CPX less", []uint8{0xA2, 0x00, 0xE0, 0x01}, false, false, true},
		{"CPY greater", []uint8{0xA0, 0xFF, 0xC0, 0x00}, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			helper := NewCPUTestHelper()
			helper.Run(2, tt.program...)
			if helper.CPU.C != tt.c || helper.CPU.Z != tt.z || helper.CPU.N != tt.n {
				t.Errorf("Expected C=%v Z=%v N=%v, got C=%v Z=%v N=%v",
					tt.c, tt.z, tt.n, helper.CPU.C, helper.CPU.Z, helper.CPU.N)
			}
		})
	}
}

// TestFlagInstructions tests the set/clear instructions
func TestFlagInstructions(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.Run(4, 0x38, 0xF8, 0x58, 0x18) // SEC; SED; CLI; CLC
	helper.AssertFlags(t, "after SEC SED CLI CLC", false, false, true, false, false, false)

	helper = NewCPUTestHelper()
	// LDA #$40; ADC #$40 sets V; CLV; CLD; SEI
	helper.Run(5, 0xA9, 0x40, 0x69, 0x40, 0xB8, 0xD8, 0x78)
	helper.AssertFlags(t, "after CLV CLD SEI", true, false, false, true, false, false)
}

// TestBITFlags tests that BIT copies bits 7 and 6 and ANDs for Z
func TestBITFlags(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.Memory.SetBytes(0x0010, 0xC0)
	helper.Run(2, 0xA9, 0x3F, 0x24, 0x10) // LDA #$3F; BIT $10

	if !helper.CPU.N || !helper.CPU.V || !helper.CPU.Z {
		t.Errorf("Expected N V Z set, got N=%v V=%v Z=%v", helper.CPU.N, helper.CPU.V, helper.CPU.Z)
	}
	if helper.CPU.A != 0x3F {
		t.Errorf("BIT must not change A, got 0x%02X", helper.CPU.A)
	}
}

// TestPHPAndPLP tests the Break and Unused bits on pushed status
func TestPHPAndPLP(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.Run(2, 0x38, 0x08) // SEC; PHP
	if got := helper.Memory.Peek(0x01FD); got != 0x35 {
		t.Errorf("Expected pushed status 0x35, got 0x%02X", got)
	}

	helper = NewCPUTestHelper()
	helper.Memory.SetBytes(0x01FE, 0xFF)
	helper.Run(1, 0x28) // PLP
	if got := helper.CPU.GetStatusByte(); got != 0xEF {
		t.Errorf("Expected P=0xEF after PLP of 0xFF, got 0x%02X", got)
	}
}
