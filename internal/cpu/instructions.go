package cpu

// Mnemonic identifies the operation an opcode performs, independent of its
// addressing mode.
type Mnemonic uint8

const (
	ADC Mnemonic = iota
	AND
	ASL
	BCC
	BCS
	BEQ
	BIT
	BMI
	BNE
	BPL
	BRK
	BVC
	BVS
	CLC
	CLD
	CLI
	CLV
	CMP
	CPX
	CPY
	DEC
	DEX
	DEY
	EOR
	INC
	INX
	INY
	JMP
	JSR
	LDA
	LDX
	LDY
	LSR
	NOP
	ORA
	PHA
	PHP
	PLA
	PLP
	ROL
	ROR
	RTI
	RTS
	SBC
	SEC
	SED
	SEI
	STA
	STX
	STY
	TAX
	TAY
	TSX
	TXA
	TXS
	TYA

	// Unofficial opcodes
	AHX
	ALR
	ANC
	ARR
	AXS
	DCP
	ISB
	JAM
	LAS
	LAX
	LXA
	RLA
	RRA
	SAX
	SHX
	SHY
	SLO
	SRE
	TAS
	XAA
)

var mnemonicNames = [...]string{
	ADC: "ADC", AND: "AND", ASL: "ASL", BCC: "BCC", BCS: "BCS", BEQ: "BEQ",
	BIT: "BIT", BMI: "BMI", BNE: "BNE", BPL: "BPL", BRK: "BRK", BVC: "BVC",
	BVS: "BVS", CLC: "CLC", CLD: "CLD", CLI: "CLI", CLV: "CLV", CMP: "CMP",
	CPX: "CPX", CPY: "CPY", DEC: "DEC", DEX: "DEX", DEY: "DEY", EOR: "EOR",
	INC: "INC", INX: "INX", INY: "INY", JMP: "JMP", JSR: "JSR", LDA: "LDA",
	LDX: "LDX", LDY: "LDY", LSR: "LSR", NOP: "NOP", ORA: "ORA", PHA: "PHA",
	PHP: "PHP", PLA: "PLA", PLP: "PLP", ROL: "ROL", ROR: "ROR", RTI: "RTI",
	RTS: "RTS", SBC: "SBC", SEC: "SEC", SED: "SED", SEI: "SEI", STA: "STA",
	STX: "STX", STY: "STY", TAX: "TAX", TAY: "TAY", TSX: "TSX", TXA: "TXA",
	TXS: "TXS", TYA: "TYA",
	AHX: "AHX", ALR: "ALR", ANC: "ANC", ARR: "ARR", AXS: "AXS", DCP: "DCP",
	ISB: "ISB", JAM: "JAM", LAS: "LAS", LAX: "LAX", LXA: "LXA", RLA: "RLA",
	RRA: "RRA", SAX: "SAX", SHX: "SHX", SHY: "SHY", SLO: "SLO", SRE: "SRE",
	TAS: "TAS", XAA: "XAA",
}

func (m Mnemonic) String() string {
	if int(m) < len(mnemonicNames) {
		return mnemonicNames[m]
	}
	return "???"
}

// Penalty is the rule for cycles added on top of an instruction's base count.
type Penalty uint8

const (
	// NoPenalty instructions always take their base cycle count. Indexed
	// stores and read-modify-write instructions fall in here because their
	// base count already includes the fix-up cycle.
	NoPenalty Penalty = iota
	// PageCrossPenalty adds one cycle when indexing crosses a page.
	PageCrossPenalty
	// BranchPenalty adds one cycle for a taken branch and one more when the
	// target lies on a different page.
	BranchPenalty
)

// Instruction represents a 6502 instruction
type Instruction struct {
	Name     Mnemonic
	Opcode   uint8
	Bytes    uint8
	Cycles   uint8
	Mode     AddressingMode
	Penalty  Penalty
	Official bool
}

// instructionTable is the flat opcode -> instruction lookup used by Step.
var instructionTable = buildInstructionTable()

// LookupInstruction returns the table entry for opcode.
func LookupInstruction(opcode uint8) Instruction {
	return instructionTable[opcode]
}

// unofficial holds every opcode that has no documented meaning.
var unofficial = map[uint8]bool{}

func init() {
	for _, op := range []uint8{
		0x02, 0x03, 0x04, 0x07, 0x0B, 0x0C, 0x0F,
		0x12, 0x13, 0x14, 0x17, 0x1A, 0x1B, 0x1C, 0x1F,
		0x22, 0x23, 0x27, 0x2B, 0x2F,
		0x32, 0x33, 0x34, 0x37, 0x3A, 0x3B, 0x3C, 0x3F,
		0x42, 0x43, 0x44, 0x47, 0x4B, 0x4F,
		0x52, 0x53, 0x54, 0x57, 0x5A, 0x5B, 0x5C, 0x5F,
		0x62, 0x63, 0x64, 0x67, 0x6B, 0x6F,
		0x72, 0x73, 0x74, 0x77, 0x7A, 0x7B, 0x7C, 0x7F,
		0x80, 0x82, 0x83, 0x87, 0x89, 0x8B, 0x8F,
		0x92, 0x93, 0x97, 0x9B, 0x9C, 0x9E, 0x9F,
		0xA3, 0xA7, 0xAB, 0xAF,
		0xB2, 0xB3, 0xB7, 0xBB, 0xBF,
		0xC2, 0xC3, 0xC7, 0xCB, 0xCF,
		0xD2, 0xD3, 0xD4, 0xD7, 0xDA, 0xDB, 0xDC, 0xDF,
		0xE2, 0xE3, 0xE7, 0xEB, 0xEF,
		0xF2, 0xF3, 0xF4, 0xF7, 0xFA, 0xFB, 0xFC, 0xFF,
	} {
		unofficial[op] = true
	}
	for i := range instructionTable {
		instructionTable[i].Official = !unofficial[uint8(i)]
	}
}

// readsOperand reports whether the mnemonic only reads its operand. Only
// these pay the page-crossing penalty on indexed addressing.
func readsOperand(m Mnemonic) bool {
	switch m {
	case ADC, AND, CMP, EOR, LDA, LDX, LDY, ORA, SBC, NOP, LAX, LAS:
		return true
	}
	return false
}

func isBranch(m Mnemonic) bool {
	switch m {
	case BCC, BCS, BEQ, BMI, BNE, BPL, BVC, BVS:
		return true
	}
	return false
}

// buildInstructionTable populates all 256 opcode slots. Byte lengths come
// from the addressing mode and penalties from the mnemonic/mode pair.
func buildInstructionTable() [256]Instruction {
	var t [256]Instruction
	set := func(opcode uint8, name Mnemonic, mode AddressingMode, cycles uint8) {
		penalty := NoPenalty
		switch {
		case isBranch(name):
			penalty = BranchPenalty
		case readsOperand(name) && (mode == AbsoluteX || mode == AbsoluteY || mode == IndirectIndexed):
			penalty = PageCrossPenalty
		}
		t[opcode] = Instruction{
			Name:    name,
			Opcode:  opcode,
			Bytes:   mode.Bytes(),
			Cycles:  cycles,
			Mode:    mode,
			Penalty: penalty,
		}
	}

	// Load/Store Instructions
	set(0xA9, LDA, Immediate, 2)
	set(0xA5, LDA, ZeroPage, 3)
	set(0xB5, LDA, ZeroPageX, 4)
	set(0xAD, LDA, Absolute, 4)
	set(0xBD, LDA, AbsoluteX, 4)
	set(0xB9, LDA, AbsoluteY, 4)
	set(0xA1, LDA, IndexedIndirect, 6)
	set(0xB1, LDA, IndirectIndexed, 5)

	set(0xA2, LDX, Immediate, 2)
	set(0xA6, LDX, ZeroPage, 3)
	set(0xB6, LDX, ZeroPageY, 4)
	set(0xAE, LDX, Absolute, 4)
	set(0xBE, LDX, AbsoluteY, 4)

	set(0xA0, LDY, Immediate, 2)
	set(0xA4, LDY, ZeroPage, 3)
	set(0xB4, LDY, ZeroPageX, 4)
	set(0xAC, LDY, Absolute, 4)
	set(0xBC, LDY, AbsoluteX, 4)

	set(0x85, STA, ZeroPage, 3)
	set(0x95, STA, ZeroPageX, 4)
	set(0x8D, STA, Absolute, 4)
	set(0x9D, STA, AbsoluteX, 5)
	set(0x99, STA, AbsoluteY, 5)
	set(0x81, STA, IndexedIndirect, 6)
	set(0x91, STA, IndirectIndexed, 6)

	set(0x86, STX, ZeroPage, 3)
	set(0x96, STX, ZeroPageY, 4)
	set(0x8E, STX, Absolute, 4)

	set(0x84, STY, ZeroPage, 3)
	set(0x94, STY, ZeroPageX, 4)
	set(0x8C, STY, Absolute, 4)

	// Arithmetic Instructions
	set(0x69, ADC, Immediate, 2)
	set(0x65, ADC, ZeroPage, 3)
	set(0x75, ADC, ZeroPageX, 4)
	set(0x6D, ADC, Absolute, 4)
	set(0x7D, ADC, AbsoluteX, 4)
	set(0x79, ADC, AbsoluteY, 4)
	set(0x61, ADC, IndexedIndirect, 6)
	set(0x71, ADC, IndirectIndexed, 5)

	set(0xE9, SBC, Immediate, 2)
	set(0xE5, SBC, ZeroPage, 3)
	set(0xF5, SBC, ZeroPageX, 4)
	set(0xED, SBC, Absolute, 4)
	set(0xFD, SBC, AbsoluteX, 4)
	set(0xF9, SBC, AbsoluteY, 4)
	set(0xE1, SBC, IndexedIndirect, 6)
	set(0xF1, SBC, IndirectIndexed, 5)

	// Logical Instructions
	set(0x29, AND, Immediate, 2)
	set(0x25, AND, ZeroPage, 3)
	set(0x35, AND, ZeroPageX, 4)
	set(0x2D, AND, Absolute, 4)
	set(0x3D, AND, AbsoluteX, 4)
	set(0x39, AND, AbsoluteY, 4)
	set(0x21, AND, IndexedIndirect, 6)
	set(0x31, AND, IndirectIndexed, 5)

	set(0x09, ORA, Immediate, 2)
	set(0x05, ORA, ZeroPage, 3)
	set(0x15, ORA, ZeroPageX, 4)
	set(0x0D, ORA, Absolute, 4)
	set(0x1D, ORA, AbsoluteX, 4)
	set(0x19, ORA, AbsoluteY, 4)
	set(0x01, ORA, IndexedIndirect, 6)
	set(0x11, ORA, IndirectIndexed, 5)

	set(0x49, EOR, Immediate, 2)
	set(0x45, EOR, ZeroPage, 3)
	set(0x55, EOR, ZeroPageX, 4)
	set(0x4D, EOR, Absolute, 4)
	set(0x5D, EOR, AbsoluteX, 4)
	set(0x59, EOR, AbsoluteY, 4)
	set(0x41, EOR, IndexedIndirect, 6)
	set(0x51, EOR, IndirectIndexed, 5)

	// Shift and Rotate Instructions
	set(0x0A, ASL, Accumulator, 2)
	set(0x06, ASL, ZeroPage, 5)
	set(0x16, ASL, ZeroPageX, 6)
	set(0x0E, ASL, Absolute, 6)
	set(0x1E, ASL, AbsoluteX, 7)

	set(0x4A, LSR, Accumulator, 2)
	set(0x46, LSR, ZeroPage, 5)
	set(0x56, LSR, ZeroPageX, 6)
	set(0x4E, LSR, Absolute, 6)
	set(0x5E, LSR, AbsoluteX, 7)

	set(0x2A, ROL, Accumulator, 2)
	set(0x26, ROL, ZeroPage, 5)
	set(0x36, ROL, ZeroPageX, 6)
	set(0x2E, ROL, Absolute, 6)
	set(0x3E, ROL, AbsoluteX, 7)

	set(0x6A, ROR, Accumulator, 2)
	set(0x66, ROR, ZeroPage, 5)
	set(0x76, ROR, ZeroPageX, 6)
	set(0x6E, ROR, Absolute, 6)
	set(0x7E, ROR, AbsoluteX, 7)

	// Comparison Instructions
	set(0xC9, CMP, Immediate, 2)
	set(0xC5, CMP, ZeroPage, 3)
	set(0xD5, CMP, ZeroPageX, 4)
	set(0xCD, CMP, Absolute, 4)
	set(0xDD, CMP, AbsoluteX, 4)
	set(0xD9, CMP, AbsoluteY, 4)
	set(0xC1, CMP, IndexedIndirect, 6)
	set(0xD1, CMP, IndirectIndexed, 5)

	set(0xE0, CPX, Immediate, 2)
	set(0xE4, CPX, ZeroPage, 3)
	set(0xEC, CPX, Absolute, 4)

	set(0xC0, CPY, Immediate, 2)
	set(0xC4, CPY, ZeroPage, 3)
	set(0xCC, CPY, Absolute, 4)

	// Increment/Decrement Instructions
	set(0xE6, INC, ZeroPage, 5)
	set(0xF6, INC, ZeroPageX, 6)
	set(0xEE, INC, Absolute, 6)
	set(0xFE, INC, AbsoluteX, 7)

	set(0xC6, DEC, ZeroPage, 5)
	set(0xD6, DEC, ZeroPageX, 6)
	set(0xCE, DEC, Absolute, 6)
	set(0xDE, DEC, AbsoluteX, 7)

	set(0xE8, INX, Implied, 2)
	set(0xCA, DEX, Implied, 2)
	set(0xC8, INY, Implied, 2)
	set(0x88, DEY, Implied, 2)

	// Transfer Instructions
	set(0xAA, TAX, Implied, 2)
	set(0x8A, TXA, Implied, 2)
	set(0xA8, TAY, Implied, 2)
	set(0x98, TYA, Implied, 2)
	set(0xBA, TSX, Implied, 2)
	set(0x9A, TXS, Implied, 2)

	// Stack Instructions
	set(0x48, PHA, Implied, 3)
	set(0x68, PLA, Implied, 4)
	set(0x08, PHP, Implied, 3)
	set(0x28, PLP, Implied, 4)

	// Flag Instructions
	set(0x18, CLC, Implied, 2)
	set(0x38, SEC, Implied, 2)
	set(0x58, CLI, Implied, 2)
	set(0x78, SEI, Implied, 2)
	set(0xB8, CLV, Implied, 2)
	set(0xD8, CLD, Implied, 2)
	set(0xF8, SED, Implied, 2)

	// Control Flow Instructions
	set(0x4C, JMP, Absolute, 3)
	set(0x6C, JMP, Indirect, 5)
	set(0x20, JSR, Absolute, 6)
	set(0x60, RTS, Implied, 6)
	set(0x40, RTI, Implied, 6)

	// Branch Instructions
	set(0x90, BCC, Relative, 2)
	set(0xB0, BCS, Relative, 2)
	set(0xD0, BNE, Relative, 2)
	set(0xF0, BEQ, Relative, 2)
	set(0x10, BPL, Relative, 2)
	set(0x30, BMI, Relative, 2)
	set(0x50, BVC, Relative, 2)
	set(0x70, BVS, Relative, 2)

	// Miscellaneous Instructions
	set(0x24, BIT, ZeroPage, 3)
	set(0x2C, BIT, Absolute, 4)
	set(0xEA, NOP, Implied, 2)
	// BRK is one opcode byte plus a padding byte skipped on return.
	set(0x00, BRK, Implied, 7)

	// Unofficial NOPs
	for _, op := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		set(op, NOP, Implied, 2)
	}
	for _, op := range []uint8{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		set(op, NOP, Immediate, 2)
	}
	for _, op := range []uint8{0x04, 0x44, 0x64} {
		set(op, NOP, ZeroPage, 3)
	}
	for _, op := range []uint8{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		set(op, NOP, ZeroPageX, 4)
	}
	set(0x0C, NOP, Absolute, 4)
	for _, op := range []uint8{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		set(op, NOP, AbsoluteX, 4)
	}

	// Processor lock-up
	for _, op := range []uint8{0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2} {
		set(op, JAM, Implied, 2)
	}

	// Unofficial Opcodes
	set(0xA7, LAX, ZeroPage, 3)
	set(0xB7, LAX, ZeroPageY, 4)
	set(0xAF, LAX, Absolute, 4)
	set(0xBF, LAX, AbsoluteY, 4)
	set(0xA3, LAX, IndexedIndirect, 6)
	set(0xB3, LAX, IndirectIndexed, 5)

	set(0x87, SAX, ZeroPage, 3)
	set(0x97, SAX, ZeroPageY, 4)
	set(0x8F, SAX, Absolute, 4)
	set(0x83, SAX, IndexedIndirect, 6)

	set(0xEB, SBC, Immediate, 2)

	set(0xC7, DCP, ZeroPage, 5)
	set(0xD7, DCP, ZeroPageX, 6)
	set(0xCF, DCP, Absolute, 6)
	set(0xDF, DCP, AbsoluteX, 7)
	set(0xDB, DCP, AbsoluteY, 7)
	set(0xC3, DCP, IndexedIndirect, 8)
	set(0xD3, DCP, IndirectIndexed, 8)

	set(0xE7, ISB, ZeroPage, 5)
	set(0xF7, ISB, ZeroPageX, 6)
	set(0xEF, ISB, Absolute, 6)
	set(0xFF, ISB, AbsoluteX, 7)
	set(0xFB, ISB, AbsoluteY, 7)
	set(0xE3, ISB, IndexedIndirect, 8)
	set(0xF3, ISB, IndirectIndexed, 8)

	set(0x07, SLO, ZeroPage, 5)
	set(0x17, SLO, ZeroPageX, 6)
	set(0x0F, SLO, Absolute, 6)
	set(0x1F, SLO, AbsoluteX, 7)
	set(0x1B, SLO, AbsoluteY, 7)
	set(0x03, SLO, IndexedIndirect, 8)
	set(0x13, SLO, IndirectIndexed, 8)

	set(0x27, RLA, ZeroPage, 5)
	set(0x37, RLA, ZeroPageX, 6)
	set(0x2F, RLA, Absolute, 6)
	set(0x3F, RLA, AbsoluteX, 7)
	set(0x3B, RLA, AbsoluteY, 7)
	set(0x23, RLA, IndexedIndirect, 8)
	set(0x33, RLA, IndirectIndexed, 8)

	set(0x47, SRE, ZeroPage, 5)
	set(0x57, SRE, ZeroPageX, 6)
	set(0x4F, SRE, Absolute, 6)
	set(0x5F, SRE, AbsoluteX, 7)
	set(0x5B, SRE, AbsoluteY, 7)
	set(0x43, SRE, IndexedIndirect, 8)
	set(0x53, SRE, IndirectIndexed, 8)

	set(0x67, RRA, ZeroPage, 5)
	set(0x77, RRA, ZeroPageX, 6)
	set(0x6F, RRA, Absolute, 6)
	set(0x7F, RRA, AbsoluteX, 7)
	set(0x7B, RRA, AbsoluteY, 7)
	set(0x63, RRA, IndexedIndirect, 8)
	set(0x73, RRA, IndirectIndexed, 8)

	set(0x0B, ANC, Immediate, 2)
	set(0x2B, ANC, Immediate, 2)
	set(0x4B, ALR, Immediate, 2)
	set(0x6B, ARR, Immediate, 2)
	set(0x8B, XAA, Immediate, 2)
	set(0xAB, LXA, Immediate, 2)
	set(0xCB, AXS, Immediate, 2)
	set(0xBB, LAS, AbsoluteY, 4)

	set(0x9B, TAS, AbsoluteY, 5)
	set(0x9C, SHY, AbsoluteX, 5)
	set(0x9E, SHX, AbsoluteY, 5)
	set(0x9F, AHX, AbsoluteY, 5)
	set(0x93, AHX, IndirectIndexed, 6)

	return t
}
