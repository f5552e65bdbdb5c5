package cpu

// Addressing modes
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

var addressingModeNames = [...]string{
	Implied:         "Implied",
	Accumulator:     "Accumulator",
	Immediate:       "Immediate",
	ZeroPage:        "ZeroPage",
	ZeroPageX:       "ZeroPageX",
	ZeroPageY:       "ZeroPageY",
	Relative:        "Relative",
	Absolute:        "Absolute",
	AbsoluteX:       "AbsoluteX",
	AbsoluteY:       "AbsoluteY",
	Indirect:        "Indirect",
	IndexedIndirect: "IndexedIndirect",
	IndirectIndexed: "IndirectIndexed",
}

func (mode AddressingMode) String() string {
	if mode >= 0 && int(mode) < len(addressingModeNames) {
		return addressingModeNames[mode]
	}
	return "Unknown"
}

// Bytes returns the instruction length, opcode included, for the mode.
func (mode AddressingMode) Bytes() uint8 {
	switch mode {
	case Implied, Accumulator:
		return 1
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 3
	default:
		return 2
	}
}

// operandAddress returns the effective address for the instruction's
// addressing mode, advancing PC past the operand bytes. PC must already point
// past the opcode. The second return reports whether indexing crossed a page.
func (cpu *CPU) operandAddress(inst *Instruction) (uint16, bool) {
	switch inst.Mode {
	case Implied, Accumulator:
		return 0, false

	case Immediate:
		address := cpu.PC
		cpu.PC++
		return address, false

	case ZeroPage:
		address := uint16(cpu.read(cpu.PC))
		cpu.PC++
		return address, false

	case ZeroPageX:
		base := cpu.read(cpu.PC)
		cpu.PC++
		return uint16(base + cpu.X), false // wraps within zero page

	case ZeroPageY:
		base := cpu.read(cpu.PC)
		cpu.PC++
		return uint16(base + cpu.Y), false

	case Relative:
		offset := int8(cpu.read(cpu.PC))
		cpu.PC++
		target := uint16(int32(cpu.PC) + int32(offset))
		return target, !samePage(cpu.PC, target)

	case Absolute:
		address := cpu.readWord(cpu.PC)
		cpu.PC += 2
		return address, false

	case AbsoluteX:
		base := cpu.readWord(cpu.PC)
		cpu.PC += 2
		return cpu.indexed(inst, base, cpu.X)

	case AbsoluteY:
		base := cpu.readWord(cpu.PC)
		cpu.PC += 2
		return cpu.indexed(inst, base, cpu.Y)

	case Indirect: // Only used by JMP
		ptr := cpu.readWord(cpu.PC)
		cpu.PC += 2
		return cpu.readWordWrap(ptr), false

	case IndexedIndirect:
		ptr := cpu.read(cpu.PC) + cpu.X
		cpu.PC++
		return cpu.readWordWrap(uint16(ptr)), false

	case IndirectIndexed:
		ptr := cpu.read(cpu.PC)
		cpu.PC++
		base := cpu.readWordWrap(uint16(ptr))
		return cpu.indexed(inst, base, cpu.Y)

	default:
		return 0, false
	}
}

// indexed adds index to base. The 6502 adds the low byte first and reads the
// un-carried address before fixing the high byte; that read happens on every
// page crossing and always for stores and read-modify-write instructions.
// It is visible to register windows with read side effects.
func (cpu *CPU) indexed(inst *Instruction, base uint16, index uint8) (uint16, bool) {
	address := base + uint16(index)
	crossed := !samePage(base, address)
	if crossed || inst.Penalty != PageCrossPenalty {
		cpu.read((base & pageMask) | (address & zeroPageMask))
	}
	return address, crossed
}

func samePage(a, b uint16) bool {
	return a&pageMask == b&pageMask
}
