package cpu

// execute runs the instruction's effect against the resolved address and
// returns the cycles taken beyond the base count.
func (cpu *CPU) execute(inst *Instruction, address uint16, pageCrossed bool) uint8 {
	switch inst.Name {
	// Load/Store Instructions
	case LDA:
		cpu.A = cpu.read(address)
		cpu.setZN(cpu.A)
	case LDX:
		cpu.X = cpu.read(address)
		cpu.setZN(cpu.X)
	case LDY:
		cpu.Y = cpu.read(address)
		cpu.setZN(cpu.Y)
	case STA:
		cpu.write(address, cpu.A)
	case STX:
		cpu.write(address, cpu.X)
	case STY:
		cpu.write(address, cpu.Y)

	// Arithmetic Instructions
	case ADC:
		cpu.adc(cpu.read(address))
	case SBC:
		cpu.sbc(cpu.read(address))

	// Logical Instructions
	case AND:
		cpu.A &= cpu.read(address)
		cpu.setZN(cpu.A)
	case ORA:
		cpu.A |= cpu.read(address)
		cpu.setZN(cpu.A)
	case EOR:
		cpu.A ^= cpu.read(address)
		cpu.setZN(cpu.A)

	// Shift and Rotate Instructions
	case ASL:
		cpu.shift(inst, address, cpu.asl)
	case LSR:
		cpu.shift(inst, address, cpu.lsr)
	case ROL:
		cpu.shift(inst, address, cpu.rol)
	case ROR:
		cpu.shift(inst, address, cpu.ror)

	// Comparison Instructions
	case CMP:
		cpu.compare(cpu.A, cpu.read(address))
	case CPX:
		cpu.compare(cpu.X, cpu.read(address))
	case CPY:
		cpu.compare(cpu.Y, cpu.read(address))

	// Increment/Decrement Instructions
	case INC:
		cpu.setZN(cpu.modify(address, func(v uint8) uint8 { return v + 1 }))
	case DEC:
		cpu.setZN(cpu.modify(address, func(v uint8) uint8 { return v - 1 }))
	case INX:
		cpu.X++
		cpu.setZN(cpu.X)
	case DEX:
		cpu.X--
		cpu.setZN(cpu.X)
	case INY:
		cpu.Y++
		cpu.setZN(cpu.Y)
	case DEY:
		cpu.Y--
		cpu.setZN(cpu.Y)

	// Transfer Instructions
	case TAX:
		cpu.X = cpu.A
		cpu.setZN(cpu.X)
	case TXA:
		cpu.A = cpu.X
		cpu.setZN(cpu.A)
	case TAY:
		cpu.Y = cpu.A
		cpu.setZN(cpu.Y)
	case TYA:
		cpu.A = cpu.Y
		cpu.setZN(cpu.A)
	case TSX:
		cpu.X = cpu.SP
		cpu.setZN(cpu.X)
	case TXS:
		cpu.SP = cpu.X

	// Stack Instructions
	case PHA:
		cpu.push(cpu.A)
	case PHP:
		cpu.push(cpu.GetStatusByte() | bFlagMask | unusedMask)
	case PLA:
		cpu.A = cpu.pop()
		cpu.setZN(cpu.A)
	case PLP:
		cpu.delayInterruptMask()
		cpu.SetStatusByte(cpu.pop())

	// Flag Instructions
	case CLC:
		cpu.C = false
	case SEC:
		cpu.C = true
	case CLI:
		cpu.delayInterruptMask()
		cpu.I = false
	case SEI:
		cpu.delayInterruptMask()
		cpu.I = true
	case CLV:
		cpu.V = false
	case CLD:
		cpu.D = false
	case SED:
		cpu.D = true

	// Control Flow Instructions
	case JMP:
		cpu.PC = address
	case JSR:
		cpu.pushWord(cpu.PC - 1)
		cpu.PC = address
	case RTS:
		cpu.PC = cpu.popWord() + 1
	case RTI:
		cpu.SetStatusByte(cpu.pop())
		cpu.PC = cpu.popWord()

	// Branch Instructions
	case BCC:
		return cpu.branch(!cpu.C, address, pageCrossed)
	case BCS:
		return cpu.branch(cpu.C, address, pageCrossed)
	case BNE:
		return cpu.branch(!cpu.Z, address, pageCrossed)
	case BEQ:
		return cpu.branch(cpu.Z, address, pageCrossed)
	case BPL:
		return cpu.branch(!cpu.N, address, pageCrossed)
	case BMI:
		return cpu.branch(cpu.N, address, pageCrossed)
	case BVC:
		return cpu.branch(!cpu.V, address, pageCrossed)
	case BVS:
		return cpu.branch(cpu.V, address, pageCrossed)

	// Miscellaneous Instructions
	case BIT:
		value := cpu.read(address)
		cpu.N = value&nFlagMask != 0
		cpu.V = value&vFlagMask != 0
		cpu.Z = cpu.A&value == 0
	case BRK:
		cpu.brk()
	case NOP:
		if inst.Mode != Implied {
			cpu.read(address)
		}
	case JAM:
		cpu.jam(inst)

	// Unofficial Opcodes
	case LAX:
		cpu.A = cpu.read(address)
		cpu.X = cpu.A
		cpu.setZN(cpu.A)
	case SAX:
		cpu.write(address, cpu.A&cpu.X)
	case DCP:
		cpu.compare(cpu.A, cpu.modify(address, func(v uint8) uint8 { return v - 1 }))
	case ISB:
		cpu.sbc(cpu.modify(address, func(v uint8) uint8 { return v + 1 }))
	case SLO:
		cpu.A |= cpu.modify(address, cpu.asl)
		cpu.setZN(cpu.A)
	case RLA:
		cpu.A &= cpu.modify(address, cpu.rol)
		cpu.setZN(cpu.A)
	case SRE:
		cpu.A ^= cpu.modify(address, cpu.lsr)
		cpu.setZN(cpu.A)
	case RRA:
		cpu.adc(cpu.modify(address, cpu.ror))
	case ANC:
		cpu.A &= cpu.read(address)
		cpu.setZN(cpu.A)
		cpu.C = cpu.N
	case ALR:
		cpu.A = cpu.lsr(cpu.A & cpu.read(address))
		cpu.setZN(cpu.A)
	case ARR:
		cpu.arr(cpu.read(address))
	case AXS:
		value := cpu.read(address)
		ax := cpu.A & cpu.X
		cpu.X = ax - value
		cpu.C = ax >= value
		cpu.setZN(cpu.X)
	case XAA:
		cpu.A = (cpu.A | unstableMagic) & cpu.X & cpu.read(address)
		cpu.setZN(cpu.A)
	case LXA:
		cpu.A = (cpu.A | unstableMagic) & cpu.read(address)
		cpu.X = cpu.A
		cpu.setZN(cpu.A)
	case LAS:
		value := cpu.read(address) & cpu.SP
		cpu.A, cpu.X, cpu.SP = value, value, value
		cpu.setZN(value)
	case TAS:
		cpu.SP = cpu.A & cpu.X
		cpu.storeHighAnd(address, cpu.Y, cpu.SP, pageCrossed)
	case SHY:
		cpu.storeHighAnd(address, cpu.X, cpu.Y, pageCrossed)
	case SHX:
		cpu.storeHighAnd(address, cpu.Y, cpu.X, pageCrossed)
	case AHX:
		cpu.storeHighAnd(address, cpu.Y, cpu.A&cpu.X, pageCrossed)
	}
	return 0
}

// unstableMagic is the value the analog bus ORs into A for XAA and LXA. It
// varies between chips; $EE matches the common 2A03 behavior.
const unstableMagic = 0xEE

// adc adds value and carry to A. Overflow is set when both operands share a
// sign that differs from the result's.
func (cpu *CPU) adc(value uint8) {
	var carry uint16
	if cpu.C {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(value) + carry
	cpu.V = (cpu.A^uint8(result))&(value^uint8(result))&0x80 != 0
	cpu.C = result > 0xFF
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
}

// sbc is adc of the one's complement; Carry is the inverted borrow.
func (cpu *CPU) sbc(value uint8) {
	cpu.adc(value ^ 0xFF)
}

func (cpu *CPU) compare(register, value uint8) {
	cpu.C = register >= value
	cpu.setZN(register - value)
}

// Shift and rotate operations on a value; they set C, Z and N.

func (cpu *CPU) asl(value uint8) uint8 {
	cpu.C = value&0x80 != 0
	value <<= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) lsr(value uint8) uint8 {
	cpu.C = value&0x01 != 0
	value >>= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) rol(value uint8) uint8 {
	oldCarry := cpu.C
	cpu.C = value&0x80 != 0
	value <<= 1
	if oldCarry {
		value |= 0x01
	}
	cpu.setZN(value)
	return value
}

func (cpu *CPU) ror(value uint8) uint8 {
	oldCarry := cpu.C
	cpu.C = value&0x01 != 0
	value >>= 1
	if oldCarry {
		value |= 0x80
	}
	cpu.setZN(value)
	return value
}

func (cpu *CPU) shift(inst *Instruction, address uint16, op func(uint8) uint8) {
	if inst.Mode == Accumulator {
		cpu.A = op(cpu.A)
		return
	}
	cpu.modify(address, op)
}

// modify is the read-modify-write bus pattern: read, write the unmodified
// value back, then write the result.
func (cpu *CPU) modify(address uint16, op func(uint8) uint8) uint8 {
	value := cpu.read(address)
	cpu.write(address, value)
	result := op(value)
	cpu.write(address, result)
	return result
}

func (cpu *CPU) branch(condition bool, target uint16, pageCrossed bool) uint8 {
	if !condition {
		return 0
	}
	cpu.PC = target
	if pageCrossed {
		return 2
	}
	return 1
}

// arr is AND followed by ROR of A, with C and V taken from bits 6 and 5 of
// the result.
func (cpu *CPU) arr(value uint8) {
	cpu.A &= value
	cpu.A >>= 1
	if cpu.C {
		cpu.A |= 0x80
	}
	cpu.setZN(cpu.A)
	bit6 := cpu.A&0x40 != 0
	bit5 := cpu.A&0x20 != 0
	cpu.C = bit6
	cpu.V = bit6 != bit5
}

// storeHighAnd implements SHY, SHX, AHX and TAS: the stored value is ANDed
// with the high byte of the base address plus one, and when indexing crossed
// a page that value also replaces the high byte of the target.
func (cpu *CPU) storeHighAnd(address uint16, index uint8, value uint8, pageCrossed bool) {
	base := address - uint16(index)
	value &= uint8(base>>8) + 1
	if pageCrossed {
		address = uint16(value)<<8 | address&zeroPageMask
	}
	cpu.write(address, value)
}

// brk pushes PC+2 and the status with Break set, then vectors through IRQ.
// An NMI latched by the time the vector is fetched hijacks the sequence and
// the NMI vector is used instead; the pushed Break flag still shows BRK.
func (cpu *CPU) brk() {
	cpu.read(cpu.PC) // padding byte
	cpu.PC++
	cpu.pushWord(cpu.PC)
	cpu.push(cpu.GetStatusByte() | bFlagMask | unusedMask)
	cpu.I = true
	vector := uint16(irqVector)
	if cpu.nmiPending {
		cpu.nmiPending = false
		vector = nmiVector
	}
	cpu.PC = cpu.readWord(vector)
}

// jam locks the processor up with PC left on the JAM opcode.
func (cpu *CPU) jam(inst *Instruction) {
	cpu.PC--
	cpu.halted = true
	cpu.state = Halted
	cpu.logger.Printf("[CPU_JAM] processor halted by opcode 0x%02X at PC=$%04X", inst.Opcode, cpu.PC)
}

// delayInterruptMask records the current I flag for the next interrupt poll.
func (cpu *CPU) delayInterruptMask() {
	cpu.iDelay = true
	cpu.iDelayed = cpu.I
}
