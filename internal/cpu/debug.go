package cpu

import (
	"fmt"
	"strings"
)

// loopThreshold is how many consecutive fetches at one PC count as a stuck loop.
const loopThreshold = 100

// Peeker is implemented by memories that can be read without side effects.
type Peeker interface {
	Peek(address uint16) uint8
}

// EnableDebugLogging turns per-instruction logging on or off.
func (cpu *CPU) EnableDebugLogging(enable bool) {
	cpu.enableDebugLogging = enable
}

// EnableLoopDetection turns stuck-PC detection on or off.
func (cpu *CPU) EnableLoopDetection(enable bool) {
	cpu.enableLoopDetection = enable
	cpu.pcStayCount = 0
}

// detectInfiniteLoop detects when CPU is stuck at the same PC
func (cpu *CPU) detectInfiniteLoop(pc uint16, opcode uint8) {
	if pc != cpu.lastPC {
		cpu.pcStayCount = 0
		cpu.lastPC = pc
		return
	}
	cpu.pcStayCount++
	if cpu.pcStayCount == loopThreshold {
		cpu.logger.Printf("[CPU_LOOP] CPU stuck at PC=$%04X executing opcode=0x%02X", pc, opcode)
		cpu.logCPUState(pc, opcode)
	} else if cpu.pcStayCount > loopThreshold && cpu.pcStayCount%1000 == 0 {
		cpu.logCPUState(pc, opcode)
	}
}

// LoopCount returns how many consecutive times the current PC has been fetched.
func (cpu *CPU) LoopCount() int {
	return cpu.pcStayCount
}

func (cpu *CPU) logInstruction(pc uint16, opcode uint8, inst *Instruction) {
	cpu.logger.Printf("[CPU_DEBUG] PC=$%04X: %s (0x%02X) | A=$%02X X=$%02X Y=$%02X SP=$%02X | %s",
		pc, inst.Name, opcode, cpu.A, cpu.X, cpu.Y, cpu.SP, cpu.getFlagsString())
}

// logCPUState logs detailed CPU state during infinite loops. Operand bytes are
// only shown when the memory can be peeked.
func (cpu *CPU) logCPUState(pc uint16, opcode uint8) {
	operands := ""
	if p, ok := cpu.memory.(Peeker); ok {
		operands = fmt.Sprintf(" %02X %02X", p.Peek(pc+1), p.Peek(pc+2))
	}
	cpu.logger.Printf("[CPU_STATE] PC=$%04X: %s (0x%02X%s) | A=$%02X X=$%02X Y=$%02X SP=$%02X | %s | Cycles=%d",
		pc, instructionTable[opcode].Name, opcode, operands, cpu.A, cpu.X, cpu.Y, cpu.SP, cpu.getFlagsString(), cpu.cycles)
}

// getFlagsString returns CPU flags as string
func (cpu *CPU) getFlagsString() string {
	var b strings.Builder
	for _, f := range []struct {
		set  bool
		name byte
	}{
		{cpu.N, 'N'}, {cpu.V, 'V'}, {true, 'U'}, {false, 'B'},
		{cpu.D, 'D'}, {cpu.I, 'I'}, {cpu.Z, 'Z'}, {cpu.C, 'C'},
	} {
		if f.set {
			b.WriteByte(f.name)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Disassemble decodes the instruction at pc using peek, which must not have
// side effects. It returns the assembly text and the instruction length.
func Disassemble(peek func(uint16) uint8, pc uint16) (string, int) {
	inst := &instructionTable[peek(pc)]
	lo := peek(pc + 1)
	word := uint16(peek(pc+2))<<8 | uint16(lo)

	var operand string
	switch inst.Mode {
	case Accumulator:
		operand = "A"
	case Immediate:
		operand = fmt.Sprintf("#$%02X", lo)
	case ZeroPage:
		operand = fmt.Sprintf("$%02X", lo)
	case ZeroPageX:
		operand = fmt.Sprintf("$%02X,X", lo)
	case ZeroPageY:
		operand = fmt.Sprintf("$%02X,Y", lo)
	case Relative:
		operand = fmt.Sprintf("$%04X", uint16(int32(pc)+2+int32(int8(lo))))
	case Absolute:
		operand = fmt.Sprintf("$%04X", word)
	case AbsoluteX:
		operand = fmt.Sprintf("$%04X,X", word)
	case AbsoluteY:
		operand = fmt.Sprintf("$%04X,Y", word)
	case Indirect:
		operand = fmt.Sprintf("($%04X)", word)
	case IndexedIndirect:
		operand = fmt.Sprintf("($%02X,X)", lo)
	case IndirectIndexed:
		operand = fmt.Sprintf("($%02X),Y", lo)
	}

	if operand == "" {
		return inst.Name.String(), int(inst.Bytes)
	}
	return inst.Name.String() + " " + operand, int(inst.Bytes)
}

// Trace formats the instruction at PC and the register state in the layout of
// the nestest reference log:
//
//	C000  4C F5 C5  JMP $C5F5                       A:00 X:00 Y:00 P:24 SP:FD CYC:7
//
// Unofficial opcodes are marked with '*' before the mnemonic.
func (cpu *CPU) Trace(peek func(uint16) uint8) string {
	text, length := Disassemble(peek, cpu.PC)

	raw := make([]string, length)
	for i := range raw {
		raw[i] = fmt.Sprintf("%02X", peek(cpu.PC+uint16(i)))
	}

	marker := " "
	if !instructionTable[peek(cpu.PC)].Official {
		marker = "*"
	}

	return fmt.Sprintf("%04X  %-8s %s%-32sA:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
		cpu.PC, strings.Join(raw, " "), marker, text,
		cpu.A, cpu.X, cpu.Y, cpu.GetStatusByte(), cpu.SP, cpu.cycles)
}
