package cpu

import (
	"testing"
)

// flatMemory is a bare 64KB array for benchmarks, without the access
// recording MockMemory does.
type flatMemory [0x10000]uint8

func (m *flatMemory) Read(address uint16) uint8         { return m[address] }
func (m *flatMemory) Write(address uint16, value uint8) { m[address] = value }

func newBenchCPU(program ...uint8) *CPU {
	memory := &flatMemory{}
	copy(memory[0x8000:], program)
	memory[ResetVector] = 0x00
	memory[ResetVector+1] = 0x80
	cpu := New(memory)
	cpu.Reset()
	return cpu
}

// BenchmarkBasicInstructions benchmarks fundamental CPU instruction performance
func BenchmarkBasicInstructions(b *testing.B) {
	b.Run("NOP", func(b *testing.B) {
		cpu := newBenchCPU(0xEA, 0x4C, 0x00, 0x80) // NOP; JMP $8000

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			cpu.Step()
		}

		b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "instructions/sec")
	})

	b.Run("Arithmetic Loop", func(b *testing.B) {
		cpu := newBenchCPU(
			0x18,             // CLC
			0x69, 0x01,       // ADC #$01
			0xE9, 0x01,       // SBC #$01
			0xE6, 0x10,       // INC $10
			0xBD, 0xF0, 0x02, // LDA $02F0,X
			0xE8,             // INX
			0xD0, 0xF3,       // BNE $8000
			0x4C, 0x00, 0x80, // JMP $8000
		)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			cpu.Step()
		}

		b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "instructions/sec")
	})
}

// BenchmarkTick measures per-cycle stepping
func BenchmarkTick(b *testing.B) {
	cpu := newBenchCPU(0xEE, 0x00, 0x02, 0x4C, 0x00, 0x80) // INC $0200; JMP $8000

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cpu.Tick()
	}
	b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "cycles/sec")
}
