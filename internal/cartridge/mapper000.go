package cartridge

// Mapper000 implements NROM (mapper 0), which has no bank switching.
// Memory map:
//
//	$6000-$7FFF: 8 KiB PRG RAM, when fitted
//	$8000-$FFFF: PRG ROM; a 16 KiB image appears twice
//
// Everything below $6000 is left to open bus.
type Mapper000 struct {
	cart *Cartridge
	mask uint16
}

// NewMapper000 creates a new NROM mapper
func NewMapper000(cart *Cartridge) *Mapper000 {
	return &Mapper000{
		cart: cart,
		mask: uint16(len(cart.prgROM) - 1),
	}
}

func (m *Mapper000) ReadPRG(address uint16) uint8 {
	if address >= prgROMStart {
		return m.cart.prgROM[(address-prgROMStart)&m.mask]
	}
	if m.cart.HasPRGRAM() && address >= prgRAMStart {
		return m.cart.prgRAM[address-prgRAMStart]
	}
	return 0
}

func (m *Mapper000) WritePRG(address uint16, value uint8) {
	if address >= prgRAMStart && address < prgROMStart && m.cart.HasPRGRAM() {
		m.cart.prgRAM[address-prgRAMStart] = value
	}
}

func (m *Mapper000) MapsPRG(address uint16) bool {
	if address >= prgROMStart {
		return true
	}
	return address >= prgRAMStart && m.cart.HasPRGRAM()
}
