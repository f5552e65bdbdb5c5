package memory

import (
	"errors"
	"testing"
)

// peekableRegister counts reads and supports side-effect-free peeks.
type peekableRegister struct {
	value uint8
	reads int
}

func (r *peekableRegister) ReadRegister(address uint16) uint8 {
	r.reads++
	return r.value
}

func (r *peekableRegister) WriteRegister(address uint16, value uint8) {
	r.value = value
}

func (r *peekableRegister) PeekRegister(address uint16) uint8 {
	return r.value
}

func TestWindow_RegisterFuncs(t *testing.T) {
	var written []RegisterWrite
	funcs := RegisterFuncs{
		Read:  func(address uint16) uint8 { return uint8(address) },
		Write: func(address uint16, value uint8) { written = append(written, RegisterWrite{address, value}) },
	}
	mem, _ := newTestMemory(t, WithWindow(Window{Name: "test-mode", Start: 0x4018, End: 0x401F, Handler: funcs}))

	if got := mem.Read(0x401A); got != 0x1A {
		t.Errorf("Read($401A) = 0x%02X, want 0x1A", got)
	}
	mem.Write(0x401F, 0x07)
	if len(written) != 1 || written[0].Address != 0x401F || written[0].Value != 0x07 {
		t.Errorf("Write hook got %v", written)
	}
	if mem.Owner(0x4018) != "test-mode" {
		t.Errorf("Owner($4018) = %q", mem.Owner(0x4018))
	}

	// a zero-value adapter reads zero and ignores writes
	var empty RegisterFuncs
	empty.WriteRegister(0x4018, 1)
	if empty.ReadRegister(0x4018) != 0 {
		t.Error("Expected empty RegisterFuncs to read zero")
	}
}

func TestWindow_MirroredInCartridgeSpace(t *testing.T) {
	reg := &peekableRegister{value: 0x3E}
	mem, cart := newTestMemory(t, WithWindow(Window{Name: "expansion", Start: 0x5000, End: 0x5FFF, Period: 4, Handler: reg}))

	mem.Write(0x5FFE, 0x11)
	if got := mem.Read(0x5002); got != 0x11 {
		t.Errorf("Read($5002) = 0x%02X, want mirrored 0x11", got)
	}
	if len(cart.prgWrites) != 0 {
		t.Error("Window write leaked to the cartridge")
	}
	if mem.Owner(0x4FFF) != "cartridge" || mem.Owner(0x6000) != "cartridge" {
		t.Error("Expected the cartridge to keep the space around the window")
	}

	reads := reg.reads
	if got := mem.Peek(0x5001); got != 0x11 || reg.reads != reads {
		t.Errorf("Peek($5001) = 0x%02X with %d extra reads", got, reg.reads-reads)
	}
}

func TestWindow_ConfigErrors(t *testing.T) {
	handler := RegisterFuncs{}
	testCases := []struct {
		name string
		opts []Option
		want error
	}{
		{
			name: "overlaps RAM",
			opts: []Option{WithWindow(Window{Name: "bad", Start: 0x1F00, End: 0x2000, Handler: handler})},
			want: ErrRegionOverlap,
		},
		{
			name: "overlaps PPU",
			opts: []Option{WithPPU(&MockPPU{}), WithWindow(Window{Name: "bad", Start: 0x3000, End: 0x3000, Handler: handler})},
			want: ErrRegionOverlap,
		},
		{
			name: "overlaps IO",
			opts: []Option{WithWindow(Window{Name: "bad", Start: 0x4017, End: 0x4018, Handler: handler})},
			want: ErrRegionOverlap,
		},
		{
			name: "overlaps another window",
			opts: []Option{
				WithWindow(Window{Name: "a", Start: 0x5000, End: 0x50FF, Handler: handler}),
				WithWindow(Window{Name: "b", Start: 0x50FF, End: 0x51FF, Handler: handler}),
			},
			want: ErrRegionOverlap,
		},
		{
			name: "no handler",
			opts: []Option{WithWindow(Window{Name: "bad", Start: 0x5000, End: 0x50FF})},
			want: ErrInvalidWindow,
		},
		{
			name: "end before start",
			opts: []Option{WithWindow(Window{Name: "bad", Start: 0x5100, End: 0x5000, Handler: handler})},
			want: ErrInvalidWindow,
		},
		{
			name: "period larger than window",
			opts: []Option{WithWindow(Window{Name: "bad", Start: 0x5000, End: 0x5003, Period: 8, Handler: handler})},
			want: ErrInvalidWindow,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mem, err := New(&MockCartridge{}, tc.opts...)
			if mem != nil {
				t.Error("Expected no memory on configuration error")
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Expected *ConfigError, got %T", err)
			}
		})
	}
}

func TestOAMDMA_Callback(t *testing.T) {
	var pages []uint8
	mem, _ := newTestMemory(t, WithDMA(func(page uint8) { pages = append(pages, page) }))

	mem.Write(OAMDMARegister, 0x02)
	mem.SetDMACallback(func(page uint8) { pages = append(pages, page+0x10) })
	mem.Write(OAMDMARegister, 0x03)

	if len(pages) != 2 || pages[0] != 0x02 || pages[1] != 0x13 {
		t.Errorf("DMA callbacks got %v", pages)
	}
}

func TestOAMDMA_FallbackCopiesToPPU(t *testing.T) {
	ppu := &MockPPU{}
	mem, _ := newTestMemory(t, WithPPU(ppu))
	for i := 0; i < 256; i++ {
		mem.Write(0x0200+uint16(i), uint8(i))
	}

	mem.Write(OAMDMARegister, 0x02)

	if len(ppu.writeCalls) != 256 {
		t.Fatalf("Expected 256 OAM writes, got %d", len(ppu.writeCalls))
	}
	for i, w := range ppu.writeCalls {
		if w.Address != OAMDataRegister || w.Value != uint8(i) {
			t.Fatalf("write %d = %+v", i, w)
		}
	}
}
