package mapper

import (
	"errors"
	"testing"
)

func mustNew(t *testing.T, id uint8, mirroring Mirroring, prg, chr uint8) Mapper {
	t.Helper()
	m, err := New(id, mirroring)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Init(prg, chr); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNewUnsupported(t *testing.T) {
	_, err := New(200, Horizontal)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestSupported(t *testing.T) {
	want := []uint8{0, 1, 2, 3, 4, 7}
	got := Supported()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}
	if Name(4) != "MMC3" {
		t.Errorf("Expected MMC3, got %s", Name(4))
	}
}

func TestInitBankCount(t *testing.T) {
	tests := []struct {
		id       uint8
		prg, chr uint8
	}{
		{0, 0, 1},
		{0, 3, 1},
		{0, 2, 2},
		{1, 17, 0},
		{2, 0, 0},
		{3, 4, 4},
		{4, 33, 0},
		{7, 3, 0},
	}
	for _, tc := range tests {
		m, err := New(tc.id, Horizontal)
		if err != nil {
			t.Fatal(err)
		}
		if err := m.Init(tc.prg, tc.chr); !errors.Is(err, ErrBankCount) {
			t.Errorf("mapper %d prg=%d chr=%d: expected ErrBankCount, got %v", tc.id, tc.prg, tc.chr, err)
		}
	}
}

func TestNROMMirroring(t *testing.T) {
	m := mustNew(t, 0, Vertical, 1, 1)
	for _, addr := range []uint16{0x8000, 0x9234, 0xBFFF} {
		lo := m.MapRead(addr, CPU)
		hi := m.MapRead(addr+0x4000, CPU)
		if lo != hi {
			t.Errorf("$%04X and $%04X resolve differently: %v %v", addr, addr+0x4000, lo, hi)
		}
	}

	m = mustNew(t, 0, Vertical, 2, 1)
	if loc := m.MapRead(0xC000, CPU); loc.Offset != 0x4000 {
		t.Errorf("Expected offset $4000 for 32KB NROM, got $%X", loc.Offset)
	}
	if loc := m.MapRead(0x4020, CPU); loc.Target != None {
		t.Errorf("Expected $4020 unmapped, got %v", loc)
	}
	if m.Mirroring() != Vertical {
		t.Errorf("Expected vertical mirroring, got %v", m.Mirroring())
	}
}

func TestMapReadIsPure(t *testing.T) {
	m := mustNew(t, 4, Horizontal, 8, 8)
	before, _ := m.Save()
	for addr := 0; addr < 0x2000; addr += 0x10 {
		m.MapRead(uint16(addr), PPU)
	}
	for addr := 0x6000; addr < 0x10000; addr += 0x100 {
		m.MapRead(uint16(addr), CPU)
	}
	after, _ := m.Save()
	if string(before) != string(after) {
		t.Error("MapRead changed mapper state")
	}
}

// mmc1Write loads a 5-bit value through the serial port.
func mmc1Write(m Mapper, addr uint16, value byte) {
	c := m.(Clocked)
	for i := 0; i < 5; i++ {
		m.MapWrite(addr, (value>>i)&1, CPU)
		c.Clock()
		c.Clock()
	}
}

func TestMMC1PRGSwitch(t *testing.T) {
	m := mustNew(t, 1, Horizontal, 8, 2)

	// power-on: mode 3, last bank fixed at $C000
	if loc := m.MapRead(0xC000, CPU); loc.Offset != 7*PRGBankSize {
		t.Errorf("Expected last bank at $C000, got $%X", loc.Offset)
	}

	fixed := m.MapRead(0xC123, CPU)
	chr := m.MapRead(0x0123, PPU)
	mmc1Write(m, 0xE000, 0x03)

	if loc := m.MapRead(0x8000, CPU); loc.Offset != 3*PRGBankSize {
		t.Errorf("Expected bank 3 at $8000, got $%X", loc.Offset)
	}
	if loc := m.MapRead(0xC123, CPU); loc != fixed {
		t.Errorf("$C000 window changed: %v -> %v", fixed, loc)
	}
	if loc := m.MapRead(0x0123, PPU); loc != chr {
		t.Errorf("CHR window changed: %v -> %v", chr, loc)
	}
}

func TestMMC1ResetBitAndConsecutiveWrites(t *testing.T) {
	m := mustNew(t, 1, Horizontal, 8, 2)
	c := m.(Clocked)

	// three bits then a reset: the partial value is discarded
	for i := 0; i < 3; i++ {
		m.MapWrite(0xE000, 1, CPU)
		c.Clock()
		c.Clock()
	}
	m.MapWrite(0x8000, 0x80, CPU)
	c.Clock()
	c.Clock()
	mmc1Write(m, 0xE000, 0x02)
	if loc := m.MapRead(0x8000, CPU); loc.Offset != 2*PRGBankSize {
		t.Errorf("Expected bank 2 after reset, got $%X", loc.Offset)
	}

	// a write on the very next cycle is dropped
	for i := 0; i < 5; i++ {
		m.MapWrite(0xE000, 1, CPU)
		c.Clock()
		m.MapWrite(0xE000, 0, CPU)
		c.Clock()
		c.Clock()
	}
	if loc := m.MapRead(0x8000, CPU); loc.Offset != 0x1F%8*PRGBankSize {
		t.Errorf("Expected bank 7 from ignored second writes, got $%X", loc.Offset)
	}
}

func TestMMC1MirroringAndCHR(t *testing.T) {
	m := mustNew(t, 1, Horizontal, 2, 4)
	mmc1Write(m, 0x8000, 0x12) // 4KB CHR, vertical
	if m.Mirroring() != Vertical {
		t.Errorf("Expected vertical, got %v", m.Mirroring())
	}
	mmc1Write(m, 0xA000, 0x05)
	mmc1Write(m, 0xC000, 0x02)
	if loc := m.MapRead(0x0010, PPU); loc.Offset != 5*0x1000+0x10 {
		t.Errorf("Expected CHR bank 5, got $%X", loc.Offset)
	}
	if loc := m.MapRead(0x1010, PPU); loc.Offset != 2*0x1000+0x10 {
		t.Errorf("Expected CHR bank 2, got $%X", loc.Offset)
	}
}

func TestMMC1RAMDisable(t *testing.T) {
	m := mustNew(t, 1, Horizontal, 2, 0)
	if loc := m.MapWrite(0x6005, 0x42, CPU); loc.Target != RAM || loc.Offset != 5 {
		t.Errorf("Expected RAM write at offset 5, got %v", loc)
	}
	mmc1Write(m, 0xE000, 0x10)
	if loc := m.MapRead(0x6005, CPU); loc.Target != None {
		t.Errorf("Expected RAM disabled, got %v", loc)
	}
}

func TestUxROMBankSwitch(t *testing.T) {
	m := mustNew(t, 2, Vertical, 8, 0)
	fixed := m.MapRead(0xC000, CPU)
	m.MapWrite(0x8000, 5, CPU)
	if loc := m.MapRead(0x8001, CPU); loc.Offset != 5*PRGBankSize+1 {
		t.Errorf("Expected bank 5, got $%X", loc.Offset)
	}
	if loc := m.MapRead(0xC000, CPU); loc != fixed || loc.Offset != 7*PRGBankSize {
		t.Errorf("Fixed bank moved: %v", loc)
	}
	m.MapWrite(0x8000, 13, CPU)
	if loc := m.MapRead(0x8000, CPU); loc.Offset != 5*PRGBankSize {
		t.Errorf("Expected select to wrap to bank 5, got $%X", loc.Offset)
	}
	if !m.(BusConflicter).BusConflicts() {
		t.Error("Expected UxROM to report bus conflicts")
	}
}

func TestCNROMBankSwitch(t *testing.T) {
	m := mustNew(t, 3, Horizontal, 2, 4)
	prg := m.MapRead(0x8000, CPU)
	m.MapWrite(0x8000, 2, CPU)
	if loc := m.MapRead(0x0100, PPU); loc.Offset != 2*CHRBankSize+0x100 {
		t.Errorf("Expected CHR bank 2, got $%X", loc.Offset)
	}
	if loc := m.MapRead(0x8000, CPU); loc != prg {
		t.Errorf("PRG moved: %v -> %v", prg, loc)
	}
}

func TestMMC3Banks(t *testing.T) {
	m := mustNew(t, 4, Vertical, 8, 16) // 16 PRG 8KB banks, 128 CHR 1KB banks

	m.MapWrite(0x8000, 6, CPU)
	m.MapWrite(0x8001, 3, CPU)
	m.MapWrite(0x8000, 7, CPU)
	m.MapWrite(0x8001, 4, CPU)

	tests := []struct {
		addr uint16
		bank uint32
	}{
		{0x8000, 3},
		{0xA000, 4},
		{0xC000, 14},
		{0xE000, 15},
	}
	for _, tc := range tests {
		if loc := m.MapRead(tc.addr, CPU); loc.Offset != tc.bank*0x2000 {
			t.Errorf("$%04X: expected bank %d, got $%X", tc.addr, tc.bank, loc.Offset)
		}
	}

	// PRG mode 1 swaps $8000 and $C000
	m.MapWrite(0x8000, 0x46, CPU)
	if loc := m.MapRead(0x8000, CPU); loc.Offset != 14*0x2000 {
		t.Errorf("Expected second-to-last bank at $8000, got $%X", loc.Offset)
	}
	if loc := m.MapRead(0xC000, CPU); loc.Offset != 3*0x2000 {
		t.Errorf("Expected bank 3 at $C000, got $%X", loc.Offset)
	}

	// CHR register 2 drives $1000 until inversion moves it to $0000
	m.MapWrite(0x8000, 2, CPU)
	m.MapWrite(0x8001, 9, CPU)
	if loc := m.MapRead(0x1000, PPU); loc.Offset != 9*0x400 {
		t.Errorf("Expected CHR bank 9 at $1000, got $%X", loc.Offset)
	}
	m.MapWrite(0x8000, 0x82, CPU)
	if loc := m.MapRead(0x0000, PPU); loc.Offset != 9*0x400 {
		t.Errorf("Expected CHR bank 9 at $0000 after inversion, got $%X", loc.Offset)
	}

	m.MapWrite(0xA000, 1, CPU)
	if m.Mirroring() != Horizontal {
		t.Errorf("Expected horizontal mirroring, got %v", m.Mirroring())
	}
}

func TestMMC3ScanlineIRQ(t *testing.T) {
	m := mustNew(t, 4, Vertical, 2, 1)
	obs := m.(A12Observer)
	clk := m.(Clocked)
	irq := m.(IRQSource)

	m.MapWrite(0xC000, 2, CPU) // latch
	m.MapWrite(0xC001, 0, CPU) // reload
	m.MapWrite(0xE001, 0, CPU) // enable

	scanline := func() {
		obs.ObservePPUAddress(0x0000)
		for i := 0; i < 10; i++ {
			clk.Clock()
		}
		obs.ObservePPUAddress(0x1000)
		obs.ObservePPUAddress(0x1008) // still high, no second edge
	}

	scanline() // reload to 2
	scanline() // 1
	if irq.IRQ() {
		t.Fatal("IRQ asserted early")
	}
	scanline() // 0
	if !irq.IRQ() {
		t.Fatal("Expected IRQ after counter reached zero")
	}

	m.MapWrite(0xE000, 0, CPU)
	if irq.IRQ() {
		t.Error("Expected $E000 write to acknowledge the IRQ")
	}

	// a rise without enough low time is filtered
	m.MapWrite(0xE001, 0, CPU)
	obs.ObservePPUAddress(0x0000)
	obs.ObservePPUAddress(0x1000)
	if irq.IRQ() {
		t.Error("Expected a short A12 pulse to be filtered")
	}
}

func TestAxROM(t *testing.T) {
	m := mustNew(t, 7, Horizontal, 8, 0)
	if m.Mirroring() != SingleLower {
		t.Errorf("Expected single-lower, got %v", m.Mirroring())
	}
	m.MapWrite(0x8000, 0x12, CPU)
	if m.Mirroring() != SingleUpper {
		t.Errorf("Expected single-upper, got %v", m.Mirroring())
	}
	if loc := m.MapRead(0x8000, CPU); loc.Offset != 2*0x8000 {
		t.Errorf("Expected 32KB bank 2, got $%X", loc.Offset)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, id := range Supported() {
		prg, chr := uint8(8), uint8(0)
		if id == 0 || id == 3 {
			prg = 2
		}
		a := mustNew(t, id, Vertical, prg, chr)
		a.MapWrite(0x8000, 0x06, CPU)
		a.MapWrite(0x8001, 0x03, CPU)
		a.MapWrite(0xA000, 0x01, CPU)
		if c, ok := a.(Clocked); ok {
			c.Clock()
		}

		saved, err := a.Save()
		if err != nil {
			t.Fatalf("%s: %v", Name(id), err)
		}
		b := mustNew(t, id, Vertical, prg, chr)
		if err := b.Load(saved); err != nil {
			t.Fatalf("%s: %v", Name(id), err)
		}
		for addr := 0x6000; addr < 0x10000; addr += 0x400 {
			if a.MapRead(uint16(addr), CPU) != b.MapRead(uint16(addr), CPU) {
				t.Errorf("%s: $%04X differs after restore", Name(id), addr)
			}
		}
		if a.Mirroring() != b.Mirroring() {
			t.Errorf("%s: mirroring differs after restore", Name(id))
		}
	}
}

func TestMMC3LoadRejectsBadRegister(t *testing.T) {
	m := mustNew(t, 4, Vertical, 8, 0)
	m.MapWrite(0x8000, 0x06, CPU)
	m.MapWrite(0x8001, 0x03, CPU)
	before := m.MapRead(0x8000, CPU)

	bad, err := encodeState(MMC3State{TargetRegister: 8})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Load(bad); err == nil {
		t.Fatal("Expected an error for bank register 8")
	}
	if got := m.MapRead(0x8000, CPU); got != before {
		t.Errorf("Expected banks untouched, got %+v", got)
	}
	m.MapWrite(0x8001, 0x01, CPU)
}
