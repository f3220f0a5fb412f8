package bus

import (
	"fmt"

	"github.com/meadori/nesmachine/apu"
	"github.com/meadori/nesmachine/cartridge"
	"github.com/meadori/nesmachine/controller"
	"github.com/meadori/nesmachine/cpu"
	"github.com/meadori/nesmachine/ppu"
)

// Region is a device selected by the CPU address decoder.
type Region uint8

const (
	// RAM is the 2KB work RAM, mirrored up to $1FFF.
	RAM Region = iota
	// PPU registers, mirrored every 8 bytes.
	PPU
	APU
	OAMDMA
	// IO is the joypad ports; $4017 writes go to the APU frame counter.
	IO
	// Test is the CPU test mode block, unused on retail units.
	Test
	Cartridge
)

var regionNames = [...]string{"ram", "ppu", "apu", "oamdma", "io", "test", "cartridge"}

func (r Region) String() string {
	if int(r) < len(regionNames) {
		return regionNames[r]
	}
	return fmt.Sprintf("region(%d)", uint8(r))
}

// Span is an inclusive address range owned by one region.
type Span struct {
	Lo, Hi uint16
	Region Region
}

// Map is the CPU memory map.
var Map = []Span{
	{0x0000, 0x1FFF, RAM},
	{0x2000, 0x3FFF, PPU},
	{0x4000, 0x4013, APU},
	{0x4014, 0x4014, OAMDMA},
	{0x4015, 0x4015, APU},
	{0x4016, 0x4017, IO},
	{0x4018, 0x401F, Test},
	{0x4020, 0xFFFF, Cartridge},
}

var decode [0x10000]Region

func init() {
	var seen [0x10000]bool
	for _, s := range Map {
		for a := int(s.Lo); a <= int(s.Hi); a++ {
			if seen[a] {
				panic(fmt.Sprintf("bus: $%04X mapped twice", a))
			}
			seen[a] = true
			decode[a] = s.Region
		}
	}
	for a, ok := range seen {
		if !ok {
			panic(fmt.Sprintf("bus: $%04X unmapped", a))
		}
	}
}

// Route returns the region that owns addr.
func Route(addr uint16) Region {
	return decode[addr]
}

const (
	ramMask  = 0x07FF
	// PPU dots per CPU cycle.
	ppuRatio = 3
	// CPU cycles charged for each DMC sample fetch.
	dmcStall = 4
)

// Bus represents the system bus. It owns every chip on the board and
// drives them from the master clock.
type Bus struct {
	CPU         *cpu.CPU
	PPU         *ppu.PPU
	APU         *apu.APU
	Controllers [2]*controller.Controller

	cart *cartridge.Cartridge
	ram  [2048]byte

	// SystemClocks counts master clock ticks (PPU dots) since reset.
	SystemClocks uint64
	openBus      byte
}

// dmcReader lets the DMC fetch sample bytes over the CPU bus. Each fetch
// steals cycles from the CPU.
type dmcReader struct {
	b *Bus
}

func (r dmcReader) Read(addr uint16) byte {
	r.b.CPU.Stall(dmcStall)
	return r.b.Read(addr)
}

// New creates a new Bus instance with no cartridge inserted. The APU
// resamples its output to sampleRate assuming a CPU running at clockRate.
func New(sampleRate int, clockRate float64) *Bus {
	b := &Bus{
		CPU:         cpu.New(),
		PPU:         ppu.New(),
		APU:         apu.New(sampleRate, clockRate),
		Controllers: [2]*controller.Controller{controller.New(), controller.New()},
	}
	b.CPU.ConnectBus(b)
	b.APU.ConnectBus(dmcReader{b})
	return b
}

// LoadCartridge inserts cart. A nil cartridge empties the slot.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.cart = cart
	if cart == nil {
		b.PPU.ConnectCartridge(nil)
		return
	}
	b.PPU.ConnectCartridge(cart)
}

// Cartridge returns the inserted cartridge, or nil.
func (b *Bus) Cartridge() *cartridge.Cartridge {
	return b.cart
}

// HasCartridge reports whether a cartridge is inserted.
func (b *Bus) HasCartridge() bool {
	return b.cart != nil
}

// Reset pulls the reset line of every chip. Work RAM and cartridge RAM
// keep their contents.
func (b *Bus) Reset() {
	b.PPU.Reset()
	b.APU.Reset()
	b.CPU.Reset()
	b.SystemClocks = 0
	b.openBus = 0
}

// Read reads a byte from the bus.
func (b *Bus) Read(addr uint16) byte {
	var data byte
	switch decode[addr] {
	case RAM:
		data = b.ram[addr&ramMask]
	case PPU:
		data = b.PPU.Read(addr)
	case APU:
		if addr == 0x4015 {
			// bit 5 is not driven
			data = b.APU.CPURead(addr)&^0x20 | b.openBus&0x20
		} else {
			data = b.openBus
		}
	case IO:
		data = b.Controllers[addr&1].Read() | b.openBus&0xE0
	case Cartridge:
		if b.cart == nil {
			return b.openBus
		}
		v, ok := b.cart.CPURead(addr)
		if !ok {
			return b.openBus
		}
		data = v
	default:
		data = b.openBus
	}
	b.openBus = data
	return data
}

// Write writes a byte to the bus.
func (b *Bus) Write(addr uint16, data byte) {
	b.openBus = data
	switch decode[addr] {
	case RAM:
		b.ram[addr&ramMask] = data
	case PPU:
		b.PPU.Write(addr, data)
	case APU:
		b.APU.CPUWrite(addr, data)
	case OAMDMA:
		b.oamDMA(data)
	case IO:
		if addr == 0x4016 {
			b.Controllers[0].Write(data)
			b.Controllers[1].Write(data)
		} else {
			b.APU.CPUWrite(addr, data)
		}
	case Cartridge:
		if b.cart != nil {
			b.cart.CPUWrite(addr, data)
		}
	}
}

// oamDMA copies a 256 byte CPU page into OAM. The CPU is halted for the
// transfer, one cycle longer when it starts on an odd cycle.
func (b *Bus) oamDMA(page byte) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		b.PPU.WriteOAM(b.Read(base | i))
	}
	b.CPU.Stall(513 + int(b.CPU.Cycles()&1))
}

// Peek reads CPU address space without side effects. Registers that
// change state when read return 0.
func (b *Bus) Peek(addr uint16) byte {
	switch decode[addr] {
	case RAM:
		return b.ram[addr&ramMask]
	case Cartridge:
		if b.cart != nil {
			v, _ := b.cart.CPURead(addr)
			return v
		}
	}
	return 0
}

// Clock advances the system by one master clock tick. The PPU runs on
// every tick; the CPU, APU and cartridge on every third.
func (b *Bus) Clock() {
	b.PPU.Clock()

	if b.SystemClocks%ppuRatio == 0 {
		b.CPU.Clock()
		b.APU.Clock()
		if b.cart != nil {
			b.cart.Clock()
		}
	}

	if b.PPU.NMI {
		b.PPU.NMI = false
		b.CPU.NMI()
	}
	b.CPU.SetIRQ(b.APU.IRQ() || (b.cart != nil && b.cart.IRQ()))

	b.SystemClocks++
}
