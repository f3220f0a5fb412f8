package ppu

import (
	"image"

	"github.com/meadori/nesmachine/mapper"
)

// Frame geometry (NTSC).
const (
	Width             = 256
	Height            = 240
	DotsPerScanline   = 341
	ScanlinesPerFrame = 262

	// VBlankScanline is the post-render line on whose dot 1 the VBlank
	// flag is raised.
	VBlankScanline = 241
	preRender      = -1
)

// PPUCTRL bits.
const (
	ctrlIncrement32  = 0x04
	ctrlSpriteTable  = 0x08
	ctrlBgTable      = 0x10
	ctrlSpriteSize16 = 0x20
	ctrlNMIEnable    = 0x80
)

// PPUMASK bits.
const (
	maskGrayscale   = 0x01
	maskBgLeft      = 0x02
	maskSpriteLeft  = 0x04
	maskShowBg      = 0x08
	maskShowSprites = 0x10
)

// PPUSTATUS bits.
const (
	statusOverflow   = 0x20
	statusSprite0Hit = 0x40
	statusVBlank     = 0x80
)

// Cartridge is the pattern memory side of a cartridge as seen by the PPU.
type Cartridge interface {
	PPURead(addr uint16) byte
	PPUWrite(addr uint16, data byte)
	PeekCHR(addr uint16) byte
	Mirroring() mapper.Mirroring
}

type spriteEntry struct {
	y, id, attr, x byte
}

// PPU represents the Picture Processing Unit.
type PPU struct {
	cart Cartridge

	vram    [4096]byte // four-screen boards supply the upper 2KB
	oam     [256]byte
	palette [32]byte

	// PPU Control Register
	Ctrl byte
	// PPU Mask Register
	Mask byte
	// PPU Status Register
	Status byte

	// NMI is raised at VBlank entry when enabled; the bus forwards and
	// clears it.
	NMI bool
	// FrameComplete is set when the PPU enters VBlank.
	FrameComplete bool

	Scanline     int
	Cycle        int
	FrameCounter int

	oamAddr    byte
	dataBuffer byte
	ioLatch    byte
	addrLatch  bool
	fineX      byte

	vramAddr    uint16
	vramTmpAddr uint16

	bgNextTileID       byte
	bgNextTileAttrib   byte
	bgNextTileLSB      byte
	bgNextTileMSB      byte
	bgPatternShifterLo uint16
	bgPatternShifterHi uint16
	bgAttribShifterLo  uint16
	bgAttribShifterHi  uint16

	spriteScanline     [8]spriteEntry
	spriteCount        int
	spriteShifterLo    [8]byte
	spriteShifterHi    [8]byte
	spriteZeroPossible bool
	spriteZeroRendered bool

	frame *image.RGBA
}

// New creates a new PPU instance.
func New() *PPU {
	return &PPU{
		Scanline: preRender,
		frame:    image.NewRGBA(image.Rect(0, 0, Width, Height)),
	}
}

// ConnectCartridge connects a cartridge for pattern fetches and nametable
// mirroring.
func (p *PPU) ConnectCartridge(cart Cartridge) {
	p.cart = cart
}

// Reset puts the registers in their power-up state. VRAM, OAM and
// palette contents survive, as on hardware.
func (p *PPU) Reset() {
	p.Ctrl, p.Mask, p.Status = 0, 0, 0
	p.NMI = false
	p.FrameComplete = false
	p.Scanline, p.Cycle, p.FrameCounter = preRender, 0, 0
	p.oamAddr, p.dataBuffer, p.ioLatch = 0, 0, 0
	p.addrLatch = false
	p.fineX = 0
	p.vramAddr, p.vramTmpAddr = 0, 0
	p.bgPatternShifterLo, p.bgPatternShifterHi = 0, 0
	p.bgAttribShifterLo, p.bgAttribShifterHi = 0, 0
	p.spriteCount = 0
}

// GetFrame returns the frame being drawn. It is only safe to use from the
// emulation goroutine; other readers should go through a copy.
func (p *PPU) GetFrame() *image.RGBA {
	return p.frame
}

func (p *PPU) renderingEnabled() bool {
	return p.Mask&(maskShowBg|maskShowSprites) != 0
}

// nametableIndex folds $2000-$3EFF into VRAM according to the cartridge
// mirroring.
func (p *PPU) nametableIndex(addr uint16) uint16 {
	addr &= 0x0FFF
	table, offset := addr/0x400, addr&0x03FF
	var m mapper.Mirroring
	if p.cart != nil {
		m = p.cart.Mirroring()
	}
	switch m {
	case mapper.Horizontal:
		table >>= 1
	case mapper.Vertical:
		table &= 1
	case mapper.SingleLower:
		table = 0
	case mapper.SingleUpper:
		table = 1
	}
	return table*0x400 + offset
}

func paletteIndex(addr uint16) uint16 {
	addr &= 0x001F
	if addr&0x13 == 0x10 {
		// $3F10/$3F14/$3F18/$3F1C mirror the background entries
		addr &^= 0x10
	}
	return addr
}

func (p *PPU) ppuRead(addr uint16) byte {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		if p.cart == nil {
			return 0
		}
		return p.cart.PPURead(addr)
	case addr < 0x3F00:
		return p.vram[p.nametableIndex(addr)]
	default:
		return p.palette[paletteIndex(addr)]
	}
}

func (p *PPU) ppuWrite(addr uint16, data byte) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		if p.cart != nil {
			p.cart.PPUWrite(addr, data)
		}
	case addr < 0x3F00:
		p.vram[p.nametableIndex(addr)] = data
	default:
		p.palette[paletteIndex(addr)] = data & 0x3F
	}
}

// Read reads from a PPU register. addr is taken modulo 8.
func (p *PPU) Read(addr uint16) byte {
	switch addr & 0x0007 {
	case 0x0002:
		p.ioLatch = p.Status&0xE0 | p.ioLatch&0x1F
		p.Status &^= statusVBlank
		p.addrLatch = false
	case 0x0004:
		p.ioLatch = p.oam[p.oamAddr]
	case 0x0007:
		data := p.dataBuffer
		p.dataBuffer = p.ppuRead(p.vramAddr)
		if p.vramAddr&0x3FFF >= 0x3F00 {
			// palette reads are not buffered; the buffer gets the
			// nametable byte underneath instead
			data = p.dataBuffer
			p.dataBuffer = p.vram[p.nametableIndex(p.vramAddr-0x1000)]
		}
		p.incrementAddr()
		p.ioLatch = data
	}
	return p.ioLatch
}

// Write writes to a PPU register. addr is taken modulo 8.
func (p *PPU) Write(addr uint16, data byte) {
	p.ioLatch = data
	switch addr & 0x0007 {
	case 0x0000:
		wasEnabled := p.Ctrl&ctrlNMIEnable != 0
		p.Ctrl = data
		p.vramTmpAddr = p.vramTmpAddr&0xF3FF | uint16(data&0x03)<<10
		if !wasEnabled && data&ctrlNMIEnable != 0 && p.Status&statusVBlank != 0 {
			p.NMI = true
		}
	case 0x0001:
		p.Mask = data
	case 0x0003:
		p.oamAddr = data
	case 0x0004:
		p.oam[p.oamAddr] = data
		p.oamAddr++
	case 0x0005:
		if p.addrLatch {
			p.vramTmpAddr = p.vramTmpAddr&0x8C1F | uint16(data&0xF8)<<2 | uint16(data&0x07)<<12
			p.addrLatch = false
		} else {
			p.fineX = data & 0x07
			p.vramTmpAddr = p.vramTmpAddr&0xFFE0 | uint16(data)>>3
			p.addrLatch = true
		}
	case 0x0006:
		if p.addrLatch {
			p.vramTmpAddr = p.vramTmpAddr&0xFF00 | uint16(data)
			p.vramAddr = p.vramTmpAddr
			p.addrLatch = false
		} else {
			p.vramTmpAddr = p.vramTmpAddr&0x00FF | uint16(data&0x3F)<<8
			p.addrLatch = true
		}
	case 0x0007:
		p.ppuWrite(p.vramAddr, data)
		p.incrementAddr()
	}
}

// WriteOAM stores one byte of sprite memory at OAMADDR, as OAM DMA does.
func (p *PPU) WriteOAM(data byte) {
	p.oam[p.oamAddr] = data
	p.oamAddr++
}

func (p *PPU) incrementAddr() {
	if p.Ctrl&ctrlIncrement32 != 0 {
		p.vramAddr += 32
	} else {
		p.vramAddr++
	}
	p.vramAddr &= 0x7FFF
}
