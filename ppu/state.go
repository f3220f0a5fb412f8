package ppu

import "fmt"

// State is the complete serialisable PPU state, including the frame being
// drawn so a restore mid-frame finishes the same picture.
type State struct {
	Vram    [4096]byte
	Oam     [256]byte
	Palette [32]byte

	Scanline, Cycle, FrameCounter int

	Ctrl, Mask, Status, FineX, OamAddr, DataBuffer, IOLatch byte

	BgNextTileID, BgNextTileAttrib, BgNextTileLSB, BgNextTileMSB byte

	VramAddr, VramTmpAddr                  uint16
	BgPatternShifterLo, BgPatternShifterHi uint16
	BgAttribShifterLo, BgAttribShifterHi   uint16

	AddrLatch, NMI, FrameComplete          bool
	SpriteZeroPossible, SpriteZeroRendered bool

	SpriteCount     int
	SpriteScanline  [8][4]byte
	SpriteShifterLo [8]byte
	SpriteShifterHi [8]byte

	FrameBuffer []byte
}

func (p *PPU) SaveState() State {
	s := State{
		Vram: p.vram, Oam: p.oam, Palette: p.palette,
		Scanline: p.Scanline, Cycle: p.Cycle, FrameCounter: p.FrameCounter,

		Ctrl: p.Ctrl, Mask: p.Mask, Status: p.Status, FineX: p.fineX, OamAddr: p.oamAddr,
		DataBuffer: p.dataBuffer, IOLatch: p.ioLatch,
		BgNextTileID: p.bgNextTileID, BgNextTileAttrib: p.bgNextTileAttrib,
		BgNextTileLSB: p.bgNextTileLSB, BgNextTileMSB: p.bgNextTileMSB,
		VramAddr: p.vramAddr, VramTmpAddr: p.vramTmpAddr,
		BgPatternShifterLo: p.bgPatternShifterLo, BgPatternShifterHi: p.bgPatternShifterHi,
		BgAttribShifterLo: p.bgAttribShifterLo, BgAttribShifterHi: p.bgAttribShifterHi,
		AddrLatch: p.addrLatch, NMI: p.NMI, FrameComplete: p.FrameComplete,
		SpriteZeroPossible: p.spriteZeroPossible, SpriteZeroRendered: p.spriteZeroRendered,

		SpriteCount:     p.spriteCount,
		SpriteShifterLo: p.spriteShifterLo,
		SpriteShifterHi: p.spriteShifterHi,

		FrameBuffer: append([]byte(nil), p.frame.Pix...),
	}
	for i, e := range p.spriteScanline {
		s.SpriteScanline[i] = [4]byte{e.y, e.id, e.attr, e.x}
	}
	return s
}

func (p *PPU) LoadState(s State) {
	p.vram, p.oam, p.palette = s.Vram, s.Oam, s.Palette
	p.Scanline, p.Cycle, p.FrameCounter = s.Scanline, s.Cycle, s.FrameCounter

	p.Ctrl, p.Mask, p.Status, p.fineX, p.oamAddr = s.Ctrl, s.Mask, s.Status, s.FineX, s.OamAddr
	p.dataBuffer, p.ioLatch = s.DataBuffer, s.IOLatch
	p.bgNextTileID, p.bgNextTileAttrib = s.BgNextTileID, s.BgNextTileAttrib
	p.bgNextTileLSB, p.bgNextTileMSB = s.BgNextTileLSB, s.BgNextTileMSB
	p.vramAddr, p.vramTmpAddr = s.VramAddr, s.VramTmpAddr
	p.bgPatternShifterLo, p.bgPatternShifterHi = s.BgPatternShifterLo, s.BgPatternShifterHi
	p.bgAttribShifterLo, p.bgAttribShifterHi = s.BgAttribShifterLo, s.BgAttribShifterHi
	p.addrLatch, p.NMI, p.FrameComplete = s.AddrLatch, s.NMI, s.FrameComplete
	p.spriteZeroPossible, p.spriteZeroRendered = s.SpriteZeroPossible, s.SpriteZeroRendered

	p.spriteCount = s.SpriteCount
	p.spriteShifterLo, p.spriteShifterHi = s.SpriteShifterLo, s.SpriteShifterHi
	for i, e := range s.SpriteScanline {
		p.spriteScanline[i] = spriteEntry{e[0], e[1], e[2], e[3]}
	}

	copy(p.frame.Pix, s.FrameBuffer)
}

// Validate rejects a state whose counters lie outside the frame timing or
// whose picture does not match the screen size. LoadState assumes a state
// that passed.
func (s State) Validate() error {
	switch {
	case s.Scanline < preRender || s.Scanline >= ScanlinesPerFrame-1:
		return fmt.Errorf("ppu: scanline %d out of range", s.Scanline)
	case s.Cycle < 0 || s.Cycle >= DotsPerScanline:
		return fmt.Errorf("ppu: dot %d out of range", s.Cycle)
	case s.SpriteCount < 0 || s.SpriteCount > len(s.SpriteScanline):
		return fmt.Errorf("ppu: %d sprites on the scanline", s.SpriteCount)
	case s.FineX > 7:
		return fmt.Errorf("ppu: fine x %d out of range", s.FineX)
	case len(s.FrameBuffer) != Width*Height*4:
		return fmt.Errorf("ppu: frame buffer holds %d bytes, want %d", len(s.FrameBuffer), Width*Height*4)
	}
	return nil
}
