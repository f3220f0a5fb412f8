package ppu

import "math/bits"

// Clock advances the PPU by one dot.
func (p *PPU) Clock() {
	rendering := p.renderingEnabled()

	if p.Scanline >= preRender && p.Scanline < Height {
		if p.Scanline == preRender && p.Cycle == 1 {
			p.Status &^= statusVBlank | statusSprite0Hit | statusOverflow
			p.spriteShifterLo = [8]byte{}
			p.spriteShifterHi = [8]byte{}
		}

		if (p.Cycle >= 2 && p.Cycle < 258) || (p.Cycle >= 321 && p.Cycle < 338) {
			p.updateShifters()
			p.fetchBackground(rendering)
		}

		if rendering {
			switch {
			case p.Cycle == 256:
				p.incrementScrollY()
			case p.Cycle == 257:
				p.loadBackgroundShifters()
				p.transferAddressX()
			case p.Cycle == 338 || p.Cycle == 340:
				// unused nametable fetches
				p.bgNextTileID = p.ppuRead(0x2000 | p.vramAddr&0x0FFF)
			case p.Scanline == preRender && p.Cycle >= 280 && p.Cycle < 305:
				p.transferAddressY()
			}
		}

		if p.Cycle == 257 {
			p.evaluateSprites()
		}
		if rendering && p.Cycle >= 257 && p.Cycle <= 320 {
			p.fetchSprite()
		}
	}

	if p.Scanline == VBlankScanline && p.Cycle == 1 {
		p.Status |= statusVBlank
		p.FrameComplete = true
		if p.Ctrl&ctrlNMIEnable != 0 {
			p.NMI = true
		}
	}

	if p.Scanline >= 0 && p.Scanline < Height && p.Cycle >= 1 && p.Cycle <= Width {
		p.drawPixel()
	}

	p.Cycle++
	// the pre-render line is one dot short on odd frames while rendering
	if p.Scanline == preRender && p.Cycle == 340 && p.FrameCounter&1 == 1 && rendering {
		p.Cycle = DotsPerScanline
	}
	if p.Cycle >= DotsPerScanline {
		p.Cycle = 0
		p.Scanline++
		if p.Scanline >= ScanlinesPerFrame-1 {
			p.Scanline = preRender
			p.FrameCounter++
		}
	}
}

func (p *PPU) fetchBackground(rendering bool) {
	if !rendering {
		return
	}
	switch (p.Cycle - 1) % 8 {
	case 0:
		p.loadBackgroundShifters()
		p.bgNextTileID = p.ppuRead(0x2000 | p.vramAddr&0x0FFF)
	case 2:
		attr := p.ppuRead(0x23C0 | p.vramAddr&0x0C00 | (p.vramAddr>>4)&0x38 | (p.vramAddr>>2)&0x07)
		if p.vramAddr&0x0040 != 0 {
			attr >>= 4
		}
		if p.vramAddr&0x0002 != 0 {
			attr >>= 2
		}
		p.bgNextTileAttrib = attr & 0x03
	case 4:
		p.bgNextTileLSB = p.ppuRead(p.bgPatternAddr())
	case 6:
		p.bgNextTileMSB = p.ppuRead(p.bgPatternAddr() + 8)
	case 7:
		p.incrementScrollX()
	}
}

func (p *PPU) bgPatternAddr() uint16 {
	var table uint16
	if p.Ctrl&ctrlBgTable != 0 {
		table = 0x1000
	}
	return table + uint16(p.bgNextTileID)<<4 + (p.vramAddr>>12)&0x07
}

func (p *PPU) loadBackgroundShifters() {
	p.bgPatternShifterLo = p.bgPatternShifterLo&0xFF00 | uint16(p.bgNextTileLSB)
	p.bgPatternShifterHi = p.bgPatternShifterHi&0xFF00 | uint16(p.bgNextTileMSB)
	var lo, hi uint16
	if p.bgNextTileAttrib&0x01 != 0 {
		lo = 0xFF
	}
	if p.bgNextTileAttrib&0x02 != 0 {
		hi = 0xFF
	}
	p.bgAttribShifterLo = p.bgAttribShifterLo&0xFF00 | lo
	p.bgAttribShifterHi = p.bgAttribShifterHi&0xFF00 | hi
}

func (p *PPU) updateShifters() {
	if p.Mask&maskShowBg != 0 {
		p.bgPatternShifterLo <<= 1
		p.bgPatternShifterHi <<= 1
		p.bgAttribShifterLo <<= 1
		p.bgAttribShifterHi <<= 1
	}

	if p.Mask&maskShowSprites != 0 && p.Cycle >= 1 && p.Cycle < 258 {
		for i := 0; i < p.spriteCount; i++ {
			if p.spriteScanline[i].x > 0 {
				p.spriteScanline[i].x--
			} else {
				p.spriteShifterLo[i] <<= 1
				p.spriteShifterHi[i] <<= 1
			}
		}
	}
}

// Loopy scroll register updates.

func (p *PPU) incrementScrollX() {
	if p.vramAddr&0x001F == 31 {
		p.vramAddr &^= 0x001F
		p.vramAddr ^= 0x0400
	} else {
		p.vramAddr++
	}
}

func (p *PPU) incrementScrollY() {
	if p.vramAddr&0x7000 != 0x7000 {
		p.vramAddr += 0x1000
		return
	}
	p.vramAddr &^= 0x7000
	y := (p.vramAddr & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.vramAddr ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.vramAddr = p.vramAddr&^0x03E0 | y<<5
}

func (p *PPU) transferAddressX() {
	p.vramAddr = p.vramAddr&0xFBE0 | p.vramTmpAddr&0x041F
}

func (p *PPU) transferAddressY() {
	p.vramAddr = p.vramAddr&0x841F | p.vramTmpAddr&0x7BE0
}

func (p *PPU) spriteHeight() int {
	if p.Ctrl&ctrlSpriteSize16 != 0 {
		return 16
	}
	return 8
}

// evaluateSprites selects up to eight sprites for the next scanline into
// secondary OAM and sets the overflow flag when more are in range.
func (p *PPU) evaluateSprites() {
	p.spriteCount = 0
	p.spriteZeroPossible = false
	if p.Scanline < 0 {
		return
	}

	height := p.spriteHeight()
	for n := 0; n < 64; n++ {
		e := spriteEntry{p.oam[n*4], p.oam[n*4+1], p.oam[n*4+2], p.oam[n*4+3]}
		diff := p.Scanline - int(e.y)
		if diff < 0 || diff >= height {
			continue
		}
		if p.spriteCount == 8 {
			if p.renderingEnabled() {
				p.Status |= statusOverflow
			}
			break
		}
		if n == 0 {
			p.spriteZeroPossible = true
		}
		p.spriteScanline[p.spriteCount] = e
		p.spriteCount++
	}
}

// fetchSprite performs the pattern fetches of dots 257-320, one slot
// every eight dots. Empty slots fetch tile $FF so the mapper sees the
// same address line activity as on hardware.
func (p *PPU) fetchSprite() {
	step := (p.Cycle - 257) % 8
	if step != 4 && step != 6 {
		return
	}
	slot := (p.Cycle - 257) / 8

	var addr uint16
	if slot < p.spriteCount {
		addr = p.spritePatternAddr(p.spriteScanline[slot])
	} else if p.spriteHeight() == 16 {
		addr = 0x1000 | 0xFF<<4
	} else {
		addr = uint16(p.Ctrl&ctrlSpriteTable)<<9 | 0xFF<<4
	}

	if step == 4 {
		lo := p.ppuRead(addr)
		if slot < p.spriteCount {
			p.spriteShifterLo[slot] = p.flip(slot, lo)
		}
		return
	}
	hi := p.ppuRead(addr + 8)
	if slot < p.spriteCount {
		p.spriteShifterHi[slot] = p.flip(slot, hi)
	} else {
		p.spriteShifterLo[slot], p.spriteShifterHi[slot] = 0, 0
	}
}

func (p *PPU) flip(slot int, b byte) byte {
	if p.spriteScanline[slot].attr&0x40 != 0 {
		return bits.Reverse8(b)
	}
	return b
}

func (p *PPU) spritePatternAddr(s spriteEntry) uint16 {
	row := p.Scanline - int(s.y)
	height := p.spriteHeight()
	if s.attr&0x80 != 0 {
		row = height - 1 - row
	}
	if height == 8 {
		table := uint16(p.Ctrl&ctrlSpriteTable) << 9
		return table | uint16(s.id)<<4 | uint16(row)
	}
	table := uint16(s.id&0x01) << 12
	tile := uint16(s.id & 0xFE)
	if row >= 8 {
		tile++
		row -= 8
	}
	return table | tile<<4 | uint16(row)
}

// drawPixel composes the background and sprite pixels for the current dot.
func (p *PPU) drawPixel() {
	x := p.Cycle - 1

	var bgPixel, bgPalette byte
	if p.Mask&maskShowBg != 0 && (x >= 8 || p.Mask&maskBgLeft != 0) {
		mux := uint16(0x8000) >> p.fineX
		if p.bgPatternShifterLo&mux != 0 {
			bgPixel |= 1
		}
		if p.bgPatternShifterHi&mux != 0 {
			bgPixel |= 2
		}
		if p.bgAttribShifterLo&mux != 0 {
			bgPalette |= 1
		}
		if p.bgAttribShifterHi&mux != 0 {
			bgPalette |= 2
		}
	}

	var fgPixel, fgPalette byte
	var fgPriority bool
	p.spriteZeroRendered = false
	if p.Mask&maskShowSprites != 0 && (x >= 8 || p.Mask&maskSpriteLeft != 0) {
		for i := 0; i < p.spriteCount; i++ {
			if p.spriteScanline[i].x != 0 {
				continue
			}
			lo := (p.spriteShifterLo[i] & 0x80) >> 7
			hi := (p.spriteShifterHi[i] & 0x80) >> 6
			if px := hi | lo; px != 0 {
				fgPixel = px
				fgPalette = p.spriteScanline[i].attr&0x03 + 4
				fgPriority = p.spriteScanline[i].attr&0x20 == 0
				p.spriteZeroRendered = i == 0 && p.spriteZeroPossible
				break
			}
		}
	}

	var pixel, pal byte
	switch {
	case bgPixel == 0 && fgPixel == 0:
	case bgPixel == 0:
		pixel, pal = fgPixel, fgPalette
	case fgPixel == 0:
		pixel, pal = bgPixel, bgPalette
	default:
		if fgPriority {
			pixel, pal = fgPixel, fgPalette
		} else {
			pixel, pal = bgPixel, bgPalette
		}
		if p.spriteZeroRendered && x != 255 {
			p.Status |= statusSprite0Hit
		}
	}

	colour := p.palette[paletteIndex(uint16(pal)<<2|uint16(pixel))]
	if p.Mask&maskGrayscale != 0 {
		colour &= 0x30
	}
	c := SystemPalette[colour&0x3F]
	i := p.frame.PixOffset(x, p.Scanline)
	p.frame.Pix[i+0] = c.R
	p.frame.Pix[i+1] = c.G
	p.frame.Pix[i+2] = c.B
	p.frame.Pix[i+3] = 255
}
