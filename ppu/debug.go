package ppu

import (
	"image"
	"image/color"
)

// Peek reads PPU memory without side effects: no read buffer update and
// no mapper address notifications.
func (p *PPU) Peek(addr uint16) byte {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		if p.cart == nil {
			return 0
		}
		return p.cart.PeekCHR(addr)
	case addr < 0x3F00:
		return p.vram[p.nametableIndex(addr)]
	default:
		return p.palette[paletteIndex(addr)]
	}
}

// PatternTable renders pattern table i (0 or 1) into a 128x128 image using
// palette (0-7).
func (p *PPU) PatternTable(i int, palette byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	base := uint16(i&1) * 0x1000
	for tileY := 0; tileY < 16; tileY++ {
		for tileX := 0; tileX < 16; tileX++ {
			offset := base + uint16(tileY*256+tileX*16)
			for row := 0; row < 8; row++ {
				lsb := p.Peek(offset + uint16(row))
				msb := p.Peek(offset + uint16(row) + 8)
				for col := 7; col >= 0; col-- {
					pixel := lsb&0x01 | (msb&0x01)<<1
					lsb >>= 1
					msb >>= 1

					c := color.RGBA{0, 0, 0, 255}
					if pixel != 0 {
						c = SystemPalette[p.Peek(0x3F00+uint16(palette&7)*4+uint16(pixel))&0x3F]
					}
					img.SetRGBA(tileX*8+col, tileY*8+row, c)
				}
			}
		}
	}
	return img
}
