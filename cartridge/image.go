package cartridge

import "github.com/meadori/nesmachine/mapper"

// Bytes encodes h as a 16 byte iNES header.
func (h Header) Bytes() []byte {
	b := []byte{'N', 'E', 'S', 0x1A, h.PRGBanks, h.CHRBanks, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	switch h.Mirroring {
	case mapper.Vertical:
		b[6] |= 0x01
	case mapper.FourScreen:
		b[6] |= 0x08
	}
	if h.Battery {
		b[6] |= 0x02
	}
	if h.Trainer {
		b[6] |= 0x04
	}
	b[6] |= h.MapperID << 4
	b[7] = h.MapperID & 0xF0
	if h.NES20 {
		b[7] |= 0x08
	}
	return b
}

// Encode builds a ROM image from a header and PRG/CHR data. The data is
// padded or cut to the sizes the header declares.
func Encode(h Header, prg, chr []byte) []byte {
	out := h.Bytes()
	if h.Trainer {
		out = append(out, make([]byte, trainerSize)...)
	}
	p := make([]byte, int(h.PRGBanks)*mapper.PRGBankSize)
	copy(p, prg)
	c := make([]byte, int(h.CHRBanks)*mapper.CHRBankSize)
	copy(c, chr)
	out = append(out, p...)
	return append(out, c...)
}
