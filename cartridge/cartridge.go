package cartridge

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/meadori/nesmachine/mapper"
)

var (
	ErrInvalidHeader = errors.New("invalid NES ROM header")
	ErrTruncated     = errors.New("truncated NES ROM")
)

const (
	headerSize  = 16
	trainerSize = 512
)

// Header is the decoded iNES / NES 2.0 header.
type Header struct {
	PRGBanks  uint8 // 16KB units
	CHRBanks  uint8 // 8KB units, 0 means the board carries CHR-RAM
	MapperID  uint8
	Mirroring mapper.Mirroring
	Battery   bool
	Trainer   bool
	NES20     bool
}

// ParseHeader decodes and validates the 16 byte header of a ROM image.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < headerSize {
		return h, fmt.Errorf("%w: file is too small to be a valid NES ROM", ErrInvalidHeader)
	}
	if data[0] != 'N' || data[1] != 'E' || data[2] != 'S' || data[3] != 0x1A {
		return h, fmt.Errorf("%w: missing iNES signature", ErrInvalidHeader)
	}

	h.PRGBanks = data[4]
	h.CHRBanks = data[5]
	if h.PRGBanks == 0 {
		return h, fmt.Errorf("%w: no PRG ROM banks", ErrInvalidHeader)
	}

	flags6, flags7 := data[6], data[7]
	h.Battery = flags6&0x02 != 0
	h.Trainer = flags6&0x04 != 0
	h.NES20 = flags7&0x0C == 0x08

	switch {
	case flags6&0x08 != 0:
		h.Mirroring = mapper.FourScreen
	case flags6&0x01 != 0:
		h.Mirroring = mapper.Vertical
	default:
		h.Mirroring = mapper.Horizontal
	}

	// old dumpers left signatures in bytes 7-15; ignore the upper nibble then
	upper := flags7 & 0xF0
	if !h.NES20 && (data[12] != 0 || data[13] != 0 || data[14] != 0 || data[15] != 0) {
		upper = 0
	}
	h.MapperID = (flags6 >> 4) | upper

	if h.NES20 && data[8]&0x0F != 0 {
		return h, fmt.Errorf("%w: NES 2.0 mapper %d", mapper.ErrUnsupported, int(data[8]&0x0F)<<8|int(h.MapperID))
	}
	return h, nil
}

// Cartridge represents an NES cartridge: ROM images, on-board RAM and the
// mapper IC that decodes addresses into them.
type Cartridge struct {
	Header Header

	PRGROM   []byte
	CHR      []byte
	PRGRAM   []byte
	IsCHRRAM bool

	mapper    mapper.Mapper
	irq       mapper.IRQSource
	observer  mapper.A12Observer
	clocked   mapper.Clocked
	conflicts bool

	id string
}

// New parses a ROM image and binds the matching mapper.
func New(data []byte) (*Cartridge, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	offset := headerSize
	if h.Trainer {
		offset += trainerSize
	}
	prgSize := int(h.PRGBanks) * mapper.PRGBankSize
	chrSize := int(h.CHRBanks) * mapper.CHRBankSize
	if len(data) < offset+prgSize+chrSize {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, offset+prgSize+chrSize, len(data))
	}

	c := &Cartridge{
		Header: h,
		PRGROM: make([]byte, prgSize),
		PRGRAM: make([]byte, mapper.PRGRAMSize),
	}
	copy(c.PRGROM, data[offset:offset+prgSize])
	if chrSize > 0 {
		c.CHR = make([]byte, chrSize)
		copy(c.CHR, data[offset+prgSize:offset+prgSize+chrSize])
	} else {
		c.CHR = make([]byte, mapper.CHRBankSize)
		c.IsCHRRAM = true
	}

	sum := sha1.New()
	sum.Write(c.PRGROM)
	if !c.IsCHRRAM {
		sum.Write(c.CHR)
	}
	c.id = hex.EncodeToString(sum.Sum(nil))

	m, err := mapper.New(h.MapperID, h.Mirroring)
	if err != nil {
		return nil, err
	}
	if err := m.Init(h.PRGBanks, h.CHRBanks); err != nil {
		return nil, fmt.Errorf("%s: %w", mapper.Name(h.MapperID), err)
	}
	c.bind(m)
	return c, nil
}

// Load reads a complete ROM image from r.
func Load(r io.Reader) (*Cartridge, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading ROM: %w", err)
	}
	return New(data)
}

// bind resolves the optional mapper capabilities once so the per-access
// paths never repeat the type assertions.
func (c *Cartridge) bind(m mapper.Mapper) {
	c.mapper = m
	c.irq, _ = m.(mapper.IRQSource)
	c.observer, _ = m.(mapper.A12Observer)
	c.clocked, _ = m.(mapper.Clocked)
	if bc, ok := m.(mapper.BusConflicter); ok {
		c.conflicts = bc.BusConflicts()
	}
}

// ID is a digest of the ROM contents identifying the game.
func (c *Cartridge) ID() string {
	return c.id
}

// MapperName returns the board name of the bound mapper.
func (c *Cartridge) MapperName() string {
	return mapper.Name(c.Header.MapperID)
}

// Mapper returns the bound mapper.
func (c *Cartridge) Mapper() mapper.Mapper {
	return c.mapper
}

// CPURead reads cartridge space ($4020-$FFFF). The boolean is false when
// the cartridge leaves the address undriven.
func (c *Cartridge) CPURead(addr uint16) (byte, bool) {
	loc := c.mapper.MapRead(addr, mapper.CPU)
	switch loc.Target {
	case mapper.ROM:
		return c.PRGROM[loc.Offset], true
	case mapper.RAM:
		return c.PRGRAM[loc.Offset], true
	}
	return 0, false
}

// CPUWrite sends a CPU write to the mapper.
func (c *Cartridge) CPUWrite(addr uint16, data byte) {
	if c.conflicts && addr >= 0x8000 {
		if loc := c.mapper.MapRead(addr, mapper.CPU); loc.Target == mapper.ROM {
			data &= c.PRGROM[loc.Offset]
		}
	}
	if loc := c.mapper.MapWrite(addr, data, mapper.CPU); loc.Target == mapper.RAM {
		c.PRGRAM[loc.Offset] = data
	}
}

// PPURead reads pattern table space ($0000-$1FFF).
func (c *Cartridge) PPURead(addr uint16) byte {
	if c.observer != nil {
		c.observer.ObservePPUAddress(addr)
	}
	if loc := c.mapper.MapRead(addr, mapper.PPU); loc.Target == mapper.ROM {
		return c.CHR[loc.Offset]
	}
	return 0
}

// PPUWrite writes pattern table space; only CHR-RAM accepts the data.
func (c *Cartridge) PPUWrite(addr uint16, data byte) {
	if c.observer != nil {
		c.observer.ObservePPUAddress(addr)
	}
	loc := c.mapper.MapWrite(addr, data, mapper.PPU)
	if loc.Target == mapper.ROM && c.IsCHRRAM {
		c.CHR[loc.Offset] = data
	}
}

// PeekCHR reads pattern data without notifying the mapper.
func (c *Cartridge) PeekCHR(addr uint16) byte {
	if loc := c.mapper.MapRead(addr, mapper.PPU); loc.Target == mapper.ROM {
		return c.CHR[loc.Offset]
	}
	return 0
}

// Mirroring returns the current nametable arrangement.
func (c *Cartridge) Mirroring() mapper.Mirroring {
	return c.mapper.Mirroring()
}

// IRQ reports whether the mapper is asserting the CPU IRQ line.
func (c *Cartridge) IRQ() bool {
	return c.irq != nil && c.irq.IRQ()
}

// Clock is called once per CPU cycle.
func (c *Cartridge) Clock() {
	if c.clocked != nil {
		c.clocked.Clock()
	}
}
