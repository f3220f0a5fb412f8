package mapper

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sort"
)

// Device identifies which address space an access belongs to.
type Device uint8

const (
	CPU Device = iota
	PPU
)

func (d Device) String() string {
	if d == PPU {
		return "ppu"
	}
	return "cpu"
}

// Mirroring is the nametable layout selected by the cartridge.
type Mirroring uint8

const (
	Horizontal Mirroring = iota
	Vertical
	SingleLower
	SingleUpper
	FourScreen
)

func (m Mirroring) String() string {
	switch m {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case SingleLower:
		return "single-lower"
	case SingleUpper:
		return "single-upper"
	case FourScreen:
		return "four-screen"
	}
	return fmt.Sprintf("mirroring(%d)", uint8(m))
}

// Target is the storage a mapped address resolves to.
type Target uint8

const (
	// None means the mapper does not decode the address (open bus).
	None Target = iota
	// ROM is PRG-ROM for CPU accesses and CHR (ROM or RAM) for PPU accesses.
	ROM
	// RAM is PRG-RAM at $6000-$7FFF.
	RAM
)

// Location is the resolved offset of an access into cartridge storage.
type Location struct {
	Target Target
	Offset uint32
}

// Bank sizes in bytes, as counted by the iNES header.
const (
	PRGBankSize = 16384
	CHRBankSize = 8192
	PRGRAMSize  = 8192
)

var (
	ErrUnsupported = errors.New("unsupported mapper")
	ErrBankCount   = errors.New("invalid bank count")
)

// Mapper defines the contract shared by every cartridge bank-switching IC.
type Mapper interface {
	// Init is called once after construction with the cartridge's bank
	// counts (16KB PRG units, 8KB CHR units, 0 CHR banks meaning CHR-RAM).
	// It resets the registers to their power-on values.
	Init(prgBanks, chrBanks uint8) error

	// MapRead resolves an address without changing mapper state.
	MapRead(addr uint16, dev Device) Location

	// MapWrite updates bank registers for register addresses and returns
	// the storage location when the write lands in cartridge memory.
	MapWrite(addr uint16, data byte, dev Device) Location

	// Mirroring returns the current nametable arrangement.
	Mirroring() Mirroring

	// Save and Load serialise the register block.
	Save() ([]byte, error)
	Load(b []byte) error
}

// IRQSource is implemented by mappers that can assert the CPU IRQ line.
type IRQSource interface {
	IRQ() bool
}

// A12Observer is implemented by mappers that watch PPU pattern-table
// accesses, e.g. to clock a scanline counter.
type A12Observer interface {
	ObservePPUAddress(addr uint16)
}

// Clocked is implemented by mappers that need to see every CPU cycle.
type Clocked interface {
	Clock()
}

// BusConflicter is implemented by boards where the PRG-ROM drives the data
// bus during register writes, so the value written is ANDed with ROM.
type BusConflicter interface {
	BusConflicts() bool
}

// Factory builds a mapper given the header mirroring.
type Factory func(mirroring Mirroring) Mapper

type entry struct {
	name    string
	factory Factory
}

var registry = map[uint8]entry{
	0: {"NROM", newNROM},
	1: {"MMC1", newMMC1},
	2: {"UxROM", newUxROM},
	3: {"CNROM", newCNROM},
	4: {"MMC3", newMMC3},
	7: {"AxROM", newAxROM},
}

// Register adds a mapper implementation to the catalog, replacing any
// previous entry with the same id.
func Register(id uint8, name string, f Factory) {
	registry[id] = entry{name: name, factory: f}
}

// New creates a Mapper instance for the given iNES mapper id.
func New(id uint8, mirroring Mirroring) (Mapper, error) {
	e, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupported, id)
	}
	return e.factory(mirroring), nil
}

// Name returns the board name of a catalogued mapper id.
func Name(id uint8) string {
	if e, ok := registry[id]; ok {
		return e.name
	}
	return fmt.Sprintf("mapper %d", id)
}

// Supported lists the catalogued mapper ids in ascending order.
func Supported() []uint8 {
	ids := make([]uint8, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func rom(offset uint32) Location {
	return Location{Target: ROM, Offset: offset}
}

func ram(offset uint32) Location {
	return Location{Target: RAM, Offset: offset}
}

func encodeState(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeState(b []byte, v any) error {
	if len(b) == 0 {
		return errors.New("empty mapper state")
	}
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}
