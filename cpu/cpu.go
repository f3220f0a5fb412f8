package cpu

// Bus defines the interface for the CPU to interact with the bus.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, data byte)
}

// Flag is a bit of the processor status register.
type Flag byte

const (
	C Flag = 1 << iota // Carry
	Z                  // Zero
	I                  // Disable interrupts
	D                  // Decimal mode (unused on the 2A03)
	B                  // Break
	U                  // Unused, always reads back as 1
	V                  // Overflow
	N                  // Negative
)

// Interrupt vectors.
const (
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// CPU represents the 6502 CPU.
type CPU struct {
	// Program Counter
	PC uint16

	// Stack Pointer
	SP byte

	// Accumulator
	A byte

	// Index Register X
	X byte

	// Index Register Y
	Y byte

	// Processor Status
	P byte

	// IllegalOpcode, when set, is called each time an undocumented opcode
	// is executed. The opcode still runs as a NOP.
	IllegalOpcode func(opcode byte, pc uint16)

	bus Bus

	opcode byte
	cycles int
	total  uint64
	lookup [256]Instruction

	fetched uint8
	addrAbs uint16
	addrRel uint16
	implied bool

	nmiPending bool
	irqLine    bool
}

// New creates a new CPU instance.
func New() *CPU {
	c := &CPU{}
	c.lookup = c.createLookupTable()
	return c
}

// ConnectBus connects the CPU to the bus.
func (c *CPU) ConnectBus(bus Bus) {
	c.bus = bus
}

// Reset loads the reset vector and puts the registers in their power-on
// state. Memory is untouched.
func (c *CPU) Reset() {
	c.PC = c.read16(resetVector)

	c.A = 0
	c.X = 0
	c.Y = 0
	c.SP = 0xFD
	c.P = byte(U | I)

	c.nmiPending = false
	c.irqLine = false
	c.addrAbs = 0
	c.addrRel = 0
	c.fetched = 0

	c.cycles = 8
}

// Clock performs one clock cycle. Instructions execute in full on their
// first cycle and then idle for the remainder of their cost.
func (c *CPU) Clock() {
	if c.cycles == 0 {
		switch {
		case c.nmiPending:
			c.nmiPending = false
			c.interrupt(nmiVector, false)
			c.cycles = 7
		case c.irqLine && c.P&byte(I) == 0:
			c.interrupt(irqVector, false)
			c.cycles = 7
		default:
			c.execute()
		}
	}
	c.cycles--
	c.total++
}

func (c *CPU) execute() {
	pc := c.PC
	c.opcode = c.read(c.PC)
	c.PC++
	c.setFlag(U, true)

	instr := &c.lookup[c.opcode]
	c.cycles = instr.Cycles
	if instr.Illegal && c.IllegalOpcode != nil {
		c.IllegalOpcode(c.opcode, pc)
	}

	extra1 := instr.AddrMode()
	extra2 := instr.Operate()
	c.cycles += int(extra1 & extra2)
}

// Complete reports whether the current instruction has used up its cycles.
func (c *CPU) Complete() bool {
	return c.cycles == 0
}

// Cycles returns the number of CPU cycles run since the CPU was created.
func (c *CPU) Cycles() uint64 {
	return c.total
}

// NMI latches a non-maskable interrupt, serviced at the next instruction
// boundary.
func (c *CPU) NMI() {
	c.nmiPending = true
}

// SetIRQ drives the level-triggered IRQ line.
func (c *CPU) SetIRQ(asserted bool) {
	c.irqLine = asserted
}

// Stall suspends the CPU for n cycles, e.g. while DMA owns the bus.
func (c *CPU) Stall(n int) {
	c.cycles += n
}

// Lookup returns the decoded instruction for an opcode.
func (c *CPU) Lookup(opcode byte) Instruction {
	return c.lookup[opcode]
}

func (c *CPU) interrupt(vector uint16, brk bool) {
	c.push16(c.PC)
	p := c.P | byte(U)
	if brk {
		p |= byte(B)
	} else {
		p &^= byte(B)
	}
	c.push(p)
	c.setFlag(I, true)
	c.PC = c.read16(vector)
}

func (c *CPU) getFlag(f Flag) byte {
	if c.P&byte(f) != 0 {
		return 1
	}
	return 0
}

func (c *CPU) setFlag(f Flag, v bool) {
	if v {
		c.P |= byte(f)
	} else {
		c.P &^= byte(f)
	}
}

func (c *CPU) setZN(v byte) {
	c.setFlag(Z, v == 0)
	c.setFlag(N, v&0x80 != 0)
}

func (c *CPU) read(addr uint16) byte {
	return c.bus.Read(addr)
}

func (c *CPU) write(addr uint16, data byte) {
	c.bus.Write(addr, data)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read(addr))
	hi := uint16(c.read(addr + 1))
	return hi<<8 | lo
}

func (c *CPU) push(data byte) {
	c.write(0x0100|uint16(c.SP), data)
	c.SP--
}

func (c *CPU) pop() byte {
	c.SP++
	return c.read(0x0100 | uint16(c.SP))
}

func (c *CPU) push16(v uint16) {
	c.push(byte(v >> 8))
	c.push(byte(v))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}
