package cpu

import "fmt"

// maxPendingCycles bounds the cycles left on a restored CPU: the longest
// instruction plus an OAM DMA and a DMC fetch stall.
const maxPendingCycles = 1024

// State is the serialisable register file of the CPU, including the
// interrupt latches and the remaining cycles of the current instruction.
type State struct {
	PC, AddrAbs, AddrRel            uint16
	SP, A, X, Y, P, Opcode, Fetched byte
	Implied                         bool
	Cycles                          int
	Total                           uint64
	NMIPending, IRQLine             bool
}

func (c *CPU) SaveState() State {
	return State{
		PC: c.PC, AddrAbs: c.addrAbs, AddrRel: c.addrRel,
		SP: c.SP, A: c.A, X: c.X, Y: c.Y, P: c.P, Opcode: c.opcode, Fetched: c.fetched,
		Implied:    c.implied,
		Cycles:     c.cycles,
		Total:      c.total,
		NMIPending: c.nmiPending, IRQLine: c.irqLine,
	}
}

func (c *CPU) LoadState(s State) {
	c.PC, c.addrAbs, c.addrRel = s.PC, s.AddrAbs, s.AddrRel
	c.SP, c.A, c.X, c.Y, c.P, c.opcode, c.fetched = s.SP, s.A, s.X, s.Y, s.P, s.Opcode, s.Fetched
	c.implied = s.Implied
	c.cycles = s.Cycles
	c.total = s.Total
	c.nmiPending, c.irqLine = s.NMIPending, s.IRQLine
}

// Validate checks that the pending cycle count is one the CPU can reach.
func (s State) Validate() error {
	if s.Cycles < 0 || s.Cycles > maxPendingCycles {
		return fmt.Errorf("cpu: %d pending cycles out of range", s.Cycles)
	}
	return nil
}
