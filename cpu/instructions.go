package cpu

// Instruction represents a 6502 instruction.
type Instruction struct {
	Name         string
	Operate      func() byte
	AddrMode     func() byte
	AddrModeName string
	Cycles       int
	Illegal      bool
}

type addrMode struct {
	name string
	fn   func() byte
}

func (c *CPU) createLookupTable() [256]Instruction {
	imp := addrMode{"IMP", c.imp}
	imm := addrMode{"IMM", c.imm}
	zp0 := addrMode{"ZP0", c.zp0}
	zpx := addrMode{"ZPX", c.zpx}
	zpy := addrMode{"ZPY", c.zpy}
	rel := addrMode{"REL", c.rel}
	abs := addrMode{"ABS", c.abs}
	abx := addrMode{"ABX", c.abx}
	aby := addrMode{"ABY", c.aby}
	ind := addrMode{"IND", c.ind}
	izx := addrMode{"IZX", c.izx}
	izy := addrMode{"IZY", c.izy}

	op := func(name string, fn func() byte, m addrMode, cycles int) Instruction {
		return Instruction{Name: name, Operate: fn, AddrMode: m.fn, AddrModeName: m.name, Cycles: cycles}
	}
	// undocumented opcodes keep their addressing mode so the operand
	// bytes are skipped, but otherwise do nothing
	bad := func(m addrMode, cycles int) Instruction {
		return Instruction{Name: "???", Operate: c.xxx, AddrMode: m.fn, AddrModeName: m.name, Cycles: cycles, Illegal: true}
	}
	nop := func(m addrMode, cycles int) Instruction {
		return Instruction{Name: "NOP", Operate: c.nop, AddrMode: m.fn, AddrModeName: m.name, Cycles: cycles, Illegal: true}
	}

	return [256]Instruction{
		0x00: op("BRK", c.brk, imp, 7), 0x01: op("ORA", c.ora, izx, 6), 0x02: bad(imp, 2), 0x03: bad(izx, 8),
		0x04: nop(zp0, 3), 0x05: op("ORA", c.ora, zp0, 3), 0x06: op("ASL", c.asl, zp0, 5), 0x07: bad(zp0, 5),
		0x08: op("PHP", c.php, imp, 3), 0x09: op("ORA", c.ora, imm, 2), 0x0A: op("ASL", c.asl, imp, 2), 0x0B: bad(imm, 2),
		0x0C: nop(abs, 4), 0x0D: op("ORA", c.ora, abs, 4), 0x0E: op("ASL", c.asl, abs, 6), 0x0F: bad(abs, 6),

		0x10: op("BPL", c.bpl, rel, 2), 0x11: op("ORA", c.ora, izy, 5), 0x12: bad(imp, 2), 0x13: bad(izy, 8),
		0x14: nop(zpx, 4), 0x15: op("ORA", c.ora, zpx, 4), 0x16: op("ASL", c.asl, zpx, 6), 0x17: bad(zpx, 6),
		0x18: op("CLC", c.clc, imp, 2), 0x19: op("ORA", c.ora, aby, 4), 0x1A: nop(imp, 2), 0x1B: bad(aby, 7),
		0x1C: nop(abx, 4), 0x1D: op("ORA", c.ora, abx, 4), 0x1E: op("ASL", c.asl, abx, 7), 0x1F: bad(abx, 7),

		0x20: op("JSR", c.jsr, abs, 6), 0x21: op("AND", c.and, izx, 6), 0x22: bad(imp, 2), 0x23: bad(izx, 8),
		0x24: op("BIT", c.bit, zp0, 3), 0x25: op("AND", c.and, zp0, 3), 0x26: op("ROL", c.rol, zp0, 5), 0x27: bad(zp0, 5),
		0x28: op("PLP", c.plp, imp, 4), 0x29: op("AND", c.and, imm, 2), 0x2A: op("ROL", c.rol, imp, 2), 0x2B: bad(imm, 2),
		0x2C: op("BIT", c.bit, abs, 4), 0x2D: op("AND", c.and, abs, 4), 0x2E: op("ROL", c.rol, abs, 6), 0x2F: bad(abs, 6),

		0x30: op("BMI", c.bmi, rel, 2), 0x31: op("AND", c.and, izy, 5), 0x32: bad(imp, 2), 0x33: bad(izy, 8),
		0x34: nop(zpx, 4), 0x35: op("AND", c.and, zpx, 4), 0x36: op("ROL", c.rol, zpx, 6), 0x37: bad(zpx, 6),
		0x38: op("SEC", c.sec, imp, 2), 0x39: op("AND", c.and, aby, 4), 0x3A: nop(imp, 2), 0x3B: bad(aby, 7),
		0x3C: nop(abx, 4), 0x3D: op("AND", c.and, abx, 4), 0x3E: op("ROL", c.rol, abx, 7), 0x3F: bad(abx, 7),

		0x40: op("RTI", c.rti, imp, 6), 0x41: op("EOR", c.eor, izx, 6), 0x42: bad(imp, 2), 0x43: bad(izx, 8),
		0x44: nop(zp0, 3), 0x45: op("EOR", c.eor, zp0, 3), 0x46: op("LSR", c.lsr, zp0, 5), 0x47: bad(zp0, 5),
		0x48: op("PHA", c.pha, imp, 3), 0x49: op("EOR", c.eor, imm, 2), 0x4A: op("LSR", c.lsr, imp, 2), 0x4B: bad(imm, 2),
		0x4C: op("JMP", c.jmp, abs, 3), 0x4D: op("EOR", c.eor, abs, 4), 0x4E: op("LSR", c.lsr, abs, 6), 0x4F: bad(abs, 6),

		0x50: op("BVC", c.bvc, rel, 2), 0x51: op("EOR", c.eor, izy, 5), 0x52: bad(imp, 2), 0x53: bad(izy, 8),
		0x54: nop(zpx, 4), 0x55: op("EOR", c.eor, zpx, 4), 0x56: op("LSR", c.lsr, zpx, 6), 0x57: bad(zpx, 6),
		0x58: op("CLI", c.cli, imp, 2), 0x59: op("EOR", c.eor, aby, 4), 0x5A: nop(imp, 2), 0x5B: bad(aby, 7),
		0x5C: nop(abx, 4), 0x5D: op("EOR", c.eor, abx, 4), 0x5E: op("LSR", c.lsr, abx, 7), 0x5F: bad(abx, 7),

		0x60: op("RTS", c.rts, imp, 6), 0x61: op("ADC", c.adc, izx, 6), 0x62: bad(imp, 2), 0x63: bad(izx, 8),
		0x64: nop(zp0, 3), 0x65: op("ADC", c.adc, zp0, 3), 0x66: op("ROR", c.ror, zp0, 5), 0x67: bad(zp0, 5),
		0x68: op("PLA", c.pla, imp, 4), 0x69: op("ADC", c.adc, imm, 2), 0x6A: op("ROR", c.ror, imp, 2), 0x6B: bad(imm, 2),
		0x6C: op("JMP", c.jmp, ind, 5), 0x6D: op("ADC", c.adc, abs, 4), 0x6E: op("ROR", c.ror, abs, 6), 0x6F: bad(abs, 6),

		0x70: op("BVS", c.bvs, rel, 2), 0x71: op("ADC", c.adc, izy, 5), 0x72: bad(imp, 2), 0x73: bad(izy, 8),
		0x74: nop(zpx, 4), 0x75: op("ADC", c.adc, zpx, 4), 0x76: op("ROR", c.ror, zpx, 6), 0x77: bad(zpx, 6),
		0x78: op("SEI", c.sei, imp, 2), 0x79: op("ADC", c.adc, aby, 4), 0x7A: nop(imp, 2), 0x7B: bad(aby, 7),
		0x7C: nop(abx, 4), 0x7D: op("ADC", c.adc, abx, 4), 0x7E: op("ROR", c.ror, abx, 7), 0x7F: bad(abx, 7),

		0x80: nop(imm, 2), 0x81: op("STA", c.sta, izx, 6), 0x82: nop(imm, 2), 0x83: bad(izx, 6),
		0x84: op("STY", c.sty, zp0, 3), 0x85: op("STA", c.sta, zp0, 3), 0x86: op("STX", c.stx, zp0, 3), 0x87: bad(zp0, 3),
		0x88: op("DEY", c.dey, imp, 2), 0x89: nop(imm, 2), 0x8A: op("TXA", c.txa, imp, 2), 0x8B: bad(imm, 2),
		0x8C: op("STY", c.sty, abs, 4), 0x8D: op("STA", c.sta, abs, 4), 0x8E: op("STX", c.stx, abs, 4), 0x8F: bad(abs, 4),

		0x90: op("BCC", c.bcc, rel, 2), 0x91: op("STA", c.sta, izy, 6), 0x92: bad(imp, 2), 0x93: bad(izy, 6),
		0x94: op("STY", c.sty, zpx, 4), 0x95: op("STA", c.sta, zpx, 4), 0x96: op("STX", c.stx, zpy, 4), 0x97: bad(zpy, 4),
		0x98: op("TYA", c.tya, imp, 2), 0x99: op("STA", c.sta, aby, 5), 0x9A: op("TXS", c.txs, imp, 2), 0x9B: bad(aby, 5),
		0x9C: bad(abx, 5), 0x9D: op("STA", c.sta, abx, 5), 0x9E: bad(aby, 5), 0x9F: bad(aby, 5),

		0xA0: op("LDY", c.ldy, imm, 2), 0xA1: op("LDA", c.lda, izx, 6), 0xA2: op("LDX", c.ldx, imm, 2), 0xA3: bad(izx, 6),
		0xA4: op("LDY", c.ldy, zp0, 3), 0xA5: op("LDA", c.lda, zp0, 3), 0xA6: op("LDX", c.ldx, zp0, 3), 0xA7: bad(zp0, 3),
		0xA8: op("TAY", c.tay, imp, 2), 0xA9: op("LDA", c.lda, imm, 2), 0xAA: op("TAX", c.tax, imp, 2), 0xAB: bad(imm, 2),
		0xAC: op("LDY", c.ldy, abs, 4), 0xAD: op("LDA", c.lda, abs, 4), 0xAE: op("LDX", c.ldx, abs, 4), 0xAF: bad(abs, 4),

		0xB0: op("BCS", c.bcs, rel, 2), 0xB1: op("LDA", c.lda, izy, 5), 0xB2: bad(imp, 2), 0xB3: bad(izy, 5),
		0xB4: op("LDY", c.ldy, zpx, 4), 0xB5: op("LDA", c.lda, zpx, 4), 0xB6: op("LDX", c.ldx, zpy, 4), 0xB7: bad(zpy, 4),
		0xB8: op("CLV", c.clv, imp, 2), 0xB9: op("LDA", c.lda, aby, 4), 0xBA: op("TSX", c.tsx, imp, 2), 0xBB: bad(aby, 4),
		0xBC: op("LDY", c.ldy, abx, 4), 0xBD: op("LDA", c.lda, abx, 4), 0xBE: op("LDX", c.ldx, aby, 4), 0xBF: bad(aby, 4),

		0xC0: op("CPY", c.cpy, imm, 2), 0xC1: op("CMP", c.cmp, izx, 6), 0xC2: nop(imm, 2), 0xC3: bad(izx, 8),
		0xC4: op("CPY", c.cpy, zp0, 3), 0xC5: op("CMP", c.cmp, zp0, 3), 0xC6: op("DEC", c.dec, zp0, 5), 0xC7: bad(zp0, 5),
		0xC8: op("INY", c.iny, imp, 2), 0xC9: op("CMP", c.cmp, imm, 2), 0xCA: op("DEX", c.dex, imp, 2), 0xCB: bad(imm, 2),
		0xCC: op("CPY", c.cpy, abs, 4), 0xCD: op("CMP", c.cmp, abs, 4), 0xCE: op("DEC", c.dec, abs, 6), 0xCF: bad(abs, 6),

		0xD0: op("BNE", c.bne, rel, 2), 0xD1: op("CMP", c.cmp, izy, 5), 0xD2: bad(imp, 2), 0xD3: bad(izy, 8),
		0xD4: nop(zpx, 4), 0xD5: op("CMP", c.cmp, zpx, 4), 0xD6: op("DEC", c.dec, zpx, 6), 0xD7: bad(zpx, 6),
		0xD8: op("CLD", c.cld, imp, 2), 0xD9: op("CMP", c.cmp, aby, 4), 0xDA: nop(imp, 2), 0xDB: bad(aby, 7),
		0xDC: nop(abx, 4), 0xDD: op("CMP", c.cmp, abx, 4), 0xDE: op("DEC", c.dec, abx, 7), 0xDF: bad(abx, 7),

		0xE0: op("CPX", c.cpx, imm, 2), 0xE1: op("SBC", c.sbc, izx, 6), 0xE2: nop(imm, 2), 0xE3: bad(izx, 8),
		0xE4: op("CPX", c.cpx, zp0, 3), 0xE5: op("SBC", c.sbc, zp0, 3), 0xE6: op("INC", c.inc, zp0, 5), 0xE7: bad(zp0, 5),
		0xE8: op("INX", c.inx, imp, 2), 0xE9: op("SBC", c.sbc, imm, 2), 0xEA: op("NOP", c.nop, imp, 2), 0xEB: op("SBC", c.sbc, imm, 2),
		0xEC: op("CPX", c.cpx, abs, 4), 0xED: op("SBC", c.sbc, abs, 4), 0xEE: op("INC", c.inc, abs, 6), 0xEF: bad(abs, 6),

		0xF0: op("BEQ", c.beq, rel, 2), 0xF1: op("SBC", c.sbc, izy, 5), 0xF2: bad(imp, 2), 0xF3: bad(izy, 8),
		0xF4: nop(zpx, 4), 0xF5: op("SBC", c.sbc, zpx, 4), 0xF6: op("INC", c.inc, zpx, 6), 0xF7: bad(zpx, 6),
		0xF8: op("SED", c.sed, imp, 2), 0xF9: op("SBC", c.sbc, aby, 4), 0xFA: nop(imp, 2), 0xFB: bad(aby, 7),
		0xFC: nop(abx, 4), 0xFD: op("SBC", c.sbc, abx, 4), 0xFE: op("INC", c.inc, abx, 7), 0xFF: bad(abx, 7),
	}
}

// Addressing modes. Each returns 1 when the mode can add a cycle for a
// page crossing; the operation decides whether that cycle is taken.

func (c *CPU) imp() byte {
	c.implied = true
	c.fetched = c.A
	return 0
}

func (c *CPU) imm() byte {
	c.implied = false
	c.addrAbs = c.PC
	c.PC++
	return 0
}

func (c *CPU) zp0() byte {
	c.implied = false
	c.addrAbs = uint16(c.read(c.PC))
	c.PC++
	return 0
}

func (c *CPU) zpx() byte {
	c.implied = false
	c.addrAbs = uint16(c.read(c.PC) + c.X)
	c.PC++
	return 0
}

func (c *CPU) zpy() byte {
	c.implied = false
	c.addrAbs = uint16(c.read(c.PC) + c.Y)
	c.PC++
	return 0
}

func (c *CPU) rel() byte {
	c.implied = false
	c.addrRel = uint16(c.read(c.PC))
	c.PC++
	if c.addrRel&0x80 != 0 {
		c.addrRel |= 0xFF00
	}
	return 0
}

func (c *CPU) abs() byte {
	c.implied = false
	c.addrAbs = c.read16(c.PC)
	c.PC += 2
	return 0
}

func (c *CPU) abx() byte {
	c.implied = false
	base := c.read16(c.PC)
	c.PC += 2
	c.addrAbs = base + uint16(c.X)
	return pageCrossed(base, c.addrAbs)
}

func (c *CPU) aby() byte {
	c.implied = false
	base := c.read16(c.PC)
	c.PC += 2
	c.addrAbs = base + uint16(c.Y)
	return pageCrossed(base, c.addrAbs)
}

// ind reproduces the hardware bug where a pointer at $xxFF wraps within
// its page instead of crossing into the next one.
func (c *CPU) ind() byte {
	c.implied = false
	ptr := c.read16(c.PC)
	c.PC += 2
	hiAddr := ptr + 1
	if ptr&0x00FF == 0x00FF {
		hiAddr = ptr & 0xFF00
	}
	c.addrAbs = uint16(c.read(hiAddr))<<8 | uint16(c.read(ptr))
	return 0
}

func (c *CPU) izx() byte {
	c.implied = false
	t := c.read(c.PC) + c.X
	c.PC++
	lo := uint16(c.read(uint16(t)))
	hi := uint16(c.read(uint16(t + 1)))
	c.addrAbs = hi<<8 | lo
	return 0
}

func (c *CPU) izy() byte {
	c.implied = false
	t := c.read(c.PC)
	c.PC++
	lo := uint16(c.read(uint16(t)))
	hi := uint16(c.read(uint16(t + 1)))
	base := hi<<8 | lo
	c.addrAbs = base + uint16(c.Y)
	return pageCrossed(base, c.addrAbs)
}

func pageCrossed(a, b uint16) byte {
	if a&0xFF00 != b&0xFF00 {
		return 1
	}
	return 0
}

// fetch loads the operand unless the instruction is implied, in which
// case imp already placed the accumulator in fetched.
func (c *CPU) fetch() byte {
	if !c.implied {
		c.fetched = c.read(c.addrAbs)
	}
	return c.fetched
}

// writeBack stores a read-modify-write result to A or memory.
func (c *CPU) writeBack(v byte) {
	if c.implied {
		c.A = v
	} else {
		c.write(c.addrAbs, v)
	}
}

// Loads, stores and transfers.

func (c *CPU) lda() byte {
	c.A = c.fetch()
	c.setZN(c.A)
	return 1
}

func (c *CPU) ldx() byte {
	c.X = c.fetch()
	c.setZN(c.X)
	return 1
}

func (c *CPU) ldy() byte {
	c.Y = c.fetch()
	c.setZN(c.Y)
	return 1
}

func (c *CPU) sta() byte { c.write(c.addrAbs, c.A); return 0 }
func (c *CPU) stx() byte { c.write(c.addrAbs, c.X); return 0 }
func (c *CPU) sty() byte { c.write(c.addrAbs, c.Y); return 0 }

func (c *CPU) tax() byte { c.X = c.A; c.setZN(c.X); return 0 }
func (c *CPU) tay() byte { c.Y = c.A; c.setZN(c.Y); return 0 }
func (c *CPU) txa() byte { c.A = c.X; c.setZN(c.A); return 0 }
func (c *CPU) tya() byte { c.A = c.Y; c.setZN(c.A); return 0 }
func (c *CPU) tsx() byte { c.X = c.SP; c.setZN(c.X); return 0 }
func (c *CPU) txs() byte { c.SP = c.X; return 0 }

// Stack.

func (c *CPU) pha() byte {
	c.push(c.A)
	return 0
}

func (c *CPU) php() byte {
	c.push(c.P | byte(B) | byte(U))
	return 0
}

func (c *CPU) pla() byte {
	c.A = c.pop()
	c.setZN(c.A)
	return 0
}

func (c *CPU) plp() byte {
	c.P = c.pop()&^byte(B) | byte(U)
	return 0
}

// Arithmetic and logic.

func (c *CPU) addWithCarry(v byte) {
	sum := uint16(c.A) + uint16(v) + uint16(c.getFlag(C))
	c.setFlag(C, sum > 0xFF)
	c.setFlag(V, (^(c.A^v))&(c.A^byte(sum))&0x80 != 0)
	c.A = byte(sum)
	c.setZN(c.A)
}

func (c *CPU) adc() byte {
	c.addWithCarry(c.fetch())
	return 1
}

func (c *CPU) sbc() byte {
	c.addWithCarry(c.fetch() ^ 0xFF)
	return 1
}

func (c *CPU) and() byte {
	c.A &= c.fetch()
	c.setZN(c.A)
	return 1
}

func (c *CPU) ora() byte {
	c.A |= c.fetch()
	c.setZN(c.A)
	return 1
}

func (c *CPU) eor() byte {
	c.A ^= c.fetch()
	c.setZN(c.A)
	return 1
}

func (c *CPU) bit() byte {
	v := c.fetch()
	c.setFlag(Z, c.A&v == 0)
	c.setFlag(V, v&0x40 != 0)
	c.setFlag(N, v&0x80 != 0)
	return 0
}

func (c *CPU) compare(reg byte) {
	v := c.fetch()
	c.setFlag(C, reg >= v)
	c.setZN(reg - v)
}

func (c *CPU) cmp() byte { c.compare(c.A); return 1 }
func (c *CPU) cpx() byte { c.compare(c.X); return 0 }
func (c *CPU) cpy() byte { c.compare(c.Y); return 0 }

func (c *CPU) inc() byte {
	v := c.fetch() + 1
	c.write(c.addrAbs, v)
	c.setZN(v)
	return 0
}

func (c *CPU) dec() byte {
	v := c.fetch() - 1
	c.write(c.addrAbs, v)
	c.setZN(v)
	return 0
}

func (c *CPU) inx() byte { c.X++; c.setZN(c.X); return 0 }
func (c *CPU) iny() byte { c.Y++; c.setZN(c.Y); return 0 }
func (c *CPU) dex() byte { c.X--; c.setZN(c.X); return 0 }
func (c *CPU) dey() byte { c.Y--; c.setZN(c.Y); return 0 }

// Shifts and rotates.

func (c *CPU) asl() byte {
	v := c.fetch()
	c.setFlag(C, v&0x80 != 0)
	v <<= 1
	c.setZN(v)
	c.writeBack(v)
	return 0
}

func (c *CPU) lsr() byte {
	v := c.fetch()
	c.setFlag(C, v&0x01 != 0)
	v >>= 1
	c.setZN(v)
	c.writeBack(v)
	return 0
}

func (c *CPU) rol() byte {
	v := c.fetch()
	carry := c.getFlag(C)
	c.setFlag(C, v&0x80 != 0)
	v = v<<1 | carry
	c.setZN(v)
	c.writeBack(v)
	return 0
}

func (c *CPU) ror() byte {
	v := c.fetch()
	carry := c.getFlag(C)
	c.setFlag(C, v&0x01 != 0)
	v = v>>1 | carry<<7
	c.setZN(v)
	c.writeBack(v)
	return 0
}

// Jumps and branches.

func (c *CPU) jmp() byte {
	c.PC = c.addrAbs
	return 0
}

func (c *CPU) jsr() byte {
	c.push16(c.PC - 1)
	c.PC = c.addrAbs
	return 0
}

func (c *CPU) rts() byte {
	c.PC = c.pop16() + 1
	return 0
}

func (c *CPU) brk() byte {
	c.PC++
	c.interrupt(irqVector, true)
	return 0
}

func (c *CPU) rti() byte {
	c.P = c.pop()&^byte(B) | byte(U)
	c.PC = c.pop16()
	return 0
}

// branch takes one extra cycle when taken and another when the target
// lies on a different page.
func (c *CPU) branch(cond bool) byte {
	if cond {
		c.cycles++
		c.addrAbs = c.PC + c.addrRel
		if c.addrAbs&0xFF00 != c.PC&0xFF00 {
			c.cycles++
		}
		c.PC = c.addrAbs
	}
	return 0
}

func (c *CPU) bcc() byte { return c.branch(c.getFlag(C) == 0) }
func (c *CPU) bcs() byte { return c.branch(c.getFlag(C) == 1) }
func (c *CPU) bne() byte { return c.branch(c.getFlag(Z) == 0) }
func (c *CPU) beq() byte { return c.branch(c.getFlag(Z) == 1) }
func (c *CPU) bpl() byte { return c.branch(c.getFlag(N) == 0) }
func (c *CPU) bmi() byte { return c.branch(c.getFlag(N) == 1) }
func (c *CPU) bvc() byte { return c.branch(c.getFlag(V) == 0) }
func (c *CPU) bvs() byte { return c.branch(c.getFlag(V) == 1) }

// Flags.

func (c *CPU) clc() byte { c.setFlag(C, false); return 0 }
func (c *CPU) sec() byte { c.setFlag(C, true); return 0 }
func (c *CPU) cli() byte { c.setFlag(I, false); return 0 }
func (c *CPU) sei() byte { c.setFlag(I, true); return 0 }
func (c *CPU) cld() byte { c.setFlag(D, false); return 0 }
func (c *CPU) sed() byte { c.setFlag(D, true); return 0 }
func (c *CPU) clv() byte { c.setFlag(V, false); return 0 }

// nop also covers the multi-byte undocumented NOPs; the absolute,X forms
// pay for a page crossing like a load would.
func (c *CPU) nop() byte {
	return 1
}

func (c *CPU) xxx() byte {
	return 0
}
