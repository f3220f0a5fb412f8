package cpu

import (
	"testing"
)

type mockBus struct {
	ram [65536]byte
}

func (b *mockBus) Read(addr uint16) byte {
	return b.ram[addr]
}

func (b *mockBus) Write(addr uint16, data byte) {
	b.ram[addr] = data
}

// executeOneInstruction clocks away anything in flight, then runs the next
// instruction to completion and returns the cycles it took.
func executeOneInstruction(c *CPU) int {
	for !c.Complete() {
		c.Clock()
	}
	n := 0
	for {
		c.Clock()
		n++
		if c.Complete() {
			return n
		}
	}
}

func setupCPU(t *testing.T) (*CPU, *mockBus) {
	c := New()
	bus := &mockBus{}
	c.ConnectBus(bus)
	c.Reset()
	// After Reset, c.cycles is 8. Clock these away so CPU is ready to fetch.
	for i := 0; i < 8; i++ {
		c.Clock()
	}
	c.PC = 0x8000
	return c, bus
}

func TestLoadStore(t *testing.T) {
	c, bus := setupCPU(t)

	// LDA IMM
	bus.Write(0x8000, 0xA9)
	bus.Write(0x8001, 0x42)
	executeOneInstruction(c)
	if c.A != 0x42 {
		t.Error("LDA IMM failed")
	}

	// STA ABS
	c.PC = 0x8002
	bus.Write(0x8002, 0x8D)
	bus.Write(0x8003, 0x10)
	bus.Write(0x8004, 0x01)
	executeOneInstruction(c)
	if bus.ram[0x0110] != 0x42 {
		t.Error("STA ABS failed")
	}
}

func TestArithmetic(t *testing.T) {
	c, bus := setupCPU(t)

	// ADC
	c.A = 10
	bus.Write(0x8000, 0x69) // ADC #$05
	bus.Write(0x8001, 5)
	executeOneInstruction(c)
	if c.A != 15 {
		t.Error("ADC failed")
	}

	// SBC
	c.PC = 0x8002
	c.setFlag(C, true)
	bus.Write(0x8002, 0xE9) // SBC #$05
	bus.Write(0x8003, 5)
	executeOneInstruction(c)
	if c.A != 10 {
		t.Error("SBC failed")
	}
}

func TestIncDec(t *testing.T) {
	c, bus := setupCPU(t)

	// INC
	bus.Write(0x10, 0x41)
	bus.Write(0x8000, 0xE6) // INC $10
	bus.Write(0x8001, 0x10)
	executeOneInstruction(c)
	if bus.ram[0x10] != 0x42 {
		t.Error("INC failed")
	}

	// INX
	c.PC = 0x8002
	c.X = 0x10
	bus.Write(0x8002, 0xE8) // INX
	executeOneInstruction(c)
	if c.X != 0x11 {
		t.Error("INX failed")
	}
}

func TestLogical(t *testing.T) {
	c, bus := setupCPU(t)

	// AND
	c.A = 0b10101010
	bus.Write(0x8000, 0x29) // AND #$0F
	bus.Write(0x8001, 0b00001111)
	executeOneInstruction(c)
	if c.A != 0b00001010 {
		t.Error("AND failed")
	}
}

func TestShiftRotate(t *testing.T) {
	c, bus := setupCPU(t)

	// ASL
	c.A = 0b01010101
	bus.Write(0x8000, 0x0A) // ASL
	executeOneInstruction(c)
	if c.A != 0b10101010 {
		t.Error("ASL failed")
	}
	if c.getFlag(C) != 0 {
		t.Error("ASL carry failed")
	}

	// LSR
	c.PC = 0x8001
	bus.Write(0x8001, 0x4A) // LSR
	executeOneInstruction(c)
	if c.A != 0b01010101 {
		t.Error("LSR failed")
	}
	if c.getFlag(C) != 0 {
		t.Error("LSR carry failed")
	}
}

func TestBranch(t *testing.T) {
	c, bus := setupCPU(t)

	// BEQ (not taken)
	bus.Write(0x8000, 0xF0) // BEQ $10
	bus.Write(0x8001, 0x10)
	executeOneInstruction(c)
	if c.PC != 0x8002 {
		t.Error("BEQ (not taken) failed")
	}

	// BEQ (taken)
	c.PC = 0x8002
	c.setFlag(Z, true)
	bus.Write(0x8002, 0xF0) // BEQ $10
	bus.Write(0x8003, 0x10)
	executeOneInstruction(c)
	if c.PC != 0x8014 {
		t.Error("BEQ (taken) failed")
	}
}

func TestAddSubtractFlags(t *testing.T) {
	c, bus := setupCPU(t)

	c.A = 0x50
	bus.Write(0x8000, 0x69) // ADC #$50
	bus.Write(0x8001, 0x50)
	executeOneInstruction(c)
	if c.A != 0xA0 || c.getFlag(V) != 1 || c.getFlag(C) != 0 || c.getFlag(N) != 1 {
		t.Errorf("ADC overflow: A=%02X P=%08b", c.A, c.P)
	}

	c.A = 0x50
	c.setFlag(C, true)
	bus.Write(0x8002, 0xE9) // SBC #$F0
	bus.Write(0x8003, 0xF0)
	executeOneInstruction(c)
	if c.A != 0x60 || c.getFlag(C) != 0 || c.getFlag(V) != 0 {
		t.Errorf("SBC borrow: A=%02X P=%08b", c.A, c.P)
	}
}

func TestCompare(t *testing.T) {
	c, bus := setupCPU(t)
	c.A = 0x40
	bus.Write(0x8000, 0xC9) // CMP #$40
	bus.Write(0x8001, 0x40)
	executeOneInstruction(c)
	if c.getFlag(Z) != 1 || c.getFlag(C) != 1 || c.getFlag(N) != 0 {
		t.Errorf("CMP equal: P=%08b", c.P)
	}

	c.X = 0x10
	bus.Write(0x8002, 0xE0) // CPX #$20
	bus.Write(0x8003, 0x20)
	executeOneInstruction(c)
	if c.getFlag(Z) != 0 || c.getFlag(C) != 0 || c.getFlag(N) != 1 {
		t.Errorf("CPX less: P=%08b", c.P)
	}
}

func TestStack(t *testing.T) {
	c, bus := setupCPU(t)

	// JSR $9000 ; at $9000: RTS
	bus.Write(0x8000, 0x20)
	bus.Write(0x8001, 0x00)
	bus.Write(0x8002, 0x90)
	bus.Write(0x9000, 0x60)

	sp := c.SP
	executeOneInstruction(c)
	if c.PC != 0x9000 {
		t.Fatalf("JSR: PC=%04X", c.PC)
	}
	if bus.ram[0x0100|uint16(sp)] != 0x80 || bus.ram[0x0100|uint16(sp-1)] != 0x02 {
		t.Errorf("JSR pushed %02X%02X, want 8002", bus.ram[0x0100|uint16(sp)], bus.ram[0x0100|uint16(sp-1)])
	}
	executeOneInstruction(c)
	if c.PC != 0x8003 || c.SP != sp {
		t.Errorf("RTS: PC=%04X SP=%02X", c.PC, c.SP)
	}

	// PHP pushes B and U, PLP drops B
	c.P = byte(C | U)
	bus.Write(0x8003, 0x08)
	bus.Write(0x8004, 0x28)
	executeOneInstruction(c)
	if got := bus.ram[0x0100|uint16(c.SP+1)]; got != byte(C|B|U) {
		t.Errorf("PHP pushed %08b", got)
	}
	executeOneInstruction(c)
	if c.P != byte(C|U) {
		t.Errorf("PLP restored %08b", c.P)
	}
}

func TestJMPIndirectPageWrap(t *testing.T) {
	c, bus := setupCPU(t)
	bus.Write(0x8000, 0x6C) // JMP ($02FF)
	bus.Write(0x8001, 0xFF)
	bus.Write(0x8002, 0x02)
	bus.Write(0x02FF, 0x34)
	bus.Write(0x0200, 0x12)
	bus.Write(0x0300, 0x56)
	executeOneInstruction(c)
	if c.PC != 0x1234 {
		t.Errorf("Expected PC $1234, got $%04X", c.PC)
	}
}

func TestInstructionCycles(t *testing.T) {
	tests := []struct {
		name  string
		pc    uint16
		prog  []byte
		setup func(c *CPU, bus *mockBus)
		want  int
	}{
		{"LDA imm", 0x8000, []byte{0xA9, 0x01}, nil, 2},
		{"LDA abs", 0x8000, []byte{0xAD, 0x00, 0x02}, nil, 4},
		{"LDA abs,X", 0x8000, []byte{0xBD, 0x00, 0x02}, func(c *CPU, _ *mockBus) { c.X = 1 }, 4},
		{"LDA abs,X page cross", 0x8000, []byte{0xBD, 0xFF, 0x02}, func(c *CPU, _ *mockBus) { c.X = 1 }, 5},
		{"STA abs,X page cross", 0x8000, []byte{0x9D, 0xFF, 0x02}, func(c *CPU, _ *mockBus) { c.X = 1 }, 5},
		{"LDA (zp),Y page cross", 0x8000, []byte{0xB1, 0x10}, func(c *CPU, b *mockBus) {
			c.Y = 1
			b.ram[0x10], b.ram[0x11] = 0xFF, 0x02
		}, 6},
		{"STA (zp,X)", 0x8000, []byte{0x81, 0x10}, nil, 6},
		{"INC abs,X", 0x8000, []byte{0xFE, 0x00, 0x02}, nil, 7},
		{"ASL A", 0x8000, []byte{0x0A}, nil, 2},
		{"JSR", 0x8000, []byte{0x20, 0x00, 0x90}, nil, 6},
		{"JMP ind", 0x8000, []byte{0x6C, 0x00, 0x02}, nil, 5},
		{"BNE not taken", 0x8000, []byte{0xD0, 0x02}, func(c *CPU, _ *mockBus) { c.setFlag(Z, true) }, 2},
		{"BNE taken", 0x8000, []byte{0xD0, 0x02}, nil, 3},
		{"BNE taken page cross", 0x80F0, []byte{0xD0, 0x7F}, nil, 4},
		{"BRK", 0x8000, []byte{0x00}, nil, 7},
		{"undocumented NOP abs,X page cross", 0x8000, []byte{0x1C, 0xFF, 0x02}, func(c *CPU, _ *mockBus) { c.X = 1 }, 5},
		{"undocumented opcode", 0x8000, []byte{0x02}, nil, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, bus := setupCPU(t)
			c.PC = tc.pc
			c.setFlag(Z, false)
			copy(bus.ram[tc.pc:], tc.prog)
			if tc.setup != nil {
				tc.setup(c, bus)
			}
			if got := executeOneInstruction(c); got != tc.want {
				t.Errorf("Expected %d cycles, got %d", tc.want, got)
			}
		})
	}
}

func TestInterrupts(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0xFFFA], bus.ram[0xFFFB] = 0x00, 0x90 // NMI
	bus.ram[0xFFFE], bus.ram[0xFFFF] = 0x00, 0xA0 // IRQ/BRK
	bus.ram[0x9000] = 0x40                       // RTI
	bus.ram[0x8000] = 0xEA                       // NOP

	c.setFlag(I, false)
	c.NMI()
	c.SetIRQ(true)

	if n := executeOneInstruction(c); n != 7 {
		t.Errorf("Expected interrupt entry to take 7 cycles, got %d", n)
	}
	if c.PC != 0x9000 {
		t.Fatalf("Expected NMI to win over IRQ, PC=%04X", c.PC)
	}
	if c.getFlag(I) != 1 {
		t.Error("Expected I to be set inside the handler")
	}
	if pushed := bus.ram[0x0100|uint16(c.SP+1)]; pushed&byte(B) != 0 {
		t.Errorf("Expected B clear in the pushed status, got %08b", pushed)
	}

	executeOneInstruction(c) // RTI
	if c.PC != 0x8000 || c.getFlag(I) != 0 {
		t.Fatalf("RTI: PC=%04X P=%08b", c.PC, c.P)
	}

	executeOneInstruction(c)
	if c.PC != 0xA000 {
		t.Fatalf("Expected pending IRQ to be taken, PC=%04X", c.PC)
	}

	// masked
	c.PC = 0x8000
	executeOneInstruction(c)
	if c.PC != 0x8001 {
		t.Errorf("Expected IRQ to be masked by I, PC=%04X", c.PC)
	}
}

func TestBRK(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0xFFFE], bus.ram[0xFFFF] = 0x00, 0xA0
	bus.ram[0x8000] = 0x00
	executeOneInstruction(c)
	if c.PC != 0xA000 {
		t.Fatalf("Expected BRK to jump to $A000, got $%04X", c.PC)
	}
	p := bus.ram[0x0100|uint16(c.SP+1)]
	ret := uint16(bus.ram[0x0100|uint16(c.SP+3)])<<8 | uint16(bus.ram[0x0100|uint16(c.SP+2)])
	if p&byte(B) == 0 {
		t.Errorf("Expected B set in pushed status, got %08b", p)
	}
	if ret != 0x8002 {
		t.Errorf("Expected return address $8002, got $%04X", ret)
	}
}

func TestIllegalOpcodeIsNOP(t *testing.T) {
	c, bus := setupCPU(t)
	var seen []byte
	c.IllegalOpcode = func(op byte, pc uint16) {
		if pc != 0x8000 {
			t.Errorf("Expected report at $8000, got $%04X", pc)
		}
		seen = append(seen, op)
	}
	bus.ram[0x8000] = 0x04 // NOP zp
	bus.ram[0x8001] = 0x10
	a := c.A
	if n := executeOneInstruction(c); n != 3 {
		t.Errorf("Expected 3 cycles, got %d", n)
	}
	if c.PC != 0x8002 || c.A != a {
		t.Errorf("Expected operand skipped and registers untouched, PC=%04X A=%02X", c.PC, c.A)
	}
	if len(seen) != 1 || seen[0] != 0x04 {
		t.Errorf("Expected one report of $04, got %v", seen)
	}
}

func TestLookupTableComplete(t *testing.T) {
	c := New()
	official := 0
	for op := 0; op < 256; op++ {
		in := c.Lookup(byte(op))
		if in.Operate == nil || in.AddrMode == nil || in.Cycles == 0 {
			t.Errorf("opcode %02X is not decoded", op)
		}
		if !in.Illegal {
			official++
		}
	}
	// 151 documented opcodes plus the $EB alias of SBC
	if official != 152 {
		t.Errorf("Expected 152 documented opcodes, got %d", official)
	}
}

func TestStall(t *testing.T) {
	c, _ := setupCPU(t)
	c.Stall(513)
	n := 0
	for !c.Complete() {
		c.Clock()
		n++
	}
	if n != 513 || c.PC != 0x8000 {
		t.Errorf("Expected a 513 cycle stall with PC untouched, got %d cycles, PC=%04X", n, c.PC)
	}
}

func TestStateRoundTrip(t *testing.T) {
	c, bus := setupCPU(t)
	prog := []byte{0xA9, 0x10, 0xAA, 0xE8, 0x48, 0x69, 0x05}
	copy(bus.ram[0x8000:], prog)
	executeOneInstruction(c)
	executeOneInstruction(c)
	s := c.SaveState()

	executeOneInstruction(c)
	executeOneInstruction(c)
	executeOneInstruction(c)
	after := c.SaveState()

	c.LoadState(s)
	if c.SaveState() != s {
		t.Fatal("Expected LoadState to restore the saved registers")
	}
	executeOneInstruction(c)
	executeOneInstruction(c)
	executeOneInstruction(c)
	if c.SaveState() != after {
		t.Errorf("Expected identical execution after restore:\n got %+v\nwant %+v", c.SaveState(), after)
	}
}

func TestStateValidate(t *testing.T) {
	c, _ := setupCPU(t)
	s := c.SaveState()
	if err := s.Validate(); err != nil {
		t.Fatalf("Expected a saved state to validate, got %v", err)
	}
	for _, n := range []int{-1, maxPendingCycles + 1} {
		s.Cycles = n
		if err := s.Validate(); err == nil {
			t.Errorf("Expected %d pending cycles to be rejected", n)
		}
	}
}
