package apu

var lengthCounterTable = [...]byte{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

var dutyCycles = [4][8]byte{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 25% negated
}

var triangleWaveform = [32]byte{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// noiseTimerTable is in CPU cycles (NTSC).
var noiseTimerTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// envelope is the volume unit shared by the pulse and noise channels.
type envelope struct {
	start    bool
	loop     bool // also halts the length counter
	constant bool
	period   byte // also the constant volume
	divider  byte
	decay    byte
}

func (e *envelope) write(data byte) {
	e.loop = data&0x20 != 0
	e.constant = data&0x10 != 0
	e.period = data & 0x0F
}

func (e *envelope) clock() {
	if e.start {
		e.start = false
		e.decay = 15
		e.divider = e.period
		return
	}
	if e.divider > 0 {
		e.divider--
		return
	}
	e.divider = e.period
	if e.decay > 0 {
		e.decay--
	} else if e.loop {
		e.decay = 15
	}
}

func (e *envelope) volume() byte {
	if e.constant {
		return e.period
	}
	return e.decay
}

// PulseChannel represents a single pulse wave channel.
type PulseChannel struct {
	enabled  bool
	isPulse1 bool // pulse 1 negates its sweep in ones' complement

	dutyCycle     byte
	dutySequencer byte
	timer         uint16
	timerCounter  uint16
	lengthCounter byte
	env           envelope

	sweepEnabled bool
	sweepPeriod  byte
	sweepNegate  bool
	sweepShift   byte
	sweepReload  bool
	sweepCounter byte
}

func (p *PulseChannel) write(reg uint16, data byte) {
	switch reg & 0x03 {
	case 0:
		p.dutyCycle = data >> 6
		p.env.write(data)
	case 1:
		p.sweepEnabled = data&0x80 != 0
		p.sweepPeriod = (data >> 4) & 0x07
		p.sweepNegate = data&0x08 != 0
		p.sweepShift = data & 0x07
		p.sweepReload = true
	case 2:
		p.timer = p.timer&0xFF00 | uint16(data)
	case 3:
		p.timer = p.timer&0x00FF | uint16(data&0x07)<<8
		if p.enabled {
			p.lengthCounter = lengthCounterTable[data>>3]
		}
		p.dutySequencer = 0
		p.env.start = true
	}
}

// clockTimer is called once per APU cycle (every second CPU cycle).
func (p *PulseChannel) clockTimer() {
	if p.timerCounter > 0 {
		p.timerCounter--
		return
	}
	p.timerCounter = p.timer
	p.dutySequencer = (p.dutySequencer + 1) % 8
}

func (p *PulseChannel) clockLength() {
	if !p.env.loop && p.lengthCounter > 0 {
		p.lengthCounter--
	}
}

func (p *PulseChannel) sweepTarget() int {
	t := int(p.timer)
	change := t >> p.sweepShift
	if !p.sweepNegate {
		return t + change
	}
	if p.isPulse1 {
		change++
	}
	if change > t {
		return 0
	}
	return t - change
}

// muted reports the sweep unit silencing the channel, which happens even
// when the sweep itself is disabled.
func (p *PulseChannel) muted() bool {
	return p.timer < 8 || p.sweepTarget() > 0x7FF
}

func (p *PulseChannel) clockSweep() {
	if p.sweepCounter == 0 && p.sweepEnabled && p.sweepShift > 0 && !p.muted() {
		p.timer = uint16(p.sweepTarget())
	}
	if p.sweepCounter == 0 || p.sweepReload {
		p.sweepCounter = p.sweepPeriod
		p.sweepReload = false
	} else {
		p.sweepCounter--
	}
}

func (p *PulseChannel) setEnabled(enabled bool) {
	p.enabled = enabled
	if !enabled {
		p.lengthCounter = 0
	}
}

func (p *PulseChannel) output() byte {
	if !p.enabled || p.lengthCounter == 0 || p.muted() {
		return 0
	}
	if dutyCycles[p.dutyCycle][p.dutySequencer] == 0 {
		return 0
	}
	return p.env.volume()
}

// TriangleChannel represents the triangle wave channel.
type TriangleChannel struct {
	enabled bool

	control           bool // halts the length counter and keeps reloading the linear counter
	linearCounterLoad byte
	linearCounter     byte
	linearReload      bool

	timer         uint16
	timerCounter  uint16
	lengthCounter byte
	sequencer     byte
}

func (t *TriangleChannel) write(reg uint16, data byte) {
	switch reg & 0x03 {
	case 0:
		t.control = data&0x80 != 0
		t.linearCounterLoad = data & 0x7F
	case 2:
		t.timer = t.timer&0xFF00 | uint16(data)
	case 3:
		t.timer = t.timer&0x00FF | uint16(data&0x07)<<8
		if t.enabled {
			t.lengthCounter = lengthCounterTable[data>>3]
		}
		t.linearReload = true
	}
}

// clockTimer is called every CPU cycle.
func (t *TriangleChannel) clockTimer() {
	if t.timerCounter > 0 {
		t.timerCounter--
		return
	}
	t.timerCounter = t.timer
	if t.linearCounter > 0 && t.lengthCounter > 0 {
		t.sequencer = (t.sequencer + 1) % 32
	}
}

func (t *TriangleChannel) clockLinear() {
	if t.linearReload {
		t.linearCounter = t.linearCounterLoad
	} else if t.linearCounter > 0 {
		t.linearCounter--
	}
	if !t.control {
		t.linearReload = false
	}
}

func (t *TriangleChannel) clockLength() {
	if !t.control && t.lengthCounter > 0 {
		t.lengthCounter--
	}
}

func (t *TriangleChannel) setEnabled(enabled bool) {
	t.enabled = enabled
	if !enabled {
		t.lengthCounter = 0
	}
}

// output holds the current step while the sequencer is halted, like the
// hardware, rather than dropping to zero.
func (t *TriangleChannel) output() byte {
	if !t.enabled || t.lengthCounter == 0 || t.linearCounter == 0 {
		return 0
	}
	if t.timer < 2 {
		// ultrasonic periods average out to the midpoint
		return 7
	}
	return triangleWaveform[t.sequencer]
}

// NoiseChannel represents the noise channel.
type NoiseChannel struct {
	enabled bool

	mode          bool
	timerPeriod   byte
	timerCounter  uint16
	shiftRegister uint16
	lengthCounter byte
	env           envelope
}

func (n *NoiseChannel) write(reg uint16, data byte) {
	switch reg & 0x03 {
	case 0:
		n.env.write(data)
	case 2:
		n.mode = data&0x80 != 0
		n.timerPeriod = data & 0x0F
	case 3:
		if n.enabled {
			n.lengthCounter = lengthCounterTable[data>>3]
		}
		n.env.start = true
	}
}

// clockTimer is called every CPU cycle; the period table is in CPU cycles.
func (n *NoiseChannel) clockTimer() {
	if n.timerCounter > 0 {
		n.timerCounter--
		return
	}
	n.timerCounter = noiseTimerTable[n.timerPeriod] - 1

	tap := uint16(1)
	if n.mode {
		tap = 6
	}
	feedback := (n.shiftRegister ^ n.shiftRegister>>tap) & 1
	n.shiftRegister = n.shiftRegister>>1 | feedback<<14
}

func (n *NoiseChannel) clockLength() {
	if !n.env.loop && n.lengthCounter > 0 {
		n.lengthCounter--
	}
}

func (n *NoiseChannel) setEnabled(enabled bool) {
	n.enabled = enabled
	if !enabled {
		n.lengthCounter = 0
	}
}

func (n *NoiseChannel) output() byte {
	if !n.enabled || n.lengthCounter == 0 || n.shiftRegister&1 == 1 {
		return 0
	}
	return n.env.volume()
}
