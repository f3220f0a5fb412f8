package apu

// BusReader defines the interface the APU needs to read from the bus.
// DMC sample fetches go through it; the bus is expected to charge the CPU
// for the stolen cycles.
type BusReader interface {
	Read(addr uint16) byte
}

// Frame sequencer step positions, in APU cycles (half the CPU clock).
const (
	step1    = 3729
	step2    = 7457
	step3    = 11186
	step4    = 14915
	step5    = 18641
	fourStep = 0
	fiveStep = 1
)

var pulseTable [31]float32
var tndTable [203]float32

func init() {
	for i := 1; i < len(pulseTable); i++ {
		pulseTable[i] = float32(95.52 / (8128.0/float64(i) + 100))
	}
	for i := 1; i < len(tndTable); i++ {
		tndTable[i] = float32(163.67 / (24329.0/float64(i) + 100))
	}
}

// APU represents the Audio Processing Unit.
type APU struct {
	pulse1   PulseChannel
	pulse2   PulseChannel
	triangle TriangleChannel
	noise    NoiseChannel
	dmc      DMCChannel
	cycle    uint64
	bus      BusReader

	frameCounter uint64
	sequenceMode byte
	irqInhibit   bool
	frameIRQ     bool

	sampleRate         float64
	cpuClockRate       float64
	sampleCycleCounter float64
	sampleBuffer       []float32
}

// New creates an APU that resamples its output from cpuClockRate to
// sampleRate.
func New(sampleRate int, cpuClockRate float64) *APU {
	a := &APU{
		sampleRate:   float64(sampleRate),
		cpuClockRate: cpuClockRate,
		sampleBuffer: make([]float32, 0, sampleRate/10),
	}
	a.Reset()
	return a
}

// ConnectBus connects the bus used for DMC sample fetches.
func (a *APU) ConnectBus(bus BusReader) {
	a.bus = bus
}

// Reset silences every channel and restarts the frame sequencer. Pending
// samples are discarded.
func (a *APU) Reset() {
	a.pulse1 = PulseChannel{isPulse1: true}
	a.pulse2 = PulseChannel{}
	a.triangle = TriangleChannel{}
	a.noise = NoiseChannel{shiftRegister: 1}
	a.dmc.reset()
	a.cycle = 0
	a.frameCounter = 0
	a.sequenceMode = fourStep
	a.irqInhibit = false
	a.frameIRQ = false
	a.sampleCycleCounter = 0
	a.sampleBuffer = a.sampleBuffer[:0]
}

// SampleRate returns the output sample rate in Hz.
func (a *APU) SampleRate() int {
	return int(a.sampleRate)
}

// IRQ reports whether the frame sequencer or the DMC is asserting IRQ.
func (a *APU) IRQ() bool {
	return a.frameIRQ || a.dmc.irqPending
}

// DrainSamples appends the samples produced since the last call to dst
// and clears the internal buffer.
func (a *APU) DrainSamples(dst []float32) []float32 {
	dst = append(dst, a.sampleBuffer...)
	a.sampleBuffer = a.sampleBuffer[:0]
	return dst
}

// Pending returns the number of samples waiting to be drained.
func (a *APU) Pending() int {
	return len(a.sampleBuffer)
}

// output returns the current mixed audio sample using the non-linear
// DAC approximation, in the range [0, 1].
func (a *APU) output() float32 {
	p := a.pulse1.output() + a.pulse2.output()
	tnd := 3*int(a.triangle.output()) + 2*int(a.noise.output()) + int(a.dmc.output())
	return pulseTable[p] + tndTable[tnd]
}

// Clock performs one APU tick; it is called once per CPU cycle.
func (a *APU) Clock() {
	a.triangle.clockTimer()
	a.noise.clockTimer()
	a.dmc.clockTimer()
	a.dmc.fill(a.bus)

	if a.cycle%2 == 0 {
		a.pulse1.clockTimer()
		a.pulse2.clockTimer()
		a.clockFrameSequencer()
	}

	// Downsample to the desired sample rate.
	a.sampleCycleCounter += a.sampleRate / a.cpuClockRate
	if a.sampleCycleCounter >= 1 {
		a.sampleCycleCounter--
		a.sampleBuffer = append(a.sampleBuffer, a.output())
	}

	a.cycle++
}

func (a *APU) clockFrameSequencer() {
	a.frameCounter++
	switch a.frameCounter {
	case step1, step3:
		a.clockQuarterFrame()
	case step2:
		a.clockQuarterFrame()
		a.clockHalfFrame()
	case step4:
		if a.sequenceMode == fourStep {
			a.clockQuarterFrame()
			a.clockHalfFrame()
			if !a.irqInhibit {
				a.frameIRQ = true
			}
			a.frameCounter = 0
		}
	case step5:
		a.clockQuarterFrame()
		a.clockHalfFrame()
		a.frameCounter = 0
	}
}

func (a *APU) clockQuarterFrame() {
	a.pulse1.env.clock()
	a.pulse2.env.clock()
	a.triangle.clockLinear()
	a.noise.env.clock()
}

func (a *APU) clockHalfFrame() {
	a.pulse1.clockLength()
	a.pulse1.clockSweep()
	a.pulse2.clockLength()
	a.pulse2.clockSweep()
	a.triangle.clockLength()
	a.noise.clockLength()
}

// CPURead handles CPU reads from the APU's registers. Only $4015 is
// readable; reading it acknowledges the frame interrupt.
func (a *APU) CPURead(addr uint16) byte {
	if addr != 0x4015 {
		return 0
	}
	var data byte
	if a.pulse1.lengthCounter > 0 {
		data |= 0x01
	}
	if a.pulse2.lengthCounter > 0 {
		data |= 0x02
	}
	if a.triangle.lengthCounter > 0 {
		data |= 0x04
	}
	if a.noise.lengthCounter > 0 {
		data |= 0x08
	}
	if a.dmc.bytesRemaining > 0 {
		data |= 0x10
	}
	if a.frameIRQ {
		data |= 0x40
	}
	if a.dmc.irqPending {
		data |= 0x80
	}
	a.frameIRQ = false
	return data
}

// CPUWrite handles CPU writes to the APU's registers ($4000-$4013,
// $4015, $4017).
func (a *APU) CPUWrite(addr uint16, data byte) {
	switch {
	case addr >= 0x4000 && addr <= 0x4003:
		a.pulse1.write(addr, data)
	case addr >= 0x4004 && addr <= 0x4007:
		a.pulse2.write(addr, data)
	case addr >= 0x4008 && addr <= 0x400B:
		a.triangle.write(addr, data)
	case addr >= 0x400C && addr <= 0x400F:
		a.noise.write(addr, data)
	case addr >= 0x4010 && addr <= 0x4013:
		a.dmc.write(addr, data)
	case addr == 0x4015:
		a.pulse1.setEnabled(data&0x01 != 0)
		a.pulse2.setEnabled(data&0x02 != 0)
		a.triangle.setEnabled(data&0x04 != 0)
		a.noise.setEnabled(data&0x08 != 0)
		a.dmc.setEnabled(data&0x10 != 0)
		a.dmc.irqPending = false
	case addr == 0x4017:
		a.sequenceMode = data >> 7
		a.irqInhibit = data&0x40 != 0
		if a.irqInhibit {
			a.frameIRQ = false
		}
		a.frameCounter = 0
		if a.sequenceMode == fiveStep {
			a.clockQuarterFrame()
			a.clockHalfFrame()
		}
	}
}
