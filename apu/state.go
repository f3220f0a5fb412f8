package apu

import "fmt"

type EnvelopeState struct {
	Start, Loop, Constant  bool
	Period, Divider, Decay byte
}

type PulseState struct {
	Enabled, IsPulse1                       bool
	DutyCycle, DutySequencer, LengthCounter byte
	Timer, TimerCounter                     uint16
	Envelope                                EnvelopeState
	SweepEnabled, SweepNegate, SweepReload  bool
	SweepPeriod, SweepShift, SweepCounter   byte
}

type TriangleState struct {
	Enabled, Control, LinearReload                             bool
	LinearCounterLoad, LinearCounter, LengthCounter, Sequencer byte
	Timer, TimerCounter                                        uint16
}

type NoiseState struct {
	Enabled, Mode               bool
	TimerPeriod, LengthCounter  byte
	TimerCounter, ShiftRegister uint16
	Envelope                    EnvelopeState
}

type DMCState struct {
	IrqEnabled, Loop, SampleBufferEmpty, Silence, IrqPending                  bool
	RateIndex, SampleBuffer, OutputLevel, ShiftRegister, BitsRemaining        byte
	TimerCounter, SampleAddress, SampleLength, CurrentAddress, BytesRemaining uint16
}

type State struct {
	Pulse1               PulseState
	Pulse2               PulseState
	Triangle             TriangleState
	Noise                NoiseState
	DMC                  DMCState
	Cycle, FrameCounter  uint64
	SequenceMode         byte
	IrqInhibit, FrameIRQ bool
	SampleCycleCounter   float64
	Pending              []float32
}

func (e *envelope) saveState() EnvelopeState {
	return EnvelopeState{e.start, e.loop, e.constant, e.period, e.divider, e.decay}
}

func (e *envelope) loadState(s EnvelopeState) {
	e.start, e.loop, e.constant, e.period, e.divider, e.decay = s.Start, s.Loop, s.Constant, s.Period, s.Divider, s.Decay
}

func (p *PulseChannel) SaveState() PulseState {
	return PulseState{
		Enabled:       p.enabled,
		IsPulse1:      p.isPulse1,
		DutyCycle:     p.dutyCycle,
		DutySequencer: p.dutySequencer,
		LengthCounter: p.lengthCounter,
		Timer:         p.timer,
		TimerCounter:  p.timerCounter,
		Envelope:      p.env.saveState(),
		SweepEnabled:  p.sweepEnabled,
		SweepNegate:   p.sweepNegate,
		SweepReload:   p.sweepReload,
		SweepPeriod:   p.sweepPeriod,
		SweepShift:    p.sweepShift,
		SweepCounter:  p.sweepCounter,
	}
}

func (p *PulseChannel) LoadState(s PulseState) {
	p.enabled, p.isPulse1 = s.Enabled, s.IsPulse1
	p.dutyCycle, p.dutySequencer, p.lengthCounter = s.DutyCycle, s.DutySequencer, s.LengthCounter
	p.timer, p.timerCounter = s.Timer, s.TimerCounter
	p.env.loadState(s.Envelope)
	p.sweepEnabled, p.sweepNegate, p.sweepReload = s.SweepEnabled, s.SweepNegate, s.SweepReload
	p.sweepPeriod, p.sweepShift, p.sweepCounter = s.SweepPeriod, s.SweepShift, s.SweepCounter
}

func (t *TriangleChannel) SaveState() TriangleState {
	return TriangleState{t.enabled, t.control, t.linearReload, t.linearCounterLoad, t.linearCounter, t.lengthCounter, t.sequencer, t.timer, t.timerCounter}
}

func (t *TriangleChannel) LoadState(s TriangleState) {
	t.enabled, t.control, t.linearReload = s.Enabled, s.Control, s.LinearReload
	t.linearCounterLoad, t.linearCounter, t.lengthCounter, t.sequencer = s.LinearCounterLoad, s.LinearCounter, s.LengthCounter, s.Sequencer
	t.timer, t.timerCounter = s.Timer, s.TimerCounter
}

func (n *NoiseChannel) SaveState() NoiseState {
	return NoiseState{n.enabled, n.mode, n.timerPeriod, n.lengthCounter, n.timerCounter, n.shiftRegister, n.env.saveState()}
}

func (n *NoiseChannel) LoadState(s NoiseState) {
	n.enabled, n.mode, n.timerPeriod, n.lengthCounter = s.Enabled, s.Mode, s.TimerPeriod, s.LengthCounter
	n.timerCounter, n.shiftRegister = s.TimerCounter, s.ShiftRegister
	n.env.loadState(s.Envelope)
}

func (d *DMCChannel) SaveState() DMCState {
	return DMCState{
		d.irqEnabled, d.loop, d.sampleBufferEmpty, d.silence, d.irqPending,
		d.rateIndex, d.sampleBuffer, d.outputLevel, d.shiftRegister, d.bitsRemaining,
		d.timerCounter, d.sampleAddress, d.sampleLength, d.currentAddress, d.bytesRemaining,
	}
}

func (d *DMCChannel) LoadState(s DMCState) {
	d.irqEnabled, d.loop, d.sampleBufferEmpty, d.silence, d.irqPending = s.IrqEnabled, s.Loop, s.SampleBufferEmpty, s.Silence, s.IrqPending
	d.rateIndex, d.sampleBuffer, d.outputLevel, d.shiftRegister, d.bitsRemaining = s.RateIndex, s.SampleBuffer, s.OutputLevel, s.ShiftRegister, s.BitsRemaining
	d.timerCounter, d.sampleAddress, d.sampleLength, d.currentAddress, d.bytesRemaining = s.TimerCounter, s.SampleAddress, s.SampleLength, s.CurrentAddress, s.BytesRemaining
}

func (a *APU) SaveState() State {
	return State{
		Pulse1:             a.pulse1.SaveState(),
		Pulse2:             a.pulse2.SaveState(),
		Triangle:           a.triangle.SaveState(),
		Noise:              a.noise.SaveState(),
		DMC:                a.dmc.SaveState(),
		Cycle:              a.cycle,
		FrameCounter:       a.frameCounter,
		SequenceMode:       a.sequenceMode,
		IrqInhibit:         a.irqInhibit,
		FrameIRQ:           a.frameIRQ,
		SampleCycleCounter: a.sampleCycleCounter,
		Pending:            append([]float32(nil), a.sampleBuffer...),
	}
}

func (a *APU) LoadState(s State) {
	a.pulse1.LoadState(s.Pulse1)
	a.pulse2.LoadState(s.Pulse2)
	a.triangle.LoadState(s.Triangle)
	a.noise.LoadState(s.Noise)
	a.dmc.LoadState(s.DMC)
	a.cycle, a.frameCounter, a.sequenceMode = s.Cycle, s.FrameCounter, s.SequenceMode
	a.irqInhibit, a.frameIRQ = s.IrqInhibit, s.FrameIRQ
	a.sampleCycleCounter = s.SampleCycleCounter
	a.sampleBuffer = append(a.sampleBuffer[:0], s.Pending...)
}

func (s EnvelopeState) validate() error {
	if s.Period > 15 || s.Decay > 15 {
		return fmt.Errorf("envelope period %d, decay %d out of range", s.Period, s.Decay)
	}
	return nil
}

func (s PulseState) validate() error {
	if int(s.DutyCycle) >= len(dutyCycles) || int(s.DutySequencer) >= len(dutyCycles[0]) {
		return fmt.Errorf("duty %d/%d out of range", s.DutyCycle, s.DutySequencer)
	}
	return s.Envelope.validate()
}

// Validate reports the first field that would index outside the channel
// tables or the mixer once the state is applied.
func (s State) Validate() error {
	if err := s.Pulse1.validate(); err != nil {
		return fmt.Errorf("pulse 1: %w", err)
	}
	if err := s.Pulse2.validate(); err != nil {
		return fmt.Errorf("pulse 2: %w", err)
	}
	if int(s.Triangle.Sequencer) >= len(triangleWaveform) {
		return fmt.Errorf("triangle: sequencer %d out of range", s.Triangle.Sequencer)
	}
	if int(s.Noise.TimerPeriod) >= len(noiseTimerTable) {
		return fmt.Errorf("noise: period index %d out of range", s.Noise.TimerPeriod)
	}
	if err := s.Noise.Envelope.validate(); err != nil {
		return fmt.Errorf("noise: %w", err)
	}
	switch {
	case int(s.DMC.RateIndex) >= len(dmcRateTable):
		return fmt.Errorf("dmc: rate index %d out of range", s.DMC.RateIndex)
	case s.DMC.OutputLevel > 127:
		return fmt.Errorf("dmc: output level %d out of range", s.DMC.OutputLevel)
	case s.DMC.BitsRemaining == 0 || s.DMC.BitsRemaining > 8:
		return fmt.Errorf("dmc: %d bits remaining", s.DMC.BitsRemaining)
	}
	if s.SequenceMode > fiveStep {
		return fmt.Errorf("frame sequencer mode %d", s.SequenceMode)
	}
	return nil
}
