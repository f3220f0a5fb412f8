package apu

// dmcRateTable is in CPU cycles (NTSC).
var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54,
}

// DMCChannel represents the delta modulation channel. Its memory reader
// fetches sample bytes over the CPU bus.
type DMCChannel struct {
	irqEnabled bool
	loop       bool
	rateIndex  byte

	timerCounter uint16

	sampleAddress  uint16
	sampleLength   uint16
	currentAddress uint16
	bytesRemaining uint16

	sampleBuffer      byte
	sampleBufferEmpty bool

	outputLevel   byte
	shiftRegister byte
	bitsRemaining byte
	silence       bool

	irqPending bool
}

func (d *DMCChannel) reset() {
	*d = DMCChannel{
		sampleBufferEmpty: true,
		bitsRemaining:     8,
		silence:           true,
		timerCounter:      dmcRateTable[0] - 1,
	}
}

func (d *DMCChannel) write(reg uint16, data byte) {
	switch reg & 0x03 {
	case 0:
		d.irqEnabled = data&0x80 != 0
		d.loop = data&0x40 != 0
		d.rateIndex = data & 0x0F
		if !d.irqEnabled {
			d.irqPending = false
		}
	case 1:
		d.outputLevel = data & 0x7F
	case 2:
		d.sampleAddress = 0xC000 | uint16(data)<<6
	case 3:
		d.sampleLength = uint16(data)<<4 | 1
	}
}

func (d *DMCChannel) setEnabled(enabled bool) {
	if !enabled {
		d.bytesRemaining = 0
	} else if d.bytesRemaining == 0 {
		d.restart()
	}
}

func (d *DMCChannel) restart() {
	d.currentAddress = d.sampleAddress
	d.bytesRemaining = d.sampleLength
}

// fill runs the memory reader: when the sample buffer is empty and bytes
// remain, it fetches the next byte. It reports whether a fetch happened.
func (d *DMCChannel) fill(bus BusReader) bool {
	if !d.sampleBufferEmpty || d.bytesRemaining == 0 || bus == nil {
		return false
	}
	d.sampleBuffer = bus.Read(d.currentAddress)
	d.sampleBufferEmpty = false
	d.currentAddress++
	if d.currentAddress == 0 {
		d.currentAddress = 0x8000
	}
	d.bytesRemaining--
	if d.bytesRemaining == 0 {
		if d.loop {
			d.restart()
		} else if d.irqEnabled {
			d.irqPending = true
		}
	}
	return true
}

// clockTimer is called every CPU cycle and drives the output unit.
func (d *DMCChannel) clockTimer() {
	if d.timerCounter > 0 {
		d.timerCounter--
		return
	}
	d.timerCounter = dmcRateTable[d.rateIndex] - 1

	if !d.silence {
		if d.shiftRegister&1 == 1 {
			if d.outputLevel <= 125 {
				d.outputLevel += 2
			}
		} else if d.outputLevel >= 2 {
			d.outputLevel -= 2
		}
	}
	d.shiftRegister >>= 1

	d.bitsRemaining--
	if d.bitsRemaining == 0 {
		d.bitsRemaining = 8
		if d.sampleBufferEmpty {
			d.silence = true
		} else {
			d.silence = false
			d.shiftRegister = d.sampleBuffer
			d.sampleBufferEmpty = true
		}
	}
}

func (d *DMCChannel) output() byte {
	return d.outputLevel
}
