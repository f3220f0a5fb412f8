package controller

import (
	"fmt"
	"strings"
)

// Button is one of the eight inputs of a standard controller. The values
// are the bit positions in the order the shift register reports them.
type Button uint8

const (
	A Button = iota
	B
	Select
	Start
	Up
	Down
	Left
	Right
)

var buttonNames = [8]string{"A", "B", "SELECT", "START", "UP", "DOWN", "LEFT", "RIGHT"}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

// ParseButton maps a case-sensitive button name back to its Button.
func ParseButton(name string) (Button, bool) {
	for i, n := range buttonNames {
		if n == name {
			return Button(i), true
		}
	}
	return 0, false
}

// ParseMask parses a button combination written as names joined by '+',
// e.g. "A+RIGHT", or "NONE". Names are case-insensitive.
func ParseMask(s string) (byte, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "NONE" || s == "" {
		return 0, nil
	}
	var mask byte
	for _, name := range strings.Split(s, "+") {
		b, ok := ParseButton(name)
		if !ok {
			return 0, fmt.Errorf("unknown button %q", name)
		}
		mask |= 1 << b
	}
	return mask, nil
}

// FormatMask is the inverse of ParseMask.
func FormatMask(mask byte) string {
	if mask == 0 {
		return "NONE"
	}
	var names []string
	for i, n := range buttonNames {
		if mask&(1<<i) != 0 {
			names = append(names, n)
		}
	}
	return strings.Join(names, "+")
}

// Controller represents a standard NES controller.
type Controller struct {
	buttons byte // live state, bit n is Button n
	shift   byte // latched copy shifted out on reads
	strobe  bool
}

// New creates a new Controller instance.
func New() *Controller {
	return &Controller{}
}

// SetState presses or releases a single button.
func (c *Controller) SetState(b Button, pressed bool) {
	if pressed {
		c.buttons |= 1 << b
	} else {
		c.buttons &^= 1 << b
	}
}

// SetButtons replaces the state of all buttons at once.
func (c *Controller) SetButtons(mask byte) {
	c.buttons = mask
}

// Buttons returns the live button mask.
func (c *Controller) Buttons() byte {
	return c.buttons
}

// Write handles CPU writes to the controller register ($4016). The shift
// register follows the buttons for as long as the strobe is held, so the
// falling edge latches whatever is pressed at that moment.
func (c *Controller) Write(data byte) {
	if c.strobe || data&1 == 1 {
		c.shift = c.buttons
	}
	c.strobe = data&1 == 1
}

// Read handles CPU reads from the controller register. While the strobe
// is high the register keeps reloading and always reports A. After all
// eight buttons have been shifted out, standard controllers return 1.
func (c *Controller) Read() byte {
	if c.strobe {
		c.shift = c.buttons
		return c.buttons & 1
	}
	v := c.shift & 1
	c.shift = c.shift>>1 | 0x80
	return v
}

// State is the serialisable controller latch.
type State struct {
	Buttons, Shift byte
	Strobe         bool
}

func (c *Controller) SaveState() State {
	return State{Buttons: c.buttons, Shift: c.shift, Strobe: c.strobe}
}

func (c *Controller) LoadState(s State) {
	c.buttons, c.shift, c.strobe = s.Buttons, s.Shift, s.Strobe
}
