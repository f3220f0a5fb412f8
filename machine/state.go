package machine

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/meadori/nesmachine/bus"
)

// StateVersion is the save state format written by SaveState.
const StateVersion uint16 = 1

const stateMagic = "NESM"

var (
	ErrStateVersion   = errors.New("unsupported save state version")
	ErrStateCartridge = errors.New("save state belongs to another cartridge")
	ErrStateCorrupt   = errors.New("corrupt save state")
)

// SaveState writes the whole machine state to w:
//
//	"NESM" | version uint16 | len uint16 | cartridge id | gob(bus.State)
//
// Integers are big endian. ROM contents are not included.
func (m *Machine) SaveState(w io.Writer) error {
	if m.cart == nil {
		return ErrNoCartridge
	}
	s, err := m.bus.SaveState()
	if err != nil {
		return fmt.Errorf("capturing state: %w", err)
	}

	id := m.cart.ID()
	var buf bytes.Buffer
	buf.WriteString(stateMagic)
	binary.Write(&buf, binary.BigEndian, StateVersion)
	binary.Write(&buf, binary.BigEndian, uint16(len(id)))
	buf.WriteString(id)
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing save state: %w", err)
	}
	m.log.Info("state saved", "id", id, "bytes", buf.Len())
	return nil
}

// LoadState restores a state written by SaveState for the same cartridge.
// Nothing is changed unless the whole state could be read and applied.
func (m *Machine) LoadState(r io.Reader) error {
	if m.cart == nil {
		return ErrNoCartridge
	}
	s, err := m.readState(r)
	if err != nil {
		m.log.Warn("restoring state failed", "err", err)
		return err
	}
	if err := m.bus.LoadState(s); err != nil {
		m.log.Warn("restoring state failed", "err", err)
		return fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}

	m.frame.publish(m.bus.PPU.GetFrame())
	m.audio.drain()
	m.log.Info("state restored", "id", m.cart.ID())
	return nil
}

// sourceReader remembers the first error of the underlying reader that
// is not EOF, so decode failures can be told apart from I/O failures.
type sourceReader struct {
	r   io.Reader
	err error
}

func (sr *sourceReader) Read(p []byte) (int, error) {
	n, err := sr.r.Read(p)
	if err != nil && err != io.EOF && sr.err == nil {
		sr.err = err
	}
	return n, err
}

func (sr *sourceReader) fail(err error) error {
	if sr.err != nil {
		return fmt.Errorf("reading save state: %w", sr.err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated", ErrStateCorrupt)
	}
	return fmt.Errorf("%w: %v", ErrStateCorrupt, err)
}

func (m *Machine) readState(src io.Reader) (bus.State, error) {
	var s bus.State
	r := &sourceReader{r: src}

	var magic [len(stateMagic)]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return s, r.fail(err)
	}
	if string(magic[:]) != stateMagic {
		return s, fmt.Errorf("%w: bad magic %q", ErrStateCorrupt, magic[:])
	}

	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return s, r.fail(err)
	}
	if version != StateVersion {
		return s, fmt.Errorf("%w: %d (want %d)", ErrStateVersion, version, StateVersion)
	}

	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return s, r.fail(err)
	}
	id := make([]byte, n)
	if _, err := io.ReadFull(r, id); err != nil {
		return s, r.fail(err)
	}
	if string(id) != m.cart.ID() {
		return s, fmt.Errorf("%w: %.12s", ErrStateCartridge, id)
	}

	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return s, r.fail(err)
	}
	return s, nil
}
