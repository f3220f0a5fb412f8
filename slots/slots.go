// Package slots keeps numbered save states on disk, one file per game and
// slot.
package slots

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/meadori/nesmachine/machine"
)

// Count is the number of slots per game.
const Count = 10

var (
	ErrSlot  = errors.New("invalid save slot")
	ErrEmpty = errors.New("save slot is empty")
)

// Machine is the part of machine.Machine the store needs.
type Machine interface {
	CartridgeID() string
	SaveState(w io.Writer) error
	LoadState(r io.Reader) error
}

// Store names slot files after the ROM file and the cartridge digest:
//
//	<dir>/<rom name>-<digest[:12]>-<slot>.state
type Store struct {
	Dir  string
	Name string
}

// DefaultDir is saved_states under the user's configuration directory.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nesmachine", "saved_states"), nil
}

// New creates a store in dir for the game loaded from romPath.
func New(dir, romPath string) *Store {
	name := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "game"
	}
	return &Store{Dir: dir, Name: name}
}

// Path returns the file backing slot n of the game with the given id.
func (s *Store) Path(id string, n int) (string, error) {
	if n < 0 || n >= Count {
		return "", fmt.Errorf("%w: %d", ErrSlot, n)
	}
	if id == "" {
		return "", machine.ErrNoCartridge
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return filepath.Join(s.Dir, fmt.Sprintf("%s-%s-%d.state", s.Name, id, n)), nil
}

// Save writes the machine state to slot n. The previous contents of the
// slot are only replaced once the new state has been written completely.
func (s *Store) Save(m Machine, n int) error {
	path, err := s.Path(m.CartridgeID(), n)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.Dir, ".slot-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := m.SaveState(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Load restores slot n into the machine.
func (s *Store) Load(m Machine, n int) error {
	path, err := s.Path(m.CartridgeID(), n)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %d", ErrEmpty, n)
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return m.LoadState(f)
}

// Present reports which slots hold a state for the game with the given id.
func (s *Store) Present(id string) [Count]bool {
	var out [Count]bool
	for n := range out {
		path, err := s.Path(id, n)
		if err != nil {
			return out
		}
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			out[n] = true
		}
	}
	return out
}
