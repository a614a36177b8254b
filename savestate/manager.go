// Package savestate persists save states and battery saves for a running
// core. Each game gets its own directory keyed by CRC32 hex, holding ten
// state slots, a resume state, and the cartridge battery save. State files
// are zstd-compressed; files written before compression was introduced are
// recognized and still load.
package savestate

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"

	emucore "github.com/user-none/retrocore/api"
	"github.com/user-none/retrocore/storage"
)

const slotCount = 10

// zstd frame magic, little-endian
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// ErrNoGame is returned by operations that require SetGame first
var ErrNoGame = errors.New("no game set")

// ErrNoState is returned when the requested slot holds no save state
var ErrNoState = errors.New("no save state")

// Manager handles save state operations for one game at a time. Hosts
// point it at a game by CRC32 hex and route save and load requests here.
// The active slot is remembered per game through the library.
type Manager struct {
	store   *storage.Store
	fs      afero.Fs
	library *storage.Library

	gameCRC     string
	currentSlot int

	notifyCb func(string)

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotify sets a callback for short user-facing messages: slot changes,
// completed saves, missing states.
func WithNotify(cb func(string)) Option {
	return func(m *Manager) { m.notifyCb = cb }
}

// New returns a Manager keeping save data under store's per-game save
// directories.
func New(store *storage.Store, opts ...Option) (*Manager, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create state compressor: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create state decompressor: %w", err)
	}

	m := &Manager{
		store: store,
		fs:    store.Fs(),
		enc:   enc,
		dec:   dec,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SetLibrary sets the library used for slot persistence.
func (m *Manager) SetLibrary(library *storage.Library) {
	m.library = library
}

// SetGame sets the current game for save states and restores the game's
// last-used slot from the library.
func (m *Manager) SetGame(gameCRC string) {
	m.gameCRC = gameCRC
	m.currentSlot = 0

	if m.library != nil {
		if game := m.library.GetGame(gameCRC); game != nil {
			m.currentSlot = game.Settings.SaveSlot
		}
	}
}

// GetCurrentSlot returns the active save slot.
func (m *Manager) GetCurrentSlot() int {
	return m.currentSlot
}

// NextSlot cycles to the next save slot.
func (m *Manager) NextSlot() {
	m.currentSlot = (m.currentSlot + 1) % slotCount
	m.persistSlot()
	m.notify(fmt.Sprintf("Slot %d", m.currentSlot))
}

// PreviousSlot cycles to the previous save slot.
func (m *Manager) PreviousSlot() {
	m.currentSlot--
	if m.currentSlot < 0 {
		m.currentSlot = slotCount - 1
	}
	m.persistSlot()
	m.notify(fmt.Sprintf("Slot %d", m.currentSlot))
}

// persistSlot saves the current slot to the library for the current game.
func (m *Manager) persistSlot() {
	if m.library == nil || m.gameCRC == "" {
		return
	}
	game := m.library.GetGame(m.gameCRC)
	if game == nil {
		return
	}
	game.Settings.SaveSlot = m.currentSlot
	m.store.SaveLibrary(m.library)
}

// Save captures the emulator state into the current slot.
func (m *Manager) Save(emulator emucore.SaveStater) error {
	if m.gameCRC == "" {
		return ErrNoGame
	}

	state, err := emulator.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	if err := m.writeState(m.statePath(m.currentSlot), state); err != nil {
		return err
	}

	m.notify(fmt.Sprintf("State saved to slot %d", m.currentSlot))
	return nil
}

// Load restores the emulator state from the current slot. The state is
// verified before it touches the emulator.
func (m *Manager) Load(emulator emucore.SaveStater) error {
	if m.gameCRC == "" {
		return ErrNoGame
	}

	path := m.statePath(m.currentSlot)
	if exists, _ := afero.Exists(m.fs, path); !exists {
		m.notify(fmt.Sprintf("No save in slot %d", m.currentSlot))
		return fmt.Errorf("%w in slot %d", ErrNoState, m.currentSlot)
	}

	state, err := m.readState(path)
	if err != nil {
		return err
	}

	if err := emulator.VerifyState(state); err != nil {
		return fmt.Errorf("state verification failed: %w", err)
	}
	if err := emulator.Deserialize(state); err != nil {
		return fmt.Errorf("failed to deserialize state: %w", err)
	}

	m.notify("State loaded")
	return nil
}

// SaveResume captures the emulator state as the resume state, loaded the
// next time the game starts.
func (m *Manager) SaveResume(emulator emucore.SaveStater) error {
	if m.gameCRC == "" {
		return ErrNoGame
	}

	state, err := emulator.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}
	return m.writeState(m.resumePath(), state)
}

// SaveResumeData stores pre-serialized state data as the resume state.
// Used by auto-save, where the emulation goroutine hands over state it
// already captured.
func (m *Manager) SaveResumeData(state []byte) error {
	if m.gameCRC == "" {
		return ErrNoGame
	}
	return m.writeState(m.resumePath(), state)
}

// LoadResume restores the resume state.
func (m *Manager) LoadResume(emulator emucore.SaveStater) error {
	if m.gameCRC == "" {
		return ErrNoGame
	}

	state, err := m.readState(m.resumePath())
	if err != nil {
		return err
	}

	if err := emulator.VerifyState(state); err != nil {
		return fmt.Errorf("state verification failed: %w", err)
	}
	return emulator.Deserialize(state)
}

// HasResumeState reports whether a resume state exists for the current
// game.
func (m *Manager) HasResumeState() bool {
	if m.gameCRC == "" {
		return false
	}
	exists, _ := afero.Exists(m.fs, m.resumePath())
	return exists
}

// SaveSRAM writes the cartridge battery save. A cartridge without battery
// RAM is a no-op. The file is raw SRAM contents, not compressed.
func (m *Manager) SaveSRAM(emulator emucore.BatterySaver) error {
	if m.gameCRC == "" {
		return ErrNoGame
	}
	if !emulator.HasSRAM() {
		return nil
	}

	path := m.sramPath()
	if err := m.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}
	if err := afero.WriteFile(m.fs, path, emulator.GetSRAM(), 0644); err != nil {
		return fmt.Errorf("failed to write battery save: %w", err)
	}
	return nil
}

// LoadSRAM restores the cartridge battery save. A missing file is not an
// error; the cartridge simply starts blank.
func (m *Manager) LoadSRAM(emulator emucore.BatterySaver) error {
	if m.gameCRC == "" || !emulator.HasSRAM() {
		return nil
	}

	data, err := afero.ReadFile(m.fs, m.sramPath())
	if err != nil {
		return nil
	}

	emulator.SetSRAM(data)
	return nil
}

func (m *Manager) notify(msg string) {
	if m.notifyCb != nil {
		m.notifyCb(msg)
	}
}

func (m *Manager) statePath(slot int) string {
	return filepath.Join(m.store.GameSaveDir(m.gameCRC), fmt.Sprintf("state-%d.state", slot))
}

func (m *Manager) resumePath() string {
	return filepath.Join(m.store.GameSaveDir(m.gameCRC), "resume.state")
}

func (m *Manager) sramPath() string {
	return filepath.Join(m.store.GameSaveDir(m.gameCRC), "cart.srm")
}

// writeState compresses and writes one state file, creating the game's
// save directory on first use.
func (m *Manager) writeState(path string, state []byte) error {
	if err := m.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}
	if err := afero.WriteFile(m.fs, path, m.enc.EncodeAll(state, nil), 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// readState reads one state file, decompressing when the zstd magic is
// present. Plain files pass through for compatibility with states written
// by older builds.
func (m *Manager) readState(path string) ([]byte, error) {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}

	state, err := m.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress state file: %w", err)
	}
	return state, nil
}
