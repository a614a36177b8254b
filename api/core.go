package emucore

// Emulator is a running core instance created by a CoreFactory. The host
// drives it one frame at a time; input is pushed in before each frame and
// video/audio pulled out after (the instance never polls input itself).
//
// Implementations are not safe for concurrent use. Hosts serialize all
// calls onto one goroutine.
type Emulator interface {
	// RunFrame executes one frame of emulation.
	RunFrame()

	// SetInput sets the button bitmask for the given player. Bits 0-3
	// are the d-pad (ButtonUp..ButtonRight); the rest are defined by
	// SystemInfo.Buttons.
	SetInput(player int, buttons uint32)

	// GetFramebuffer returns the current frame as RGBA pixels. The
	// slice is valid until the next RunFrame.
	GetFramebuffer() []byte

	// GetFramebufferStride returns the bytes per framebuffer row.
	GetFramebufferStride() int

	// GetActiveHeight returns the display height of the current frame.
	GetActiveHeight() int

	// GetAudioSamples returns the frame's audio as interleaved 16-bit
	// stereo PCM. The slice is valid until the next RunFrame.
	GetAudioSamples() []int16

	GetRegion() Region
	SetRegion(Region)
	GetTiming() Timing

	// SetOption applies a core option change identified by key.
	// Unknown keys are ignored.
	SetOption(key, value string)

	// Close releases any resources held by the instance.
	Close()
}

// CoreFactory creates emulator instances and publishes machine metadata.
// It is the single type a core module must provide.
type CoreFactory interface {
	SystemInfo() SystemInfo
	CreateEmulator(rom []byte, region Region) (Emulator, error)

	// DetectRegion auto-detects the region from ROM data. The bool
	// reports whether the ROM was positively identified; false means
	// the returned region is only a default.
	DetectRegion(rom []byte) (Region, bool)
}

// SaveStater is implemented by emulators that support save states.
type SaveStater interface {
	// SerializeSize returns the byte size of a serialized state.
	SerializeSize() int

	// Serialize captures the complete machine state.
	Serialize() ([]byte, error)

	// Deserialize restores a state captured by Serialize.
	Deserialize(data []byte) error

	// VerifyState checks a state for integrity and ROM match without
	// loading it.
	VerifyState(data []byte) error
}

// BatterySaver is implemented by emulators whose cartridges carry
// battery-backed RAM.
type BatterySaver interface {
	// HasSRAM reports whether the loaded ROM uses battery-backed save.
	HasSRAM() bool

	// GetSRAM returns a copy of the current SRAM contents.
	GetSRAM() []byte

	// SetSRAM loads SRAM contents into the emulator.
	SetSRAM(data []byte)
}

// MemoryInspector is implemented by emulators that expose a flat address
// space for external tools (achievements, cheats, debuggers).
type MemoryInspector interface {
	// ReadMemory reads from a flat address into buf and returns the
	// number of bytes read. Short reads indicate the end of a region.
	ReadMemory(addr uint32, buf []byte) uint32
}

// Memory region types reported by MemoryMapper.
const (
	MemorySystemRAM = iota
	MemorySaveRAM
	MemoryVideoRAM
)

// MemoryRegion describes one addressable region and its size in bytes.
type MemoryRegion struct {
	Type int
	Size int
}

// MemoryMapper is implemented by emulators that expose whole memory
// regions for bulk read/write, for example frontend-managed save RAM.
type MemoryMapper interface {
	MemoryMap() []MemoryRegion
	ReadRegion(regionType int) []byte
	WriteRegion(regionType int, data []byte)
}
