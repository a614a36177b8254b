package coreif

import (
	"errors"

	emucore "github.com/user-none/retrocore/api"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*fakeEmulator)(nil)
var _ emucore.Emulator = (*fakeFullEmulator)(nil)
var _ emucore.SaveStater = (*fakeFullEmulator)(nil)
var _ emucore.BatterySaver = (*fakeFullEmulator)(nil)
var _ emucore.MemoryMapper = (*fakeFullEmulator)(nil)
var _ emucore.CoreFactory = (*fakeFactory)(nil)

const (
	fakeWidth      = 256
	fakeHeight     = 192
	fakeStateSize  = 64
	fakeSRAMSize   = 32
	fakeSystemRAM  = 128
	fakeSampleRate = 48000
)

// fakeEmulator is a minimal emucore.Emulator: it renders a solid-color
// frame, produces a fixed audio batch, and records what the shell pushed
// into it.
type fakeEmulator struct {
	rom    []byte
	region emucore.Region

	frames     int
	buttons    map[int]uint32
	options    map[string]string
	optionSets int
	closed     bool
	regionSets int

	fb      []byte
	stride  int
	height  int
	samples []int16
}

func newFakeEmulator(rom []byte, region emucore.Region) *fakeEmulator {
	fb := make([]byte, fakeWidth*fakeHeight*4)
	for i := 0; i < len(fb); i += 4 {
		fb[i+0] = 0x11 // R
		fb[i+1] = 0x22 // G
		fb[i+2] = 0x33 // B
		fb[i+3] = 0xFF // A
	}
	return &fakeEmulator{
		rom:     rom,
		region:  region,
		buttons: make(map[int]uint32),
		options: make(map[string]string),
		fb:      fb,
		stride:  fakeWidth * 4,
		height:  fakeHeight,
		samples: []int16{100, 100, -100, -100},
	}
}

func (e *fakeEmulator) RunFrame()                           { e.frames++ }
func (e *fakeEmulator) SetInput(player int, buttons uint32) { e.buttons[player] = buttons }
func (e *fakeEmulator) GetFramebuffer() []byte              { return e.fb }
func (e *fakeEmulator) GetFramebufferStride() int           { return e.stride }
func (e *fakeEmulator) GetActiveHeight() int                { return e.height }
func (e *fakeEmulator) GetAudioSamples() []int16            { return e.samples }
func (e *fakeEmulator) GetRegion() emucore.Region           { return e.region }
func (e *fakeEmulator) Close()                              { e.closed = true }

func (e *fakeEmulator) SetOption(key, value string) {
	e.optionSets++
	e.options[key] = value
}

func (e *fakeEmulator) SetRegion(region emucore.Region) {
	e.region = region
	e.regionSets++
}

func (e *fakeEmulator) GetTiming() emucore.Timing {
	if e.region == emucore.RegionPAL {
		return emucore.Timing{FPS: 50, Scanlines: 313}
	}
	return emucore.Timing{FPS: 60, Scanlines: 262}
}

// fakeFullEmulator adds save state, battery save, and memory map support on
// top of fakeEmulator.
type fakeFullEmulator struct {
	fakeEmulator

	state        []byte
	serializeErr error
	sram         []byte
	hasSRAM      bool
	systemRAM    []byte
}

func newFakeFullEmulator(rom []byte, region emucore.Region) *fakeFullEmulator {
	e := &fakeFullEmulator{
		fakeEmulator: *newFakeEmulator(rom, region),
		sram:         make([]byte, fakeSRAMSize),
		hasSRAM:      true,
		systemRAM:    make([]byte, fakeSystemRAM),
	}
	e.state = make([]byte, fakeStateSize)
	for i := range e.state {
		e.state[i] = byte(i)
	}
	return e
}

func (e *fakeFullEmulator) SerializeSize() int { return fakeStateSize }

func (e *fakeFullEmulator) Serialize() ([]byte, error) {
	if e.serializeErr != nil {
		return nil, e.serializeErr
	}
	out := make([]byte, len(e.state))
	copy(out, e.state)
	return out, nil
}

func (e *fakeFullEmulator) Deserialize(data []byte) error {
	if err := e.VerifyState(data); err != nil {
		return err
	}
	copy(e.state, data)
	return nil
}

func (e *fakeFullEmulator) VerifyState(data []byte) error {
	if len(data) < fakeStateSize {
		return errors.New("save state too short")
	}
	return nil
}

func (e *fakeFullEmulator) HasSRAM() bool { return e.hasSRAM }

func (e *fakeFullEmulator) GetSRAM() []byte {
	out := make([]byte, len(e.sram))
	copy(out, e.sram)
	return out
}

func (e *fakeFullEmulator) SetSRAM(data []byte) { copy(e.sram, data) }

func (e *fakeFullEmulator) MemoryMap() []emucore.MemoryRegion {
	return []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: fakeSystemRAM},
		{Type: emucore.MemorySaveRAM, Size: fakeSRAMSize},
	}
}

func (e *fakeFullEmulator) ReadRegion(regionType int) []byte {
	switch regionType {
	case emucore.MemorySystemRAM:
		return e.systemRAM
	case emucore.MemorySaveRAM:
		return e.sram
	}
	return nil
}

func (e *fakeFullEmulator) WriteRegion(regionType int, data []byte) {
	switch regionType {
	case emucore.MemorySystemRAM:
		copy(e.systemRAM, data)
	case emucore.MemorySaveRAM:
		copy(e.sram, data)
	}
}

// fakeFactory implements emucore.CoreFactory over the fakes. Tests inspect
// the created instances to observe what the shell did.
type fakeFactory struct {
	bare      bool // create instances without capability interfaces
	createErr error

	detectRegion emucore.Region
	detectKnown  bool

	created []emucore.Emulator
}

func (f *fakeFactory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            "fakecore",
		ConsoleName:     "Fake Console",
		Extensions:      []string{".bin"},
		ScreenWidth:     fakeWidth,
		MaxScreenHeight: fakeHeight,
		AspectRatio:     float64(fakeWidth) / float64(fakeHeight),
		SampleRate:      fakeSampleRate,
		Buttons: []emucore.Button{
			{Name: "1", ID: 4, DefaultKey: "J", DefaultPad: "A"},
			{Name: "2", ID: 5, DefaultKey: "K", DefaultPad: "B"},
			{Name: "Start", ID: 7, DefaultKey: "Enter", DefaultPad: "Start"},
		},
		Players: 2,
		CoreOptions: []emucore.CoreOption{
			{
				Key:     "crop_border",
				Label:   "Crop Left Border",
				Type:    emucore.CoreOptionBool,
				Default: "false",
			},
		},
		DataDirName:   "fakecore",
		CoreName:      "fakecore",
		CoreVersion:   "1.0.0",
		SerializeSize: fakeStateSize,
	}
}

func (f *fakeFactory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	var e emucore.Emulator
	if f.bare {
		e = newFakeEmulator(rom, region)
	} else {
		e = newFakeFullEmulator(rom, region)
	}
	f.created = append(f.created, e)
	return e, nil
}

func (f *fakeFactory) DetectRegion(rom []byte) (emucore.Region, bool) {
	if f.detectKnown {
		return f.detectRegion, true
	}
	return emucore.DefaultRegion(), false
}

// lastFake returns the most recently created full instance.
func (f *fakeFactory) lastFake() *fakeFullEmulator {
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1].(*fakeFullEmulator)
}
