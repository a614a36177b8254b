package emucore

// Direction bits of the input bitmask passed to Emulator.SetInput. Bits
// 0-3 are reserved for the d-pad; cores assign their face buttons to
// higher bits through SystemInfo.Buttons.
const (
	ButtonUp = iota
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Button describes one core-defined input button for host configuration.
type Button struct {
	Name       string // label shown to the user ("1", "Start")
	ID         uint   // bit in the SetInput bitmask
	DefaultKey string // suggested keyboard binding
	DefaultPad string // suggested gamepad binding
}

// CoreOptionType identifies how an option value is edited and validated.
type CoreOptionType int

const (
	CoreOptionBool CoreOptionType = iota
	CoreOptionEnum
)

// CoreOptionCategory groups options in host settings screens.
type CoreOptionCategory int

const (
	CoreOptionCategorySystem CoreOptionCategory = iota
	CoreOptionCategoryVideo
	CoreOptionCategoryAudio
	CoreOptionCategoryInput
)

// CoreOption declares a user-tunable core setting. Values travel as
// strings; bool options use "true"/"false".
type CoreOption struct {
	Key         string
	Label       string
	Description string
	Type        CoreOptionType
	Default     string
	Choices     []string // enum options only
	Category    CoreOptionCategory
}

// SystemInfo is the static metadata a core publishes about itself and the
// machine it emulates. Hosts use it to size windows, pick audio rates,
// locate data directories and build settings screens.
type SystemInfo struct {
	Name            string   // short machine identifier ("sms")
	ConsoleName     string   // display name ("Sega Master System")
	Extensions      []string // ROM file extensions including the dot
	ScreenWidth     int
	MaxScreenHeight int
	AspectRatio     float64
	SampleRate      int
	Buttons         []Button
	Players         int
	CoreOptions     []CoreOption

	// Library metadata.
	RDBName       string // database name for DAT/RDB lookups
	ThumbnailRepo string // libretro-thumbnails repository name
	DataDirName   string // subdirectory under the user config dir

	ConsoleID     int
	CoreName      string
	CoreVersion   string
	SerializeSize int // save-state size in bytes, 0 when unsupported
}

// Geometry describes the video output dimensions of a running core.
type Geometry struct {
	BaseWidth   int
	BaseHeight  int
	MaxWidth    int
	MaxHeight   int
	AspectRatio float64
}

// AVInfo bundles everything a frontend needs to configure its video and
// audio sinks for the current game.
type AVInfo struct {
	Geometry   Geometry
	Timing     Timing
	SampleRate int
}
