// Package coreif drives an emulator core behind a libretro-style surface.
// A Core wraps an emucore.CoreFactory together with a romloader.Loader and
// exposes the operations a frontend calls: load and unload a game, run one
// frame, exchange save states, and read or write exposed memory regions.
//
// The surface follows the libretro conventions: operations report success
// as booleans, everything on an unloaded core is a safe no-op, and video,
// audio, and input travel through callbacks registered by the frontend.
package coreif

import (
	"hash/crc32"
	"path/filepath"

	emucore "github.com/user-none/retrocore/api"
	"github.com/user-none/retrocore/romloader"
)

const apiVersion = 1

// PixelFormat selects the pixel layout handed to the video callback.
type PixelFormat int

const (
	// PixelFormatXRGB8888 converts the core's RGBA output to little-endian
	// XRGB8888, the format most frontends expect.
	PixelFormatXRGB8888 PixelFormat = iota

	// PixelFormatRGBA passes the core's framebuffer through untouched.
	PixelFormatRGBA
)

// Core hosts one emulator core instance and carries the frontend-facing
// state: registered callbacks, option values, and the retained ROM copy
// used for resets.
//
// A Core is not safe for concurrent use. Frontends call it from one
// goroutine, typically their frame loop.
type Core struct {
	factory emucore.CoreFactory
	info    emucore.SystemInfo
	loader  *romloader.Loader
	padMap  []RetropadMapping
	pixfmt  PixelFormat

	videoCb      func(pix []byte, width, height, pitch int)
	audioCb      func(samples []int16) int
	inputPollCb  func()
	inputStateCb func(port, device, index, id int) int16
	geometryCb   func(emucore.Geometry)
	notifyCb     func(string)

	emulator emucore.Emulator
	romData  []byte
	romName  string
	romCRC   uint32

	region         emucore.Region
	detectedRegion emucore.Region

	options       map[string]string
	optionList    []emucore.CoreOption
	pendingUpdate bool

	convBuf       []byte
	currentWidth  int
	currentHeight int
}

// Option configures a Core.
type Option func(*Core)

// WithLoader sets the ROM loader used when a game arrives by path. Defaults
// to a loader registered for the core's own extensions.
func WithLoader(l *romloader.Loader) Option {
	return func(c *Core) { c.loader = l }
}

// WithRetropadMap binds retropad face buttons to core input bits. Without a
// map only the d-pad reaches the core.
func WithRetropadMap(m []RetropadMapping) Option {
	return func(c *Core) { c.padMap = m }
}

// WithPixelFormat sets the pixel layout for the video callback.
func WithPixelFormat(f PixelFormat) Option {
	return func(c *Core) { c.pixfmt = f }
}

// New returns a Core hosting instances created by factory. The factory's
// SystemInfo is read once here and cached for the Core's lifetime.
func New(factory emucore.CoreFactory, opts ...Option) *Core {
	c := &Core{
		factory: factory,
		info:    factory.SystemInfo(),
		region:  emucore.DefaultRegion(),
		options: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.loader == nil {
		c.loader = romloader.New(c.info.Extensions)
	}

	// Every core gets a region override option ahead of its own options.
	c.optionList = append([]emucore.CoreOption{regionOption}, c.info.CoreOptions...)
	for _, opt := range c.optionList {
		c.options[opt.Key] = opt.Default
	}

	return c
}

// APIVersion returns the version of the core hosting surface.
func (c *Core) APIVersion() int {
	return apiVersion
}

// SystemInfo returns the hosted core's static metadata.
func (c *Core) SystemInfo() emucore.SystemInfo {
	return c.info
}

// SetVideoRefresh registers the video callback. The pixel slice is only
// valid until the next Run.
func (c *Core) SetVideoRefresh(cb func(pix []byte, width, height, pitch int)) {
	c.videoCb = cb
}

// SetAudioSampleBatch registers the audio callback. Samples are interleaved
// 16-bit stereo; the return value is the number of frames consumed.
func (c *Core) SetAudioSampleBatch(cb func(samples []int16) int) {
	c.audioCb = cb
}

// SetInputPoll registers the callback invoked once per frame before input
// state is read.
func (c *Core) SetInputPoll(cb func()) {
	c.inputPollCb = cb
}

// SetInputState registers the callback the shell queries for button state,
// one call per mapped button per port per frame.
func (c *Core) SetInputState(cb func(port, device, index, id int) int16) {
	c.inputStateCb = cb
}

// SetGeometryChange registers the callback notified when the core's output
// dimensions change between frames.
func (c *Core) SetGeometryChange(cb func(emucore.Geometry)) {
	c.geometryCb = cb
}

// SetNotify registers a callback for short user-facing messages, such as a
// failed reset.
func (c *Core) SetNotify(cb func(string)) {
	c.notifyCb = cb
}

// LoadGame loads the described game into a fresh core instance. It returns
// false when game is nil, when the ROM cannot be loaded, or when the
// factory rejects the image; otherwise true. A successful load replaces any
// previously loaded game.
//
// The caller keeps ownership of game; the shell copies what it retains and
// never mutates the value.
func (c *Core) LoadGame(game *emucore.GameInfo) bool {
	if game == nil {
		return false
	}

	var data []byte
	name := ""
	if len(game.Data) > 0 {
		// Host pre-loaded the image. Copy it so the retained ROM used
		// for resets cannot change under us.
		data = make([]byte, len(game.Data))
		copy(data, game.Data)
		if game.Path != "" {
			name = filepath.Base(game.Path)
		}
	} else {
		rom, err := c.loader.Load(game.Path)
		if err != nil {
			c.notify("Failed to load game: " + err.Error())
			return false
		}
		data = rom.Data
		name = rom.Name
	}

	detected, _ := c.factory.DetectRegion(data)
	region := regionFromOption(c.options[regionOptionKey], detected)

	emulator, err := c.factory.CreateEmulator(data, region)
	if err != nil {
		c.notify("Failed to start core: " + err.Error())
		return false
	}
	c.applyInstanceOptions(emulator)

	if c.emulator != nil {
		c.emulator.Close()
	}
	c.emulator = emulator
	c.romData = data
	c.romName = name
	c.romCRC = crc32.ChecksumIEEE(data)
	c.detectedRegion = detected
	c.region = region
	c.pendingUpdate = false
	c.currentWidth = 0
	c.currentHeight = 0

	return true
}

// LoadGameSpecial is the multi-image load variant. No hosted core uses it,
// so it always fails.
func (c *Core) LoadGameSpecial(gameType uint, infos []emucore.GameInfo) bool {
	return false
}

// UnloadGame closes the current instance and drops the retained ROM data.
// Safe to call with no game loaded.
func (c *Core) UnloadGame() {
	if c.emulator != nil {
		c.emulator.Close()
	}
	c.emulator = nil
	c.romData = nil
	c.romName = ""
	c.romCRC = 0
	c.currentWidth = 0
	c.currentHeight = 0
}

// Reset restarts the loaded game from power-on by recreating the instance
// from the retained ROM copy. Without a loaded game this is a no-op. If the
// factory refuses the recreate, the running instance is kept.
func (c *Core) Reset() {
	if c.romData == nil {
		return
	}

	c.applyRegionOption()

	emulator, err := c.factory.CreateEmulator(c.romData, c.region)
	if err != nil {
		c.notify("Reset failed: " + err.Error())
		return
	}
	c.applyInstanceOptions(emulator)

	if c.emulator != nil {
		c.emulator.Close()
	}
	c.emulator = emulator
}

// AVInfo reports the geometry and timing a frontend needs to configure its
// video and audio sinks. Meaningful once a game is loaded; before that the
// timing is zero.
func (c *Core) AVInfo() emucore.AVInfo {
	var timing emucore.Timing
	if c.emulator != nil {
		timing = c.emulator.GetTiming()
	}
	return emucore.AVInfo{
		Geometry:   c.geometry(),
		Timing:     timing,
		SampleRate: c.info.SampleRate,
	}
}

// Region returns the active video region.
func (c *Core) Region() emucore.Region {
	return c.region
}

// Loaded reports whether a game is currently loaded.
func (c *Core) Loaded() bool {
	return c.emulator != nil
}

// GameCRC returns the CRC32 of the loaded ROM image, or 0 when no game is
// loaded. Hosts key save directories and database lookups on it.
func (c *Core) GameCRC() uint32 {
	return c.romCRC
}

// GameName returns the filename of the loaded ROM image, from inside the
// archive when one was extracted. Empty when no game is loaded or the game
// arrived as bare data.
func (c *Core) GameName() string {
	return c.romName
}

// geometry describes the current output dimensions, falling back to the
// core's static metadata before the first frame.
func (c *Core) geometry() emucore.Geometry {
	baseWidth := c.info.ScreenWidth
	baseHeight := c.info.MaxScreenHeight
	aspect := c.info.AspectRatio

	// After the first frame the real output size is known; cores that crop
	// borders or switch display modes change it between frames.
	if c.currentWidth > 0 && c.currentHeight > 0 {
		baseWidth = c.currentWidth
		baseHeight = c.currentHeight
		aspect = float64(baseWidth) / float64(baseHeight)
	}

	return emucore.Geometry{
		BaseWidth:   baseWidth,
		BaseHeight:  baseHeight,
		MaxWidth:    c.info.ScreenWidth,
		MaxHeight:   c.info.MaxScreenHeight,
		AspectRatio: aspect,
	}
}

func (c *Core) notify(msg string) {
	if c.notifyCb != nil {
		c.notifyCb(msg)
	}
}
