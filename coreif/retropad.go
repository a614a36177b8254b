package coreif

// Input device classes a frontend can report through the input state
// callback. Only the joypad is polled by the shell.
const (
	DeviceNone   = 0
	DeviceJoypad = 1
)

// Retropad device IDs in libretro button order. Frontends answer the input
// state callback with these IDs; the shell translates them into the core's
// button bitmask.
const (
	JoypadB = iota
	JoypadY
	JoypadSelect
	JoypadStart
	JoypadUp
	JoypadDown
	JoypadLeft
	JoypadRight
	JoypadA
	JoypadX
	JoypadL
	JoypadR
)

// RetropadMapping binds one retropad button to a bit in the core's input
// bitmask. The d-pad needs no mapping: JoypadUp through JoypadRight always
// land on bits 0-3.
type RetropadMapping struct {
	RetroID int  // retropad device ID (JoypadB..JoypadR)
	BitID   uint // bit in the core's SetInput bitmask
}
