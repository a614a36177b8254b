package coreif

import emucore "github.com/user-none/retrocore/api"

// Run executes one frame: pending option changes are applied, input is
// polled and pushed into the core, the frame is emulated, and the video and
// audio callbacks fire with the results. A no-op when no game is loaded.
func (c *Core) Run() {
	if c.emulator == nil {
		return
	}

	c.consumeOptionUpdates()

	if c.inputPollCb != nil {
		c.inputPollCb()
	}
	if c.inputStateCb != nil {
		players := c.info.Players
		if players < 1 {
			players = 1
		}
		for port := 0; port < players; port++ {
			c.emulator.SetInput(port, c.gatherJoypad(port))
		}
	}

	c.emulator.RunFrame()

	c.outputVideo()

	if c.audioCb != nil {
		if samples := c.emulator.GetAudioSamples(); len(samples) > 0 {
			c.audioCb(samples)
		}
	}
}

// gatherJoypad reads one port's retropad state and packs it into the core's
// button bitmask: d-pad on bits 0-3, mapped face buttons on the bits the
// core assigned them.
func (c *Core) gatherJoypad(port int) uint32 {
	var buttons uint32

	if c.inputStateCb(port, DeviceJoypad, 0, JoypadUp) != 0 {
		buttons |= 1 << emucore.ButtonUp
	}
	if c.inputStateCb(port, DeviceJoypad, 0, JoypadDown) != 0 {
		buttons |= 1 << emucore.ButtonDown
	}
	if c.inputStateCb(port, DeviceJoypad, 0, JoypadLeft) != 0 {
		buttons |= 1 << emucore.ButtonLeft
	}
	if c.inputStateCb(port, DeviceJoypad, 0, JoypadRight) != 0 {
		buttons |= 1 << emucore.ButtonRight
	}

	for _, m := range c.padMap {
		if c.inputStateCb(port, DeviceJoypad, 0, m.RetroID) != 0 {
			buttons |= 1 << m.BitID
		}
	}

	return buttons
}

// outputVideo converts the frame to the configured pixel format, fires the
// video callback, and notifies the frontend when the output size changed.
func (c *Core) outputVideo() {
	fb := c.emulator.GetFramebuffer()
	if len(fb) == 0 {
		return
	}

	stride := c.emulator.GetFramebufferStride()
	height := c.emulator.GetActiveHeight()
	if stride <= 0 || height <= 0 || len(fb) < stride*height {
		return
	}
	width := stride / 4

	var pix []byte
	switch c.pixfmt {
	case PixelFormatRGBA:
		pix = fb[:stride*height]
	default:
		need := stride * height
		if cap(c.convBuf) < need {
			c.convBuf = make([]byte, need)
		}
		pix = c.convBuf[:need]
		convertRGBAToXRGB8888(fb, pix, width*height)
	}

	if c.videoCb != nil {
		c.videoCb(pix, width, height, stride)
	}

	if width != c.currentWidth || height != c.currentHeight {
		c.currentWidth = width
		c.currentHeight = height
		if c.geometryCb != nil {
			c.geometryCb(c.geometry())
		}
	}
}

// convertRGBAToXRGB8888 converts RGBA pixels to XRGB8888.
// RGBA: [R,G,B,A] per pixel. XRGB8888: [B,G,R,X] per pixel (little-endian).
func convertRGBAToXRGB8888(src, dst []byte, pixels int) {
	for i := 0; i < pixels; i++ {
		idx := i * 4
		dst[idx+0] = src[idx+2] // B
		dst[idx+1] = src[idx+1] // G
		dst[idx+2] = src[idx+0] // R
		dst[idx+3] = 0xFF       // X (unused, set to opaque)
	}
}
