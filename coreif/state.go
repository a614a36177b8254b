package coreif

import emucore "github.com/user-none/retrocore/api"

// SerializeSize returns the byte size of a serialized state for the loaded
// instance, or 0 when no game is loaded or the core cannot save state.
func (c *Core) SerializeSize() int {
	ss, ok := c.emulator.(emucore.SaveStater)
	if !ok {
		return 0
	}
	return ss.SerializeSize()
}

// Serialize captures the current state into buf. It returns false when no
// game is loaded, the core cannot save state, serialization fails, or buf
// is too small.
func (c *Core) Serialize(buf []byte) bool {
	ss, ok := c.emulator.(emucore.SaveStater)
	if !ok {
		return false
	}

	state, err := ss.Serialize()
	if err != nil {
		return false
	}
	if len(state) > len(buf) {
		return false
	}
	copy(buf, state)
	return true
}

// Unserialize restores a state captured by Serialize. It returns false when
// no game is loaded, the core cannot save state, or the state is rejected.
func (c *Core) Unserialize(data []byte) bool {
	ss, ok := c.emulator.(emucore.SaveStater)
	if !ok {
		return false
	}
	return ss.Deserialize(data) == nil
}

// MemoryData returns the contents of an exposed memory region, or nil when
// no game is loaded or the core does not expose the region. Save RAM routes
// through the core's battery save support when present.
func (c *Core) MemoryData(id int) []byte {
	if c.emulator == nil {
		return nil
	}

	if id == emucore.MemorySaveRAM {
		if bs, ok := c.emulator.(emucore.BatterySaver); ok {
			if !bs.HasSRAM() {
				return nil
			}
			return bs.GetSRAM()
		}
	}

	if mm, ok := c.emulator.(emucore.MemoryMapper); ok {
		return mm.ReadRegion(id)
	}
	return nil
}

// MemorySize returns the size in bytes of an exposed memory region, or 0
// when the region is unavailable.
func (c *Core) MemorySize(id int) int {
	if c.emulator == nil {
		return 0
	}

	if mm, ok := c.emulator.(emucore.MemoryMapper); ok {
		for _, region := range mm.MemoryMap() {
			if region.Type == id {
				return region.Size
			}
		}
	}

	if id == emucore.MemorySaveRAM {
		if bs, ok := c.emulator.(emucore.BatterySaver); ok && bs.HasSRAM() {
			return len(bs.GetSRAM())
		}
	}
	return 0
}

// SetMemoryData writes into an exposed memory region, typically to restore
// frontend-managed save RAM. It returns false when the region cannot be
// written.
func (c *Core) SetMemoryData(id int, data []byte) bool {
	if c.emulator == nil {
		return false
	}

	if id == emucore.MemorySaveRAM {
		if bs, ok := c.emulator.(emucore.BatterySaver); ok {
			if !bs.HasSRAM() {
				return false
			}
			bs.SetSRAM(data)
			return true
		}
	}

	if mm, ok := c.emulator.(emucore.MemoryMapper); ok {
		for _, region := range mm.MemoryMap() {
			if region.Type == id {
				mm.WriteRegion(id, data)
				return true
			}
		}
	}
	return false
}
