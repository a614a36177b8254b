package coreif

import emucore "github.com/user-none/retrocore/api"

const regionOptionKey = "region"

// regionOption is prepended to every hosted core's option list so frontends
// can override region auto-detection.
var regionOption = emucore.CoreOption{
	Key:         regionOptionKey,
	Label:       "Region",
	Description: "Force NTSC or PAL timing instead of auto-detecting from the ROM",
	Type:        emucore.CoreOptionEnum,
	Default:     "auto",
	Choices:     []string{"auto", "ntsc", "pal"},
	Category:    emucore.CoreOptionCategorySystem,
}

// Variables returns the options a frontend can set: the built-in region
// override followed by the core's own options.
func (c *Core) Variables() []emucore.CoreOption {
	out := make([]emucore.CoreOption, len(c.optionList))
	copy(out, c.optionList)
	return out
}

// SetVariable records a new option value. Unknown keys are rejected. The
// value takes effect at the start of the next Run; a region change on a
// loaded game switches the instance's timing without restarting it.
func (c *Core) SetVariable(key, value string) bool {
	if !c.knownOption(key) {
		return false
	}
	if c.options[key] == value {
		return true
	}
	c.options[key] = value
	c.pendingUpdate = true
	return true
}

// Variable returns the current value of an option. The bool is false for
// unknown keys.
func (c *Core) Variable(key string) (string, bool) {
	if !c.knownOption(key) {
		return "", false
	}
	return c.options[key], true
}

func (c *Core) knownOption(key string) bool {
	for _, opt := range c.optionList {
		if opt.Key == key {
			return true
		}
	}
	return false
}

// consumeOptionUpdates applies pending option changes to the running
// instance. Called at the start of each frame.
func (c *Core) consumeOptionUpdates() {
	if !c.pendingUpdate {
		return
	}
	c.pendingUpdate = false

	c.applyRegionOption()
	if c.emulator != nil {
		c.applyInstanceOptions(c.emulator)
	}
}

// applyRegionOption resolves the region option against the detected region
// and pushes a change into the running instance.
func (c *Core) applyRegionOption() {
	region := regionFromOption(c.options[regionOptionKey], c.detectedRegion)
	if region == c.region {
		return
	}
	c.region = region
	if c.emulator != nil {
		c.emulator.SetRegion(region)
	}
}

// applyInstanceOptions pushes all core-defined option values into an
// instance. The region option is handled separately since it is shell
// state, not a core option.
func (c *Core) applyInstanceOptions(e emucore.Emulator) {
	for _, opt := range c.optionList {
		if opt.Key == regionOptionKey {
			continue
		}
		e.SetOption(opt.Key, c.options[opt.Key])
	}
}

// regionFromOption maps an option value to a region, treating "auto" and
// anything unparseable as the detected region.
func regionFromOption(value string, detected emucore.Region) emucore.Region {
	if region, ok := emucore.ParseRegion(value); ok {
		return region
	}
	return detected
}
