package emucore

// GameInfo describes the content a host wants loaded into a core. The
// host owns the value; the shell reads it and never mutates it.
type GameInfo struct {
	// Path locates the ROM image on storage. Used when Data is empty.
	Path string

	// Data is the ROM image when the host has already loaded it, for
	// example after extracting it from an archive. When non-empty it
	// takes precedence over Path.
	Data []byte

	// Meta carries host-specific hints. Cores are free to ignore it.
	Meta string
}
