package api

// Asset describes one entry written to the output bundle.
// It is the record shared by the tree flush and every index writer.
type Asset struct {
	// Path of the entry relative to the output root, slash separated.
	Path string `json:"path"`
	// Parent is the Path of the enclosing directory ("" for top-level entries).
	Parent string `json:"parent"`
	// Name is the output file name (flags stripped).
	Name string `json:"name"`
	// Dir is true for directories.
	Dir bool `json:"dir,omitempty"`
	// Size in bytes (0 for directories).
	Size int64 `json:"size,omitempty"`
	// Flags carried by the source entry name, in declaration order.
	Flags []string `json:"flags,omitempty"`
	// Origin is the backing path the entry was copied from.
	Origin string `json:"origin,omitempty"`
}

// Kind returns "dir" or "file".
func (a Asset) Kind() string {
	if a.Dir {
		return "dir"
	}
	return "file"
}
