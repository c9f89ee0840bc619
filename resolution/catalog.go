// Package resolution holds the fixed catalog of named wallpaper resolutions.
// The set is policy, not user-configurable per call.
package resolution

// Spec is one named target resolution. Specs are immutable value types
// shared across all pipeline invocations.
type Spec struct {
	Name   string
	Width  int
	Height int
}

// The catalog order is the order variants appear in ingestion results.
var catalog = []Spec{
	{Name: "1080p", Width: 1920, Height: 1080},
	{Name: "1440p", Width: 2560, Height: 1440},
	{Name: "4K", Width: 3840, Height: 2160},
	{Name: "5K", Width: 5120, Height: 2880},
	{Name: "Mobile HD", Width: 1080, Height: 1920},
	{Name: "Mobile 2K", Width: 1440, Height: 2560},
	{Name: "Tablet", Width: 1536, Height: 2048},
	{Name: "Thumbnail", Width: 400, Height: 300},
	{Name: "Medium", Width: 800, Height: 600},
}

// Catalog returns a copy of the ordered resolution catalog.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a catalog entry by name.
func Lookup(name string) (Spec, bool) {
	for _, s := range catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// HelperParams are the fixed parameters of the dedicated thumbnail/medium
// variants generated during upload. These are generated in addition to the
// catalog's "Thumbnail"/"Medium" entries, with different quality settings;
// a wallpaper carries both. The duplication is intentional policy.
type HelperParams struct {
	Width   int
	Height  int
	Quality int
	Format  string
}

// Thumbnail returns the fixed thumbnail helper parameters.
func Thumbnail() HelperParams {
	return HelperParams{Width: 400, Height: 300, Quality: 80, Format: "jpeg"}
}

// Medium returns the fixed medium helper parameters.
func Medium() HelperParams {
	return HelperParams{Width: 800, Height: 600, Quality: 85, Format: "jpeg"}
}
