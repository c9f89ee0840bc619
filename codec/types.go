package codec

// Metadata describes a decoded image buffer. Derived once per upload and
// read-only afterward.
type Metadata struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	ByteSize int64  `json:"byteSize"`
}

// Variant is one resized, re-encoded rendition of an image. The buffer is
// consumed by the upload step and not retained afterward.
type Variant struct {
	ResolutionName string
	Buffer         []byte
	Width          int
	Height         int
	ByteSize       int64
	Format         string
}

// ResizeOptions controls re-encoding of a resized variant.
type ResizeOptions struct {
	// Quality in 1-100, default 90. Values outside the range are clamped.
	Quality int
	// Format is jpeg, png or webp. Default jpeg.
	Format string
}

// ValidationLimits are the constraints an upload is checked against.
// Supplied by the surrounding application, not hardcoded here.
type ValidationLimits struct {
	MaxWidth       int
	MaxHeight      int
	MaxBytes       int64
	AllowedFormats []string
}

// ValidationResult accumulates every violated constraint. Callers check
// Valid; Validate itself never fails.
type ValidationResult struct {
	Valid  bool
	Errors []string
	// Metadata is set when the buffer decoded successfully, sparing callers
	// a second decode.
	Metadata *Metadata
}
