// Package codec adapts raw image buffers for the ingestion pipeline:
// metadata extraction, cover-fit resizing, re-encoding and dominant color
// approximation.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// Register decoders for the formats accepted on upload.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/leeforge/gallery/errors"
)

const (
	defaultQuality = 90
	defaultFormat  = "jpeg"
)

// DecodeMetadata extracts width, height and format without decoding pixel
// data. Returns an invalid-image error for undecodable buffers.
func DecodeMetadata(buf []byte) (Metadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return Metadata{}, errors.NewInvalidImage(err)
	}
	return Metadata{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   format,
		ByteSize: int64(len(buf)),
	}, nil
}

// Resize scales the image so its shorter side matches the target box and
// center-crops the overflow (fit policy "cover"), then re-encodes. Output
// dimensions always equal the requested target regardless of the source
// aspect ratio.
func Resize(buf []byte, width, height int, opts ResizeOptions) (Variant, error) {
	format := normalizeFormat(opts.Format)
	if format == "" {
		format = defaultFormat
	}
	if !isEncodable(format) {
		return Variant{}, errors.NewUnsupportedFormat(opts.Format)
	}

	quality := opts.Quality
	if quality == 0 {
		quality = defaultQuality
	}
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return Variant{}, errors.NewInvalidImage(err)
	}

	filled := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	encoded, err := Encode(filled, format, quality)
	if err != nil {
		return Variant{}, err
	}

	return Variant{
		Buffer:   encoded,
		Width:    width,
		Height:   height,
		ByteSize: int64(len(encoded)),
		Format:   format,
	}, nil
}

// Encode re-encodes a decoded image to the given format and quality.
func Encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch normalizeFormat(format) {
	case "jpeg":
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "jpeg encode failed")
		}
	case "png":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "png encode failed")
		}
	case "webp":
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "webp encode failed")
		}
	default:
		return nil, errors.NewUnsupportedFormat(format)
	}
	return buf.Bytes(), nil
}

// DominantColor approximates the dominant color as the arithmetic mean of
// each channel across all pixels and returns it as "#rrggbb". It never
// fails: any decode error yields "#000000". Best-effort cosmetic feature.
func DominantColor(buf []byte) string {
	const fallback = "#000000"

	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return fallback
	}

	// Downsample before averaging; the mean is insensitive to the lost
	// detail and this bounds the work for very large uploads.
	small := resize.Thumbnail(64, 64, img, resize.NearestNeighbor)

	bounds := small.Bounds()
	var rSum, gSum, bSum, count uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := small.At(x, y).RGBA()
			rSum += uint64(r >> 8)
			gSum += uint64(g >> 8)
			bSum += uint64(b >> 8)
			count++
		}
	}
	if count == 0 {
		return fallback
	}

	return fmt.Sprintf("#%02x%02x%02x", uint8(rSum/count), uint8(gSum/count), uint8(bSum/count))
}

// Validate checks a buffer against the given limits. It never returns an
// error: every violated constraint contributes one message and callers
// inspect Valid.
func Validate(buf []byte, limits ValidationLimits) ValidationResult {
	meta, err := DecodeMetadata(buf)
	if err != nil {
		return ValidationResult{
			Valid:  false,
			Errors: []string{"buffer is not a decodable image"},
		}
	}

	var violations []string

	if len(limits.AllowedFormats) > 0 && !formatAllowed(meta.Format, limits.AllowedFormats) {
		violations = append(violations, fmt.Sprintf("format %s is not allowed", meta.Format))
	}
	if limits.MaxWidth > 0 && meta.Width > limits.MaxWidth {
		violations = append(violations, fmt.Sprintf("width %d exceeds maximum %d", meta.Width, limits.MaxWidth))
	}
	if limits.MaxHeight > 0 && meta.Height > limits.MaxHeight {
		violations = append(violations, fmt.Sprintf("height %d exceeds maximum %d", meta.Height, limits.MaxHeight))
	}
	if limits.MaxBytes > 0 && meta.ByteSize > limits.MaxBytes {
		violations = append(violations, fmt.Sprintf("size %d bytes exceeds maximum %d", meta.ByteSize, limits.MaxBytes))
	}

	return ValidationResult{
		Valid:    len(violations) == 0,
		Errors:   violations,
		Metadata: &meta,
	}
}

// normalizeFormat folds jpg into jpeg and lowercases.
func normalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "jpg" {
		return "jpeg"
	}
	return f
}

func isEncodable(format string) bool {
	switch format {
	case "jpeg", "png", "webp":
		return true
	default:
		return false
	}
}

func formatAllowed(format string, allowed []string) bool {
	f := normalizeFormat(format)
	for _, a := range allowed {
		if normalizeFormat(a) == f {
			return true
		}
	}
	return false
}
