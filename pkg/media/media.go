// Package media turns image files into node attachments.
//
// [Load] decodes PNG, JPEG, GIF and WebP input, scales it down so its longer
// side is at most [MaxSide] pixels, and re-encodes it as a PNG data URL. The
// result is a [mindmap.Media] carrying both the display size and the natural
// size of the source.
package media

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// MaxSide is the longest edge, in pixels, of an attached image.
const MaxSide = 128

// MaxInputSize bounds the bytes read from an image source.
const MaxInputSize = 16 << 20

const dataURLPrefix = "data:image/png;base64,"

// Load reads an image from r and returns it as node media.
func Load(r io.Reader) (*mindmap.Media, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return nil, merrors.Wrap(merrors.ErrCodeInvalidInput, err, "read image")
	}
	if len(data) > MaxInputSize {
		return nil, merrors.New(merrors.ErrCodeInvalidInput, "image larger than %d bytes", MaxInputSize)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, merrors.Wrap(merrors.ErrCodeInvalidFormat, err, "decode image")
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, merrors.New(merrors.ErrCodeInvalidFormat, "empty %s image", format)
	}

	w, h := Fit(b.Dx(), b.Dy(), MaxSide)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, merrors.Wrap(merrors.ErrCodeInternal, err, "encode png")
	}
	return &mindmap.Media{
		Kind:          mindmap.MediaKindImage,
		DataURL:       dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:         w,
		Height:        h,
		NaturalWidth:  b.Dx(),
		NaturalHeight: b.Dy(),
	}, nil
}

// LoadFile is [Load] for a file on disk.
func LoadFile(path string) (*mindmap.Media, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, merrors.Wrap(merrors.ErrCodeInvalidInput, err, "open image")
	}
	defer f.Close()
	return Load(f)
}

// Fit scales w×h so neither side exceeds maxSide, keeping the aspect ratio.
// Images already within bounds are returned unchanged. Sides never round
// down to zero.
func Fit(w, h, maxSide int) (int, int) {
	long := max(w, h)
	if long <= maxSide {
		return w, h
	}
	scale := float64(maxSide) / float64(long)
	return max(1, int(math.Round(float64(w)*scale))), max(1, int(math.Round(float64(h)*scale)))
}

// Decode returns the PNG image held by a media data URL.
func Decode(m *mindmap.Media) (image.Image, error) {
	if m == nil || !strings.HasPrefix(m.DataURL, dataURLPrefix) {
		return nil, merrors.New(merrors.ErrCodeInvalidFormat, "not a png data url")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(m.DataURL, dataURLPrefix))
	if err != nil {
		return nil, merrors.Wrap(merrors.ErrCodeInvalidFormat, err, "decode data url")
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, merrors.Wrap(merrors.ErrCodeInvalidFormat, err, "decode png")
	}
	return img, nil
}
