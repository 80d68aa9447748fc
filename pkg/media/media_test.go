package media

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"small", 64, 32, 64, 32},
		{"exact", 128, 128, 128, 128},
		{"wide", 512, 256, 128, 64},
		{"tall", 100, 400, 32, 128},
		{"square", 300, 300, 128, 128},
		{"sliver", 1000, 2, 128, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Fit(tt.w, tt.h, MaxSide)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Fit(%d, %d) = %d×%d, want %d×%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	src := solid(256, 64)
	encoders := map[string]func(*bytes.Buffer) error{
		"png":  func(b *bytes.Buffer) error { return png.Encode(b, src) },
		"jpeg": func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) },
		"gif":  func(b *bytes.Buffer) error { return gif.Encode(b, src, nil) },
	}

	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := encode(&buf); err != nil {
				t.Fatal(err)
			}
			m, err := Load(&buf)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if m.Kind != mindmap.MediaKindImage {
				t.Errorf("Kind = %q", m.Kind)
			}
			if m.Width != 128 || m.Height != 32 {
				t.Errorf("size = %d×%d, want 128×32", m.Width, m.Height)
			}
			if m.NaturalWidth != 256 || m.NaturalHeight != 64 {
				t.Errorf("natural size = %d×%d", m.NaturalWidth, m.NaturalHeight)
			}
			if !strings.HasPrefix(m.DataURL, "data:image/png;base64,") {
				t.Errorf("DataURL = %.40s", m.DataURL)
			}

			img, err := Decode(m)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 32 {
				t.Errorf("decoded bounds = %v", b)
			}
		})
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want merrors.Code
	}{
		{"empty", nil, merrors.ErrCodeInvalidFormat},
		{"text", []byte("hello"), merrors.ErrCodeInvalidFormat},
		{"too large", make([]byte, MaxInputSize+1), merrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(bytes.NewReader(tt.data))
			if !merrors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.png")
	var buf bytes.Buffer
	png.Encode(&buf, solid(10, 20))
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}
	m, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Width != 10 || m.Height != 20 {
		t.Errorf("size = %d×%d, small images keep their size", m.Width, m.Height)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.png")); !merrors.Is(err, merrors.ErrCodeInvalidInput) {
		t.Errorf("LoadFile(missing) error = %v", err)
	}
}

func TestDecodeRejects(t *testing.T) {
	for _, m := range []*mindmap.Media{
		nil,
		{DataURL: "data:image/jpeg;base64,AA=="},
		{DataURL: "data:image/png;base64,!!!"},
		{DataURL: "data:image/png;base64,AAAA"},
	} {
		if _, err := Decode(m); err == nil {
			t.Errorf("Decode(%+v) error = nil", m)
		}
	}
}
