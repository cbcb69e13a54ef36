package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestNewRawImage_Rejects(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"nil", nil},
		{"zero width", image.NewRGBA(image.Rect(0, 0, 0, 10))},
		{"zero height", image.NewGray(image.Rect(0, 0, 10, 0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRawImage(tt.img)
			if !errors.Is(err, ErrInvalidImage) {
				t.Errorf("error = %v, want ErrInvalidImage", err)
			}
		})
	}
}

func TestNewRawImage_Channels(t *testing.T) {
	opaque := color.Palette{color.Black, color.White}
	translucent := color.Palette{color.Black, color.Transparent}

	tests := []struct {
		name string
		img  image.Image
		want int
	}{
		{"gray", image.NewGray(image.Rect(0, 0, 2, 2)), 1},
		{"ycbcr", image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio444), 3},
		{"rgba", image.NewRGBA(image.Rect(0, 0, 2, 2)), 4},
		{"opaque palette", image.NewPaletted(image.Rect(0, 0, 2, 2), opaque), 3},
		{"translucent palette", image.NewPaletted(image.Rect(0, 0, 2, 2), translucent), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := NewRawImage(tt.img)
			if err != nil {
				t.Fatalf("NewRawImage: %v", err)
			}
			if raw.Channels() != tt.want {
				t.Errorf("Channels() = %d, want %d", raw.Channels(), tt.want)
			}
		})
	}
}

func TestDecodeRawImageBytes(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 12, 5))

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, src); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	raw, err := DecodeRawImageBytes(pngBuf.Bytes())
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if raw.Width() != 12 || raw.Height() != 5 {
		t.Errorf("png dimensions = %dx%d, want 12x5", raw.Width(), raw.Height())
	}

	var jpgBuf bytes.Buffer
	if err := jpeg.Encode(&jpgBuf, src, nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	raw, err = DecodeRawImageBytes(jpgBuf.Bytes())
	if err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	if raw.Channels() != 3 {
		t.Errorf("jpeg Channels() = %d, want 3", raw.Channels())
	}
}

func TestDecodeRawImageBytes_Invalid(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("definitely not an image"),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeRawImageBytes(data); !errors.Is(err, ErrInvalidImage) {
				t.Errorf("error = %v, want ErrInvalidImage", err)
			}
		})
	}
}

func TestRawImage_ZeroValue(t *testing.T) {
	var raw RawImage
	if raw.Valid() {
		t.Error("zero RawImage reported valid")
	}
	if raw.Width() != 0 || raw.Height() != 0 {
		t.Errorf("zero RawImage dimensions = %dx%d", raw.Width(), raw.Height())
	}
}
