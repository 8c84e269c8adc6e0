package video

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"math"
	"path/filepath"
	"testing"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97},
		{"25/1", 25},
		{"0/0", 0},
		{"garbage", 0},
		{"", 0},
		{"30", 0},
	}

	for _, tt := range tests {
		got := parseFrameRate(tt.in)
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("parseFrameRate(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestProbeMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.mp4")
	if _, err := Probe(context.Background(), path); !errors.Is(err, ErrUnreadable) {
		t.Errorf("Expected ErrUnreadable for missing file, got %v", err)
	}
}

func TestFrameGray(t *testing.T) {
	frame := &Frame{Width: 2, Height: 1, RGB: []byte{255, 255, 255, 0, 0, 0}}
	gray := frame.Gray()

	if len(gray) != 2 {
		t.Fatalf("Expected 2 luma values, got %d", len(gray))
	}
	if math.Abs(gray[0]-255) > 0.01 {
		t.Errorf("Expected white luma 255, got %v", gray[0])
	}
	if gray[1] != 0 {
		t.Errorf("Expected black luma 0, got %v", gray[1])
	}
}

func TestFrameJPEG(t *testing.T) {
	w, h := 8, 8
	frame := &Frame{Width: w, Height: h, RGB: make([]byte, w*h*3)}

	data, err := frame.JPEG()
	if err != nil {
		t.Fatalf("JPEG encoding failed: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Encoded frame does not decode: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != w || bounds.Dy() != h {
		t.Errorf("Expected %dx%d image, got %dx%d", w, h, bounds.Dx(), bounds.Dy())
	}
}
