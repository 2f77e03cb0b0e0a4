package watermark

import (
	"image/color"
	"testing"
)

func TestTextLayer(t *testing.T) {
	layer, err := TextLayer("relay", 14, "#FF0000", 90, 800, 600)
	if err != nil {
		t.Fatalf("TextLayer failed: %v", err)
	}

	bounds := layer.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		t.Fatalf("expected non-empty layer, got %v", bounds)
	}
}

func TestTextLayerEmptyText(t *testing.T) {
	if _, err := TextLayer("", 14, "#FF0000", 90, 800, 600); err == nil {
		t.Fatalf("expected error for empty text")
	}
}

func TestParseTextColor(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		opacity int
		want    color.NRGBA
	}{
		{
			name: "valid hex with full opacity",
			hex:  "#FF8000", opacity: 100,
			want: color.NRGBA{R: 255, G: 128, B: 0, A: 255},
		},
		{
			name: "opacity scales alpha",
			hex:  "#000000", opacity: 50,
			want: color.NRGBA{R: 0, G: 0, B: 0, A: 127},
		},
		{
			name: "missing hash accepted",
			hex:  "00FF00", opacity: 100,
			want: color.NRGBA{R: 0, G: 255, B: 0, A: 255},
		},
		{
			name: "invalid hex falls back to white",
			hex:  "#GGGGGG", opacity: 100,
			want: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		},
		{
			name: "short hex falls back to white",
			hex:  "#FFF", opacity: 100,
			want: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		},
		{
			name: "opacity outside range clamped",
			hex:  "#112233", opacity: 150,
			want: color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 255},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTextColor(tt.hex, tt.opacity)
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
