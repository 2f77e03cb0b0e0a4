package watermark

import (
	"testing"

	"relay_bot/internal/telegram/models"
)

func TestCalculateSmartSize(t *testing.T) {
	tests := []struct {
		name           string
		baseW, baseH   int
		wmW, wmH       int
		sizePercentage int
		position       string
		wantW, wantH   int
	}{
		{
			name:  "full size scales to 98 percent keeping aspect",
			baseW: 1000, baseH: 800, wmW: 200, wmH: 100,
			sizePercentage: 100, position: models.PositionCenter,
			wantW: 980, wantH: 490,
		},
		{
			name:  "edge anchor scales by full width",
			baseW: 1000, baseH: 800, wmW: 200, wmH: 100,
			sizePercentage: 30, position: models.PositionBottom,
			wantW: 300, wantH: 150,
		},
		{
			name:  "corner anchor applies reduction factor",
			baseW: 1000, baseH: 800, wmW: 200, wmH: 100,
			sizePercentage: 30, position: models.PositionBottomRight,
			wantW: 240, wantH: 120,
		},
		{
			name:  "tiny percentage hits minimum floor",
			baseW: 1000, baseH: 800, wmW: 200, wmH: 100,
			sizePercentage: 1, position: models.PositionBottom,
			wantW: 20, wantH: 20,
		},
		{
			name:  "height cap rescales width",
			baseW: 1000, baseH: 200, wmW: 100, wmH: 100,
			sizePercentage: 95, position: models.PositionBottom,
			wantW: 140, wantH: 140,
		},
		{
			name:  "full size respects edge safety margin",
			baseW: 100, baseH: 100, wmW: 100, wmH: 100,
			sizePercentage: 100, position: models.PositionCenter,
			wantW: 90, wantH: 90,
		},
		{
			name:  "invalid watermark dimensions fall back to floor",
			baseW: 1000, baseH: 800, wmW: 0, wmH: 50,
			sizePercentage: 50, position: models.PositionCenter,
			wantW: 20, wantH: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := CalculateSmartSize(tt.baseW, tt.baseH, tt.wmW, tt.wmH, tt.sizePercentage, tt.position)
			if w != tt.wantW || h != tt.wantH {
				t.Fatalf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, w, h)
			}
		})
	}
}

func TestIsCornerAnchor(t *testing.T) {
	corners := []string{
		models.PositionTopLeft, models.PositionTopRight,
		models.PositionBottomLeft, models.PositionBottomRight,
	}
	for _, anchor := range corners {
		if !isCornerAnchor(anchor) {
			t.Fatalf("expected %s to be a corner anchor", anchor)
		}
	}

	others := []string{
		models.PositionTop, models.PositionBottom, models.PositionLeft,
		models.PositionRight, models.PositionCenter, "somewhere",
	}
	for _, anchor := range others {
		if isCornerAnchor(anchor) {
			t.Fatalf("expected %s not to be a corner anchor", anchor)
		}
	}
}
