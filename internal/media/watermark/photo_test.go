package watermark

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"relay_bot/internal/telegram/models"

	"github.com/disintegration/imaging"
)

func textSettings() *models.WatermarkSettings {
	return &models.WatermarkSettings{
		Enabled:   true,
		Type:      models.WatermarkTypeText,
		Text:      "relay",
		FontSize:  14,
		TextColor: "#FFFFFF",
		Opacity:   80,
		Position:  models.PositionBottomRight,
	}
}

func encodeTestImage(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	base := imaging.New(w, h, color.NRGBA{R: 30, G: 60, B: 90, A: 255})

	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, base, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(&buf, base)
	default:
		t.Fatalf("unsupported test format %s", format)
	}
	if err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestApplyToImageJPEG(t *testing.T) {
	media := encodeTestImage(t, "jpeg", 320, 240)

	out, err := ApplyToImage(media, textSettings())
	if err != nil {
		t.Fatalf("ApplyToImage failed: %v", err)
	}

	decoded, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output did not decode: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg output, got %s", format)
	}
	if decoded.Bounds().Dx() != 320 || decoded.Bounds().Dy() != 240 {
		t.Fatalf("dimensions changed: %v", decoded.Bounds())
	}
	if bytes.Equal(out, media) {
		t.Fatalf("expected watermarked output to differ from input")
	}
}

func TestApplyToImagePNGKeepsFormat(t *testing.T) {
	media := encodeTestImage(t, "png", 200, 160)

	out, err := ApplyToImage(media, textSettings())
	if err != nil {
		t.Fatalf("ApplyToImage failed: %v", err)
	}

	_, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output did not decode: %v", err)
	}
	if format != "png" {
		t.Fatalf("expected png output, got %s", format)
	}
}

func TestApplyToImageRejectsGarbage(t *testing.T) {
	_, err := ApplyToImage([]byte("not an image"), textSettings())
	if err == nil {
		t.Fatalf("expected decode error but got nil")
	}
}

func TestApplyToImageInvalidSettings(t *testing.T) {
	media := encodeTestImage(t, "png", 64, 64)

	tests := []struct {
		name     string
		settings *models.WatermarkSettings
	}{
		{
			name:     "text type without text",
			settings: &models.WatermarkSettings{Enabled: true, Type: models.WatermarkTypeText},
		},
		{
			name:     "image type without path",
			settings: &models.WatermarkSettings{Enabled: true, Type: models.WatermarkTypeImage},
		},
		{
			name:     "unsupported type",
			settings: &models.WatermarkSettings{Enabled: true, Type: "hologram"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ApplyToImage(media, tt.settings); err == nil {
				t.Fatalf("expected error but got nil")
			}
		})
	}
}
