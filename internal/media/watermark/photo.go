package watermark

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	// 底图解码支持的其余容器格式
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"relay_bot/internal/telegram/models"

	"github.com/disintegration/imaging"
)

// ApplyToImage 把水印合成到图片上
// 重新编码保留原始容器格式：PNG（含透明通道时恒为 PNG）、JPEG 质量 95，
// 格式无法判定时回退 PNG
func ApplyToImage(media []byte, settings *models.WatermarkSettings) ([]byte, error) {
	base, format, err := image.Decode(bytes.NewReader(media))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := base.Bounds()

	layer, err := buildLayer(settings, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	layerBounds := layer.Bounds()
	x, y := CalculatePosition(
		bounds.Dx(), bounds.Dy(),
		layerBounds.Dx(), layerBounds.Dy(),
		settings.Position, settings.OffsetX, settings.OffsetY,
	)

	composed := imaging.Overlay(base, layer, image.Pt(x, y), 1.0)

	var out bytes.Buffer
	switch format {
	case "jpeg":
		// JPEG 不携带透明通道，铺白底后编码
		flattened := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
		flattened = imaging.Overlay(flattened, composed, image.Pt(0, 0), 1.0)
		if err := jpeg.Encode(&out, flattened, &jpeg.Options{Quality: 95}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
	default:
		if err := png.Encode(&out, composed); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
	}
	return out.Bytes(), nil
}

// buildLayer 按配置构造文字或图片水印图层
func buildLayer(settings *models.WatermarkSettings, baseW, baseH int) (image.Image, error) {
	switch settings.Type {
	case models.WatermarkTypeText:
		if settings.Text == "" {
			return nil, fmt.Errorf("text watermark configured without text")
		}
		return TextLayer(settings.Text, settings.FontSize, settings.TextColor, settings.Opacity, baseW, baseH)
	case models.WatermarkTypeImage:
		if settings.ImagePath == "" {
			return nil, fmt.Errorf("image watermark configured without image path")
		}
		return ImageLayer(settings.ImagePath, settings.SizePercentage, settings.Opacity, baseW, baseH, settings.Position)
	default:
		return nil, fmt.Errorf("unsupported watermark type: %s", settings.Type)
	}
}
