package watermark

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImageLayer 加载并准备图片水印图层
// 按智能尺寸缩放（保持宽高比），透明度烘焙进 alpha 通道
func ImageLayer(path string, sizePercentage, opacity int, baseW, baseH int, position string) (image.Image, error) {
	loaded, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load watermark image %s: %w", path, err)
	}

	bounds := loaded.Bounds()
	newW, newH := CalculateSmartSize(baseW, baseH, bounds.Dx(), bounds.Dy(), sizePercentage, position)
	layer := imaging.Resize(loaded, newW, newH, imaging.Lanczos)

	if opacity < 100 {
		layer = applyOpacity(layer, opacity)
	}
	return layer, nil
}

// applyOpacity 按百分比整体压低 alpha 通道
func applyOpacity(img *image.NRGBA, opacity int) *image.NRGBA {
	factor := clampInt(opacity, 0, 100)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(int(img.Pix[i]) * factor / 100)
	}
	return img
}
