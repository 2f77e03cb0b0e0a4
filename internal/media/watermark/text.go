package watermark

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// 常见系统字体路径，按序探测，全部缺失时退回内置位图字体
var fontPaths = []string{
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/System/Library/Fonts/Arial.ttf",
	"arial.ttf",
}

// TextLayer 渲染文字水印图层（透明底）
// 字号随底图宽度放大，不小于配置值；透明度直接烘焙进文字颜色
func TextLayer(text string, fontSize int, colorHex string, opacity int, baseW, baseH int) (image.Image, error) {
	if text == "" {
		return nil, fmt.Errorf("empty watermark text")
	}

	size := fontSize
	if min := baseW / 25; size < min {
		size = min
	}
	if size < 8 {
		size = 8
	}

	face := loadFontFace(float64(size))
	defer face.Close()

	drawer := &font.Drawer{Face: face}
	advance := drawer.MeasureString(text)
	metrics := face.Metrics()

	textW := advance.Ceil()
	textH := (metrics.Ascent + metrics.Descent).Ceil()
	if textW <= 0 || textH <= 0 {
		return nil, fmt.Errorf("text measured to zero size")
	}

	layer := image.NewNRGBA(image.Rect(0, 0, textW+20, textH+10))
	drawer.Dst = layer
	drawer.Src = image.NewUniform(parseTextColor(colorHex, opacity))
	drawer.Dot = fixed.P(10, 5+metrics.Ascent.Ceil())
	drawer.DrawString(text)

	return layer, nil
}

// loadFontFace 定位系统 TrueType 字体，失败时退回默认位图字体
func loadFontFace(size float64) font.Face {
	for _, path := range fontPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			continue
		}
		return face
	}
	return basicfont.Face7x13
}

// parseTextColor 解析 #RRGGBB 颜色并叠加透明度，解析失败时取白色
func parseTextColor(hex string, opacity int) color.NRGBA {
	alpha := uint8(255 * clampInt(opacity, 0, 100) / 100)

	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return color.NRGBA{R: 255, G: 255, B: 255, A: alpha}
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{R: 255, G: 255, B: 255, A: alpha}
	}
	return color.NRGBA{
		R: uint8(value >> 16),
		G: uint8(value >> 8),
		B: uint8(value),
		A: alpha,
	}
}
