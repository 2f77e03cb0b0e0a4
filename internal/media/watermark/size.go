package watermark

import "relay_bot/internal/telegram/models"

const (
	// minWatermarkSize 水印边长下限（像素）
	minWatermarkSize = 20
	// edgeSafetyMargin 距底图边缘的安全余量（像素）
	edgeSafetyMargin = 10
)

// CalculateSmartSize 按底图尺寸与锚点计算水印目标尺寸，保持宽高比
//
// 100% 时缩放到底图 98% 边界内、选取覆盖面更大的缩放轴；
// 其余百分比按锚点分档：边/中锚点按整宽缩放，角锚点乘 0.8 折减，
// 再分别截断到底图宽的 90% / 高的 70%；最后统一执行 20px 下限与 10px 边缘余量
func CalculateSmartSize(baseW, baseH, wmW, wmH, sizePercentage int, position string) (int, int) {
	if wmW <= 0 || wmH <= 0 || baseW <= 0 || baseH <= 0 {
		return minWatermarkSize, minWatermarkSize
	}
	aspect := float64(wmW) / float64(wmH)

	var newW, newH int
	if sizePercentage >= 100 {
		newW = int(float64(baseW) * 0.98)
		newH = int(float64(baseH) * 0.98)

		heightFromWidth := int(float64(newW) / aspect)
		if heightFromWidth <= newH {
			newH = heightFromWidth
		} else {
			newW = int(float64(newH) * aspect)
		}
	} else {
		scale := float64(sizePercentage) / 100.0
		if isCornerAnchor(position) {
			newW = int(float64(baseW) * scale * 0.8)
		} else {
			newW = int(float64(baseW) * scale)
		}
		newH = int(float64(newW) / aspect)

		maxW := float64(baseW) * 0.9
		maxH := float64(baseH) * 0.7
		if float64(newW) > maxW {
			newW = int(maxW)
			newH = int(float64(newW) / aspect)
		}
		if float64(newH) > maxH {
			newH = int(maxH)
			newW = int(float64(newH) * aspect)
		}
	}

	if newW < minWatermarkSize {
		newW = minWatermarkSize
	}
	if newH < minWatermarkSize {
		newH = minWatermarkSize
	}
	if newW > baseW-edgeSafetyMargin {
		newW = baseW - edgeSafetyMargin
	}
	if newH > baseH-edgeSafetyMargin {
		newH = baseH - edgeSafetyMargin
	}
	return newW, newH
}

// isCornerAnchor 角锚点使用折减缩放，边/中锚点使用整宽缩放
func isCornerAnchor(position string) bool {
	switch position {
	case models.PositionTopLeft, models.PositionTopRight,
		models.PositionBottomLeft, models.PositionBottomRight:
		return true
	}
	return false
}
