package watermark

import "relay_bot/internal/telegram/models"

// CalculatePosition 计算水印在底图上的落点
// 九宫格锚点 + 手动像素偏移，最终坐标截断在底图边界内：
// 0 <= x <= W-w, 0 <= y <= H-h 恒成立（w<W, h<H 时）
func CalculatePosition(baseW, baseH, wmW, wmH int, position string, offsetX, offsetY int) (int, int) {
	// 边距取底图短边的 5%
	margin := minInt(baseW, baseH) / 20

	centerX := (baseW - wmW) / 2
	centerY := (baseH - wmH) / 2
	rightX := baseW - wmW - margin
	bottomY := baseH - wmH - margin

	var x, y int
	switch position {
	case models.PositionTopLeft:
		x, y = margin, margin
	case models.PositionTop:
		x, y = centerX, margin
	case models.PositionTopRight:
		x, y = rightX, margin
	case models.PositionLeft:
		x, y = margin, centerY
	case models.PositionCenter:
		x, y = centerX, centerY
	case models.PositionRight:
		x, y = rightX, centerY
	case models.PositionBottomLeft:
		x, y = margin, bottomY
	case models.PositionBottom:
		x, y = centerX, bottomY
	default: // 含 bottom_right 与未知锚点
		x, y = rightX, bottomY
	}

	x = clampInt(x+offsetX, 0, baseW-wmW)
	y = clampInt(y+offsetY, 0, baseH-wmH)
	return x, y
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
