package transcode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"relay_bot/internal/logger"

	"github.com/disintegration/imaging"
)

// Resampler 纯 Go 的朴素逐帧压缩器，ffmpeg 不可用时的降级路径
// 仅支持 MJPEG 帧流（拼接的 JPEG 序列）：按档位降低分辨率与帧率
type Resampler struct{}

func (r *Resampler) Name() string { return "frame-resampler" }

// TierFor 按 目标大小/原大小 的比值选择降采样档位
// 返回 (分辨率缩放, 帧率缩放)
func TierFor(ratio float64) (float64, float64) {
	switch {
	case ratio < 0.5:
		return 0.7, 0.75
	case ratio < 0.8:
		return 0.85, 0.9
	default:
		return 0.95, 0.95
	}
}

// Compress 逐帧降采样压缩
func (r *Resampler) Compress(ctx context.Context, inPath string, outPath string, targetSizeMB float64) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	frames := SplitFrames(data)
	if len(frames) == 0 {
		return fmt.Errorf("input %s is not an mjpeg stream", inPath)
	}

	ratio := 1.0
	originalMB := float64(len(data)) / (1024 * 1024)
	if targetSizeMB > 0 && originalMB > 0 {
		ratio = targetSizeMB / originalMB
	}
	scaleFactor, fpsFactor := TierFor(ratio)

	logger.L().Infof("Resampling %d frames: scale %.2f, fps factor %.2f", len(frames), scaleFactor, fpsFactor)

	var out bytes.Buffer
	kept := 0
	for i, raw := range frames {
		if !keepFrame(i, fpsFactor) {
			continue
		}

		img, err := jpeg.Decode(bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("decode frame %d: %w", i, err)
		}

		bounds := img.Bounds()
		width := int(float64(bounds.Dx()) * scaleFactor)
		height := int(float64(bounds.Dy()) * scaleFactor)
		if width < 1 || height < 1 {
			return fmt.Errorf("frame %d too small to resample", i)
		}
		var resized image.Image = img
		if width != bounds.Dx() || height != bounds.Dy() {
			resized = imaging.Resize(img, width, height, imaging.Lanczos)
		}

		if err := jpeg.Encode(&out, resized, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
		kept++

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	if err := os.WriteFile(outPath, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.L().Infof("Resampled video: %d/%d frames kept, %.2f MB -> %.2f MB",
		kept, len(frames), originalMB, float64(out.Len())/(1024*1024))
	return nil
}

// ProcessFrames 对 MJPEG 流逐帧应用回调，不做降采样
func (r *Resampler) ProcessFrames(ctx context.Context, inPath string, process func(image.Image) image.Image, outPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	frames := SplitFrames(data)
	if len(frames) == 0 {
		return fmt.Errorf("input %s is not an mjpeg stream", inPath)
	}

	var out bytes.Buffer
	for i, raw := range frames {
		img, err := jpeg.Decode(bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("decode frame %d: %w", i, err)
		}
		if err := jpeg.Encode(&out, process(img), &jpeg.Options{Quality: 92}); err != nil {
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
	}

	if err := os.WriteFile(outPath, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// keepFrame 按帧率缩放因子决定是否保留第 i 帧，首帧恒保留
func keepFrame(i int, fpsFactor float64) bool {
	if i == 0 {
		return true
	}
	if fpsFactor >= 1 {
		return true
	}
	return int(float64(i)*fpsFactor) > int(float64(i-1)*fpsFactor)
}
