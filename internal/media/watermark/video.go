package watermark

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"relay_bot/internal/logger"
	"relay_bot/internal/media/transcode"
	"relay_bot/internal/telegram/models"

	"github.com/disintegration/imaging"
)

// applyToVideo 视频水印：逐帧合成图层，再压缩并回填音轨
// 临时文件全部落在独立临时目录，任何退出路径统一清理
func (e *Engine) applyToVideo(ctx context.Context, media []byte, fileName string, settings *models.WatermarkSettings) ([]byte, error) {
	tempDir, err := os.MkdirTemp("", "relay-watermark-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	inPath := filepath.Join(tempDir, "input"+filepath.Ext(fileName))
	if err := os.WriteFile(inPath, media, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write temp video: %w", err)
	}

	width, height, err := e.videoSize(ctx, inPath, media)
	if err != nil {
		return nil, fmt.Errorf("failed to determine video size: %w", err)
	}

	layer, err := buildLayer(settings, width, height)
	if err != nil {
		return nil, err
	}
	layerBounds := layer.Bounds()
	x, y := CalculatePosition(width, height, layerBounds.Dx(), layerBounds.Dy(),
		settings.Position, settings.OffsetX, settings.OffsetY)
	at := image.Pt(x, y)

	// 逐帧合成：帧级处理会丢失音轨，稍后从原视频回填
	watermarkedPath := filepath.Join(tempDir, "watermarked"+e.outputExt())
	blend := func(frame image.Image) image.Image {
		return imaging.Overlay(frame, layer, at, 1.0)
	}
	if err := e.capability.Frames.ProcessFrames(ctx, inPath, blend, watermarkedPath); err != nil {
		return nil, fmt.Errorf("frame processing failed: %w", err)
	}

	// 压缩失败时保留未压缩产物
	finalPath := watermarkedPath
	compressedPath := filepath.Join(tempDir, "compressed"+e.outputExt())
	if err := e.capability.Transcoder.Compress(ctx, watermarkedPath, compressedPath, 0); err != nil {
		logger.L().Warnf("Video compression failed, keeping unoptimized output: %v", err)
	} else {
		finalPath = compressedPath
	}

	// 音轨回填失败时保留无声视频
	if e.capability.Audio != nil {
		withAudioPath := filepath.Join(tempDir, "final"+e.outputExt())
		if err := e.capability.Audio.AttachAudio(ctx, finalPath, inPath, withAudioPath); err != nil {
			logger.L().Warnf("Audio remux failed, video will have no audio: %v", err)
		} else {
			finalPath = withAudioPath
		}
	} else {
		logger.L().Warn("No audio remuxer available, video will have no audio")
	}

	out, err := os.ReadFile(finalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read processed video: %w", err)
	}
	return out, nil
}

// videoSize 取视频分辨率：优先 ffprobe，否则从 MJPEG 首帧解码
func (e *Engine) videoSize(ctx context.Context, path string, media []byte) (int, int, error) {
	if e.capability.FFmpeg {
		info, err := transcode.Probe(ctx, path)
		if err != nil {
			return 0, 0, err
		}
		return info.Width, info.Height, nil
	}

	frames := transcode.SplitFrames(media)
	if len(frames) == 0 {
		return 0, 0, fmt.Errorf("not an mjpeg stream and ffprobe unavailable")
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(frames[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode first frame: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// outputExt 输出容器：有 ffmpeg 时统一 MP4，纯 Go 路径保持 MJPEG
func (e *Engine) outputExt() string {
	if e.capability.FFmpeg {
		return ".mp4"
	}
	return ".mjpeg"
}
