package transcode

import (
	"context"
	"fmt"
	"image"

	"relay_bot/internal/logger"
)

// Transcoder 视频压缩策略
// targetSizeMB <= 0 表示无目标大小，仅在源码率基础上做小幅压缩
type Transcoder interface {
	Name() string
	Compress(ctx context.Context, inPath string, outPath string, targetSizeMB float64) error
}

// FrameProcessor 逐帧处理能力：解码每一帧，经回调变换后重新编码
type FrameProcessor interface {
	ProcessFrames(ctx context.Context, inPath string, process func(image.Image) image.Image, outPath string) error
}

// AudioRemuxer 音轨回填能力：逐帧处理会丢失音轨，由此从原视频取回
type AudioRemuxer interface {
	AttachAudio(ctx context.Context, videoPath string, audioSource string, outPath string) error
}

// Chain 压缩降级链：依序尝试各策略，首个成功者生效
// 调用方只持有一个 Transcoder，不感知工具是否可用
type Chain []Transcoder

func (c Chain) Name() string { return "chain" }

// Compress 依序尝试链上策略，全部失败时返回最后一个错误
func (c Chain) Compress(ctx context.Context, inPath string, outPath string, targetSizeMB float64) error {
	if len(c) == 0 {
		return fmt.Errorf("empty transcoder chain")
	}

	var lastErr error
	for _, t := range c {
		if err := t.Compress(ctx, inPath, outPath, targetSizeMB); err != nil {
			logger.L().Warnf("Transcoder %s failed, trying next: %v", t.Name(), err)
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
