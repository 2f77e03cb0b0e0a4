package transcode

import (
	"context"
	"os/exec"

	"relay_bot/internal/logger"
)

// Capability 启动时探测一次的视频处理能力集合
// 调用方持有本结构即可，不在调用点分支判断工具是否存在
type Capability struct {
	Transcoder Transcoder     // 压缩降级链
	Frames     FrameProcessor // 逐帧处理
	Audio      AudioRemuxer   // 音轨回填；无 ffmpeg 时为 nil
	FFmpeg     bool           // ffmpeg/ffprobe 是否可用
}

// Detect 探测 ffmpeg/ffprobe 可用性并装配能力集合
// 结果应在启动时缓存，进程内只探测一次
func Detect(ctx context.Context) *Capability {
	if ffmpegAvailable(ctx) {
		logger.L().Info("ffmpeg available, using native transcoding")
		ff := &FFmpeg{}
		return &Capability{
			Transcoder: Chain{ff, &Resampler{}, &Passthrough{}},
			Frames:     ff,
			Audio:      ff,
			FFmpeg:     true,
		}
	}

	logger.L().Warn("ffmpeg not available, falling back to frame resampler")
	rs := &Resampler{}
	return &Capability{
		Transcoder: Chain{rs, &Passthrough{}},
		Frames:     rs,
	}
}

// ffmpegAvailable 同时要求 ffmpeg 与 ffprobe 可执行且正常退出
func ffmpegAvailable(ctx context.Context) bool {
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			return false
		}
		if err := exec.CommandContext(ctx, tool, "-version").Run(); err != nil {
			return false
		}
	}
	return true
}
