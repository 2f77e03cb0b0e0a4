package transcode

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os/exec"
	"strconv"

	"relay_bot/internal/logger"
)

// minBitrate 压缩的码率下限 (500 kbps)
const minBitrate = 500_000

// defaultBitrate 探测不到源码率时的假定值
const defaultBitrate = 2_000_000

// FFmpeg 基于外部 ffmpeg/ffprobe 子进程的视频处理实现
// 每次调用派生独立子进程，生命周期完全限定在单次调用内，以退出码判定成败
type FFmpeg struct{}

func (f *FFmpeg) Name() string { return "ffmpeg" }

// Compress 压缩视频并保持分辨率
// 输出分辨率与输入不一致视为压缩失败，由调用方保留未压缩产物
func (f *FFmpeg) Compress(ctx context.Context, inPath string, outPath string, targetSizeMB float64) error {
	info, err := Probe(ctx, inPath)
	if err != nil {
		return fmt.Errorf("probe before compress: %w", err)
	}

	bitrate := TargetBitrate(info, targetSizeMB)
	logger.L().Infof("Compressing video %s: %dx%d, %.2f MB, target bitrate %d kbps",
		inPath, info.Width, info.Height, info.SizeMB, bitrate/1000)

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-v", "error",
		"-i", inPath,
		"-c:v", "libx264",
		"-preset", "slow",
		"-crf", "18",
		"-maxrate", strconv.FormatInt(bitrate, 10),
		"-bufsize", strconv.FormatInt(bitrate*2, 10),
		"-profile:v", "high",
		"-level", "4.1",
		"-c:a", "aac",
		"-b:a", "128k",
		"-ar", "48000",
		"-movflags", "+faststart",
		"-pix_fmt", "yuv420p",
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg compress failed: %w: %s", err, stderr.String())
	}

	outInfo, err := Probe(ctx, outPath)
	if err != nil {
		return fmt.Errorf("probe after compress: %w", err)
	}
	if outInfo.Width != info.Width || outInfo.Height != info.Height {
		return fmt.Errorf("resolution changed during compress: %dx%d -> %dx%d",
			info.Width, info.Height, outInfo.Width, outInfo.Height)
	}

	logger.L().Infof("Video compressed: %.2f MB -> %.2f MB", info.SizeMB, outInfo.SizeMB)
	return nil
}

// AttachAudio 把原视频的音轨合入逐帧处理后的视频
func (f *FFmpeg) AttachAudio(ctx context.Context, videoPath string, audioSource string, outPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-v", "error",
		"-i", videoPath,
		"-i", audioSource,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "128k",
		"-map", "0:v:0",
		"-map", "1:a:0",
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg audio remux failed: %w: %s", err, stderr.String())
	}
	return nil
}

// ProcessFrames 逐帧处理：解码端输出 MJPEG 帧流，经回调变换后喂给编码端
// 两个子进程同时存活，Go 侧只做逐帧中转
func (f *FFmpeg) ProcessFrames(ctx context.Context, inPath string, process func(image.Image) image.Image, outPath string) error {
	info, err := Probe(ctx, inPath)
	if err != nil {
		return fmt.Errorf("probe before frame processing: %w", err)
	}
	fps := info.FPS
	if fps <= 0 {
		fps = 30
	}

	decode := exec.CommandContext(ctx, "ffmpeg", "-v", "error",
		"-i", inPath,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"-",
	)
	encode := exec.CommandContext(ctx, "ffmpeg", "-y", "-v", "error",
		"-f", "image2pipe",
		"-framerate", strconv.FormatFloat(fps, 'f', 3, 64),
		"-i", "-",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		outPath,
	)

	decodeOut, err := decode.StdoutPipe()
	if err != nil {
		return fmt.Errorf("decode stdout pipe: %w", err)
	}
	encodeIn, err := encode.StdinPipe()
	if err != nil {
		return fmt.Errorf("encode stdin pipe: %w", err)
	}

	var decodeErr, encodeErr bytes.Buffer
	decode.Stderr = &decodeErr
	encode.Stderr = &encodeErr

	if err := decode.Start(); err != nil {
		return fmt.Errorf("start ffmpeg decoder: %w", err)
	}
	if err := encode.Start(); err != nil {
		_ = decode.Process.Kill()
		_ = decode.Wait()
		return fmt.Errorf("start ffmpeg encoder: %w", err)
	}

	frames := NewFrameReader(bufio.NewReaderSize(decodeOut, 1<<20))
	frameCount := 0
	var streamErr error
	for {
		raw, err := frames.Next()
		if err != nil {
			break
		}

		img, err := jpeg.Decode(bytes.NewReader(raw))
		if err != nil {
			// 单帧损坏时原样透传
			logger.L().Warnf("Failed to decode frame %d, passing through: %v", frameCount, err)
			if _, err := encodeIn.Write(raw); err != nil {
				streamErr = err
				break
			}
			frameCount++
			continue
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, process(img), &jpeg.Options{Quality: 92}); err != nil {
			streamErr = err
			break
		}
		if _, err := encodeIn.Write(buf.Bytes()); err != nil {
			streamErr = err
			break
		}
		frameCount++
	}

	_ = encodeIn.Close()
	decodeWaitErr := decode.Wait()
	encodeWaitErr := encode.Wait()

	if streamErr != nil {
		return fmt.Errorf("frame stream aborted after %d frames: %w", frameCount, streamErr)
	}
	if decodeWaitErr != nil {
		return fmt.Errorf("ffmpeg decoder failed: %w: %s", decodeWaitErr, decodeErr.String())
	}
	if encodeWaitErr != nil {
		return fmt.Errorf("ffmpeg encoder failed: %w: %s", encodeWaitErr, encodeErr.String())
	}

	logger.L().Infof("Processed %d video frames for %s", frameCount, inPath)
	return nil
}

// TargetBitrate 计算压缩目标码率
// 有目标大小且源更大时按时长折算（下限 500 kbps），否则在源码率上压低两成
func TargetBitrate(info *VideoInfo, targetSizeMB float64) int64 {
	if targetSizeMB > 0 && info.SizeMB > targetSizeMB && info.Duration > 0 {
		bitrate := int64(targetSizeMB * 8 * 1024 * 1024 / info.Duration)
		if bitrate < minBitrate {
			bitrate = minBitrate
		}
		return bitrate
	}

	source := info.Bitrate
	if source <= 0 {
		source = defaultBitrate
	}
	return source * 8 / 10
}
