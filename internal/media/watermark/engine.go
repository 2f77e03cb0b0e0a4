package watermark

import (
	"context"
	"path/filepath"

	"relay_bot/internal/logger"
	"relay_bot/internal/media/transcode"
	"relay_bot/internal/telegram/models"
)

// Engine 媒体水印引擎
// 水印是尽力而为的增强：任何解码/编码/转码失败都返回原始字节，绝不阻断投递
type Engine struct {
	capability *transcode.Capability
	assetsDir  string
}

// NewEngine 创建水印引擎
// capability 在启动时探测一次后传入；assetsDir 为图片水印素材目录，
// 相对路径的 ImagePath 以它为基准解析
func NewEngine(capability *transcode.Capability, assetsDir string) *Engine {
	return &Engine{capability: capability, assetsDir: assetsDir}
}

// Apply 对媒体应用水印，按扩展名分流图片/视频路径
// 返回处理后的字节；失败或类型不适用时返回原始字节
func (e *Engine) Apply(ctx context.Context, media []byte, fileName string, settings *models.WatermarkSettings) []byte {
	mediaType := MediaTypeFromFile(fileName)
	if !ShouldApply(mediaType, settings) {
		return media
	}
	settings = e.resolveImagePath(settings)

	switch mediaType {
	case MediaTypePhoto:
		out, err := ApplyToImage(media, settings)
		if err != nil {
			logger.L().Errorf("Photo watermark failed for %s, keeping original: %v", fileName, err)
			return media
		}
		return out
	case MediaTypeVideo:
		out, err := e.applyToVideo(ctx, media, fileName, settings)
		if err != nil {
			logger.L().Errorf("Video watermark failed for %s, keeping original: %v", fileName, err)
			return media
		}
		return out
	default:
		// 文档类不做内容级处理
		logger.L().Debugf("Watermark skipped for document %s", fileName)
		return media
	}
}

// resolveImagePath 把相对素材路径解析到素材目录下；配置用绝对路径时原样使用
func (e *Engine) resolveImagePath(settings *models.WatermarkSettings) *models.WatermarkSettings {
	if e.assetsDir == "" || settings.ImagePath == "" || filepath.IsAbs(settings.ImagePath) {
		return settings
	}
	resolved := *settings
	resolved.ImagePath = filepath.Join(e.assetsDir, settings.ImagePath)
	return &resolved
}
