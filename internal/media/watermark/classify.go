package watermark

import (
	"path/filepath"
	"strings"

	"relay_bot/internal/telegram/models"
)

// 媒体类型（按文件扩展名分类）
const (
	MediaTypePhoto    = "photo"
	MediaTypeVideo    = "video"
	MediaTypeDocument = "document"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".bmp": true, ".tiff": true, ".webp": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".wmv": true, ".flv": true, ".webm": true,
	".mjpeg": true, ".mjpg": true,
}

// MediaTypeFromFile 按扩展名识别媒体类型，未知扩展名归为 document
func MediaTypeFromFile(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch {
	case imageExtensions[ext]:
		return MediaTypePhoto
	case videoExtensions[ext]:
		return MediaTypeVideo
	default:
		return MediaTypeDocument
	}
}

// ShouldApply 按媒体类型与全局开关决定是否执行水印
func ShouldApply(mediaType string, settings *models.WatermarkSettings) bool {
	if settings == nil || !settings.Enabled || settings.Type == models.WatermarkTypeNone {
		return false
	}

	switch mediaType {
	case MediaTypePhoto:
		return settings.ApplyToPhotos
	case MediaTypeVideo:
		return settings.ApplyToVideos
	case MediaTypeDocument:
		return settings.ApplyToDocuments
	default:
		return false
	}
}
