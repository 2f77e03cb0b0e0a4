package models

import "time"

// ForwardingSettings 任务级传输选项，处理期间作为不可变快照读取
type ForwardingSettings struct {
	SilentNotifications bool          `bson:"silent_notifications"` // 静默通知
	LinkPreviewEnabled  bool          `bson:"link_preview_enabled"` // 链接预览
	PublishingMode      string        `bson:"publishing_mode"`      // auto/manual
	SendingInterval     time.Duration `bson:"sending_interval"`     // 同一事件内任务间的发送间隔
	SplitAlbumEnabled   bool          `bson:"split_album_enabled"`  // 相册拆分发送
}

// MessageSettings 任务级内容选项
type MessageSettings struct {
	HeaderEnabled        bool        `bson:"header_enabled"`
	HeaderText           string      `bson:"header_text"`
	FooterEnabled        bool        `bson:"footer_enabled"`
	FooterText           string      `bson:"footer_text"`
	InlineButtonsEnabled bool        `bson:"inline_buttons_enabled"`
	InlineButtons        []ButtonRow `bson:"inline_buttons"`
	TranslateTo          string      `bson:"translate_to"` // 目标语言代码，空表示不翻译
}

// ButtonRow 一行内联按钮
type ButtonRow []Button

// Button 内联 URL 按钮
type Button struct {
	Text string `bson:"text"`
	URL  string `bson:"url"`
}

// TextCleaningSettings 文本清理规则
type TextCleaningSettings struct {
	RemoveLinks    bool     `bson:"remove_links"`
	RemoveHashtags bool     `bson:"remove_hashtags"`
	RemoveMentions bool     `bson:"remove_mentions"`
	RemoveEmojis   bool     `bson:"remove_emojis"`
	RemoveCaption  bool     `bson:"remove_caption"` // 复制模式下丢弃媒体说明文字
	StripPatterns  []string `bson:"strip_patterns"` // 额外需要删除的子串
}

// ReplacementRule 文本替换规则，按序应用
type ReplacementRule struct {
	Pattern     string `bson:"pattern"`
	Replacement string `bson:"replacement"`
	IsRegex     bool   `bson:"is_regex"`
}

// FilterSettings 任务级内容过滤规则，各类别相互独立
type FilterSettings struct {
	BlockedWords      []string `bson:"blocked_words"`       // 命中任一则拦截
	RequiredWords     []string `bson:"required_words"`      // 非空时必须命中其一
	BlockForwarded    bool     `bson:"block_forwarded"`     // 拦截带"转发自"标记的消息
	StripForwardMark  bool     `bson:"strip_forward_mark"`  // 去除"转发自"标记（强制复制）
	BlockButtons      bool     `bson:"block_buttons"`       // 拦截带按钮的消息
	StripButtons      bool     `bson:"strip_buttons"`       // 去除按钮
	BlockedMediaTypes []string `bson:"blocked_media_types"` // photo/video/document
}

// WatermarkSettings 任务级水印配置
type WatermarkSettings struct {
	Enabled          bool   `bson:"enabled"`
	Type             string `bson:"type"`      // none/text/image
	Text             string `bson:"text"`      // 文字水印内容
	FontSize         int    `bson:"font_size"` // 基础字号，实际字号随图片宽度放大
	TextColor        string `bson:"text_color"`
	Opacity          int    `bson:"opacity"`         // 0-100
	ImagePath        string `bson:"image_path"`      // 图片水印路径
	SizePercentage   int    `bson:"size_percentage"` // 相对底图的尺寸百分比
	Position         string `bson:"position"`        // 九宫格锚点
	OffsetX          int    `bson:"offset_x"`        // 手动像素偏移
	OffsetY          int    `bson:"offset_y"`
	ApplyToPhotos    bool   `bson:"apply_to_photos"`
	ApplyToVideos    bool   `bson:"apply_to_videos"`
	ApplyToDocuments bool   `bson:"apply_to_documents"`
}

const (
	WatermarkTypeNone  = "none"
	WatermarkTypeText  = "text"
	WatermarkTypeImage = "image"
)

// 九宫格水印锚点
const (
	PositionTopLeft     = "top_left"
	PositionTop         = "top"
	PositionTopRight    = "top_right"
	PositionLeft        = "left"
	PositionCenter      = "center"
	PositionRight       = "right"
	PositionBottomLeft  = "bottom_left"
	PositionBottom      = "bottom"
	PositionBottomRight = "bottom_right"
)
