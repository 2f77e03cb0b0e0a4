package models

// InboundMessage 入站消息事件，由传输层适配后交给转发协调器
type InboundMessage struct {
	SourceChatID int64  // 源会话ID
	MessageID    int    // 源消息ID
	Text         string // 文本或媒体说明文字
	HasMedia     bool
	MediaBytes   []byte // 已下载的媒体内容（可能为空）
	FileName     string // 媒体文件名，用于类型识别
	HasButtons   bool   // 原消息是否带内联按钮
	Forwarded    bool   // 原消息是否带"转发自"标记
	WebPage      bool   // 媒体仅为网页预览
	AlbumID      string // 所属媒体组ID，独立消息为空
}

// FilterDecision 过滤结果，每个 (任务, 消息) 对各产生一份，不落库
// 三个标志相互独立：RemoveForwardMark 在消息放行时同样可能为真
type FilterDecision struct {
	Block             bool // 拦截本任务的转发
	RemoveButtons     bool // 去除原消息按钮
	RemoveForwardMark bool // 去除"转发自"标记（强制复制模式）
}
