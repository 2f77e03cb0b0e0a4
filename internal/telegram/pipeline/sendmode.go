package pipeline

import "relay_bot/internal/telegram/models"

// ResolveSendMode 决定最终传输模式
// 原生转发无法携带被修改的内容，任何需要的改动都会强制走重建路径；
// 复制模式无条件复制；无法识别的配置值回退为安全默认 forward。
// 纯函数：相同输入恒定产出相同模式，审核预览与实际发送由此保持一致
func ResolveSendMode(forwardMode string, requiresCopy bool) string {
	switch forwardMode {
	case models.ForwardModeCopy:
		return models.ForwardModeCopy
	case models.ForwardModeForward:
		if requiresCopy {
			return models.ForwardModeCopy
		}
		return models.ForwardModeForward
	default:
		return models.ForwardModeForward
	}
}
