package pipeline

import (
	"context"
	"regexp"
	"strings"

	"relay_bot/internal/logger"
	"relay_bot/internal/telegram/models"
	"relay_bot/internal/telegram/repository"
)

// Translator 翻译能力接口，未配置时传 nil 即可
type Translator interface {
	Translate(ctx context.Context, text string, targetLang string) (string, error)
}

// Pipeline 文本变换管线
// 阶段顺序固定：清理 → 替换 → 条件翻译 → 格式化 → 页眉/页脚拼装，
// 每个阶段接收上一阶段的输出；任何阶段出错退化为"不变换"而不是丢弃消息
type Pipeline struct {
	provider   repository.SettingsProvider
	translator Translator
}

// Result 变换结果
type Result struct {
	Text       string // 最终文本
	Mutated    bool   // 任一阶段改动了内容，或页眉/页脚/内联按钮已启用
	Translated bool   // 翻译阶段实际改动了文本
}

// New 创建变换管线
func New(provider repository.SettingsProvider, translator Translator) *Pipeline {
	return &Pipeline{provider: provider, translator: translator}
}

// Transform 对任务应用全部文本变换
// effectiveMode 为该任务本次生效的配置模式：仅复制模式执行翻译，
// 转发模式跳过翻译以保证无其他改动时原文逐字节保留
func (p *Pipeline) Transform(ctx context.Context, taskID string, originalText string, effectiveMode string) Result {
	messageSettings, err := p.provider.MessageSettings(ctx, taskID)
	if err != nil {
		logger.L().Errorf("Failed to load message settings for task %s, skipping transform: %v", taskID, err)
		return Result{Text: originalText}
	}

	text := originalText

	// 阶段1：文本清理
	cleaning, err := p.provider.TextCleaningSettings(ctx, taskID)
	if err != nil {
		logger.L().Errorf("Failed to load cleaning settings for task %s: %v", taskID, err)
	} else {
		text = CleanText(text, cleaning)
	}

	// 阶段2：文本替换
	rules, err := p.provider.ReplacementRules(ctx, taskID)
	if err != nil {
		logger.L().Errorf("Failed to load replacement rules for task %s: %v", taskID, err)
	} else {
		text = ApplyReplacements(text, rules)
	}

	// 阶段3：条件翻译（仅复制模式）
	translated := false
	if effectiveMode == models.ForwardModeCopy && messageSettings.TranslateTo != "" && p.translator != nil && text != "" {
		out, err := p.translator.Translate(ctx, text, messageSettings.TranslateTo)
		if err != nil {
			logger.L().Errorf("Translation failed for task %s, keeping original text: %v", taskID, err)
		} else if out != "" {
			translated = out != text
			text = out
		}
	}

	// 阶段4：文本格式化
	text = FormatText(text)

	// 阶段5：页眉/页脚拼装
	text = composeHeaderFooter(text, messageSettings)

	// 页眉/页脚/按钮的"启用"即视为需要重建，与内容是否实际变化无关
	mutated := text != originalText ||
		messageSettings.HeaderEnabled ||
		messageSettings.FooterEnabled ||
		messageSettings.InlineButtonsEnabled

	return Result{Text: text, Mutated: mutated, Translated: translated}
}

var (
	linkPattern    = regexp.MustCompile(`(?i)\bhttps?://\S+|\bt\.me/\S+`)
	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	mentionPattern = regexp.MustCompile(`@[A-Za-z0-9_]{3,}`)
	blankLines     = regexp.MustCompile(`\n{3,}`)
	trailingSpaces = regexp.MustCompile(`[ \t]+\n`)
)

// CleanText 按清理规则删除配置的内容模式，空输入原样返回
func CleanText(text string, settings *models.TextCleaningSettings) string {
	if text == "" {
		return text
	}

	if settings.RemoveLinks {
		text = linkPattern.ReplaceAllString(text, "")
	}
	if settings.RemoveHashtags {
		text = hashtagPattern.ReplaceAllString(text, "")
	}
	if settings.RemoveMentions {
		text = mentionPattern.ReplaceAllString(text, "")
	}
	if settings.RemoveEmojis {
		text = removeEmojis(text)
	}
	for _, pattern := range settings.StripPatterns {
		if pattern != "" {
			text = strings.ReplaceAll(text, pattern, "")
		}
	}
	return text
}

// ApplyReplacements 按序应用替换规则；非法正则跳过该条规则
func ApplyReplacements(text string, rules []models.ReplacementRule) string {
	if text == "" {
		return text
	}

	for _, rule := range rules {
		if rule.Pattern == "" {
			continue
		}
		if rule.IsRegex {
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				logger.L().Warnf("Invalid replacement pattern %q, rule skipped: %v", rule.Pattern, err)
				continue
			}
			text = re.ReplaceAllString(text, rule.Replacement)
		} else {
			text = strings.ReplaceAll(text, rule.Pattern, rule.Replacement)
		}
	}
	return text
}

// FormatText 样式归一化：去除行尾空白、压缩连续空行、修剪首尾空白
func FormatText(text string) string {
	if text == "" {
		return text
	}
	text = trailingSpaces.ReplaceAllString(text, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// composeHeaderFooter 拼装页眉/页脚；正文为空时单独成文
func composeHeaderFooter(text string, settings *models.MessageSettings) string {
	if settings.HeaderEnabled && settings.HeaderText != "" {
		if text == "" {
			text = settings.HeaderText
		} else {
			text = settings.HeaderText + "\n\n" + text
		}
	}
	if settings.FooterEnabled && settings.FooterText != "" {
		if text == "" {
			text = settings.FooterText
		} else {
			text = text + "\n\n" + settings.FooterText
		}
	}
	return text
}

// removeEmojis 删除常见 emoji 码位区段
func removeEmojis(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF, // 象形图与扩展符号
			r >= 0x1F000 && r <= 0x1F2FF, // 麻将/骨牌/扑克
			r >= 0x2600 && r <= 0x27BF, // 杂项符号与装饰
			r >= 0x2190 && r <= 0x21FF, // 箭头
			r == 0xFE0F, r == 0x200D: // 变体选择符 / 零宽连接符
			return -1
		}
		return r
	}, text)
}
