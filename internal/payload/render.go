package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/ziwei/internal/canon"
)

// SystemPrompt is the fixed instruction sent ahead of every document.
var SystemPrompt = strings.Join([]string{
	"你是紫微斗数解盘助手，输出中文 Markdown。",
	"不要写前言或开场说明，直接进入解读内容。",
	"避免绝对化断言，使用“倾向/可能/易于”等表述。",
	"严格按顺序输出以下章节（使用二级标题）：",
	"1) 找命宫",
	"2) 看主星",
	"3) 看三方四正",
	"4) 看福德宫",
	"5) 看生年四化",
	"6) 看宫干四化",
	"7) 性格推演",
	"8) 目标宫位（命宫固定+手动补充）",
	"9) 运限（大限/流年/流日）",
	"10) 总结建议",
	"若数据缺失，请明确说明缺失项，不要编造。",
}, "\n")

const userPromptHeader = "以下是紫微斗数命盘结构化数据，请据此解读："

// Render returns the document as JSON indented by two spaces, with <, >, &
// and line separators written literally.
func (d *Document) Render() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return canon.Unescape(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// UserPrompt wraps the rendered document in the labeled user message.
func (d *Document) UserPrompt() (string, error) {
	data, err := d.Render()
	if err != nil {
		return "", err
	}
	return strings.Join([]string{userPromptHeader, "```json", string(data), "```"}, "\n"), nil
}

// Hash is the content address of the rendered document.
func (d *Document) Hash() (string, error) {
	data, err := d.Render()
	if err != nil {
		return "", err
	}
	return canon.Sum(canon.DomainDocument, data), nil
}
