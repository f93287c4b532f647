// Package prompts は各パイプラインステージのプロンプトと、
// 画像生成向けの構図ヒントを組み立てます。
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// StageBuilder は物語プロンプトと前段ステージの成果物から、
// 各ステージへ渡すメッセージ本文を構築します。
type StageBuilder struct {
	styleSuffix string // "anime style, high quality" 等の共通画風サフィックス
}

// NewStageBuilder は共通の画風サフィックスを受け取って StageBuilder を生成します。
func NewStageBuilder(styleSuffix string) *StageBuilder {
	return &StageBuilder{styleSuffix: styleSuffix}
}

// BuildOutlinePrompt は構成案ステージのユーザープロンプトを構築します。
func (sb *StageBuilder) BuildOutlinePrompt(storyPrompt string) string {
	var b strings.Builder
	b.WriteString(OutlineFormatHeader)
	b.WriteString("\n\n### STORY PREMISE ###\n")
	b.WriteString(storyPrompt)
	return b.String()
}

// BuildScriptPrompt は承認済みの構成案から脚本ステージのプロンプトを構築します。
// 構成案はJSONのまま埋め込み、章構成とキャラクター定義を遵守させるのだ。
func (sb *StageBuilder) BuildScriptPrompt(outline *domain.StoryOutline) string {
	var b strings.Builder
	b.WriteString("### APPROVED OUTLINE (FOLLOW STRICTLY) ###\n")
	b.WriteString(marshalIndent(outline))
	b.WriteString("\n\n### TASK ###\n")
	b.WriteString("Write the full narrative script for this story. Cover every chapter in order. ")
	b.WriteString("Use the character names exactly as defined. Plain prose with dialogue lines, no JSON.\n")
	return b.String()
}

// BuildStoryboardPrompt は脚本から絵コンテステージのプロンプトを構築します。
func (sb *StageBuilder) BuildStoryboardPrompt(outline *domain.StoryOutline, script string, maxFrames int) string {
	var b strings.Builder
	b.WriteString(StoryboardFormatHeader)

	b.WriteString("\n\n### CHARACTER IDENTITIES ###\n")
	for _, c := range outline.Characters {
		if c.Visual != "" {
			b.WriteString(fmt.Sprintf("- %s (%s): %s\n", c.Name, c.Role, c.Visual))
		} else {
			b.WriteString(fmt.Sprintf("- %s (%s): %s\n", c.Name, c.Role, c.Description))
		}
	}

	if maxFrames > 0 {
		b.WriteString(fmt.Sprintf("\n- TOTAL FRAMES: at most %d.\n", maxFrames))
	}
	if sb.styleSuffix != "" {
		b.WriteString(fmt.Sprintf("- GLOBAL_STYLE: every imagePrompt must end with %q.\n", sb.styleSuffix))
	}

	b.WriteString("\n### SCRIPT ###\n")
	b.WriteString(script)
	return b.String()
}

// marshalIndent は構成案を読みやすいJSONへ変換します。
// パイプライン内で検証済みの構造体なので失敗はあり得ませんが、
// 念のため失敗時はタイトルのみの縮退表現を返します。
func marshalIndent(outline *domain.StoryOutline) string {
	data, err := json.MarshalIndent(outline, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"overview":{"title":%q}}`, outline.Overview.Title)
	}
	return string(data)
}
