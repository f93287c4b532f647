package parser

import (
	"encoding/json"
	"fmt"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// ParseOutline はサニタイズ済みテキストを StoryOutline として検証付きでパースします。
// overview.title / overview.logline の欠落、chapters / characters が空の場合は
// ErrStructural で失敗します。これらは修復層が安全に推測できない契約違反です。
func ParseOutline(raw string) (*domain.StoryOutline, error) {
	text := Sanitize(raw)

	var outline domain.StoryOutline
	if err := json.Unmarshal([]byte(text), &outline); err != nil {
		return nil, fmt.Errorf("構成案JSONの解析に失敗しました (応答抜粋: %q): %w", truncate(raw, 200), err)
	}

	if outline.Overview.Title == "" {
		return nil, structuralErr("overview.title がありません")
	}
	if outline.Overview.Logline == "" {
		return nil, structuralErr("overview.logline がありません")
	}
	if len(outline.Chapters) == 0 {
		return nil, structuralErr("chapters が空です")
	}
	if len(outline.Characters) == 0 {
		return nil, structuralErr("characters が空です")
	}

	for i, ch := range outline.Chapters {
		if ch.Title == "" {
			return nil, structuralErr("chapters[%d].title がありません", i)
		}
		if ch.Summary == "" {
			return nil, structuralErr("chapters[%d].summary がありません", i)
		}
	}
	for i, c := range outline.Characters {
		if c.Name == "" {
			return nil, structuralErr("characters[%d].name がありません", i)
		}
	}

	return &outline, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
