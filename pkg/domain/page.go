package domain

import "strings"

// ComicPage はパイプラインの最終出力単位（1ページ分の完成データ）です。
// ImageURL は成果物ストアが払い出した参照先を指します。
type ComicPage struct {
	PageNumber int            `json:"pageNumber"`
	ImageURL   string         `json:"imageUrl"`
	Text       string         `json:"text"`
	Dialogue   []DialogueItem `json:"dialogue,omitempty"`
	Narration  string         `json:"narration,omitempty"`
}

// PageTextOf はフレームからページ表示用のテキストを組み立てます。
// ナレーションがあればそれを優先し、なければセリフを連結するのだ。
func PageTextOf(frame StoryboardFrame) string {
	if frame.Narration != "" {
		return frame.Narration
	}

	parts := make([]string, 0, len(frame.Dialogues))
	for _, d := range frame.Dialogues {
		if d.Text == "" {
			continue
		}
		if d.Role != "" {
			parts = append(parts, d.Role+": "+d.Text)
		} else {
			parts = append(parts, d.Text)
		}
	}
	return strings.Join(parts, "\n")
}
