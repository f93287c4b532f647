package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// セリフ座標が欠落していたときに採用する既定値。
// 横は中央、縦はやや上寄り（吹き出しの標準位置）なのだ。
const (
	defaultXRatio = 0.5
	defaultYRatio = 0.4
)

// rawStoryboard / rawFrame / rawDialogue はモデル出力の緩い形を受けるための中間表現です。
// 座標をポインタで受けることで「0が指定された」と「欠落している」を区別します。
type rawStoryboard struct {
	Frames []rawFrame `json:"frames"`
}

type rawFrame struct {
	FrameID     *int          `json:"frameId"`
	ImagePrompt string        `json:"imagePrompt"`
	Dialogues   []rawDialogue `json:"dialogues"`
	Narration   string        `json:"narration"`
}

type rawDialogue struct {
	Role   string   `json:"role"`
	Text   string   `json:"text"`
	Anchor string   `json:"anchor"`
	XRatio *float64 `json:"xRatio"`
	YRatio *float64 `json:"yRatio"`
}

// ParseStoryboard はサニタイズ済みテキストを StoryboardData として検証付きでパースします。
// 方針は「構造の欠落はハードフェイル、値域の逸脱は自動修復」です。
//   - frames / frameId / imagePrompt / role / text の欠落 → ErrStructural
//   - 座標の欠落・NaN → 既定値、[0,1] 外 → クランプ
//   - anchor はモデルの申告を無視して xRatio の帯域から再計算する
func ParseStoryboard(raw string) (*domain.StoryboardData, error) {
	text := Sanitize(raw)

	var rs rawStoryboard
	if err := json.Unmarshal([]byte(text), &rs); err != nil {
		return nil, fmt.Errorf("絵コンテJSONの解析に失敗しました (応答抜粋: %q): %w", truncate(raw, 200), err)
	}

	if len(rs.Frames) == 0 {
		return nil, structuralErr("frames がありません")
	}

	sb := &domain.StoryboardData{
		Frames: make([]domain.StoryboardFrame, 0, len(rs.Frames)),
	}

	for i, rf := range rs.Frames {
		if rf.FrameID == nil || *rf.FrameID <= 0 {
			return nil, structuralErr("frames[%d].frameId がありません", i)
		}
		if rf.ImagePrompt == "" {
			return nil, structuralErr("frames[%d].imagePrompt がありません", i)
		}

		frame := domain.StoryboardFrame{
			FrameID:     *rf.FrameID,
			ImagePrompt: rf.ImagePrompt,
			Dialogues:   make([]domain.DialogueItem, 0, len(rf.Dialogues)),
			Narration:   rf.Narration,
		}

		for j, rd := range rf.Dialogues {
			if rd.Role == "" {
				return nil, structuralErr("frames[%d].dialogues[%d].role がありません", i, j)
			}
			if rd.Text == "" {
				return nil, structuralErr("frames[%d].dialogues[%d].text がありません", i, j)
			}
			frame.Dialogues = append(frame.Dialogues, RepairDialogue(rd.Role, rd.Text, rd.XRatio, rd.YRatio))
		}

		sb.Frames = append(sb.Frames, frame)
	}

	// モデルはたまにフレームを順不同で返すため、frameId 順に並べ直す。
	sb.SortFrames()

	return sb, nil
}

// RepairDialogue は座標の欠落・範囲外を修復し、アンカーを帯域規則から再計算します。
// anchor と xRatio の不一致はモデル出力の定番ノイズなので、ここで必ず潰すのだ。
func RepairDialogue(role, text string, xRatio, yRatio *float64) domain.DialogueItem {
	x := defaultXRatio
	if xRatio != nil && !math.IsNaN(*xRatio) {
		x = *xRatio
	}
	y := defaultYRatio
	if yRatio != nil && !math.IsNaN(*yRatio) {
		y = *yRatio
	}

	cx := Clamp01(x)
	cy := Clamp01(y)
	if cx != x || cy != y {
		slog.Warn("セリフ座標を修復しました", "role", role, "x", x, "y", y)
	}

	return domain.DialogueItem{
		Role:   role,
		Text:   text,
		Anchor: domain.AnchorFor(cx),
		XRatio: cx,
		YRatio: cy,
	}
}

// Clamp01 は値を [0,1] に収めます。
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
