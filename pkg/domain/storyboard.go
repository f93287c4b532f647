package domain

import "sort"

// Anchor は吹き出しの水平方向の寄せ（左・右・中央）を表します。
type Anchor string

const (
	AnchorLeft   Anchor = "left"
	AnchorRight  Anchor = "right"
	AnchorCenter Anchor = "center"
)

// アンカー帯域の境界値。xRatio がこの範囲の外側に出たとき左右に寄せます。
const (
	anchorLeftBound  = 0.45
	anchorRightBound = 0.55
)

// AnchorFor は xRatio から対応するアンカー帯域を決定します。
// 0.45 未満は left、0.55 超は right、それ以外は center になるのだ。
func AnchorFor(xRatio float64) Anchor {
	switch {
	case xRatio < anchorLeftBound:
		return AnchorLeft
	case xRatio > anchorRightBound:
		return AnchorRight
	default:
		return AnchorCenter
	}
}

// DialogueItem はフレーム内の1つのセリフと、その吹き出しの配置座標です。
// xRatio / yRatio はフレームの幅・高さに対する割合 [0,1] で表現します。
type DialogueItem struct {
	Role   string  `json:"role"`
	Text   string  `json:"text"`
	Anchor Anchor  `json:"anchor"`
	XRatio float64 `json:"xRatio"`
	YRatio float64 `json:"yRatio"`
}

// StoryboardFrame は1枚の挿絵に対応する絵コンテの単位です。
// ImagePrompt が画像生成へ渡すシーン描写、Dialogues が配置済みセリフ群です。
type StoryboardFrame struct {
	FrameID     int            `json:"frameId"`
	ImagePrompt string         `json:"imagePrompt"`
	Dialogues   []DialogueItem `json:"dialogues"`
	Narration   string         `json:"narration,omitempty"`
}

// StoryboardData は絵コンテ全体（フレームの列）です。frames は空であってはなりません。
type StoryboardData struct {
	Frames []StoryboardFrame `json:"frames"`
}

// UniqueRoles はフレーム内のセリフから重複しない話者ロールを抽出します。
func (f *StoryboardFrame) UniqueRoles() []string {
	set := make(map[string]struct{})
	for _, d := range f.Dialogues {
		if d.Role != "" {
			set[d.Role] = struct{}{}
		}
	}

	roles := make([]string, 0, len(set))
	for r := range set {
		roles = append(roles, r)
	}
	sort.Strings(roles)

	return roles
}

// SortFrames は frameId の昇順にフレームを並べ替えます。
// モデル出力の順序ゆらぎを正すだけで、新しいデータは作りません。
func (s *StoryboardData) SortFrames() {
	sort.SliceStable(s.Frames, func(i, j int) bool {
		return s.Frames[i].FrameID < s.Frames[j].FrameID
	})
}
