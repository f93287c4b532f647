package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// maxHintRoles は構図ヒントに含める役柄数の上限です。
// これを超える群衆シーンでは主要話者だけを指示します。
const maxHintRoles = 4

// 構図ヒント末尾の固定制約。生成モデルはキャラクターを左右反転・再配置
// しがちで、そうなると後段の吹き出し合成が指す位置とズレてしまうため、
// 絵コンテの座標系を守らせる指示を必ず添えるのだ。
const (
	hintKeepSides = "Preserve the specified character side-positions exactly; no mirroring or swapping."
	hintNoText    = "Do not bake any text, speech bubbles, or borders into the image; text is composited afterward."
)

// BuildLayoutHint はフレームのセリフ座標から構図ヒント文を合成します。
// 役柄ごとに座標を平均し、3×3グリッド（left/center/right × top/middle/bottom）
// へ写像して1役柄1文で記述します。セリフのないフレームは空文字を返します。
func BuildLayoutHint(frame domain.StoryboardFrame) string {
	if len(frame.Dialogues) == 0 {
		return ""
	}

	type accum struct {
		sumX, sumY float64
		count      int
	}
	byRole := make(map[string]*accum)
	order := make([]string, 0, len(frame.Dialogues))

	for _, d := range frame.Dialogues {
		if d.Role == "" {
			continue
		}
		a, ok := byRole[d.Role]
		if !ok {
			a = &accum{}
			byRole[d.Role] = a
			order = append(order, d.Role)
		}
		a.sumX += d.XRatio
		a.sumY += d.YRatio
		a.count++
	}

	if len(order) == 0 {
		return ""
	}
	// 出現順を基本にしつつ、同数なら名前順で決定的にする
	sort.SliceStable(order, func(i, j int) bool {
		return byRole[order[i]].count > byRole[order[j]].count
	})
	if len(order) > maxHintRoles {
		order = order[:maxHintRoles]
	}

	var b strings.Builder
	b.WriteString("### COMPOSITION ###\n")
	for _, role := range order {
		a := byRole[role]
		x := a.sumX / float64(a.count)
		y := a.sumY / float64(a.count)
		b.WriteString(fmt.Sprintf("%s is positioned at the %s %s of the frame.\n",
			role, gridRow(y), gridColumn(x)))
	}
	b.WriteString(hintKeepSides)
	b.WriteString("\n")
	b.WriteString(hintNoText)

	return b.String()
}

// gridColumn は xRatio を3分割の水平グリッドへ写像します。
func gridColumn(x float64) string {
	switch {
	case x < 1.0/3:
		return "left"
	case x > 2.0/3:
		return "right"
	default:
		return "center"
	}
}

// gridRow は yRatio を3分割の垂直グリッドへ写像します。
func gridRow(y float64) string {
	switch {
	case y < 1.0/3:
		return "top"
	case y > 2.0/3:
		return "bottom"
	default:
		return "middle"
	}
}
