package parser

import (
	"errors"
	"math"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

func TestParseStoryboard(t *testing.T) {
	t.Run("正常な絵コンテJSONがパースされること", func(t *testing.T) {
		input := `{
			"frames": [
				{
					"frameId": 2,
					"imagePrompt": "夕暮れの教室",
					"dialogues": [
						{"role": "勇者", "text": "行くぞ", "xRatio": 0.2, "yRatio": 0.3}
					]
				},
				{
					"frameId": 1,
					"imagePrompt": "朝の校門",
					"dialogues": []
				}
			]
		}`

		sb, err := ParseStoryboard(input)
		if err != nil {
			t.Fatalf("正常なJSONでエラーが発生しました: %v", err)
		}
		if len(sb.Frames) != 2 {
			t.Fatalf("期待値 2 フレーム, 実際の値 %d", len(sb.Frames))
		}
		// frameId 順に並べ直されること
		if sb.Frames[0].FrameID != 1 || sb.Frames[1].FrameID != 2 {
			t.Errorf("frameId 順に並んでいません: %d, %d", sb.Frames[0].FrameID, sb.Frames[1].FrameID)
		}
		if sb.Frames[1].Dialogues[0].Anchor != domain.AnchorLeft {
			t.Errorf("xRatio 0.2 のアンカーは left のはずです: %s", sb.Frames[1].Dialogues[0].Anchor)
		}
	})

	t.Run("framesが空なら構造違反になること", func(t *testing.T) {
		_, err := ParseStoryboard(`{"frames": []}`)
		if !errors.Is(err, ErrStructural) {
			t.Errorf("ErrStructural を期待しましたが: %v", err)
		}
	})

	t.Run("frameId欠落は構造違反になること", func(t *testing.T) {
		_, err := ParseStoryboard(`{"frames": [{"imagePrompt": "scene"}]}`)
		if !errors.Is(err, ErrStructural) {
			t.Errorf("ErrStructural を期待しましたが: %v", err)
		}
	})

	t.Run("frameIdが0以下なら構造違反になること", func(t *testing.T) {
		_, err := ParseStoryboard(`{"frames": [{"frameId": 0, "imagePrompt": "scene"}]}`)
		if !errors.Is(err, ErrStructural) {
			t.Errorf("ErrStructural を期待しましたが: %v", err)
		}
	})

	t.Run("imagePrompt欠落は構造違反になること", func(t *testing.T) {
		_, err := ParseStoryboard(`{"frames": [{"frameId": 1}]}`)
		if !errors.Is(err, ErrStructural) {
			t.Errorf("ErrStructural を期待しましたが: %v", err)
		}
	})

	t.Run("セリフのrole欠落は構造違反になること", func(t *testing.T) {
		input := `{"frames": [{"frameId": 1, "imagePrompt": "scene", "dialogues": [{"text": "..."}]}]}`
		_, err := ParseStoryboard(input)
		if !errors.Is(err, ErrStructural) {
			t.Errorf("ErrStructural を期待しましたが: %v", err)
		}
	})

	t.Run("JSONとして壊れた入力はエラーになること", func(t *testing.T) {
		_, err := ParseStoryboard(`{ broken`)
		if err == nil {
			t.Error("壊れたJSONでエラーが発生しませんでした")
		}
	})
}

func TestRepairDialogue(t *testing.T) {
	t.Run("座標欠落は既定値で補われること", func(t *testing.T) {
		d := RepairDialogue("勇者", "やあ", nil, nil)
		if d.XRatio != 0.5 || d.YRatio != 0.4 {
			t.Errorf("期待値 (0.5, 0.4), 実際の値 (%v, %v)", d.XRatio, d.YRatio)
		}
		if d.Anchor != domain.AnchorCenter {
			t.Errorf("期待値 center, 実際の値 %s", d.Anchor)
		}
	})

	t.Run("範囲外の座標はクランプされること", func(t *testing.T) {
		x := 1.7
		y := -0.2
		d := RepairDialogue("勇者", "やあ", &x, &y)
		if d.XRatio != 1.0 || d.YRatio != 0.0 {
			t.Errorf("期待値 (1.0, 0.0), 実際の値 (%v, %v)", d.XRatio, d.YRatio)
		}
		if d.Anchor != domain.AnchorRight {
			t.Errorf("クランプ後の xRatio 1.0 は right のはずです: %s", d.Anchor)
		}
	})

	t.Run("NaNは既定値に置き換えられること", func(t *testing.T) {
		x := math.NaN()
		d := RepairDialogue("勇者", "やあ", &x, nil)
		if d.XRatio != 0.5 {
			t.Errorf("期待値 0.5, 実際の値 %v", d.XRatio)
		}
	})

	t.Run("アンカーは常にxRatioの帯域と一致すること", func(t *testing.T) {
		cases := []struct {
			x      float64
			expect domain.Anchor
		}{
			{0.1, domain.AnchorLeft},
			{0.449, domain.AnchorLeft},
			{0.45, domain.AnchorCenter},
			{0.5, domain.AnchorCenter},
			{0.55, domain.AnchorCenter},
			{0.551, domain.AnchorRight},
			{0.9, domain.AnchorRight},
		}
		for _, c := range cases {
			x := c.x
			d := RepairDialogue("r", "t", &x, nil)
			if d.Anchor != c.expect {
				t.Errorf("xRatio %v: 期待値 %s, 実際の値 %s", c.x, c.expect, d.Anchor)
			}
		}
	})

	t.Run("roleとtextは変更されないこと", func(t *testing.T) {
		x := 2.0
		d := RepairDialogue("魔王", "我が名を呼んだか", &x, nil)
		if d.Role != "魔王" || d.Text != "我が名を呼んだか" {
			t.Errorf("role/text が変更されています: %s / %s", d.Role, d.Text)
		}
	})
}
