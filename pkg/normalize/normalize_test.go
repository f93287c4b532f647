package normalize

import (
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// dialogue はテスト用のセリフを簡潔に組み立てるヘルパーなのだ。
func dialogue(role string, x, y float64) domain.DialogueItem {
	return domain.DialogueItem{
		Role:   role,
		Text:   role + "のセリフ",
		Anchor: domain.AnchorFor(x),
		XRatio: x,
		YRatio: y,
	}
}

func TestNormalize_Swap(t *testing.T) {
	// 勇者は普段左（中央値 0.25）、魔王は普段右（中央値 0.75）。
	// 3フレーム目だけ座標が逆に振られている、という典型的な事故のだ。
	sb := &domain.StoryboardData{
		Frames: []domain.StoryboardFrame{
			{FrameID: 1, ImagePrompt: "a", Dialogues: []domain.DialogueItem{
				dialogue("勇者", 0.25, 0.3), dialogue("魔王", 0.75, 0.3),
			}},
			{FrameID: 2, ImagePrompt: "b", Dialogues: []domain.DialogueItem{
				dialogue("勇者", 0.25, 0.3), dialogue("魔王", 0.75, 0.3),
			}},
			{FrameID: 3, ImagePrompt: "c", Dialogues: []domain.DialogueItem{
				dialogue("勇者", 0.78, 0.3), dialogue("魔王", 0.22, 0.5),
			}},
		},
	}

	out := Normalize(sb, DefaultParams())

	frame := out.Frames[2]
	if frame.Dialogues[0].Role != "勇者" || frame.Dialogues[1].Role != "魔王" {
		t.Fatal("role が並べ替えられています。座標だけを入れ替えるべきです")
	}
	if frame.Dialogues[0].XRatio != 0.22 {
		t.Errorf("勇者の xRatio: 期待値 0.22, 実際の値 %v", frame.Dialogues[0].XRatio)
	}
	if frame.Dialogues[1].XRatio != 0.78 {
		t.Errorf("魔王の xRatio: 期待値 0.78, 実際の値 %v", frame.Dialogues[1].XRatio)
	}
	// yRatio も組で入れ替わること
	if frame.Dialogues[0].YRatio != 0.5 || frame.Dialogues[1].YRatio != 0.3 {
		t.Errorf("yRatio が組で入れ替わっていません: %v / %v", frame.Dialogues[0].YRatio, frame.Dialogues[1].YRatio)
	}
	// アンカーは入れ替え後の座標から再計算されること
	if frame.Dialogues[0].Anchor != domain.AnchorLeft || frame.Dialogues[1].Anchor != domain.AnchorRight {
		t.Errorf("アンカーが再計算されていません: %s / %s", frame.Dialogues[0].Anchor, frame.Dialogues[1].Anchor)
	}
	// テキストは不変であること
	if frame.Dialogues[0].Text != "勇者のセリフ" {
		t.Errorf("text が変更されています: %s", frame.Dialogues[0].Text)
	}
}

func TestNormalize_SwapMarginGuard(t *testing.T) {
	// 僅差の改善しか得られない場合は入れ替えないこと（フリップフロップ防止）
	sb := &domain.StoryboardData{
		Frames: []domain.StoryboardFrame{
			{FrameID: 1, ImagePrompt: "a", Dialogues: []domain.DialogueItem{
				dialogue("A", 0.48, 0.3), dialogue("B", 0.52, 0.3),
			}},
			{FrameID: 2, ImagePrompt: "b", Dialogues: []domain.DialogueItem{
				dialogue("A", 0.50, 0.3), dialogue("B", 0.50, 0.3),
			}},
			{FrameID: 3, ImagePrompt: "c", Dialogues: []domain.DialogueItem{
				dialogue("A", 0.51, 0.3), dialogue("B", 0.49, 0.3),
			}},
		},
	}

	out := Normalize(sb, DefaultParams())

	frame := out.Frames[2]
	if frame.Dialogues[0].XRatio != 0.51 || frame.Dialogues[1].XRatio != 0.49 {
		t.Errorf("僅差なのに入れ替えられました: %v / %v", frame.Dialogues[0].XRatio, frame.Dialogues[1].XRatio)
	}
}

func TestNormalize_OutlierPullback(t *testing.T) {
	// 聖女は普段 x=0.3 付近にいるが、1フレームだけ 0.9 に飛んでいる
	sb := &domain.StoryboardData{
		Frames: []domain.StoryboardFrame{
			{FrameID: 1, ImagePrompt: "a", Dialogues: []domain.DialogueItem{dialogue("聖女", 0.3, 0.4)}},
			{FrameID: 2, ImagePrompt: "b", Dialogues: []domain.DialogueItem{dialogue("聖女", 0.3, 0.4)}},
			{FrameID: 3, ImagePrompt: "c", Dialogues: []domain.DialogueItem{dialogue("聖女", 0.3, 0.4)}},
			{FrameID: 4, ImagePrompt: "d", Dialogues: []domain.DialogueItem{dialogue("聖女", 0.9, 0.4)}},
		},
	}

	out := Normalize(sb, DefaultParams())

	d := out.Frames[3].Dialogues[0]
	if d.XRatio != 0.3 {
		t.Errorf("外れ座標が中央値へ引き戻されていません: 期待値 0.3, 実際の値 %v", d.XRatio)
	}
	if d.Anchor != domain.AnchorLeft {
		t.Errorf("引き戻し後のアンカー: 期待値 left, 実際の値 %s", d.Anchor)
	}
}

func TestNormalize_SingleObservation(t *testing.T) {
	// 観測1回だけの役柄には中央値を作らず、座標をそのまま残すこと
	sb := &domain.StoryboardData{
		Frames: []domain.StoryboardFrame{
			{FrameID: 1, ImagePrompt: "a", Dialogues: []domain.DialogueItem{dialogue("通行人", 0.85, 0.2)}},
		},
	}

	out := Normalize(sb, DefaultParams())

	if out.Frames[0].Dialogues[0].XRatio != 0.85 {
		t.Errorf("観測1回の役柄が動かされました: %v", out.Frames[0].Dialogues[0].XRatio)
	}
}

func TestNormalize_PureFunction(t *testing.T) {
	sb := &domain.StoryboardData{
		Frames: []domain.StoryboardFrame{
			{FrameID: 1, ImagePrompt: "a", Dialogues: []domain.DialogueItem{dialogue("聖女", 0.3, 0.4)}},
			{FrameID: 2, ImagePrompt: "b", Dialogues: []domain.DialogueItem{dialogue("聖女", 0.3, 0.4)}},
			{FrameID: 3, ImagePrompt: "c", Dialogues: []domain.DialogueItem{dialogue("聖女", 0.9, 0.4)}},
		},
	}

	_ = Normalize(sb, DefaultParams())

	// 入力側は無傷であること
	if sb.Frames[2].Dialogues[0].XRatio != 0.9 {
		t.Errorf("入力が破壊されています: %v", sb.Frames[2].Dialogues[0].XRatio)
	}
}

func TestNormalize_AnchorInvariant(t *testing.T) {
	// 補正後は全セリフでアンカーと座標帯域が一致していること
	sb := &domain.StoryboardData{
		Frames: []domain.StoryboardFrame{
			{FrameID: 1, ImagePrompt: "a", Dialogues: []domain.DialogueItem{
				dialogue("A", 0.2, 0.3), dialogue("B", 0.8, 0.3),
			}},
			{FrameID: 2, ImagePrompt: "b", Dialogues: []domain.DialogueItem{
				dialogue("A", 0.82, 0.3), dialogue("B", 0.18, 0.3),
			}},
			{FrameID: 3, ImagePrompt: "c", Dialogues: []domain.DialogueItem{
				dialogue("A", 0.25, 0.3), dialogue("B", 0.75, 0.3),
			}},
		},
	}

	out := Normalize(sb, DefaultParams())

	for _, frame := range out.Frames {
		for _, d := range frame.Dialogues {
			if d.Anchor != domain.AnchorFor(d.XRatio) {
				t.Errorf("frame %d role %s: アンカー %s と xRatio %v の帯域が一致しません",
					frame.FrameID, d.Role, d.Anchor, d.XRatio)
			}
		}
	}
}
