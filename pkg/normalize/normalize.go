// Package normalize は絵コンテ全体を走査して、セリフ座標のフレーム間一貫性を
// 回復するクロスフレーム補正を提供します。モデルが生成する座標はノイズが多く、
// 同じ役柄が左右に漂ったり、同時発話の2人の座標が入れ替わったりするため、
// ここで役柄ごとの中央値を基準に安定化させるのだ。
package normalize

import (
	"log/slog"
	"math"
	"sort"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/parser"
)

// Params は補正の感度を決めるヒューリスティック定数です。
// 経験的に調整された値であり、固定の法則ではないため設定可能にしてあります。
type Params struct {
	// SwapMargin は座標入れ替えを採用するために必要な改善幅です。
	// 僅差での反転の往復（フリップフロップ）を避けるための余裕なのだ。
	SwapMargin float64
	// OutlierThreshold は役柄の中央値からこの距離を超えた座標を
	// 一回限りの逸脱とみなして中央値へ引き戻す閾値です。
	OutlierThreshold float64
}

// DefaultParams は推奨されるデフォルトの補正パラメータを返します。
func DefaultParams() Params {
	return Params{
		SwapMargin:       0.08,
		OutlierThreshold: 0.35,
	}
}

// Normalize は検証済みの絵コンテ全体に対して一度だけ実行する純粋関数です。
// 入力を変更せず、補正済みのコピーを返します。処理は決定的で I/O を持ちません。
//  1. 全フレームから役柄ごとの xRatio 中央値を収集する（観測2回以上の役柄のみ）
//  2. 座標の再クランプとアンカーの再計算（検証層の規則の防御的な再適用）
//  3. ちょうど2人が発話するフレームでの座標入れ替え検出
//  4. 中央値から大きく外れた座標の引き戻し
func Normalize(sb *domain.StoryboardData, params Params) *domain.StoryboardData {
	if sb == nil {
		return nil
	}

	out := cloneStoryboard(sb)
	medians := roleMedians(out)

	for fi := range out.Frames {
		frame := &out.Frames[fi]

		// 2. 防御的な再クランプと再アンカー
		for di := range frame.Dialogues {
			d := &frame.Dialogues[di]
			d.XRatio = parser.Clamp01(d.XRatio)
			d.YRatio = parser.Clamp01(d.YRatio)
			d.Anchor = domain.AnchorFor(d.XRatio)
		}

		// 3. 入れ替え検出
		correctSwap(frame, medians, params.SwapMargin)

		// 4. 外れ値の引き戻し
		for di := range frame.Dialogues {
			d := &frame.Dialogues[di]
			median, ok := medians[d.Role]
			if !ok {
				continue
			}
			if math.Abs(d.XRatio-median) > params.OutlierThreshold {
				slog.Warn("外れ座標を中央値へ引き戻しました",
					"frame", frame.FrameID, "role", d.Role, "x", d.XRatio, "median", median)
				d.XRatio = median
				d.Anchor = domain.AnchorFor(d.XRatio)
			}
		}
	}

	return out
}

// correctSwap は2人が同時発話するフレームで、双方の座標が互いの定位置に
// 近い場合に (xRatio, yRatio) の組を入れ替えます。role と text は決して
// 動かしません。吹き出しが逆のキャラクターを指す事故の修復なのだ。
func correctSwap(frame *domain.StoryboardFrame, medians map[string]float64, margin float64) {
	if len(frame.Dialogues) != 2 {
		return
	}

	a := &frame.Dialogues[0]
	b := &frame.Dialogues[1]
	if a.Role == b.Role {
		return
	}

	medianA, okA := medians[a.Role]
	medianB, okB := medians[b.Role]
	if !okA || !okB {
		return
	}

	distDirect := math.Abs(a.XRatio-medianA) + math.Abs(b.XRatio-medianB)
	distSwapped := math.Abs(a.XRatio-medianB) + math.Abs(b.XRatio-medianA)

	if distSwapped+margin < distDirect {
		slog.Info("セリフ座標の入れ替えを検出・修復しました",
			"frame", frame.FrameID, "role_a", a.Role, "role_b", b.Role)
		a.XRatio, b.XRatio = b.XRatio, a.XRatio
		a.YRatio, b.YRatio = b.YRatio, a.YRatio
		a.Anchor = domain.AnchorFor(a.XRatio)
		b.Anchor = domain.AnchorFor(b.XRatio)
	}
}

// roleMedians は全フレームを横断して役柄ごとの xRatio 中央値を計算します。
// 観測が1回しかない役柄は統計として弱すぎるため対象外にするのだ。
func roleMedians(sb *domain.StoryboardData) map[string]float64 {
	samples := make(map[string][]float64)
	for _, frame := range sb.Frames {
		for _, d := range frame.Dialogues {
			if d.Role == "" {
				continue
			}
			samples[d.Role] = append(samples[d.Role], parser.Clamp01(d.XRatio))
		}
	}

	medians := make(map[string]float64, len(samples))
	for role, xs := range samples {
		if len(xs) < 2 {
			continue
		}
		medians[role] = median(xs)
	}
	return medians
}

func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func cloneStoryboard(sb *domain.StoryboardData) *domain.StoryboardData {
	out := &domain.StoryboardData{
		Frames: make([]domain.StoryboardFrame, len(sb.Frames)),
	}
	for i, frame := range sb.Frames {
		cloned := frame
		cloned.Dialogues = make([]domain.DialogueItem, len(frame.Dialogues))
		copy(cloned.Dialogues, frame.Dialogues)
		out.Frames[i] = cloned
	}
	return out
}
