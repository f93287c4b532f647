package ai

import (
	"context"
	"log/slog"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// FallbackModel はチェーン内の全候補が失敗したときに Result.Model に入る目印です。
const FallbackModel = "fallback"

// FallbackMessage は全候補失敗時の固定の利用者向けメッセージです。
const FallbackMessage = "ただいまサービスが混み合っています。しばらくしてからもう一度お試しください。"

// StageResult はフォールバック実行の結果です。Fallback が true のとき
// Content は固定メッセージで、どの候補も応答しなかったことを意味します。
type StageResult struct {
	Content  string
	Model    string
	Fallback bool
}

// FallbackExecutor は順序付きのモデル候補リストを先頭から試し、
// 最初に成功した応答を返す実行器です。候補ごとの試行は1回きりで、
// ステージ単位の再試行は呼び出し側のループに委ねます。
type FallbackExecutor struct {
	invoker Invoker
}

// NewFallbackExecutor は Invoker を注入して FallbackExecutor を初期化します。
func NewFallbackExecutor(invoker Invoker) *FallbackExecutor {
	return &FallbackExecutor{invoker: invoker}
}

// Execute は候補を順に1回ずつ試し、最初の成功を返します。
// 候補の失敗はログに残して次へ進み、全滅した場合でもエラーは返さず、
// fallback 印付きの番兵結果を返すのだ。継続するかどうかの判断は
// ページレベルの方針を知っている呼び出し側が行います。
func (fe *FallbackExecutor) Execute(ctx context.Context, stage string, candidates []domain.ModelCandidate, messages []Message, opts Options) StageResult {
	for _, candidate := range candidates {
		result, err := fe.invoker.Invoke(ctx, candidate.Model, messages, overlayOptions(opts, candidate.Options))
		if err != nil {
			slog.Error("モデル候補が失敗しました。次の候補を試すのだ",
				"stage", stage, "model", candidate.Model, "error", err)
			continue
		}

		slog.Info("ステージの生成に成功しました", "stage", stage, "model", result.Model)
		return StageResult{
			Content: result.Content,
			Model:   result.Model,
		}
	}

	slog.Error("全モデル候補が失敗しました", "stage", stage, "candidates", len(candidates))
	return StageResult{
		Content:  FallbackMessage,
		Model:    FallbackModel,
		Fallback: true,
	}
}

// overlayOptions は候補ごとの Options マップを共有オプションへ重ねます。
// 候補側のキーが存在する場合のみ上書きします。
func overlayOptions(base Options, overrides map[string]any) Options {
	if len(overrides) == 0 {
		return base
	}

	opts := base
	if v, ok := asFloat(overrides["temperature"]); ok {
		opts.Temperature = &v
	}
	if v, ok := asFloat(overrides["topP"]); ok {
		opts.TopP = &v
	}
	if v, ok := asFloat(overrides["maxTokens"]); ok {
		n := int(v)
		opts.MaxTokens = &n
	}
	return opts
}

// asFloat は JSON 由来の数値（float64 / int）を許容的に取り出します。
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
