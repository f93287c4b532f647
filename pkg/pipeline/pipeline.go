// Package pipeline は物語プロンプトから絵コンテまでの3ステージ
// （構成案 → 脚本 → 絵コンテ）を逐次実行するオーケストレータです。
// 各ステージはフォールバックチェーン → サニタイズ → 検証・修復の順で
// 処理され、確定した絵コンテはクロスフレーム補正を経て描画へ渡ります。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-comic-kit/pkg/ai"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/normalize"
	"github.com/shouni/go-comic-kit/pkg/parser"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/shouni/go-comic-kit/pkg/ratelimit"
	"github.com/shouni/go-comic-kit/pkg/render"

	"github.com/google/uuid"
)

var (
	// ErrServiceBusy は構成案・脚本ステージで全モデル候補が失敗したことを表します。
	// 土台のない物語は先へ進められないため、利用者向けの失敗として浮上させます。
	ErrServiceBusy = errors.New("すべてのモデル候補が応答しませんでした")
	// ErrRateLimited はクライアント単位のリクエスト上限超過を表します。
	ErrRateLimited = errors.New("リクエスト数が上限に達しました")
	// ErrEmptyScript は脚本ステージが空のテキストを返したことを表します。
	ErrEmptyScript = errors.New("脚本が空です")
)

// ステージ名。ログとモデル来歴（provenance）のキーに使います。
const (
	StageOutline    = "outline"
	StageScript     = "script"
	StageStoryboard = "storyboard"
)

// StageTimeouts はステージごとの呼び出しタイムアウトです。
// 後段ほど出力が長くなるため、既定値も後段ほど長くしてあります。
type StageTimeouts struct {
	Outline    time.Duration
	Script     time.Duration
	Storyboard time.Duration
}

// DefaultStageTimeouts は推奨のタイムアウト既定値を返します。
func DefaultStageTimeouts() StageTimeouts {
	return StageTimeouts{
		Outline:    45 * time.Second,
		Script:     90 * time.Second,
		Storyboard: 120 * time.Second,
	}
}

// Chains はステージごとの順序付きモデル候補リストです。先頭が最優先になります。
type Chains struct {
	Outline    []domain.ModelCandidate
	Script     []domain.ModelCandidate
	Storyboard []domain.ModelCandidate
}

// RequestContext は1リクエスト分の識別情報です。
// ClientKey が空ならレート制限の対象外になります。
type RequestContext struct {
	RequestID string
	ClientKey string
}

// Result は3ステージの成果と、各ステージで実際に応答したモデルの来歴です。
// Fallback が true のとき Storyboard は固定文言の縮退絵コンテです。
type Result struct {
	Outline    *domain.StoryOutline
	Script     string
	Storyboard *domain.StoryboardData
	Provenance map[string]string
	Fallback   bool
}

// Pipeline は3ステージの逐次実行を担います。ステージ間に並列性はなく、
// 各ステージは前段の検証済み出力に依存します。
type Pipeline struct {
	executor   *ai.FallbackExecutor
	builder    *prompts.StageBuilder
	limiter    *ratelimit.Limiter
	chains     Chains
	timeouts   StageTimeouts
	normParams normalize.Params
	maxFrames  int
	options    ai.Options
}

// Config は Pipeline の構築パラメータです。
type Config struct {
	Chains      Chains
	Timeouts    StageTimeouts
	NormParams  normalize.Params
	MaxFrames   int
	StyleSuffix string
	// Limiter はクライアント単位のレート制限です。nil なら無効。
	Limiter *ratelimit.Limiter
	// Options は全ステージ共通の生成パラメータです（候補側で上書き可）。
	Options ai.Options
}

// New は FallbackExecutor と設定から Pipeline を初期化します。
func New(executor *ai.FallbackExecutor, cfg Config) (*Pipeline, error) {
	if executor == nil {
		return nil, fmt.Errorf("FallbackExecutor は必須です")
	}
	if len(cfg.Chains.Outline) == 0 || len(cfg.Chains.Script) == 0 || len(cfg.Chains.Storyboard) == 0 {
		return nil, fmt.Errorf("全ステージのモデル候補リストが必要です")
	}

	timeouts := cfg.Timeouts
	defaults := DefaultStageTimeouts()
	if timeouts.Outline <= 0 {
		timeouts.Outline = defaults.Outline
	}
	if timeouts.Script <= 0 {
		timeouts.Script = defaults.Script
	}
	if timeouts.Storyboard <= 0 {
		timeouts.Storyboard = defaults.Storyboard
	}

	// 片方だけの指定で他方がゼロに潰れると、補正が暴走してしまう
	// （閾値0の逸脱引き戻しは全セリフを中央値へ吸着させる）ため個別に補う。
	normParams := cfg.NormParams
	normDefaults := normalize.DefaultParams()
	if normParams.SwapMargin == 0 {
		normParams.SwapMargin = normDefaults.SwapMargin
	}
	if normParams.OutlierThreshold == 0 {
		normParams.OutlierThreshold = normDefaults.OutlierThreshold
	}

	return &Pipeline{
		executor:   executor,
		builder:    prompts.NewStageBuilder(cfg.StyleSuffix),
		limiter:    cfg.Limiter,
		chains:     cfg.Chains,
		timeouts:   timeouts,
		normParams: normParams,
		maxFrames:  cfg.MaxFrames,
		options:    cfg.Options,
	}, nil
}

// Run は物語プロンプトから補正済み絵コンテまでを一気通貫で生成します。
// 構造違反（ErrStructural）はステージごと失敗させ、リクエスト全体を中断します。
func (p *Pipeline) Run(ctx context.Context, storyPrompt string, reqCtx RequestContext) (*Result, error) {
	if p.limiter != nil && !p.limiter.Allow(reqCtx.ClientKey) {
		return nil, fmt.Errorf("%w (client: %s)", ErrRateLimited, reqCtx.ClientKey)
	}

	requestID := reqCtx.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := slog.With("request_id", requestID)

	result := &Result{Provenance: make(map[string]string)}
	var history []ai.Message

	// --- Stage 1: 構成案 ---
	logger.Info("構成案ステージを開始します")
	history = append(history, ai.Message{Role: ai.RoleUser, Content: p.builder.BuildOutlinePrompt(storyPrompt)})

	outlineRes := p.executeStage(ctx, StageOutline, prompts.OutlineSystemInstruction, p.chains.Outline, history, p.timeouts.Outline)
	result.Provenance[StageOutline] = outlineRes.Model
	if outlineRes.Fallback {
		return nil, fmt.Errorf("%w (stage: %s)", ErrServiceBusy, StageOutline)
	}

	outline, err := parser.ParseOutline(outlineRes.Content)
	if err != nil {
		return nil, fmt.Errorf("構成案ステージの検証に失敗しました: %w", err)
	}
	result.Outline = outline
	logger.Info("構成案が確定しました",
		"title", outline.Overview.Title, "chapters", len(outline.Chapters),
		"characters", outline.CharacterNames())

	// --- Stage 2: 脚本 ---
	logger.Info("脚本ステージを開始します")
	history = append(history,
		ai.Message{Role: ai.RoleAssistant, Content: outlineRes.Content},
		ai.Message{Role: ai.RoleUser, Content: p.builder.BuildScriptPrompt(outline)},
	)

	scriptRes := p.executeStage(ctx, StageScript, prompts.ScriptSystemInstruction, p.chains.Script, history, p.timeouts.Script)
	result.Provenance[StageScript] = scriptRes.Model
	if scriptRes.Fallback {
		return nil, fmt.Errorf("%w (stage: %s)", ErrServiceBusy, StageScript)
	}

	script := parser.StripFences(scriptRes.Content)
	if script == "" {
		return nil, ErrEmptyScript
	}
	result.Script = script

	// --- Stage 3: 絵コンテ ---
	logger.Info("絵コンテステージを開始します")
	history = append(history,
		ai.Message{Role: ai.RoleAssistant, Content: scriptRes.Content},
		ai.Message{Role: ai.RoleUser, Content: p.builder.BuildStoryboardPrompt(outline, script, p.maxFrames)},
	)

	sbRes := p.executeStage(ctx, StageStoryboard, prompts.StoryboardSystemInstruction, p.chains.Storyboard, history, p.timeouts.Storyboard)
	result.Provenance[StageStoryboard] = sbRes.Model
	if sbRes.Fallback {
		// ここまでの成果（構成案・脚本）は有効なので、縮退絵コンテで完結させる。
		// これを利用者向けの失敗にするかはさらに上の層の判断に委ねるのだ。
		logger.Warn("絵コンテステージが全候補失敗したため、縮退絵コンテで継続します")
		result.Storyboard = fallbackStoryboard()
		result.Fallback = true
		return result, nil
	}

	storyboard, err := parser.ParseStoryboard(sbRes.Content)
	if err != nil {
		return nil, fmt.Errorf("絵コンテステージの検証に失敗しました: %w", err)
	}

	result.Storyboard = normalize.Normalize(storyboard, p.normParams)
	logger.Info("絵コンテが確定しました", "frames", len(result.Storyboard.Frames))

	return result, nil
}

// GeneratePages は Run の結果をそのまま描画オーケストレータへ渡す補助です。
func (p *Pipeline) GeneratePages(ctx context.Context, storyPrompt string, reqCtx RequestContext, refs domain.CharacterRefs, renderer *render.Orchestrator) (*Result, []domain.ComicPage, error) {
	result, err := p.Run(ctx, storyPrompt, reqCtx)
	if err != nil {
		return nil, nil, err
	}

	pages, err := renderer.Render(ctx, result.Storyboard, refs)
	if err != nil {
		return result, nil, err
	}

	return result, pages, nil
}

// executeStage はステージのタイムアウトを重ねてフォールバック実行します。
func (p *Pipeline) executeStage(ctx context.Context, stage, systemInstruction string, candidates []domain.ModelCandidate, history []ai.Message, timeout time.Duration) ai.StageResult {
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages := make([]ai.Message, 0, len(history)+1)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: systemInstruction})
	messages = append(messages, history...)

	return p.executor.Execute(stageCtx, stage, candidates, messages, p.options)
}

// fallbackStoryboard は全候補失敗時の縮退絵コンテ（固定文言の1フレーム）です。
func fallbackStoryboard() *domain.StoryboardData {
	return &domain.StoryboardData{
		Frames: []domain.StoryboardFrame{
			{
				FrameID:     1,
				ImagePrompt: "A simple apologetic placeholder scene, soft neutral background",
				Dialogues:   []domain.DialogueItem{},
				Narration:   ai.FallbackMessage,
			},
		},
	}
}
