// Package render は検証・補正済みの絵コンテをフレーム順に画像化する
// オーケストレータです。参照画像の選定、構図ヒントの合成、プロバイダへの
// 委譲、ページ単位のリトライ方針までをここで束ねます。
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/shouni/go-comic-kit/pkg/provider"
	"github.com/shouni/go-comic-kit/pkg/storage"

	"golang.org/x/time/rate"
)

var (
	// ErrFirstPageFatal は1ページ目の生成がリトライを使い切ったことを表します。
	// 下流は1ページ目の存在を前提にするため、このエラーだけは絶対に握り潰しません。
	ErrFirstPageFatal = errors.New("1ページ目の画像生成に失敗しました")
	// ErrNoPages は1ページも生成できなかったことを表します。
	ErrNoPages = errors.New("生成に成功したページがありません")
)

// 1フレームあたりの参照画像の上限。プロバイダ側の上限とは別にここでも絞ります。
const maxFrameRefs = 5

// Options は描画実行時の調整項目です。ゼロ値は Default で補われます。
type Options struct {
	// MaxRetries は初回失敗後の追加試行回数です（既定 2）。
	MaxRetries int
	// Backoff は追加試行前の待機時間の表です（既定 2s, 4s）。
	// 再帰ではなく明示的なループで回すため、スタック深さは常に一定なのだ。
	Backoff []time.Duration
	// FrameInterval はフレーム間の固定ディレイです（既定 1.2s）。
	// 並列化すればレイテンシは下がりますが、上流のレート制限へ突っ込んで
	// 失敗率が跳ね上がるため、逐次 + ペーシングを意図的に選んでいます。
	FrameInterval time.Duration
	// FrameLimit が正ならば先頭からその枚数だけ描画します（テスト用途）。
	FrameLimit int
	// Size / Model はプロバイダへそのまま渡す生成パラメータです。
	Size  string
	Model string
	// StyleSuffix は全フレーム共通で imagePrompt に連結する画風指示です。
	StyleSuffix string
	// GlobalRefs はフレーム内で役柄が引き当たらなかったときの大域参照リストです。
	// 空なら Render 呼び出し時の参照マップの全URLから導出します。
	GlobalRefs []string
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 2
	}
	if len(o.Backoff) == 0 {
		o.Backoff = []time.Duration{2 * time.Second, 4 * time.Second}
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = 1200 * time.Millisecond
	}
	return o
}

// Orchestrator はプロバイダ1つと成果物ストアを束ねてフレーム列を描画します。
type Orchestrator struct {
	adapter  provider.Adapter
	poller   *provider.Poller
	store    storage.PageStore
	uploader AssetUploader // nil 可。非 nil なら描画前に参照画像を事前転送する
	opts     Options
}

// NewOrchestrator は依存関係を注入して Orchestrator を初期化します。
func NewOrchestrator(adapter provider.Adapter, poller *provider.Poller, store storage.PageStore, uploader AssetUploader, opts Options) (*Orchestrator, error) {
	if adapter == nil {
		return nil, fmt.Errorf("provider.Adapter は必須です")
	}
	if store == nil {
		return nil, fmt.Errorf("storage.PageStore は必須です")
	}
	if poller == nil {
		poller = provider.NewPoller()
	}

	return &Orchestrator{
		adapter:  adapter,
		poller:   poller,
		store:    store,
		uploader: uploader,
		opts:     opts.withDefaults(),
	}, nil
}

// Render は絵コンテをフレーム順に描画し、完成したページ列を返します。
//   - 1フレーム目がリトライを使い切った場合は ErrFirstPageFatal で全体を中断
//   - 2フレーム目以降の失敗はログを残してスキップし、残りを続行
//   - 最終的に1枚も成功しなければ ErrNoPages
func (o *Orchestrator) Render(ctx context.Context, sb *domain.StoryboardData, refs domain.CharacterRefs) ([]domain.ComicPage, error) {
	if sb == nil || len(sb.Frames) == 0 {
		return nil, fmt.Errorf("絵コンテが空です")
	}

	frames := sb.Frames
	if o.opts.FrameLimit > 0 && len(frames) > o.opts.FrameLimit {
		slog.Info("フレーム数に制限を適用したのだ", "limit", o.opts.FrameLimit, "total", len(frames))
		frames = frames[:o.opts.FrameLimit]
	}

	resourceMap, err := o.prepareReferences(ctx, frames, refs)
	if err != nil {
		return nil, err
	}

	// 大域参照が未指定なら登録済み参照の全URLで代用する。単一参照プロバイダは
	// この先頭を使うため、ここが空だと参照画像なしで描画してしまうのだ。
	globalRefs := o.opts.GlobalRefs
	if len(globalRefs) == 0 {
		globalRefs = refs.URLs()
	}

	// フレーム間のペーシング。Burst 1 なので必ず FrameInterval が空く。
	limiter := rate.NewLimiter(rate.Every(o.opts.FrameInterval), 1)
	slog.Info("逐次画像生成を開始します",
		"provider", o.adapter.Name(), "frames", len(frames), "interval", o.opts.FrameInterval)

	pages := make([]domain.ComicPage, 0, len(frames))

	for i, frame := range frames {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		pageNumber := i + 1
		imageURL, err := o.renderFrame(ctx, frame, refs, resourceMap, globalRefs, pageNumber)
		if err != nil {
			if i == 0 {
				// 表紙・1ページ目の失敗は致命傷。部分成果は返さない。
				return nil, fmt.Errorf("%w: %v", ErrFirstPageFatal, err)
			}
			slog.Error("フレームの生成に失敗したためスキップします",
				"frame", frame.FrameID, "page", pageNumber, "error", err)
			continue
		}

		pages = append(pages, domain.ComicPage{
			PageNumber: pageNumber,
			ImageURL:   imageURL,
			Text:       domain.PageTextOf(frame),
			Dialogue:   frame.Dialogues,
			Narration:  frame.Narration,
		})
	}

	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	slog.Info("描画が完了しました", "pages", len(pages), "frames", len(frames))
	return pages, nil
}

// renderFrame は1フレームをリトライ込みで描画し、成果物URLを返します。
// 参照画像の引数はリトライをまたいで維持します。
func (o *Orchestrator) renderFrame(ctx context.Context, frame domain.StoryboardFrame, refs domain.CharacterRefs, resourceMap map[string]string, globalRefs []string, pageNumber int) (string, error) {
	req := provider.Request{
		Prompt:          o.buildPrompt(frame, refs),
		NegativePrompt:  prompts.NegativeImagePrompt,
		ReferenceImages: o.selectReferences(frame, refs, resourceMap, globalRefs),
		Size:            o.opts.Size,
		Model:           o.opts.Model,
	}

	var lastErr error
	for attempt := 0; attempt <= o.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := o.opts.Backoff[min(attempt-1, len(o.opts.Backoff)-1)]
			slog.Warn("フレーム生成をリトライします",
				"frame", frame.FrameID, "attempt", attempt, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		url, err := o.generateOnce(ctx, req, pageNumber)
		if err == nil {
			return url, nil
		}
		lastErr = err
	}

	return "", fmt.Errorf("リトライ上限に達しました (frame: %d): %w", frame.FrameID, lastErr)
}

// generateOnce は submit（必要ならポーリング）と保存までを1回だけ実行します。
func (o *Orchestrator) generateOnce(ctx context.Context, req provider.Request, pageNumber int) (string, error) {
	submission, err := o.adapter.Submit(ctx, req)
	if err != nil {
		return "", err
	}

	art := storage.Artifact{
		URL:      submission.ImageURL,
		Data:     submission.Data,
		MimeType: submission.MimeType,
	}

	if !submission.Resolved() {
		if submission.TaskID == "" {
			return "", fmt.Errorf("%w (provider: %s)", provider.ErrCompletedWithoutResult, o.adapter.Name())
		}
		url, err := o.poller.Await(ctx, o.adapter, submission.TaskID)
		if err != nil {
			return "", err
		}
		art = storage.Artifact{URL: url}
	}

	return o.store.Save(ctx, art, pageNumber)
}

// buildPrompt はシーン描写・画風サフィックス・登場役柄の外見特徴・構図ヒントを連結します。
func (o *Orchestrator) buildPrompt(frame domain.StoryboardFrame, refs domain.CharacterRefs) string {
	var b strings.Builder
	b.WriteString(frame.ImagePrompt)

	if o.opts.StyleSuffix != "" {
		b.WriteString(", ")
		b.WriteString(o.opts.StyleSuffix)
	}

	if cues := prompts.BuildCharacterCues(frame, refs); cues != "" {
		b.WriteString("\n\n")
		b.WriteString(cues)
	}

	if hint := prompts.BuildLayoutHint(frame); hint != "" {
		b.WriteString("\n\n")
		b.WriteString(hint)
	}

	return b.String()
}

// selectReferences はフレームに登場する役柄の参照画像を選定します。
// 複数参照を受けるプロバイダでは役柄ごとの参照を集め、引き当てゼロなら
// 大域参照リストへ、単一参照プロバイダでは呼び出し元の先頭参照へ倒します。
func (o *Orchestrator) selectReferences(frame domain.StoryboardFrame, refs domain.CharacterRefs, resourceMap map[string]string, globalRefs []string) []string {
	maxRefs := o.adapter.MaxReferenceImages()
	if maxRefs <= 1 {
		if len(globalRefs) > 0 {
			return globalRefs[:1]
		}
		return nil
	}

	limit := min(maxRefs, maxFrameRefs)

	selected := make([]string, 0, limit)
	for _, role := range frame.UniqueRoles() {
		if len(selected) >= limit {
			break
		}
		ref := refs.Find(role)
		if ref == nil || ref.ReferenceURL == "" {
			continue
		}
		if uri, ok := resourceMap[ref.Role]; ok && uri != "" {
			selected = append(selected, uri)
		} else {
			selected = append(selected, ref.ReferenceURL)
		}
	}

	if len(selected) == 0 {
		if len(globalRefs) > limit {
			globalRefs = globalRefs[:limit]
		}
		return globalRefs
	}

	return selected
}
