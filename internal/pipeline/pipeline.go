// Package pipeline は CLI から呼ばれる実行フローの束ね役なのだ。
// 物語生成パイプラインと描画オーケストレータを組み立てて、
// フェーズごとの実行（全工程 / 絵コンテのみ / 描画のみ）を提供するのだ。
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shouni/go-comic-kit/internal/builder"
	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/domain"
	mkpipe "github.com/shouni/go-comic-kit/pkg/pipeline"
)

// Execute は、物語原案から絵コンテを生成し、続けてページ画像まで描画する全工程なのだ。
func Execute(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := runStoryPhase(ctx, appCtx, cfg)
	if err != nil {
		return err
	}

	if err := saveStoryboard(ctx, appCtx, cfg, result.Storyboard); err != nil {
		return err
	}

	pages, err := runRenderPhase(ctx, appCtx, result.Storyboard)
	if err != nil {
		return err
	}

	slog.Info("すべてのページが完成したのだ！", "pages", len(pages))
	return nil
}

// ExecuteStoryboardOnly は、描画をスキップして絵コンテJSONの生成・保存だけを行うのだ。
// 画像生成のコストを抑えつつ、絵コンテを人手で調整したい場合に便利なのだ。
func ExecuteStoryboardOnly(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := runStoryPhase(ctx, appCtx, cfg)
	if err != nil {
		return err
	}

	if err := saveStoryboard(ctx, appCtx, cfg, result.Storyboard); err != nil {
		return err
	}

	slog.Info("絵コンテの生成が完了したのだ！",
		"frames", len(result.Storyboard.Frames),
		"output", cfg.Options.OutputFile)
	return nil
}

// ExecuteRenderOnly は、既存の絵コンテJSONを読み込んでページ画像の描画だけを実行するのだ。
func ExecuteRenderOnly(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	// 絵コンテJSONの読み込み
	rc, err := appCtx.Reader.Open(ctx, cfg.Options.StoryboardFile)
	if err != nil {
		return fmt.Errorf("絵コンテJSON '%s' の読み込みに失敗しました: %w", cfg.Options.StoryboardFile, err)
	}
	defer rc.Close()

	var sb domain.StoryboardData
	if err := json.NewDecoder(rc).Decode(&sb); err != nil {
		return fmt.Errorf("絵コンテJSON '%s' のデコードに失敗しました: %w", cfg.Options.StoryboardFile, err)
	}
	sb.SortFrames()

	pages, err := runRenderPhase(ctx, appCtx, &sb)
	if err != nil {
		return err
	}

	slog.Info("画像生成が完了したのだ！", "pages", len(pages))
	return nil
}

// runStoryPhase は物語原案を読み込み、3ステージのパイプラインを実行するのだ。
func runStoryPhase(ctx context.Context, appCtx *builder.AppContext, cfg *config.Config) (*mkpipe.Result, error) {
	storyPrompt, err := readStoryPrompt(ctx, appCtx, cfg.Options.StoryFile)
	if err != nil {
		return nil, err
	}

	p, err := builder.BuildPipeline(appCtx)
	if err != nil {
		return nil, fmt.Errorf("パイプラインの構築に失敗したのだ: %w", err)
	}

	slog.Info("Phase 1: 物語生成を開始するのだ...")
	result, err := p.Run(ctx, storyPrompt, mkpipe.RequestContext{ClientKey: cfg.Options.ClientKey})
	if err != nil {
		return nil, fmt.Errorf("物語生成に失敗したのだ: %w", err)
	}

	slog.Info("物語生成が完了したのだ",
		"title", result.Outline.Overview.Title,
		"frames", len(result.Storyboard.Frames),
		"models", result.Provenance,
		"fallback", result.Fallback)
	return result, nil
}

// runRenderPhase は絵コンテからページ画像を逐次描画するのだ。
func runRenderPhase(ctx context.Context, appCtx *builder.AppContext, sb *domain.StoryboardData) ([]domain.ComicPage, error) {
	slog.Info("Phase 2: 画像生成を開始するのだ...", "frames", len(sb.Frames))

	renderer, err := builder.BuildRenderer(appCtx)
	if err != nil {
		return nil, fmt.Errorf("描画オーケストレータの構築に失敗したのだ: %w", err)
	}

	refs, err := builder.LoadCharacterRefs(ctx, appCtx)
	if err != nil {
		return nil, err
	}

	pages, err := renderer.Render(ctx, sb, refs)
	if err != nil {
		return nil, fmt.Errorf("画像生成に失敗したのだ: %w", err)
	}
	return pages, nil
}

// saveStoryboard は確定した絵コンテをJSONとして保存するのだ。
func saveStoryboard(ctx context.Context, appCtx *builder.AppContext, cfg *config.Config, sb *domain.StoryboardData) error {
	outputPath := cfg.Options.OutputFile
	if outputPath == "" {
		outputPath = config.DefaultLocalStoryboard
	}

	data, err := json.MarshalIndent(sb, "", "  ")
	if err != nil {
		return fmt.Errorf("絵コンテのJSON化に失敗しました: %w", err)
	}

	if err := appCtx.Writer.Write(ctx, outputPath, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("絵コンテの保存に失敗したのだ: %w", err)
	}

	slog.Info("絵コンテを保存したのだ", "path", outputPath)
	return nil
}

// readStoryPrompt は物語原案をファイルまたは標準入力から読み込むのだ。
func readStoryPrompt(ctx context.Context, appCtx *builder.AppContext, path string) (string, error) {
	var r io.Reader
	if path == "" || path == "-" {
		r = os.Stdin
	} else {
		rc, err := appCtx.Reader.Open(ctx, path)
		if err != nil {
			return "", fmt.Errorf("物語原案 '%s' の読み込みに失敗しました: %w", path, err)
		}
		defer rc.Close()
		r = rc
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("物語原案の読み込みに失敗しました: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", fmt.Errorf("物語原案が空なのだ")
	}
	return string(data), nil
}
