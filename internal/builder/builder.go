package builder

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/ai"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/pipeline"
	"github.com/shouni/go-comic-kit/pkg/provider"
	"github.com/shouni/go-comic-kit/pkg/ratelimit"
	"github.com/shouni/go-comic-kit/pkg/render"
	"github.com/shouni/go-comic-kit/pkg/storage"

	"github.com/patrickmn/go-cache"
	imagekit "github.com/shouni/gemini-image-kit/pkg/generator"
)

const (
	defaultCacheExpiration = 5 * time.Minute
	cacheCleanupInterval   = 15 * time.Minute
	defaultTTL             = 5 * time.Minute
)

// BuildPipeline は3ステージの物語生成パイプラインを構築するのだ。
func BuildPipeline(appCtx *AppContext) (*pipeline.Pipeline, error) {
	cfg := appCtx.Config

	invoker, err := ai.NewOpenAIInvoker(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("チャットクライアントの初期化に失敗しました: %w", err)
	}

	executor := ai.NewFallbackExecutor(invoker)

	styleSuffix := cfg.StyleSuffix
	if appCtx.Options.StyleSuffix != "" {
		styleSuffix = appCtx.Options.StyleSuffix
	}

	maxFrames := cfg.MaxFrames
	if appCtx.Options.MaxFrames > 0 {
		maxFrames = appCtx.Options.MaxFrames
	}

	return pipeline.New(executor, pipeline.Config{
		Chains: pipeline.Chains{
			Outline:    cfg.OutlineCandidates(),
			Script:     cfg.ScriptCandidates(),
			Storyboard: cfg.StoryboardCandidates(),
		},
		MaxFrames:   maxFrames,
		StyleSuffix: styleSuffix,
		Limiter:     ratelimit.New(cfg.RateWindow, cfg.RateMax),
	})
}

// BuildRenderer は画像プロバイダと保存先を束ねた描画オーケストレータを構築するのだ。
func BuildRenderer(appCtx *AppContext) (*render.Orchestrator, error) {
	cfg := appCtx.Config
	opts := appCtx.Options

	providerName := cfg.ImageProvider
	if opts.Provider != "" {
		providerName = opts.Provider
	}
	imageModel := cfg.ImageModel
	if opts.ImageModel != "" {
		imageModel = opts.ImageModel
	}

	outputDir := opts.OutputImageDir
	if outputDir == "" {
		outputDir = config.DefaultLocalImageDir
	}
	store, err := storage.NewRemoteStore(appCtx.Writer, outputDir)
	if err != nil {
		return nil, fmt.Errorf("ページ保存先の初期化に失敗しました: %w", err)
	}

	adapter, uploader, err := buildAdapter(appCtx, providerName, imageModel)
	if err != nil {
		return nil, err
	}

	styleSuffix := cfg.StyleSuffix
	if opts.StyleSuffix != "" {
		styleSuffix = opts.StyleSuffix
	}

	return render.NewOrchestrator(adapter, provider.NewPoller(), store, uploader, render.Options{
		Model:       imageModel,
		StyleSuffix: styleSuffix,
		FrameLimit:  opts.FrameLimit,
	})
}

// buildAdapter はプロバイダ名に応じた画像生成アダプタを初期化します。
// 参照画像のアップロードに対応するのは gemini だけなので、
// それ以外のプロバイダでは uploader は nil になります。
func buildAdapter(appCtx *AppContext, providerName, imageModel string) (provider.Adapter, render.AssetUploader, error) {
	cfg := appCtx.Config

	switch providerName {
	case "forge":
		if cfg.ForgeBaseURL == "" {
			return nil, nil, fmt.Errorf("forge プロバイダには FORGE_BASE_URL が必要です")
		}
		return provider.NewForgeAdapter(cfg.ForgeBaseURL, cfg.ForgeAPIKey, config.DefaultHTTPTimeout), nil, nil

	case "taskflow":
		if cfg.TaskflowBaseURL == "" {
			return nil, nil, fmt.Errorf("taskflow プロバイダには TASKFLOW_BASE_URL が必要です")
		}
		return provider.NewTaskflowAdapter(cfg.TaskflowBaseURL, cfg.TaskflowAPIKey, config.DefaultHTTPTimeout), nil, nil

	case "gemini":
		if appCtx.aiClient == nil {
			return nil, nil, fmt.Errorf("gemini プロバイダには GEMINI_API_KEY が必要です")
		}
		core, err := initializeCore(appCtx)
		if err != nil {
			return nil, nil, err
		}
		imgGen, err := initializeImageGenerator(imageModel, core)
		if err != nil {
			return nil, nil, fmt.Errorf("ImageGeneratorの初期化に失敗したのだ: %w", err)
		}
		adapter, err := provider.NewGeminiAdapter(imgGen, "", cfg.GeminiBaseURL, cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, err
		}
		return adapter, initializeAssetManager(core), nil

	default:
		return nil, nil, fmt.Errorf("未知の画像プロバイダです: %s", providerName)
	}
}

// LoadCharacterRefs は参照画像設定のJSONを読み込みます。パス未指定なら nil を返します。
func LoadCharacterRefs(ctx context.Context, appCtx *AppContext) (domain.CharacterRefs, error) {
	path := appCtx.Options.CharacterConfig
	if path == "" {
		return nil, nil
	}

	rc, err := appCtx.Reader.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("キャラクター設定の読み込みに失敗しました: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("キャラクター設定の読み込みに失敗しました: %w", err)
	}

	return domain.LoadCharacterRefs(data)
}

// initializeAssetManager 提供された GeminiImageCore を使用して AssetManager インスタンスを初期化し、返します。
func initializeAssetManager(core *imagekit.GeminiImageCore) imagekit.AssetManager {
	return core
}

// initializeImageGenerator は、画像キャッシュを含む ImageGenerator を初期化します。
func initializeImageGenerator(model string, core *imagekit.GeminiImageCore) (imagekit.ImageGenerator, error) {
	return imagekit.NewGeminiGenerator(
		model,
		core,
	)
}

// initializeCore 提供された依存関係で構成された GeminiImageCore インスタンスを初期化して返します。
func initializeCore(appCtx *AppContext) (*imagekit.GeminiImageCore, error) {
	imgCache := cache.New(defaultCacheExpiration, cacheCleanupInterval)
	core, err := imagekit.NewGeminiImageCore(
		appCtx.aiClient,
		appCtx.Reader,
		appCtx.httpClient,
		imgCache,
		defaultTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCore の初期化に失敗しました: %w", err)
	}

	return core, nil
}
