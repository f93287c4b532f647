package config

import (
	"strings"
	"time"

	"github.com/shouni/go-comic-kit/pkg/asset"
	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultOutlineModels    = "gpt-4o,gpt-4o-mini"
	DefaultScriptModels     = "gpt-4o,gpt-4o-mini"
	DefaultStoryboardModels = "gpt-4o,gpt-4o-mini"
	DefaultImageModel       = "gemini-3-pro-image-preview"
	DefaultImageProvider    = "gemini"
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultFrameLimit       = 10
	DefaultMaxFrames        = 12
	DefaultRateWindow       = 1 * time.Minute
	DefaultRateMax          = 10
	DefaultCharactersFile   = "examples/characters.json" // キャラクターの視覚情報（DNA）を定義したJSONパス
	DefaultLocalStoryboard  = "output/" + asset.DefaultStoryboardName // 絵コンテJSONのデフォルト保存先なのだ
	DefaultLocalImageDir    = "output/images"                         // ページ画像のデフォルト保存先なのだ
	DefaultStyleSuffix      = "Japanese anime style, official art, cel-shaded, clean line art, high-quality manga coloring, expressive eyes, vibrant colors, cinematic lighting, masterpiece, ultra-detailed, flat shading, clear character features, no 3D effect, high resolution"
)

// Config はアプリケーション全体の環境設定（APIキーや接続先）を保持する構造体なのだ。
type Config struct {
	// --- テキスト生成（チャット補完） ---
	OpenAIAPIKey  string
	OpenAIBaseURL string

	// --- 画像生成プロバイダ ---
	ImageProvider   string // forge / taskflow / gemini
	GeminiAPIKey    string
	GeminiBaseURL   string // バッチ系モデルのオペレーション照会先
	ForgeAPIKey     string
	ForgeBaseURL    string
	TaskflowAPIKey  string
	TaskflowBaseURL string
	ImageModel      string

	// --- 生成設定 ---
	StyleSuffix string
	MaxFrames   int

	// --- レート制限 ---
	RateWindow time.Duration
	RateMax    int

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		OpenAIAPIKey:    envutil.GetEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   envutil.GetEnv("OPENAI_BASE_URL", ""),
		ImageProvider:   envutil.GetEnv("IMAGE_PROVIDER", DefaultImageProvider),
		GeminiAPIKey:    envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:   envutil.GetEnv("GEMINI_BASE_URL", ""),
		ForgeAPIKey:     envutil.GetEnv("FORGE_API_KEY", ""),
		ForgeBaseURL:    envutil.GetEnv("FORGE_BASE_URL", ""),
		TaskflowAPIKey:  envutil.GetEnv("TASKFLOW_API_KEY", ""),
		TaskflowBaseURL: envutil.GetEnv("TASKFLOW_BASE_URL", ""),
		ImageModel:      envutil.GetEnv("IMAGE_MODEL", DefaultImageModel),
		StyleSuffix:     envutil.GetEnv("IMAGE_PROMPT_SUFFIX", DefaultStyleSuffix),
		MaxFrames:       DefaultMaxFrames,
		RateWindow:      DefaultRateWindow,
		RateMax:         DefaultRateMax,
	}
	return cfg
}

// OutlineCandidates は構成案ステージのモデル候補リストを返します。
func (c *Config) OutlineCandidates() []domain.ModelCandidate {
	return parseCandidates(envutil.GetEnv("OUTLINE_MODELS", DefaultOutlineModels))
}

// ScriptCandidates は脚本ステージのモデル候補リストを返します。
func (c *Config) ScriptCandidates() []domain.ModelCandidate {
	return parseCandidates(envutil.GetEnv("SCRIPT_MODELS", DefaultScriptModels))
}

// StoryboardCandidates は絵コンテステージのモデル候補リストを返します。
func (c *Config) StoryboardCandidates() []domain.ModelCandidate {
	return parseCandidates(envutil.GetEnv("STORYBOARD_MODELS", DefaultStoryboardModels))
}

// parseCandidates はカンマ区切りのモデル名リストを優先順のまま候補に変換します。
func parseCandidates(raw string) []domain.ModelCandidate {
	parts := strings.Split(raw, ",")
	candidates := make([]domain.ModelCandidate, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		candidates = append(candidates, domain.ModelCandidate{Model: name})
	}
	return candidates
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ソース入力関連
	StoryFile       string // --story-file
	StoryboardFile  string // --storyboard-file
	CharacterConfig string // --char-config

	// 生成結果の出力設定
	OutputFile     string // --output-file
	OutputImageDir string // --output-image-dir

	// AI挙動設定
	ImageModel  string // --image-model
	Provider    string // --provider
	StyleSuffix string // --style-suffix

	// 実行制御
	FrameLimit  int           // --frame-limit
	MaxFrames   int           // --max-frames
	HTTPTimeout time.Duration // --http-timeout
	ClientKey   string        // --client-key
}
