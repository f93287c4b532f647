// Package ai は構造化チャット呼び出しとステージ単位のモデルフォールバックを提供します。
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse はモデルが選択肢ゼロまたは空文字を返したことを表します。
// 空応答は成功扱いにせず、フォールバックチェーンの次の候補へ進ませます。
var ErrEmptyResponse = errors.New("モデルから空の応答を受け取りました")

// Message はモデルへ渡す会話メッセージ1件です。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Options はモデル呼び出しの生成パラメータです。ポインタで「未指定」を区別します。
type Options struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
	Timeout     time.Duration
}

// Result は1回のモデル呼び出しの成果（本文と実際に応答したモデル名）です。
type Result struct {
	Content string
	Model   string
}

// Invoker は指名されたモデルへ1回のチャット呼び出しを行う契約です。
// リトライやフォールバックの判断は持たず、失敗はそのままエラーで返します。
type Invoker interface {
	Invoke(ctx context.Context, model string, messages []Message, opts Options) (Result, error)
}

// OpenAIInvoker は OpenAI 互換 API（OpenRouter 等）への Invoker 実装です。
// 1つのエンドポイントに対してモデル名を呼び出しごとに切り替えられるため、
// 異種モデルを並べたフォールバックチェーンと相性が良いのだ。
type OpenAIInvoker struct {
	client *openai.Client
}

// NewOpenAIInvoker は APIキーとベースURLから Invoker を初期化します。
// baseURL が空の場合は本家 OpenAI のエンドポイントを使います。
func NewOpenAIInvoker(apiKey, baseURL string) (*OpenAIInvoker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("APIキーが指定されていません")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIInvoker{client: openai.NewClientWithConfig(cfg)}, nil
}

// Invoke は1回の構造化チャット呼び出しを実行します。
// タイムアウトは Options.Timeout が指定されていれば context に重ねて適用します。
func (inv *OpenAIInvoker) Invoke(ctx context.Context, model string, messages []Message, opts Options) (Result, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toChatMessages(messages),
	}
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}
	if opts.MaxTokens != nil {
		req.MaxTokens = *opts.MaxTokens
	}
	if opts.TopP != nil {
		req.TopP = float32(*opts.TopP)
	}

	resp, err := inv.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("モデル %s の呼び出しに失敗しました: %w", model, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Result{}, fmt.Errorf("%w (model: %s)", ErrEmptyResponse, model)
	}

	respModel := resp.Model
	if respModel == "" {
		respModel = model
	}

	return Result{
		Content: resp.Choices[0].Message.Content,
		Model:   respModel,
	}, nil
}

func toChatMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}
