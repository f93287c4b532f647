package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ForgeAdapter は自前ホストの画像生成サーバ（SANA系）への同期HTTPアダプタです。
// submit のレスポンスに完成画像のURLがそのまま入って返ってくるため、
// ポーリングは発生しません。参照画像は1枚しか受け付けません。
type ForgeAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// forgeRequest / forgeResponse はサーバとのワイヤ形式です。
type forgeRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	ReferenceURL   string `json:"reference_url,omitempty"`
	Size           string `json:"size,omitempty"`
}

type forgeResponse struct {
	ImageURL string `json:"image_url"`
	Error    string `json:"error,omitempty"`
}

// NewForgeAdapter は接続先URLとAPIキーからアダプタを初期化します。
func NewForgeAdapter(baseURL, apiKey string, timeout time.Duration) *ForgeAdapter {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ForgeAdapter{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *ForgeAdapter) Name() string { return "forge" }

// MaxReferenceImages は 1 を返します。このバックエンドは単一参照のみです。
func (a *ForgeAdapter) MaxReferenceImages() int { return 1 }

// Submit は生成要求を送信し、完成画像のURLを同期的に受け取ります。
func (a *ForgeAdapter) Submit(ctx context.Context, req Request) (Submission, error) {
	payload := forgeRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Size:           req.Size,
	}
	if len(req.ReferenceImages) > 0 {
		payload.ReferenceURL = req.ReferenceImages[0]
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Submission{}, fmt.Errorf("forge リクエストのエンコードに失敗しました: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return Submission{}, fmt.Errorf("forge リクエストの構築に失敗しました: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return Submission{}, fmt.Errorf("forge サーバへの接続に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Submission{}, fmt.Errorf("forge レスポンスの読み取りに失敗しました: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Submission{}, fmt.Errorf("forge サーバがエラーを返しました (status: %d): %s", resp.StatusCode, truncateBody(data))
	}

	var fr forgeResponse
	if err := json.Unmarshal(data, &fr); err != nil {
		return Submission{}, fmt.Errorf("forge レスポンスの解析に失敗しました: %w", err)
	}
	if fr.Error != "" {
		return Submission{}, fmt.Errorf("%w (provider: forge): %s", ErrTaskFailed, fr.Error)
	}
	if fr.ImageURL == "" {
		return Submission{}, fmt.Errorf("%w (provider: forge)", ErrCompletedWithoutResult)
	}

	return Submission{ImageURL: fr.ImageURL}, nil
}

// Poll は同期専用バックエンドのため常に ErrPollUnsupported を返します。
func (a *ForgeAdapter) Poll(_ context.Context, _ string) (TaskStatus, error) {
	return TaskStatus{}, ErrPollUnsupported
}

func truncateBody(data []byte) string {
	const maxLen = 200
	if len(data) <= maxLen {
		return string(data)
	}
	return string(data[:maxLen]) + "..."
}
