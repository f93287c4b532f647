package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// geminiMaxRefs は Gemini バックエンドに一度に渡す参照画像の上限です。
const geminiMaxRefs = 5

// ImageGenerator は gemini-image-kit の生成器に求める契約の最小形です。
type ImageGenerator interface {
	GenerateMangaPage(ctx context.Context, req imagedom.ImagePageRequest) (*imagedom.ImageResponse, error)
}

// GeminiAdapter はハイブリッド型アダプタです。通常の画像モデルは
// gemini-image-kit 経由で同期的にバイト列を受け取り、長時間実行型の
// バッチモデル（veo 系など）は LRO（long-running operation）として投入して
// 共有ポーラーで回収します。submit の戻りはどちらか一方になります。
type GeminiAdapter struct {
	generator   ImageGenerator
	aspectRatio string

	// LRO 用のエンドポイント設定。バッチモデルを使わない構成では空で構いません。
	opsBaseURL string
	apiKey     string
	opsClient  *http.Client
}

// geminiOperation は LRO エンドポイントのワイヤ形式です。
type geminiOperation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response *struct {
		ImageURL string `json:"image_url"`
	} `json:"response,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGeminiAdapter は gemini-image-kit の生成器を包んでアダプタを初期化します。
func NewGeminiAdapter(gen ImageGenerator, aspectRatio, opsBaseURL, apiKey string) (*GeminiAdapter, error) {
	if gen == nil {
		return nil, fmt.Errorf("ImageGenerator は必須です")
	}
	if aspectRatio == "" {
		aspectRatio = "3:4"
	}
	return &GeminiAdapter{
		generator:   gen,
		aspectRatio: aspectRatio,
		opsBaseURL:  opsBaseURL,
		apiKey:      apiKey,
		opsClient:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (a *GeminiAdapter) Name() string { return "gemini" }

func (a *GeminiAdapter) MaxReferenceImages() int { return geminiMaxRefs }

// Submit はモデル名で同期・非同期を振り分けます。
// 判定はここで一度だけ行い、呼び出し側には Submission の形でのみ伝わります。
func (a *GeminiAdapter) Submit(ctx context.Context, req Request) (Submission, error) {
	if a.isBatchModel(req.Model) {
		return a.submitOperation(ctx, req)
	}

	refs := req.ReferenceImages
	if len(refs) > geminiMaxRefs {
		refs = refs[:geminiMaxRefs]
	}

	resp, err := a.generator.GenerateMangaPage(ctx, imagedom.ImagePageRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		ReferenceURLs:  refs,
		AspectRatio:    a.aspectRatio,
	})
	if err != nil {
		return Submission{}, fmt.Errorf("gemini 画像生成に失敗しました: %w", err)
	}
	if len(resp.Data) == 0 {
		return Submission{}, fmt.Errorf("%w (provider: gemini)", ErrCompletedWithoutResult)
	}

	return Submission{Data: resp.Data, MimeType: resp.MimeType}, nil
}

// Poll は LRO の完了状態を1回だけ問い合わせます。
func (a *GeminiAdapter) Poll(ctx context.Context, taskID string) (TaskStatus, error) {
	if a.opsBaseURL == "" {
		return TaskStatus{}, ErrPollUnsupported
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.opsBaseURL+"/v1/operations/"+taskID, nil)
	if err != nil {
		return TaskStatus{}, fmt.Errorf("gemini LRO 要求の構築に失敗しました: %w", err)
	}
	a.setHeaders(httpReq)

	resp, err := a.opsClient.Do(httpReq)
	if err != nil {
		return TaskStatus{}, fmt.Errorf("gemini LRO エンドポイントへの接続に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return TaskStatus{}, fmt.Errorf("gemini LRO レスポンスの読み取りに失敗しました: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return TaskStatus{}, fmt.Errorf("gemini LRO エンドポイントがエラーを返しました (status: %d): %s", resp.StatusCode, truncateBody(data))
	}

	var op geminiOperation
	if err := json.Unmarshal(data, &op); err != nil {
		return TaskStatus{}, fmt.Errorf("gemini LRO レスポンスの解析に失敗しました: %w", err)
	}

	return a.operationStatus(op), nil
}

// operationStatus は LRO の done / error を正規化ステータスへ写します。
func (a *GeminiAdapter) operationStatus(op geminiOperation) TaskStatus {
	switch {
	case op.Error != nil:
		return TaskStatus{State: StateFailed, Message: op.Error.Message}
	case !op.Done:
		return TaskStatus{State: StatePending}
	case op.Response != nil && op.Response.ImageURL != "":
		return TaskStatus{State: StateSucceeded, ImageURL: op.Response.ImageURL}
	default:
		// done なのに成果物がない。呼び出し側で ErrCompletedWithoutResult になる。
		return TaskStatus{State: StateSucceeded}
	}
}

func (a *GeminiAdapter) submitOperation(ctx context.Context, req Request) (Submission, error) {
	if a.opsBaseURL == "" {
		return Submission{}, fmt.Errorf("バッチモデル %q には LRO エンドポイントの設定が必要です", req.Model)
	}

	refs := req.ReferenceImages
	if len(refs) > geminiMaxRefs {
		refs = refs[:geminiMaxRefs]
	}

	payload := map[string]any{
		"model":           req.Model,
		"prompt":          req.Prompt,
		"negative_prompt": req.NegativePrompt,
		"reference_urls":  refs,
		"size":            req.Size,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Submission{}, fmt.Errorf("gemini LRO リクエストのエンコードに失敗しました: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.opsBaseURL+"/v1/operations", bytes.NewReader(body))
	if err != nil {
		return Submission{}, fmt.Errorf("gemini LRO リクエストの構築に失敗しました: %w", err)
	}
	a.setHeaders(httpReq)

	resp, err := a.opsClient.Do(httpReq)
	if err != nil {
		return Submission{}, fmt.Errorf("gemini LRO エンドポイントへの接続に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Submission{}, fmt.Errorf("gemini LRO レスポンスの読み取りに失敗しました: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return Submission{}, fmt.Errorf("gemini LRO エンドポイントがエラーを返しました (status: %d): %s", resp.StatusCode, truncateBody(data))
	}

	var op geminiOperation
	if err := json.Unmarshal(data, &op); err != nil {
		return Submission{}, fmt.Errorf("gemini LRO レスポンスの解析に失敗しました: %w", err)
	}
	if op.Name == "" {
		return Submission{}, fmt.Errorf("gemini LRO がオペレーション名を返しませんでした")
	}

	// まれに投入時点で完了していることがある（小さなバッチ）
	if op.Done && op.Response != nil && op.Response.ImageURL != "" {
		return Submission{ImageURL: op.Response.ImageURL}, nil
	}

	return Submission{TaskID: op.Name}, nil
}

// isBatchModel は LRO として扱うべきモデルかを判定します。
func (a *GeminiAdapter) isBatchModel(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "veo") || strings.Contains(m, "-batch")
}

func (a *GeminiAdapter) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("x-goog-api-key", a.apiKey)
	}
}
