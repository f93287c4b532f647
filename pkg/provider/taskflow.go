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

// taskflowMaxRefs は taskflow バックエンドが受け付ける参照画像の上限です。
const taskflowMaxRefs = 5

// TaskflowAdapter はタスクキュー型バックエンドへの非同期アダプタです。
// submit は常に task_id を返し、成果物は poll で回収します。
type TaskflowAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type taskflowSubmitRequest struct {
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negative_prompt,omitempty"`
	ReferenceURLs  []string `json:"reference_urls,omitempty"`
	Size           string   `json:"size,omitempty"`
	Model          string   `json:"model,omitempty"`
}

type taskflowTaskResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Result  string `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// NewTaskflowAdapter は接続先URLとAPIキーからアダプタを初期化します。
func NewTaskflowAdapter(baseURL, apiKey string, timeout time.Duration) *TaskflowAdapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TaskflowAdapter{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *TaskflowAdapter) Name() string { return "taskflow" }

func (a *TaskflowAdapter) MaxReferenceImages() int { return taskflowMaxRefs }

// Submit はタスクを投入し、ポーリング用の task_id を受け取ります。
func (a *TaskflowAdapter) Submit(ctx context.Context, req Request) (Submission, error) {
	refs := req.ReferenceImages
	if len(refs) > taskflowMaxRefs {
		refs = refs[:taskflowMaxRefs]
	}

	payload := taskflowSubmitRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		ReferenceURLs:  refs,
		Size:           req.Size,
		Model:          req.Model,
	}

	var tr taskflowTaskResponse
	if err := a.postJSON(ctx, "/v1/tasks", payload, &tr); err != nil {
		return Submission{}, err
	}
	if tr.TaskID == "" {
		return Submission{}, fmt.Errorf("taskflow が task_id を返しませんでした (status: %q)", tr.Status)
	}

	return Submission{TaskID: tr.TaskID}, nil
}

// Poll はタスクの現在状態を1回だけ問い合わせます。
func (a *TaskflowAdapter) Poll(ctx context.Context, taskID string) (TaskStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/tasks/"+taskID, nil)
	if err != nil {
		return TaskStatus{}, fmt.Errorf("taskflow ポーリング要求の構築に失敗しました: %w", err)
	}
	a.setHeaders(httpReq)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return TaskStatus{}, fmt.Errorf("taskflow サーバへの接続に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return TaskStatus{}, fmt.Errorf("taskflow レスポンスの読み取りに失敗しました: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return TaskStatus{}, fmt.Errorf("taskflow サーバがエラーを返しました (status: %d): %s", resp.StatusCode, truncateBody(data))
	}

	var tr taskflowTaskResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return TaskStatus{}, fmt.Errorf("taskflow レスポンスの解析に失敗しました: %w", err)
	}

	return TaskStatus{
		State:    NormalizeState(tr.Status),
		ImageURL: tr.Result,
		Message:  tr.Message,
	}, nil
}

func (a *TaskflowAdapter) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("taskflow リクエストのエンコードに失敗しました: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("taskflow リクエストの構築に失敗しました: %w", err)
	}
	a.setHeaders(httpReq)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("taskflow サーバへの接続に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("taskflow レスポンスの読み取りに失敗しました: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("taskflow サーバがエラーを返しました (status: %d): %s", resp.StatusCode, truncateBody(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("taskflow レスポンスの解析に失敗しました: %w", err)
	}
	return nil
}

func (a *TaskflowAdapter) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
}
