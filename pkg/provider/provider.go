// Package provider は異種の画像生成バックエンドを単一の submit / poll 契約へ
// 正規化するアダプタ群です。同期HTTP型・非同期タスク型・モデル次第で
// どちらにもなるハイブリッド型の3系統を同じインターフェースで扱います。
package provider

import (
	"context"
	"errors"
)

// Request は1フレーム分の画像生成要求です。
type Request struct {
	Prompt          string
	NegativePrompt  string
	ReferenceImages []string // 参照画像URL（枚数上限はアダプタ側が決める）
	Size            string   // "1024x1024" 等。空ならアダプタの既定値
	Model           string   // バックエンド内のモデル指定（ハイブリッド型の分岐キー）
}

// Submission は submit の結果で、ImageURL か TaskID のどちらか一方が入ります。
// バイト列を直接返す同期バックエンドの場合は Data / MimeType に実体が入ります。
type Submission struct {
	ImageURL string
	TaskID   string
	Data     []byte
	MimeType string
}

// Resolved は Submission が即時に完成画像を持っているかを返します。
func (s Submission) Resolved() bool {
	return s.ImageURL != "" || len(s.Data) > 0
}

// TaskStatus は poll の結果（正規化済みステータスと成果物URL）です。
type TaskStatus struct {
	State    State
	ImageURL string
	Message  string
}

// Adapter は画像生成バックエンド1つ分の契約です。
// 同期型バックエンドの Poll は呼ばれない前提で、ErrPollUnsupported を返して構いません。
type Adapter interface {
	// Name はログ・設定で使うアダプタ識別子を返します。
	Name() string
	// Submit は生成要求を投入します。即時完成（ImageURL/Data）か
	// タスクID（TaskID）のどちらか一方を返します。
	Submit(ctx context.Context, req Request) (Submission, error)
	// Poll はタスクの現在状態を1回だけ問い合わせます。
	Poll(ctx context.Context, taskID string) (TaskStatus, error)
	// MaxReferenceImages は1リクエストに添付できる参照画像の最大数です。
	MaxReferenceImages() int
}

var (
	// ErrTaskTimeout はポーリングが試行上限まで終端状態に達しなかったことを表します。
	ErrTaskTimeout = errors.New("画像生成タスクがタイムアウトしました")
	// ErrTaskFailed はプロバイダが明示的に失敗・キャンセルを報告したことを表します。
	ErrTaskFailed = errors.New("画像生成タスクが失敗しました")
	// ErrCompletedWithoutResult は succeeded なのに成果物URLがない
	// プロトコル違反を表します。黙って再試行はしません。
	ErrCompletedWithoutResult = errors.New("タスクは完了しましたが成果物がありません")
	// ErrPollUnsupported は同期専用アダプタの Poll が呼ばれたことを表します。
	ErrPollUnsupported = errors.New("このプロバイダはポーリングに対応していません")
)
