package provider

import "strings"

// State はバックエンド横断で正規化したタスク状態の3値です。
type State string

const (
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// NormalizeState は各バックエンドが返す生のステータス文字列を3値に畳み込みます。
// 未知の文字列は保守的に pending として扱い、ポーリングの試行上限に委ねるのだ。
func NormalizeState(raw string) State {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "succeeded", "success", "completed", "complete", "done", "finished":
		return StateSucceeded
	case "failed", "failure", "error", "canceled", "cancelled", "aborted", "expired":
		return StateFailed
	case "pending", "processing", "running", "queued", "waiting", "in_progress", "submitted":
		return StatePending
	default:
		return StatePending
	}
}
