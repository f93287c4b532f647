package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ポーリングの既定値。約2.5秒間隔 × 36回 ≒ 90秒が上限になります。
const (
	DefaultPollInterval = 2500 * time.Millisecond
	DefaultMaxAttempts  = 36
)

// Poller は非同期バックエンド共通のポーリングループです。
// 固定間隔・回数上限付きで、終端状態に達するまで Adapter.Poll を繰り返します。
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
}

// NewPoller は既定値で初期化した Poller を返します。
func NewPoller() *Poller {
	return &Poller{
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Await はタスクが終端状態になるまでポーリングし、成果物URLを返します。
//   - succeeded かつ URLあり → 成功
//   - succeeded かつ URLなし → ErrCompletedWithoutResult（プロトコル違反）
//   - failed → ErrTaskFailed
//   - 上限到達 → ErrTaskTimeout
func (p *Poller) Await(ctx context.Context, adapter Adapter, taskID string) (string, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		status, err := adapter.Poll(ctx, taskID)
		if err != nil {
			// 一時的な通信エラーは即失敗にせず、試行回数の範囲で粘る
			slog.Warn("ポーリングに失敗しました",
				"provider", adapter.Name(), "task_id", taskID, "attempt", attempt, "error", err)
			continue
		}

		switch status.State {
		case StateSucceeded:
			if status.ImageURL == "" {
				return "", fmt.Errorf("%w (provider: %s, task_id: %s)", ErrCompletedWithoutResult, adapter.Name(), taskID)
			}
			return status.ImageURL, nil
		case StateFailed:
			return "", fmt.Errorf("%w (provider: %s, task_id: %s): %s", ErrTaskFailed, adapter.Name(), taskID, status.Message)
		case StatePending:
			slog.Debug("タスクは処理中なのだ",
				"provider", adapter.Name(), "task_id", taskID, "attempt", attempt)
		}
	}

	return "", fmt.Errorf("%w (provider: %s, task_id: %s, attempts: %d)", ErrTaskTimeout, adapter.Name(), taskID, maxAttempts)
}
