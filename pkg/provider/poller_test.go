package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedAdapter は Poll の応答列をあらかじめ仕込んでおくテスト用アダプタなのだ。
type scriptedAdapter struct {
	statuses []TaskStatus
	errs     []error
	cursor   int
}

func (a *scriptedAdapter) Name() string            { return "scripted" }
func (a *scriptedAdapter) MaxReferenceImages() int { return 1 }

func (a *scriptedAdapter) Submit(ctx context.Context, req Request) (Submission, error) {
	return Submission{TaskID: "task-1"}, nil
}

func (a *scriptedAdapter) Poll(ctx context.Context, taskID string) (TaskStatus, error) {
	i := a.cursor
	if i >= len(a.statuses) {
		i = len(a.statuses) - 1
	}
	a.cursor++
	if i < len(a.errs) && a.errs[i] != nil {
		return TaskStatus{}, a.errs[i]
	}
	return a.statuses[i], nil
}

func newTestPoller(maxAttempts int) *Poller {
	return &Poller{Interval: time.Millisecond, MaxAttempts: maxAttempts}
}

func TestPoller_Await(t *testing.T) {
	t.Run("pendingの後にsucceededで成果物URLが返ること", func(t *testing.T) {
		adapter := &scriptedAdapter{statuses: []TaskStatus{
			{State: StatePending},
			{State: StatePending},
			{State: StateSucceeded, ImageURL: "https://img/1.png"},
		}}

		url, err := newTestPoller(10).Await(context.Background(), adapter, "task-1")
		if err != nil {
			t.Fatalf("エラーが発生しました: %v", err)
		}
		if url != "https://img/1.png" {
			t.Errorf("期待値 'https://img/1.png', 実際の値 '%s'", url)
		}
	})

	t.Run("failedでErrTaskFailedが返ること", func(t *testing.T) {
		adapter := &scriptedAdapter{statuses: []TaskStatus{
			{State: StateFailed, Message: "quota exceeded"},
		}}

		_, err := newTestPoller(10).Await(context.Background(), adapter, "task-1")
		if !errors.Is(err, ErrTaskFailed) {
			t.Errorf("ErrTaskFailed を期待しましたが: %v", err)
		}
	})

	t.Run("succeededなのにURLがなければErrCompletedWithoutResultになること", func(t *testing.T) {
		adapter := &scriptedAdapter{statuses: []TaskStatus{
			{State: StateSucceeded},
		}}

		_, err := newTestPoller(10).Await(context.Background(), adapter, "task-1")
		if !errors.Is(err, ErrCompletedWithoutResult) {
			t.Errorf("ErrCompletedWithoutResult を期待しましたが: %v", err)
		}
	})

	t.Run("上限到達でErrTaskTimeoutになること", func(t *testing.T) {
		adapter := &scriptedAdapter{statuses: []TaskStatus{
			{State: StatePending},
		}}

		_, err := newTestPoller(3).Await(context.Background(), adapter, "task-1")
		if !errors.Is(err, ErrTaskTimeout) {
			t.Errorf("ErrTaskTimeout を期待しましたが: %v", err)
		}
	})

	t.Run("一時的なポーリングエラーでは粘ること", func(t *testing.T) {
		adapter := &scriptedAdapter{
			statuses: []TaskStatus{
				{}, // エラーで消費される枠
				{State: StateSucceeded, ImageURL: "https://img/2.png"},
			},
			errs: []error{errors.New("connection reset")},
		}

		url, err := newTestPoller(10).Await(context.Background(), adapter, "task-1")
		if err != nil {
			t.Fatalf("一時エラーから回復できませんでした: %v", err)
		}
		if url != "https://img/2.png" {
			t.Errorf("期待値 'https://img/2.png', 実際の値 '%s'", url)
		}
	})

	t.Run("contextキャンセルで即座に抜けること", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		adapter := &scriptedAdapter{statuses: []TaskStatus{{State: StatePending}}}
		_, err := newTestPoller(10).Await(ctx, adapter, "task-1")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("context.Canceled を期待しましたが: %v", err)
		}
	})
}
