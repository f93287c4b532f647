package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	t.Run("上限以内のリクエストは受け付けること", func(t *testing.T) {
		l := New(time.Minute, 3)
		for i := 0; i < 3; i++ {
			if !l.Allow("client-a") {
				t.Fatalf("%d 回目のリクエストが拒否されました", i+1)
			}
		}
	})

	t.Run("上限を超えたリクエストは拒否されること", func(t *testing.T) {
		l := New(time.Minute, 2)
		l.Allow("client-b")
		l.Allow("client-b")
		if l.Allow("client-b") {
			t.Error("上限超過のリクエストが受け付けられました")
		}
	})

	t.Run("クライアントごとに独立して数えること", func(t *testing.T) {
		l := New(time.Minute, 1)
		l.Allow("client-c")
		if !l.Allow("client-d") {
			t.Error("別クライアントのリクエストが巻き添えで拒否されました")
		}
	})

	t.Run("空のキーは常に許可されること", func(t *testing.T) {
		l := New(time.Minute, 1)
		for i := 0; i < 5; i++ {
			if !l.Allow("") {
				t.Fatal("空キーのリクエストが拒否されました")
			}
		}
	})

	t.Run("ウィンドウ経過でカウンタがリセットされること", func(t *testing.T) {
		l := New(20*time.Millisecond, 1)
		l.Allow("client-e")
		if l.Allow("client-e") {
			t.Fatal("上限超過のリクエストが受け付けられました")
		}

		time.Sleep(40 * time.Millisecond)
		if !l.Allow("client-e") {
			t.Error("ウィンドウ経過後のリクエストが拒否されました")
		}
	})
}
