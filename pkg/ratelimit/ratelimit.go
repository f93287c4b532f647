// Package ratelimit はクライアント単位のローリングウィンドウ型リクエスト制限です。
// カウンタはプロセス内のみで共有され、クラスタ横断の公平性は保証しません。
// 水平スケール時は外部のTTL付きカウントストアへ置き換える前提です。
package ratelimit

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Limiter はクライアントキーごとにウィンドウ内のリクエスト数を数えます。
type Limiter struct {
	counter *cache.Cache
	window  time.Duration
	max     int
}

// New はウィンドウ幅と上限回数から Limiter を初期化します。
func New(window time.Duration, max int) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 10
	}
	return &Limiter{
		counter: cache.New(window, 2*window),
		window:  window,
		max:     max,
	}
}

// Allow は clientKey のリクエストを受け付けてよいかを返し、受け付けた場合は
// カウンタを進めます。キーのエントリはウィンドウ経過で自動失効するため、
// 「最初のリクエストから window 経過でリセット」という挙動になるのだ。
func (l *Limiter) Allow(clientKey string) bool {
	if clientKey == "" {
		return true
	}

	if err := l.counter.Add(clientKey, int64(1), l.window); err == nil {
		return true
	}

	n, err := l.counter.IncrementInt64(clientKey, 1)
	if err != nil {
		// Add と Increment の間で失効した。新しいウィンドウとして数え直す。
		l.counter.Set(clientKey, int64(1), l.window)
		return true
	}

	return n <= int64(l.max)
}
