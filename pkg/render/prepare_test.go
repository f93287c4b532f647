package render

import (
	"context"
	"sync"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// countingUploader は転送回数をURLごとに記録するテスト用アップローダなのだ。
type countingUploader struct {
	mu    sync.Mutex
	calls map[string]int
}

func (u *countingUploader) UploadFile(ctx context.Context, referenceURL string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.calls == nil {
		u.calls = make(map[string]int)
	}
	u.calls[referenceURL]++
	return "files://" + referenceURL, nil
}

func TestPrepareReferences(t *testing.T) {
	refs := domain.CharacterRefs{
		"勇者": {Role: "勇者", ReferenceURL: "gs://a/hero.png"},
		"魔王": {Role: "魔王", ReferenceURL: "gs://a/maou.png"},
	}

	sb := &domain.StoryboardData{Frames: []domain.StoryboardFrame{
		{FrameID: 1, ImagePrompt: "a", Dialogues: []domain.DialogueItem{
			{Role: "勇者", Text: "x"}, {Role: "魔王", Text: "y"},
		}},
		{FrameID: 2, ImagePrompt: "b", Dialogues: []domain.DialogueItem{
			{Role: "勇者", Text: "z"},
		}},
		// 表記ゆれは同じ参照キャラクターへ解決される
		{FrameID: 3, ImagePrompt: "c", Dialogues: []domain.DialogueItem{
			{Role: "勇者：", Text: "w"},
		}},
	}}

	uploader := &countingUploader{}
	adapter := newFakeAdapter(5)
	store := &recordingStore{}
	o, err := NewOrchestrator(adapter, testPoller(), store, uploader, testOptions())
	if err != nil {
		t.Fatalf("初期化に失敗しました: %v", err)
	}

	resourceMap, err := o.prepareReferences(context.Background(), sb.Frames, refs)
	if err != nil {
		t.Fatalf("事前転送に失敗しました: %v", err)
	}

	t.Run("役柄ごとに転送は1回だけ行われること", func(t *testing.T) {
		if uploader.calls["gs://a/hero.png"] != 1 {
			t.Errorf("勇者の転送回数: 期待値 1, 実際の値 %d", uploader.calls["gs://a/hero.png"])
		}
		if uploader.calls["gs://a/maou.png"] != 1 {
			t.Errorf("魔王の転送回数: 期待値 1, 実際の値 %d", uploader.calls["gs://a/maou.png"])
		}
	})

	t.Run("転送済みURIがマップに入ること", func(t *testing.T) {
		if resourceMap["勇者"] != "files://gs://a/hero.png" {
			t.Errorf("期待値 'files://gs://a/hero.png', 実際の値 '%s'", resourceMap["勇者"])
		}
	})

	t.Run("アップローダなしでは空マップが返ること", func(t *testing.T) {
		noUp, _ := NewOrchestrator(adapter, testPoller(), store, nil, testOptions())
		m, err := noUp.prepareReferences(context.Background(), sb.Frames, refs)
		if err != nil {
			t.Fatalf("エラーが発生しました: %v", err)
		}
		if len(m) != 0 {
			t.Errorf("期待値 空マップ, 実際の値 %v", m)
		}
	})
}
