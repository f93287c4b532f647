package domain

import (
	"testing"
)

func TestLoadCharacterRefs(t *testing.T) {
	jsonInput := []byte(`{
		"hero": {
			"role": "hero",
			"reference_url": "gs://assets/hero.png",
			"visual_cues": ["blue hair", "sword"]
		}
	}`)

	refs, err := LoadCharacterRefs(jsonInput)
	if err != nil {
		t.Fatalf("正常なJSONでエラーが発生しました: %v", err)
	}
	if refs["hero"].ReferenceURL != "gs://assets/hero.png" {
		t.Errorf("期待値 'gs://assets/hero.png', 実際の値 '%s'", refs["hero"].ReferenceURL)
	}

	// 不正なJSONでエラーが返ること
	if _, err := LoadCharacterRefs([]byte(`{ invalid }`)); err == nil {
		t.Error("不正なJSONでエラーが発生しませんでした")
	}
}

func TestCharacterRefs_Find(t *testing.T) {
	refs := CharacterRefs{
		"hero":  {Role: "hero", ReferenceURL: "gs://a/hero.png"},
		"Majo":  {Role: "Majo", ReferenceURL: "gs://a/majo.png"},
		"聖女アリス": {Role: "聖女アリス", ReferenceURL: "gs://a/alice.png"},
	}

	t.Run("完全一致で引けること", func(t *testing.T) {
		if ref := refs.Find("hero"); ref == nil || ref.ReferenceURL != "gs://a/hero.png" {
			t.Error("完全一致の引き当てに失敗しました")
		}
	})

	t.Run("大文字小文字の揺れを許容すること", func(t *testing.T) {
		if ref := refs.Find("MAJO"); ref == nil || ref.ReferenceURL != "gs://a/majo.png" {
			t.Error("大文字小文字の正規化に失敗しました")
		}
	})

	t.Run("末尾の区切り記号を許容すること", func(t *testing.T) {
		if ref := refs.Find("hero："); ref == nil {
			t.Error("末尾セパレータ付きの引き当てに失敗しました")
		}
	})

	t.Run("修飾付き役柄名を前方一致で救えること", func(t *testing.T) {
		if ref := refs.Find("hero (young)"); ref == nil {
			t.Error("前方一致の引き当てに失敗しました")
		}
	})

	t.Run("未知の役柄はnilを返すこと", func(t *testing.T) {
		if ref := refs.Find("存在しない誰か"); ref != nil {
			t.Errorf("nil を期待しましたが: %+v", ref)
		}
	})

	t.Run("nilマップでも落ちないこと", func(t *testing.T) {
		var empty CharacterRefs
		if ref := empty.Find("hero"); ref != nil {
			t.Error("nil マップから値が返りました")
		}
	})
}

func TestCharacterRefs_URLs(t *testing.T) {
	refs := CharacterRefs{
		"b": {Role: "b", ReferenceURL: "gs://a/b.png"},
		"a": {Role: "a", ReferenceURL: "gs://a/a.png"},
		"c": {Role: "c"}, // URL未設定は除外される
	}

	urls := refs.URLs()
	if len(urls) != 2 {
		t.Fatalf("期待値 2, 実際の値 %d", len(urls))
	}
	// キーの昇順で返ること
	if urls[0] != "gs://a/a.png" || urls[1] != "gs://a/b.png" {
		t.Errorf("ソート順が不正です: %v", urls)
	}
}
