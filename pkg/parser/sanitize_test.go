package parser

import (
	"testing"
)

func TestStripFences(t *testing.T) {
	t.Run("言語タグ付きフェンスが剥がされること", func(t *testing.T) {
		input := "```json\n{\"a\": 1}\n```"
		got := StripFences(input)
		if got != `{"a": 1}` {
			t.Errorf("期待値 '{\"a\": 1}', 実際の値 '%s'", got)
		}
	})

	t.Run("フェンスなしの入力はトリムのみ行われること", func(t *testing.T) {
		got := StripFences("  plain text  ")
		if got != "plain text" {
			t.Errorf("期待値 'plain text', 実際の値 '%s'", got)
		}
	})

	t.Run("フェンス行しかない入力は空文字になること", func(t *testing.T) {
		if got := StripFences("```"); got != "" {
			t.Errorf("期待値 '', 実際の値 '%s'", got)
		}
	})
}

func TestSanitize(t *testing.T) {
	t.Run("前置きテキスト付きの応答からJSON本体が抽出されること", func(t *testing.T) {
		input := "はい、こちらが結果です。\n```json\n{\"frames\": []}\n```\n以上です。"
		got := Sanitize(input)
		if got != `{"frames": []}` {
			t.Errorf("期待値 '{\"frames\": []}', 実際の値 '%s'", got)
		}
	})

	t.Run("波括弧がない入力はトリム済みでそのまま返ること", func(t *testing.T) {
		got := Sanitize("  no json here  ")
		if got != "no json here" {
			t.Errorf("期待値 'no json here', 実際の値 '%s'", got)
		}
	})

	t.Run("冪等であること", func(t *testing.T) {
		input := "```json\n{\"key\": \"value\"}\n```"
		once := Sanitize(input)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("1回目 '%s' と2回目 '%s' が一致しません", once, twice)
		}
	})

	t.Run("入れ子の波括弧が保持されること", func(t *testing.T) {
		input := `prefix {"outer": {"inner": 1}} suffix`
		got := Sanitize(input)
		if got != `{"outer": {"inner": 1}}` {
			t.Errorf("期待値 '{\"outer\": {\"inner\": 1}}', 実際の値 '%s'", got)
		}
	})
}
