package domain

import "testing"

func TestStoryOutline_CharacterNames(t *testing.T) {
	t.Run("定義順に全キャラクター名が返ること", func(t *testing.T) {
		o := &StoryOutline{Characters: []OutlineCharacter{
			{Name: "少年", Role: "主人公"},
			{Name: "姫", Role: "ヒロイン"},
		}}

		names := o.CharacterNames()
		if len(names) != 2 || names[0] != "少年" || names[1] != "姫" {
			t.Errorf("期待値 [少年 姫], 実際の値 %v", names)
		}
	})

	t.Run("キャラクター定義がなければ空スライスを返すこと", func(t *testing.T) {
		o := &StoryOutline{}
		if names := o.CharacterNames(); len(names) != 0 {
			t.Errorf("期待値 空, 実際の値 %v", names)
		}
	})
}
