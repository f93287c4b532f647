package asset

import "testing"

func TestPageFileRegex(t *testing.T) {
	cases := []struct {
		name   string
		expect bool
	}{
		{"page_1.png", true},
		{"page_42.png", true},
		{"page.png", false},
		{"page_1.jpg", false},
		{"cover_1.png", false},
		{"page_1.png.bak", false},
	}

	for _, c := range cases {
		if got := PageFileRegex.MatchString(c.name); got != c.expect {
			t.Errorf("'%s': 期待値 %v, 実際の値 %v", c.name, c.expect, got)
		}
	}
}

func TestCreateIndexedRegex(t *testing.T) {
	re := createIndexedRegex("storyboard.json")
	if !re.MatchString("storyboard_3.json") {
		t.Error("インデックス付きファイル名に一致しませんでした")
	}
	if re.MatchString("storyboard.json") {
		t.Error("インデックスなしのファイル名に一致してしまいました")
	}
}
