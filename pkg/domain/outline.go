package domain

// StoryOutline は AI モデルが最初に生成する物語の構成案全体です。
// 一度生成されたら以降のステージからは読み取り専用として扱います。
type StoryOutline struct {
	Overview   OutlineOverview  `json:"overview"`
	Chapters   []OutlineChapter `json:"chapters"`
	Characters []OutlineCharacter `json:"characters"`
}

// OutlineOverview は作品全体のメタ情報（タイトル・ログライン等）を保持します。
type OutlineOverview struct {
	Title               string `json:"title"`
	Logline             string `json:"logline"`
	Theme               string `json:"theme,omitempty"`
	Tone                string `json:"tone,omitempty"`
	Audience            string `json:"audience,omitempty"`
	PageCountSuggestion int    `json:"pageCountSuggestion,omitempty"`
}

// OutlineChapter は章単位の要約情報です。
type OutlineChapter struct {
	ChapterID int      `json:"chapterId"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	KeyScenes []string `json:"keyScenes,omitempty"`
}

// OutlineCharacter は構成案に登場するキャラクターの定義です。
// Visual は画像生成ステージで外見の一貫性を保つためのヒントになります。
type OutlineCharacter struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
	Visual      string `json:"visual,omitempty"`
}

// CharacterNames は構成案に含まれる全キャラクター名を定義順に返します。
func (o *StoryOutline) CharacterNames() []string {
	names := make([]string, 0, len(o.Characters))
	for _, c := range o.Characters {
		names = append(names, c.Name)
	}
	return names
}
