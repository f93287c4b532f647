package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// CharacterRef は役柄名に紐づく参照情報（参照画像と外見上の特徴）です。
// ReferenceURL は過去に生成した画像の所在で、フレーム間の見た目の一貫性を
// 保つために画像生成プロバイダへ渡します。
type CharacterRef struct {
	Role         string   `json:"role"`
	ReferenceURL string   `json:"reference_url"`
	VisualCues   []string `json:"visual_cues,omitempty"`
}

// CharacterRefs は役柄名をキーとした参照画像の検索用マップなのだ。
// パイプラインからは読み取り専用として扱い、決して変更しません。
type CharacterRefs map[string]CharacterRef

// LoadCharacterRefs はJSONバイト列から参照マップをパースして返します。
func LoadCharacterRefs(data []byte) (CharacterRefs, error) {
	var refs CharacterRefs
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("キャラクター参照情報のJSONパースに失敗しました: %w", err)
	}
	return refs, nil
}

// Find は役柄名から参照情報を引き当てます。
// モデル出力の役柄名には表記ゆれがあるため、完全一致 → 小文字化 →
// 末尾セパレータ除去 → 前方一致、の順で許容的に探索するのだ。
func (m CharacterRefs) Find(role string) *CharacterRef {
	if m == nil || role == "" {
		return nil
	}

	if ref, ok := m[role]; ok {
		res := ref
		return &res
	}

	normalized := normalizeRole(role)
	if ref, ok := m[normalized]; ok {
		res := ref
		return &res
	}

	// 登録キー側を正規化して突き合わせる。前方一致は
	// "hero (young)" → "hero" のような修飾付き役柄名を救うため。
	for key, ref := range m {
		k := normalizeRole(key)
		if k == normalized {
			res := ref
			return &res
		}
		if strings.HasPrefix(normalized, k+" ") || strings.HasPrefix(k, normalized+" ") {
			res := ref
			return &res
		}
	}

	return nil
}

// URLs は登録されている参照URLをキーの昇順で返します。
// マップ走査の順序ゆらぎを避けるため、常にソートしてから返すのだ。
func (m CharacterRefs) URLs() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	urls := make([]string, 0, len(keys))
	for _, k := range keys {
		if u := m[k].ReferenceURL; u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// normalizeRole は役柄名の表記ゆれ（大文字小文字・末尾の区切り記号）を正規化します。
func normalizeRole(role string) string {
	s := strings.ToLower(strings.TrimSpace(role))
	s = strings.TrimRight(s, ":：-・ 　")
	return s
}
