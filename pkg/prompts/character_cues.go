package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// BuildCharacterCues はフレームに登場する役柄の外見特徴（VisualCues）を
// 列挙するキャラクター設定セクションを合成します。参照画像だけでは
// モデルが髪色や衣装を取り違えることがあるため、文字でも念押しするのだ。
// 登録済みの特徴を持つ役柄が1つもなければ空文字を返します。
func BuildCharacterCues(frame domain.StoryboardFrame, refs domain.CharacterRefs) string {
	if len(refs) == 0 {
		return ""
	}

	var lines []string
	for _, role := range frame.UniqueRoles() {
		if len(lines) >= maxHintRoles {
			break
		}
		ref := refs.Find(role)
		if ref == nil || len(ref.VisualCues) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, strings.Join(ref.VisualCues, ", ")))
	}

	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("### CHARACTER IDENTITY ###\n")
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}
