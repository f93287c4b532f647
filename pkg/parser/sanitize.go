package parser

import "strings"

// Sanitize はモデルの生テキストから JSON 本体を抽出するベストエフォート処理です。
// コードフェンス（```json 等）を剥がした後、最初の '{' から最後の '}' までを
// 切り出します。どちらかが見つからない場合はトリム済みテキストをそのまま返します。
// 完全なパーサではありませんが、冪等であることを保証するのだ。
func Sanitize(raw string) string {
	text := StripFences(raw)

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last != -1 && last > first {
		return text[first : last+1]
	}

	return text
}

// StripFences は先頭と末尾のトリプルバッククォート行を取り除きます。
// 言語タグ（```json）の有無は問いません。フェンスがなければトリムのみ行います。
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx != -1 {
			text = text[idx+1:]
		} else {
			// フェンス行しかない入力。中身は空とみなす。
			return ""
		}
	}

	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSuffix(text, "```")
	}

	return strings.TrimSpace(text)
}
