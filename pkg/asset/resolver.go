// Package asset は成果物の出力パス解決を担います。
// GCS（gs://...）とローカルパスの判別は go-utils/urlpath に委ねます。
package asset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultPageFileName はページ画像の共通のベースファイル名です。
	DefaultPageFileName = "page.png"
	// DefaultStoryboardName は絵コンテJSONのデフォルトファイル名です。
	DefaultStoryboardName = "storyboard.json"
)

// PageFileRegex はページ画像 (page_1.png 等) に一致します。
var PageFileRegex = createIndexedRegex(DefaultPageFileName)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// GenerateIndexedPath はベースパスの拡張子の前にページ番号を挿入します。
// 例: "out/page.png", 3 -> "out/page_3.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}

// createIndexedRegex はファイル名に基づきインデックス付きファイル用の正規表現を生成します。
func createIndexedRegex(fileName string) *regexp.Regexp {
	ext := filepath.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)
	pattern := fmt.Sprintf(`^%s_\d+%s$`, regexp.QuoteMeta(baseName), regexp.QuoteMeta(ext))
	return regexp.MustCompile(pattern)
}
