package parser

import (
	"errors"
	"fmt"
)

// ErrStructural は修復不可能な構造違反（必須フィールド・配列の欠落）を表します。
// 値域の逸脱は修復しますが、構造の欠落は推測で埋めずにステージごと失敗させるのだ。
var ErrStructural = errors.New("structural validation failed")

// structuralErr はフィールドパス付きの構造違反エラーを生成します。
func structuralErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructural, fmt.Sprintf(format, args...))
}
