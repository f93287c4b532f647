package domain

// ModelCandidate はフォールバックチェーンの1エントリ（順序付きモデル候補）です。
// Options はそのモデル固有の生成パラメータ上書きで、状態は持ちません。
type ModelCandidate struct {
	Model   string         `json:"model"`
	Options map[string]any `json:"options,omitempty"`
}
