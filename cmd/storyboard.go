package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// storyboardCmd は、画像生成をスキップして絵コンテJSONの生成だけを行うサブコマンドなのだ。
// 生成した絵コンテを人手で調整してから render で描画する、という分割運用に便利なのだ。
var storyboardCmd = &cobra.Command{
	Use:     "storyboard",
	Short:   "物語原案から絵コンテJSONだけを生成するのだ。",
	Example: "  ap-comic-go storyboard -f story.txt -o output/storyboard.json",
	RunE:    storyboardCommand,
}

func init() {
}

// storyboardCommand は、storyboard サブコマンドの実行ロジック本体なのだ。
func storyboardCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.StoryFile == "" && !isStdin() {
		return fmt.Errorf("物語原案（--story-file または標準入力）を指定してほしいのだ")
	}

	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("絵コンテ生成モードを起動するのだ！", "output", opts.OutputFile)

	return pipeline.ExecuteStoryboardOnly(ctx, cfg)
}
