package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、物語原案から絵コンテとページ画像までの全工程を実行するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "AIに絵コンテとページ画像を生成させますなのだ。",
	Long: `物語の原案テキストを解析し、構成案、脚本、絵コンテ、そしてページ画像を順に生成するのだ。
出力は絵コンテJSONとページ画像ファイルになるのだよ。`,
	RunE: generateCommand,
}

func init() {
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.StoryFile == "" && !isStdin() {
		return fmt.Errorf("物語原案（--story-file または標準入力）を指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("コミック生成パイプラインを起動するのだ！",
		"provider", cfg.ImageProvider,
		"image_model", opts.ImageModel,
		"output", opts.OutputFile)

	// 3. 更新した config を考慮しつつパイプラインを実行するのだ
	if err := pipeline.Execute(ctx, cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
