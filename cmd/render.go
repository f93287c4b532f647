package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// renderCmd は、既存の絵コンテJSONファイルを読み込んで画像生成フェーズだけを実行するのだ。
// テキスト生成のコストを抑えつつ、画像の再生成や調整を行いたい場合に便利なのだ。
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "絵コンテJSONからページ画像を生成して保存するのだ。",
	Long: `すでに生成・修正済みの絵コンテJSONファイルを読み込み、ページ画像の生成と保存を実行するのだ。
構成案や脚本の生成をスキップして、描画フェーズだけを回せるのだよ。`,
	RunE: renderCommand,
}

// init は、render コマンドに必要なフラグを定義し、コマンド体系に登録するための初期化関数なのだ。
func init() {
	renderCmd.Flags().StringVarP(&opts.StoryboardFile, "storyboard-file", "s", config.DefaultLocalStoryboard, "読み込む絵コンテJSONのパスなのだ。")
}

// renderCommand は、render サブコマンドの実行ロジック本体なのだ。
func renderCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.StoryboardFile == "" {
		return fmt.Errorf("読み込む絵コンテJSON（--storyboard-file）を指定してほしいのだ")
	}

	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("画像生成モードを起動するのだ！",
		"input_json", opts.StoryboardFile,
		"image_dir", opts.OutputImageDir,
		"image_model", opts.ImageModel)

	return pipeline.ExecuteRenderOnly(ctx, cfg)
}
