package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-comic-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は各サブコマンドで共有される実行時オプションなのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.StoryFile, "story-file", "f", "", "物語原案ファイルのパス（'-'で標準入力なのだ）。")
	rootCmd.PersistentFlags().StringVarP(&opts.CharacterConfig, "char-config", "c", "", "キャラクターの参照画像情報を定義したJSONパスなのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputFile, "output-file", "o", config.DefaultLocalStoryboard, "絵コンテJSONの保存パス（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputImageDir, "output-image-dir", "i", config.DefaultLocalImageDir, "生成されたページ画像を保存するディレクトリ（ローカル or gs://...）なのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.Provider, "provider", "", "画像生成プロバイダ（forge / taskflow / gemini）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "使用する画像生成モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.StyleSuffix, "style-suffix", "", "画像プロンプトの末尾に付与する画風指定なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "外部APIリクエストのタイムアウトなのだ。")

	// --- 実行制御 ---
	rootCmd.PersistentFlags().IntVarP(&opts.FrameLimit, "frame-limit", "p", config.DefaultFrameLimit, "描画するフレームの最大数を指定するのだ。")
	rootCmd.PersistentFlags().IntVar(&opts.MaxFrames, "max-frames", config.DefaultMaxFrames, "絵コンテに含めるフレーム数の上限なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ClientKey, "client-key", "", "レート制限に使うクライアント識別子なのだ（空なら制限なし）。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// テキスト生成にはチャット補完APIのキーが必須なのだ！
	if os.Getenv("OPENAI_API_KEY") == "" && cmd.Name() != "render" {
		return fmt.Errorf("エラー: 環境変数 OPENAI_API_KEY が設定されていません。物語生成には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"ap-comic-go",
		addAppFlags,
		preRunAppE,
		generateCmd,
		storyboardCmd,
		renderCmd,
	)
}
