// Package storage はページ成果物の保存契約を提供します。
// パイプライン本体は保存先の実装（GCS/ローカル）を知らず、
// 「保存したら参照URLが返る」ことだけを前提にします。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/pkg/asset"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// Artifact は保存対象の成果物です。プロバイダが URL を返した場合は URL のみ、
// バイト列を返した場合は Data / MimeType が入ります。
type Artifact struct {
	URL      string
	Data     []byte
	MimeType string
}

// PageStore はページ番号付きで成果物を保存し、参照URLを払い出す契約です。
type PageStore interface {
	Save(ctx context.Context, art Artifact, pageNumber int) (string, error)
}

// RemoteStore は remoteio.OutputWriter に委譲する PageStore 実装です。
// 書き込み先が GCS かローカルかは writer の実装が吸収します。
type RemoteStore struct {
	writer   remoteio.OutputWriter
	basePath string // page_N.png を展開するベースパス
}

// NewRemoteStore は出力先ディレクトリと writer から RemoteStore を初期化します。
func NewRemoteStore(writer remoteio.OutputWriter, outputDir string) (*RemoteStore, error) {
	if writer == nil {
		return nil, fmt.Errorf("OutputWriter は必須です")
	}

	basePath, err := asset.ResolveOutputPath(outputDir, asset.DefaultPageFileName)
	if err != nil {
		return nil, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}

	return &RemoteStore{writer: writer, basePath: basePath}, nil
}

// Save は成果物を page_N.png として書き込み、そのパスを返します。
// プロバイダ側で既にホストされている URL はそのまま返すのだ。
func (s *RemoteStore) Save(ctx context.Context, art Artifact, pageNumber int) (string, error) {
	if len(art.Data) == 0 {
		if art.URL == "" {
			return "", fmt.Errorf("保存対象が空です (page: %d)", pageNumber)
		}
		return art.URL, nil
	}

	pagePath, err := asset.GenerateIndexedPath(s.basePath, pageNumber)
	if err != nil {
		return "", fmt.Errorf("ページ %d の出力パス生成に失敗しました: %w", pageNumber, err)
	}

	mime := art.MimeType
	if mime == "" {
		mime = "image/png"
	}

	slog.InfoContext(ctx, "ページ画像を保存しています", "page", pageNumber, "path", pagePath)
	if err := s.writer.Write(ctx, pagePath, bytes.NewReader(art.Data), mime); err != nil {
		return "", fmt.Errorf("第 %d ページの保存に失敗しました (path: %s): %w", pageNumber, pagePath, err)
	}

	return pagePath, nil
}
