package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/shouni/go-comic-kit/pkg/domain"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// AssetUploader は参照画像をプロバイダ側のファイル置き場へ事前転送する契約です。
// Gemini の File API のように、URL 直参照より転送済みURIの方が安定する
// バックエンド向けの口で、不要な構成では nil のままで構いません。
type AssetUploader interface {
	UploadFile(ctx context.Context, referenceURL string) (string, error)
}

// prepareReferences は描画対象フレームに登場する全役柄の参照画像を
// 並列で事前転送し、役柄名 → 転送済みURI のマップを返します。
// 同じ役柄が複数フレームに現れても singleflight で転送は1回に抑えるのだ。
func (o *Orchestrator) prepareReferences(ctx context.Context, frames []domain.StoryboardFrame, refs domain.CharacterRefs) (map[string]string, error) {
	resourceMap := make(map[string]string)
	if o.uploader == nil || len(refs) == 0 {
		return resourceMap, nil
	}

	roleSet := make(map[string]struct{})
	for _, frame := range frames {
		for _, role := range frame.UniqueRoles() {
			roleSet[role] = struct{}{}
		}
	}

	var (
		mu    sync.Mutex
		group singleflight.Group
	)
	eg, egCtx := errgroup.WithContext(ctx)

	for role := range roleSet {
		role := role
		eg.Go(func() error {
			ref := refs.Find(role)
			if ref == nil || ref.ReferenceURL == "" {
				return nil
			}

			// 異なる話者表記が同じ参照キャラクターへ解決されることがあるため、
			// 転送の重複排除は解決後の Role をキーに行う。
			val, err, _ := group.Do(ref.Role, func() (interface{}, error) {
				mu.Lock()
				uri, ok := resourceMap[ref.Role]
				mu.Unlock()
				if ok {
					return uri, nil
				}

				uploaded, uploadErr := o.uploader.UploadFile(egCtx, ref.ReferenceURL)
				if uploadErr != nil {
					return nil, uploadErr
				}

				mu.Lock()
				resourceMap[ref.Role] = uploaded
				mu.Unlock()
				return uploaded, nil
			})
			if err != nil {
				return fmt.Errorf("役柄 %s の参照画像の事前転送に失敗しました: %w", role, err)
			}

			if _, ok := val.(string); !ok {
				return fmt.Errorf("singleflight から予期しない型が返りました: %T", val)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return resourceMap, nil
}
