package compositor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-postcraft-kit/pkg/asset"
)

// Fetcher は http(s) の画像参照を取得します。httpkit.Client が満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// sourceLoader は画像参照をデコードし、参照のハッシュ単位でキャッシュします。
type sourceLoader struct {
	fetcher Fetcher
	cache   *cache.Cache
	group   singleflight.Group
}

func newSourceLoader(fetcher Fetcher, ttl time.Duration) *sourceLoader {
	return &sourceLoader{
		fetcher: fetcher,
		cache:   cache.New(ttl, 2*ttl),
	}
}

func cacheKey(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return hex.EncodeToString(sum[:])
}

// Load は参照を画像に変換します。同じ参照への同時要求は1回のデコードにまとめます。
// まとめた取得はどの呼び出し元のキャンセルにも影響されず、キャンセルした呼び出し元だけが先に戻ります。
func (l *sourceLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	key := cacheKey(ref)
	if v, ok := l.cache.Get(key); ok {
		if img, ok := v.(image.Image); ok {
			return img, nil
		}
	}

	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (interface{}, error) {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		data, err := l.fetch(shared, ref)
		if err != nil {
			return nil, err
		}
		img, err := decodeImage(data)
		if err != nil {
			return nil, err
		}
		l.cache.SetDefault(key, img)
		return img, nil
	})

	var val interface{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		val = res.Val
	}

	img, ok := val.(image.Image)
	if !ok {
		return nil, fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return img, nil
}

func (l *sourceLoader) fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case asset.IsDataURI(ref):
		_, data, err := asset.ParseDataURI(ref)
		return data, err
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.fetcher.FetchBytes(ctx, ref)
	default:
		return nil, errors.New("unsupported image reference scheme")
	}
}

func decodeImage(data []byte) (image.Image, error) {
	if isWEBP(data) {
		return webp.Decode(bytes.NewReader(data), &decoder.Options{})
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func isWEBP(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	return string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}
