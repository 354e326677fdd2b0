package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/security"
)

// Importer は外部URLからの画像インポートを提供する。
// 指定URLが画像ならそのまま取得し、HTMLページならog:imageメタタグを
// 解決してから画像を取得する。取得にはSSRF防止付きクライアントを使用する。
type Importer struct {
	guard   security.SSRFGuardService
	service *Service
	client  *http.Client
	maxSize int64
}

// NewImporter はImporterを生成する。
func NewImporter(guard security.SSRFGuardService, service *Service, timeout time.Duration, maxSize int64) *Importer {
	return &Importer{
		guard:   guard,
		service: service,
		client:  guard.NewSafeClient(timeout, maxSize),
		maxSize: maxSize,
	}
}

// ImportFromURL は外部URLから画像を取り込み、アップロード済みメタデータを返す。
func (i *Importer) ImportFromURL(ctx context.Context, rawURL string) (*model.UploadedImage, error) {
	if err := i.guard.ValidateURL(rawURL); err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}

	contentType, body, err := i.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	// HTMLページの場合はog:imageを解決して画像を取得し直す
	if strings.HasPrefix(contentType, "text/html") {
		imageURL, ok := findOGImage(body)
		if !ok {
			return nil, model.NewFetchFailedError("ページにog:imageが見つかりません")
		}
		if err := i.guard.ValidateURL(imageURL); err != nil {
			return nil, model.NewInvalidURLError(err.Error())
		}
		rawURL = imageURL
		contentType, body, err = i.fetch(ctx, imageURL)
		if err != nil {
			return nil, err
		}
	}

	mimeType := normalizeContentType(contentType)
	return i.service.Upload(ctx, fileNameFromURL(rawURL), mimeType, body)
}

// fetch はSSRF防止付きクライアントでURLを取得する。
// レスポンスボディはサイズ上限までしか読み込まない。
func (i *Importer) fetch(ctx context.Context, rawURL string) (contentType string, body []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, model.NewInvalidURLError(err.Error())
	}

	resp, err := i.client.Do(req)
	if err != nil {
		// safeurlのDialerがブロックした場合もここに到達する
		return "", nil, model.NewSSRFBlockedError()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, model.NewFetchFailedError(fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	// 上限+1バイト読んで超過を検出する
	body, err = io.ReadAll(io.LimitReader(resp.Body, i.maxSize+1))
	if err != nil {
		return "", nil, model.NewFetchFailedError(err.Error())
	}
	if int64(len(body)) > i.maxSize {
		return "", nil, model.NewPayloadTooLargeError(i.maxSize)
	}

	return resp.Header.Get("Content-Type"), body, nil
}

// findOGImage はHTMLからog:imageメタタグのcontent属性を探す。
func findOGImage(page []byte) (string, bool) {
	doc, err := html.Parse(strings.NewReader(string(page)))
	if err != nil {
		return "", false
	}

	var imageURL string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if imageURL != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var property, content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "property", "name":
					property = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if property == "og:image" && content != "" {
				imageURL = content
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return imageURL, imageURL != ""
}

// normalizeContentType はContent-Typeヘッダーからパラメータを除いたMIMEタイプを返す。
func normalizeContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(strings.ToLower(contentType))
}

// fileNameFromURL はURLのパス末尾からファイル名を導出する。
func fileNameFromURL(rawURL string) string {
	trimmed := rawURL
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	name := path.Base(trimmed)
	if name == "" || name == "." || name == "/" || strings.Contains(name, "://") {
		return "imported-image"
	}
	return name
}
