package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"

	"github.com/jbbc/jbbc-api/internal/model"
)

// htmlBodyTemplate は配信メールのHTML本文テンプレート。
// 本文はサニタイズ済みHTMLなのでエスケープせずに埋め込む。
const htmlBodyTemplate = `<!DOCTYPE html>
<html lang="ja">
<body>
<h1>{{.Title}}</h1>
{{if .Excerpt}}<p>{{.Excerpt}}</p>{{end}}
{{.BodyHTML}}
<p><a href="{{.ContentURL}}">Webサイトで読む</a></p>
<hr>
<p style="font-size: 12px; color: #888;">
このメールはメール配信にご登録いただいた方にお送りしています。<br>
配信を停止する場合は<a href="{{.UnsubscribeURL}}">こちら</a>からお手続きください。
</p>
</body>
</html>
`

// textBodyTemplate は配信メールのプレーンテキスト本文テンプレート。
const textBodyTemplate = `{{.Title}}

{{if .Excerpt}}{{.Excerpt}}

{{end}}Webサイトで読む: {{.ContentURL}}

--
配信停止はこちら: {{.UnsubscribeURL}}
`

// subjectPrefixes はコンテンツ種別ごとの件名プレフィックス。
var subjectPrefixes = map[model.ContentType]string{
	model.ContentTypeAnnouncement: "【お知らせ】",
	model.ContentTypeNewsletter:   "【メールマガジン】",
	model.ContentTypeSeminar:      "【セミナー】",
}

// contentPathSegments はコンテンツ種別ごとの公開サイトのパスセグメント。
var contentPathSegments = map[model.ContentType]string{
	model.ContentTypeAnnouncement: "news",
	model.ContentTypeNewsletter:   "newsletter",
	model.ContentTypeSeminar:      "seminars",
}

// Renderer は配信ペイロードからメール内容を組み立てる。
type Renderer struct {
	baseURL  string
	htmlTmpl *template.Template
	textTmpl *texttemplate.Template
}

// NewRenderer はRendererを生成する。baseURLは公開サイトのルートURL。
// テンプレートのパースに失敗した場合はエラーを返す。
func NewRenderer(baseURL string) (*Renderer, error) {
	htmlTmpl, err := template.New("mail_html").Parse(htmlBodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("HTMLテンプレートのパースに失敗しました: %w", err)
	}
	textTmpl, err := texttemplate.New("mail_text").Parse(textBodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("テキストテンプレートのパースに失敗しました: %w", err)
	}
	return &Renderer{
		baseURL:  baseURL,
		htmlTmpl: htmlTmpl,
		textTmpl: textTmpl,
	}, nil
}

// templateData はテンプレートに渡すデータ。
type templateData struct {
	Title          string
	Excerpt        string
	BodyHTML       template.HTML
	ContentURL     string
	UnsubscribeURL string
}

// Render は配信ペイロードからメール内容をレンダリングする。
func (r *Renderer) Render(payload *model.NotificationPayload) (*Message, error) {
	segment, ok := contentPathSegments[payload.ContentType]
	if !ok {
		return nil, fmt.Errorf("未対応のコンテンツ種別です: %s", payload.ContentType)
	}

	data := templateData{
		Title:   payload.Title,
		Excerpt: payload.Excerpt,
		// 本文は保存前にサニタイズ済み
		BodyHTML:       template.HTML(payload.Body),
		ContentURL:     fmt.Sprintf("%s/%s/%s", r.baseURL, segment, payload.Slug),
		UnsubscribeURL: fmt.Sprintf("%s/unsubscribe", r.baseURL),
	}

	var htmlBuf bytes.Buffer
	if err := r.htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("HTML本文のレンダリングに失敗しました: %w", err)
	}

	var textBuf bytes.Buffer
	if err := r.textTmpl.Execute(&textBuf, data); err != nil {
		return nil, fmt.Errorf("テキスト本文のレンダリングに失敗しました: %w", err)
	}

	return &Message{
		Subject: subjectPrefixes[payload.ContentType] + payload.Title,
		HTML:    htmlBuf.String(),
		Text:    textBuf.String(),
	}, nil
}
