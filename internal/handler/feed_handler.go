package handler

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/jbbc/jbbc-api/internal/content"
)

// RSSフィードに含める最大アイテム数。
const feedItemLimit = 20

// rssFeed はRSS 2.0のルート要素。
type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description,omitempty"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
}

// feedEntry はフィード組み立て用の中間表現。
type feedEntry struct {
	title       string
	link        string
	description string
	guid        string
	publishedAt time.Time
}

// FeedHandler は公開コンテンツのRSSフィードを配信する。
type FeedHandler struct {
	announcements *content.AnnouncementService
	blog          *content.BlogService
	baseURL       string
	siteTitle     string
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(announcements *content.AnnouncementService, blog *content.BlogService, baseURL, siteTitle string) *FeedHandler {
	return &FeedHandler{
		announcements: announcements,
		blog:          blog,
		baseURL:       baseURL,
		siteTitle:     siteTitle,
	}
}

// Serve は公開済みのお知らせとブログ記事をまとめたRSS 2.0フィードを返す。
func (h *FeedHandler) Serve(w http.ResponseWriter, r *http.Request) {
	entries, err := h.collectEntries(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].publishedAt.After(entries[j].publishedAt)
	})
	if len(entries) > feedItemLimit {
		entries = entries[:feedItemLimit]
	}

	items := make([]rssItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, rssItem{
			Title:       e.title,
			Link:        e.link,
			Description: e.description,
			GUID:        e.guid,
			PubDate:     e.publishedAt.Format(time.RFC1123Z),
		})
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       h.siteTitle,
			Link:        h.baseURL,
			Description: h.siteTitle + " の新着情報",
			Language:    "ja",
			Items:       items,
		},
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		slog.Error("failed to write rss feed", slog.String("error", err.Error()))
		return
	}
	if err := xml.NewEncoder(w).Encode(feed); err != nil {
		// ヘッダー送信済みなのでステータスコードは変更できない
		slog.Error("failed to encode rss feed", slog.String("error", err.Error()))
	}
}

func (h *FeedHandler) collectEntries(r *http.Request) ([]feedEntry, error) {
	announcements, err := h.announcements.List(r.Context(), true, feedItemLimit, 0)
	if err != nil {
		return nil, err
	}
	posts, err := h.blog.List(r.Context(), true, feedItemLimit, 0)
	if err != nil {
		return nil, err
	}

	entries := make([]feedEntry, 0, len(announcements)+len(posts))
	for _, a := range announcements {
		if a.PublishedAt == nil {
			continue
		}
		entries = append(entries, feedEntry{
			title:       a.Title,
			link:        fmt.Sprintf("%s/news/%s", h.baseURL, a.Slug),
			description: a.Excerpt,
			guid:        a.ID,
			publishedAt: *a.PublishedAt,
		})
	}
	for _, p := range posts {
		if p.PublishedAt == nil {
			continue
		}
		entries = append(entries, feedEntry{
			title:       p.Title,
			link:        fmt.Sprintf("%s/blog/%s", h.baseURL, p.Slug),
			description: p.Excerpt,
			guid:        p.ID,
			publishedAt: *p.PublishedAt,
		})
	}
	return entries, nil
}
