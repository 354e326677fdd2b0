package handler

import (
	"time"

	"github.com/jbbc/jbbc-api/internal/fanout"
	"github.com/jbbc/jbbc-api/internal/model"
)

// announcementResponse はお知らせのレスポンスDTO。
type announcementResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body"`
	Excerpt     string     `json:"excerpt,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toAnnouncementResponse(a *model.Announcement) *announcementResponse {
	return &announcementResponse{
		ID:          a.ID,
		Title:       a.Title,
		Slug:        a.Slug,
		Body:        a.Body,
		Excerpt:     a.Excerpt,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toAnnouncementResponses(items []*model.Announcement) []*announcementResponse {
	out := make([]*announcementResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAnnouncementResponse(a))
	}
	return out
}

// newsletterResponse はメールマガジンのレスポンスDTO。
type newsletterResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body"`
	Excerpt     string     `json:"excerpt,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toNewsletterResponse(n *model.Newsletter) *newsletterResponse {
	return &newsletterResponse{
		ID:          n.ID,
		Title:       n.Title,
		Slug:        n.Slug,
		Body:        n.Body,
		Excerpt:     n.Excerpt,
		PublishedAt: n.PublishedAt,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func toNewsletterResponses(items []*model.Newsletter) []*newsletterResponse {
	out := make([]*newsletterResponse, 0, len(items))
	for _, n := range items {
		out = append(out, toNewsletterResponse(n))
	}
	return out
}

// seminarResponse はセミナーのレスポンスDTO。
type seminarResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Body            string     `json:"body"`
	Excerpt         string     `json:"excerpt,omitempty"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	Location        string     `json:"location,omitempty"`
	SpeakerName     string     `json:"speaker_name,omitempty"`
	SpeakerTitle    string     `json:"speaker_title,omitempty"`
	RegistrationURL string     `json:"registration_url,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toSeminarResponse(s *model.Seminar) *seminarResponse {
	return &seminarResponse{
		ID:              s.ID,
		Title:           s.Title,
		Slug:            s.Slug,
		Body:            s.Body,
		Excerpt:         s.Excerpt,
		StartsAt:        s.StartsAt,
		EndsAt:          s.EndsAt,
		Location:        s.Location,
		SpeakerName:     s.SpeakerName,
		SpeakerTitle:    s.SpeakerTitle,
		RegistrationURL: s.RegistrationURL,
		PublishedAt:     s.PublishedAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toSeminarResponses(items []*model.Seminar) []*seminarResponse {
	out := make([]*seminarResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toSeminarResponse(s))
	}
	return out
}

// blogPostResponse はブログ記事のレスポンスDTO。
type blogPostResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Body          string     `json:"body"`
	Excerpt       string     `json:"excerpt,omitempty"`
	CoverImageURL string     `json:"cover_image_url,omitempty"`
	LikeCount     int        `json:"like_count"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toBlogPostResponse(p *model.BlogPost) *blogPostResponse {
	return &blogPostResponse{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Body:          p.Body,
		Excerpt:       p.Excerpt,
		CoverImageURL: p.CoverImageURL,
		LikeCount:     p.LikeCount,
		PublishedAt:   p.PublishedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toBlogPostResponses(items []*model.BlogPost) []*blogPostResponse {
	out := make([]*blogPostResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toBlogPostResponse(p))
	}
	return out
}

// subscriberResponse は購読者のレスポンスDTO。管理画面用。
type subscriberResponse struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toSubscriberResponse(s *model.Subscriber) *subscriberResponse {
	return &subscriberResponse{
		ID:             s.ID,
		Email:          s.Email,
		UnsubscribedAt: s.UnsubscribedAt,
		CreatedAt:      s.CreatedAt,
	}
}

// adminUserResponse は管理者のレスポンスDTO。パスワードハッシュは含めない。
type adminUserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAdminUserResponse(a *model.AdminUser) *adminUserResponse {
	return &adminUserResponse{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// uploadedImageResponse はアップロード済みファイルのレスポンスDTO。
type uploadedImageResponse struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

func toUploadedImageResponse(img *model.UploadedImage) *uploadedImageResponse {
	return &uploadedImageResponse{
		ID:        img.ID,
		FileName:  img.FileName,
		MimeType:  img.MimeType,
		URL:       img.URL,
		SizeBytes: img.SizeBytes,
		CreatedAt: img.CreatedAt,
	}
}

// notificationResponse は配信監査レコードのレスポンスDTO。
type notificationResponse struct {
	ID          string    `json:"id"`
	ContentType string    `json:"content_type"`
	ContentID   string    `json:"content_id"`
	Recipient   string    `json:"recipient"`
	SentAt      time.Time `json:"sent_at"`
}

func toNotificationResponses(items []*model.Notification) []*notificationResponse {
	out := make([]*notificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, &notificationResponse{
			ID:          n.ID,
			ContentType: string(n.ContentType),
			ContentID:   n.ContentID,
			Recipient:   n.Recipient,
			SentAt:      n.SentAt,
		})
	}
	return out
}

// fanoutJobResponse は配信ジョブのレスポンスDTO。
type fanoutJobResponse struct {
	ID            string     `json:"id"`
	ContentType   string     `json:"content_type"`
	ContentID     string     `json:"content_id"`
	Title         string     `json:"title"`
	Status        string     `json:"status"`
	EnqueuedAt    time.Time  `json:"enqueued_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Pages         int        `json:"pages,omitempty"`
	Batches       int        `json:"batches,omitempty"`
	SentBatches   int        `json:"sent_batches,omitempty"`
	FailedBatches int        `json:"failed_batches,omitempty"`
	Recipients    int        `json:"recipients,omitempty"`
	Error         string     `json:"error,omitempty"`
}

func toFanoutJobResponse(job *fanout.Job) *fanoutJobResponse {
	resp := &fanoutJobResponse{
		ID:          job.ID,
		ContentType: string(job.ContentType),
		ContentID:   job.ContentID,
		Title:       job.Title,
		Status:      string(job.Status),
		EnqueuedAt:  job.EnqueuedAt,
		StartedAt:   job.StartedAt,
		FinishedAt:  job.FinishedAt,
		Error:       job.Error,
	}
	if job.Result != nil {
		resp.Pages = job.Result.Pages
		resp.Batches = job.Result.Batches
		resp.SentBatches = job.Result.SentBatches
		resp.FailedBatches = job.Result.FailedBatches
		resp.Recipients = job.Result.Recipients
	}
	return resp
}
