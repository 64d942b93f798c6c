package dashboard

import (
	"time"

	"github.com/arjunmk/postpilot/internal/models"
)

// Badge style classes per post status. Anything unrecognized renders with
// the default badge.
var statusBadgeClasses = map[string]string{
	models.PostStatusDraft:     "badge-secondary",
	models.PostStatusApproved:  "badge-info",
	models.PostStatusScheduled: "badge-warning",
	models.PostStatusPosted:    "badge-success",
	models.PostStatusFailed:    "badge-danger",
}

const defaultBadgeClass = "badge-light"

func StatusBadgeClass(status string) string {
	if class, ok := statusBadgeClasses[status]; ok {
		return class
	}
	return defaultBadgeClass
}

// Each status offers at most one forward action: drafts can be approved,
// approved posts can be published. Everything else is read-only.
func CanApprove(status string) bool {
	return status == models.PostStatusDraft
}

func CanPublish(status string) bool {
	return status == models.PostStatusApproved
}

type PostView struct {
	ID           int64
	Content      string
	Hashtags     []string
	Status       string
	BadgeClass   string
	ImageURL     string
	ScheduledAt  string
	PostedAt     string
	ErrorMessage string
	CanApprove   bool
	CanPublish   bool
}

type AccountView struct {
	ID       int64
	Platform string
	Name     string
}

// NewPostView prepares a post for template rendering. Optional fields stay
// empty strings so templates can skip them entirely.
func NewPostView(post *models.Post) PostView {
	view := PostView{
		ID:           post.ID,
		Content:      post.Content,
		Hashtags:     post.Hashtags,
		Status:       post.Status,
		BadgeClass:   StatusBadgeClass(post.Status),
		ImageURL:     post.ImageURL,
		ErrorMessage: post.ErrorMessage,
		CanApprove:   CanApprove(post.Status),
		CanPublish:   CanPublish(post.Status),
	}
	if post.ScheduledAt != nil {
		view.ScheduledAt = post.ScheduledAt.Format(time.RFC822)
	}
	if post.PostedAt != nil {
		view.PostedAt = post.PostedAt.Format(time.RFC822)
	}
	return view
}

func NewAccountView(account *models.SocialAccount) AccountView {
	return AccountView{
		ID:       account.ID,
		Platform: account.Platform,
		Name:     account.AccountName,
	}
}

// PostViews regenerates the whole list on every change; there is no
// incremental patching.
func PostViews(posts []*models.Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		views = append(views, NewPostView(post))
	}
	return views
}

func AccountViews(accounts []*models.SocialAccount) []AccountView {
	views := make([]AccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, NewAccountView(account))
	}
	return views
}
