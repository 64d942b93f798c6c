package dashboard

import (
	"context"
	"sync"

	"github.com/arjunmk/postpilot/internal/models"
	"github.com/arjunmk/postpilot/internal/transfer"
)

// Notifier receives the transient messages the dashboard shows as toasts.
type Notifier interface {
	Notify(level, message string)
}

const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// PostForm carries the compose form's fields between renders.
type PostForm struct {
	AccountID   int64
	Content     string
	ImageURL    string
	ImagePrompt string
	ScheduledAt string
}

func (f *PostForm) Reset() {
	f.Content = ""
	f.ImageURL = ""
	f.ImagePrompt = ""
	f.ScheduledAt = ""
}

// Controller drives the dashboard. It keeps the last fetched account and
// post lists as immutable snapshots, replaced wholesale after every
// mutation; there is no optimistic local state and no partial merge. Each
// user action issues exactly one request and refetches on success.
//
// Rapid repeated actions are not de-duplicated: the only in-flight guard is
// the busy flag around image generation.
type Controller struct {
	client   *Client
	notifier Notifier

	mu         sync.Mutex
	accounts   []*models.SocialAccount
	posts      []*models.Post
	form       PostForm
	generating bool
}

func NewController(client *Client, notifier Notifier) *Controller {
	return &Controller{
		client:   client,
		notifier: notifier,
		accounts: []*models.SocialAccount{},
		posts:    []*models.Post{},
	}
}

func (c *Controller) Accounts() []*models.SocialAccount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accounts
}

func (c *Controller) Posts() []*models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posts
}

func (c *Controller) Form() PostForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

func (c *Controller) SetForm(form PostForm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = form
}

func (c *Controller) IsGenerating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

func (c *Controller) RefreshAccounts(ctx context.Context) error {
	accounts, err := c.client.ListAccounts(ctx)
	if err != nil {
		c.notifier.Notify(LevelError, "Failed to load accounts: "+err.Error())
		return err
	}

	c.mu.Lock()
	c.accounts = accounts
	c.mu.Unlock()
	return nil
}

func (c *Controller) RefreshPosts(ctx context.Context) error {
	posts, err := c.client.ListPosts(ctx)
	if err != nil {
		c.notifier.Notify(LevelError, "Failed to load posts: "+err.Error())
		return err
	}

	c.mu.Lock()
	c.posts = posts
	c.mu.Unlock()
	return nil
}

// ConnectFacebook fetches the OAuth dialog URL for the account popup.
func (c *Controller) ConnectFacebook(ctx context.Context) (string, error) {
	authURL, err := c.client.FacebookLoginURL(ctx)
	if err != nil {
		c.notifier.Notify(LevelError, "Failed to start Facebook connection: "+err.Error())
		return "", err
	}
	return authURL, nil
}

// DisconnectAccount removes an account link after the user confirmed.
// Declining is a no-op, not an error.
func (c *Controller) DisconnectAccount(ctx context.Context, accountID int64, confirmed bool) {
	if !confirmed {
		return
	}

	if err := c.client.DisconnectAccount(ctx, accountID); err != nil {
		c.notifier.Notify(LevelError, "Failed to disconnect account: "+err.Error())
		return
	}

	c.notifier.Notify(LevelSuccess, "Account disconnected")
	c.RefreshAccounts(ctx)
}

// CreatePost validates the form, derives hashtags from the content and
// submits the draft. Validation failures never reach the network and leave
// the form untouched; only a successful submission clears it.
func (c *Controller) CreatePost(ctx context.Context, form PostForm) {
	if form.Content == "" {
		c.notifier.Notify(LevelWarning, "Please enter post content")
		return
	}
	if form.AccountID == 0 {
		c.notifier.Notify(LevelWarning, "Please select an account")
		return
	}

	c.SetForm(form)

	pc := &transfer.PostCreation{
		AccountID:   form.AccountID,
		Content:     form.Content,
		ImageURL:    form.ImageURL,
		ImagePrompt: form.ImagePrompt,
		ScheduledAt: form.ScheduledAt,
		Hashtags:    ExtractHashtags(form.Content),
	}

	if _, err := c.client.CreatePost(ctx, pc); err != nil {
		c.notifier.Notify(LevelError, "Failed to create post: "+err.Error())
		return
	}

	c.mu.Lock()
	c.form.Reset()
	c.mu.Unlock()

	c.notifier.Notify(LevelSuccess, "Post created")
	c.RefreshPosts(ctx)
}

// Approve requests the draft's transition to approved. The server owns the
// lifecycle; on rejection the list simply re-renders unchanged.
func (c *Controller) Approve(ctx context.Context, postID int64) {
	if _, err := c.client.ApprovePost(ctx, postID); err != nil {
		c.notifier.Notify(LevelError, "Failed to approve post: "+err.Error())
		return
	}

	c.notifier.Notify(LevelSuccess, "Post approved")
	c.RefreshPosts(ctx)
}

// Publish pushes an approved post out immediately. The user confirms
// first; declining is a no-op.
func (c *Controller) Publish(ctx context.Context, postID int64, confirmed bool) {
	if !confirmed {
		return
	}

	if _, err := c.client.PublishPost(ctx, postID); err != nil {
		c.notifier.Notify(LevelError, "Failed to publish post: "+err.Error())
		return
	}

	c.notifier.Notify(LevelSuccess, "Post published")
	c.RefreshPosts(ctx)
}

// GenerateImage runs one synchronous generation request. The trigger stays
// disabled for the duration; a second call while one is in flight is
// rejected with a warning.
func (c *Controller) GenerateImage(ctx context.Context, prompt, platform string) {
	if prompt == "" {
		c.notifier.Notify(LevelWarning, "Please enter an image prompt")
		return
	}

	c.mu.Lock()
	if c.generating {
		c.mu.Unlock()
		c.notifier.Notify(LevelWarning, "Image generation already in progress")
		return
	}
	c.generating = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.generating = false
		c.mu.Unlock()
	}()

	image, err := c.client.GenerateImage(ctx, &transfer.GenerationRequest{
		Prompt:      prompt,
		Platform:    platform,
		ContentType: "post",
	})
	if err != nil {
		c.notifier.Notify(LevelError, "Failed to generate image: "+err.Error())
		return
	}

	c.mu.Lock()
	c.form.ImageURL = image.ImageURL
	c.form.ImagePrompt = prompt
	c.mu.Unlock()

	c.notifier.Notify(LevelSuccess, "Image generated")
}
