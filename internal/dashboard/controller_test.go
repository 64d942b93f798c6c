package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/arjunmk/postpilot/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedNotice struct {
	Level   string
	Message string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []recordedNotice
}

func (n *recordingNotifier) Notify(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, recordedNotice{Level: level, Message: message})
}

func (n *recordingNotifier) last() recordedNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return recordedNotice{}
	}
	return n.notices[len(n.notices)-1]
}

func (n *recordingNotifier) levels() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	levels := make([]string, 0, len(n.notices))
	for _, notice := range n.notices {
		levels = append(levels, notice.Level)
	}
	return levels
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []string
	posts    string
	publish  string
	onCreate func(pc *transfer.PostCreation)
	failNext bool
}

func (b *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		fail := b.failNext
		b.failNext = false
		b.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "server exploded"})
			return
		}

		switch {
		case r.Method == "GET" && r.URL.Path == "/api/posts":
			w.Write([]byte(b.posts))
		case r.Method == "GET" && r.URL.Path == "/api/accounts":
			w.Write([]byte(`{"accounts":[{"id":1,"platform":"facebook","account_name":"Test Page"}]}`))
		case r.Method == "POST" && r.URL.Path == "/api/posts":
			var pc transfer.PostCreation
			json.NewDecoder(r.Body).Decode(&pc)
			if b.onCreate != nil {
				b.onCreate(&pc)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"post":{"id":10,"content":"` + pc.Content + `","status":"draft"}}`))
		case r.Method == "POST" && r.URL.Path == "/api/posts/10/approve":
			w.Write([]byte(`{"message":"Post approved","post":{"id":10,"status":"approved"}}`))
		case r.Method == "POST" && r.URL.Path == "/api/posts/10/publish":
			if b.publish != "" {
				w.Write([]byte(b.publish))
				return
			}
			w.Write([]byte(`{"success":true,"post":{"id":10,"status":"posted"}}`))
		case r.Method == "POST" && r.URL.Path == "/api/images/generate":
			w.Write([]byte(`{"success":true,"image":{"id":5,"image_url":"/static/generated/img.png","status":"completed"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		}
	})
}

func (b *fakeBackend) requestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func newTestController(t *testing.T, backend *fakeBackend) (*Controller, *recordingNotifier) {
	t.Helper()
	if backend.posts == "" {
		backend.posts = `{"posts":[]}`
	}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	notifier := &recordingNotifier{}
	return NewController(NewClient(srv.URL, "default_user"), notifier), notifier
}

func TestCreatePostRejectsEmptyContent(t *testing.T) {
	backend := &fakeBackend{}
	ctrl, notifier := newTestController(t, backend)

	ctrl.CreatePost(context.Background(), PostForm{AccountID: 1})

	assert.Equal(t, 0, backend.requestCount())
	assert.Equal(t, LevelWarning, notifier.last().Level)
	assert.Equal(t, "Please enter post content", notifier.last().Message)
}

func TestCreatePostRequiresAccount(t *testing.T) {
	backend := &fakeBackend{}
	ctrl, notifier := newTestController(t, backend)

	ctrl.CreatePost(context.Background(), PostForm{Content: "hello"})

	assert.Equal(t, 0, backend.requestCount())
	assert.Equal(t, LevelWarning, notifier.last().Level)
	assert.Equal(t, "Please select an account", notifier.last().Message)
}

func TestCreatePostDerivesHashtagsAndClearsForm(t *testing.T) {
	var created *transfer.PostCreation
	backend := &fakeBackend{onCreate: func(pc *transfer.PostCreation) { created = pc }}
	ctrl, notifier := newTestController(t, backend)

	ctrl.CreatePost(context.Background(), PostForm{
		AccountID: 1,
		Content:   "New listing! #dreamhome #realestate",
	})

	require.NotNil(t, created)
	assert.Equal(t, []string{"dreamhome", "realestate"}, created.Hashtags)

	form := ctrl.Form()
	assert.Empty(t, form.Content)
	assert.Equal(t, int64(1), form.AccountID)

	assert.Contains(t, notifier.levels(), LevelSuccess)

	// one create plus the post-success refetch
	assert.Equal(t, 2, backend.requestCount())
}

func TestCreatePostFailureKeepsForm(t *testing.T) {
	backend := &fakeBackend{failNext: true}
	ctrl, notifier := newTestController(t, backend)

	form := PostForm{AccountID: 1, Content: "will fail"}
	ctrl.CreatePost(context.Background(), form)

	assert.Equal(t, "will fail", ctrl.Form().Content)
	assert.Equal(t, LevelError, notifier.last().Level)
	assert.Contains(t, notifier.last().Message, "server exploded")
}

func TestApproveRefreshesPosts(t *testing.T) {
	backend := &fakeBackend{posts: `{"posts":[{"id":10,"content":"hi","status":"approved"}]}`}
	ctrl, notifier := newTestController(t, backend)

	ctrl.Approve(context.Background(), 10)

	assert.Equal(t, LevelSuccess, notifier.notices[0].Level)
	require.Len(t, ctrl.Posts(), 1)
	assert.Equal(t, "approved", ctrl.Posts()[0].Status)
}

func TestPublishDeclinedIsNoOp(t *testing.T) {
	backend := &fakeBackend{}
	ctrl, notifier := newTestController(t, backend)

	ctrl.Publish(context.Background(), 10, false)

	assert.Equal(t, 0, backend.requestCount())
	assert.Empty(t, notifier.levels())
}

func TestPublishConfirmed(t *testing.T) {
	backend := &fakeBackend{posts: `{"posts":[{"id":10,"status":"posted"}]}`}
	ctrl, notifier := newTestController(t, backend)

	ctrl.Publish(context.Background(), 10, true)

	assert.Equal(t, LevelSuccess, notifier.notices[0].Level)
	require.Len(t, ctrl.Posts(), 1)
	assert.Equal(t, "posted", ctrl.Posts()[0].Status)
}

func TestPublishFailureToastCarriesPlatformError(t *testing.T) {
	backend := &fakeBackend{
		publish: `{"success":false,"error":"Invalid OAuth access token","post":{"id":10,"status":"failed"}}`,
	}
	ctrl, notifier := newTestController(t, backend)

	ctrl.Publish(context.Background(), 10, true)

	assert.Equal(t, LevelError, notifier.last().Level)
	assert.Contains(t, notifier.last().Message, "Invalid OAuth access token")
}

func TestDisconnectDeclinedIsNoOp(t *testing.T) {
	backend := &fakeBackend{}
	ctrl, notifier := newTestController(t, backend)

	ctrl.DisconnectAccount(context.Background(), 1, false)

	assert.Equal(t, 0, backend.requestCount())
	assert.Empty(t, notifier.levels())
}

func TestGenerateImageFillsForm(t *testing.T) {
	backend := &fakeBackend{}
	ctrl, notifier := newTestController(t, backend)

	ctrl.GenerateImage(context.Background(), "modern house at sunset", "instagram")

	form := ctrl.Form()
	assert.Equal(t, "/static/generated/img.png", form.ImageURL)
	assert.Equal(t, "modern house at sunset", form.ImagePrompt)
	assert.Equal(t, LevelSuccess, notifier.last().Level)
	assert.False(t, ctrl.IsGenerating())
}

func TestGenerateImageRequiresPrompt(t *testing.T) {
	backend := &fakeBackend{}
	ctrl, notifier := newTestController(t, backend)

	ctrl.GenerateImage(context.Background(), "", "instagram")

	assert.Equal(t, 0, backend.requestCount())
	assert.Equal(t, LevelWarning, notifier.last().Level)
}

func TestGenerateImageFailureNotifiesAndResets(t *testing.T) {
	backend := &fakeBackend{failNext: true}
	ctrl, notifier := newTestController(t, backend)

	ctrl.GenerateImage(context.Background(), "a prompt", "facebook")

	assert.Equal(t, LevelError, notifier.last().Level)
	assert.False(t, ctrl.IsGenerating())
	assert.Empty(t, ctrl.Form().ImageURL)
}

func TestRefreshAccounts(t *testing.T) {
	backend := &fakeBackend{}
	ctrl, _ := newTestController(t, backend)

	require.NoError(t, ctrl.RefreshAccounts(context.Background()))
	require.Len(t, ctrl.Accounts(), 1)
	assert.Equal(t, "Test Page", ctrl.Accounts()[0].AccountName)
}
