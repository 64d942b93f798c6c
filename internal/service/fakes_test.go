package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/arjunmk/postpilot/internal/models"
)

// In-memory stand-ins for the database-backed repositories.

type fakePostRepository struct {
	mu     sync.Mutex
	posts  map[int64]*models.Post
	nextID int64
}

func newFakePostRepository() *fakePostRepository {
	return &fakePostRepository{posts: make(map[int64]*models.Post)}
}

func (r *fakePostRepository) add(post *models.Post) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post.ID == 0 {
		r.nextID++
		post.ID = r.nextID
	} else if post.ID > r.nextID {
		r.nextID = post.ID
	}
	clone := *post
	r.posts[post.ID] = &clone
	return post
}

func (r *fakePostRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	return r.add(post).ID, nil
}

func (r *fakePostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	clone := *post
	return &clone, nil
}

func (r *fakePostRepository) ListByUserID(ctx context.Context, userID, status string) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.Post
	for _, post := range r.posts {
		if status != "" && post.Status != status {
			continue
		}
		clone := *post
		posts = append(posts, &clone)
	}
	return posts, nil
}

func (r *fakePostRepository) ListDueScheduled(ctx context.Context, cutoff time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.Post
	for _, post := range r.posts {
		if post.Status == models.PostStatusApproved && post.ScheduledAt != nil && !post.ScheduledAt.After(cutoff) {
			clone := *post
			posts = append(posts, &clone)
		}
	}
	return posts, nil
}

func (r *fakePostRepository) CheckByUserID(ctx context.Context, postID int64, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.posts[postID]
	return ok, nil
}

func (r *fakePostRepository) UpdateStatus(ctx context.Context, status string, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return errors.New("post not found")
	}
	post.Status = status
	post.UpdatedAt = time.Now()
	return nil
}

func (r *fakePostRepository) MarkPosted(ctx context.Context, postID int64, platformPostID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return errors.New("post not found")
	}
	now := time.Now()
	post.Status = models.PostStatusPosted
	post.PlatformPostID = platformPostID
	post.PostedAt = &now
	post.ErrorMessage = ""
	post.UpdatedAt = now
	return nil
}

func (r *fakePostRepository) MarkFailed(ctx context.Context, postID int64, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return errors.New("post not found")
	}
	post.Status = models.PostStatusFailed
	post.ErrorMessage = errorMessage
	post.UpdatedAt = time.Now()
	return nil
}

func (r *fakePostRepository) SetImageURL(ctx context.Context, postID int64, imageURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return errors.New("post not found")
	}
	post.ImageURL = imageURL
	post.UpdatedAt = time.Now()
	return nil
}

type fakeSocialAccountRepository struct {
	mu       sync.Mutex
	accounts map[int64]*models.SocialAccount
	nextID   int64
}

func newFakeSocialAccountRepository() *fakeSocialAccountRepository {
	return &fakeSocialAccountRepository{accounts: make(map[int64]*models.SocialAccount)}
}

func (r *fakeSocialAccountRepository) add(account *models.SocialAccount) *models.SocialAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID == 0 {
		r.nextID++
		account.ID = r.nextID
	} else if account.ID > r.nextID {
		r.nextID = account.ID
	}
	clone := *account
	r.accounts[account.ID] = &clone
	return account
}

func (r *fakeSocialAccountRepository) Upsert(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	r.mu.Lock()
	for _, existing := range r.accounts {
		if existing.UserID == sa.UserID && existing.Platform == sa.Platform && existing.AccountID == sa.AccountID {
			existing.AccountName = sa.AccountName
			existing.AccessToken = sa.AccessToken
			existing.RefreshToken = sa.RefreshToken
			existing.TokenExpiresAt = sa.TokenExpiresAt
			existing.IsActive = true
			r.mu.Unlock()
			return existing.ID, nil
		}
	}
	r.mu.Unlock()
	sa.IsActive = true
	return r.add(sa).ID, nil
}

func (r *fakeSocialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	clone := *account
	return &clone, nil
}

func (r *fakeSocialAccountRepository) GetActiveByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok || !account.IsActive {
		return nil, nil
	}
	clone := *account
	return &clone, nil
}

func (r *fakeSocialAccountRepository) ListActiveByUserID(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var accounts []*models.SocialAccount
	for _, account := range r.accounts {
		if account.UserID == userID && account.IsActive {
			clone := *account
			accounts = append(accounts, &clone)
		}
	}
	return accounts, nil
}

func (r *fakeSocialAccountRepository) ListExpiringBetween(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var accounts []*models.SocialAccount
	for _, account := range r.accounts {
		if account.IsActive && account.TokenExpiresAt.After(initialTime) && account.TokenExpiresAt.Before(finalTime) {
			clone := *account
			accounts = append(accounts, &clone)
		}
	}
	return accounts, nil
}

func (r *fakeSocialAccountRepository) CheckByUserID(ctx context.Context, accountID int64, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountID]
	return ok && account.UserID == userID, nil
}

func (r *fakeSocialAccountRepository) SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return errors.New("account not found")
	}
	account.AccessToken = accessToken
	account.RefreshToken = refreshToken
	account.TokenExpiresAt = expiresAt
	return nil
}

func (r *fakeSocialAccountRepository) Deactivate(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return errors.New("account not found")
	}
	account.IsActive = false
	return nil
}

type fakeImageGenerationRepository struct {
	mu      sync.Mutex
	records map[int64]*models.ImageGeneration
	nextID  int64
}

func newFakeImageGenerationRepository() *fakeImageGenerationRepository {
	return &fakeImageGenerationRepository{records: make(map[int64]*models.ImageGeneration)}
}

func (r *fakeImageGenerationRepository) Create(ctx context.Context, gen *models.ImageGeneration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	gen.ID = r.nextID
	gen.CreatedAt = time.Now()
	clone := *gen
	r.records[gen.ID] = &clone
	return gen.ID, nil
}

func (r *fakeImageGenerationRepository) GetByID(ctx context.Context, id int64) (*models.ImageGeneration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gen, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	clone := *gen
	return &clone, nil
}

func (r *fakeImageGenerationRepository) MarkCompleted(ctx context.Context, id int64, imageURL, modelUsed string, generationTime float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	gen, ok := r.records[id]
	if !ok {
		return errors.New("generation not found")
	}
	gen.Status = models.GenerationStatusCompleted
	gen.ImageURL = imageURL
	gen.ModelUsed = modelUsed
	gen.GenerationTime = generationTime
	return nil
}

func (r *fakeImageGenerationRepository) MarkFailed(ctx context.Context, id int64, errorMessage string, generationTime float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	gen, ok := r.records[id]
	if !ok {
		return errors.New("generation not found")
	}
	gen.Status = models.GenerationStatusFailed
	gen.ErrorMessage = errorMessage
	gen.GenerationTime = generationTime
	return nil
}

type fakeUploader struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (u *fakeUploader) Upload(ctx context.Context, key string, file []byte, filetype string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	u.keys = append(u.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type fakePublisher struct {
	mu           sync.Mutex
	published    []int64
	seenStatuses []string
	pr           *fakePostRepository
	err          error
}

func (p *fakePublisher) PublishNow(ctx context.Context, postID int64) (*models.Post, error) {
	post, _ := p.pr.GetByID(ctx, postID)

	p.mu.Lock()
	p.published = append(p.published, postID)
	if post != nil {
		p.seenStatuses = append(p.seenStatuses, post.Status)
	}
	err := p.err
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if err := p.pr.MarkPosted(ctx, postID, "platform_123"); err != nil {
		return nil, err
	}
	return p.pr.GetByID(ctx, postID)
}
