package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	config "github.com/arjunmk/postpilot/configs"
	"github.com/arjunmk/postpilot/internal/models"
	"github.com/arjunmk/postpilot/internal/repository"
	"github.com/arjunmk/postpilot/internal/transfer"
	"github.com/arjunmk/postpilot/pkg/utils"
)

type PublisherService interface {
	PublishNow(ctx context.Context, postID int64) (*models.Post, error)
}

type publisherService struct {
	cfg      config.Config
	pr       repository.PostRepository
	sa       repository.SocialAccountRepository
	graphURL string
}

func NewPublisherService(cfg config.Config, pr repository.PostRepository, sa repository.SocialAccountRepository) PublisherService {
	return &publisherService{
		cfg:      cfg,
		pr:       pr,
		sa:       sa,
		graphURL: GRAPH_API_URL,
	}
}

// PublishNow pushes the post to its platform immediately. A publish failure
// is terminal: the post is marked failed with the platform's error message
// and no retry is attempted.
func (s *publisherService) PublishNow(ctx context.Context, postID int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		err = errors.New("Post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	account, err := s.sa.GetActiveByID(ctx, post.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		err = errors.New("Account not found or inactive")
		slog.Info(err.Error())
		return nil, err
	}

	accessToken, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	var platformPostID string
	switch account.Platform {
	case models.PlatformFacebook:
		platformPostID, err = s.publishToFacebook(ctx, post, account, accessToken)
	case models.PlatformInstagram:
		platformPostID, err = s.publishToInstagram(ctx, post, account, accessToken)
	default:
		err = fmt.Errorf("unsupported platform: %s", account.Platform)
	}

	if err != nil {
		slog.Error(fmt.Sprintf("Error publishing post %d: %v", postID, err))
		if markErr := s.pr.MarkFailed(ctx, postID, err.Error()); markErr != nil {
			slog.Info(markErr.Error())
		}
		return s.pr.GetByID(ctx, postID)
	}

	if err := s.pr.MarkPosted(ctx, postID, platformPostID); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	return s.pr.GetByID(ctx, postID)
}

func (s *publisherService) publishToFacebook(ctx context.Context, post *models.Post, account *models.SocialAccount, accessToken string) (string, error) {
	payload := map[string]interface{}{
		"message":      post.Content,
		"access_token": accessToken,
	}
	if post.ImageURL != "" {
		payload["picture"] = s.absoluteImageURL(post.ImageURL)
	}

	reqURL := fmt.Sprintf("%s/%s/feed", s.graphURL, account.AccountID)

	var result transfer.GraphObjectID
	if err := s.postJSON(ctx, reqURL, payload, &result); err != nil {
		return "", err
	}

	if result.ID == "" {
		return "", errors.New("no post ID returned from Facebook")
	}

	return result.ID, nil
}

// Instagram publishing is a two-step flow: create a media container, then
// publish it.
func (s *publisherService) publishToInstagram(ctx context.Context, post *models.Post, account *models.SocialAccount, accessToken string) (string, error) {
	containerPayload := map[string]interface{}{
		"caption":      post.Content,
		"access_token": accessToken,
	}
	if post.ImageURL != "" {
		containerPayload["image_url"] = s.absoluteImageURL(post.ImageURL)
	}

	containerURL := fmt.Sprintf("%s/%s/media", s.graphURL, account.AccountID)

	var container transfer.GraphObjectID
	if err := s.postJSON(ctx, containerURL, containerPayload, &container); err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	if container.ID == "" {
		return "", errors.New("no media ID returned from Instagram")
	}

	publishURL := fmt.Sprintf("%s/%s/media_publish", s.graphURL, account.AccountID)
	publishPayload := map[string]interface{}{
		"creation_id":  container.ID,
		"access_token": accessToken,
	}

	var published transfer.GraphObjectID
	if err := s.postJSON(ctx, publishURL, publishPayload, &published); err != nil {
		return "", fmt.Errorf("failed to publish: %w", err)
	}

	if published.ID == "" {
		return "", errors.New("no post ID returned from Instagram")
	}

	return published.ID, nil
}

func (s *publisherService) absoluteImageURL(imageURL string) string {
	if strings.HasPrefix(imageURL, "/") {
		return strings.TrimRight(s.cfg.BaseURL, "/") + imageURL
	}
	return imageURL
}

func (s *publisherService) postJSON(ctx context.Context, reqURL string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var graphErr transfer.GraphError
		if err := json.Unmarshal(respBody, &graphErr); err == nil && graphErr.Error.Message != "" {
			return fmt.Errorf("graph API error: %s", graphErr.Error.Message)
		}
		return fmt.Errorf("unexpected status code from graph API: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}
