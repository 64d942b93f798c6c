package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/arjunmk/postpilot/internal/models"
	"github.com/arjunmk/postpilot/internal/transfer"
)

// Client is the dashboard's HTTP client for the backend API. Every failure
// mode (network error, non-2xx status, success:false payload) surfaces as
// an error carrying the server's message; callers never see partial state.
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

func NewClient(baseURL, userID string) *Client {
	return &Client{
		baseURL:    baseURL,
		userID:     userID,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

type apiEnvelope struct {
	Success  *bool                   `json:"success"`
	Error    string                  `json:"error"`
	Message  string                  `json:"message"`
	Accounts []*models.SocialAccount `json:"accounts"`
	Posts    []*models.Post          `json:"posts"`
	Post     *models.Post            `json:"post"`
	Account  *models.SocialAccount   `json:"account"`
	AuthURL  string                  `json:"auth_url"`
	Image    *models.ImageGeneration `json:"image"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*apiEnvelope, error) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope apiEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("unexpected response from server: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		if envelope.Error != "" {
			return nil, errors.New(envelope.Error)
		}
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if envelope.Success != nil && !*envelope.Success {
		if envelope.Error != "" {
			return nil, errors.New(envelope.Error)
		}
		return nil, errors.New("request was not successful")
	}

	return &envelope, nil
}

func (c *Client) userQuery() string {
	return "?user_id=" + url.QueryEscape(c.userID)
}

// ListAccounts returns the connected accounts. A response without an
// accounts field means no data, not an error.
func (c *Client) ListAccounts(ctx context.Context) ([]*models.SocialAccount, error) {
	envelope, err := c.do(ctx, "GET", "/api/accounts"+c.userQuery(), nil)
	if err != nil {
		return nil, err
	}
	if envelope.Accounts == nil {
		return []*models.SocialAccount{}, nil
	}
	return envelope.Accounts, nil
}

func (c *Client) FacebookLoginURL(ctx context.Context) (string, error) {
	envelope, err := c.do(ctx, "GET", "/api/auth/facebook/login"+c.userQuery(), nil)
	if err != nil {
		return "", err
	}
	if envelope.AuthURL == "" {
		return "", errors.New("no auth URL returned")
	}
	return envelope.AuthURL, nil
}

func (c *Client) DisconnectAccount(ctx context.Context, accountID int64) error {
	_, err := c.do(ctx, "DELETE", fmt.Sprintf("/api/accounts/%d%s", accountID, c.userQuery()), nil)
	return err
}

func (c *Client) ListPosts(ctx context.Context) ([]*models.Post, error) {
	envelope, err := c.do(ctx, "GET", "/api/posts"+c.userQuery(), nil)
	if err != nil {
		return nil, err
	}
	if envelope.Posts == nil {
		return []*models.Post{}, nil
	}
	return envelope.Posts, nil
}

func (c *Client) CreatePost(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error) {
	envelope, err := c.do(ctx, "POST", "/api/posts"+c.userQuery(), pc)
	if err != nil {
		return nil, err
	}
	return envelope.Post, nil
}

func (c *Client) ApprovePost(ctx context.Context, postID int64) (*models.Post, error) {
	envelope, err := c.do(ctx, "POST", fmt.Sprintf("/api/posts/%d/approve", postID), nil)
	if err != nil {
		return nil, err
	}
	return envelope.Post, nil
}

func (c *Client) PublishPost(ctx context.Context, postID int64) (*models.Post, error) {
	envelope, err := c.do(ctx, "POST", fmt.Sprintf("/api/posts/%d/publish", postID), nil)
	if err != nil {
		return nil, err
	}
	return envelope.Post, nil
}

func (c *Client) GenerateImage(ctx context.Context, req *transfer.GenerationRequest) (*models.ImageGeneration, error) {
	envelope, err := c.do(ctx, "POST", "/api/images/generate", req)
	if err != nil {
		return nil, err
	}
	if envelope.Image == nil || envelope.Image.ImageURL == "" {
		return nil, errors.New("no image returned")
	}
	return envelope.Image, nil
}
