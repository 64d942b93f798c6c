package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	config "github.com/arjunmk/postpilot/configs"
	"github.com/arjunmk/postpilot/internal/models"
	"github.com/arjunmk/postpilot/internal/repository"
	"github.com/arjunmk/postpilot/internal/transfer"
	"github.com/arjunmk/postpilot/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const (
	FACEBOOK_DIALOG_URL = "https://www.facebook.com/v18.0/dialog/oauth"
	GRAPH_API_URL       = "https://graph.facebook.com/v18.0"

	// Scopes needed to manage pages and publish to linked Instagram accounts.
	facebookScopes = "pages_manage_posts,pages_read_engagement,instagram_basic,instagram_content_publish"

	// Facebook page tokens typically last 60 days.
	facebookTokenLifetime = 60 * 24 * time.Hour
)

type FacebookService interface {
	GetAuthURL(ctx context.Context, state string) string
	Callback(ctx context.Context, code, userID string) ([]*models.SocialAccount, error)
	ConnectAccount(ctx context.Context, ac *transfer.AccountConnection) (*models.SocialAccount, error)
	List(ctx context.Context, userID string) ([]*models.SocialAccount, error)
	Disconnect(ctx context.Context, userID string, accountID int64) error
	RefreshToken(ctx context.Context, account *models.SocialAccount) error
}

type facebookService struct {
	cfg      config.Config
	sa       repository.SocialAccountRepository
	graphURL string
}

func NewFacebookService(cfg config.Config, sa repository.SocialAccountRepository) FacebookService {
	return &facebookService{
		cfg:      cfg,
		sa:       sa,
		graphURL: GRAPH_API_URL,
	}
}

func (s *facebookService) GetAuthURL(ctx context.Context, state string) string {
	params := url.Values{}
	params.Add("client_id", s.cfg.FacebookAppID)
	params.Add("redirect_uri", s.cfg.FacebookRedirectURI)
	params.Add("scope", facebookScopes)
	params.Add("response_type", "code")
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", FACEBOOK_DIALOG_URL, params.Encode())
}

func (s *facebookService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.FacebookAppID,
		ClientSecret: s.cfg.FacebookAppSecret,
		RedirectURL:  s.cfg.FacebookRedirectURI,
		Endpoint:     facebook.Endpoint,
	}
}

// Callback exchanges the OAuth code, walks the user's pages and the
// Instagram business accounts linked to them, and stores one social account
// per page or Instagram profile. Tokens are encrypted before they hit the
// database.
func (s *facebookService) Callback(ctx context.Context, code, userID string) ([]*models.SocialAccount, error) {
	if code == "" {
		err := errors.New("no authorization code received")
		slog.Info(err.Error())
		return nil, err
	}

	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	discovered, err := s.discoverAccounts(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	if len(discovered) == 0 {
		return nil, errors.New("no pages or Instagram accounts found for this user")
	}

	accounts := make([]*models.SocialAccount, 0, len(discovered))
	for _, d := range discovered {
		encryptedToken, err := utils.Encrypt([]byte(d.AccessToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return nil, err
		}

		account := &models.SocialAccount{
			UserID:         userID,
			Platform:       d.Platform,
			AccountID:      d.AccountID,
			AccountName:    d.AccountName,
			AccessToken:    encryptedToken,
			RefreshToken:   encryptedToken,
			TokenExpiresAt: time.Now().Add(facebookTokenLifetime),
		}

		id, err := s.sa.Upsert(ctx, nil, account)
		if err != nil {
			return nil, fmt.Errorf("failed to connect account %s: %w", d.AccountName, err)
		}
		account.ID = id
		account.IsActive = true
		accounts = append(accounts, account)
	}

	return accounts, nil
}

type discoveredAccount struct {
	Platform    string
	AccountID   string
	AccountName string
	AccessToken string
}

func (s *facebookService) discoverAccounts(ctx context.Context, accessToken string) ([]*discoveredAccount, error) {
	var pages transfer.FacebookPageList
	reqURL := fmt.Sprintf("%s/me/accounts?access_token=%s", s.graphURL, url.QueryEscape(accessToken))
	if err := s.getJSON(ctx, reqURL, &pages); err != nil {
		return nil, err
	}

	var accounts []*discoveredAccount
	for _, page := range pages.Data {
		accounts = append(accounts, &discoveredAccount{
			Platform:    models.PlatformFacebook,
			AccountID:   page.ID,
			AccountName: page.Name,
			AccessToken: page.AccessToken,
		})

		// A page may carry a linked Instagram business account.
		var ig transfer.InstagramBusinessAccount
		igURL := fmt.Sprintf("%s/%s?fields=instagram_business_account&access_token=%s", s.graphURL, page.ID, url.QueryEscape(page.AccessToken))
		if err := s.getJSON(ctx, igURL, &ig); err != nil {
			slog.Info(err.Error())
			continue
		}
		if ig.InstagramBusinessAccount == nil {
			continue
		}

		var details transfer.InstagramAccountDetails
		detailsURL := fmt.Sprintf("%s/%s?fields=username&access_token=%s", s.graphURL, ig.InstagramBusinessAccount.ID, url.QueryEscape(page.AccessToken))
		if err := s.getJSON(ctx, detailsURL, &details); err != nil {
			slog.Info(err.Error())
			continue
		}

		name := "@Unknown"
		if details.Username != "" {
			name = "@" + details.Username
		}

		accounts = append(accounts, &discoveredAccount{
			Platform:    models.PlatformInstagram,
			AccountID:   ig.InstagramBusinessAccount.ID,
			AccountName: name,
			AccessToken: page.AccessToken,
		})
	}

	return accounts, nil
}

func (s *facebookService) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var graphErr transfer.GraphError
		if err := json.NewDecoder(resp.Body).Decode(&graphErr); err == nil && graphErr.Error.Message != "" {
			return fmt.Errorf("graph API error: %s", graphErr.Error.Message)
		}
		return fmt.Errorf("unexpected status code from graph API: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ConnectAccount stores an account whose token was obtained out of band.
// Reconnecting an existing account refreshes its token instead of creating
// a duplicate.
func (s *facebookService) ConnectAccount(ctx context.Context, ac *transfer.AccountConnection) (*models.SocialAccount, error) {
	if ac.UserID == "" || ac.Platform == "" || ac.AccountID == "" || ac.AccountName == "" || ac.AccessToken == "" {
		err := errors.New("missing required fields")
		slog.Info(err.Error())
		return nil, err
	}

	encryptedToken, err := utils.Encrypt([]byte(ac.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	account := &models.SocialAccount{
		UserID:         ac.UserID,
		Platform:       ac.Platform,
		AccountID:      ac.AccountID,
		AccountName:    ac.AccountName,
		AccessToken:    encryptedToken,
		RefreshToken:   encryptedToken,
		TokenExpiresAt: time.Now().Add(facebookTokenLifetime),
	}

	id, err := s.sa.Upsert(ctx, nil, account)
	if err != nil {
		return nil, fmt.Errorf("failed to connect account: %w", err)
	}
	account.ID = id
	account.IsActive = true

	return account, nil
}

func (s *facebookService) List(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	if userID == "" {
		err := errors.New("UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	accounts, err := s.sa.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting social accounts")
	}

	return accounts, nil
}

// Disconnect soft-deletes the account link. Posts created through it keep
// their history.
func (s *facebookService) Disconnect(ctx context.Context, userID string, accountID int64) error {
	var err error

	if userID == "" {
		err = errors.New("UserID is not valid")
		slog.Info(err.Error())
		return err
	}

	if accountID == 0 {
		err = errors.New("AccountID is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}

	if !isValid {
		err = errors.New("Social account doesn't exist")
		slog.Info(err.Error())
		return err
	}

	err = s.sa.Deactivate(ctx, accountID)
	if err != nil {
		return fmt.Errorf("Error removing account Info")
	}

	return nil
}

// RefreshToken swaps the stored token for a fresh long-lived one via the
// fb_exchange_token grant.
func (s *facebookService) RefreshToken(ctx context.Context, account *models.SocialAccount) error {
	decryptedToken, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Add("grant_type", "fb_exchange_token")
	params.Add("client_id", s.cfg.FacebookAppID)
	params.Add("client_secret", s.cfg.FacebookAppSecret)
	params.Add("fb_exchange_token", decryptedToken)

	var result transfer.FacebookTokenExchange
	reqURL := fmt.Sprintf("%s/oauth/access_token?%s", s.graphURL, params.Encode())
	if err := s.getJSON(ctx, reqURL, &result); err != nil {
		return err
	}

	if result.AccessToken == "" {
		return errors.New("no access token returned from token exchange")
	}

	expiresAt := time.Now().Add(time.Second * time.Duration(result.ExpiresIn))
	if result.ExpiresIn == 0 {
		expiresAt = time.Now().Add(facebookTokenLifetime)
	}

	encryptedToken, err := utils.Encrypt([]byte(result.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.sa.SetToken(ctx, account.ID, encryptedToken, encryptedToken, expiresAt)
}
