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

	config "github.com/postloom/postloom/configs"
	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/repository"
	"github.com/postloom/postloom/internal/transfer"
	"github.com/postloom/postloom/pkg/utils"
	"golang.org/x/oauth2"
)

// x/oauth2 ships no twitter endpoint package; the v2 endpoints are fixed here.
var twitterEndpoint = oauth2.Endpoint{
	AuthURL:  "https://twitter.com/i/oauth2/authorize",
	TokenURL: "https://api.twitter.com/2/oauth2/token",
}

type TwitterService interface {
	Callback(ctx context.Context, code string, userID int64) error
	PublishPost(ctx context.Context, account *models.SocialAccount, accessToken, content, imageURL string) error
}

type twitterService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewTwitterService(cfg config.Config, sa repository.SocialAccountRepository) TwitterService {
	return &twitterService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *twitterService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.TwitterClientID,
		ClientSecret: s.cfg.TwitterClientSecret,
		RedirectURL:  s.cfg.TwitterRedirectURI,
		Scopes:       []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
		Endpoint:     twitterEndpoint,
	}
}

func (s *twitterService) Callback(ctx context.Context, code string, userID int64) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	// Twitter mandates PKCE; the plain challenge must match the auth request.
	token, err := s.oauthConfig().Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", "challenge"))
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	userInfo, err := s.getUserInfo(ctx, token.AccessToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	encryptedRefreshToken := encryptedAccessToken
	if token.RefreshToken != "" {
		encryptedRefreshToken, err = utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return err
		}
	}

	accountInfo := &models.SocialAccount{
		UserID:         userID,
		Platform:       "twitter",
		AccountID:      userInfo.Data.ID,
		AccountName:    userInfo.Data.Username,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: token.Expiry,
	}

	_, err = s.sa.Create(ctx, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (s *twitterService) getUserInfo(ctx context.Context, accessToken string) (*transfer.TwitterUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.twitter.com/2/users/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := platformHTTPClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to get twitter user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("twitter userinfo error: %d - %s", resp.StatusCode, string(body))
	}

	var userInfo transfer.TwitterUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &userInfo, nil
}

// PublishPost creates a tweet. Image attachment requires the v1.1 media
// upload flow; the image URL is appended to the text instead.
func (s *twitterService) PublishPost(ctx context.Context, account *models.SocialAccount, accessToken, content, imageURL string) error {
	text := content
	if imageURL != "" {
		text = content + "\n" + imageURL
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.twitter.com/2/tweets", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := platformHTTPClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("twitter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twitter API error: %d - %s", resp.StatusCode, string(respBody))
	}

	return nil
}
