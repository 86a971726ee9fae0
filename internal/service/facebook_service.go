package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	config "github.com/postloom/postloom/configs"
	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/repository"
	"github.com/postloom/postloom/internal/transfer"
	"github.com/postloom/postloom/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const facebookGraphURL = "https://graph.facebook.com/v18.0"

type FacebookService interface {
	Callback(ctx context.Context, code string, userID int64) error
	PublishPost(ctx context.Context, account *models.SocialAccount, accessToken, content, imageURL string) error
}

type facebookService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewFacebookService(cfg config.Config, sa repository.SocialAccountRepository) FacebookService {
	return &facebookService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *facebookService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.FacebookClientID,
		ClientSecret: s.cfg.FacebookClientSecret,
		RedirectURL:  s.cfg.FacebookRedirectURI,
		Scopes:       []string{"public_profile", "pages_manage_posts"},
		Endpoint:     facebook.Endpoint,
	}
}

func (s *facebookService) Callback(ctx context.Context, code string, userID int64) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		facebookGraphURL+"/me?fields=id,name&access_token="+url.QueryEscape(token.AccessToken), nil)
	if err != nil {
		return err
	}

	resp, err := platformHTTPClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to get facebook user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("facebook userinfo error: %d - %s", resp.StatusCode, string(body))
	}

	var userInfo transfer.FacebookUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		UserID:         userID,
		Platform:       "facebook",
		AccountID:      userInfo.ID,
		AccountName:    userInfo.Name,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedAccessToken,
		TokenExpiresAt: token.Expiry,
	}

	_, err = s.sa.Create(ctx, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (s *facebookService) PublishPost(ctx context.Context, account *models.SocialAccount, accessToken, content, imageURL string) error {
	endpoint := fmt.Sprintf("%s/%s/feed", facebookGraphURL, account.AccountID)

	data := url.Values{}
	data.Set("message", content)
	data.Set("access_token", accessToken)
	if imageURL != "" {
		endpoint = fmt.Sprintf("%s/%s/photos", facebookGraphURL, account.AccountID)
		data.Set("url", imageURL)
		data.Set("caption", content)
		data.Del("message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := platformHTTPClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("facebook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp transfer.PlatformErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			return fmt.Errorf("facebook API error: %s", errResp.Error.Message)
		}
		return fmt.Errorf("facebook API error: %d - %s", resp.StatusCode, string(body))
	}

	return nil
}
