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
	"golang.org/x/oauth2/instagram"
)

const instagramGraphURL = "https://graph.instagram.com"

type InstagramService interface {
	Callback(ctx context.Context, code string, userID int64) error
	PublishPost(ctx context.Context, account *models.SocialAccount, accessToken, content, imageURL string) error
}

type instagramService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewInstagramService(cfg config.Config, sa repository.SocialAccountRepository) InstagramService {
	return &instagramService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *instagramService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.InstagramClientID,
		ClientSecret: s.cfg.InstagramClientSecret,
		RedirectURL:  s.cfg.InstagramRedirectURI,
		Scopes:       []string{"instagram_business_basic", "instagram_business_content_publish"},
		Endpoint:     instagram.Endpoint,
	}
}

func (s *instagramService) Callback(ctx context.Context, code string, userID int64) error {
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

	userInfo, err := s.getUserInfo(ctx, token.AccessToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		UserID:         userID,
		Platform:       "instagram",
		AccountID:      userInfo.UserID,
		AccountName:    userInfo.Username,
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

func (s *instagramService) getUserInfo(ctx context.Context, accessToken string) (*transfer.InstagramUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		instagramGraphURL+"/me?fields=id,username,name&access_token="+url.QueryEscape(accessToken), nil)
	if err != nil {
		return nil, err
	}

	resp, err := platformHTTPClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to get instagram user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("instagram userinfo error: %d - %s", resp.StatusCode, string(body))
	}

	var userInfo transfer.InstagramUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &userInfo, nil
}

// PublishPost runs the two-step container flow: create a media container,
// then publish it. Instagram rejects posts without media.
func (s *instagramService) PublishPost(ctx context.Context, account *models.SocialAccount, accessToken, content, imageURL string) error {
	if imageURL == "" {
		return errors.New("instagram requires an image")
	}

	data := url.Values{}
	data.Set("image_url", imageURL)
	data.Set("caption", content)
	data.Set("access_token", accessToken)

	containerID, err := s.graphPost(ctx, fmt.Sprintf("%s/%s/media", instagramGraphURL, account.AccountID), data)
	if err != nil {
		return fmt.Errorf("instagram container creation failed: %w", err)
	}

	publishData := url.Values{}
	publishData.Set("creation_id", containerID)
	publishData.Set("access_token", accessToken)

	_, err = s.graphPost(ctx, fmt.Sprintf("%s/%s/media_publish", instagramGraphURL, account.AccountID), publishData)
	if err != nil {
		return fmt.Errorf("instagram publish failed: %w", err)
	}

	return nil
}

func (s *instagramService) graphPost(ctx context.Context, endpoint string, data url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := platformHTTPClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.PlatformErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("instagram API error: %s", errResp.Error.Message)
		}
		return "", fmt.Errorf("instagram API error: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return result.ID, nil
}
