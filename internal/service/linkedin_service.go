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
	"golang.org/x/oauth2/linkedin"
)

type LinkedinService interface {
	Callback(ctx context.Context, code string, userID int64) error
	PublishPost(ctx context.Context, account *models.SocialAccount, accessToken, content, imageURL string) error
}

type linkedinService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewLinkedinService(cfg config.Config, sa repository.SocialAccountRepository) LinkedinService {
	return &linkedinService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *linkedinService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.LinkedinClientID,
		ClientSecret: s.cfg.LinkedinClientSecret,
		RedirectURL:  s.cfg.LinkedinRedirectURI,
		Scopes:       []string{"openid", "profile", "email", "w_member_social"},
		Endpoint:     linkedin.Endpoint,
	}
}

func (s *linkedinService) Callback(ctx context.Context, code string, userID int64) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	oauthCfg := s.oauthConfig()
	token, err := oauthCfg.Exchange(ctx, code)
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
		Platform:       "linkedin",
		AccountID:      userInfo.Sub,
		AccountName:    userInfo.Name,
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

func (s *linkedinService) getUserInfo(ctx context.Context, accessToken string) (*transfer.LinkedinUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.linkedin.com/v2/userinfo", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := platformHTTPClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to get linkedin user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("linkedin userinfo error: %d - %s", resp.StatusCode, string(body))
	}

	var userInfo transfer.LinkedinUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &userInfo, nil
}

// PublishPost creates a ugcPost. When an image URL is present it is first
// registered and uploaded as a LinkedIn asset.
func (s *linkedinService) PublishPost(ctx context.Context, account *models.SocialAccount, accessToken, content, imageURL string) error {
	author := fmt.Sprintf("urn:li:person:%s", account.AccountID)

	shareContent := map[string]any{
		"shareCommentary":    map[string]string{"text": content},
		"shareMediaCategory": "NONE",
	}

	if imageURL != "" {
		asset, err := s.uploadImage(ctx, accessToken, author, imageURL)
		if err != nil {
			return fmt.Errorf("image upload failed: %w", err)
		}
		shareContent["shareMediaCategory"] = "IMAGE"
		shareContent["media"] = []map[string]any{
			{
				"status": "READY",
				"media":  asset,
			},
		}
	}

	postData := map[string]any{
		"author":         author,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(postData)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.linkedin.com/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := platformHTTPClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("linkedin request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("linkedin API error: %d - %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// uploadImage registers an upload slot, fetches the image bytes and PUTs
// them to the returned upload URL. Returns the asset URN.
func (s *linkedinService) uploadImage(ctx context.Context, accessToken, author, imageURL string) (string, error) {
	registerData := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   author,
			"serviceRelationships": []map[string]string{
				{
					"relationshipType": "OWNER",
					"identifier":       "urn:li:userGeneratedContent",
				},
			},
		},
	}

	body, err := json.Marshal(registerData)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.linkedin.com/v2/assets?action=registerUpload", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := platformHTTPClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("linkedin asset registration error: %d - %s", resp.StatusCode, string(respBody))
	}

	var registerResp struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism map[string]struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&registerResp); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	var uploadURL string
	for _, m := range registerResp.Value.UploadMechanism {
		if m.UploadURL != "" {
			uploadURL = m.UploadURL
			break
		}
	}
	if uploadURL == "" {
		return "", errors.New("linkedin did not return an upload URL")
	}

	imgReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	imgResp, err := platformHTTPClient.Do(imgReq)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer imgResp.Body.Close()

	imageBytes, err := io.ReadAll(imgResp.Body)
	if err != nil {
		return "", err
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(imageBytes))
	if err != nil {
		return "", err
	}
	putReq.Header.Set("Authorization", "Bearer "+accessToken)

	putResp, err := platformHTTPClient.Do(putReq)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer putResp.Body.Close()

	if putResp.StatusCode != http.StatusCreated && putResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(putResp.Body)
		return "", fmt.Errorf("linkedin image upload error: %d - %s", putResp.StatusCode, string(respBody))
	}

	return registerResp.Value.Asset, nil
}
