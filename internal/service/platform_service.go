package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	config "github.com/postloom/postloom/configs"
	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/repository"
)

const (
	LINKEDIN_AUTH_URL  = "https://www.linkedin.com/oauth/v2/authorization"
	FACEBOOK_AUTH_URL  = "https://www.facebook.com/v18.0/dialog/oauth"
	TWITTER_AUTH_URL   = "https://twitter.com/i/oauth2/authorize"
	INSTAGRAM_AUTH_URL = "https://www.instagram.com/oauth/authorize"
)

type PlatformService interface {
	GetAuthURL(ctx context.Context, platform, tokenString string) string
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Delete(ctx context.Context, userID, accountID int64) error
}

type platformService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewPlatformService(cfg config.Config, sa repository.SocialAccountRepository) PlatformService {
	return &platformService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *platformService) GetAuthURL(ctx context.Context, platform, tokenString string) string {
	switch platform {
	case "linkedin":
		params := url.Values{}
		params.Add("client_id", s.cfg.LinkedinClientID)
		params.Add("scope", "openid profile email w_member_social")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.LinkedinRedirectURI)
		params.Add("state", tokenString)

		return fmt.Sprintf("%s?%s", LINKEDIN_AUTH_URL, params.Encode())

	case "facebook":
		params := url.Values{}
		params.Add("client_id", s.cfg.FacebookClientID)
		params.Add("scope", "public_profile,pages_manage_posts")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.FacebookRedirectURI)
		params.Add("state", tokenString)

		return fmt.Sprintf("%s?%s", FACEBOOK_AUTH_URL, params.Encode())

	case "twitter":
		params := url.Values{}
		params.Add("client_id", s.cfg.TwitterClientID)
		params.Add("scope", "tweet.read tweet.write users.read offline.access")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.TwitterRedirectURI)
		params.Add("state", tokenString)
		params.Add("code_challenge", "challenge")
		params.Add("code_challenge_method", "plain")

		return fmt.Sprintf("%s?%s", TWITTER_AUTH_URL, params.Encode())

	case "instagram":
		params := url.Values{}
		params.Add("client_id", s.cfg.InstagramClientID)
		params.Add("scope", "instagram_business_basic,instagram_business_content_publish")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.InstagramRedirectURI)
		params.Add("state", tokenString)

		return fmt.Sprintf("%s?%s", INSTAGRAM_AUTH_URL, params.Encode())

	default:
		return ""
	}
}

func (s *platformService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	var err error

	if userID == 0 {
		err = fmt.Errorf("%w: user id is not valid", ErrValidation)
		slog.Info(err.Error())
		return nil, err
	}

	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting social accounts")
	}

	return accounts, nil
}

func (s *platformService) Delete(ctx context.Context, userID, accountID int64) error {
	var err error

	if userID == 0 {
		err = fmt.Errorf("%w: user id is not valid", ErrValidation)
		slog.Info(err.Error())
		return err
	}

	if accountID == 0 {
		err = fmt.Errorf("%w: account id is not valid", ErrValidation)
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}

	if !isValid {
		err = fmt.Errorf("%w: social account doesn't exist", ErrNotFound)
		slog.Info(err.Error())
		return err
	}

	err = s.sa.Remove(ctx, accountID)
	if err != nil {
		return fmt.Errorf("Error removing social account")
	}

	return nil
}
