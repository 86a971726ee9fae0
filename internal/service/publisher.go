package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	config "github.com/postloom/postloom/configs"
	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/repository"
	"github.com/postloom/postloom/pkg/utils"
)

// Publisher performs the actual network call to a platform's posting API.
type Publisher interface {
	Publish(ctx context.Context, platform string, userID int64, content, imageURL string) error
}

// PlatformPublisher is one platform's posting implementation. The access
// token arrives already decrypted.
type PlatformPublisher interface {
	PublishPost(ctx context.Context, account *models.SocialAccount, accessToken, content, imageURL string) error
}

type socialPublisher struct {
	cfg       config.Config
	sa        repository.SocialAccountRepository
	platforms map[string]PlatformPublisher
}

func NewPublisher(cfg config.Config, sa repository.SocialAccountRepository,
	linkedin, facebook, twitter, instagram PlatformPublisher) Publisher {
	return &socialPublisher{
		cfg: cfg,
		sa:  sa,
		platforms: map[string]PlatformPublisher{
			"linkedin":  linkedin,
			"facebook":  facebook,
			"twitter":   twitter,
			"instagram": instagram,
		},
	}
}

// platformHTTPClient bounds every posting call. A hung platform API must
// fail the post, not stall the whole processing batch.
var platformHTTPClient = &http.Client{Timeout: 30 * time.Second}

func (p *socialPublisher) Publish(ctx context.Context, platform string, userID int64, content, imageURL string) error {
	adapter, ok := p.platforms[platform]
	if !ok || adapter == nil {
		err := fmt.Errorf("unsupported platform: %s", platform)
		slog.Info(err.Error())
		return err
	}

	account, err := p.sa.GetByUserPlatform(ctx, userID, platform)
	if err != nil {
		return fmt.Errorf("error looking up %s account: %w", platform, err)
	}
	if account == nil {
		return fmt.Errorf("no linked %s account for user %d", platform, userID)
	}

	accessToken, err := utils.Decrypt(account.AccessToken, []byte(p.cfg.SecretKey))
	if err != nil {
		return fmt.Errorf("error decrypting %s token: %w", platform, err)
	}

	return adapter.PublishPost(ctx, account, accessToken, content, imageURL)
}
