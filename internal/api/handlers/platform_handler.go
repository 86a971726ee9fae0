package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/postloom/postloom/configs"
	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/service"
	"github.com/postloom/postloom/pkg/utils"
)

type PlatformHandler struct {
	cfg       config.Config
	platforms service.PlatformService
	linkedin  service.LinkedinService
	facebook  service.FacebookService
	twitter   service.TwitterService
	instagram service.InstagramService
}

func NewPlatformHandler(
	cfg config.Config,
	platforms service.PlatformService,
	linkedin service.LinkedinService,
	facebook service.FacebookService,
	twitter service.TwitterService,
	instagram service.InstagramService,
) *PlatformHandler {
	return &PlatformHandler{
		cfg:       cfg,
		platforms: platforms,
		linkedin:  linkedin,
		facebook:  facebook,
		twitter:   twitter,
		instagram: instagram,
	}
}

// Connect redirects the user to the platform's consent page. The signed
// user id rides along as the OAuth state so the callback can attribute
// the authorization without a session.
func (h *PlatformHandler) Connect(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	if !models.IsSupportedPlatform(platform) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported platform",
		})
	}

	state, err := utils.GenerateToken(h.cfg.SecretKey, strconv.FormatInt(userID, 10), 10*time.Minute)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to create authorization state",
		})
	}

	authURL := h.platforms.GetAuthURL(c.Context(), platform, state)
	if authURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported platform",
		})
	}

	return c.Redirect(authURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) Callback(c *fiber.Ctx) error {
	platform := c.Params("platform")
	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing code or state",
		})
	}

	claims, err := utils.ValidateToken(h.cfg.SecretKey, state)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid state token",
		})
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid state token",
		})
	}

	switch platform {
	case "linkedin":
		err = h.linkedin.Callback(c.Context(), code, userID)
	case "facebook":
		err = h.facebook.Callback(c.Context(), code, userID)
	case "twitter":
		err = h.twitter.Callback(c.Context(), code, userID)
	case "instagram":
		err = h.instagram.Callback(c.Context(), code, userID)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported platform",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to link account",
		})
	}

	return c.Redirect(h.cfg.FrontendURL+"/accounts", fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.platforms.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list social accounts",
		})
	}

	if accounts == nil {
		accounts = []*models.SocialAccount{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"accounts": accounts,
	})
}

func (h *PlatformHandler) RemoveAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid account id",
		})
	}

	if err := h.platforms.Delete(c.Context(), userID, int64(id)); err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Social account removed successfully",
	})
}
