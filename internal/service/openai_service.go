package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	config "github.com/postloom/postloom/configs"
	openai "github.com/sashabaranov/go-openai"
)

type OpenAIService interface {
	GeneratePost(ctx context.Context, profileURL, theme, details, platform string) (string, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	CreateImagePrompt(theme, companyInfo string) string
}

type openAIService struct {
	cfg    config.Config
	client *openai.Client
}

func NewOpenAIService(cfg config.Config) OpenAIService {
	return &openAIService{
		cfg:    cfg,
		client: openai.NewClient(cfg.OpenAIKey),
	}
}

var tagStripper = regexp.MustCompile(`<[^>]*>`)

// GeneratePost analyzes the given website and asks the chat model for a
// platform-appropriate post.
func (s *openAIService) GeneratePost(ctx context.Context, profileURL, theme, details, platform string) (string, error) {
	websiteContent := s.analyzeWebsite(ctx, profileURL)

	prompt := s.createPostPrompt(profileURL, theme, details, websiteContent, platform)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: "gpt-4.1-mini",
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a top-performing social media content creator with 15 years of experience in B2B content.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   1000,
		Temperature: 0.7,
	})
	if err != nil {
		slog.Error(err.Error())
		return "", fmt.Errorf("error generating post: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("error generating post: empty completion")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateImage returns the raw image bytes for the given prompt.
func (s *openAIService) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		slog.Error(err.Error())
		return nil, fmt.Errorf("error generating image: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("error generating image: empty response")
	}

	imageBytes, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error decoding generated image: %w", err)
	}

	return imageBytes, nil
}

func (s *openAIService) CreateImagePrompt(theme, companyInfo string) string {
	prompt := fmt.Sprintf("A professional, modern illustration for a social media post about %q.", theme)
	if companyInfo != "" {
		prompt += fmt.Sprintf(" The company context: %s.", companyInfo)
	}
	prompt += " Clean composition, no text in the image, suitable as a feed visual."
	return prompt
}

// analyzeWebsite fetches the profile page and returns a plain-text excerpt.
// Failures degrade to an empty context rather than failing the generation.
func (s *openAIService) analyzeWebsite(ctx context.Context, profileURL string) string {
	if profileURL == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		slog.Info(err.Error())
		return ""
	}

	resp, err := platformHTTPClient.Do(req)
	if err != nil {
		slog.Info("website analysis failed", "url", profileURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return ""
	}

	text := tagStripper.ReplaceAllString(string(body), " ")
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 2000 {
		text = text[:2000]
	}
	return text
}

func (s *openAIService) createPostPrompt(profileURL, theme, details, websiteContent, platform string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a %s post about the following theme: %s\n", platform, theme)
	if details != "" {
		fmt.Fprintf(&b, "Additional details: %s\n", details)
	}
	if profileURL != "" {
		fmt.Fprintf(&b, "The post promotes the company behind %s.\n", profileURL)
	}
	if websiteContent != "" {
		fmt.Fprintf(&b, "Website content for context:\n%s\n", websiteContent)
	}

	switch platform {
	case "linkedin":
		b.WriteString("Use a professional tone, a strong hook in the first line, short paragraphs and 3-5 relevant hashtags at the end.")
	case "twitter":
		b.WriteString("Keep it under 280 characters with at most 2 hashtags.")
	case "instagram":
		b.WriteString("Use an engaging, visual tone with emojis and 5-10 hashtags at the end.")
	default:
		b.WriteString("Use a friendly, engaging tone appropriate for the platform.")
	}

	return b.String()
}
