package service

import (
	"strings"
	"testing"

	config "github.com/postloom/postloom/configs"
)

func TestCreatePostPromptPlatformGuidance(t *testing.T) {
	s := &openAIService{cfg: config.Config{}}

	tests := []struct {
		platform string
		want     string
	}{
		{"linkedin", "professional tone"},
		{"twitter", "280 characters"},
		{"instagram", "emojis"},
		{"facebook", "friendly, engaging tone"},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			prompt := s.createPostPrompt("", "product launch", "", "", tt.platform)
			if !strings.Contains(prompt, tt.want) {
				t.Errorf("prompt for %s missing %q:\n%s", tt.platform, tt.want, prompt)
			}
			if !strings.Contains(prompt, "product launch") {
				t.Errorf("prompt for %s missing the theme", tt.platform)
			}
		})
	}
}

func TestCreatePostPromptIncludesContext(t *testing.T) {
	s := &openAIService{cfg: config.Config{}}

	prompt := s.createPostPrompt("https://example.com", "hiring", "we are growing fast", "Example Corp builds widgets", "linkedin")

	for _, want := range []string{"https://example.com", "we are growing fast", "Example Corp builds widgets"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCreateImagePrompt(t *testing.T) {
	s := &openAIService{cfg: config.Config{}}

	prompt := s.CreateImagePrompt("sustainability", "a solar startup")
	if !strings.Contains(prompt, "sustainability") {
		t.Error("image prompt missing the theme")
	}
	if !strings.Contains(prompt, "a solar startup") {
		t.Error("image prompt missing the company context")
	}

	bare := s.CreateImagePrompt("sustainability", "")
	if strings.Contains(bare, "company context") {
		t.Error("image prompt mentions company context without one")
	}
}

func TestTagStripper(t *testing.T) {
	in := `<html><body><h1>Hello</h1><p>World</p></body></html>`
	out := strings.Join(strings.Fields(tagStripper.ReplaceAllString(in, " ")), " ")
	if out != "Hello World" {
		t.Errorf("stripped text = %q, want %q", out, "Hello World")
	}
}
