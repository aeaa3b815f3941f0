package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.ServerPort)
	}
	if cfg.QuizQuestionCount != 15 {
		t.Fatalf("expected 15 questions, got %d", cfg.QuizQuestionCount)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %s", cfg.APITimeout)
	}
	if cfg.AllowedOrigins != nil {
		t.Fatalf("expected allow-all origins, got %v", cfg.AllowedOrigins)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development env by default")
	}
}

func TestLoadOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://a.example" || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"QUIZ_QUESTION_COUNT", "abc", "parse env:"},
		{"QUIZ_QUESTION_COUNT", "0", "QUIZ_QUESTION_COUNT"},
		{"QUIZ_QUESTION_COUNT", "51", "QUIZ_QUESTION_COUNT"},
		{"API_TIMEOUT", "-1s", "API_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %v", tt.want, err)
			}
		})
	}
}
