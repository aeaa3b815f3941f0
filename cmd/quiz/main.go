package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/stemsi/quizling/internal/api"
	"github.com/stemsi/quizling/internal/config"
	"github.com/stemsi/quizling/internal/logger"
	"github.com/stemsi/quizling/internal/validator"
)

const defaultWidth = 80

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	count := flag.Int("n", cfg.QuizQuestionCount, "Number of questions (1-50)")
	flag.Usage = usage
	flag.Parse()

	// ─── Initialize Logger ─────────────────────────────────────────────
	// stderr keeps log lines out of the quiz output.
	log := logger.SetupWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	client := api.New(api.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Logger:  logger.Diagnostic(log, cfg.IsDevelopment()),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch flag.Arg(0) {
	case "", "play":
		p := &player{
			src:   client,
			count: *count,
			in:    os.Stdin,
			out:   os.Stdout,
			width: terminalWidth(),
		}
		if err := p.Run(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	case "health":
		os.Exit(health(ctx, client, log))
	default:
		usage()
		os.Exit(2)
	}
}

func health(ctx context.Context, client api.QuestionAPI, log zerolog.Logger) int {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := client.Health(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Health check failed")
		fmt.Println("unhealthy:", api.Message(err))
		return 1
	}
	fmt.Printf("%s %s\n", resp.Status, resp.Service)
	if resp.Status != "healthy" {
		return 1
	}
	return 0
}

// terminalWidth wraps to the terminal when stdout is one.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w < 20 {
		return defaultWidth
	}
	return w
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  quiz [-n count] [play]   take a quiz in the terminal")
	fmt.Fprintln(os.Stderr, "  quiz health              check the question API")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}
