// Package main records and lists quiz attempts in the quiz history database.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	entrypoint "github.com/louisbranch/countryquiz/internal/platform/cmd"
	"github.com/louisbranch/countryquiz/internal/platform/config"
	apperrors "github.com/louisbranch/countryquiz/internal/platform/errors"
	"github.com/louisbranch/countryquiz/internal/tools/quizzes"
)

func main() {
	cfg, err := quizzes.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log.SetPrefix("[QUIZZES] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	err = entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceQuizzes, func(ctx context.Context) error {
		return quizzes.Run(ctx, cfg, os.Stdin, os.Stdout, os.Stderr)
	})
	if err != nil {
		cancel()
		stop()
		config.ExitCodef(apperrors.CodeOf(err).ExitCode(), "Error: %v", err)
	}
}
