// Fields check fetches one message with a partial response projection and prints it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hal9000y/gmail-probe/internal/auth"
	"github.com/hal9000y/gmail-probe/internal/gservice"
	"github.com/hal9000y/gmail-probe/internal/report"
)

const tokenEnv = "GMAIL_ACCESS_TOKEN"

func main() {
	msgID := flag.String("id", "19c43d6e9d094965", "Message ID to fetch")
	fields := flag.String("fields", "id,snippet,internalDate", "Partial response projection")
	envFile := flag.String("env-file", "", "Path to env file")

	flag.Parse()

	if err := run(*msgID, *fields, *envFile); err != nil {
		report.Failure(os.Stdout, err)
		os.Exit(1)
	}
}

func run(msgID, fields, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("godotenv.Load failed: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	ts, err := auth.NewTokenSource(ctx, auth.EnvSource{Name: tokenEnv})
	if errors.Is(err, auth.ErrTokenNotSet) {
		return fmt.Errorf("define %s: %w", tokenEnv, err)
	}
	if err != nil {
		return fmt.Errorf("auth.NewTokenSource failed: %w", err)
	}

	svc, err := gservice.NewGmail(ctx, ts)
	if err != nil {
		return fmt.Errorf("gservice.NewGmail failed: %w", err)
	}

	msg, err := svc.GetMessage(ctx, msgID, fields)
	if err != nil {
		return err
	}

	out, err := report.EncodeJSON(msg, true)
	if err != nil {
		return err
	}

	fmt.Printf("OK - response with fields=%s:\n%s\n", fields, out)

	return nil
}
