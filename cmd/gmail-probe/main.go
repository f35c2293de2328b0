// Gmail probe checks what a bearer token can read from a Nubank payment email.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-probe/internal/auth"
	"github.com/hal9000y/gmail-probe/internal/config"
	"github.com/hal9000y/gmail-probe/internal/format"
	"github.com/hal9000y/gmail-probe/internal/gservice"
	"github.com/hal9000y/gmail-probe/internal/mailbox"
	"github.com/hal9000y/gmail-probe/internal/parser"
	"github.com/hal9000y/gmail-probe/internal/probe"
	"github.com/hal9000y/gmail-probe/internal/report"
	"github.com/hal9000y/gmail-probe/internal/tool"
)

type options struct {
	envFile    string
	configFile string
	outDir     string
	tokenFile  string
	keyringKey string
	noPrompt   bool
	stdio      bool
	logFile    string
}

func main() {
	opts := options{}
	flag.StringVar(&opts.envFile, "env-file", "", "Path to env file")
	flag.StringVar(&opts.configFile, "config", "", "Path to YAML config file")
	flag.StringVar(&opts.outDir, "out-dir", "", "Directory for the persisted responses (default: system temp dir)")
	flag.StringVar(&opts.tokenFile, "token-file", "", "Path to a JSON oauth2 token to read the access token from")
	flag.StringVar(&opts.keyringKey, "keyring-key", "", "Keyring entry holding the access token")
	flag.BoolVar(&opts.noPrompt, "no-prompt", false, "Never prompt for the access token")
	flag.BoolVar(&opts.stdio, "stdio", false, "Serve the probe as MCP tools over stdio (disables stdout logging)")
	flag.StringVar(&opts.logFile, "log-file", "", "Path to log file (otherwise logs to stderr, or nowhere with -stdio)")

	flag.Parse()

	persistLogs := setupLogger(opts.stdio, opts.logFile)

	err := run(opts)
	persistLogs()

	if err != nil {
		report.Failure(os.Stdout, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil {
			return fmt.Errorf("godotenv.Load failed: %w", err)
		}
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return fmt.Errorf("config.Load failed: %w", err)
	}
	if opts.outDir != "" {
		cfg.Report.OutDir = opts.outDir
	}
	if opts.tokenFile != "" {
		cfg.Token.File = opts.tokenFile
	}
	if opts.keyringKey != "" {
		cfg.Token.KeyringKey = opts.keyringKey
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	src, err := tokenSource(cfg.Token, opts.noPrompt || opts.stdio)
	if err != nil {
		return err
	}

	ts, err := auth.NewTokenSource(ctx, src)
	if errors.Is(err, auth.ErrTokenNotSet) {
		return fmt.Errorf("an access token is required, set %s or use -token-file / -keyring-key: %w", cfg.Token.EnvVar, err)
	}
	if err != nil {
		return fmt.Errorf("auth.NewTokenSource failed: %w", err)
	}

	gmailSvc, err := gservice.NewGmail(ctx, ts)
	if err != nil {
		return fmt.Errorf("gservice.NewGmail failed: %w", err)
	}
	finder := mailbox.NewFinder(gmailSvc)

	if opts.stdio {
		return serveStdio(ctx, tool.NewServer(cfg.Search, finder, gmailSvc, format.Converter{}, parser.Nubank{}))
	}

	rep := report.NewReporter(os.Stdout, cfg.Report, format.Converter{})

	return probe.NewProbe(finder, gmailSvc, parser.Nubank{}, rep).Run(ctx, cfg)
}

func tokenSource(cfg config.Token, noPrompt bool) (auth.Source, error) {
	chain := auth.Chain{
		auth.EnvSource{Name: cfg.EnvVar},
		auth.FileSource{Path: cfg.File},
	}

	if cfg.KeyringKey != "" {
		ring, err := auth.OpenKeyring()
		if err != nil {
			return nil, fmt.Errorf("auth.OpenKeyring failed: %w", err)
		}
		chain = append(chain, auth.KeyringSource{Ring: ring, Key: cfg.KeyringKey})
	}

	if !noPrompt {
		chain = append(chain, auth.PromptSource{
			In:     os.Stdin,
			Out:    os.Stdout,
			Prompt: fmt.Sprintf("Paste your OAuth access token (or set %s):", cfg.EnvVar),
		})
	}

	return chain, nil
}

func serveStdio(ctx context.Context, srv *mcp.Server) error {
	log.Println("Starting stdio transport")
	defer log.Println("Stdio transport stopped")

	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("srv.Run failed: %w", err)
	}
	return nil
}

func setupLogger(enableStdio bool, logFile string) func() {
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			panic(fmt.Errorf("failed to open log file: %w", err))
		}
		log.SetOutput(f)

		return func() {
			if err := f.Close(); err != nil {
				log.Println(fmt.Errorf("f.Close failed: %w", err))
			}
		}
	}

	if enableStdio {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
	}

	return func() {}
}
