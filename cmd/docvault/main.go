// Package main is the docvault CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/docvault/internal/cli"
	"github.com/hyperjump/docvault/internal/config"
	"github.com/hyperjump/docvault/internal/models"
	"github.com/hyperjump/docvault/internal/server"
	"github.com/hyperjump/docvault/internal/watcher"
	"github.com/hyperjump/docvault/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/docvault/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory takes precedence, and when neither exists the built-in defaults
// (plus environment overrides) are used. Returns the config and the path that was
// actually loaded, or "" for defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.LoadDefaults()
			if err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "upload":
		runUpload()
	case "search":
		runSearch()
	case "history":
		runHistory()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("docvault version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config, builds a logger and opens the components for direct (serverless) commands.
func setup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	return cfg, resolved, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (uploads, searches, inbox events, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("key_source", components.KeySource),
		zap.String("key_id", components.Box.KeyID()),
	)
	if components.KeySource == "ephemeral" {
		logger.Warn("ephemeral key: documents stored by this process cannot be read after it exits")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := components.Service
	inbox := watcher.NewInbox(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		func(path string) {
			if _, err := svc.UploadPath(ctx, path); err != nil {
				logger.Warn("inbox upload failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(logger.Named("inbox")),
	)
	srv := server.NewServer(svc, cfg, logger, inbox, resolvedConfigPath)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return inbox.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func runUpload() {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = use direct storage)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: docvault upload [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	info, err := os.Stat(path)
	if err != nil {
		fatalf("Failed to stat path: %v", err)
	}

	if *serverURL != "" {
		if info.IsDir() {
			fatalf("Directory upload is only supported without --server")
		}
		doc, err := uploadViaHTTP(*serverURL, path)
		if err != nil {
			fatalf("Upload failed: %v", err)
		}
		fmt.Printf("Document stored: %s (id %d)\n", doc.Filename, doc.ID)
		return
	}

	cfg, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	if info.IsDir() {
		n, err := components.Service.UploadDirectory(ctx, path, cfg.Watch.Extensions)
		fmt.Printf("Stored %d file(s) from %s\n", n, path)
		if err != nil {
			fatalf("Some files failed: %v", err)
		}
		return
	}
	doc, err := components.Service.UploadPath(ctx, path)
	if err != nil {
		fatalf("Upload failed: %s", describeError(err))
	}
	fmt.Printf("Document stored: %s (id %d)\n", doc.Filename, doc.ID)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: docvault search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Matching is a case-insensitive substring test.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  docvault search quarterly report
  docvault search --user alice "net revenue"
  docvault search --output json invoice
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting. Whitespace inside quoted
// arguments is kept: matching uses the query exactly as typed.
func buildSearchQuery(args []string) string {
	return strings.Join(args, " ")
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = use direct storage)")
	user := fs.String("user", "", "user the search is recorded for (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	queryStr := buildSearchQuery(fs.Args())

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, &models.SearchQuery{Query: queryStr, User: *user})
		if err != nil {
			fatalf("Search failed: %v", err)
		}
	} else {
		cfg, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		response, err = components.Service.Search(context.Background(), resolveUser(*user, cfg), queryStr)
		if err != nil {
			fatalf("Search failed: %s", describeError(err))
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = use direct storage)")
	user := fs.String("user", "", "user whose history to show (default from config)")
	export := fs.Bool("export", false, "write <user>_history.txt instead of printing")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	if *serverURL != "" {
		if *export {
			path, err := exportViaHTTP(*serverURL, *user, ".")
			if err != nil {
				fatalf("Export failed: %v", err)
			}
			fmt.Printf("History exported to %s\n", path)
			return
		}
		name, recs, err := historyViaHTTP(*serverURL, *user)
		if err != nil {
			fatalf("History failed: %v", err)
		}
		if err := cli.WriteHistory(os.Stdout, name, recs, format); err != nil {
			fatalf("Output failed: %v", err)
		}
		return
	}

	cfg, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()
	name := resolveUser(*user, cfg)
	ctx := context.Background()
	if *export {
		path, err := components.Service.ExportHistory(ctx, name)
		if err != nil {
			fatalf("Export failed: %s", describeError(err))
		}
		fmt.Printf("History exported to %s\n", path)
		return
	}
	recs, err := components.Service.History(ctx, name)
	if err != nil {
		fatalf("History failed: %s", describeError(err))
	}
	if err := cli.WriteHistory(os.Stdout, name, recs, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	var st *models.Status
	if *serverURL != "" {
		st, err = statusViaHTTP(*serverURL)
		if err != nil {
			fatalf("Status failed: %v", err)
		}
	} else {
		_, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		st, err = components.Service.Status(context.Background())
		if err != nil {
			fatalf("Status failed: %v", err)
		}
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// resolveUser returns explicit when set, otherwise the configured default user.
func resolveUser(explicit string, cfg *config.Config) string {
	if explicit != "" {
		return explicit
	}
	return cfg.Search.DefaultUser
}

// describeError turns domain errors into short user-facing messages.
func describeError(err error) string {
	switch {
	case errors.Is(err, models.ErrUnsupportedType):
		return "unsupported file type (use .pdf, .docx or .txt): " + err.Error()
	case errors.Is(err, models.ErrEmptyContent):
		return "no text could be extracted; nothing was stored"
	case errors.Is(err, models.ErrExtraction):
		return "could not read document: " + err.Error()
	case errors.Is(err, models.ErrInvalidUser):
		return "invalid user name: " + err.Error()
	default:
		return err.Error()
	}
}

func printUsage() {
	fmt.Println(`docvault - Encrypted document store with substring search

Usage:
  docvault server [flags]                  Start the HTTP server (and inbox watcher)
  docvault upload [flags] <file|dir>       Store a PDF, DOCX or TXT file
  docvault search [flags] <query>          Search stored documents
  docvault history [flags]                 Show or export a user's search history
  docvault status [flags]                  Show store status
  docvault version                         Show version
  docvault help                            Show this help

Common Flags:
  --config string    Config file path (default: ./config.yaml if present, then
                     /usr/local/etc/docvault/config.yaml, then built-in defaults)
  --server string    Server URL, e.g. http://localhost:8080 (default: direct storage)

Server Flags:
  --debug            Enable debug logging

Search Flags:
  --user string      User the search is recorded for (default: search.default_user)
  --output string    Output format: text or json (default: text)

History Flags:
  --user string      User whose history to show
  --export           Write <user>_history.txt
  --output string    Output format: text or json (default: text)

Environment:
  DOCVAULT_*         Override config keys, e.g. DOCVAULT_SERVER__PORT=9000
  .env               Loaded from the working directory when present

Examples:
  docvault server
  docvault upload report.pdf
  docvault upload ./inbox
  docvault search --user alice revenue
  docvault history --user alice --export
  docvault status --output json`)
}
