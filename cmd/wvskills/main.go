// Command wvskills drives a Weaviate instance and the OpenAI API from the shell:
// connection checks, collection management, ingestion, queries and RAG.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/app"
	"github.com/saskinosie/weaviate-claude-skills/internal/config"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	logpkg "github.com/saskinosie/weaviate-claude-skills/internal/logger"
	"github.com/saskinosie/weaviate-claude-skills/internal/version"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errUsage marks argument errors; the command usage is printed with them.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app.App, args []string, out io.Writer) error
}

var commands = []command{
	{"check", "verify the Weaviate connection, OpenAI key and cache", runCheck},
	{"meta", "print Weaviate version and enabled modules", runMeta},
	{"usage", "print the token budget report", runUsage},
	{"collections", "list|get|exists|create|delete|add-property", runCollections},
	{"insert", "insert one object", runInsert},
	{"ingest", "batch-insert a JSON lines file", runIngest},
	{"update", "merge or replace an object's properties", runUpdate},
	{"get", "fetch one object by id", runGet},
	{"list", "page through a collection", runList},
	{"delete", "delete an object by id or objects matching a filter", runDelete},
	{"query", "near_text, near_vector, near_image, bm25 or hybrid search", runQuery},
	{"aggregate", "count objects, optionally grouped by a property", runAggregate},
	{"generate", "generative search through the collection's generative module", runGenerate},
	{"ask", "answer a question from retrieved objects", runAsk},
	{"describe", "describe an image, optionally grounded in a collection", runDescribe},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("wvskills", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	configPath := fs.String("config", "", "config file (default: config/<env>.yaml|.toml, then env only)")
	envFile := fs.String("env-file", ".env", "dotenv file loaded before the config")
	logLevel := fs.String("log-level", "", "debug, info, warn, error (default: warn)")
	timeout := fs.Duration("timeout", 0, "overall command timeout, 0 for none")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *showVersion {
		_, _ = fmt.Fprintln(stdout, "wvskills", version.Get())
		return exitOK
	}
	if fs.NArg() == 0 {
		printUsage(stderr, fs)
		return exitUsage
	}

	cmd, ok := lookup(fs.Arg(0))
	if !ok {
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", fs.Arg(0))
		printUsage(stderr, fs)
		return exitUsage
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		_, _ = fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "error:", err)
		return exitError
	}

	level := *logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	if level == "" {
		level = "warn"
	}
	env := config.GetEnv()
	log, err := logpkg.NewLogger(env, logpkg.Options{
		Level:      level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}
	ctx = logpkg.ContextWithLogger(ctx, log.With(zap.String("command", cmd.name)))
	ctx, usage := domain.NewContextWithUsage(ctx)

	a, err := app.New(ctx, cfg, log, app.Options{WaitForReady: cmd.name != "check"})
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	defer func() { _ = a.Close() }()

	start := time.Now()
	err = cmd.run(ctx, a, fs.Args()[1:], stdout)
	log.Debug("command finished",
		zap.String("command", cmd.name),
		zap.Duration("duration", time.Since(start)),
		zap.Int("embedding_tokens", usage.Embedding()),
		zap.Int("generation_tokens", usage.Generation()),
		zap.Error(err),
	)
	return exitCode(err, stderr)
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, pflag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintln(stderr, "error:", err)
		return exitUsage
	default:
		_, _ = fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(config.GetEnv())
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	_, _ = fmt.Fprintln(w, "Usage: wvskills [global flags] <command> [flags] [args]")
	_, _ = fmt.Fprintln(w, "\nCommands:")
	for _, c := range commands {
		_, _ = fmt.Fprintf(w, "  %-12s %s\n", c.name, c.summary)
	}
	_, _ = fmt.Fprintln(w, "\nGlobal flags:")
	_, _ = fmt.Fprint(w, fs.FlagUsages())
	_, _ = fmt.Fprintln(w, "\nConnection settings come from WEAVIATE_URL, WEAVIATE_API_KEY and OPENAI_API_KEY (or a .env file).")
}
