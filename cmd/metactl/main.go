package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	"github.com/bowjoww/wr-cn-meta-draft/internal/app"
	"github.com/bowjoww/wr-cn-meta-draft/internal/config"
	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/platform/logging"
	"github.com/bowjoww/wr-cn-meta-draft/internal/usecase"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	name := strings.ToLower(strings.TrimSpace(args[0]))
	handler, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		printUsage(stderr)
		return exitUsage
	}

	req, err := handler.parse(args[1:], stderr)
	if err != nil {
		if crerr.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return exitError
	}

	logger := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: stderr,
	}).Named("metactl")
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	pipeline, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		return exitError
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.Warn("close pipeline", "error", err)
		}
	}()

	out, err := handler.run(ctx, pipeline, req)
	if err != nil {
		logger.Error("command failed", "command", name, "error", err)
		if crerr.Is(err, meta.ErrInvalidArgument) {
			return exitUsage
		}
		return exitError
	}

	if err := writeJSON(stdout, out); err != nil {
		logger.Error("write output", "error", err)
		return exitError
	}
	return exitOK
}

type request struct {
	query usecase.MetaQuery
	warm  usecase.WarmInput
}

type command struct {
	parse func(args []string, stderr io.Writer) (request, error)
	run   func(ctx context.Context, pipeline *app.App, req request) (any, error)
}

var commands = map[string]command{
	"rows": {
		parse: parseQueryFlags("rows", true),
		run: func(ctx context.Context, pipeline *app.App, req request) (any, error) {
			return pipeline.Meta.FetchNormalizedRows(ctx, req.query)
		},
	},
	"snapshot": {
		parse: parseQueryFlags("snapshot", false),
		run: func(ctx context.Context, pipeline *app.App, req request) (any, error) {
			return pipeline.Meta.Snapshot(ctx, req.query.Tier, req.query)
		},
	},
	"summary": {
		parse: parseTierFlags("summary"),
		run: func(ctx context.Context, pipeline *app.App, req request) (any, error) {
			return pipeline.Meta.SummarizeByPosition(ctx, req.query.Tier)
		},
	},
	"status": {
		parse: parseNoFlags("status"),
		run: func(ctx context.Context, pipeline *app.App, _ request) (any, error) {
			return pipeline.Meta.SourceStatus(ctx)
		},
	},
	"discover": {
		parse: parseNoFlags("discover"),
		run: func(ctx context.Context, pipeline *app.App, _ request) (any, error) {
			return pipeline.Meta.Discover(ctx)
		},
	},
	"refresh-heroes": {
		parse: parseNoFlags("refresh-heroes"),
		run: func(ctx context.Context, pipeline *app.App, _ request) (any, error) {
			cache, err := pipeline.Meta.RefreshHeroMap(ctx)
			if err != nil {
				return nil, err
			}
			return heroMapResult{
				FetchedAt: cache.FetchedAt,
				SourceURL: cache.SourceURL,
				HeroCount: len(cache.Items),
			}, nil
		},
	},
	"warm": {
		parse: parseWarmFlags,
		run: func(ctx context.Context, pipeline *app.App, req request) (any, error) {
			return pipeline.Refresh.Warm(ctx, req.warm)
		},
	},
}

type heroMapResult struct {
	FetchedAt time.Time `json:"fetched_at"`
	SourceURL string    `json:"source_url"`
	HeroCount int       `json:"hero_count"`
}

func parseQueryFlags(name string, withRole bool) func([]string, io.Writer) (request, error) {
	return func(args []string, stderr io.Writer) (request, error) {
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.SetOutput(stderr)

		var query usecase.MetaQuery
		if withRole {
			fs.StringVar(&query.Role, "role", "", "role: top|jungle|mid|adc|support")
		}
		fs.StringVar(&query.Tier, "tier", string(meta.TierDiamond), "tier: diamond|master|challenger")
		fs.StringVar(&query.Sort, "sort", "", "sort key, defaults to the view's score")
		fs.StringVar(&query.Dir, "dir", "", "sort direction: asc|desc")
		fs.StringVar(&query.View, "view", "", "view: priority|power|draft")
		fs.StringVar(&query.NameLang, "name-lang", "", "champion names: auto|global|cn")
		fs.IntVar(&query.Limit, "limit", 0, "max rows per role, 0 for all")
		if err := fs.Parse(args); err != nil {
			return request{}, err
		}
		if withRole && strings.TrimSpace(query.Role) == "" {
			return request{}, fmt.Errorf("%s: -role is required", name)
		}
		return request{query: query}, nil
	}
}

func parseTierFlags(name string) func([]string, io.Writer) (request, error) {
	return func(args []string, stderr io.Writer) (request, error) {
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.SetOutput(stderr)

		var query usecase.MetaQuery
		fs.StringVar(&query.Tier, "tier", string(meta.TierDiamond), "tier: diamond|master|challenger")
		if err := fs.Parse(args); err != nil {
			return request{}, err
		}
		return request{query: query}, nil
	}
}

func parseNoFlags(name string) func([]string, io.Writer) (request, error) {
	return func(args []string, stderr io.Writer) (request, error) {
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		if err := fs.Parse(args); err != nil {
			return request{}, err
		}
		if fs.NArg() > 0 {
			return request{}, fmt.Errorf("%s takes no arguments", name)
		}
		return request{}, nil
	}
}

func parseWarmFlags(args []string, stderr io.Writer) (request, error) {
	fs := flag.NewFlagSet("warm", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		tiers string
		input usecase.WarmInput
	)
	fs.StringVar(&tiers, "tiers", "", "comma separated tiers, all when empty")
	fs.IntVar(&input.MaxWorkers, "workers", 0, "worker count, REFRESH_WORKERS when 0")
	fs.BoolVar(&input.Force, "force", false, "refetch tiers that are still fresh")
	if err := fs.Parse(args); err != nil {
		return request{}, err
	}

	for _, tier := range strings.Split(tiers, ",") {
		if tier = strings.TrimSpace(tier); tier != "" {
			input.Tiers = append(input.Tiers, tier)
		}
	}
	return request{warm: input}, nil
}

func writeJSON(w io.Writer, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return crerr.Wrap(err, "encode output")
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

func printUsage(w io.Writer) {
	bin := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "usage: %s <rows|snapshot|summary|status|discover|refresh-heroes|warm> [flags]\n", bin)
	fmt.Fprintln(w, "examples:")
	fmt.Fprintf(w, "  %s rows -role support -tier diamond -limit 10\n", bin)
	fmt.Fprintf(w, "  %s snapshot -tier master -view draft\n", bin)
	fmt.Fprintf(w, "  %s summary -tier challenger\n", bin)
	fmt.Fprintf(w, "  %s warm -tiers diamond,master -force\n", bin)
}
