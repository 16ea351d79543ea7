package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ytget/ytresolve"
	"github.com/ytget/ytresolve/client"
	"github.com/ytget/ytresolve/internal/config"
	"github.com/ytget/ytresolve/internal/jsengine"
	"github.com/ytget/ytresolve/internal/logger"
	"github.com/ytget/ytresolve/internal/rulecache"
	"github.com/ytget/ytresolve/tiktok"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagConfig    string
	flagFormat    string
	flagAttempts  int
	flagTimeout   time.Duration
	flagRetries   int
	flagUA        string
	flagProxy     string
	flagJSEngine  string
	flagCache     string
	flagCachePath string
	flagStrict    bool
	flagJSON      bool
	flagDebug     bool
)

// cfg holds the merged configuration: defaults < config file < env < flags.
var cfg *config.Config

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ytresolve [url]",
		Short: "Resolve YouTube and TikTok links into direct media URLs",
		Long: `ytresolve fetches a video page, picks a format from its adaptive catalog,
replays the player's signature transform when the format has no plain URL,
and prints a media URL that answered a reachability probe.`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: loadConfig,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return resolveRun(cmd, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/ytresolve/config.toml)")
	pf.StringVarP(&flagFormat, "format", "f", "", "Format selector: best | worst | itag=N | height<=N | height>=N | ext=X")
	pf.IntVar(&flagAttempts, "attempts", 0, "Maximum resolve attempts before giving up")
	pf.DurationVar(&flagTimeout, "timeout", 0, "Deadline for the whole resolve (e.g. 30s)")
	pf.IntVar(&flagRetries, "retries", 0, "HTTP retries for transient errors")
	pf.StringVar(&flagUA, "ua", "", "Override User-Agent header")
	pf.StringVar(&flagProxy, "proxy", "", "Proxy URL (http/https/socks)")
	pf.StringVar(&flagJSEngine, "js-engine", "", "Fallback classifier: goja | otto | off")
	pf.StringVar(&flagCache, "cache", "", "Rule cache: memory | file | sqlite | off")
	pf.StringVar(&flagCachePath, "cache-path", "", "Rule cache location for file/sqlite")
	pf.BoolVar(&flagStrict, "strict", false, "Fail when some cipher calls cannot be classified")
	pf.BoolVarP(&flagJSON, "json", "j", false, "Print results as JSON")
	pf.BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	root.AddCommand(newResolveCmd())
	root.AddCommand(newFormatsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig loads and merges configuration, then installs the global logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Resolve.Format = flagFormat
	}
	if flags.Changed("attempts") {
		cfg.Resolve.MaxAttempts = flagAttempts
	}
	if flags.Changed("timeout") {
		cfg.Resolve.Timeout = config.Duration{Duration: flagTimeout}
	}
	if flags.Changed("retries") {
		cfg.HTTP.Retries = flagRetries
	}
	if flagUA != "" {
		cfg.HTTP.UserAgent = flagUA
	}
	if flagProxy != "" {
		cfg.HTTP.Proxy = flagProxy
	}
	if flagJSEngine != "" {
		cfg.Cipher.JSEngine = flagJSEngine
	}
	if flagCache != "" {
		cfg.Cipher.Cache = flagCache
	}
	if flagCachePath != "" {
		cfg.Cipher.CachePath = flagCachePath
	}
	if flags.Changed("strict") {
		cfg.Cipher.Strict = flagStrict
	}
	if flagDebug {
		cfg.Log.Level = "DEBUG"
		cfg.Log.Components = []string{"all"}
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logger.CreateLoggerFromConfig(&cfg.Log)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	logger.SetGlobalLogger(l)
	return nil
}

// services is what a command needs to resolve links; close releases the rule cache.
type services struct {
	registry *ytresolve.Registry
	youtube  *ytresolve.Resolver
	close    func()
}

func buildServices() (*services, error) {
	c := client.NewWith(client.Config{
		Timeout:   cfg.HTTP.Timeout.Duration,
		Retries:   cfg.HTTP.Retries,
		UserAgent: cfg.HTTP.UserAgent,
		ProxyURL:  cfg.HTTP.Proxy,
	})

	engine, err := jsengine.New(cfg.Cipher.JSEngine, cfg.Cipher.EngineTimeout.Duration)
	if err != nil {
		return nil, err
	}
	path, err := cfg.RuleCachePath()
	if err != nil {
		return nil, err
	}
	cache, err := rulecache.New(cfg.Cipher.Cache, path, cfg.Cipher.CacheTTL.Duration)
	if err != nil {
		return nil, fmt.Errorf("opening rule cache: %w", err)
	}

	yt := ytresolve.New().
		WithFetcher(c).
		WithFormat(cfg.Resolve.Format).
		WithMaxAttempts(cfg.Resolve.MaxAttempts).
		WithBackoff(cfg.Resolve.InitialBackoff.Duration, cfg.Resolve.MaxBackoff.Duration).
		WithRuleCache(cache).
		WithJSEngine(engine).
		WithStrict(cfg.Cipher.Strict)

	log := logger.WithComponent(logger.ComponentApp)
	log.Debug("Services ready", map[string]interface{}{
		"engine": strings.ToLower(cfg.Cipher.JSEngine),
		"cache":  strings.ToLower(cfg.Cipher.Cache),
		"path":   path,
	})

	return &services{
		registry: ytresolve.NewRegistry(yt, tiktok.New(c)),
		youtube:  yt,
		close: func() {
			hits, misses := yt.Decoder().Stats()
			log.Debug("Rule cache stats", map[string]interface{}{"hits": hits, "misses": misses})
			if cl, ok := cache.(io.Closer); ok {
				_ = cl.Close()
			}
		},
	}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ytresolve %s\n", Version)
		},
	}
}
