// Package main provides the chozy CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chozy/feedsync/internal/chozy"
	"github.com/chozy/feedsync/internal/config"
	"github.com/chozy/feedsync/internal/display"
	"github.com/chozy/feedsync/internal/feed"
	"github.com/chozy/feedsync/pkg/browser"
	"github.com/chozy/feedsync/pkg/credential"
)

// version is injected at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// resolveVersion prefers the ldflags version and falls back to the module
// version recorded by go install.
func resolveVersion(v string, bi *debug.BuildInfo) string {
	if v != "dev" && v != "" {
		return v
	}
	if bi == nil || bi.Main.Version == "" || bi.Main.Version == "(devel)" {
		return "dev"
	}
	return bi.Main.Version
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if a.verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	a.logger = logger.With(zap.String("command", cmd.Name()))
	return nil
}

func (a *app) teardown(*cobra.Command, []string) {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) store() *credential.Store {
	return credential.NewStore(a.cfg.Dir)
}

// credentials prefers a stored login over the development token.
func (a *app) credentials() credential.Source {
	return credential.Chain{a.store(), credential.EnvSource{}}
}

func (a *app) client() *chozy.Client {
	return chozy.NewClient(
		chozy.WithBaseURL(a.cfg.APIURL),
		chozy.WithTimeout(a.cfg.HTTPTimeout),
		chozy.WithCredentials(a.credentials()),
		chozy.WithLogger(a.logger),
	)
}

func (a *app) normalizer() feed.Normalizer {
	return feed.NewNormalizer(feed.Options{PlaceholderAvatar: a.cfg.PlaceholderAvatar})
}

func (a *app) formatter(opts ...display.FormatterOption) *display.TerminalFormatter {
	opts = append([]display.FormatterOption{display.WithWebURL(a.cfg.WebURL)}, opts...)
	return display.NewTerminalFormatter(opts...)
}

// newRootCmd creates the root command for chozy CLI.
func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:               "chozy",
		Short:             "Read and react to the Chozy community feed",
		Long:              "Chozy shows the community feed of posts and reviews and lets you like, dislike and bookmark them.",
		Version:           resolveVersion(version, readBuildInfo()),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}

	rootCmd.SetVersionTemplate("chozy version {{.Version}}\n")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newFeedCmd(a))
	rootCmd.AddCommand(newReactionCmd(a, "like", feed.ReactionLike))
	rootCmd.AddCommand(newReactionCmd(a, "dislike", feed.ReactionDislike))
	rootCmd.AddCommand(newBookmarkCmd(a))
	rootCmd.AddCommand(newLoginCmd(a))
	rootCmd.AddCommand(newLogoutCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newOpenCmd(a))

	return rootCmd
}

func readBuildInfo() *debug.BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return bi
}

// feedFlags are shared by every command that loads the feed.
type feedFlags struct {
	tab         string
	contentType string
	search      string
	pages       int
}

func (f *feedFlags) register(cmd *cobra.Command, defaultPages int) {
	cmd.Flags().StringVar(&f.tab, "tab", "recommend", "Timeline to read (recommend, following)")
	cmd.Flags().StringVarP(&f.contentType, "type", "t", "all", "Filter by content type (all, post, review)")
	cmd.Flags().StringVarP(&f.search, "search", "q", "", "Search text")
	cmd.Flags().IntVarP(&f.pages, "pages", "p", defaultPages, "Number of pages to load")
}

func (f *feedFlags) query(pageSize int) (chozy.FeedQuery, error) {
	q := chozy.FeedQuery{Search: strings.TrimSpace(f.search), Size: pageSize}

	switch strings.ToLower(f.tab) {
	case "recommend", "":
		q.Tab = chozy.TabRecommend
	case "following":
		q.Tab = chozy.TabFollowing
	default:
		return q, fmt.Errorf("invalid tab %q: must be 'recommend' or 'following'", f.tab)
	}

	switch strings.ToLower(f.contentType) {
	case "all", "":
		q.ContentType = chozy.ContentAll
	case "post":
		q.ContentType = chozy.ContentPost
	case "review":
		q.ContentType = chozy.ContentReview
	default:
		return q, fmt.Errorf("invalid type %q: must be 'all', 'post' or 'review'", f.contentType)
	}

	if f.pages < 1 {
		return q, fmt.Errorf("invalid pages %d: must be at least 1", f.pages)
	}
	return q, nil
}

// newFeedCmd creates the feed subcommand.
func newFeedCmd(a *app) *cobra.Command {
	var flags feedFlags
	var limit int
	var kinds []string
	var width int

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Display the community feed",
		Long:  "Display the community feed of posts and reviews.",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := flags.query(a.cfg.PageSize)
			if err != nil {
				return err
			}
			opts := feed.FeedOptions{Limit: limit}
			for _, k := range kinds {
				switch strings.ToUpper(k) {
				case string(feed.KindPost), string(feed.KindReview):
					opts.Kinds = append(opts.Kinds, feed.Kind(strings.ToUpper(k)))
				default:
					return fmt.Errorf("invalid kind %q: must be 'post' or 'review'", k)
				}
			}

			session := a.newSession()
			defer session.close()

			if _, err := session.loader.Pages(cmd.Context(), q, flags.pages); err != nil {
				return describeLoadError(err)
			}

			fmt.Fprint(cmd.OutOrStdout(), a.formatter(display.WithTextLimit(width)).FormatFeed(session.rec.Snapshot(opts)))
			return nil
		},
	}

	flags.register(cmd, 1)
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of items to display (0 shows all)")
	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "Only show these kinds (post, review)")
	cmd.Flags().IntVarP(&width, "width", "w", 280, "Truncate post text to this many characters (0 shows full text)")

	return cmd
}

// newLoginCmd creates the login subcommand.
func newLoginCmd(a *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token",
		Long:  "Store a Chozy access token in the config directory for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("missing token: pass --token (or set %s for a single run)", credential.DevTokenEnv)
			}
			if err := a.store().Save(credential.Credential{AccessToken: token}); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in. Token saved to: %s\n", a.cfg.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token")

	return cmd
}

// newLogoutCmd creates the logout subcommand.
func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store().Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// newConfigCmd creates the config subcommand.
func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
		Long:  "Show the resolved chozy configuration settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config directory: %s\n", a.cfg.Dir)
			fmt.Fprintf(out, "Config file: %s\n", a.cfg.Path())
			fmt.Fprintf(out, "API URL: %s\n", a.cfg.APIURL)
			fmt.Fprintf(out, "Web URL: %s\n", a.cfg.WebURL)
			fmt.Fprintf(out, "Page size: %d\n", a.cfg.PageSize)
			fmt.Fprintf(out, "HTTP timeout: %s\n", a.cfg.HTTPTimeout)

			status := "not logged in"
			if _, ok := a.credentials().Credential(cmd.Context()); ok {
				status = "logged in"
			}
			fmt.Fprintf(out, "Auth: %s\n", status)
			return nil
		},
	}
}

// newOpenCmd creates the open subcommand.
func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <feed-id>",
		Short: "Open a feed item in the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseFeedIDs(args)
			if err != nil {
				return err
			}
			link, err := browser.FeedURL(a.cfg.WebURL, ids[0])
			if err != nil {
				return err
			}
			if err := browser.NewOpener().Open(link); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Could not open browser. Please visit:\n%s\n", link)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", link)
			return nil
		},
	}
}
