package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chozy/feedsync/internal/chozy"
	"github.com/chozy/feedsync/internal/feed"
	"github.com/chozy/feedsync/internal/loader"
	"github.com/chozy/feedsync/internal/reconcile"
)

// maxConcurrentToggles bounds how many interaction requests run at once.
const maxConcurrentToggles = 4

// session is one loaded feed screen: the reconciler that owns the items and
// the loader that fills it.
type session struct {
	rec    *reconcile.Reconciler
	loader *loader.Loader
}

func (a *app) newSession(opts ...reconcile.Option) *session {
	client := a.client()
	rec := reconcile.New(client, a.credentials(), append([]reconcile.Option{reconcile.WithLogger(a.logger)}, opts...)...)
	return &session{
		rec:    rec,
		loader: loader.New(client, a.normalizer(), rec, loader.WithLogger(a.logger)),
	}
}

func (s *session) close() {
	s.rec.Close()
}

// toggleFunc applies one interaction to a loaded feed item.
type toggleFunc func(ctx context.Context, rec *reconcile.Reconciler, feedID int64) error

// newReactionCmd creates the like and dislike subcommands.
func newReactionCmd(a *app, name string, reaction feed.Reaction) *cobra.Command {
	var flags feedFlags

	cmd := &cobra.Command{
		Use:   name + " <feed-id>...",
		Short: fmt.Sprintf("Toggle a %s on feed items", name),
		Long: fmt.Sprintf("Toggle a %s on one or more feed items. Running it again on an item you already %sd removes the reaction.\n"+
			"Items are looked up in the loaded pages of the feed.", name, name),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runToggle(cmd, flags, args, func(ctx context.Context, rec *reconcile.Reconciler, id int64) error {
				return rec.ToggleReaction(ctx, id, reaction)
			})
		},
	}

	flags.register(cmd, 3)

	return cmd
}

// newBookmarkCmd creates the bookmark subcommand.
func newBookmarkCmd(a *app) *cobra.Command {
	var flags feedFlags

	cmd := &cobra.Command{
		Use:   "bookmark <feed-id>...",
		Short: "Toggle bookmarks on feed items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runToggle(cmd, flags, args, func(ctx context.Context, rec *reconcile.Reconciler, id int64) error {
				return rec.ToggleBookmark(ctx, id)
			})
		},
	}

	flags.register(cmd, 3)

	return cmd
}

// runToggle loads the feed, applies toggle to every requested item
// concurrently and prints the resulting items.
func (a *app) runToggle(cmd *cobra.Command, flags feedFlags, args []string, toggle toggleFunc) error {
	ids, err := parseFeedIDs(args)
	if err != nil {
		return err
	}
	q, err := flags.query(a.cfg.PageSize)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	session := a.newSession(reconcile.WithEventBuffer(len(ids)))

	if _, err := session.loader.Pages(ctx, q, flags.pages); err != nil {
		session.close()
		return describeLoadError(err)
	}
	for _, id := range ids {
		if _, ok := session.rec.Get(id); !ok {
			session.close()
			return fmt.Errorf("feed %d not found in the first %d page(s); try --pages or --search", id, flags.pages)
		}
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentToggles)
	errs := make([]error, len(ids))
	for i, id := range ids {
		g.Go(func() error {
			errs[i] = toggle(ctx, session.rec, id)
			return nil
		})
	}
	_ = g.Wait()
	session.close()

	reportEvents(cmd.ErrOrStderr(), session.rec.Events())

	formatter := a.formatter()
	out := cmd.OutOrStdout()
	var failed int
	for i, id := range ids {
		if errs[i] != nil {
			failed++
			a.logger.Debug("Toggle failed", zap.Int64("feed_id", id), zap.Error(errs[i]))
			continue
		}
		item, _ := session.rec.Get(id)
		fmt.Fprint(out, formatter.FormatItem(item))
	}

	if failed == 0 {
		return nil
	}
	joined := errors.Join(errs...)
	if errors.Is(joined, reconcile.ErrNotAuthenticated) {
		return fmt.Errorf("%d of %d update(s) failed: not authenticated (run 'chozy login')", failed, len(ids))
	}
	return fmt.Errorf("%d of %d update(s) failed", failed, len(ids))
}

// reportEvents prints the conditions the reconciler emitted. The channel
// must already be closed.
func reportEvents(w io.Writer, events <-chan reconcile.Event) {
	for ev := range events {
		switch ev.Kind {
		case reconcile.NotAuthenticated:
			fmt.Fprintf(w, "feed %d: sign in required\n", ev.FeedID)
		default:
			fmt.Fprintf(w, "feed %d: change was reverted: %v\n", ev.FeedID, ev.Err)
		}
	}
}

func parseFeedIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	seen := make(map[int64]bool, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid feed id %q", arg)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func describeLoadError(err error) error {
	var apiErr *chozy.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, chozy.ErrMalformedResponse) {
		return fmt.Errorf("unexpected response from Chozy: %w", err)
	}
	return err
}
