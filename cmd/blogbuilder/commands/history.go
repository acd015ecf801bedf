package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/buildstore"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	dberrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Number of builds to show (0 for all)"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	return RunHistory(context.Background(), g.out(), cfg, h.Limit)
}

// RunHistory prints the most recent builds, newest first.
func RunHistory(ctx context.Context, out io.Writer, cfg *config.Config, limit int) error {
	if cfg.History.Path == "" {
		return dberrors.ConfigError("build history is not configured").
			WithContext("key", "history.path").
			UserAction().
			Build()
	}
	store, err := buildstore.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, "No builds recorded")
		return nil
	}

	_, _ = fmt.Fprintf(out, "%-36s  %-9s  %-20s  %8s  %5s  %5s  %s\n",
		"ID", "STATUS", "STARTED", "DURATION", "POSTS", "PAGES", "ERROR")
	for _, r := range records {
		_, _ = fmt.Fprintf(out, "%-36s  %-9s  %-20s  %8s  %5d  %5d  %s\n",
			r.ID, r.Status, r.StartedAt.Local().Format(time.DateTime),
			r.Duration().Round(time.Millisecond), r.Items, r.Pages, r.Error)
	}
	return nil
}
