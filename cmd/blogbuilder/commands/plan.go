package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/planner"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// PlanCmd implements the 'plan' command.
type PlanCmd struct {
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
}

// Run executes the plan command.
func (p *PlanCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	return RunPlan(context.Background(), g.out(), cfg, p.Format)
}

// RunPlan queries the content, plans every page and prints the plan.
func RunPlan(ctx context.Context, out io.Writer, cfg *config.Config, format string) error {
	items, err := content.NewSource(cfg.Content, cfg.Blog.PathPrefix).Query(ctx)
	if err != nil {
		return err
	}
	plan := planner.FromConfig(cfg.Blog).Plan(items)

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(site.NewPlanDocument(plan))
	}
	printPlan(out, plan)
	return nil
}

func printPlan(out io.Writer, plan planner.Result) {
	s := plan.Stats
	_, _ = fmt.Fprintf(out, "%d posts, %d categories, %d pages (%d post, %d listing, %d category listing)\n\n",
		s.Items, s.Categories, s.Pages(), s.PostPages, s.ListingPages, s.CategoryListingPages)

	for _, in := range plan.Instructions {
		_, _ = fmt.Fprintf(out, "  %-6s %-40s %s\n", in.Template, in.Path, describe(in.Context))
	}
}

func describe(ctx any) string {
	switch c := ctx.(type) {
	case *planner.PostContext:
		return "post " + c.ID
	case *planner.ListingContext:
		detail := fmt.Sprintf("page %d/%d, %d posts", c.PageIndex+1, c.PageCount, len(c.Page))
		if cat, ok := c.ActiveCategory.Get(); ok {
			detail += ", category " + cat.Label
		}
		return detail
	default:
		return ""
	}
}
