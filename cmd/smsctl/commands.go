package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/repository"
	"github.com/popeskul/smshub/internal/service"
)

var errUsage = errors.New("usage error")

const usage = `Usage: smsctl [-config config.yaml] <command> [flags]

Commands:
  refresh-tokens    [-force]                    refresh tokens of every enabled provider
  refresh-token     -provider NAME|ID [-force] [-show-token]
  cleanup-tokens                                deactivate expired tokens
  process-queued    [-limit N] [-dry-run]       enqueue send jobs for queued messages
  check-delivery    [-limit N]                  poll vendors for delivery statuses
  sync-templates    -provider NAME|ID           import vendor SMS templates
  submit-template   -id N                       submit a template for approval
`

type command func(ctx context.Context, args []string) error

// cli runs operational commands against the service layer.
type cli struct {
	svc       *service.Service
	providers repository.ProviderRepository
	out       io.Writer
}

func (c *cli) commands() map[string]command {
	return map[string]command{
		"refresh-tokens":  c.refreshTokens,
		"refresh-token":   c.refreshToken,
		"cleanup-tokens":  c.cleanupTokens,
		"process-queued":  c.processQueued,
		"check-delivery":  c.checkDelivery,
		"sync-templates":  c.syncTemplates,
		"submit-template": c.submitTemplate,
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.out, usage)
		return errUsage
	}

	cmd, ok := c.commands()[args[0]]
	if !ok {
		fmt.Fprint(c.out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	return cmd(ctx, args[1:])
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

func (c *cli) refreshTokens(ctx context.Context, args []string) error {
	fs := c.flags("refresh-tokens")
	force := fs.Bool("force", false, "refresh even when the current token is still valid")
	if err := fs.Parse(args); err != nil {
		return err
	}

	results, err := c.svc.Tokens.RefreshAll(ctx, *force)
	if err != nil {
		return fmt.Errorf("failed to refresh tokens: %w", err)
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tSTATUS\tEXPIRES AT")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Provider, refreshStatus(r), formatTime(r.ExpiresAt))
	}
	return tw.Flush()
}

func refreshStatus(r service.RefreshResult) string {
	switch {
	case r.Refreshed:
		return "refreshed"
	case r.Error != "":
		return "failed: " + r.Error
	case !r.Attempted:
		return "valid"
	default:
		return "failed"
	}
}

func (c *cli) refreshToken(ctx context.Context, args []string) error {
	fs := c.flags("refresh-token")
	name := fs.String("provider", "", "provider name or id")
	force := fs.Bool("force", false, "refresh even when the current token is still valid")
	showToken := fs.Bool("show-token", false, "print the token value")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("%w: -provider is required", errUsage)
	}

	p, err := c.providers.Find(ctx, *name)
	if err != nil {
		return fmt.Errorf("failed to load provider %s: %w", *name, err)
	}

	needsRefresh, err := c.svc.Tokens.NeedsRefresh(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to check token: %w", err)
	}
	fmt.Fprintf(c.out, "Provider: %s\nNeeds refresh: %t\n", p.Name, needsRefresh)

	var token *models.ProviderToken
	if *force {
		token, err = c.svc.Tokens.Refresh(ctx, p)
	} else {
		token, err = c.svc.Tokens.GetValidToken(ctx, p)
	}
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	if token == nil {
		return fmt.Errorf("provider %s did not issue a token", p.Name)
	}

	var expires *time.Time
	if token.ExpiresAt.Valid {
		expires = &token.ExpiresAt.Time
	}
	fmt.Fprintf(c.out, "Token ID: %d\nExpires at: %s\n", token.ID, formatTime(expires))
	if *showToken {
		fmt.Fprintf(c.out, "Token: %s\n", token.TokenValue)
	} else {
		fmt.Fprintf(c.out, "Token: %s\n", maskToken(token.TokenValue))
	}
	return nil
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

func (c *cli) cleanupTokens(ctx context.Context, args []string) error {
	if err := c.flags("cleanup-tokens").Parse(args); err != nil {
		return err
	}

	n, err := c.svc.Tokens.CleanupExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean up tokens: %w", err)
	}
	fmt.Fprintf(c.out, "Deactivated %d expired tokens\n", n)
	return nil
}

func (c *cli) processQueued(ctx context.Context, args []string) error {
	fs := c.flags("process-queued")
	limit := fs.Int("limit", 100, "maximum number of messages")
	dryRun := fs.Bool("dry-run", false, "list messages without enqueueing them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	summary, err := c.svc.Message.ProcessQueued(ctx, *limit, *dryRun)
	if err != nil {
		return fmt.Errorf("failed to process queued messages: %w", err)
	}

	if summary.DryRun {
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTO\tPRIORITY\tCREATED AT")
		for _, m := range summary.Messages {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", m.ID, m.To, m.Priority, m.CreatedAt.UTC().Format(time.RFC3339))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(c.out, "Found: %d, enqueued: %d, errors: %d\n", summary.Found, summary.Enqueued, summary.Errors)
	return nil
}

func (c *cli) checkDelivery(ctx context.Context, args []string) error {
	fs := c.flags("check-delivery")
	limit := fs.Int("limit", 50, "maximum number of messages")
	if err := fs.Parse(args); err != nil {
		return err
	}

	summary, err := c.svc.Status.PollStatuses(ctx, *limit)
	if err != nil {
		return fmt.Errorf("failed to check delivery statuses: %w", err)
	}
	fmt.Fprintf(c.out, "Checked: %d, updated: %d, unchanged: %d, errors: %d\n",
		summary.Checked, summary.Updated, summary.Unchanged, summary.Errors)
	return nil
}

func (c *cli) syncTemplates(ctx context.Context, args []string) error {
	fs := c.flags("sync-templates")
	name := fs.String("provider", "", "provider name or id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("%w: -provider is required", errUsage)
	}

	summary, err := c.svc.Templates.Sync(ctx, *name)
	if err != nil {
		return fmt.Errorf("failed to sync templates: %w", err)
	}
	fmt.Fprintf(c.out, "Fetched: %d, imported: %d, skipped: %d\n", summary.Fetched, summary.Imported, summary.Skipped)
	return nil
}

func (c *cli) submitTemplate(ctx context.Context, args []string) error {
	fs := c.flags("submit-template")
	id := fs.Int64("id", 0, "template id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("%w: -id is required", errUsage)
	}

	tpl, err := c.svc.Templates.Submit(ctx, *id)
	if err != nil {
		return fmt.Errorf("failed to submit template: %w", err)
	}
	fmt.Fprintf(c.out, "Template %d submitted: provider template id %s, status %s\n",
		tpl.ID, tpl.ProviderTemplateID.String, tpl.Status)
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
