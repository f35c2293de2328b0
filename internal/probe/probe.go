// Package probe runs one end-to-end check of what a Gmail token can read.
package probe

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-probe/internal/config"
	"github.com/hal9000y/gmail-probe/internal/mailbox"
	"github.com/hal9000y/gmail-probe/internal/message"
	"github.com/hal9000y/gmail-probe/internal/parser"
	"github.com/hal9000y/gmail-probe/internal/report"
)

type finder interface {
	Find(ctx context.Context, s config.Search) (mailbox.Result, error)
}

type messageGetter interface {
	GetMessage(ctx context.Context, msgID, fields string) (*gmail.Message, error)
}

type expenseParser interface {
	Parse(snippet string, internalDateMs int64, msgID string) (parser.Expense, bool)
}

func NewProbe(finder finder, svc messageGetter, parser expenseParser, rep *report.Reporter) *Probe {
	return &Probe{finder: finder, svc: svc, parser: parser, rep: rep}
}

type Probe struct {
	finder finder
	svc    messageGetter
	parser expenseParser
	rep    *report.Reporter
}

// Run discovers the first matching message, fetches it with the minimal
// projection and in full, then reports and persists both.
// Finding nothing is not an error.
func (p *Probe) Run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Search.Validate(); err != nil {
		return fmt.Errorf("invalid search: %w", err)
	}

	p.rep.Searching(cfg.Search)

	res, err := p.finder.Find(ctx, cfg.Search)
	if err != nil {
		return fmt.Errorf("finder.Find failed: %w", err)
	}
	if res.Fallback {
		p.rep.Fallback(len(res.Refs), res.Scanned)
	}
	if len(res.Refs) == 0 {
		p.rep.NoMessages()
		return nil
	}

	msgID := res.Refs[0].ID

	minimal, err := p.svc.GetMessage(ctx, msgID, cfg.Report.MinimalFields)
	if err != nil {
		return fmt.Errorf("svc.GetMessage(minimal) failed: %w", err)
	}
	minimalSize, err := p.rep.Minimal(minimal, cfg.Report.MinimalFields)
	if err != nil {
		return fmt.Errorf("rep.Minimal failed: %w", err)
	}

	full, err := p.svc.GetMessage(ctx, msgID, "")
	if err != nil {
		return fmt.Errorf("svc.GetMessage(full) failed: %w", err)
	}
	fullSize, err := report.Size(full)
	if err != nil {
		return fmt.Errorf("report.Size failed: %w", err)
	}
	p.rep.Comparison(fullSize, minimalSize)

	meta := message.ExtractMeta(full)
	p.rep.Metadata(meta, cfg.Search.SubjectContains)

	body := message.ExtractBody(full.Payload)
	p.rep.Body(body)

	exp, ok := p.parser.Parse(full.Snippet, full.InternalDate, full.Id)
	p.rep.Payment(exp, ok)

	if err := p.rep.Persist(full, meta, body, exp, ok); err != nil {
		return fmt.Errorf("rep.Persist failed: %w", err)
	}

	return nil
}
