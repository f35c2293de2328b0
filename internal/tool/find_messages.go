package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-probe/internal/config"
	"github.com/hal9000y/gmail-probe/internal/mailbox"
)

// summaryFields limits per-message fetches to what a summary shows.
const summaryFields = "id,threadId,snippet,payload/headers"

type FindMessagesRequest struct {
	From       string `json:"from,omitempty" jsonschema:"sender address to match, defaults to the configured sender"`
	After      string `json:"after,omitempty" jsonschema:"inclusive start day, YYYY/MM/DD"`
	Before     string `json:"before,omitempty" jsonschema:"exclusive end day, YYYY/MM/DD"`
	MaxResults int64  `json:"max_results,omitempty" jsonschema:"max messages to return"`
}

type FindMessagesResponse struct {
	Messages     []MessageSummary `json:"messages" jsonschema:"array of message summaries"`
	Fallback     bool             `json:"fallback" jsonschema:"true when the token could not search and messages were filtered locally"`
	Scanned      int              `json:"scanned,omitempty" jsonschema:"messages inspected by the local filter"`
	TotalResults int              `json:"total_results" jsonschema:"number of messages returned"`
}

type finder interface {
	Find(ctx context.Context, s config.Search) (mailbox.Result, error)
}

func NewFindMessages(base config.Search, finder finder, svc getMessageSvc) *FindMessages {
	return &FindMessages{base: base, finder: finder, svc: svc}
}

// FindMessages discovers messages from a sender within a day range.
type FindMessages struct {
	base   config.Search
	finder finder
	svc    getMessageSvc
}

func (t *FindMessages) FindMessages(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindMessagesRequest,
) (*mcp.CallToolResult, FindMessagesResponse, error) {
	s, err := t.search(input)
	if err != nil {
		return nil, FindMessagesResponse{}, err
	}

	res, err := t.finder.Find(ctx, s)
	if err != nil {
		return nil, FindMessagesResponse{}, fmt.Errorf("finder.Find failed: %w", err)
	}

	refs := res.Refs
	if int64(len(refs)) > s.MaxResults {
		refs = refs[:s.MaxResults]
	}

	messages := make([]MessageSummary, 0, len(refs))
	for _, ref := range refs {
		msg, err := t.svc.GetMessage(ctx, ref.ID, summaryFields)
		if err != nil {
			return nil, FindMessagesResponse{}, fmt.Errorf("get message %s failed: %w", ref.ID, err)
		}
		messages = append(messages, extractMessageSummary(msg))
	}

	return nil, FindMessagesResponse{
		Messages:     messages,
		Fallback:     res.Fallback,
		Scanned:      res.Scanned,
		TotalResults: len(messages),
	}, nil
}

func (t *FindMessages) search(input FindMessagesRequest) (config.Search, error) {
	s := t.base

	if input.From != "" {
		s.From = input.From
	}
	if input.After != "" {
		d, err := config.ParseDay(input.After)
		if err != nil {
			return config.Search{}, fmt.Errorf("invalid after %q: %w", input.After, err)
		}
		s.After = d
	}
	if input.Before != "" {
		d, err := config.ParseDay(input.Before)
		if err != nil {
			return config.Search{}, fmt.Errorf("invalid before %q: %w", input.Before, err)
		}
		s.Before = d
	}
	s.MaxResults = normalizeMaxResults(input.MaxResults)

	if err := s.Validate(); err != nil {
		return config.Search{}, fmt.Errorf("invalid search: %w", err)
	}

	return s, nil
}

func normalizeMaxResults(maxResults int64) int64 {
	if maxResults <= 0 {
		return 10
	}
	if maxResults > 50 {
		return 50
	}
	return maxResults
}
