// Package mailbox discovers the messages a probe run reports on.
package mailbox

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-probe/internal/config"
	"github.com/hal9000y/gmail-probe/internal/gservice"
	"github.com/hal9000y/gmail-probe/internal/message"
)

// Ref identifies a message.
type Ref struct {
	ID       string
	ThreadID string
}

// Result is the outcome of a discovery run.
type Result struct {
	Refs []Ref
	// Fallback is set when the token could not filter server-side and
	// candidates were filtered locally.
	Fallback bool
	// Scanned counts the candidates fetched in the fallback path.
	Scanned int
}

type messagesSvc interface {
	SearchMessages(ctx context.Context, q string, maxResults int64) ([]*gmail.Message, error)
	ListLabelMessages(ctx context.Context, labelID string, maxResults int64) ([]*gmail.Message, error)
	GetMessage(ctx context.Context, msgID, fields string) (*gmail.Message, error)
}

func NewFinder(svc messagesSvc) *Finder {
	return &Finder{svc: svc}
}

type Finder struct {
	svc messagesSvc
}

// Find returns the messages from s.From dated within [s.After, s.Before).
//
// It searches server-side first. When the token's scope rejects queries it
// lists the newest s.FallbackMaxResults messages of s.FallbackLabel and
// filters their headers locally.
func (f *Finder) Find(ctx context.Context, s config.Search) (Result, error) {
	q := Query(s)

	msgs, err := f.svc.SearchMessages(ctx, q, s.MaxResults)
	if err == nil {
		return Result{Refs: toRefs(msgs)}, nil
	}
	if !gservice.IsQueryUnsupported(err) {
		return Result{}, fmt.Errorf("svc.SearchMessages failed: %w", err)
	}

	log.Printf("Query %q not allowed for this token, filtering %s locally", q, s.FallbackLabel)

	return f.scan(ctx, s)
}

func (f *Finder) scan(ctx context.Context, s config.Search) (Result, error) {
	candidates, err := f.svc.ListLabelMessages(ctx, s.FallbackLabel, s.FallbackMaxResults)
	if err != nil {
		return Result{}, fmt.Errorf("svc.ListLabelMessages failed: %w", err)
	}

	res := Result{Fallback: true, Scanned: len(candidates)}

	for _, m := range candidates {
		msg, err := f.svc.GetMessage(ctx, m.Id, "")
		if err != nil {
			return Result{}, fmt.Errorf("get message %s failed: %w", m.Id, err)
		}

		headers := message.Headers(msg)
		if Matches(s, message.Header(headers, "From"), message.Header(headers, "Date")) {
			res.Refs = append(res.Refs, Ref{ID: m.Id, ThreadID: m.ThreadId})
		}
	}

	return res, nil
}

func toRefs(msgs []*gmail.Message) []Ref {
	refs := make([]Ref, 0, len(msgs))
	for _, m := range msgs {
		refs = append(refs, Ref{ID: m.Id, ThreadID: m.ThreadId})
	}
	return refs
}
