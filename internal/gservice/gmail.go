// Package gservice wraps the Gmail API calls the probe needs.
package gservice

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	gmailUserID = "me"
	formatFull  = "full"
)

// NewGmail builds a Gmail client authorized by ts. Extra opts are applied after
// the HTTP client, e.g. option.WithEndpoint for a test server.
func NewGmail(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*GMail, error) {
	clt := oauth2.NewClient(ctx, ts)

	opts = append([]option.ClientOption{option.WithHTTPClient(clt)}, opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail.NewService failed: %w", err)
	}

	return &GMail{svc: svc}, nil
}

type GMail struct {
	svc *gmail.Service
}

// SearchMessages lists messages matching the Gmail query q.
// Tokens limited to the gmail.metadata scope fail with KindQueryUnsupported.
func (m *GMail) SearchMessages(ctx context.Context, q string, maxResults int64) ([]*gmail.Message, error) {
	result, err := m.svc.Users.Messages.List(gmailUserID).
		Q(q).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("messages.List", err)
	}

	return result.Messages, nil
}

// ListLabelMessages lists the most recent messages carrying labelID, without a query.
func (m *GMail) ListLabelMessages(ctx context.Context, labelID string, maxResults int64) ([]*gmail.Message, error) {
	call := m.svc.Users.Messages.List(gmailUserID).MaxResults(maxResults)
	if labelID != "" {
		call = call.LabelIds(labelID)
	}

	result, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classify("messages.List", err)
	}

	return result.Messages, nil
}

// GetMessage fetches msgID in full format. A non-empty fields restricts the
// response to that partial-response projection, e.g. "id,snippet,internalDate".
func (m *GMail) GetMessage(ctx context.Context, msgID, fields string) (*gmail.Message, error) {
	call := m.svc.Users.Messages.Get(gmailUserID, msgID).Format(formatFull)
	if fields != "" {
		call = call.Fields(googleapi.Field(fields))
	}

	msg, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classify("messages.Get", err)
	}

	return msg, nil
}
