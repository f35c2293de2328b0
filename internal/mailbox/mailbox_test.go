package mailbox_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-probe/internal/config"
	"github.com/hal9000y/gmail-probe/internal/gservice"
	"github.com/hal9000y/gmail-probe/internal/mailbox"
)

func testSearch() config.Search {
	return config.Search{
		From:               "nu@nu.com.co",
		SubjectContains:    "Pagaste en GOU PAYMENTS",
		After:              time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC),
		Before:             time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC),
		MaxResults:         10,
		FallbackMaxResults: 100,
		FallbackLabel:      "INBOX",
	}
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "from:nu@nu.com.co after:2026/02/09 before:2026/02/10", mailbox.Query(testSearch()))
}

func TestInDateRange(t *testing.T) {
	cases := []struct {
		name     string
		date     string
		expected bool
	}{
		{name: "inside with offset", date: "Mon, 9 Feb 2026 08:06:00 -0500", expected: true},
		{name: "start of range", date: "Mon, 9 Feb 2026 00:00:00 +0000", expected: true},
		{name: "late evening in own offset", date: "Mon, 9 Feb 2026 23:30:00 -0500", expected: true},
		{name: "exclusive upper bound", date: "Tue, 10 Feb 2026 00:00:00 +0000", expected: false},
		{name: "day before", date: "Sun, 8 Feb 2026 23:59:59 +0000", expected: false},
		{name: "empty fails open", date: "", expected: true},
		{name: "garbage fails open", date: "yesterday-ish", expected: true},
	}

	s := testSearch()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, mailbox.InDateRange(s, tc.date))
		})
	}
}

func TestMatchesSender(t *testing.T) {
	s := testSearch()

	assert.True(t, mailbox.MatchesSender(s, "Nu Colombia <nu@nu.com.co>"))
	assert.True(t, mailbox.MatchesSender(s, "NU@NU.COM.CO"))
	assert.False(t, mailbox.MatchesSender(s, "other@example.com"))
	assert.False(t, mailbox.MatchesSender(s, ""))
}

func TestMatches(t *testing.T) {
	s := testSearch()

	assert.True(t, mailbox.Matches(s, "Nu Colombia <nu@nu.com.co>", "Mon, 9 Feb 2026 08:06:00 -0500"))
	assert.True(t, mailbox.Matches(s, "nu@nu.com.co", ""))
	assert.False(t, mailbox.Matches(s, "other@example.com", ""))
	assert.False(t, mailbox.Matches(s, "nu@nu.com.co", "Tue, 10 Feb 2026 00:00:00 +0000"))
}

func headerMessage(id, from, date string) *gmail.Message {
	return &gmail.Message{
		Id: id,
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: from},
				{Name: "Date", Value: date},
			},
		},
	}
}

func TestFindServerSide(t *testing.T) {
	svc := &messagesSvcMock{
		SearchMessagesFunc: func(_ context.Context, q string, maxResults int64) ([]*gmail.Message, error) {
			assert.Equal(t, int64(10), maxResults)
			return []*gmail.Message{{Id: "m-001", ThreadId: "t-001"}}, nil
		},
	}

	res, err := mailbox.NewFinder(svc).Find(context.Background(), testSearch())
	require.NoError(t, err)
	assert.Equal(t, mailbox.Result{Refs: []mailbox.Ref{{ID: "m-001", ThreadID: "t-001"}}}, res)
	assert.Equal(t, []string{"from:nu@nu.com.co after:2026/02/09 before:2026/02/10"}, svc.searchCalls)
	assert.Empty(t, svc.listCalls)
}

func TestFindFallback(t *testing.T) {
	messages := map[string]*gmail.Message{
		"m-001": headerMessage("m-001", "Nu Colombia <nu@nu.com.co>", "Mon, 9 Feb 2026 08:06:00 -0500"),
		"m-002": headerMessage("m-002", "other@example.com", "Mon, 9 Feb 2026 09:00:00 -0500"),
		"m-003": headerMessage("m-003", "nu@nu.com.co", "Tue, 10 Feb 2026 00:00:00 +0000"),
		"m-004": headerMessage("m-004", "nu@nu.com.co", ""),
	}

	svc := &messagesSvcMock{
		SearchMessagesFunc: func(context.Context, string, int64) ([]*gmail.Message, error) {
			return nil, &gservice.APIError{Kind: gservice.KindQueryUnsupported, Op: "messages.List", Code: 403}
		},
		ListLabelMessagesFunc: func(_ context.Context, labelID string, maxResults int64) ([]*gmail.Message, error) {
			assert.Equal(t, int64(100), maxResults)
			return []*gmail.Message{
				{Id: "m-001", ThreadId: "t-001"},
				{Id: "m-002", ThreadId: "t-002"},
				{Id: "m-003", ThreadId: "t-003"},
				{Id: "m-004", ThreadId: "t-004"},
			}, nil
		},
		GetMessageFunc: func(_ context.Context, msgID, fields string) (*gmail.Message, error) {
			assert.Empty(t, fields)
			return messages[msgID], nil
		},
	}

	res, err := mailbox.NewFinder(svc).Find(context.Background(), testSearch())
	require.NoError(t, err)
	assert.Equal(t, mailbox.Result{
		Refs:     []mailbox.Ref{{ID: "m-001", ThreadID: "t-001"}, {ID: "m-004", ThreadID: "t-004"}},
		Fallback: true,
		Scanned:  4,
	}, res)
	assert.Equal(t, []string{"INBOX"}, svc.listCalls)
	assert.Equal(t, []string{"m-001", "m-002", "m-003", "m-004"}, svc.getCalls)
}

func TestFindErrors(t *testing.T) {
	unsupported := &gservice.APIError{Kind: gservice.KindQueryUnsupported, Code: 403}

	cases := []struct {
		name string
		svc  *messagesSvcMock
	}{
		{
			name: "primary failure is fatal",
			svc: &messagesSvcMock{
				SearchMessagesFunc: func(context.Context, string, int64) ([]*gmail.Message, error) {
					return nil, &gservice.APIError{Kind: gservice.KindClient, Code: 401}
				},
			},
		},
		{
			name: "fallback listing failure",
			svc: &messagesSvcMock{
				SearchMessagesFunc: func(context.Context, string, int64) ([]*gmail.Message, error) {
					return nil, unsupported
				},
				ListLabelMessagesFunc: func(context.Context, string, int64) ([]*gmail.Message, error) {
					return nil, &gservice.APIError{Kind: gservice.KindServer, Code: 500}
				},
			},
		},
		{
			name: "fallback fetch failure",
			svc: &messagesSvcMock{
				SearchMessagesFunc: func(context.Context, string, int64) ([]*gmail.Message, error) {
					return nil, unsupported
				},
				ListLabelMessagesFunc: func(context.Context, string, int64) ([]*gmail.Message, error) {
					return []*gmail.Message{{Id: "m-001"}}, nil
				},
				GetMessageFunc: func(_ context.Context, msgID, _ string) (*gmail.Message, error) {
					return nil, fmt.Errorf("message not found: %s", msgID)
				},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mailbox.NewFinder(tc.svc).Find(context.Background(), testSearch())
			require.Error(t, err)
			assert.False(t, errors.Is(err, unsupported))
		})
	}
}
