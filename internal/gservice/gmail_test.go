package gservice_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-probe/internal/gservice"
	"github.com/hal9000y/gmail-probe/internal/gservice/gservicetest"
)

func newFake(t *testing.T) *gservicetest.Server {
	srv := gservicetest.NewServer(t)
	srv.Token = "test-token"
	srv.Messages["m-001"] = &gmail.Message{
		Id:           "m-001",
		ThreadId:     "t-001",
		Snippet:      "Pagaste en: GOU PAYMENTS La cantidad de: $12.500,00",
		InternalDate: 1770642360000,
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "nu@nu.com.co"},
			},
		},
	}
	srv.Queries["from:nu@nu.com.co"] = []string{"m-001"}
	srv.Labeled["INBOX"] = []string{"m-001", "m-002", "m-003"}
	srv.Labeled["SPAM"] = []string{"m-900"}
	return srv
}

func TestSearchMessages(t *testing.T) {
	srv := newFake(t)
	g := srv.GMail(t, "test-token")

	msgs, err := g.SearchMessages(context.Background(), "from:nu@nu.com.co", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m-001", msgs[0].Id)
	assert.Equal(t, "t-001", msgs[0].ThreadId)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0], "maxResults=10")
	assert.Contains(t, reqs[0], "q=from%3Anu%40nu.com.co")
}

func TestSearchMessagesQueryUnsupported(t *testing.T) {
	srv := newFake(t)
	srv.QueryUnsupported = true
	g := srv.GMail(t, "test-token")

	_, err := g.SearchMessages(context.Background(), "from:nu@nu.com.co", 10)
	require.Error(t, err)
	assert.True(t, gservice.IsQueryUnsupported(err))

	var apiErr *gservice.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Code)
	assert.Equal(t, "Forbidden", apiErr.Reason())
	assert.Contains(t, apiErr.Body, gservicetest.QueryUnsupportedMessage)
}

func TestListLabelMessages(t *testing.T) {
	srv := newFake(t)
	g := srv.GMail(t, "test-token")

	msgs, err := g.ListLabelMessages(context.Background(), "INBOX", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m-001", msgs[0].Id)
	assert.Equal(t, "m-002", msgs[1].Id)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0], "labelIds=INBOX")
	assert.NotContains(t, reqs[0], "q=")

	spam, err := g.ListLabelMessages(context.Background(), "SPAM", 10)
	require.NoError(t, err)
	require.Len(t, spam, 1)
	assert.Equal(t, "m-900", spam[0].Id)
}

func TestGetMessage(t *testing.T) {
	srv := newFake(t)
	g := srv.GMail(t, "test-token")
	ctx := context.Background()

	full, err := g.GetMessage(ctx, "m-001", "")
	require.NoError(t, err)
	assert.Equal(t, "m-001", full.Id)
	require.NotNil(t, full.Payload)
	assert.Equal(t, "nu@nu.com.co", full.Payload.Headers[0].Value)

	minimal, err := g.GetMessage(ctx, "m-001", "id,snippet,internalDate")
	require.NoError(t, err)
	assert.Equal(t, "m-001", minimal.Id)
	assert.Equal(t, int64(1770642360000), minimal.InternalDate)
	assert.NotEmpty(t, minimal.Snippet)
	assert.Nil(t, minimal.Payload)
	assert.Empty(t, minimal.ThreadId)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0], "format=full")
	assert.NotContains(t, reqs[0], "fields=")
	assert.Contains(t, reqs[1], "fields=id%2Csnippet%2CinternalDate")
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name     string
		setup    func(*gservicetest.Server)
		token    string
		call     func(context.Context, *gservice.GMail) error
		expected gservice.ErrorKind
		code     int
	}{
		{
			name:  "not found",
			token: "test-token",
			call: func(ctx context.Context, g *gservice.GMail) error {
				_, err := g.GetMessage(ctx, "missing", "")
				return err
			},
			expected: gservice.KindClient,
			code:     http.StatusNotFound,
		},
		{
			name:  "unauthorized",
			token: "wrong-token",
			call: func(ctx context.Context, g *gservice.GMail) error {
				_, err := g.SearchMessages(ctx, "from:nu@nu.com.co", 10)
				return err
			},
			expected: gservice.KindClient,
			code:     http.StatusUnauthorized,
		},
		{
			name:  "server error",
			setup: func(s *gservicetest.Server) { s.ListStatus = http.StatusServiceUnavailable },
			token: "test-token",
			call: func(ctx context.Context, g *gservice.GMail) error {
				_, err := g.ListLabelMessages(ctx, "INBOX", 10)
				return err
			},
			expected: gservice.KindServer,
			code:     http.StatusServiceUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newFake(t)
			if tc.setup != nil {
				tc.setup(srv)
			}

			err := tc.call(context.Background(), srv.GMail(t, tc.token))
			require.Error(t, err)
			assert.Equal(t, tc.expected, gservice.KindOf(err))
			assert.False(t, gservice.IsQueryUnsupported(err))

			var apiErr *gservice.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.code, apiErr.Code)
			assert.True(t, strings.HasPrefix(apiErr.Error(), "messages."))
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := newFake(t)
	g := srv.GMail(t, "test-token")
	srv.Close()

	_, err := g.GetMessage(context.Background(), "m-001", "")
	require.Error(t, err)
	assert.Equal(t, gservice.KindTransport, gservice.KindOf(err))
	assert.Equal(t, gservice.KindTransport, gservice.KindOf(errors.New("plain")))
	assert.Equal(t, "transport", gservice.KindTransport.String())
	assert.Equal(t, "query-unsupported", gservice.KindQueryUnsupported.String())
}
