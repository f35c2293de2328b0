// Package gservicetest provides an in-process fake of the Gmail messages API.
package gservicetest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/hal9000y/gmail-probe/internal/gservice"
)

// QueryUnsupportedMessage is the error Gmail returns for q with a gmail.metadata token.
const QueryUnsupportedMessage = "Metadata scope does not support 'q' parameter"

// Server serves users.messages.list and users.messages.get for user "me".
type Server struct {
	*httptest.Server

	// Token, when set, is the only accepted bearer token.
	Token string
	// Messages are returned by get, keyed by id.
	Messages map[string]*gmail.Message
	// Queries maps a q value to the ids it lists.
	Queries map[string][]string
	// Labeled maps a label id to the ids a query-less listing of it returns,
	// newest first. The "" key answers listings without labelIds.
	Labeled map[string][]string
	// QueryUnsupported makes every list call with q fail like a gmail.metadata token.
	QueryUnsupported bool
	// ListStatus, when non-zero, fails every list call with that status.
	ListStatus int
	// GetStatus fails get for specific ids.
	GetStatus map[string]int

	mu       sync.Mutex
	requests []string
}

// NewServer starts a fake Gmail server that is closed with the test.
func NewServer(t testing.TB) *Server {
	s := &Server{
		Messages:  map[string]*gmail.Message{},
		Queries:   map[string][]string{},
		Labeled:   map[string][]string{},
		GetStatus: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/messages", s.list)
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", s.get)

	s.Server = httptest.NewServer(s.authorize(mux))
	t.Cleanup(s.Close)

	return s
}

// GMail returns a gservice client pointed at the fake server.
func (s *Server) GMail(t testing.TB, token string) *gservice.GMail {
	t.Helper()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	g, err := gservice.NewGmail(context.Background(), ts, option.WithEndpoint(s.URL+"/"))
	if err != nil {
		t.Fatalf("gservice.NewGmail failed: %v", err)
	}
	return g
}

// Requests returns the method-less request URIs seen so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.RequestURI())
		s.mu.Unlock()

		if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeError(w, http.StatusUnauthorized, "Request had invalid authentication credentials.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if s.ListStatus != 0 {
		writeError(w, s.ListStatus, http.StatusText(s.ListStatus))
		return
	}

	var ids []string
	if query := q.Get("q"); query != "" {
		if s.QueryUnsupported {
			writeError(w, http.StatusForbidden, QueryUnsupportedMessage)
			return
		}
		ids = s.Queries[query]
	} else {
		ids = s.Labeled[q.Get("labelIds")]
	}

	if maxResults, err := strconv.Atoi(q.Get("maxResults")); err == nil && maxResults < len(ids) {
		ids = ids[:maxResults]
	}

	resp := &gmail.ListMessagesResponse{ResultSizeEstimate: int64(len(ids))}
	for _, id := range ids {
		threadID := id
		if msg, ok := s.Messages[id]; ok && msg.ThreadId != "" {
			threadID = msg.ThreadId
		}
		resp.Messages = append(resp.Messages, &gmail.Message{Id: id, ThreadId: threadID})
	}

	writeJSON(w, resp)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if status, ok := s.GetStatus[id]; ok {
		writeError(w, status, http.StatusText(status))
		return
	}

	msg, ok := s.Messages[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}

	fields := r.URL.Query().Get("fields")
	if fields == "" {
		writeJSON(w, msg)
		return
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	projected := map[string]json.RawMessage{}
	for _, f := range strings.Split(fields, ",") {
		if v, ok := all[strings.TrimSpace(f)]; ok {
			projected[strings.TrimSpace(f)] = v
		}
	}
	writeJSON(w, projected)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":%q,"errors":[{"message":%q,"domain":"global","reason":"failedPrecondition"}]}}`, code, msg, msg)
}
