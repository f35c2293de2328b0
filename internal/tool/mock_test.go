package tool_test

import (
	"context"
	"sync"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-probe/internal/config"
	"github.com/hal9000y/gmail-probe/internal/mailbox"
)

type finderMock struct {
	FindFunc func(ctx context.Context, s config.Search) (mailbox.Result, error)

	mu    sync.Mutex
	calls []config.Search
}

func (m *finderMock) Find(ctx context.Context, s config.Search) (mailbox.Result, error) {
	if m.FindFunc == nil {
		panic("finderMock.FindFunc: method is nil but Find was just called")
	}
	m.mu.Lock()
	m.calls = append(m.calls, s)
	m.mu.Unlock()
	return m.FindFunc(ctx, s)
}

func (m *finderMock) FindCalls() []config.Search {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]config.Search(nil), m.calls...)
}

type getMessageCall struct {
	MsgID  string
	Fields string
}

type gmailSvcMock struct {
	GetMessageFunc func(ctx context.Context, msgID, fields string) (*gmail.Message, error)

	mu    sync.Mutex
	calls []getMessageCall
}

func (m *gmailSvcMock) GetMessage(ctx context.Context, msgID, fields string) (*gmail.Message, error) {
	if m.GetMessageFunc == nil {
		panic("gmailSvcMock.GetMessageFunc: method is nil but GetMessage was just called")
	}
	m.mu.Lock()
	m.calls = append(m.calls, getMessageCall{MsgID: msgID, Fields: fields})
	m.mu.Unlock()
	return m.GetMessageFunc(ctx, msgID, fields)
}

func (m *gmailSvcMock) GetMessageCalls() []getMessageCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]getMessageCall(nil), m.calls...)
}

type converterMock struct {
	HTML2TextFunc func(raw []byte) (string, error)
}

func (m *converterMock) HTML2Text(raw []byte) (string, error) {
	if m.HTML2TextFunc == nil {
		panic("converterMock.HTML2TextFunc: method is nil but HTML2Text was just called")
	}
	return m.HTML2TextFunc(raw)
}
