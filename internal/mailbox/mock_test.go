package mailbox_test

import (
	"context"

	"google.golang.org/api/gmail/v1"
)

type messagesSvcMock struct {
	SearchMessagesFunc    func(ctx context.Context, q string, maxResults int64) ([]*gmail.Message, error)
	ListLabelMessagesFunc func(ctx context.Context, labelID string, maxResults int64) ([]*gmail.Message, error)
	GetMessageFunc        func(ctx context.Context, msgID, fields string) (*gmail.Message, error)

	searchCalls []string
	listCalls   []string
	getCalls    []string
}

func (m *messagesSvcMock) SearchMessages(ctx context.Context, q string, maxResults int64) ([]*gmail.Message, error) {
	if m.SearchMessagesFunc == nil {
		panic("messagesSvcMock.SearchMessagesFunc: method is nil but SearchMessages was just called")
	}
	m.searchCalls = append(m.searchCalls, q)
	return m.SearchMessagesFunc(ctx, q, maxResults)
}

func (m *messagesSvcMock) ListLabelMessages(ctx context.Context, labelID string, maxResults int64) ([]*gmail.Message, error) {
	if m.ListLabelMessagesFunc == nil {
		panic("messagesSvcMock.ListLabelMessagesFunc: method is nil but ListLabelMessages was just called")
	}
	m.listCalls = append(m.listCalls, labelID)
	return m.ListLabelMessagesFunc(ctx, labelID, maxResults)
}

func (m *messagesSvcMock) GetMessage(ctx context.Context, msgID, fields string) (*gmail.Message, error) {
	if m.GetMessageFunc == nil {
		panic("messagesSvcMock.GetMessageFunc: method is nil but GetMessage was just called")
	}
	m.getCalls = append(m.getCalls, msgID)
	return m.GetMessageFunc(ctx, msgID, fields)
}
