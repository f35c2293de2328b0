package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-probe/internal/message"
	"github.com/hal9000y/gmail-probe/internal/parser"
	"github.com/hal9000y/gmail-probe/internal/report"
)

// GetMessageRequest selects a message and an optional field projection.
type GetMessageRequest struct {
	MessageID string `json:"message_id" jsonschema:"message ID to retrieve"`
	Fields    string `json:"fields,omitempty" jsonschema:"partial response projection, e.g. id,snippet,internalDate; empty for the full message"`
}

// GetMessageResponse is a message as the token sees it.
type GetMessageResponse struct {
	Summary   MessageSummary `json:"summary" jsonschema:"summary"`
	Fields    string         `json:"fields,omitempty" jsonschema:"projection used"`
	SizeBytes int            `json:"size_bytes" jsonschema:"size of the API response in bytes"`
	BodyText  string         `json:"body_text,omitempty" jsonschema:"decoded body, plain text preferred over HTML"`
	MimeType  string         `json:"mime_type,omitempty" jsonschema:"MIME type the body was taken from"`
	Text      string         `json:"text,omitempty" jsonschema:"HTML body rendered as text"`
	Payment   *Payment       `json:"payment,omitempty" jsonschema:"payment parsed from the snippet"`
}

// Payment is a parsed payment notification.
type Payment struct {
	Merchant string `json:"merchant,omitempty" jsonschema:"merchant name"`
	Amount   string `json:"amount" jsonschema:"amount, two decimals"`
	Date     string `json:"date" jsonschema:"RFC 3339 date"`
}

type getMessageSvc interface {
	GetMessage(ctx context.Context, msgID, fields string) (*gmail.Message, error)
}

type htmlConverter interface {
	HTML2Text(raw []byte) (string, error)
}

type expenseParser interface {
	Parse(snippet string, internalDateMs int64, msgID string) (parser.Expense, bool)
}

func NewGetMessage(svc getMessageSvc, conv htmlConverter, parser expenseParser) *GetMessage {
	return &GetMessage{svc: svc, conv: conv, parser: parser}
}

// GetMessage retrieves one message with its decoded body.
type GetMessage struct {
	svc    getMessageSvc
	conv   htmlConverter
	parser expenseParser
}

func (t *GetMessage) GetMessage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetMessageRequest,
) (*mcp.CallToolResult, GetMessageResponse, error) {
	if input.MessageID == "" {
		return nil, GetMessageResponse{}, fmt.Errorf("message_id is required")
	}

	msg, err := t.svc.GetMessage(ctx, input.MessageID, input.Fields)
	if err != nil {
		return nil, GetMessageResponse{}, fmt.Errorf("get message %s failed: %w", input.MessageID, err)
	}

	size, err := report.Size(msg)
	if err != nil {
		return nil, GetMessageResponse{}, fmt.Errorf("report.Size failed: %w", err)
	}

	resp := GetMessageResponse{
		Summary:   extractMessageSummary(msg),
		Fields:    input.Fields,
		SizeBytes: size,
	}

	body := message.ExtractBody(msg.Payload)
	resp.BodyText = body.Text
	resp.MimeType = body.MimeType

	if body.IsHTML() {
		resp.Text, err = t.conv.HTML2Text([]byte(body.Text))
		if err != nil {
			return nil, GetMessageResponse{}, fmt.Errorf("conv.HTML2Text failed: %w", err)
		}
	}

	if exp, ok := t.parser.Parse(msg.Snippet, msg.InternalDate, msg.Id); ok {
		resp.Payment = &Payment{
			Merchant: exp.Merchant,
			Amount:   exp.Amount(),
			Date:     exp.Date.UTC().Format(time.RFC3339),
		}
	}

	return nil, resp, nil
}
