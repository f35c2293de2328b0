package tool

import (
	"strings"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-probe/internal/message"
)

// EmailAddress represents an email address with optional display name.
type EmailAddress struct {
	Name  string `json:"name,omitempty" jsonschema:"the display name"`
	Email string `json:"email" jsonschema:"the email address"`
}

// MessageSummary contains essential message metadata.
type MessageSummary struct {
	ID        string         `json:"id" jsonschema:"message ID"`
	ThreadID  string         `json:"thread_id" jsonschema:"thread ID"`
	Timestamp string         `json:"timestamp" jsonschema:"Date header, verbatim"`
	From      EmailAddress   `json:"from" jsonschema:"sender information"`
	To        []EmailAddress `json:"to,omitempty" jsonschema:"recipients"`
	Subject   string         `json:"subject" jsonschema:"email subject"`
	Snippet   string         `json:"snippet" jsonschema:"message preview"`
}

func extractMessageSummary(msg *gmail.Message) MessageSummary {
	headers := message.Headers(msg)

	return MessageSummary{
		ID:        msg.Id,
		ThreadID:  msg.ThreadId,
		Timestamp: message.Header(headers, "Date"),
		From:      parseEmailAddress(message.Header(headers, "From")),
		To:        parseEmailAddressList(message.Header(headers, "To")),
		Subject:   message.Header(headers, "Subject"),
		Snippet:   msg.Snippet,
	}
}

func parseEmailAddress(from string) EmailAddress {
	addr := EmailAddress{}

	if idx := strings.Index(from, "<"); idx != -1 {
		addr.Name = strings.TrimSpace(from[:idx])
		if endIdx := strings.Index(from[idx:], ">"); endIdx != -1 {
			addr.Email = strings.TrimSpace(from[idx+1 : idx+endIdx])
		}
	} else {
		addr.Email = strings.TrimSpace(from)
	}

	addr.Name = strings.Trim(addr.Name, "\"")

	return addr
}

func parseEmailAddressList(addresses string) []EmailAddress {
	if addresses == "" {
		return nil
	}

	parts := strings.Split(addresses, ",")
	result := make([]EmailAddress, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, parseEmailAddress(trimmed))
		}
	}

	return result
}
