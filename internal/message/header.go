// Package message extracts headers and bodies from Gmail API message payloads.
package message

import (
	"strings"

	"google.golang.org/api/gmail/v1"
)

// Header returns the value of the first header whose name matches, ignoring case.
// It returns an empty string when the header is absent.
func Header(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if h != nil && strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Headers returns the payload headers, tolerating nil messages and payloads.
func Headers(msg *gmail.Message) []*gmail.MessagePartHeader {
	if msg == nil || msg.Payload == nil {
		return nil
	}
	return msg.Payload.Headers
}

// Meta holds the headers the probe reports on.
type Meta struct {
	From    string
	Subject string
	Date    string
}

// ExtractMeta pulls From, Subject and Date out of msg.
func ExtractMeta(msg *gmail.Message) Meta {
	headers := Headers(msg)
	return Meta{
		From:    Header(headers, "From"),
		Subject: Header(headers, "Subject"),
		Date:    Header(headers, "Date"),
	}
}
