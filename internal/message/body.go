package message

import (
	"encoding/base64"

	"google.golang.org/api/gmail/v1"
)

const (
	MimeTextPlain = "text/plain"
	MimeTextHTML  = "text/html"
)

// Body is a decoded message body together with the media type it was taken from.
type Body struct {
	Text     string
	MimeType string
}

// IsHTML reports whether the body was taken from an HTML part.
func (b Body) IsHTML() bool {
	return b.MimeType == MimeTextHTML
}

// DecodeBody returns the decoded body text of payload, or "" when there is none.
func DecodeBody(payload *gmail.MessagePart) string {
	return ExtractBody(payload).Text
}

// ExtractBody decodes the body of payload.
//
// A direct body wins. Otherwise the first text/plain part with data is used,
// then the first text/html part with data. Only the immediate parts are
// inspected: a multipart/alternative nested inside multipart/mixed yields an
// empty body. This is a known limitation kept on purpose.
func ExtractBody(payload *gmail.MessagePart) Body {
	if payload == nil {
		return Body{}
	}

	if hasData(payload) {
		return Body{Text: decodeBase64URL(payload.Body.Data), MimeType: payload.MimeType}
	}

	if part := firstPart(payload.Parts, MimeTextPlain); part != nil {
		return Body{Text: decodeBase64URL(part.Body.Data), MimeType: MimeTextPlain}
	}
	if part := firstPart(payload.Parts, MimeTextHTML); part != nil {
		return Body{Text: decodeBase64URL(part.Body.Data), MimeType: MimeTextHTML}
	}

	return Body{}
}

func firstPart(parts []*gmail.MessagePart, mimeType string) *gmail.MessagePart {
	for _, part := range parts {
		if part != nil && part.MimeType == mimeType && hasData(part) {
			return part
		}
	}
	return nil
}

func hasData(part *gmail.MessagePart) bool {
	return part.Body != nil && part.Body.Data != ""
}

func decodeBase64URL(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return data
		}
	}
	return string(decoded)
}
