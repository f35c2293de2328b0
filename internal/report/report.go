// Package report prints probe results and persists them for manual inspection.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-probe/internal/config"
	"github.com/hal9000y/gmail-probe/internal/gservice"
	"github.com/hal9000y/gmail-probe/internal/message"
	"github.com/hal9000y/gmail-probe/internal/parser"
)

const rule = "============================================================"

const emptyBodyNotice = "(empty - a gmail.metadata token cannot read the body; use gmail.readonly)"

type htmlConverter interface {
	HTML2Text(raw []byte) (string, error)
}

// Reporter prints a run to out and persists its responses under the configured OutDir.
type Reporter struct {
	out  io.Writer
	cfg  config.Report
	conv htmlConverter
}

func NewReporter(out io.Writer, cfg config.Report, conv htmlConverter) *Reporter {
	return &Reporter{out: out, cfg: cfg, conv: conv}
}

// Paths of the files a run persists.
func (r *Reporter) MinimalPath() string {
	return filepath.Join(r.cfg.OutDir, r.cfg.FilePrefix+"_snippet_only.json")
}

func (r *Reporter) FullPath() string {
	return filepath.Join(r.cfg.OutDir, r.cfg.FilePrefix+"_response.json")
}

func (r *Reporter) TextPath() string {
	return filepath.Join(r.cfg.OutDir, r.cfg.FilePrefix+"_response.txt")
}

func (r *Reporter) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(r.out, format, args...); err != nil {
		log.Println(fmt.Errorf("fmt.Fprintf failed: %w", err))
	}
}

func (r *Reporter) banner(title string) {
	r.printf("%s\n%s\n%s\n", rule, title, rule)
}

// Searching announces the discovery parameters.
func (r *Reporter) Searching(s config.Search) {
	r.printf("\nSearching messages from %s between %s and %s...\n\n", s.From, config.FormatDay(s.After), config.FormatDay(s.Before))
}

// Fallback announces that discovery had to filter locally.
func (r *Reporter) Fallback(found, scanned int) {
	r.printf("(Token cannot use search queries, probably gmail.metadata: listed without filter and filtered locally)\n")
	r.printf("Found %d of %d matching.\n\n", found, scanned)
}

// NoMessages reports an empty discovery.
func (r *Reporter) NoMessages() {
	r.printf("No messages found. Try widening the date range.\n")
}

// Minimal prints and persists the minimal projection, returning its size in bytes.
func (r *Reporter) Minimal(msg *gmail.Message, fields string) (int, error) {
	r.banner("MINIMAL REQUEST: fields=" + fields)

	pretty, err := EncodeJSON(msg, true)
	if err != nil {
		return 0, fmt.Errorf("EncodeJSON failed: %w", err)
	}
	size, err := Size(msg)
	if err != nil {
		return 0, fmt.Errorf("Size failed: %w", err)
	}

	r.printf("Response:\n%s\n", pretty)
	r.printf("\nResponse size: %d bytes\n", size)

	if err := writeFile(r.MinimalPath(), pretty); err != nil {
		return 0, err
	}
	r.printf("Saved to: %s\n", r.MinimalPath())

	return size, nil
}

// Comparison prints the full response size and the reduction achieved by the projection.
func (r *Reporter) Comparison(fullSize, minimalSize int) {
	r.printf("\n")
	r.banner("FULL REQUEST (no fields) for comparison")
	r.printf("Full response size: %d bytes\n", fullSize)
	r.printf("Reduction: %d -> %d (~%d%% smaller)\n\n", fullSize, minimalSize, ReductionPercent(fullSize, minimalSize))
}

// Metadata prints the headers verbatim.
func (r *Reporter) Metadata(meta message.Meta, subjectContains string) {
	r.banner("METADATA")
	r.printf("From: %s\n", meta.From)
	r.printf("Subject: %s\n", meta.Subject)
	r.printf("Date: %s\n", meta.Date)
	if subjectContains != "" {
		r.printf("Subject contains %q: %t\n", subjectContains, strings.Contains(meta.Subject, subjectContains))
	}
	r.printf("\n")
}

// Body prints a preview of the decoded body.
func (r *Reporter) Body(body message.Body) {
	r.banner("BODY (plain text or HTML)")
	if body.Text == "" {
		r.printf("%s\n\n", emptyBodyNotice)
		return
	}

	preview, truncated := Preview(body.Text, r.cfg.PreviewChars)
	r.printf("%s\n", preview)
	if truncated {
		r.printf("\n... [truncated, %d characters total]\n", len([]rune(body.Text)))
	}
	r.printf("\n")
}

// Payment prints the expense parsed from the snippet, if any.
func (r *Reporter) Payment(exp parser.Expense, ok bool) {
	r.banner("PAYMENT (parsed from snippet)")
	if !ok {
		r.printf("(no payment found in snippet)\n\n")
		return
	}
	r.printf("Merchant: %s\nAmount: %s\nDate: %s\n\n", exp.Merchant, exp.Amount(), exp.Date.Format(time.RFC3339))
}

// Persist writes the full response and its text rendering.
func (r *Reporter) Persist(full *gmail.Message, meta message.Meta, body message.Body, exp parser.Expense, hasExp bool) error {
	pretty, err := EncodeJSON(full, true)
	if err != nil {
		return fmt.Errorf("EncodeJSON failed: %w", err)
	}
	if err := writeFile(r.FullPath(), pretty); err != nil {
		return err
	}
	r.printf("Full JSON (raw API response): %s\n", r.FullPath())

	var b strings.Builder
	b.WriteString("=== METADATA ===\n")
	fmt.Fprintf(&b, "From: %s\nSubject: %s\nDate: %s\n\n", meta.From, meta.Subject, meta.Date)
	b.WriteString("=== BODY ===\n")
	if body.Text == "" {
		b.WriteString(emptyBodyNotice + "\n")
	} else {
		b.WriteString(body.Text)
	}

	if body.IsHTML() && r.conv != nil {
		text, err := r.conv.HTML2Text([]byte(body.Text))
		if err != nil {
			log.Println(fmt.Errorf("conv.HTML2Text failed: %w", err))
		} else {
			fmt.Fprintf(&b, "\n\n=== TEXT ===\n%s\n", text)
		}
	}

	if hasExp {
		fmt.Fprintf(&b, "\n\n=== PAYMENT ===\nMerchant: %s\nAmount: %s\nDate: %s\n", exp.Merchant, exp.Amount(), exp.Date.Format(time.RFC3339))
	}

	if err := writeFile(r.TextPath(), []byte(b.String())); err != nil {
		return err
	}
	r.printf("Readable text (metadata + body): %s\n", r.TextPath())

	return nil
}

// Failure prints a fatal error the way the API reported it.
func Failure(w io.Writer, err error) {
	var apiErr *gservice.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		_, _ = fmt.Fprintf(w, "Error: %d %s\n", apiErr.Code, apiErr.Reason())
		if apiErr.Body != "" {
			_, _ = fmt.Fprintln(w, strings.TrimSpace(apiErr.Body))
		}
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}

// ReductionPercent is round(100 * (1 - minimal/full)), 0 when full is not positive.
func ReductionPercent(full, minimal int) int {
	if full <= 0 {
		return 0
	}
	return int(math.Round(100 * (1 - float64(minimal)/float64(full))))
}

// Preview returns the first limit characters of s and whether s was cut.
func Preview(s string, limit int) (string, bool) {
	if limit <= 0 {
		return s, false
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s, false
	}
	return string(rs[:limit]), true
}

// EncodeJSON renders v without HTML escaping, indented by two spaces when indent is set.
func EncodeJSON(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("json.Encoder.Encode failed: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Size is the length in bytes of v's compact JSON encoding.
func Size(v any) (int, error) {
	b, err := EncodeJSON(v, false)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("os.WriteFile(%s) failed: %w", path, err)
	}
	return nil
}
