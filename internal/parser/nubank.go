// Package parser extracts payment details from bank notification snippets.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	nubankMerchant = regexp.MustCompile(`(?i)Pagaste en:\s*(.+?)\s+La cantidad de:`)
	nubankAmount   = regexp.MustCompile(`(?i)La cantidad de:\s*\$?([0-9][0-9.,\s]*\d)`)
)

// Expense is a payment parsed out of a notification.
type Expense struct {
	// AmountCents is the amount in hundredths of a peso.
	AmountCents int64
	Merchant    string
	Date        time.Time
	MessageID   string
}

// Amount renders AmountCents as a plain decimal, e.g. "686896.00".
func (e Expense) Amount() string {
	return fmt.Sprintf("%d.%02d", e.AmountCents/100, e.AmountCents%100)
}

// Nubank parses Cuenta Nu payment snippets such as
// "Pagaste en: GOU PAYMENTS La cantidad de: $686.896,00".
type Nubank struct {
	// Now dates expenses without a usable internalDate. Defaults to time.Now.
	Now func() time.Time
}

// Parse returns the expense in snippet, or false when no positive amount is found.
// internalDateMs is the message's internalDate in epoch milliseconds, 0 if unknown.
func (p Nubank) Parse(snippet string, internalDateMs int64, msgID string) (Expense, bool) {
	cents, ok := extractAmount(snippet)
	if !ok || cents <= 0 {
		return Expense{}, false
	}

	return Expense{
		AmountCents: cents,
		Merchant:    extractMerchant(snippet),
		Date:        p.date(internalDateMs),
		MessageID:   msgID,
	}, true
}

func (p Nubank) date(internalDateMs int64) time.Time {
	if internalDateMs > 0 {
		return time.UnixMilli(internalDateMs)
	}
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func extractMerchant(text string) string {
	m := nubankMerchant.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func extractAmount(text string) (int64, bool) {
	m := nubankAmount.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	amount := strings.Join(strings.Fields(m[1]), "")
	hasComma := strings.Contains(amount, ",")
	hasDot := strings.Contains(amount, ".")

	// Colombian notation: "." groups thousands, "," separates decimals.
	switch {
	case hasComma && hasDot:
		amount = strings.ReplaceAll(amount, ".", "")
		amount = strings.ReplaceAll(amount, ",", ".")
	case hasComma:
		amount = strings.ReplaceAll(amount, ",", ".")
	case hasDot:
		parts := strings.Split(amount, ".")
		if len(parts) != 2 || len(parts[1]) != 2 {
			amount = strings.ReplaceAll(amount, ".", "")
		}
	}

	return toCents(amount)
}

func toCents(s string) (int64, bool) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || len(frac) > 2 {
		return 0, false
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}

	frac = (frac + "00")[:2]
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, false
	}

	return units*100 + cents, true
}
