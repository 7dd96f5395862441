// Package classify decides whether an incoming SMS is a bank transaction
// notification. Both predicates are pure and treat empty input as a
// negative, never an error.
package classify

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultBankSenders are known financial-institution sender identifiers.
// Matching is by case-insensitive substring, so "VM-HDFC" and "AD-HDFCBK"
// both match "HDFC".
var DefaultBankSenders = []string{
	"VM-HDFC", "HDFCBK", "HDFC",
	"VM-ICICI", "ICICIB", "ICICI",
	"VM-SBI", "SBIPSG", "SBI",
	"VM-AXIS", "AXISBK", "AXIS",
	"VM-KOTAK", "KOTAKB", "KOTAK",
	"VM-IDFC", "IDFC",
	"YESBNK", "YESBANK",
	"VM-PAYTM", "PAYTMB", "PAYTM",
	"PHONEPE", "PHONPE",
	"GPAY", "GOOGLEPAY",
	"AMAZONPAY", "AMZN",
}

// DefaultKeywords mark a message body as transaction-shaped. An amount
// pattern alone is not enough: promotional messages quote prices too.
var DefaultKeywords = []string{
	"debited", "credited", "spent", "paid", "received",
	"Rs", "INR", "₹", "amount", "balance",
	"UPI", "card", "account", "transaction",
	"withdrawn", "deposited", "refund", "cashback",
}

// amountPattern matches a currency marker followed by a numeric value with
// optional thousands separators and a decimal part, e.g. "Rs 5,234.50",
// "INR 385", "₹1,200", "Rs.299.00".
var amountPattern = regexp.MustCompile(`(?i)(?:rs\.?|inr\.?|₹)\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// Classifier gates raw messages on sender identity and body content.
type Classifier struct {
	senders  []string // upper-cased
	keywords []string // lower-cased
}

// New creates a Classifier with the given allow-lists. Empty lists fall
// back to the defaults.
func New(bankSenders, keywords []string) *Classifier {
	if len(bankSenders) == 0 {
		bankSenders = DefaultBankSenders
	}
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	c := &Classifier{
		senders:  make([]string, len(bankSenders)),
		keywords: make([]string, len(keywords)),
	}
	for i, s := range bankSenders {
		c.senders[i] = strings.ToUpper(s)
	}
	for i, k := range keywords {
		c.keywords[i] = strings.ToLower(k)
	}
	return c
}

// IsBankSender reports whether sender contains any configured bank
// identifier, case-insensitively. Empty sender is false.
func (c *Classifier) IsBankSender(sender string) bool {
	if sender == "" {
		return false
	}
	upper := strings.ToUpper(sender)
	for _, id := range c.senders {
		if strings.Contains(upper, id) {
			return true
		}
	}
	return false
}

// IsTransactionMessage reports whether body contains both an amount pattern
// and at least one transaction keyword. Empty body is false.
func (c *Classifier) IsTransactionMessage(body string) bool {
	if body == "" {
		return false
	}
	if !amountPattern.MatchString(body) {
		return false
	}
	lower := strings.ToLower(body)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractAmount returns the first currency amount found in body. The value
// is advisory (used for journal rows and previews); parsing never gates
// ingestion. The second return is false when no amount is present.
func ExtractAmount(body string) (decimal.Decimal, bool) {
	m := amountPattern.FindStringSubmatch(body)
	if m == nil {
		return decimal.Zero, false
	}
	amt, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return amt, true
}
