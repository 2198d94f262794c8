// Package txinput turns a raw transaction payload into a typed record ready
// for the writer. It performs no I/O; every rejection is an INVALID_INPUT
// AppError naming the offending field.
package txinput

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aarondl/opt/omit"
	"github.com/aarondl/opt/omitnull"
	"github.com/shopspring/decimal"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/money"
)

const (
	MaxDescriptionLength = 500
	MaxPaymentModeLength = 50
	amountScale          = 2
)

// maxAmount is the first value that no longer fits numeric(14,2).
var maxAmount = decimal.New(1, 12)

// dateLayouts are tried in order; values without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Payload is the wire shape of a create or update request. Fields are kept
// raw so that absent, null and typed values can be told apart.
type Payload struct {
	Amount          json.RawMessage `json:"amount" swaggertype:"string" example:"250.00"`
	Description     json.RawMessage `json:"description" swaggertype:"string" example:"Groceries"`
	TransactionDate json.RawMessage `json:"transaction_date" swaggertype:"string" example:"2025-03-14"`
	CategoryID      json.RawMessage `json:"category_id" swaggertype:"integer" example:"3"`
	PaymentMode     json.RawMessage `json:"payment_mode" swaggertype:"string" example:"Cash"`
	TagIDs          json.RawMessage `json:"tag_ids" swaggertype:"array,integer" example:"5,7"`
}

// Record is a fully validated transaction ready to be inserted.
type Record struct {
	Amount      decimal.Decimal
	Description string
	// TransactionDate is nil when the caller omitted it; the writer stamps it.
	TransactionDate *time.Time
	CategoryID      *uint
	PaymentMode     *string
	TagIDs          []uint
}

// Patch holds only the fields an update request supplied. A set TagIDs, even
// an empty one, replaces the whole tag set.
type Patch struct {
	Amount          omit.Val[decimal.Decimal]
	Description     omit.Val[string]
	TransactionDate omit.Val[time.Time]
	CategoryID      omitnull.Val[uint]
	PaymentMode     omitnull.Val[string]
	TagIDs          omit.Val[[]uint]
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Amount.IsUnset() &&
		p.Description.IsUnset() &&
		p.TransactionDate.IsUnset() &&
		p.CategoryID.IsUnset() &&
		p.PaymentMode.IsUnset() &&
		p.TagIDs.IsUnset()
}

// NormalizeCreate validates a create payload. amount is required.
func NormalizeCreate(p Payload) (*Record, error) {
	if isAbsent(p.Amount) {
		return nil, apperrors.InvalidField("amount", "amount is required")
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, err
	}

	rec := &Record{Amount: amount}

	if !isAbsent(p.Description) {
		if rec.Description, err = parseDescription(p.Description); err != nil {
			return nil, err
		}
	}

	if !isAbsent(p.TransactionDate) {
		date, present, err := parseDate(p.TransactionDate)
		if err != nil {
			return nil, err
		}
		if present {
			rec.TransactionDate = &date
		}
	}

	if rec.CategoryID, err = parseCategoryID(p.CategoryID); err != nil {
		return nil, err
	}

	if rec.PaymentMode, err = parsePaymentMode(p.PaymentMode); err != nil {
		return nil, err
	}

	if rec.TagIDs, err = ParseIDList(p.TagIDs); err != nil {
		return nil, err
	}

	return rec, nil
}

// NormalizeUpdate validates an update payload. Absent fields stay unchanged;
// a null category_id, payment_mode or tag_ids clears the value.
func NormalizeUpdate(p Payload) (*Patch, error) {
	patch := &Patch{}

	if !isAbsent(p.Amount) {
		if isNull(p.Amount) {
			return nil, apperrors.InvalidField("amount", "amount cannot be null")
		}
		amount, err := parseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		patch.Amount = omit.From(amount)
	}

	if !isAbsent(p.Description) {
		desc, err := parseDescription(p.Description)
		if err != nil {
			return nil, err
		}
		patch.Description = omit.From(desc)
	}

	if !isAbsent(p.TransactionDate) {
		if isNull(p.TransactionDate) {
			return nil, apperrors.InvalidField("transaction_date", "transaction_date cannot be null")
		}
		date, present, err := parseDate(p.TransactionDate)
		if err != nil {
			return nil, err
		}
		if present {
			patch.TransactionDate = omit.From(date)
		}
	}

	if !isAbsent(p.CategoryID) {
		id, err := parseCategoryID(p.CategoryID)
		if err != nil {
			return nil, err
		}
		patch.CategoryID = omitnull.FromPtr(id)
	}

	if !isAbsent(p.PaymentMode) {
		mode, err := parsePaymentMode(p.PaymentMode)
		if err != nil {
			return nil, err
		}
		patch.PaymentMode = omitnull.FromPtr(mode)
	}

	if !isAbsent(p.TagIDs) {
		ids, err := ParseIDList(p.TagIDs)
		if err != nil {
			return nil, err
		}
		patch.TagIDs = omit.From(ids)
	}

	return patch, nil
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	text, ok := scalarText(raw)
	if !ok || text == "" {
		return decimal.Zero, apperrors.InvalidField("amount", "amount must be a number")
	}
	if len(text) > money.MaxTextLength {
		return decimal.Zero, apperrors.InvalidField("amount", "amount is out of range")
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, apperrors.InvalidField("amount", "amount must be a finite number")
	}
	if err := money.CheckRange("amount", amount); err != nil {
		return decimal.Zero, err
	}
	if amount.IsZero() {
		return decimal.Zero, apperrors.InvalidField("amount", "amount must not be zero")
	}
	if -amount.Exponent() > amountScale && !amount.Equal(amount.Round(amountScale)) {
		return decimal.Zero, apperrors.InvalidField("amount", "amount must have at most 2 decimal places")
	}
	if amount.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, apperrors.InvalidField("amount", "amount is too large")
	}
	return amount.Round(amountScale), nil
}

func parseDescription(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", apperrors.InvalidField("description", "description must be a string")
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		return "", apperrors.InvalidField("description", "description must be at most 500 characters")
	}
	return s, nil
}

// parseDate returns present=false for an empty string, which callers treat
// the same as an omitted date.
func parseDate(raw json.RawMessage) (time.Time, bool, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false, apperrors.InvalidField("transaction_date", "transaction_date must be a date string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, false, apperrors.InvalidField("transaction_date", "transaction_date must be RFC3339 or YYYY-MM-DD")
	}
	return t, true, nil
}

// ParseTime parses the accepted timestamp layouts and returns the instant in UTC.
func ParseTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func parseCategoryID(raw json.RawMessage) (*uint, error) {
	if isAbsent(raw) || isNull(raw) {
		return nil, nil
	}
	text, ok := scalarText(raw)
	if !ok {
		return nil, apperrors.InvalidField("category_id", "category_id must be an integer")
	}
	if text == "" {
		return nil, nil
	}
	id, err := parseID(text)
	if err != nil {
		return nil, apperrors.InvalidField("category_id", "category_id must be a positive integer")
	}
	return &id, nil
}

func parsePaymentMode(raw json.RawMessage) (*string, error) {
	if isAbsent(raw) || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperrors.InvalidField("payment_mode", "payment_mode must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(s) > MaxPaymentModeLength {
		return nil, apperrors.InvalidField("payment_mode", "payment_mode must be at most 50 characters")
	}
	return &s, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// scalarText returns the text of a JSON number or string. Strings are
// trimmed; any other JSON type reports ok=false.
func scalarText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
	return "", false
}
