package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RecordType is the direction of a ledger record.
type RecordType string

const (
	Income  RecordType = "income"
	Expense RecordType = "expense"
)

// Method is the settlement channel of a ledger record.
type Method string

const (
	MethodBank       Method = "bank"
	MethodCash       Method = "cash"
	MethodTasdeed    Method = "tasdeed"
	MethodSwiper     Method = "swiper"
	MethodServiceFee Method = "service_fee"
	MethodLiability  Method = "liability"
)

// Methods lists every settlement channel in a stable order.
var Methods = []Method{MethodBank, MethodCash, MethodTasdeed, MethodSwiper, MethodServiceFee, MethodLiability}

// Status values known to the aggregation code. Other values are kept verbatim.
const (
	StatusCleared   = "cleared"
	StatusPending   = "pending"
	StatusRejected  = "rejected"
	StatusLiability = "liability"
)

// CounterpartyKind says which reference a record carries. A single kind keeps
// the company, employee, individual and self references mutually exclusive.
type CounterpartyKind string

const (
	CounterpartyNone       CounterpartyKind = ""
	CounterpartyCompany    CounterpartyKind = "company"
	CounterpartyEmployee   CounterpartyKind = "employee"
	CounterpartyIndividual CounterpartyKind = "individual"
	CounterpartySelf       CounterpartyKind = "self"
)

type (
	Date struct {
		time.Time
	}

	// Counterparty is the party a ledger record is associated with. ID and
	// Name are set for company, employee and individual references; Label is
	// set for self entries.
	Counterparty struct {
		Kind  CounterpartyKind `json:"kind,omitempty"`
		ID    string           `json:"id,omitempty"`
		Name  string           `json:"name,omitempty"`
		Label string           `json:"label,omitempty"`
	}

	LedgerRecord struct {
		ID           string       `json:"id"`
		Type         RecordType   `json:"type"`
		Amount       Money        `json:"amount"`
		Method       Method       `json:"method"`
		Counterparty Counterparty `json:"counterparty"`
		ServiceFee   Money        `json:"serviceFee"`
		Status       string       `json:"status"`
		CreatedAt    time.Time    `json:"createdAt"`
		Published    bool         `json:"published"`
		Number       int64        `json:"number"`
		Suffix       string       `json:"suffix,omitempty"`
		PairID       string       `json:"pairId,omitempty"`
	}

	// RecordQuery selects published records. Zero From/To leave that side open;
	// To is exclusive.
	RecordQuery struct {
		From          time.Time
		To            time.Time
		Type          RecordType
		LiabilityOnly bool
	}

	// RecordPair is an income and an expense written together under one
	// batch number and pair ID.
	RecordPair struct {
		PairID  string       `json:"pairId"`
		Income  LedgerRecord `json:"income"`
		Expense LedgerRecord `json:"expense"`
	}
)

var (
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidMethod       = errors.New("invalid method")
	ErrInvalidType         = errors.New("invalid record type")
	ErrInvalidCounterparty = errors.New("invalid counterparty")
	ErrInvalidFilter       = errors.New("invalid filter")
	ErrInvalidDismissal    = errors.New("invalid dismissal")
	ErrInvalidDocument     = errors.New("invalid document")
	ErrInvalidEntity       = errors.New("invalid entity")
	ErrUnknownEntityKind   = errors.New("unknown entity kind")
	ErrNotFound            = errors.New("not found")
	ErrDuplicate           = errors.New("duplicate")
)

// ParseMethod maps a wire value onto the closed Method set.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// IsSettlement reports whether the method is one of the four channels that
// carry per-method balances.
func (m Method) IsSettlement() bool {
	switch m {
	case MethodBank, MethodCash, MethodTasdeed, MethodSwiper:
		return true
	case MethodServiceFee, MethodLiability:
		return false
	}
	return false
}

// ParseRecordType maps a wire value onto income or expense.
func ParseRecordType(s string) (RecordType, error) {
	switch t := RecordType(strings.ToLower(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

// IsLiability reports whether the record belongs to liability netting.
func (r LedgerRecord) IsLiability() bool {
	return r.Method == MethodLiability || r.Status == StatusLiability
}

// Validate checks a record submitted for storage. Aggregation never calls it.
func (r LedgerRecord) Validate() error {
	if _, err := ParseRecordType(string(r.Type)); err != nil {
		return err
	}
	if _, err := ParseMethod(string(r.Method)); err != nil {
		return err
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if r.ServiceFee.IsNegative() {
		return ErrInvalidAmount
	}
	return r.Counterparty.Validate()
}

// Validate enforces that exactly the fields of the chosen kind are set.
func (c Counterparty) Validate() error {
	switch c.Kind {
	case CounterpartyNone:
		if c.ID != "" || c.Label != "" {
			return fmt.Errorf("%w: kind required when a reference is set", ErrInvalidCounterparty)
		}
	case CounterpartyCompany, CounterpartyEmployee, CounterpartyIndividual:
		if c.ID == "" {
			return fmt.Errorf("%w: %s counterparty requires an id", ErrInvalidCounterparty, c.Kind)
		}
		if c.Label != "" {
			return fmt.Errorf("%w: %s counterparty cannot carry a self label", ErrInvalidCounterparty, c.Kind)
		}
	case CounterpartySelf:
		if strings.TrimSpace(c.Label) == "" {
			return fmt.Errorf("%w: self counterparty requires a label", ErrInvalidCounterparty)
		}
		if c.ID != "" {
			return fmt.Errorf("%w: self counterparty cannot reference an entity", ErrInvalidCounterparty)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidCounterparty, c.Kind)
	}
	return nil
}

// IsSelf reports whether the counterparty is the house entry with the given label.
func (c Counterparty) IsSelf(label string) bool {
	return c.Kind == CounterpartySelf &&
		strings.EqualFold(strings.TrimSpace(c.Label), strings.TrimSpace(label))
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
