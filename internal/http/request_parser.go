package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"backoffice/internal/core"
	"backoffice/internal/reports"
)

const maxBodyBytes = 1 << 20

// errBadBody marks request bodies that are not a single valid JSON object.
var errBadBody = errors.New("invalid request body")

// ParseFilter reads the accounts report filter from the query string.
// Validation happens when the filter is resolved.
func ParseFilter(query url.Values) reports.Filter {
	return reports.Filter{
		Month: strings.TrimSpace(query.Get("month")),
		Year:  strings.TrimSpace(query.Get("year")),
	}
}

// DecodeJSON decodes exactly one JSON object from the body into v. Unknown
// fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadBody)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: larger than %d bytes", errBadBody, maxErr.Limit)
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after the JSON object", errBadBody)
	}
	return nil
}

// sanitizeInput trims and drops control characters from free text.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' {
			return -1
		}
		return r
	}, s))
}

type recordRequest struct {
	Type         core.RecordType   `json:"type"`
	Amount       core.Money        `json:"amount"`
	Method       core.Method       `json:"method"`
	Counterparty core.Counterparty `json:"counterparty"`
	ServiceFee   core.Money        `json:"serviceFee"`
	Status       string            `json:"status"`
}

func (r recordRequest) record() core.LedgerRecord {
	return core.LedgerRecord{
		Type:         r.Type,
		Amount:       r.Amount,
		Method:       r.Method,
		Counterparty: sanitizeCounterparty(r.Counterparty),
		ServiceFee:   r.ServiceFee,
		Status:       sanitizeInput(r.Status),
	}
}

type instantProfitRequest struct {
	Gross          core.Money        `json:"gross"`
	Fee            core.Money        `json:"fee"`
	Method         core.Method       `json:"method"`
	Counterparty   core.Counterparty `json:"counterparty"`
	Status         string            `json:"status"`
	IdempotencyKey string            `json:"idempotencyKey"`
}

type documentRequest struct {
	Name       string    `json:"name"`
	IssueDate  core.Date `json:"issueDate"`
	ExpiryDate core.Date `json:"expiryDate"`
	Attachment string    `json:"attachment"`
}

func (r documentRequest) document() core.Document {
	return core.Document{
		Name:       sanitizeInput(r.Name),
		IssueDate:  r.IssueDate,
		ExpiryDate: r.ExpiryDate,
		Attachment: strings.TrimSpace(r.Attachment),
	}
}

type entityRequest struct {
	Name      string            `json:"name"`
	Documents []documentRequest `json:"documents"`
}

func (r entityRequest) entity() core.Entity {
	e := core.Entity{Name: sanitizeInput(r.Name)}
	for _, d := range r.Documents {
		e.Documents = append(e.Documents, d.document())
	}
	return e
}

// documentPatchRequest leaves absent or null fields unchanged. An empty date
// string clears the date.
type documentPatchRequest struct {
	Name       *string    `json:"name"`
	IssueDate  *core.Date `json:"issueDate"`
	ExpiryDate *core.Date `json:"expiryDate"`
	Attachment *string    `json:"attachment"`
}

type dismissRequest struct {
	Reason core.DismissalReason `json:"reason"`
	Note   string               `json:"note"`
}

func sanitizeCounterparty(c core.Counterparty) core.Counterparty {
	return core.Counterparty{
		Kind:  c.Kind,
		ID:    strings.TrimSpace(c.ID),
		Name:  sanitizeInput(c.Name),
		Label: sanitizeInput(c.Label),
	}
}
