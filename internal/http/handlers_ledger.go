package http

import (
	"net/http"
	"strings"

	"backoffice/internal/log"
	"backoffice/internal/services"
)

// IdempotencyKeyHeader may carry the instant profit idempotency key instead
// of the request body.
const IdempotencyKeyHeader = "Idempotency-Key"

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpParse, err)
		return
	}
	rec, err := s.ledger.Record(r.Context(), req.record())
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(rec).Write(w)
}

func (s *Server) handleUnpublishRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Unpublish(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleInstantProfit answers 201 for a new pair and 200 when the
// idempotency key was seen before.
func (s *Server) handleInstantProfit(w http.ResponseWriter, r *http.Request) {
	var req instantProfitRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpParse, err)
		return
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key = strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	}

	res, err := s.ledger.InstantProfit(r.Context(), services.InstantProfitRequest{
		Gross:          req.Gross,
		Fee:            req.Fee,
		Method:         req.Method,
		Counterparty:   sanitizeCounterparty(req.Counterparty),
		Status:         sanitizeInput(req.Status),
		IdempotencyKey: key,
	})
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	NewJSONResponse().Status(status).Body(res).Write(w)
}
