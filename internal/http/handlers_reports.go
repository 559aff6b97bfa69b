package http

import (
	"net/http"

	"backoffice/internal/log"
)

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reports.Accounts(r.Context(), ParseFilter(r.URL.Query()))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(summary).Write(w)
}

func (s *Server) handleLiabilities(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reports.Liabilities(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(summary).Write(w)
}
