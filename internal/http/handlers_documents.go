package http

import (
	"net/http"

	"backoffice/internal/core"
	"backoffice/internal/log"
	"backoffice/internal/services"
)

func pathKind(r *http.Request) (core.EntityKind, error) {
	return core.ParseEntityKind(r.PathValue("kind"))
}

func (s *Server) handleEntitySummaries(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	summaries, err := s.documents.Summaries(r.Context(), kind)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(summaries).Write(w)
}

func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	var req entityRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpParse, err)
		return
	}
	created, err := s.documents.CreateEntity(r.Context(), kind, req.entity())
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	var req documentRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpParse, err)
		return
	}
	doc, err := s.documents.AddDocument(r.Context(), kind, r.PathValue("id"), req.document())
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/documents/"+doc.ID).
		Body(doc).
		Write(w)
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	items, err := s.documents.Queue(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(items).Write(w)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req documentPatchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpParse, err)
		return
	}
	patch := services.DocumentPatch{
		Name:       req.Name,
		IssueDate:  req.IssueDate,
		ExpiryDate: req.ExpiryDate,
		Attachment: req.Attachment,
	}
	if patch.Name != nil {
		name := sanitizeInput(*patch.Name)
		patch.Name = &name
	}
	doc, err := s.documents.UpdateDocument(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(doc).Write(w)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	var req dismissRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpParse, err)
		return
	}
	d, err := s.documents.Dismiss(r.Context(), r.PathValue("id"), req.Reason, sanitizeInput(req.Note))
	if err != nil {
		s.fail(w, r, log.OpDismiss, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(d).Write(w)
}
