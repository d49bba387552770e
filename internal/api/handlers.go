package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ipartes/quote-cli/internal/directory"
	"github.com/ipartes/quote-cli/internal/discovery"
	"github.com/ipartes/quote-cli/internal/model"
	"github.com/ipartes/quote-cli/internal/quote"
)

type productRequest struct {
	ProductInput string `json:"productInput" validate:"notblank"`
}

type emailResponse struct {
	Email string `json:"email"`
}

type supplierRequest struct {
	Manufacturer string `json:"manufacturer" validate:"notblank"`
	Email        string `json:"email" validate:"notblank,email"`
}

func (s *supplierRequest) normalize() {
	s.Manufacturer = strings.TrimSpace(s.Manufacturer)
	s.Email = strings.TrimSpace(s.Email)
}

type addEmailRequest struct {
	Email string `json:"email" validate:"notblank,email"`
}

func (a *addEmailRequest) normalize() {
	a.Email = strings.TrimSpace(a.Email)
}

func (s *Server) handleGenerateEmail(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := s.bind(w, r, &req, quote.MsgProductRequired); err != nil {
		writeError(w, r, err, quote.MsgProductRequired)
		return
	}

	email, err := s.deps.Drafter.Draft(r.Context(), req.ProductInput)
	if err != nil {
		writeError(w, r, err, quote.MsgDraftFailed)
		return
	}
	writeJSON(w, http.StatusOK, emailResponse{Email: email})
}

func (s *Server) handleFindSuppliers(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := s.bind(w, r, &req, discovery.MsgProductRequired); err != nil {
		writeError(w, r, err, discovery.MsgProductRequired)
		return
	}

	results, err := s.deps.Discoverer.Discover(r.Context(), req.ProductInput)
	if err != nil {
		writeError(w, r, err, MsgDiscoverFailed)
		return
	}
	writeJSON(w, http.StatusOK, discovery.Envelope(results))
}

// handleListSuppliers answers an empty list when the directory is down so
// the registration page still renders.
func (s *Server) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Directory.List(r.Context())
	if err != nil {
		zap.L().Warn("api: supplier list unavailable, returning empty list",
			zap.Error(err),
			zap.String("request_id", RequestIDFrom(r.Context())),
		)
		list = []model.Supplier{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := s.bind(w, r, &req, directory.MsgRequiredFields); err != nil {
		writeError(w, r, err, directory.MsgRequiredFields)
		return
	}

	sup, created, err := s.deps.Directory.AddSupplier(r.Context(), req.Manufacturer, req.Email)
	if err != nil {
		writeError(w, r, err, directory.MsgAddFailed)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, sup)
}

func (s *Server) handleAddEmail(w http.ResponseWriter, r *http.Request) {
	var req addEmailRequest
	if err := s.bind(w, r, &req, directory.MsgEmailRequired); err != nil {
		writeError(w, r, err, directory.MsgEmailRequired)
		return
	}

	sup, err := s.deps.Directory.AddEmail(r.Context(), chi.URLParam(r, "id"), req.Email)
	if err != nil {
		writeError(w, r, err, directory.MsgAddEmailFailed)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

func (s *Server) handleRemoveEmail(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "email")
	email, err := url.PathUnescape(raw)
	if err != nil {
		email = raw
	}

	sup, err := s.deps.Directory.RemoveEmail(r.Context(), chi.URLParam(r, "id"), email)
	if err != nil {
		writeError(w, r, err, directory.MsgRemoveFailed)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

func (s *Server) handleDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Directory.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, directory.MsgDeleteFailed)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: directory.MsgDeleted})
}
