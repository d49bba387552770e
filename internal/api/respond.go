package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ipartes/quote-cli/internal/apperr"
)

const maxBodyBytes = 1 << 20

// Client-facing messages owned by the HTTP layer.
const (
	MsgInvalidBody     = "Corpo da requisição inválido"
	MsgInvalidEmail    = "Email inválido"
	MsgDiscoverFailed  = "Erro ao buscar fornecedores"
	MsgInternalFailure = "Erro interno do servidor"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// writeError logs the full error chain and sends only the short message.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, msg := apperr.StatusAndMessage(err, fallback)

	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("kind", apperr.KindOf(err).String()),
		zap.String("route", routePattern(r)),
		zap.String("request_id", RequestIDFrom(r.Context())),
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed", fields...)
	} else {
		zap.L().Warn("api: request rejected", fields...)
	}

	writeJSON(w, status, errorResponse{Error: msg})
}

type normalizer interface {
	normalize()
}

// bind decodes the JSON body into dst and validates it. Missing or blank
// required fields produce a validation error carrying requiredMsg.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, dst any, requiredMsg string) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Wrap(apperr.KindValidation, requiredMsg, err).WithOp("api.bind")
		}
		return apperr.Wrap(apperr.KindValidation, MsgInvalidBody, err).WithOp("api.bind")
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}

	err := s.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if fe.Tag() == "email" {
				return apperr.Wrap(apperr.KindValidation, MsgInvalidEmail, err).WithOp("api.bind")
			}
		}
		return apperr.Wrap(apperr.KindValidation, requiredMsg, err).WithOp("api.bind")
	}
	return apperr.Wrap(apperr.KindInternal, MsgInternalFailure, err).WithOp("api.bind")
}
