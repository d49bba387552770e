// Package directory implements the supplier directory: a manufacturer to
// contact-email mapping kept in a Store.
package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ipartes/quote-cli/internal/apperr"
	"github.com/ipartes/quote-cli/internal/model"
	"github.com/ipartes/quote-cli/internal/store"
)

// Client-facing messages.
const (
	MsgRequiredFields  = "Fabricante e email são obrigatórios"
	MsgEmailRequired   = "Email é obrigatório"
	MsgDuplicateForMfr = "Este email já está cadastrado para este fabricante"
	MsgDuplicateForSup = "Este email já está cadastrado para este fornecedor"
	MsgNotFound        = "Fornecedor não encontrado"
	MsgEmailNotFound   = "Email não encontrado para este fornecedor"
	MsgDeleted         = "Fornecedor excluído com sucesso"
	MsgListFailed      = "Erro ao listar fornecedores"
	MsgGetFailed       = "Erro ao buscar fornecedor"
	MsgAddFailed       = "Erro ao adicionar fornecedor"
	MsgAddEmailFailed  = "Erro ao adicionar email ao fornecedor"
	MsgRemoveFailed    = "Erro ao remover email do fornecedor"
	MsgDeleteFailed    = "Erro ao excluir fornecedor"
)

// Service is the only writer of supplier records.
type Service struct {
	store store.Store
	now   func() time.Time
}

// New creates a Service over st.
func New(st store.Store) *Service {
	return &Service{store: st, now: func() time.Time { return time.Now().UTC() }}
}

// List returns every supplier with emails normalized.
func (s *Service) List(ctx context.Context) ([]model.Supplier, error) {
	list, err := s.store.ListSuppliers(ctx)
	if err != nil {
		return nil, apperr.Storage(MsgListFailed, err).WithOp("directory.List")
	}
	return list, nil
}

// RegisteredEmails flattens every supplier's emails in directory order.
// Duplicates across suppliers are kept.
func (s *Service) RegisteredEmails(ctx context.Context) ([]string, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return model.FlattenEmails(list), nil
}

// Get returns one supplier.
func (s *Service) Get(ctx context.Context, id string) (*model.Supplier, error) {
	return s.load(ctx, "directory.Get", MsgGetFailed, id)
}

// AddSupplier attaches email to the supplier whose manufacturer matches
// case-insensitively, or creates a new supplier when none does. created
// reports which happened.
func (s *Service) AddSupplier(ctx context.Context, manufacturer, email string) (sup *model.Supplier, created bool, err error) {
	manufacturer = strings.TrimSpace(manufacturer)
	email = strings.TrimSpace(email)
	if manufacturer == "" || email == "" {
		return nil, false, apperr.Validation(MsgRequiredFields).WithOp("directory.AddSupplier")
	}

	list, err := s.store.ListSuppliers(ctx)
	if err != nil {
		return nil, false, apperr.Storage(MsgAddFailed, err).WithOp("directory.AddSupplier")
	}

	for i := range list {
		existing := &list[i]
		if !existing.SameManufacturer(manufacturer) {
			continue
		}
		if existing.HasEmail(email) {
			return nil, false, apperr.Conflict(MsgDuplicateForMfr).WithOp("directory.AddSupplier")
		}
		existing.Emails = append(existing.Emails, email)
		existing.UpdatedAt = s.now()
		if err := s.store.UpdateEmails(ctx, existing.ID, existing.Emails, existing.UpdatedAt); err != nil {
			return nil, false, s.mutationError("directory.AddSupplier", MsgAddFailed, err)
		}
		zap.L().Info("directory: email added to supplier",
			zap.String("supplier_id", existing.ID),
			zap.String("manufacturer", existing.Manufacturer),
		)
		return existing, false, nil
	}

	sup = &model.Supplier{Manufacturer: manufacturer, Emails: []string{email}}
	if err := s.store.CreateSupplier(ctx, sup); err != nil {
		return nil, false, apperr.Storage(MsgAddFailed, err).WithOp("directory.AddSupplier")
	}
	zap.L().Info("directory: supplier created",
		zap.String("supplier_id", sup.ID),
		zap.String("manufacturer", sup.Manufacturer),
	)
	return sup, true, nil
}

// AddEmail appends email to supplier id.
func (s *Service) AddEmail(ctx context.Context, id, email string) (*model.Supplier, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Validation(MsgEmailRequired).WithOp("directory.AddEmail")
	}

	sup, err := s.load(ctx, "directory.AddEmail", MsgAddEmailFailed, id)
	if err != nil {
		return nil, err
	}
	if sup.HasEmail(email) {
		return nil, apperr.Conflict(MsgDuplicateForSup).WithOp("directory.AddEmail")
	}

	sup.Emails = append(sup.Emails, email)
	sup.UpdatedAt = s.now()
	if err := s.store.UpdateEmails(ctx, sup.ID, sup.Emails, sup.UpdatedAt); err != nil {
		return nil, s.mutationError("directory.AddEmail", MsgAddEmailFailed, err)
	}
	return sup, nil
}

// RemoveEmail deletes the first exact match of email from supplier id.
func (s *Service) RemoveEmail(ctx context.Context, id, email string) (*model.Supplier, error) {
	sup, err := s.load(ctx, "directory.RemoveEmail", MsgRemoveFailed, id)
	if err != nil {
		return nil, err
	}
	if !sup.RemoveEmail(email) {
		return nil, apperr.NotFound(MsgEmailNotFound).WithOp("directory.RemoveEmail")
	}

	sup.UpdatedAt = s.now()
	if err := s.store.UpdateEmails(ctx, sup.ID, sup.Emails, sup.UpdatedAt); err != nil {
		return nil, s.mutationError("directory.RemoveEmail", MsgRemoveFailed, err)
	}
	return sup, nil
}

// Delete removes supplier id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteSupplier(ctx, id); err != nil {
		return s.mutationError("directory.Delete", MsgDeleteFailed, err)
	}
	zap.L().Info("directory: supplier deleted", zap.String("supplier_id", id))
	return nil
}

func (s *Service) load(ctx context.Context, op, failMsg, id string) (*model.Supplier, error) {
	sup, err := s.store.GetSupplier(ctx, id)
	if err != nil {
		return nil, s.mutationError(op, failMsg, err)
	}
	return sup, nil
}

func (s *Service) mutationError(op, failMsg string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(MsgNotFound).WithOp(op)
	}
	return apperr.Storage(failMsg, err).WithOp(op)
}
