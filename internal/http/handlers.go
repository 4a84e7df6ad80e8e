package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"budget/internal/auth"
	"budget/internal/core"
)

func (s *Server) today() core.Date {
	return core.DateOf(s.budget.Now())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		if errors.Is(err, errBadRequest) {
			ErrorResponse(http.StatusBadRequest, "Invalid request body").Write(w)
			return false
		}
		writeError(w, r, err)
		return false
	}
	return true
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.budget.Overview(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(ov).Write(w)
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	items, err := s.budget.ListIncome(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(nonNil(items)).Write(w)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if !s.decode(w, r, &req) {
		return
	}
	saved, err := s.budget.AddIncome(r.Context(), auth.OwnerFromContext(r.Context()), req.entry(s.today()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Data(saved).Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeleteIncome(r.Context(), auth.OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.budget.ListCategories(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(nonNil(items)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !s.decode(w, r, &req) {
		return
	}
	saved, err := s.budget.AddCategory(r.Context(), auth.OwnerFromContext(r.Context()), req.category(""))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Data(saved).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !s.decode(w, r, &req) {
		return
	}
	saved, err := s.budget.UpdateCategory(r.Context(), auth.OwnerFromContext(r.Context()), req.category(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(saved).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeleteCategory(r.Context(), auth.OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items, err := s.budget.ListExpenses(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(nonNil(items)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !s.decode(w, r, &req) {
		return
	}
	saved, err := s.budget.AddExpense(r.Context(), auth.OwnerFromContext(r.Context()), req.expense(s.today()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Data(saved).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeleteExpense(r.Context(), auth.OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Write(w)
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	items, err := s.budget.ListDebts(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(nonNil(items)).Write(w)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if !s.decode(w, r, &req) {
		return
	}
	saved, err := s.budget.AddDebt(r.Context(), auth.OwnerFromContext(r.Context()), req.debt(""))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Data(saved).Write(w)
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if !s.decode(w, r, &req) {
		return
	}
	saved, err := s.budget.UpdateDebt(r.Context(), auth.OwnerFromContext(r.Context()), req.debt(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(saved).Write(w)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeleteDebt(r.Context(), auth.OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Write(w)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.budget.RecordPayment(r.Context(), auth.OwnerFromContext(r.Context()), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Data(res).Warning(res.Warning).Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.budget.Profile(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(p).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !s.decode(w, r, &req) {
		return
	}
	owner := auth.OwnerFromContext(r.Context())
	current, err := s.budget.Profile(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.budget.UpdateProfile(r.Context(), owner, req.apply(current))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(saved).Write(w)
}

func (s *Server) handleRolloverCheck(w http.ResponseWriter, r *http.Request) {
	check, err := s.rollover.Check(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(check).Write(w)
}

func (s *Server) handleRolloverAck(w http.ResponseWriter, r *http.Request) {
	current, err := s.rollover.Acknowledge(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(current).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	filename, err := s.budget.ExportCSV(r.Context(), auth.OwnerFromContext(r.Context()), &buf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewResponse().Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			ErrorResponse(http.StatusServiceUnavailable, "Storage unavailable").Write(w)
			return
		}
	}
	NewResponse().Write(w)
}

// nonNil makes empty lists encode as [] rather than being omitted.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
