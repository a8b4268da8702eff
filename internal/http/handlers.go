package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/state"
)

// transactionRequest is a manually entered transaction. Amount is a money
// string such as "-12.50".
type transactionRequest struct {
	AccountID  string  `json:"accountId"`
	Date       string  `json:"date"`
	Name       string  `json:"name"`
	Amount     string  `json:"amount"`
	CategoryID *string `json:"categoryId"`
	Notes      string  `json:"notes"`
}

type transactionPatchRequest struct {
	Date       *string                 `json:"date"`
	Name       *string                 `json:"name"`
	Amount     *string                 `json:"amount"`
	CategoryID *string                 `json:"categoryId"`
	Notes      *string                 `json:"notes"`
	Status     *core.TransactionStatus `json:"status"`
}

type budgetRequest struct {
	CategoryID string `json:"categoryId"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Amount     string `json:"amount"`
}

type importRequest struct {
	Transactions []core.Transaction `json:"transactions"`
}

func (s *Server) handleExportState(w http.ResponseWriter, r *http.Request) {
	data, err := s.api.Export(r.Context(), s.userID)
	if err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="fintrack-backup.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleRestoreState(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, applog.OpRestore, &badRequestError{err})
		return
	}
	if !json.Valid(data) {
		s.writeError(w, r, applog.OpRestore, &badRequestError{errors.New("backup is not valid JSON")})
		return
	}
	if err := s.api.Restore(r.Context(), s.userID, data); err != nil {
		s.writeError(w, r, applog.OpRestore, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetState(w http.ResponseWriter, r *http.Request) {
	if err := s.api.Reset(r.Context(), s.userID); err != nil {
		s.writeError(w, r, applog.OpReset, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	snap, err := s.api.Dashboard(r.Context(), s.userID, year, month)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAssistantContext(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	text, err := s.api.AssistantContext(r.Context(), s.userID, year, month)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	nw, err := s.api.NetWorth(r.Context(), s.userID)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, nw)
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	summary, err := s.api.Budget(r.Context(), s.userID, year, month)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	summary, err := s.api.SetBudgetedAmount(r.Context(), s.userID,
		req.CategoryID, req.Year, req.Month, core.ParseAmount(req.Amount))
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	txs, err := s.api.Transactions(r.Context(), s.userID, year, month)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format(core.DateLayout)
	}
	tx := core.Transaction{
		AccountID:   req.AccountID,
		Date:        date,
		Name:        sanitizeInput(req.Name),
		AmountCents: core.ParseAmount(req.Amount),
		Notes:       sanitizeInput(req.Notes),
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		tx.CategoryID = core.CategoryRef(*req.CategoryID)
	}

	created, err := s.api.AddTransaction(r.Context(), s.userID, tx)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}

	patch := state.TransactionPatch{
		Date:       req.Date,
		CategoryID: req.CategoryID,
		Status:     req.Status,
	}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		patch.Name = &name
	}
	if req.Notes != nil {
		notes := sanitizeInput(*req.Notes)
		patch.Notes = &notes
	}
	if req.Amount != nil {
		cents := core.ParseAmount(*req.Amount)
		patch.AmountCents = &cents
	}

	updated, err := s.api.UpdateTransaction(r.Context(), s.userID, r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpImport, err)
		return
	}

	outcome, err := s.api.ImportTransactions(r.Context(), s.userID, req.Transactions)
	if err != nil {
		s.writeError(w, r, applog.OpImport, err)
		return
	}
	status := http.StatusOK
	if outcome.Queued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, outcome)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var acc core.Account
	if err := decodeJSON(w, r, &acc); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	acc.Name = sanitizeInput(acc.Name)
	saved, err := s.api.UpsertAccount(r.Context(), s.userID, acc)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var cat core.Category
	if err := decodeJSON(w, r, &cat); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	cat.Name = sanitizeInput(cat.Name)
	cat.Group = sanitizeInput(cat.Group)
	saved, err := s.api.AddCategory(r.Context(), s.userID, cat)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule core.CategoryRule
	if err := decodeJSON(w, r, &rule); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	rule.Pattern = sanitizeInput(rule.Pattern)
	saved, err := s.api.AddCategoryRule(r.Context(), s.userID, rule)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var goal core.Goal
	if err := decodeJSON(w, r, &goal); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	goal.Name = sanitizeInput(goal.Name)
	saved, err := s.api.AddGoal(r.Context(), s.userID, goal)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleFire(w http.ResponseWriter, r *http.Request) {
	proj, err := s.api.Fire(r.Context(), s.userID)
	if err != nil {
		s.writeError(w, r, applog.OpSimulate, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) handleUpdateFire(w http.ResponseWriter, r *http.Request) {
	var patch core.FireConfigPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	cfg, err := s.api.UpdateFireConfig(r.Context(), s.userID, patch)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
