package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
	"spendtrack/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrDuplicateCurrency):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnknownCurrency),
		errors.Is(err, core.ErrUnknownCategory):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidRate),
		errors.Is(err, core.ErrEmptyCode),
		errors.Is(err, core.ErrEmptySymbol),
		errors.Is(err, core.ErrEmptyName):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.tracker == nil {
		checks["tracker"] = "failed: tracker not configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["tracker"] = "ok"
		checks["currencies"] = len(s.tracker.Currencies())
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// expenseView pairs a ledger entry with its live primary-currency value,
// which follows the current rates rather than the frozen snapshot.
type expenseView struct {
	core.Expense
	DisplayAmount decimal.Decimal `json:"displayAmount"`
}

type dayGroupView struct {
	Day      string        `json:"day"`
	Expenses []expenseView `json:"expenses"`
}

type expenseListResponse struct {
	Expenses        []expenseView   `json:"expenses,omitempty"`
	Groups          []dayGroupView  `json:"groups,omitempty"`
	Total           decimal.Decimal `json:"total"`
	PrimaryCurrency core.Currency   `json:"primaryCurrency"`
}

func (s *Server) viewsOf(expenses []core.Expense) []expenseView {
	views := make([]expenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, expenseView{
			Expense:       e,
			DisplayAmount: s.tracker.DisplayConversion(e),
		})
	}
	return views
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	resp := expenseListResponse{
		Total:           s.tracker.Total(),
		PrimaryCurrency: s.tracker.PrimaryCurrency(),
	}
	if grouped := r.URL.Query().Get("grouped"); grouped == "true" || grouped == "1" {
		for _, g := range s.tracker.GroupedExpenses() {
			resp.Groups = append(resp.Groups, dayGroupView{
				Day:      g.Day,
				Expenses: s.viewsOf(g.Expenses),
			})
		}
	} else {
		resp.Expenses = s.viewsOf(s.tracker.Expenses())
	}
	writeJSON(w, http.StatusOK, resp)
}

type createExpenseRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CategoryID  int    `json:"categoryId"`
	Currency    string `json:"currency"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exp, err := s.tracker.AddExpense(r.Context(), req.Amount, req.Description, req.CategoryID, req.Currency)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Expense rejected",
			log.FieldError, err,
			log.FieldCurrency, req.Currency,
			log.FieldAmount, req.Amount)
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, exp)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing expense id")
		return
	}
	if !s.tracker.DeleteExpense(r.Context(), id) {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Categories)
}

type currencyListResponse struct {
	Currencies []core.Currency `json:"currencies"`
	Primary    string          `json:"primary"`
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currencyListResponse{
		Currencies: s.tracker.Currencies(),
		Primary:    s.tracker.PrimaryCurrency().Code,
	})
}

type addCurrencyRequest struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

func (s *Server) handleAddCurrency(w http.ResponseWriter, r *http.Request) {
	var req addCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cur, err := s.tracker.AddCurrency(r.Context(), req.Code, req.Symbol, req.Name)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, cur)
}

func (s *Server) handleGetPrimaryCurrency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.PrimaryCurrency())
}

type setPrimaryRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleSetPrimaryCurrency(w http.ResponseWriter, r *http.Request) {
	var req setPrimaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.tracker.SetPrimaryCurrency(r.Context(), req.Code); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.tracker.PrimaryCurrency())
}

type convertRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Rate   string `json:"rate"`
}

type convertResponse struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
	Result decimal.Decimal `json:"result"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.tracker.Convert(r.Context(), req.From, req.To, req.Amount, req.Rate)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, convertResponse{
		From:   res.From.Code,
		To:     res.To.Code,
		Amount: res.Amount,
		Rate:   res.Rate,
		Result: res.Result,
	})
}

type rateResponse struct {
	Pair    string                 `json:"pair"`
	Rate    decimal.Decimal        `json:"rate"`
	History []core.RateObservation `json:"history"`
}

func (s *Server) handleListRates(w http.ResponseWriter, r *http.Request) {
	views := s.tracker.Rates()
	resp := make([]rateResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, rateResponse{
			Pair:    v.Pair,
			Rate:    v.Record.CurrentRate,
			History: v.Record.History,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type resolveRateResponse struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Rate  decimal.Decimal `json:"rate"`
	Known bool            `json:"known"`
}

func (s *Server) handleResolveRate(w http.ResponseWriter, r *http.Request) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	rate, known := s.tracker.ResolveRate(from, to)
	writeJSON(w, http.StatusOK, resolveRateResponse{
		From:  core.NormalizeCode(from),
		To:    core.NormalizeCode(to),
		Rate:  rate,
		Known: known,
	})
}
