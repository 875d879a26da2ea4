package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/wolfman30/salon-dashboard/internal/scheduling"
	"github.com/wolfman30/salon-dashboard/internal/store"
	"github.com/wolfman30/salon-dashboard/pkg/logging"
)

// Handler serves the dashboard JSON API.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a dashboard HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("dashboard: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the dashboard endpoints. Expected under /api/v1.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/slots", h.listSlots)
	r.Get("/slots/next", h.nextSlots)

	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", h.listAppointments)
		r.Post("/", h.createAppointment)
		r.Post("/conflicts", h.checkConflict)
		r.Patch("/{id}/status", h.updateStatus)
		r.Patch("/{id}/schedule", h.reschedule)
	})

	r.Route("/blocked-periods", func(r chi.Router) {
		r.Get("/", h.listBlocks)
		r.Post("/", h.createBlock)
		r.Delete("/{id}", h.deleteBlock)
	})

	r.Get("/calendar/{month}", h.monthCalendar)
	r.Get("/calendar/days/{date}", h.day)

	r.Get("/finance/summary", h.financeSummary)
	r.Get("/finance/services", h.serviceBreakdown)
	r.Get("/finance/daily", h.dailyRevenue)
	r.Get("/finance/expenses", h.listExpenses)
	r.Post("/finance/expenses", h.createExpense)
	r.Get("/finance/expenses/categories", h.expenseCategories)

	r.Get("/clients/inactive", h.inactiveClients)
}

func (h *Handler) listSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := h.service.now()
	if raw := q.Get("from"); raw != "" {
		parsed, err := h.parseDate(raw)
		if err != nil {
			jsonError(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		from = parsed
	}
	days, err := intParam(q.Get("days"), 0)
	if err != nil {
		jsonError(w, "days must be an integer", http.StatusBadRequest)
		return
	}

	slots, err := h.service.AvailableSlots(r.Context(), SlotQuery{From: from, Days: days, ServiceID: q.Get("service_id")})
	if err != nil {
		h.fail(w, "list slots", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots, "count": len(slots)})
}

func (h *Handler) nextSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count, err := intParam(q.Get("count"), 5)
	if err != nil {
		jsonError(w, "count must be an integer", http.StatusBadRequest)
		return
	}
	slots, err := h.service.NextAvailable(r.Context(), count, q.Get("service_id"))
	if err != nil {
		h.fail(w, "next slots", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": nonNil(slots), "count": len(slots)})
}

type conflictRequest struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	ServiceID string    `json:"service_id"`
	ExcludeID string    `json:"exclude_id"`
}

func (h *Handler) checkConflict(w http.ResponseWriter, r *http.Request) {
	var req conflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.End.IsZero() && !req.Start.IsZero() {
		duration, _, err := h.service.durationFor(r.Context(), req.ServiceID)
		if err != nil {
			h.fail(w, "check conflict", err)
			return
		}
		req.End = req.Start.Add(duration)
	}
	verdict, err := h.service.CheckConflict(r.Context(), scheduling.Interval{Start: req.Start, End: req.End}, req.ExcludeID)
	if err != nil {
		h.fail(w, "check conflict", err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	appointments, err := h.service.ListAppointments(r.Context(), from, to)
	if err != nil {
		h.fail(w, "list appointments", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": nonNil(appointments), "count": len(appointments)})
}

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	appt, err := h.service.BookAppointment(r.Context(), req)
	if err != nil {
		h.fail(w, "create appointment", err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	status, err := scheduling.ParseStatus(req.Status)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	appt, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		h.fail(w, "update status", err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type scheduleRequest struct {
	Start time.Time `json:"start"`
}

func (h *Handler) reschedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	appt, err := h.service.RescheduleAppointment(r.Context(), chi.URLParam(r, "id"), req.Start)
	if err != nil {
		h.fail(w, "reschedule appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *Handler) listBlocks(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	blocks, err := h.service.BlockedPeriods(r.Context(), from, to)
	if err != nil {
		h.fail(w, "list blocked periods", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocked_periods": nonNil(blocks), "count": len(blocks)})
}

type blockRequest struct {
	Date   string `json:"date"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason"`
}

func (h *Handler) createBlock(w http.ResponseWriter, r *http.Request) {
	var body blockRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	date, err := h.parseDate(body.Date)
	if err != nil {
		jsonError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	req := BlockRequest{Date: date, Reason: body.Reason}
	if body.Start != "" || body.End != "" {
		start, startErr := scheduling.ParseClock(body.Start)
		end, endErr := scheduling.ParseClock(body.End)
		if startErr != nil || endErr != nil {
			jsonError(w, "start and end must be HH:MM", http.StatusBadRequest)
			return
		}
		req.Start = start.On(date)
		req.End = end.On(date)
	}

	block, err := h.service.BlockPeriod(r.Context(), req)
	if err != nil {
		h.fail(w, "create blocked period", err)
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

func (h *Handler) deleteBlock(w http.ResponseWriter, r *http.Request) {
	if err := h.service.UnblockPeriod(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete blocked period", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) monthCalendar(w http.ResponseWriter, r *http.Request) {
	month, err := time.ParseInLocation("2006-01", chi.URLParam(r, "month"), h.service.Location())
	if err != nil {
		jsonError(w, "month must be YYYY-MM", http.StatusBadRequest)
		return
	}
	view, err := h.service.MonthCalendar(r.Context(), month)
	if err != nil {
		h.fail(w, "month calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) day(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(chi.URLParam(r, "date"))
	if err != nil {
		jsonError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	view, err := h.service.Day(r.Context(), date)
	if err != nil {
		h.fail(w, "day view", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) financeSummary(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.FinanceSummary(r.Context())
	if err != nil {
		h.fail(w, "finance summary", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) serviceBreakdown(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	rows, err := h.service.ServiceBreakdown(r.Context(), from, to)
	if err != nil {
		h.fail(w, "service breakdown", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": rows})
}

func (h *Handler) dailyRevenue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := h.parseDate(q.Get("from"))
	if err != nil {
		jsonError(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	days, err := intParam(q.Get("days"), 7)
	if err != nil {
		jsonError(w, "days must be an integer", http.StatusBadRequest)
		return
	}
	series, err := h.service.DailyRevenue(r.Context(), from, days)
	if err != nil {
		h.fail(w, "daily revenue", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": series})
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	expenses, err := h.service.Expenses(r.Context(), from, to, r.URL.Query()["category"])
	if err != nil {
		h.fail(w, "list expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

type expenseRequest struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	IncurredOn  string          `json:"incurred_on"`
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var body expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	incurred, err := h.parseDate(body.IncurredOn)
	if err != nil {
		jsonError(w, "incurred_on must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	expense, err := h.service.RecordExpense(r.Context(), ExpenseRequest{
		Description: body.Description,
		Category:    body.Category,
		Amount:      body.Amount,
		IncurredOn:  incurred,
	})
	if err != nil {
		h.fail(w, "record expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (h *Handler) expenseCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ExpenseCategories(r.Context())
	if err != nil {
		h.fail(w, "expense categories", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) inactiveClients(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r.URL.Query().Get("days"), 0)
	if err != nil {
		jsonError(w, "days must be an integer", http.StatusBadRequest)
		return
	}
	clients, err := h.service.InactiveClients(r.Context(), days)
	if err != nil {
		h.fail(w, "inactive clients", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients, "count": len(clients)})
}

// dateRange reads from (inclusive) and to (inclusive) dates and returns the
// half-open range covering both days.
func (h *Handler) dateRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()
	from, err := h.parseDate(q.Get("from"))
	if err != nil {
		jsonError(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	to, err := h.parseDate(q.Get("to"))
	if err != nil {
		jsonError(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		jsonError(w, "to must not be before from", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return from, scheduling.AddDays(to, 1), true
}

func (h *Handler) parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(raw), h.service.Location())
}

// fail maps service errors to status codes. Unexpected errors are logged.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    conflict.Verdict.Detail,
			"conflict": conflict.Verdict,
		})
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, scheduling.ErrInvalidInterval),
		errors.Is(err, scheduling.ErrInvalidStatus):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, scheduling.ErrUnknownService):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, scheduling.ErrInvalidTransition):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error("dashboard handler: "+op, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func intParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
