// Package http provides HTTP handlers for the billing API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/wordcoach/wordcoach/adapters/metrics"
	"github.com/wordcoach/wordcoach/app"
	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/domain/usage"
)

// userIDHeader identifies the acting user. Authentication itself is an
// external collaborator; by the time requests reach this service the
// identity has been established upstream.
const userIDHeader = "X-User-ID"

// Handler provides the billing API endpoints.
type Handler struct {
	subscriptions *app.SubscriptionService
	analytics     *app.AnalyticsService
	changes       *app.PlanChangeService
	metrics       *metrics.Collector
	logger        zerolog.Logger
}

// Deps contains dependencies for the billing handler.
type Deps struct {
	Subscriptions *app.SubscriptionService
	Analytics     *app.AnalyticsService
	Changes       *app.PlanChangeService
	Metrics       *metrics.Collector
	Logger        zerolog.Logger
}

// NewHandler creates a new billing API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		subscriptions: deps.Subscriptions,
		analytics:     deps.Analytics,
		changes:       deps.Changes,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
	}
}

// Router returns the billing API router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(h.RequireUser)

		r.Route("/billing", func(r chi.Router) {
			r.Get("/subscription", h.GetSubscription)
			r.Get("/cycle", h.GetCycle)
			r.Get("/history", h.GetHistory)

			r.Route("/plan-change", func(r chi.Router) {
				r.Post("/preview", h.PreviewPlanChange)
				r.Post("/execute", h.ExecutePlanChange)
				r.Post("/cancel", h.CancelPlanChange)
			})
		})

		r.Post("/recordings", h.CreateRecording)
	})

	return r
}

// instrument records request count and duration per method, route
// pattern, and status.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// The route pattern is only populated after routing, so read it
		// on the way out to keep label cardinality bounded.
		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(ww.Status())
		h.metrics.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		h.metrics.RequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

// RequireUser rejects requests without an identified user.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(userIDHeader) == "" {
			writeError(w, http.StatusUnauthorized, "missing_user", "X-User-ID header is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health handles liveness checks.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetSubscription returns the user's canonical subscription, creating the
// default free one if none exists.
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)

	sub, err := h.subscriptions.Current(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscription": subscriptionDTO(sub)})
}

// GetCycle returns the current-cycle usage report and derived analytics.
func (h *Handler) GetCycle(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)

	cycle, err := h.analytics.CurrentCycle(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscription": subscriptionDTO(cycle.Subscription),
		"usageReport":  reportDTO(cycle.Report),
		"analytics": map[string]any{
			"wordLimit":        cycle.WordLimit,
			"usagePercentage":  cycle.UsagePercentage,
			"remainingWords":   cycle.RemainingWords,
			"hasExceededLimit": cycle.HasExceededLimit,
			"warningLevel":     cycle.Warning.String(),
			"daysRemaining":    cycle.DaysRemaining,
		},
	})
}

// GetHistory returns usage reports for past cycles plus a trend summary.
// The cycles query parameter defaults to 6.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)

	count := 6
	if raw := r.URL.Query().Get("cycles"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_cycles", "cycles must be a positive integer")
			return
		}
		count = n
	}

	history, err := h.analytics.History(r.Context(), userID, count)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	cycles := make([]map[string]any, 0, len(history.Cycles))
	for _, c := range history.Cycles {
		cycles = append(cycles, map[string]any{
			"periodStart": c.Window.Start,
			"periodEnd":   c.Window.End,
			"report":      reportDTO(c.Report),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"historicalCycles": cycles,
		"trendAnalytics": map[string]any{
			"totalWords":   history.Trend.TotalWords,
			"averageWords": history.Trend.AverageWords,
			"direction":    history.Trend.Direction,
		},
	})
}

// PreviewPlanChange computes a plan change without applying it.
func (h *Handler) PreviewPlanChange(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)

	var req struct {
		NewPriceID string `json:"newPriceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPriceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "newPriceId is required")
		return
	}

	change, err := h.changes.Preview(r.Context(), userID, req.NewPriceID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planChangeDTO(change))
}

// ExecutePlanChange applies a previously previewed plan change.
func (h *Handler) ExecutePlanChange(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)

	var req struct {
		NewPriceID string `json:"newPriceId"`
		ChangeType string `json:"changeType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPriceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "newPriceId is required")
		return
	}
	changeType := billing.ChangeType(req.ChangeType)
	switch changeType {
	case billing.ChangeTypeUpgrade, billing.ChangeTypeDowngrade, billing.ChangeTypeSame:
	default:
		writeError(w, http.StatusBadRequest, "invalid_change_type", "changeType must be upgrade, downgrade, or same")
		return
	}

	result, err := h.changes.Execute(r.Context(), userID, req.NewPriceID, changeType)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := map[string]any{
		"status":       result.Status,
		"change":       planChangeDTO(result.Change),
		"subscription": subscriptionDTO(result.Subscription),
	}
	if result.Scheduled != nil {
		resp["scheduledSubscription"] = subscriptionDTO(*result.Scheduled)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CancelPlanChange reverses a pending downgrade.
func (h *Handler) CancelPlanChange(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)

	var req struct {
		ScheduleID string `json:"scheduleId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ScheduleID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "scheduleId is required")
		return
	}

	if err := h.changes.CancelScheduled(r.Context(), userID, req.ScheduleID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// CreateRecording appends a word-usage event.
func (h *Handler) CreateRecording(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)

	var req struct {
		WordCount int64 `json:"wordCount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WordCount < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "wordCount must be a non-negative integer")
		return
	}

	event, err := h.analytics.RecordUsage(r.Context(), userID, req.WordCount)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        event.ID,
		"wordCount": event.WordCount,
		"createdAt": event.CreatedAt,
	})
}

// writeServiceError maps the billing error taxonomy onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var pmErr *billing.PaymentMethodRequiredError
	switch {
	case errors.As(err, &pmErr):
		// Actionable, not a failure: the caller completes payment setup
		// with the intent's client secret and retries.
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error": map[string]any{
				"code":    "payment_method_required",
				"message": "A payment method is required to complete this change",
				"setupIntent": map[string]string{
					"id":           pmErr.SetupIntent.ID,
					"clientSecret": pmErr.SetupIntent.ClientSecret,
				},
			},
		})
	case errors.Is(err, billing.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
	case errors.Is(err, billing.ErrChangeTypeMismatch):
		writeError(w, http.StatusConflict, "change_type_mismatch", "Prices changed since the preview; request a new preview")
	case errors.Is(err, billing.ErrProviderUnavailable):
		writeError(w, http.StatusServiceUnavailable, "provider_unavailable", "The payment provider is temporarily unavailable")
	default:
		h.logger.Error().Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
	}
}

func subscriptionDTO(s billing.Subscription) map[string]any {
	dto := map[string]any{
		"id":                 s.ID,
		"status":             s.Status,
		"priceId":            s.PriceID,
		"productId":          s.ProductID,
		"amount":             s.Amount,
		"currency":           s.Currency,
		"interval":           s.Interval,
		"currentPeriodStart": s.CurrentPeriodStart,
		"currentPeriodEnd":   s.CurrentPeriodEnd,
		"cancelAtPeriodEnd":  s.CancelAtPeriodEnd,
		"wordLimit":          s.WordLimit,
	}
	if s.TrialEnd != nil {
		dto["trialEnd"] = s.TrialEnd
	}
	return dto
}

func planChangeDTO(c billing.PlanChange) map[string]any {
	dto := map[string]any{
		"currentPriceId":  c.CurrentPriceID,
		"newPriceId":      c.NewPriceID,
		"currentAmount":   c.CurrentAmount,
		"newAmount":       c.NewAmount,
		"currency":        c.Currency,
		"changeType":      c.ChangeType,
		"timing":          c.Timing,
		"immediateCharge": c.ImmediateCharge,
		"description":     c.Description,
	}
	if c.ScheduledDate != nil {
		dto["scheduledDate"] = c.ScheduledDate.UTC().Format(time.RFC3339)
	}
	return dto
}

func reportDTO(rep usage.Report) map[string]any {
	entries := make([]map[string]any, 0, len(rep.Entries))
	for _, e := range rep.Entries {
		entries = append(entries, map[string]any{
			"id":        e.ID,
			"wordCount": e.WordCount,
			"createdAt": e.CreatedAt,
			"order":     e.Order,
		})
	}
	dto := map[string]any{
		"periodStart":    rep.PeriodStart,
		"periodEnd":      rep.PeriodEnd,
		"totalWordCount": rep.TotalWordCount,
		"recordingCount": rep.RecordingCount,
		"entries":        entries,
	}
	if rep.FirstRecordingCreatedAt != nil {
		dto["firstRecordingCreatedAt"] = rep.FirstRecordingCreatedAt
	}
	if rep.LastRecordingCreatedAt != nil {
		dto["lastRecordingCreatedAt"] = rep.LastRecordingCreatedAt
	}
	return dto
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
