package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/models"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/service"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/session"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timmipay_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timmipay_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})

	transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timmipay_transfers_total",
		Help: "Transfer attempts by outcome",
	}, []string{"outcome"})
)

type transferEngine interface {
	Transfer(ctx context.Context, fromUserID uuid.UUID, toUsername string, amount decimal.Decimal, currencyCode string) (uuid.UUID, error)
}

type balanceReader interface {
	UserBalances(ctx context.Context, userID uuid.UUID) ([]models.Balance, error)
	TransferHistory(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]models.Transfer, error)
}

// Handler exposes the ledger over HTTP. Requests carry an opaque session
// token in the body; the verifier resolves it to a user before any ledger
// work happens.
type Handler struct {
	sessions  session.Verifier
	transfers transferEngine
	balances  balanceReader
}

func NewHandler(sessions session.Verifier, transfers transferEngine, balances balanceReader) *Handler {
	return &Handler{sessions: sessions, transfers: transfers, balances: balances}
}

type balanceRequest struct {
	SessionToken string `json:"session_token"`
}

type transferRequest struct {
	SessionToken string          `json:"session_token"`
	ToUsername   string          `json:"to_username"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

type historyRequest struct {
	SessionToken string `json:"session_token"`
	Page         int    `json:"page"`
	Limit        int    `json:"limit"`
}

type historyEntry struct {
	TransferID uuid.UUID             `json:"transfer_id"`
	Amount     decimal.Decimal       `json:"amount"`
	Status     models.TransferStatus `json:"status"`
	CreatedAt  time.Time             `json:"created_at"`
}

// Balance handles POST /api/v1/balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/api/v1/balance"))
	defer timer.ObserveDuration()

	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/api/v1/balance")
		return
	}

	userID, ok := h.verify(r.Context(), w, req.SessionToken, "/api/v1/balance")
	if !ok {
		return
	}

	balances, err := h.balances.UserBalances(r.Context(), userID)
	if err != nil {
		slog.Error("balance read failed", "user_id", userID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error", "POST", "/api/v1/balance")
		return
	}

	h.respondJSON(w, http.StatusOK, balances, "POST", "/api/v1/balance")
}

// Transfer handles POST /api/v1/transfer.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/api/v1/transfer"))
	defer timer.ObserveDuration()

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/api/v1/transfer")
		return
	}

	fromUserID, ok := h.verify(r.Context(), w, req.SessionToken, "/api/v1/transfer")
	if !ok {
		return
	}

	transferID, err := h.transfers.Transfer(r.Context(), fromUserID, req.ToUsername, req.Amount, req.Currency)
	if err != nil {
		transfersTotal.WithLabelValues("failed").Inc()
		code := transferStatusCode(err)
		msg := err.Error()
		if code == http.StatusInternalServerError {
			slog.Error("transfer failed", "user_id", fromUserID, "error", err)
			msg = "Internal server error"
		}
		h.respondError(w, code, msg, "POST", "/api/v1/transfer")
		return
	}

	transfersTotal.WithLabelValues("completed").Inc()
	h.respondJSON(w, http.StatusOK, map[string]uuid.UUID{"transfer_id": transferID}, "POST", "/api/v1/transfer")
}

// History handles POST /api/v1/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/api/v1/history"))
	defer timer.ObserveDuration()

	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/api/v1/history")
		return
	}

	userID, ok := h.verify(r.Context(), w, req.SessionToken, "/api/v1/history")
	if !ok {
		return
	}

	transfers, err := h.balances.TransferHistory(r.Context(), userID, req.Page, req.Limit)
	if err != nil {
		slog.Error("history read failed", "user_id", userID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error", "POST", "/api/v1/history")
		return
	}

	entries := make([]historyEntry, 0, len(transfers))
	for _, t := range transfers {
		entries = append(entries, historyEntry{
			TransferID: t.ID,
			Amount:     t.Amount,
			Status:     t.Status,
			CreatedAt:  t.CreatedAt,
		})
	}

	h.respondJSON(w, http.StatusOK, entries, "POST", "/api/v1/history")
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "GET", "/health")
}

func (h *Handler) verify(ctx context.Context, w http.ResponseWriter, token, endpoint string) (uuid.UUID, bool) {
	userID, err := h.sessions.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			h.respondError(w, http.StatusUnauthorized, "Invalid session token", "POST", endpoint)
		} else {
			slog.Error("session verification failed", "error", err)
			h.respondError(w, http.StatusInternalServerError, "Internal server error", "POST", endpoint)
		}
		return uuid.Nil, false
	}
	return userID, true
}

// transferStatusCode maps engine error kinds onto HTTP statuses: resolution
// misses are 404, rejected business rules 422, anything else is the
// storage layer's problem.
func transferStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrRecipientNotFound),
		errors.Is(err, service.ErrSenderAccountMissing),
		errors.Is(err, service.ErrRecipientAccountMissing):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCurrency),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	h.respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}
