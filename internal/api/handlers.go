package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/repos/players"
	"github.com/pixelforge/coinledger/internal/services/ledger"
)

// HandlerProvider wraps the ledger service and exposes HTTP handlers.
type HandlerProvider struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *HandlerProvider {
	return &HandlerProvider{svc: svc}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps ledger errors onto status codes: bad input is 400,
// unknown players 404, business rejections 409, everything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSelfTransfer),
		errors.Is(err, ledger.ErrInvalidPlayer),
		errors.Is(err, players.ErrInvalidKind):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, players.ErrPlayerNotFound),
		errors.Is(err, players.ErrNotRanked):
		writeError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, players.ErrInsufficientFunds),
		errors.Is(err, players.ErrCeilingExceeded),
		errors.Is(err, ledger.ErrTransfersDisabled):
		writeError(w, http.StatusConflict, err.Error())

	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parsePlayerID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "playerID")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing playerID")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid playerID: %w", err)
	}

	return id, nil
}

func parseKindParam(r *http.Request) (players.Kind, error) {
	return players.ParseKind(chi.URLParam(r, "kind"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}

		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

type amountRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type transferRequest struct {
	FromID uuid.UUID `json:"fromId"`
	ToID   uuid.UUID `json:"toId"`
	Amount int64     `json:"amount"`
	Reason string    `json:"reason"`
}

type sessionStartRequest struct {
	DisplayName string `json:"displayName"`
}

// --- Handlers ---

// GetBalanceHandler handles GET /player/{playerID}/balance/{kind}
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerID in path")
		return
	}

	kind, err := parseKindParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid kind in path")
		return
	}

	balance, err := h.svc.Balance(r.Context(), id, kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playerId": id,
		"kind":     kind,
		"balance":  balance,
	})
}

// HasAtLeastHandler handles GET /player/{playerID}/balance/{kind}/has?amount=N
func (h *HandlerProvider) HasAtLeastHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerID in path")
		return
	}

	kind, err := parseKindParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid kind in path")
		return
	}

	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil || amount <= 0 {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	ok, err := h.svc.HasAtLeast(r.Context(), id, kind, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playerId":   id,
		"kind":       kind,
		"amount":     amount,
		"hasAtLeast": ok,
	})
}

// ChangeBalanceHandler handles POST /player/{playerID}/balance/{kind}/add
// and .../remove. The delta is clamped into [0, max]; a clamped-to-zero
// change still returns 200 with the unchanged balance.
func (h *HandlerProvider) ChangeBalanceHandler(remove bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parsePlayerID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid playerID in path")
			return
		}

		kind, err := parseKindParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid kind in path")
			return
		}

		var req amountRequest

		err = decodeBody(w, r, &req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var balance int64
		if remove {
			balance, err = h.svc.RemoveBalance(r.Context(), id, kind, req.Amount, req.Reason)
		} else {
			balance, err = h.svc.AddBalance(r.Context(), id, kind, req.Amount, req.Reason)
		}

		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"playerId": id,
			"kind":     kind,
			"balance":  balance,
		})
	}
}

// TransferHandler handles POST /transfer
func (h *HandlerProvider) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req transferRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Transfer(r.Context(), req.FromID, req.ToID, req.Amount, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// TopHandler handles GET /leaderboard/{kind}?limit=N
func (h *HandlerProvider) TopHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKindParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid kind in path")
		return
	}

	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	top, err := h.svc.Top(r.Context(), kind, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"kind":    kind,
		"entries": top,
	})
}

// RankHandler handles GET /player/{playerID}/rank/{kind}
func (h *HandlerProvider) RankHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerID in path")
		return
	}

	kind, err := parseKindParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid kind in path")
		return
	}

	rank, err := h.svc.Rank(r.Context(), id, kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playerId": id,
		"kind":     kind,
		"rank":     rank,
	})
}

// SessionStartHandler handles POST /player/{playerID}/session/start
func (h *HandlerProvider) SessionStartHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerID in path")
		return
	}

	var req sessionStartRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.svc.OnSessionStart(r.Context(), id, req.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SessionEndHandler handles POST /player/{playerID}/session/end
func (h *HandlerProvider) SessionEndHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerID in path")
		return
	}

	err = h.svc.OnSessionEnd(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// FlushHandler handles POST /flush
func (h *HandlerProvider) FlushHandler(w http.ResponseWriter, r *http.Request) {
	err := h.svc.FlushAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
