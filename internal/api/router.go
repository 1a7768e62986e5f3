package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pixelforge/coinledger/internal/services/ledger"
)

// NewRouter constructs the HTTP handler with all ledger endpoints registered.
func NewRouter(svc *ledger.Service) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/player/{playerID}/balance/{kind}", h.GetBalanceHandler)
	r.Get("/player/{playerID}/balance/{kind}/has", h.HasAtLeastHandler)
	r.Post("/player/{playerID}/balance/{kind}/add", h.ChangeBalanceHandler(false))
	r.Post("/player/{playerID}/balance/{kind}/remove", h.ChangeBalanceHandler(true))
	r.Get("/player/{playerID}/rank/{kind}", h.RankHandler)
	r.Post("/player/{playerID}/session/start", h.SessionStartHandler)
	r.Post("/player/{playerID}/session/end", h.SessionEndHandler)

	r.Post("/transfer", h.TransferHandler)
	r.Get("/leaderboard/{kind}", h.TopHandler)
	r.Post("/flush", h.FlushHandler)

	return r
}
