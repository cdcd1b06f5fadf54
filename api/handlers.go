/*
handlers.go - HTTP handlers for the snapshot view

PURPOSE:
  Serves the final state of a completed replay. The snapshot is immutable:
  there are no write endpoints, and nothing here can reach the ledger.Store
  that produced it.

ENDPOINTS:
  GET /api/run                 Run summary
  GET /api/clients             All accounts
  GET /api/clients/{id}        One account
  GET /api/diagnostics         Diagnostics, ?category=malformed|rejected

SEE ALSO:
  - server.go: Route wiring
  - dto.go: Response shapes
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warp/ledger-replay/ledger"
	"github.com/warp/ledger-replay/replay"
)

// Snapshot is everything a finished run produced.
type Snapshot struct {
	Input       string
	Result      replay.Result
	Accounts    []ledger.Account
	Diagnostics []replay.Diagnostic
}

// Handler serves a single Snapshot.
type Handler struct {
	snap  Snapshot
	index map[ledger.ClientID]int
}

func NewHandler(snap Snapshot) *Handler {
	index := make(map[ledger.ClientID]int, len(snap.Accounts))
	for i, a := range snap.Accounts {
		index[a.Client] = i
	}
	return &Handler{snap: snap, index: index}
}

// GetRun returns the run summary.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toRunDTO(h.snap.Input, h.snap.Result))
}

// ListAccounts returns every account.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	dtos := make([]AccountDTO, 0, len(h.snap.Accounts))
	for _, a := range h.snap.Accounts {
		dtos = append(dtos, toAccountDTO(a))
	}
	writeJSON(w, http.StatusOK, AccountsResponse{Accounts: dtos, Count: len(dtos)})
}

// GetAccount returns a single account by client id.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id", err)
		return
	}

	i, ok := h.index[ledger.ClientID(id)]
	if !ok {
		writeError(w, http.StatusNotFound, "client not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(h.snap.Accounts[i]))
}

// ListDiagnostics returns diagnostics, optionally filtered by category.
func (h *Handler) ListDiagnostics(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && category != replay.CategoryMalformed && category != replay.CategoryRejected {
		writeError(w, http.StatusBadRequest, "invalid category", nil)
		return
	}

	dtos := []DiagnosticDTO{}
	for _, d := range h.snap.Diagnostics {
		if category != "" && d.Category() != category {
			continue
		}
		dtos = append(dtos, toDiagnosticDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
