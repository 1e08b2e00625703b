package httptransport

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"poker-ledger/internal/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// currentAlias lets callers address the active session without knowing its id.
const currentAlias = "current"

type SessionHandlers struct {
	svc *ledger.Service
}

func NewSessionHandlers(svc *ledger.Service) *SessionHandlers {
	return &SessionHandlers{svc: svc}
}

func (h *SessionHandlers) Current() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.svc.CurrentSession(r.Context())
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session_id": id})
	}
}

func (h *SessionHandlers) Open() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RequesterID int64  `json:"requester_id"`
			DisplayName string `json:"display_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		metricAPIOpenTotal.Add(1)
		id, err := h.svc.OpenSession(r.Context(), body.RequesterID, body.DisplayName)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "session_id": id})
	}
}

func (h *SessionHandlers) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := h.resolveSession(r)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		players, err := h.svc.SessionSummary(r.Context(), sessionID)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": sessionID,
			"players":    players,
			"totals":     ledger.SessionTotals(players),
		})
	}
}

func (h *SessionHandlers) Player() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := strconv.ParseInt(chi.URLParam(r, "player_id"), 10, 64)
		if err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_player_id")
			return
		}
		sessionID, err := h.resolveSession(r)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		totals, ok, err := h.svc.PlayerStatus(r.Context(), sessionID, playerID)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		if !ok {
			WriteHTTPError(w, http.StatusNotFound, "player_not_found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": sessionID,
			"player_id":  playerID,
			"total_in":   totals.TotalIn,
			"total_out":  totals.TotalOut,
			"net":        totals.Net,
		})
	}
}

func (h *SessionHandlers) Record() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Kind        string `json:"kind"`
			PlayerID    int64  `json:"player_id"`
			DisplayName string `json:"display_name"`
			Amount      int64  `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.PlayerID == 0 {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_player_id")
			return
		}
		sessionID, err := h.resolveSession(r)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		metricAPIRecordTotal.Add(1)

		kind, _ := ledger.ParseKind(body.Kind)
		resp := map[string]any{"ok": true, "session_id": sessionID}
		switch kind {
		case ledger.KindBuyIn:
			err = h.svc.RecordBuyIn(r.Context(), sessionID, body.PlayerID, body.DisplayName, body.Amount)
		case ledger.KindAddChip:
			err = h.svc.RecordAddChip(r.Context(), sessionID, body.PlayerID, body.DisplayName, body.Amount)
		case ledger.KindCashOut:
			var totals ledger.Totals
			totals, err = h.svc.RecordCashOut(r.Context(), sessionID, body.PlayerID, body.DisplayName, body.Amount)
			if errors.Is(err, ledger.ErrTotalsUnavailable) {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("cash-out stored without totals")
				resp["totals_unavailable"] = true
				err = nil
			} else {
				resp["totals"] = totals
			}
		default:
			metricAPIRecordErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_kind")
			return
		}
		if err != nil {
			metricAPIRecordErrors.Add(1)
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (h *SessionHandlers) Export() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := h.resolveSession(r)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		txs, err := h.svc.ExportSession(r.Context(), sessionID)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		var buf bytes.Buffer
		if err := ledger.WriteCSV(&buf, txs); err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("export csv failed")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		metricAPIExportTotal.Add(1)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+ledger.ExportFilename(sessionID)+`"`)
		_, _ = w.Write(buf.Bytes())
	}
}

func (h *SessionHandlers) resolveSession(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "session_id"))
	if id == currentAlias {
		return h.svc.CurrentSession(r.Context())
	}
	return id, nil
}

func writeLedgerError(w http.ResponseWriter, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_"+verr.Field)
	case errors.Is(err, ledger.ErrNoActiveSession):
		WriteHTTPError(w, http.StatusNotFound, "no_active_session")
	case errors.Is(err, ledger.ErrUnauthorized):
		WriteHTTPError(w, http.StatusForbidden, "unauthorized")
	case errors.Is(err, ledger.ErrStorage):
		log.Error().Err(err).Msg("ledger storage failure")
		WriteHTTPError(w, http.StatusServiceUnavailable, "storage_unavailable")
	default:
		log.Error().Err(err).Msg("ledger request failed")
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
