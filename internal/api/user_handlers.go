package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"reservas/internal/entities"
	apperr "reservas/internal/errors"
	"reservas/internal/lib/logger/sl"
)

const (
	maxBodyBytes = 256 << 10

	msgInvalidRequest = "Solicitud inválida."
	msgInternalError  = "Error interno. Intenta más tarde."
	msgTooManyRequest = "Demasiadas solicitudes de reserva. Intenta de nuevo en unos minutos."
)

type ReservationSubmitter interface {
	Submit(ctx context.Context, req entities.ReservationRequest) (*entities.Confirmation, error)
}

type UserReservationHandler struct {
	Service ReservationSubmitter
	log     *slog.Logger
}

func NewUserReservationHandler(svc ReservationSubmitter, log *slog.Logger) *UserReservationHandler {
	return &UserReservationHandler{Service: svc, log: log}
}

func (h *UserReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var req entities.ReservationRequest
	// an empty body is treated like {} so the first field rule reports it
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Debug("invalid reservation payload", sl.Err(err))
		writeError(w, apperr.ErrBadRequest(msgInvalidRequest))
		return
	}

	conf, err := h.Service.Submit(r.Context(), req)
	if err != nil {
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			writeError(w, apperr.ErrBadRequest(ve.Reason))
			return
		}
		// logged by the service
		writeError(w, apperr.ErrInternal(msgInternalError))
		return
	}

	writeJSON(w, http.StatusOK, CreateReservationResponse{
		OK:      true,
		Message: conf.Message,
		Code:    conf.Code,
	})
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{OK: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err *apperr.HTTPError) {
	writeJSON(w, err.Code, ErrorResponse{OK: false, Error: err.Message})
}
