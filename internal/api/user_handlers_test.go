package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reservas/internal/entities"
	apperr "reservas/internal/errors"
	"reservas/internal/repository"
	"reservas/internal/service"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, req entities.ReservationRequest) (*entities.Confirmation, error) {
	args := m.Called(ctx, req)
	conf, _ := args.Get(0).(*entities.Confirmation)
	return conf, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postReservation(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/reservations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestCreateReservation_Success(t *testing.T) {
	svc := new(mockSubmitter)
	svc.On("Submit", mock.Anything, mock.MatchedBy(func(req entities.ReservationRequest) bool {
		return req.Name == "Ana" && req.People == json.Number("4")
	})).Return(&entities.Confirmation{Code: "K7M2P9QX", Message: service.ConfirmationMessage}, nil).Once()

	h := NewUserReservationHandler(svc, discardLogger())
	rec, out := postReservation(t, http.HandlerFunc(h.CreateReservation),
		`{"name":"Ana","phone":"+56911112222","people":4,"date":"2026-10-23","time":"20:00"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"ok": true, "message": service.ConfirmationMessage, "code": "K7M2P9QX"}, out)
	svc.AssertExpectations(t)
}

func TestCreateReservation_ValidationError(t *testing.T) {
	svc := new(mockSubmitter)
	svc.On("Submit", mock.Anything, mock.Anything).
		Return(nil, apperr.NewValidationError("phone", "Teléfono inválido.")).Once()

	h := NewUserReservationHandler(svc, discardLogger())
	rec, out := postReservation(t, http.HandlerFunc(h.CreateReservation), `{"name":"Ana","phone":"123"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"ok": false, "error": "Teléfono inválido."}, out)
}

func TestCreateReservation_InternalErrorIsGeneric(t *testing.T) {
	svc := new(mockSubmitter)
	storageErr := apperr.NewStorageError("append", errors.New("open /data/reservations.json: permission denied"))
	svc.On("Submit", mock.Anything, mock.Anything).Return(nil, storageErr).Once()

	h := NewUserReservationHandler(svc, discardLogger())
	rec, out := postReservation(t, http.HandlerFunc(h.CreateReservation), `{"name":"Ana"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"ok": false, "error": "Error interno. Intenta más tarde."}, out)
	assert.NotContains(t, rec.Body.String(), "permission denied")
}

func TestCreateReservation_InternalErrorNotLoggedTwice(t *testing.T) {
	svc := new(mockSubmitter)
	svc.On("Submit", mock.Anything, mock.Anything).
		Return(nil, apperr.NewStorageError("append", errors.New("disk full"))).Once()

	var logs bytes.Buffer
	h := NewUserReservationHandler(svc, slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	rec, _ := postReservation(t, http.HandlerFunc(h.CreateReservation), `{"name":"Ana"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, logs.String(), "level=ERROR", "the service already logs storage failures")
}

func TestCreateReservation_MalformedJSON(t *testing.T) {
	svc := new(mockSubmitter)
	h := NewUserReservationHandler(svc, discardLogger())

	rec, out := postReservation(t, http.HandlerFunc(h.CreateReservation), `{"name":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, out["ok"])
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestCreateReservation_EmptyBodyIsValidated(t *testing.T) {
	svc := new(mockSubmitter)
	svc.On("Submit", mock.Anything, entities.ReservationRequest{}).
		Return(nil, apperr.NewValidationError("name", "Nombre inválido.")).Once()

	h := NewUserReservationHandler(svc, discardLogger())
	rec, out := postReservation(t, http.HandlerFunc(h.CreateReservation), ``)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Nombre inválido.", out["error"])
	svc.AssertExpectations(t)
}

func TestCreateReservation_BodyTooLarge(t *testing.T) {
	svc := new(mockSubmitter)
	h := NewUserReservationHandler(svc, discardLogger())

	body := `{"name":"Ana","notes":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	rec, _ := postReservation(t, http.HandlerFunc(h.CreateReservation), body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestCreateReservation_WithFileStore(t *testing.T) {
	store, err := repository.NewFileReservationRepository(filepath.Join(t.TempDir(), "reservations.json"))
	require.NoError(t, err)

	hours := service.BusinessHours{
		OpenDays: map[time.Weekday]bool{
			time.Sunday: true, time.Monday: true, time.Tuesday: true, time.Wednesday: true,
			time.Thursday: true, time.Friday: true, time.Saturday: true,
		},
		OpenTime:  "12:00",
		CloseTime: "22:00",
		Location:  time.UTC,
	}
	svc := service.NewReservationService(store, nil, service.NewRandomCodeGenerator(), hours, discardLogger())
	h := http.HandlerFunc(NewUserReservationHandler(svc, discardLogger()).CreateReservation)

	date := time.Now().UTC().AddDate(0, 0, 7).Format(time.DateOnly)

	rec, out := postReservation(t, h, `{"name":"A","phone":"+56911112222","people":2,"date":"`+date+`","time":"13:00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Nombre inválido.", out["error"])

	rec, out = postReservation(t, h, `{"name":"Ana","phone":"+56911112222","people":"2","date":"`+date+`","time":"13:00"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Regexp(t, `^[1-9A-HJ-NP-Z]{8}$`, out["code"])

	list, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, out["code"], list[0].Code)
	assert.Equal(t, 2, list[0].People)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}
