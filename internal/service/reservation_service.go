package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"reservas/internal/db"
	"reservas/internal/entities"
	apperr "reservas/internal/errors"
	"reservas/internal/lib/logger/sl"
	"reservas/internal/repository"
)

const (
	ConfirmationMessage = "Reserva recibida. Te contactaremos para confirmar."

	minPeople = 1
	maxPeople = 20
)

// Field names carried by validation errors.
const (
	FieldName     = "name"
	FieldPhone    = "phone"
	FieldPeople   = "people"
	FieldDate     = "date"
	FieldDateTime = "datetime"
	FieldDay      = "day"
	FieldTime     = "time"
	FieldEmail    = "email"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Notifier is triggered once per accepted reservation. Notify is called
// synchronously and must hand slow work off before returning.
type Notifier interface {
	Notify(res db.Reservation)
}

type ReservationService struct {
	Repo     repository.ReservationStore
	Hours    BusinessHours
	Clock    func() time.Time
	notifier Notifier
	codes    CodeGenerator
	log      *slog.Logger
}

func NewReservationService(repo repository.ReservationStore, notifier Notifier, codes CodeGenerator, hours BusinessHours, log *slog.Logger) *ReservationService {
	return &ReservationService{
		Repo:     repo,
		Hours:    hours,
		Clock:    time.Now,
		notifier: notifier,
		codes:    codes,
		log:      log,
	}
}

// Submit validates req, stores the reservation and starts the notifications
// without waiting for them. It returns *errors.ValidationError for bad input
// and *errors.StorageError when the store fails.
func (s *ReservationService) Submit(ctx context.Context, req entities.ReservationRequest) (*entities.Confirmation, error) {
	now := s.Clock()

	reservation, err := s.validate(req, now)
	if err != nil {
		return nil, err
	}

	code, err := s.codes.NextCode()
	if err != nil {
		s.log.Error("error generating reservation code", sl.Err(err))
		return nil, err
	}
	reservation.ID = s.codes.NextID()
	reservation.Code = code
	reservation.CreatedAt = now.UTC().Truncate(time.Millisecond)
	reservation.Status = db.StatusPending

	if err := s.Repo.Append(ctx, reservation); err != nil {
		s.log.Error("error saving reservation", slog.String("code", code), sl.Err(err))
		return nil, fmt.Errorf("save reservation %s: %w", code, err)
	}
	s.log.Info("reservation created",
		slog.String("code", code),
		slog.Int("people", reservation.People),
		slog.Time("datetime", reservation.DateTime),
	)

	s.notify(reservation)

	return &entities.Confirmation{Code: code, Message: ConfirmationMessage}, nil
}

func (s *ReservationService) notify(res db.Reservation) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in notifier",
				slog.String("code", res.Code),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	s.notifier.Notify(res)
}

// validate applies the rules in a fixed order and stops at the first failure.
func (s *ReservationService) validate(req entities.ReservationRequest, now time.Time) (db.Reservation, error) {
	name, ok := req.Name.(string)
	if !ok || utf8.RuneCountInString(strings.TrimSpace(name)) < 2 {
		return db.Reservation{}, apperr.NewValidationError(FieldName, "Nombre inválido.")
	}

	phone, ok := req.Phone.(string)
	if !ok || utf8.RuneCountInString(strings.TrimSpace(phone)) < 6 {
		return db.Reservation{}, apperr.NewValidationError(FieldPhone, "Teléfono inválido.")
	}

	people, ok := coercePeople(req.People)
	if !ok {
		return db.Reservation{}, apperr.NewValidationError(FieldPeople, "Número de personas inválido (1-20).")
	}

	date, okDate := req.Date.(string)
	clock, okTime := req.Time.(string)
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if !okDate || !okTime || date == "" || clock == "" {
		return db.Reservation{}, apperr.NewValidationError(FieldDate, "Fecha y hora son requeridas.")
	}
	when, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, s.Hours.location())
	if err != nil {
		return db.Reservation{}, apperr.NewValidationError(FieldDate, "Fecha u hora inválida.")
	}

	if !IsFuture(when, now) {
		return db.Reservation{}, apperr.NewValidationError(FieldDateTime, "La fecha/hora debe ser futura.")
	}
	if !s.Hours.IsOpenDay(when) {
		return db.Reservation{}, apperr.NewValidationError(FieldDay, "Ese día no atendemos.")
	}
	if !s.Hours.TimeInRange(when) {
		return db.Reservation{}, apperr.NewValidationError(FieldTime,
			fmt.Sprintf("Horario fuera de rango (%s-%s).", s.Hours.OpenTime, s.Hours.CloseTime))
	}

	var email string
	switch v := req.Email.(type) {
	case nil:
	case string:
		email = strings.TrimSpace(v)
		if email != "" && !emailPattern.MatchString(email) {
			return db.Reservation{}, apperr.NewValidationError(FieldEmail, "Email inválido.")
		}
	default:
		return db.Reservation{}, apperr.NewValidationError(FieldEmail, "Email inválido.")
	}

	return db.Reservation{
		Name:     strings.TrimSpace(name),
		Phone:    strings.TrimSpace(phone),
		Email:    email,
		People:   people,
		DateTime: when.UTC(),
		Notes:    notesText(req.Notes),
	}, nil
}

// coercePeople accepts JSON numbers and numeric strings holding a whole
// number between minPeople and maxPeople.
func coercePeople(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < minPeople || f > maxPeople {
		return 0, false
	}
	return int(f), true
}

func notesText(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(n)
	default:
		return strings.TrimSpace(fmt.Sprint(n))
	}
}
