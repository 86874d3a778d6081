package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"reservas/internal/config"
	"reservas/internal/db"
	"reservas/internal/entities"
	apperr "reservas/internal/errors"
	"reservas/internal/lib/logger/sl"
)

// DisplayLayout renders reservation times for people, e.g. "17-10-2026, 20:00".
const DisplayLayout = "02-01-2006, 15:04"

//go:embed templates/reservation_email.html
var templatesFS embed.FS

var reservationEmailTmpl = template.Must(template.ParseFS(templatesFS, "templates/reservation_email.html"))

type SenderConfig struct {
	SiteName    string
	SiteAddress string
	SiteMapsURL string
	InternalTo  string
	Location    *time.Location
	Timeout     time.Duration
}

func SenderConfigFrom(cfg config.Config) SenderConfig {
	return SenderConfig{
		SiteName:    cfg.SiteName,
		SiteAddress: cfg.SiteAddress,
		SiteMapsURL: cfg.SiteMapsURL,
		InternalTo:  cfg.InternalRecipient(),
		Location:    cfg.Location,
		Timeout:     cfg.NotifyTimeout,
	}
}

// SenderService sends the notices for a new reservation. Every message goes
// out on its own goroutine and failures are only logged.
type SenderService struct {
	mailer Mailer
	sms    SMSSender
	cfg    SenderConfig
	log    *slog.Logger
	wg     sync.WaitGroup
}

// NewSenderService accepts nil transports; with none at all Notify only logs.
func NewSenderService(mailer Mailer, sms SMSSender, cfg SenderConfig, log *slog.Logger) *SenderService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SenderService{mailer: mailer, sms: sms, cfg: cfg, log: log}
}

// Enabled reports whether at least one transport is configured.
func (s *SenderService) Enabled() bool {
	return s.mailer != nil || s.sms != nil
}

func (s *SenderService) Notify(res db.Reservation) {
	log := s.log.With(slog.String("code", res.Code))
	if !s.Enabled() {
		log.Info("email transport not configured, skipping notifications")
		return
	}

	data := s.emailData(res)

	if s.mailer != nil {
		if s.cfg.InternalTo == "" {
			log.Warn("no business address configured, skipping internal notification")
		} else {
			internal := s.internalMessage(data)
			s.dispatch(log, "email", internal.To, func(ctx context.Context) error {
				return s.mailer.Send(ctx, internal)
			})
		}

		if res.Email != "" {
			client := s.clientMessage(log, data)
			s.dispatch(log, "email", client.To, func(ctx context.Context) error {
				return s.mailer.Send(ctx, client)
			})
		}
	}

	if s.sms != nil {
		body := s.smsBody(data)
		s.dispatch(log, "sms", res.Phone, func(ctx context.Context) error {
			return s.sms.SendSMS(ctx, res.Phone, body)
		})
	}
}

// Wait blocks until every dispatched send has finished.
func (s *SenderService) Wait() {
	s.wg.Wait()
}

func (s *SenderService) dispatch(log *slog.Logger, channel, to string, send func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic while sending notification",
					slog.String("channel", channel),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()

		if err := send(ctx); err != nil {
			nerr := &apperr.NotificationError{Channel: channel, To: to, Err: err}
			log.Error("failed to send notification", slog.String("channel", channel), sl.Err(nerr))
			return
		}
		log.Info("notification sent", slog.String("channel", channel), slog.String("to", to))
	}()
}

func (s *SenderService) emailData(res db.Reservation) entities.ReservationEmailData {
	return entities.ReservationEmailData{
		SiteName:          s.cfg.SiteName,
		ReservationCode:   res.Code,
		UserName:          res.Name,
		UserPhone:         res.Phone,
		UserEmail:         res.Email,
		People:            res.People,
		DateTimeFormatted: res.DateTime.In(s.cfg.Location).Format(DisplayLayout),
		Notes:             res.Notes,
		SiteAddress:       s.cfg.SiteAddress,
		SiteMapsURL:       s.cfg.SiteMapsURL,
	}
}

func (s *SenderService) internalMessage(data entities.ReservationEmailData) Message {
	return Message{
		To:      s.cfg.InternalTo,
		Subject: fmt.Sprintf("Nueva reserva (#%s) - %s", data.ReservationCode, data.SiteName),
		Text: fmt.Sprintf(
			"Nueva reserva recibida:\n\n"+
				"Código: %s\n"+
				"Nombre: %s\n"+
				"Teléfono: %s\n"+
				"Email: %s\n"+
				"Personas: %d\n"+
				"Fecha/Hora: %s\n"+
				"Comentarios: %s\n",
			data.ReservationCode, data.UserName, data.UserPhone, orDash(data.UserEmail),
			data.People, data.DateTimeFormatted, orDash(data.Notes),
		),
	}
}

func (s *SenderService) clientMessage(log *slog.Logger, data entities.ReservationEmailData) Message {
	var text strings.Builder
	fmt.Fprintf(&text,
		"Hola %s,\n\n"+
			"Hemos recibido tu solicitud de reserva en %s.\n"+
			"Detalles:\n"+
			"- Código: %s\n"+
			"- Personas: %d\n"+
			"- Fecha/Hora: %s\n"+
			"- Comentarios: %s\n\n"+
			"Pronto nos pondremos en contacto para confirmar.\n",
		data.UserName, data.SiteName, data.ReservationCode, data.People,
		data.DateTimeFormatted, orDash(data.Notes),
	)
	if data.SiteAddress != "" {
		fmt.Fprintf(&text, "\nUbicación:\n%s\n", data.SiteAddress)
		if data.SiteMapsURL != "" {
			fmt.Fprintf(&text, "Google Maps: %s\n", data.SiteMapsURL)
		}
	}
	text.WriteString("\n¡Gracias por preferirnos!")

	var html bytes.Buffer
	if err := reservationEmailTmpl.Execute(&html, data); err != nil {
		log.Error("failed to render reservation email template", sl.Err(err))
		html.Reset()
	}

	return Message{
		To:      data.UserEmail,
		ToName:  data.UserName,
		Subject: fmt.Sprintf("Reserva recibida (#%s) - %s", data.ReservationCode, data.SiteName),
		Text:    text.String(),
		HTML:    html.String(),
	}
}

func (s *SenderService) smsBody(data entities.ReservationEmailData) string {
	return fmt.Sprintf("%s: recibimos tu reserva %s para %d personas el %s. Te contactaremos para confirmar.",
		data.SiteName, data.ReservationCode, data.People, data.DateTimeFormatted)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
