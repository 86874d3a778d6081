package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"reservas/internal/lib/logger/sl"
	"reservas/internal/repository"
)

const digestTimeout = 2 * time.Minute

// JobService sends the business a daily digest of the day's reservations.
type JobService struct {
	Repo     repository.ReservationStore
	Clock    func() time.Time
	mailer   Mailer
	to       string
	siteName string
	loc      *time.Location
	log      *slog.Logger
}

func NewJobService(repo repository.ReservationStore, mailer Mailer, cfg SenderConfig, log *slog.Logger) *JobService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &JobService{
		Repo:     repo,
		Clock:    time.Now,
		mailer:   mailer,
		to:       cfg.InternalTo,
		siteName: cfg.SiteName,
		loc:      loc,
		log:      log,
	}
}

// SendDailyDigest mails the list of today's reservations. Nothing is sent
// when there are none or when no mail transport is configured.
func (s *JobService) SendDailyDigest(ctx context.Context) error {
	today := s.Clock().In(s.loc)
	log := s.log.With(slog.String("day", today.Format(time.DateOnly)))

	if s.mailer == nil || s.to == "" {
		log.Info("Cron Job: mail not configured, skipping daily digest")
		return nil
	}

	reservations, err := repository.ReservationsOn(ctx, s.Repo, today, s.loc)
	if err != nil {
		return fmt.Errorf("cron job: failed to load reservations: %w", err)
	}
	if len(reservations) == 0 {
		log.Info("Cron Job: no reservations today, digest not sent")
		return nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Reservas para hoy (%s):\n\n", today.Format("02-01-2006"))
	total := 0
	for _, res := range reservations {
		total += res.People
		fmt.Fprintf(&body, "%s  #%s  %s (%d pers.)  Tel: %s",
			res.DateTime.In(s.loc).Format("15:04"), res.Code, res.Name, res.People, res.Phone)
		if res.Notes != "" {
			fmt.Fprintf(&body, "  Nota: %s", res.Notes)
		}
		body.WriteString("\n")
	}
	fmt.Fprintf(&body, "\nTotal: %d reservas, %d personas.\n", len(reservations), total)

	msg := Message{
		To:      s.to,
		Subject: fmt.Sprintf("Reservas del día %s - %s", today.Format("02-01-2006"), s.siteName),
		Text:    body.String(),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("cron job: failed to send daily digest: %w", err)
	}
	log.Info("Cron Job: daily digest sent", slog.Int("reservations", len(reservations)))
	return nil
}

// Schedule starts a cron runner in the service location that sends the digest
// on spec. Callers stop it with Stop().
func (s *JobService) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(s.loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
		defer cancel()
		if err := s.SendDailyDigest(ctx); err != nil {
			s.log.Error("daily digest failed", sl.Err(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid DIGEST_CRON %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
