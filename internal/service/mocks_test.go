package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"

	"reservas/internal/db"
)

func newTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Append(ctx context.Context, res db.Reservation) error {
	return m.Called(ctx, res).Error(0)
}

func (m *mockStore) ListAll(ctx context.Context) ([]db.Reservation, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]db.Reservation)
	return list, args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mockSMSSender struct {
	mock.Mock
}

func (m *mockSMSSender) SendSMS(ctx context.Context, to, body string) error {
	return m.Called(ctx, to, body).Error(0)
}

type panickingNotifier struct {
	done chan struct{}
}

func (n *panickingNotifier) Notify(db.Reservation) {
	defer close(n.done)
	panic("smtp client exploded")
}

type recordingNotifier struct {
	calls chan db.Reservation
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{calls: make(chan db.Reservation, 16)}
}

func (n *recordingNotifier) Notify(res db.Reservation) {
	n.calls <- res
}
