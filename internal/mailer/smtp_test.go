package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func testSender(deliver func(ctx context.Context, msg *mail.Msg) error) *SMTPSender {
	return &SMTPSender{
		from: "Auth <no-reply@example.com>",
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewConstant(time.Millisecond))
		},
		deliver: deliver,
	}
}

func TestNewSMTPSender_RequiresHost(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{Port: 25, From: "a@x.com"})
	assert.Error(t, err)
}

func TestSMTPSender_RetriesTransientFailures(t *testing.T) {
	calls := 0
	s := testSender(func(context.Context, *mail.Msg) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, s.Send(context.Background(), Message{To: "a@x.com", Subject: "s", HTML: "<p>x</p>"}))
	assert.Equal(t, 3, calls)
}

func TestSMTPSender_GivesUpAfterThreeRetries(t *testing.T) {
	calls := 0
	down := errors.New("dial tcp: connection refused")
	s := testSender(func(context.Context, *mail.Msg) error {
		calls++
		return down
	})

	err := s.Send(context.Background(), Message{To: "a@x.com"})
	assert.ErrorIs(t, err, down)
	assert.Equal(t, 4, calls)
}

func TestSMTPSender_PermanentFailureNotRetried(t *testing.T) {
	calls := 0
	s := testSender(func(context.Context, *mail.Msg) error {
		calls++
		return &mail.SendError{Reason: mail.ErrSMTPRcptTo}
	})

	err := s.Send(context.Background(), Message{To: "a@x.com"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSMTPSender_InvalidRecipient(t *testing.T) {
	s := testSender(func(context.Context, *mail.Msg) error {
		t.Fatal("should not deliver")
		return nil
	})

	err := s.Send(context.Background(), Message{To: "not an address"})
	assert.ErrorContains(t, err, "invalid recipient")
}
