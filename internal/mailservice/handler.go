package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/exp/rand"

	"github.com/MishraShardendu22/blog-backend/internal/common"
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, otpExpiry time.Duration, logger *slog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:        mb,
		m:         NewMailer(host, port, username, password, sender, NewTemplate()),
		logger:    logger,
		otpExpiry: otpExpiry,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SendOTPEmail consumes OTP mail events from the broker and delivers the
// code by email. Deliveries are retried with exponential backoff and jitter;
// a message is acked either way since the user can always request a resend.
func (s *MailService) SendOTPEmail() {
	msgs, err := s.mb.Consume(common.OTPRequestedKey, common.UserExchange, common.OTPEmailQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var data struct {
					Email string
					Name  string
					Code  string
				}

				if err := json.Unmarshal(msg.Body, &data); err != nil {
					s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
					continue
				}

				payload := struct {
					Name          string
					Code          string
					ExpiryMinutes int
				}{
					Name:          data.Name,
					Code:          data.Code,
					ExpiryMinutes: int(s.otpExpiry.Minutes()),
				}

				const maxRetries = 5
				const baseDelay = 500 * time.Millisecond

				var attempt int
				for attempt = 0; attempt < maxRetries; attempt++ {
					err = s.m.send(data.Email, payload, "otp_email.html")
					if err == nil {
						s.logger.Info("otp email sent", slog.String("email", data.Email))
						msg.Ack(false)
						break
					}

					delay := time.Duration(rand.Int63n(int64(baseDelay) << uint(attempt)))
					s.logger.Info("delaying otp email", slog.String("email", data.Email), slog.Int("attempt", attempt), slog.Duration("delay", delay))
					time.Sleep(delay)
				}

				if attempt == maxRetries {
					s.logger.Error("could not send otp email", slog.String("email", data.Email))
					msg.Ack(false)
				}

			case <-s.ctx.Done():
				s.logger.Info("stopping SendOTPEmail due to context cancellation")
				return
			}
		}
	}()
}

func (s *MailService) Close() {
	s.cancel()
}
