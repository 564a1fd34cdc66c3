package worker_service

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/Lea43010/baustructura-chat/config"
	"github.com/Lea43010/baustructura-chat/internal/utils/types"
)

// SendSupportNotification mails the fixed operator address about a new
// message in the support room. Delivery failures surface as errors so the
// queue can retry; the chat message itself is already committed.
func SendSupportNotification(payload types.SupportEmailPayload) error {
	host := config.Conf.MAIL.SMTPHost
	port := config.Conf.MAIL.SMTPPort
	username := config.Conf.MAIL.Username
	password := config.Conf.MAIL.Password
	from := config.Conf.MAIL.From
	to := config.Conf.MAIL.SupportTo

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("New support message from user %s", payload.SenderID))
	m.SetBody("text/plain", fmt.Sprintf(
		"User %s wrote in the support room at %s:\n\n%s\n\n(message #%d, room %s)",
		payload.SenderID,
		payload.SentAt.Format("2006-01-02 15:04:05"),
		payload.Preview,
		payload.MessageID,
		payload.RoomID,
	))

	d := gomail.NewDialer(host, port, username, password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send support notification email: %w", err)
	}

	return nil
}
