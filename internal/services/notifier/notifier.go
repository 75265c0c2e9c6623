// Package notifier обрабатывает события журнала оплат из брокера и
// уведомляет администраторов о новых заявках по почте.
package notifier

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/models"
)

// Mailer отправляет письмо.
type Mailer interface {
	Send(to []string, subject, body string) error
}

// Notifier — обработчик сообщений очереди уведомлений.
type Notifier struct {
	mailer Mailer
	admins []string
	log    *slog.Logger
}

func New(mailer Mailer, admins []string, log *slog.Logger) *Notifier {
	return &Notifier{
		mailer: mailer,
		admins: admins,
		log:    log,
	}
}

// HandleMessage обрабатывает тело сообщения. Ошибка означает, что сообщение
// нужно вернуть в очередь; повреждённые сообщения логируются и отбрасываются.
func (n *Notifier) HandleMessage(body []byte) error {
	const op = "notifier.HandleMessage"
	log := n.log.With(slog.String("op", op))

	var event models.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("dropping malformed payment event", sl.Err(err))
		return nil
	}
	log = log.With(slog.String("type", event.Type), slog.Int64("payment_id", event.PaymentID))

	switch event.Type {
	case models.EventPaymentSubmitted:
		if len(n.admins) == 0 {
			log.Warn("no admin recipients configured")
			return nil
		}
		if err := n.mailer.Send(n.admins, submittedSubject(event), submittedBody(event)); err != nil {
			log.Error("failed to notify admins", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("admins notified about payment request")
	case models.EventPaymentApproved:
		attrs := []any{}
		if event.UserID != nil {
			attrs = append(attrs, slog.String("user_id", *event.UserID))
		}
		if event.EndDate != nil {
			attrs = append(attrs, slog.Time("end_date", *event.EndDate))
		}
		log.Info("payment approved", attrs...)
	default:
		log.Warn("unknown payment event type")
	}
	return nil
}

func submittedSubject(e models.PaymentEvent) string {
	return fmt.Sprintf("Payment request #%d: %s", e.PaymentID, e.PlanName)
}

func submittedBody(e models.PaymentEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A new bank transfer claim is waiting for approval.\n\n")
	fmt.Fprintf(&b, "Payment: #%d\n", e.PaymentID)
	fmt.Fprintf(&b, "Plan: %s\n", e.PlanName)
	fmt.Fprintf(&b, "Amount: %d\n", e.Amount)
	fmt.Fprintf(&b, "Sender: %s\n", e.SenderName)
	if e.ClubName != nil {
		fmt.Fprintf(&b, "Club: %s\n", *e.ClubName)
	}
	if e.UserID != nil {
		fmt.Fprintf(&b, "User: %s\n", *e.UserID)
	} else {
		fmt.Fprintf(&b, "User: anonymous\n")
	}
	fmt.Fprintf(&b, "Submitted: %s\n", e.OccurredAt.Format("2006-01-02 15:04 MST"))
	return b.String()
}
