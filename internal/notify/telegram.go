// Package notify pushes operational alerts to the managers' Telegram chat.
// Alerts are strictly best effort and never block a booking write.
package notify

import (
	"fmt"

	"karenta/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the thin slice of the bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	bot    Sender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(bot Sender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		logger: logger,
	}
}

func (n *TelegramNotifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send manager alert")
	}
}

func (n *TelegramNotifier) NotifyBookingCreated(booking *models.Booking) {
	n.send(fmt.Sprintf(
		"New booking %s\n%s - %s\n%s to %s\nTotal: ₱%.2f",
		booking.BookingNumber,
		booking.CustomerName,
		booking.VehicleName,
		booking.PickupDate.Format("Jan 2"),
		booking.ReturnDate.Format("Jan 2"),
		float64(booking.Pricing.TotalPrice)/100,
	))
}

func (n *TelegramNotifier) NotifyBookingDeclined(booking *models.Booking, refunded bool) {
	action := "cancelled"
	if refunded {
		action = "refunded"
	}
	n.send(fmt.Sprintf(
		"Booking %s %s\nReason: %s\nCustomer: %s",
		booking.BookingNumber,
		action,
		booking.DeclineReason,
		booking.CustomerName,
	))
}

// Noop is used when Telegram alerts are disabled.
type Noop struct{}

func (Noop) NotifyBookingCreated(*models.Booking)        {}
func (Noop) NotifyBookingDeclined(*models.Booking, bool) {}
