package telegram

import (
	"strconv"
	"strings"
	"time"

	"github.com/hankhank10/loglink-server/pkg/event"
)

// convertInbound normalizes a Telegram update into an event for the
// relay inbox. A false second return means the update carries nothing
// the relay handles (edits, empty updates) and should be dropped.
func convertInbound(update *Update) (event.Inbound, bool) {
	if update.CallbackQuery != nil {
		return convertCallback(update.CallbackQuery)
	}

	// Edited messages are intentionally ignored: the original arrival
	// was already queued and the queue keeps arrival order.
	msg := update.Message
	if msg == nil {
		return event.Inbound{}, false
	}

	ev := event.Inbound{
		ChatID:            strconv.FormatInt(msg.Chat.ID, 10),
		ProviderMessageID: strconv.Itoa(msg.MessageID),
		Timestamp:         time.Unix(int64(msg.Date), 0),
	}

	switch {
	case len(msg.Photo) > 0:
		// Sizes arrive smallest first; take the largest rendition.
		largest := msg.Photo[len(msg.Photo)-1]
		ev.Kind = event.KindMedia
		ev.Media = &event.Media{
			FileRef: largest.FileID,
			Caption: msg.Caption,
		}
	case msg.Video != nil:
		ev.Kind = event.KindMedia
		ev.Media = &event.Media{
			FileRef:  msg.Video.FileID,
			MIMEType: msg.Video.MIMEType,
			Caption:  msg.Caption,
		}
	case msg.Location != nil && msg.Venue != nil:
		ev.Kind = event.KindLocation
		ev.Location = &event.Location{
			Latitude:  msg.Venue.Location.Latitude,
			Longitude: msg.Venue.Location.Longitude,
			Name:      msg.Venue.Title,
			Address:   msg.Venue.Address,
		}
	case msg.Location != nil:
		ev.Kind = event.KindLocation
		ev.Location = &event.Location{
			Latitude:  msg.Location.Latitude,
			Longitude: msg.Location.Longitude,
		}
	case msg.Audio != nil:
		ev.Kind = event.KindUnsupported
		ev.KindLabel = "audio"
	case msg.Voice != nil:
		ev.Kind = event.KindUnsupported
		ev.KindLabel = "voice"
	case msg.Document != nil:
		ev.Kind = event.KindUnsupported
		ev.KindLabel = "document"
	case msg.Sticker != nil:
		ev.Kind = event.KindUnsupported
		ev.KindLabel = "sticker"
	case msg.Contact != nil:
		ev.Kind = event.KindUnsupported
		ev.KindLabel = "contact"
	case msg.Text != "":
		ev.Kind = event.KindText
		ev.Text = msg.Text
	default:
		return event.Inbound{}, false
	}

	return ev, true
}

// convertCallback maps an inline keyboard press to a choice event.
func convertCallback(cb *CallbackQuery) (event.Inbound, bool) {
	if cb.Message == nil || cb.Data == "" {
		return event.Inbound{}, false
	}
	return event.Inbound{
		ChatID:            strconv.FormatInt(cb.Message.Chat.ID, 10),
		ProviderMessageID: strconv.Itoa(cb.Message.MessageID),
		Kind:              event.KindChoice,
		ChoiceID:          cb.Data,
		Timestamp:         time.Now(),
	}, true
}

// renderOutbound translates the relay's reply convention into Telegram
// text: the `^` marker becomes a real newline. MarkdownV2 escaping
// happens separately in formatMarkdownV2 so the plain-text fallback
// resend can reuse this form.
func renderOutbound(text string) string {
	return strings.ReplaceAll(text, "^", "\n")
}
