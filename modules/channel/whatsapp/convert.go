package whatsapp

import (
	"strconv"
	"strings"
	"time"

	"github.com/hankhank10/loglink-server/pkg/event"
)

// convertInbound normalizes one Cloud API message into a relay event.
// A false second return means the message carries nothing the relay
// handles and should be dropped.
func convertInbound(msg *inboundMessage) (event.Inbound, bool) {
	ev := event.Inbound{
		ChatID:            msg.From,
		ProviderMessageID: msg.ID,
		Timestamp:         parseTimestamp(msg.Timestamp),
	}

	switch msg.Type {
	case "text":
		if msg.Text == nil || msg.Text.Body == "" {
			return event.Inbound{}, false
		}
		ev.Kind = event.KindText
		ev.Text = msg.Text.Body
	case "image", "video":
		attachment := msg.Image
		if msg.Type == "video" {
			attachment = msg.Video
		}
		if attachment == nil {
			return event.Inbound{}, false
		}
		ev.Kind = event.KindMedia
		ev.Media = &event.Media{
			FileRef:  attachment.ID,
			MIMEType: attachment.MIMEType,
			Caption:  attachment.Caption,
		}
	case "location":
		if msg.Location == nil {
			return event.Inbound{}, false
		}
		ev.Kind = event.KindLocation
		ev.Location = &event.Location{
			Latitude:  msg.Location.Latitude,
			Longitude: msg.Location.Longitude,
			Name:      msg.Location.Name,
			Address:   msg.Location.Address,
		}
	case "interactive":
		if msg.Interactive == nil || msg.Interactive.ButtonReply == nil {
			return event.Inbound{}, false
		}
		ev.Kind = event.KindChoice
		ev.ChoiceID = msg.Interactive.ButtonReply.ID
	case "audio", "document", "sticker", "contacts":
		ev.Kind = event.KindUnsupported
		ev.KindLabel = msg.Type
	default:
		return event.Inbound{}, false
	}

	return ev, true
}

func parseTimestamp(raw string) time.Time {
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0)
	}
	return time.Now()
}

// renderOutbound translates the relay's reply convention into WhatsApp
// text: `^` becomes a newline and template bold spans switch to
// WhatsApp's single-asterisk style, which they already use.
func renderOutbound(text string) string {
	return strings.ReplaceAll(text, "^", "\n")
}
