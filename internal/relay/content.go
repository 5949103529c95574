package relay

import (
	"context"
	"fmt"

	"github.com/hankhank10/loglink-server/internal/store"
	"github.com/hankhank10/loglink-server/pkg/event"
)

const mapsBaseURL = "https://maps.google.com/maps?q="

// composeLocation renders a shared location as a pin, a human-readable
// detail line, and a Google Maps link.
func composeLocation(loc event.Location) string {
	details := loc.Name

	if loc.Address != "" {
		if details != "" {
			details += ", "
		}
		details += loc.Address
	} else if details == "" {
		details = fmt.Sprintf("Lat: %v, Lon: %v", loc.Latitude, loc.Longitude)
	}

	return fmt.Sprintf("📍 %s %s%v,%v", details, mapsBaseURL, loc.Latitude, loc.Longitude)
}

// composeMedia fetches the attachment from the provider, pushes it to
// the image host under the user's key, and renders the queue payload.
// A false return means the sender should see the cannot-upload notice.
func (e *Engine) composeMedia(ctx context.Context, user *store.User, ev event.Inbound) (string, bool) {
	if e.uploader == nil {
		e.logger.Error("media received but no uploader is configured")
		return "", false
	}
	if e.cfg.requireUploadKey() && user.UploadKey == "" {
		e.logger.Info("media refused, user has no upload key", "user", user.ID)
		return "", false
	}

	body, name, err := e.dispatcher.FetchMedia(ctx, ev.Provider, ev.Media.FileRef)
	if err != nil {
		e.logger.Error("fetching media from provider failed",
			"provider", ev.Provider, "error", err)
		return "", false
	}
	defer body.Close()

	url, err := e.uploader.Upload(ctx, body, name, user.UploadKey)
	if err != nil {
		e.logger.Error("image upload failed", "user", user.ID, "error", err)
		return "", false
	}

	if caption := ev.Media.Caption; caption != "" {
		return fmt.Sprintf("%s ![%s](%s)", caption, caption, url), true
	}
	return url, true
}
