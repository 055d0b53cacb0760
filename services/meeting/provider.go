package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"therapia/utils"

	"go.uber.org/zap"
)

// Provider creates video session links for confirmed bookings.
type Provider interface {
	// CreateMeetingLink returns a join URL for the booking's session. It must
	// always return a usable link: if the upstream provider is unreachable a
	// deterministic fallback link is returned instead of an error.
	CreateMeetingLink(ctx context.Context, bookingID string, start time.Time, durationMinutes int) string
}

// DefaultProvider calls an external meeting provider over HTTP and falls back
// to a locally derived link when the call fails.
type DefaultProvider struct {
	ProviderURL string
	FallbackURL string
	Client      *http.Client
}

func NewDefaultProvider(providerURL, fallbackURL string) *DefaultProvider {
	return &DefaultProvider{
		ProviderURL: providerURL,
		FallbackURL: fallbackURL,
		Client:      &http.Client{Timeout: 5 * time.Second},
	}
}

type createRoomRequest struct {
	RoomName        string `json:"roomName"`
	StartTime       string `json:"startTime"`
	DurationMinutes int    `json:"durationMinutes"`
}

type createRoomResponse struct {
	JoinURL string `json:"joinUrl"`
}

func (p *DefaultProvider) CreateMeetingLink(ctx context.Context, bookingID string, start time.Time, durationMinutes int) string {
	logger := utils.GetLogger()

	if p.ProviderURL == "" {
		return p.fallbackLink(bookingID)
	}

	body, err := json.Marshal(createRoomRequest{
		RoomName:        "session-" + bookingID,
		StartTime:       start.UTC().Format(time.RFC3339),
		DurationMinutes: durationMinutes,
	})
	if err != nil {
		logger.Error("meeting: marshal room request failed", zap.Error(err))
		return p.fallbackLink(bookingID)
	}

	url := strings.TrimRight(p.ProviderURL, "/") + "/rooms"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logger.Error("meeting: build room request failed", zap.Error(err))
		return p.fallbackLink(bookingID)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		logger.Warn("meeting: provider unreachable, using fallback link",
			zap.String("bookingID", bookingID), zap.Error(err))
		return p.fallbackLink(bookingID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		logger.Warn("meeting: provider rejected room request, using fallback link",
			zap.String("bookingID", bookingID), zap.Int("status", resp.StatusCode))
		return p.fallbackLink(bookingID)
	}

	var out createRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.JoinURL == "" {
		logger.Warn("meeting: provider returned unusable response, using fallback link",
			zap.String("bookingID", bookingID), zap.Error(err))
		return p.fallbackLink(bookingID)
	}
	return out.JoinURL
}

func (p *DefaultProvider) fallbackLink(bookingID string) string {
	return fmt.Sprintf("%s/session/%s", strings.TrimRight(p.FallbackURL, "/"), bookingID)
}
