// Package push sends web push notifications to subscribed staff
// browsers. The portal uses it for pinned notices; delivery is best
// effort and expired subscriptions are reported back for pruning.
package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/buttoners/staffroom/internal/model"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrExpired is returned when a push subscription is no longer valid.
// Push services signal this with 404 or 410.
var ErrExpired = errors.New("push subscription expired")

// Payload is the JSON handed to the service worker.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// NoticePayload builds the notification shown when a notice is pinned.
// The tag collapses repeated pins into one notification per notice.
func NoticePayload(notice *model.Notice) Payload {
	return Payload{
		Title: "Pinned notice",
		Body:  notice.Title,
		URL:   "/notices/" + strconv.FormatInt(notice.ID, 10),
		Tag:   "notice-" + strconv.FormatInt(notice.ID, 10),
	}
}

// Service sends VAPID-signed web push notifications.
type Service struct {
	publicKey  string
	privateKey string
	logger     *slog.Logger
}

func NewService(publicKey, privateKey string, logger *slog.Logger) *Service {
	return &Service{
		publicKey:  publicKey,
		privateKey: privateKey,
		logger:     logger,
	}
}

// VAPIDPublicKey returns the VAPID public key for client-side subscription.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Send sends a push notification to a single subscription.
func (s *Service) Send(sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotification(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      "mailto:noreply@staffroom.local",
		TTL:             86400,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}

// Fanout sends a payload to every subscription and returns the IDs of
// subscriptions the push service reported gone, so the caller can
// delete them. Other delivery failures are logged and skipped.
func (s *Service) Fanout(subs []model.PushSubscription, payload Payload) []int64 {
	var expired []int64
	for i := range subs {
		err := s.Send(&subs[i], payload)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrExpired) {
			expired = append(expired, subs[i].ID)
			continue
		}
		s.logger.Warn("send push", "endpoint", subs[i].Endpoint, "error", err)
	}
	return expired
}

// GenerateVAPIDKeys generates a new ECDSA P-256 key pair for VAPID.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.Bytes())

	return publicKey, privateKey, nil
}
