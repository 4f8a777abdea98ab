package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrSubscriptionGone marks a permanent delivery failure: the endpoint no
// longer exists and the subscription should be pruned.
var ErrSubscriptionGone = errors.New("subscription expired or invalid")

// Sender delivers one payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub Subscription, payload []byte) error
}

// WebPushSender sends VAPID-signed Web Push messages.
// Nil-safe: NewWebPushSender returns nil when keys are not configured, and a
// nil sender means dispatch is paused.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subject    string
}

// NewWebPushSender creates a sender from a VAPID key pair. Returns nil if
// either key is empty (dispatch disabled).
func NewWebPushSender(publicKey, privateKey, subject string) *WebPushSender {
	if publicKey == "" || privateKey == "" {
		return nil
	}
	return &WebPushSender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
	}
}

// Send delivers a payload to a single endpoint. 404/410 responses map to
// ErrSubscriptionGone so the caller can prune.
func (s *WebPushSender) Send(ctx context.Context, sub Subscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             3600,
	})
	if err != nil {
		return fmt.Errorf("webpush send: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}
