package services

import (
	"context"
	"fmt"

	"medcamp-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

type pusher interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// APNsNotifier delivers notices as iOS push notifications to users that
// registered a device token.
type APNsNotifier struct {
	client   pusher
	profiles ProfileStore
	topic    string
}

// NewAPNsNotifier loads the push certificate and creates the APNs client.
func NewAPNsNotifier(profiles ProfileStore, certFile, certPassword, topic string, production bool) (*APNsNotifier, error) {
	cert, err := certificate.FromP12File(certFile, certPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}

	client := apns2.NewClient(cert)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsNotifier{
		client:   client,
		profiles: profiles,
		topic:    topic,
	}, nil
}

// Notify pushes the notice to the user's device. Broadcasts and users without
// a push token are skipped.
func (n *APNsNotifier) Notify(ctx context.Context, userID string, notice models.Notice) {
	if userID == "" {
		return
	}

	profile, err := n.profiles.GetByUserID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load profile for push")
		return
	}
	if profile.PushToken == nil || *profile.PushToken == "" {
		return
	}

	p := payload.NewPayload().
		AlertTitle(notice.Title).
		AlertBody(notice.Message).
		Sound("default")
	if notice.CampID != nil {
		p = p.Custom("camp_id", *notice.CampID)
	}

	res, err := n.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: *profile.PushToken,
		Topic:       n.topic,
		Payload:     p,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send push notification")
		return
	}
	if !res.Sent() {
		log.Warn().
			Str("user_id", userID).
			Int("status", res.StatusCode).
			Str("reason", res.Reason).
			Msg("Push notification rejected")
		if res.Reason == apns2.ReasonBadDeviceToken || res.Reason == apns2.ReasonUnregistered {
			if err := n.profiles.UpdatePushToken(ctx, userID, nil); err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to clear push token")
			}
		}
		return
	}

	log.Debug().Str("user_id", userID).Str("apns_id", res.ApnsID).Msg("Push notification sent")
}
