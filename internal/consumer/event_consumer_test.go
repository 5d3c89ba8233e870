package consumer

import (
	"testing"
	"time"

	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
)

func TestOutcomeUpdate(t *testing.T) {
	delivered := time.Date(2026, 3, 1, 8, 1, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event domain.DeliveryOutcomeEvent
		check func(t *testing.T, u *domain.NotificationLogUpdate)
	}{
		{
			name: "delivered outcome carries timestamps",
			event: domain.DeliveryOutcomeEvent{
				NotificationID: "n1",
				Status:         domain.NotificationStatusDelivered,
				DeliveredAt:    &delivered,
			},
			check: func(t *testing.T, u *domain.NotificationLogUpdate) {
				if u.Status == nil || *u.Status != domain.NotificationStatusDelivered {
					t.Errorf("status = %v, want delivered", u.Status)
				}
				if u.DeliveredAt == nil || !u.DeliveredAt.Equal(delivered) {
					t.Errorf("deliveredAt = %v, want %v", u.DeliveredAt, delivered)
				}
				if u.DeliveryError != nil {
					t.Error("empty error string should not be carried")
				}
			},
		},
		{
			name: "failed outcome carries error and retries",
			event: domain.DeliveryOutcomeEvent{
				NotificationID: "n2",
				Status:         domain.NotificationStatusFailed,
				Error:          "token expired",
				Retries:        2,
			},
			check: func(t *testing.T, u *domain.NotificationLogUpdate) {
				if u.DeliveryError == nil || *u.DeliveryError != "token expired" {
					t.Errorf("deliveryError = %v, want token expired", u.DeliveryError)
				}
				if u.DeliveryRetries == nil || *u.DeliveryRetries != 2 {
					t.Errorf("deliveryRetries = %v, want 2", u.DeliveryRetries)
				}
			},
		},
		{
			name: "zero retries stays unset",
			event: domain.DeliveryOutcomeEvent{
				NotificationID: "n3",
				Status:         domain.NotificationStatusSent,
			},
			check: func(t *testing.T, u *domain.NotificationLogUpdate) {
				if u.DeliveryRetries != nil {
					t.Errorf("deliveryRetries = %v, want nil", u.DeliveryRetries)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, outcomeUpdate(&tt.event))
		})
	}
}
