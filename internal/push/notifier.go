package push

import (
	"context"
	"errors"
	"log/slog"

	"github.com/av-mamzikov/family-task-manager/internal/store"
)

// Notifier fans a payload out to every subscription of a family and prunes
// endpoints the push service reports expired. Failures are logged, never
// returned: notifications are best-effort.
type Notifier struct {
	service *Service
	subs    *store.PushStore
	logger  *slog.Logger
}

func NewNotifier(service *Service, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{service: service, subs: subs, logger: logger}
}

func (n *Notifier) NotifyFamily(ctx context.Context, familyID int64, payload Payload) {
	if !n.service.Enabled() {
		return
	}

	subs, err := n.subs.ListByFamily(familyID)
	if err != nil {
		n.logger.Error("list push subscriptions", "family_id", familyID, "error", err)
		return
	}

	for i := range subs {
		if err := n.service.Send(ctx, &subs[i], payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := n.subs.DeleteByEndpoint(subs[i].Endpoint); err != nil {
					n.logger.Warn("prune expired subscription", "error", err)
				}
				continue
			}
			n.logger.Warn("send push notification",
				"family_id", familyID, "subscription_id", subs[i].ID, "error", err)
		}
	}
}
