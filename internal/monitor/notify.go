package monitor

import (
	"context"

	"github.com/rs/zerolog/log"

	"bdo-watch/patchwatch/internal/models"
	"bdo-watch/patchwatch/internal/store"
)

// Sender delivers one report to one subscription target.
type Sender interface {
	Send(ctx context.Context, sub models.Subscription, report models.Report) error
}

// Notifier drains pending reports to every subscriber. It runs on its
// own schedule, sharing only the store with the ingestion loop.
type Notifier struct {
	reports store.ReportStore
	subs    store.SubscriptionStore
	sender  Sender
}

// NewNotifier wires the notification cycle.
func NewNotifier(reportStore store.ReportStore, subStore store.SubscriptionStore, sender Sender) *Notifier {
	return &Notifier{reports: reportStore, subs: subStore, sender: sender}
}

// RunCycle delivers every pending report to every subscription, oldest
// report first, then marks it notified. Per-target delivery failures
// are logged and do not block the mark; a crash before the mark leaves
// the report pending and it is redelivered to all targets next cycle —
// duplicate delivery is preferred over lost delivery.
func (n *Notifier) RunCycle(ctx context.Context) {
	pending, err := n.reports.PendingNotification(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch pending reports")
		return
	}
	if len(pending) == 0 {
		return
	}

	subs, err := n.subs.ListSubscriptions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list subscriptions")
		return
	}

	log.Info().
		Int("pending", len(pending)).
		Int("subscriptions", len(subs)).
		Msg("Delivering pending reports")

	for _, report := range pending {
		if ctx.Err() != nil {
			log.Info().Err(ctx.Err()).Msg("Notification cycle cancelled")
			return
		}

		delivered := 0
		for _, sub := range subs {
			if err := n.sender.Send(ctx, sub, report); err != nil {
				log.Error().Err(err).
					Int64("guild_id", sub.GuildID).
					Str("patch_id", report.PatchID).
					Msg("Delivery failed for target")
				continue
			}
			delivered++
		}

		if err := n.reports.MarkNotified(ctx, report.Source, report.PatchID); err != nil {
			// Left pending; next cycle retries delivery to everyone.
			log.Error().Err(err).Str("patch_id", report.PatchID).Msg("Failed to mark report notified")
			continue
		}

		log.Info().
			Str("source", report.Source).
			Str("patch_id", report.PatchID).
			Int("delivered", delivered).
			Int("targets", len(subs)).
			Msg("Report notified")
	}
}
