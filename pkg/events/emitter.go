// Package events handles notification emission for newly discovered matches
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const notifiedKeyPrefix = "match:notified:"

// Emitter publishes match.created events. A Redis guard keyed by match ID
// suppresses repeat notifications when overlapping matching passes hand the
// same match to the emitter more than once. Emission is best effort; a
// failure is logged and never propagated to the matching pass.
type Emitter struct {
	producer    *kafka.Producer
	guard       *redis.Client
	logger      ectologger.Logger
	guardExpiry time.Duration
}

// NewEmitter creates a new match event emitter. guard may be nil, in which
// case every call publishes.
func NewEmitter(producer *kafka.Producer, guard *redis.Client, guardExpiry time.Duration, logger ectologger.Logger) *Emitter {
	if guardExpiry <= 0 {
		guardExpiry = 24 * time.Hour
	}
	return &Emitter{
		producer:    producer,
		guard:       guard,
		logger:      logger,
		guardExpiry: guardExpiry,
	}
}

// MatchCreated publishes a match.created event for a newly recorded match
func (e *Emitter) MatchCreated(ctx context.Context, match *models.Match, claim *models.Claim, idt *models.Identification) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.MatchCreated")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{"match_id": match.ID})

	if e.guard != nil {
		first, err := e.guard.SetNX(ctx, notifiedKeyPrefix+match.ID, 1, e.guardExpiry)
		if err != nil {
			// Guard unavailable. Publishing anyway risks a duplicate
			// notification, which is better than a silent miss.
			log.WithError(err).Warn("Notification guard unavailable")
		} else if !first {
			log.Debug("Match already notified, skipping")
			return
		}
	}

	event := &kafka.MatchEvent{
		EventType:        "match.created",
		MatchID:          match.ID,
		ClaimID:          claim.ID,
		ClaimUserID:      claim.UserID,
		IdentificationID: idt.ID,
		Institution:      idt.Institution,
	}

	if err := e.producer.PublishMatchEvent(ctx, event); err != nil {
		log.WithError(err).Error("Failed to emit match.created event")
	}
}
