package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Sahilattar8786/khidmah-mvp/databases"
)

const (
	// verification codes are single-use and short-lived
	pendingVerificationTTL = 24 * time.Hour

	// an aalim that hasn't touched its record in this long is treated
	// as having walked away without flipping availability off
	staleAvailabilityAge = 7 * 24 * time.Hour
)

// Scheduler runs the periodic background sweeps
type Scheduler struct {
	cron   *cron.Cron
	PVDB   databases.PendingVerificationDatabase
	ADB    databases.AalimDatabase
	strict bool
}

// New creates a new scheduler instance
func New(pvDB databases.PendingVerificationDatabase, aDB databases.AalimDatabase, strict bool) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		PVDB:   pvDB,
		ADB:    aDB,
		strict: strict,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Purge expired verification codes hourly
	_, err := s.cron.AddFunc("0 * * * *", s.purgeExpiredVerifications)
	if err != nil {
		zap.S().Errorw("failed to register verification purge job", "error", err)
	}

	// Sweep stale aalim availability daily at 4 AM UTC. The sweep only
	// matters when availability gates assignment, so skip it otherwise.
	if s.strict {
		_, err = s.cron.AddFunc("0 4 * * *", s.sweepStaleAvailability)
		if err != nil {
			zap.S().Errorw("failed to register availability sweep job", "error", err)
		}
	}

	s.cron.Start()
	zap.S().Info("Background scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Background scheduler stopped")
}

// purgeExpiredVerifications removes signup codes nobody confirmed in time
func (s *Scheduler) purgeExpiredVerifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := primitive.NewDateTimeFromTime(time.Now().Add(-pendingVerificationTTL))
	deleted, err := s.PVDB.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		zap.S().Errorw("failed to purge expired verifications", "error", err)
		return
	}
	if deleted > 0 {
		zap.S().Infow("Purged expired verification codes", "deleted", deleted)
	}
}

// sweepStaleAvailability flips availability off for aalims that have gone
// quiet, so strict assignment stops routing new chats to them
func (s *Scheduler) sweepStaleAvailability() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := primitive.NewDateTimeFromTime(time.Now().Add(-staleAvailabilityAge))
	stale, err := s.ADB.Find(ctx, bson.M{
		"isAvailable": true,
		"updatedAt":   bson.M{"$lt": cutoff},
	})
	if err != nil {
		zap.S().Errorw("failed to find stale aalims", "error", err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	swept := 0
	for _, aalim := range stale {
		_, err := s.ADB.UpdateOne(ctx, bson.M{"_id": aalim.ID}, bson.M{
			"$set": bson.M{"isAvailable": false, "updatedAt": now},
		})
		if err != nil {
			zap.S().Errorw("failed to mark aalim unavailable", "error", err, "aalimId", aalim.ID)
			continue
		}
		swept++
	}

	if swept > 0 {
		zap.S().Infow("Availability sweep complete", "swept", swept)
	}
}
