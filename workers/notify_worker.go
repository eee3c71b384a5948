// workers/notify_worker.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"challenge-streak-system/models"

	"gorm.io/gorm"
)

// Trigger signal kinds emitted to the external notifier. Message templates
// and delivery transport live there, not here.
const (
	SignalSuperChallengeFailed = "super_challenge_failed"
	SignalTournamentFailed     = "tournament_failed"
	SignalTournamentDayMissed  = "tournament_day_missed"
	SignalAwardEarned          = "award_earned"
)

// NotifySignal is the wire payload for one trigger.
type NotifySignal struct {
	ExternalUserID string `json:"external_user_id"`
	Kind           string `json:"kind"`
	SubjectID      string `json:"subject_id"`
}

// NotifyWorker polls for fresh state transitions — participations that just
// failed, awards that were just earned — and forwards them as trigger
// signals to the notifier service. The freshness window is the poll
// interval, so each transition is reported once.
type NotifyWorker struct {
	db          *gorm.DB
	interval    time.Duration
	notifierURL string
	httpClient  *http.Client
}

func NewNotifyWorker(db *gorm.DB, notifierURL string) *NotifyWorker {
	return &NotifyWorker{
		db:          db,
		interval:    1 * time.Minute,
		notifierURL: notifierURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (w *NotifyWorker) Start(ctx context.Context) {
	log.Println("🔔 Starting Notify Worker (state transitions → notifier)…")
	go w.run(ctx)
}

func (w *NotifyWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	lastScan := time.Now().UTC()
	for {
		select {
		case <-ticker.C:
			now := time.Now().UTC()
			if err := w.scan(ctx, lastScan); err != nil {
				log.Printf("❌ Notify scan failed: %v", err)
			}
			lastScan = now
		case <-ctx.Done():
			log.Println("⏹️ Notify Worker stopped")
			return
		}
	}
}

func (w *NotifyWorker) scan(ctx context.Context, since time.Time) error {
	var signals []NotifySignal

	var failedSupers []models.UserSuperChallenge
	if err := w.db.Where("is_failed = ? AND updated_at >= ?", true, since).
		Find(&failedSupers).Error; err != nil {
		return err
	}
	for _, usc := range failedSupers {
		signals = append(signals, NotifySignal{
			ExternalUserID: usc.ExternalUserID,
			Kind:           SignalSuperChallengeFailed,
			SubjectID:      usc.SuperChallengeID,
		})
	}

	var failedTournaments []models.UserTournament
	if err := w.db.Where("is_failed = ? AND updated_at >= ?", true, since).
		Find(&failedTournaments).Error; err != nil {
		return err
	}
	for _, ut := range failedTournaments {
		signals = append(signals, NotifySignal{
			ExternalUserID: ut.ExternalUserID,
			Kind:           SignalTournamentFailed,
			SubjectID:      ut.TournamentID,
		})
	}

	// Days finalized incomplete by the day-end pass. Only past dates: the
	// ongoing day is still completable.
	var missedDays []struct {
		ExternalUserID string
		TournamentID   string
	}
	if err := w.db.Model(&models.UserTournamentDay{}).
		Select("ut.external_user_id, ut.tournament_id").
		Joins("JOIN user_tournaments ut ON ut.id = user_tournament_days.user_tournament_id").
		Where("user_tournament_days.is_completed = ? AND user_tournament_days.updated_at >= ?", false, since).
		Where("user_tournament_days.date < ?", time.Now().UTC().Truncate(24*time.Hour)).
		Scan(&missedDays).Error; err != nil {
		return err
	}
	for _, m := range missedDays {
		signals = append(signals, NotifySignal{
			ExternalUserID: m.ExternalUserID,
			Kind:           SignalTournamentDayMissed,
			SubjectID:      m.TournamentID,
		})
	}

	var awards []models.UserAward
	if err := w.db.Where("awarded_at >= ?", since).Find(&awards).Error; err != nil {
		return err
	}
	for _, a := range awards {
		signals = append(signals, NotifySignal{
			ExternalUserID: a.ExternalUserID,
			Kind:           SignalAwardEarned,
			SubjectID:      a.ID,
		})
	}

	for _, sig := range signals {
		if err := w.post(ctx, sig); err != nil {
			log.Printf("⚠️ Notify dispatch failed (user=%s kind=%s): %v",
				sig.ExternalUserID, sig.Kind, err)
		}
	}
	return nil
}

func (w *NotifyWorker) post(ctx context.Context, sig NotifySignal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.notifierURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notifier returned %d", resp.StatusCode)
	}
	return nil
}
