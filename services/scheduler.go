// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartDailyJobs wires the batch passes onto the in-process scheduler:
//
//   - 00:10 UTC: streak recompute for every active challenge and super
//     challenge participation (streaks must decay without user action)
//   - 00:20 UTC: tournament day-end for yesterday, after every challenge
//     window of that day has closed
//   - hourly: close-out sweep for finished tournaments
func StartDailyJobs(challenges *ChallengeService, supers *SuperChallengeService, tournaments *TournamentService) {
	sched, _ := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 10, 0))),
		gocron.NewTask(func() {
			today := time.Now().UTC()
			n, err := challenges.UpdateAllStreaks(today)
			if err != nil {
				log.Printf("[Scheduler] Challenge streak batch error: %v", err)
			} else {
				log.Printf("✅ Recomputed %d challenge streaks", n)
			}
			n, err = supers.UpdateAllStreaks(today)
			if err != nil {
				log.Printf("[Scheduler] Super challenge batch error: %v", err)
			} else {
				log.Printf("✅ Evaluated %d super challenge participations", n)
			}
		}),
	)

	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 20, 0))),
		gocron.NewTask(func() {
			yesterday := time.Now().UTC().AddDate(0, 0, -1)
			if err := tournaments.ProcessDayEnd(yesterday); err != nil {
				log.Printf("[Scheduler] Tournament day-end error: %v", err)
			} else {
				log.Printf("✅ Processed tournament day end for %s", yesterday.Format("2006-01-02"))
			}
		}),
	)

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			n, err := tournaments.ProcessFinishedTournaments(time.Now().UTC())
			if err != nil {
				log.Printf("[Scheduler] Tournament close-out error: %v", err)
			} else if n > 0 {
				log.Printf("✅ Closed %d finished tournaments", n)
			}
		}),
	)
}
