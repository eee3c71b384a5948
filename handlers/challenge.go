// handlers/challenge.go
package handlers

import (
	"errors"
	"strconv"
	"time"

	"challenge-streak-system/middleware"
	"challenge-streak-system/models"
	"challenge-streak-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challengeService *services.ChallengeService, awardService *services.AwardService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/challenges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		challenges, err := challengeService.ListChallenges(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list challenges",
				"cause": err.Error(),
			})
		}
		return c.JSON(challenges)
	})

	secured.Post("/challenges", middleware.RequireRole("admin"), func(c *fiber.Ctx) error {
		var ch models.Challenge
		if err := c.BodyParser(&ch); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid challenge payload",
				"cause": err.Error(),
			})
		}
		ch.CreatedBy = c.Locals("user_id").(string)
		if err := challengeService.CreateChallenge(&ch); err != nil {
			status := fiber.StatusInternalServerError
			if errors.Is(err, models.ErrInvalidTimeWindow) {
				status = fiber.StatusBadRequest
			}
			return c.Status(status).JSON(fiber.Map{
				"error": "failed to create challenge",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(ch)
	})

	secured.Post("/challenges/:id/join", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		uc, created, err := challengeService.JoinChallenge(userID, c.Params("id"), time.Now())
		if err != nil {
			if errors.Is(err, services.ErrChallengeNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to join challenge",
				"cause": err.Error(),
			})
		}
		status := fiber.StatusOK
		if created {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(uc)
	})

	secured.Post("/challenges/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		state, err := challengeService.RegisterCompletion(userID, c.Params("id"), time.Now())
		if err != nil {
			switch {
			case errors.Is(err, services.ErrChallengeNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			case errors.Is(err, services.ErrAlreadyCompletedToday),
				errors.Is(err, services.ErrOutsideTimeWindow),
				errors.Is(err, services.ErrParticipationInactive):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to register completion",
					"cause": err.Error(),
				})
			}
		}
		return c.Status(fiber.StatusCreated).JSON(state)
	})

	secured.Get("/challenges/:id/calendar", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		now := time.Now().UTC()
		year, errY := strconv.Atoi(c.Query("year", strconv.Itoa(now.Year())))
		month, errM := strconv.Atoi(c.Query("month", strconv.Itoa(int(now.Month()))))
		if errY != nil || errM != nil || month < 1 || month > 12 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid month or year format",
			})
		}
		days, err := challengeService.Calendar(userID, c.Params("id"), year, time.Month(month))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build calendar",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"year":           year,
			"month":          month,
			"completed_days": days,
		})
	})

	secured.Get("/challenges/:id/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		entries, err := challengeService.Leaderboard(c.Params("id"), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(entries)
	})

	secured.Get("/challenges/streaks/30-plus", func(c *fiber.Ctx) error {
		participations, err := challengeService.ThirtyDayClub()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list 30+ streaks",
				"cause": err.Error(),
			})
		}
		return c.JSON(participations)
	})

	secured.Get("/awards", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		awards, err := awardService.ListUserAwards(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list awards",
				"cause": err.Error(),
			})
		}
		return c.JSON(awards)
	})

	secured.Post("/user-challenges/:id/deactivate", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if err := challengeService.Deactivate(userID, c.Params("id")); err != nil {
			if errors.Is(err, services.ErrParticipationNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to deactivate participation",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "deactivated"})
	})

	secured.Post("/user-challenges/:id/reactivate", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if err := challengeService.Reactivate(userID, c.Params("id")); err != nil {
			if errors.Is(err, services.ErrParticipationNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to reactivate participation",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "reactivated"})
	})

	// Manual trigger for the daily streak batch — same pass the scheduler runs.
	secured.Post("/admin/streaks/recompute", middleware.RequireRole("admin"), func(c *fiber.Ctx) error {
		updated, err := challengeService.UpdateAllStreaks(time.Now().UTC())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "streak recompute batch failed",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status":  "success",
			"updated": updated,
		})
	})
}
