// handlers/tournament.go
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

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/tournaments", func(c *fiber.Ctx) error {
		tournaments, err := tournamentService.ListActive(time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list tournaments",
				"cause": err.Error(),
			})
		}
		return c.JSON(tournaments)
	})

	secured.Post("/tournaments", middleware.RequireRole("admin"), func(c *fiber.Ctx) error {
		var t models.Tournament
		if err := c.BodyParser(&t); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid tournament payload",
				"cause": err.Error(),
			})
		}
		if err := tournamentService.CreateTournament(&t); err != nil {
			status := fiber.StatusInternalServerError
			if errors.Is(err, models.ErrInvalidDateRange) {
				status = fiber.StatusBadRequest
			}
			return c.Status(status).JSON(fiber.Map{
				"error": "failed to create tournament",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	})

	secured.Get("/tournaments/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		tournament, standing, err := tournamentService.GetByID(c.Params("id"), userID)
		if err != nil {
			if errors.Is(err, services.ErrTournamentNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load tournament",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"tournament": tournament,
			"standing":   standing,
		})
	})

	secured.Get("/tournaments/:id/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		standings, err := tournamentService.Leaderboard(c.Params("id"), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(standings)
	})

	// Manual trigger for the day-end pass; defaults to yesterday like the
	// scheduled job.
	secured.Post("/admin/tournaments/day-end", middleware.RequireRole("admin"), func(c *fiber.Ctx) error {
		date := time.Now().UTC().AddDate(0, 0, -1)
		if raw := c.Query("date"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid date, expected YYYY-MM-DD",
				})
			}
			date = parsed
		}
		if err := tournamentService.ProcessDayEnd(date); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "tournament day-end failed",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "success",
			"date":   date.Format("2006-01-02"),
		})
	})
}
