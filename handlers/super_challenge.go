// handlers/super_challenge.go
package handlers

import (
	"errors"
	"time"

	"challenge-streak-system/middleware"
	"challenge-streak-system/models"
	"challenge-streak-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSuperChallengeRoutes(app *fiber.App, superService *services.SuperChallengeService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/super-challenges", func(c *fiber.Ctx) error {
		scs, err := superService.ListSuperChallenges()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list super challenges",
				"cause": err.Error(),
			})
		}
		return c.JSON(scs)
	})

	secured.Post("/super-challenges", middleware.RequireRole("admin"), func(c *fiber.Ctx) error {
		var sc models.SuperChallenge
		if err := c.BodyParser(&sc); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid super challenge payload",
				"cause": err.Error(),
			})
		}
		if err := superService.CreateSuperChallenge(&sc); err != nil {
			status := fiber.StatusInternalServerError
			if errors.Is(err, models.ErrInvalidDateRange) {
				status = fiber.StatusBadRequest
			}
			return c.Status(status).JSON(fiber.Map{
				"error": "failed to create super challenge",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(sc)
	})

	secured.Post("/super-challenges/:id/join", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		usc, err := superService.Join(userID, c.Params("id"), time.Now())
		if err != nil {
			if errors.Is(err, services.ErrSuperChallengeNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to join super challenge",
				"cause": err.Error(),
			})
		}
		return c.JSON(usc)
	})

	// Status runs the failure evaluation as of now, so a lapsed streak or a
	// fresh failure shows up even before the nightly batch.
	secured.Get("/super-challenges/:id/status", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		usc, err := superService.GetParticipation(userID, c.Params("id"))
		if err != nil {
			if errors.Is(err, services.ErrParticipationNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load participation",
				"cause": err.Error(),
			})
		}
		state, err := superService.Evaluate(usc.ID, time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to evaluate super challenge",
				"cause": err.Error(),
			})
		}
		return c.JSON(state)
	})
}
