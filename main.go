package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"challenge-streak-system/handlers"
	"challenge-streak-system/middleware"
	"challenge-streak-system/models"
	"challenge-streak-system/services"
	"challenge-streak-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB — this service only moves JSON
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Challenge{},
		&models.UserChallenge{},
		&models.UserChallengeCompletion{},
		&models.SuperChallenge{},
		&models.UserSuperChallenge{},
		&models.UserSuperChallengeCompletion{},
		&models.Tournament{},
		&models.UserTournament{},
		&models.UserTournamentDay{},
		&models.ChallengeAward{},
		&models.SuperChallengeAward{},
		&models.TournamentAward{},
		&models.UserAward{},
		&models.ParticipantUser{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	failureAction := services.FailureActionFromName(os.Getenv("FAILURE_POLICY"))
	log.Printf("⚙️  Failure policy: %s", failureAction.Name())

	challengeService := services.NewChallengeService(db, failureAction)
	superChallengeService := services.NewSuperChallengeService(db)
	tournamentService := services.NewTournamentService(db)
	awardService := services.NewAwardService(db)

	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("STREAK_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("STREAK_SERVICE_TOKEN environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncWorker := workers.NewUserSyncWorker(db, syncServiceURL, "/api/v1/public/profiles", serviceToken)
	syncWorker.Start(ctx)

	if notifierURL := os.Getenv("NOTIFIER_URL"); notifierURL != "" {
		notifyWorker := workers.NewNotifyWorker(db, notifierURL)
		notifyWorker.Start(ctx)
	} else {
		log.Println("⚠️  NOTIFIER_URL not set — trigger signals disabled")
	}

	services.StartDailyJobs(challengeService, superChallengeService, tournamentService)

	handlers.SetupChallengeRoutes(app, challengeService, awardService)
	handlers.SetupSuperChallengeRoutes(app, superChallengeService)
	handlers.SetupTournamentRoutes(app, tournamentService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Daily streak/tournament jobs scheduled")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
