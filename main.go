package main

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog"

	"github.com/tekdi/user-microservice-sub001/config"
	syncControllers "github.com/tekdi/user-microservice-sub001/controllers/syncControllers"
	"github.com/tekdi/user-microservice-sub001/database"
	"github.com/tekdi/user-microservice-sub001/fetcher"
	syncRoutes "github.com/tekdi/user-microservice-sub001/routers/syncRoutes"
	"github.com/tekdi/user-microservice-sub001/search"
	"github.com/tekdi/user-microservice-sub001/syncer"
	"github.com/tekdi/user-microservice-sub001/utils"
)

func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	database.ConnectDb()

	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	searchClient := search.NewClient(
		config.AppConfig.SearchIndexURL,
		config.AppConfig.SearchIndexName,
		config.AppConfig.SearchUsername,
		config.AppConfig.SearchPassword,
		config.AppConfig.UpstreamTimeout,
		zlog,
	)
	if err := searchClient.EnsureIndex(context.Background()); err != nil {
		log.Fatalf("Search index setup failed: %v", err)
	}

	dataFetcher := fetcher.New(
		database.Database.Db,
		config.AppConfig.TrackingServiceURL,
		config.AppConfig.AssessmentServiceURL,
		config.AppConfig.CollaboratorToken,
		fetcher.DefaultsFromConfig(config.AppConfig),
		zlog,
	)
	orchestrator := syncer.New(searchClient, dataFetcher, zlog)
	syncControllers.Setup(orchestrator, searchClient)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization,tenantid,organisationid",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	syncRoutes.SetupSyncRoutes(app)

	utils.InitializeResyncScheduler(orchestrator)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
