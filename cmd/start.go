package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"rental-directory/core/loader"
	"rental-directory/core/logger"
	"rental-directory/core/middleware/auth"
	"rental-directory/core/middleware/rayid"
	"rental-directory/feature/catalog"
	"rental-directory/feature/importer"
	"rental-directory/feature/integrity"
	"rental-directory/feature/search"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "rental-directory/docs/swagger"
)

// @title Rental Directory API
// @version 1.0
// @description API for locating rental companies by equipment and managing the rental catalog.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the rental directory server",
	Long:  `Migrates the catalog schema, starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer a.Close()
		zap.ReplaceGlobals(a.logger)
		logg := a.logger

		if err := a.migrate(cmd.Context()); err != nil {
			logg.Fatal("Failed to migrate database", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             a.cfg.Server.BodyLimit(),
		})

		// Public features are served without an API key.
		public := loader.NewManager(logg)
		public.Register(search.NewFeature(a.search))

		admin := loader.NewManager(logg)
		admin.Register(catalog.NewFeature(a.catalog))
		admin.Register(importer.NewFeature(a.importer))
		admin.Register(integrity.NewFeature(a.integrity))

		// RayID first so every log line can be traced
		app.Use(rayid.New())

		app.Use(cors.New(cors.Config{
			AllowOrigins: a.cfg.Server.AllowedOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, " + auth.HeaderName,
		}))

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Get("/metrics", a.metrics.Handler())

		if err := public.LoadAll(app); err != nil {
			logg.Fatal("Failed to load public features", zap.Error(err))
		}

		if !a.cfg.Server.AdminEnabled() {
			logg.Warn("SERVER_API_KEY is empty, admin endpoints will reject every request")
		}
		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

		if err := admin.LoadAll(app); err != nil {
			logg.Fatal("Failed to load admin features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port))
			if err := app.Listen(":" + a.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
