package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pantrytrack/config"
	"pantrytrack/data"
	"pantrytrack/routes"
	"pantrytrack/services"
	"pantrytrack/utils"

	"go.uber.org/zap"
)

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, source, err := config.ConnectDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if source == config.SourceDemo {
		logger.Warn(config.DemoBanner)
	}

	deps := routes.Deps{Config: cfg, Source: source, Log: logger, DB: db}
	wireServices(ctx, &deps)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           routes.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("data_source", string(source)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// wireServices builds every service. AWS and AI integrations are optional:
// each is skipped with a warning when unconfigured or failing to start.
func wireServices(ctx context.Context, d *routes.Deps) {
	db := d.DB

	var images utils.ImageStore
	if cfg.S3Bucket != "" {
		store, err := utils.NewS3ImageStore(ctx, cfg.S3Region, cfg.S3Bucket, cfg.CloudFrontURL)
		if err != nil {
			logger.Warn("image uploads disabled", zap.Error(err))
		} else {
			images = store
		}
	}

	var mailer utils.Mailer
	if cfg.SESSender != "" {
		m, err := utils.NewSESMailer(ctx, cfg.AWSRegion, cfg.SESSender)
		if err != nil {
			logger.Warn("password reset email disabled", zap.Error(err))
		} else {
			mailer = m
		}
	}

	var pusher services.Pusher
	if cfg.SNSPlatformARN != "" {
		push, err := services.NewPushService(ctx, db, cfg.AWSRegion, cfg.SNSPlatformARN, logger)
		if err != nil {
			logger.Warn("push notifications disabled", zap.Error(err))
		} else {
			d.Push = push
			pusher = push
		}
	}

	var labels services.LabelDetector
	if cfg.Rekognition {
		rek, err := services.NewRekognitionService(ctx, cfg.AWSRegion)
		if err != nil {
			logger.Warn("photo recognition disabled", zap.Error(err))
		} else {
			labels = rek
		}
	}

	var gen services.TextGenerator
	if cfg.GeminiAPIKey != "" {
		g, err := services.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("AI generation disabled", zap.Error(err))
		} else {
			gen = g
		}
	}

	d.RT = services.NewRealtimeHub()
	d.Alerts = services.NewAlertBus(db, d.RT, pusher, logger)
	d.Settings = services.NewSettingsService(db)
	d.Goals = services.NewGoalService(db)
	d.Auth = services.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL, mailer, logger)
	d.Items = services.NewItemService(db, d.Settings, d.Alerts, images, logger)
	d.Food = services.NewFoodService(services.NewOFFClient(cfg.OFFBaseURL, cfg.OFFUserAgent, logger), labels)
	d.AI = services.NewAIService(gen, d.Items, logger)
	d.Recipes = services.NewRecipeService(db, d.Settings)
	d.Tags = services.NewTagService(db)
	d.MealLogs = services.NewMealLogService(db, d.Recipes, d.AI)
	d.MealPlans = services.NewMealPlanService(db, d.Recipes)
	d.Analytics = services.NewAnalyticsService(db)
}

func runSeedDemo(ctx context.Context) error {
	cfg.DemoFallback = false
	db, _, err := config.ConnectDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := data.SeedDemo(db); err != nil {
		return err
	}
	logger.Info("demo data seeded")
	return nil
}
