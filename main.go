package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tailortalk/config"
	"tailortalk/handlers"
	"tailortalk/middleware"
	"tailortalk/routes"
	"tailortalk/services/agent"
	"tailortalk/services/calendar"
	"tailortalk/services/session"
	"tailortalk/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	ctx := context.Background()

	// Timezone used for prompt dates and offset-less tool timestamps.
	tz, err := time.LoadLocation(config.AppConfig.AgentTimezone)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid AGENT_TIMEZONE %q: %v", config.AppConfig.AgentTimezone, err)
	}

	// Google Calendar client.
	calSvc, err := calendar.NewService(ctx, config.AppConfig.GoogleCredentialsFile)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize calendar service: %v", err)
	}
	calendarService := calendar.NewDefaultCalendarService(calSvc, config.AppConfig.CalendarID, tz)

	// Gemini model client.
	modelClient, err := agent.NewGeminiClient(ctx, config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize gemini client: %v", err)
	}
	defer modelClient.Close()

	defaultDuration := time.Duration(config.AppConfig.DefaultEventMinutes) * time.Minute
	tools := agent.NewRegistry(
		&agent.CheckAvailabilityTool{
			Calendar:        calendarService,
			Timezone:        tz,
			DefaultDuration: defaultDuration,
		},
		&agent.BookAppointmentTool{
			Calendar:        calendarService,
			Timezone:        tz,
			DefaultDuration: defaultDuration,
		},
	)
	agentService := agent.NewDefaultAgentService(modelClient, tools, tz, config.AppConfig.MaxToolIterations)

	sessionStore := session.NewDefaultStore(time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute)
	defer sessionStore.Stop()

	chatHandler := handlers.NewChatHandler(
		agentService,
		sessionStore,
		time.Duration(config.AppConfig.TurnTimeoutSeconds)*time.Second,
	)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		ChatHandler:          chatHandler.HandleChat,
		ChatHistoryHandler:   chatHandler.GetHistory,
		DeleteSessionHandler: chatHandler.DeleteSession,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
