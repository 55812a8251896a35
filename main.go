package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"sshbridge/config"
	"sshbridge/engine"
	"sshbridge/handlers"
	"sshbridge/logging"
	"sshbridge/middleware"
	"sshbridge/sshpty"
)

func main() {
	cfg := config.Load()
	log := logging.New()

	eng := engine.New(engine.Options{
		MaxConnections: cfg.MaxConnections,
		DefaultIdleMs:  cfg.IdleTimeoutMs,
		Dialer:         sshpty.NewDialer(),
		Log:            log,
	})

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	go eng.RunSweeper(sweepCtx, cfg.SweepInterval())

	adminHandler := handlers.NewAdminHandler(eng, cfg.BasePath)
	terminalHandler := handlers.NewTerminalHandler(cfg, eng, log)
	sseHandler := handlers.NewSSEHandler(eng, cfg.SSEHeartbeat())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.SecurityHeaders())

	base := r.Group(cfg.BasePath)
	base.GET("/healthz", adminHandler.Health)
	base.POST("/connections", adminHandler.CreateConnection)
	base.GET("/connections", adminHandler.ListConnections)
	base.DELETE("/connections/:id", adminHandler.DeleteConnection)
	base.POST("/connections/:id/resize", adminHandler.ResizeConnection)
	base.GET("/connections/stream", sseHandler.Stream)
	base.GET("/ws/:id", terminalHandler.HandleWebSocket)

	base.StaticFile("/", "./static/index.html")
	base.StaticFile("/openapi.json", "./static/openapi.json")
	r.NoRoute(func(c *gin.Context) {
		c.File("./static/index.html")
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	cancelSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown error")
	}

	eng.Shutdown()
	log.Info().Msg("shutdown complete")
}
