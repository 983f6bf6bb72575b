package main

import (
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/cwru-xlab/course-scheduler/internal/config"
	"github.com/cwru-xlab/course-scheduler/internal/cp"
	"github.com/cwru-xlab/course-scheduler/internal/engine"
	"github.com/cwru-xlab/course-scheduler/internal/logger"
	"github.com/cwru-xlab/course-scheduler/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	handler := server.NewHandler(
		engine.NewValidator(),
		engine.NewSolver(cp.NewBranchBoundEngine(), cfg.Solve.Weights),
		engine.NewExplainer(),
		engine.NewDiagnoser(),
		logr,
		server.NewMetrics(),
		cfg.Solve.DefaultTimeout,
		cfg.Solve.MaxTimeout,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(logger.EchoMiddleware(logr))
	handler.Register(e)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}
