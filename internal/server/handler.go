package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cwru-xlab/course-scheduler/internal/engine"
)

// SolveRequest is the solve boundary's wire contract. Locks and soft locks
// supplied here are overlaid on the ones embedded in the input, which is how
// a re-solve under an updated lock set is requested.
type SolveRequest struct {
	Input     engine.SchedulingInput    `json:"input" validate:"required"`
	Locks     []engine.LockedAssignment `json:"locks"`
	SoftLocks []engine.SoftLock         `json:"soft_locks"`
	TimeoutMS int                       `json:"timeout_ms" validate:"omitempty,min=1"`
}

type solveResponse struct {
	Status           string              `json:"status"`
	RequestID        string              `json:"request_id"`
	Optimal          bool                `json:"optimal"`
	Assignments      []engine.Assignment `json:"assignments"`
	TotalScore       float64             `json:"total_score"`
	PenaltyBreakdown map[string]float64  `json:"penalty_breakdown"`
	Explanations     []string            `json:"explanations"`
}

type errorResponse struct {
	Status      string                   `json:"status"`
	RequestID   string                   `json:"request_id"`
	Errors      []engine.ValidationError `json:"errors"`
	Diagnostics *engine.Diagnostics      `json:"diagnostics,omitempty"`
}

type Handler struct {
	screener  engine.Validator
	solver    engine.Solver
	explainer engine.Explainer
	diagnoser engine.Diagnoser

	validate *validator.Validate
	logger   *zap.Logger
	metrics  *Metrics

	defaultTimeout time.Duration
	maxTimeout     time.Duration
}

func NewHandler(
	screener engine.Validator,
	solver engine.Solver,
	explainer engine.Explainer,
	diagnoser engine.Diagnoser,
	logger *zap.Logger,
	metrics *Metrics,
	defaultTimeout, maxTimeout time.Duration,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		screener:       screener,
		solver:         solver,
		explainer:      explainer,
		diagnoser:      diagnoser,
		validate:       validator.New(),
		logger:         logger,
		metrics:        metrics,
		defaultTimeout: defaultTimeout,
		maxTimeout:     maxTimeout,
	}
}

func (handler *Handler) Register(e *echo.Echo) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", handler.metrics.Handler())
	e.POST("/solve", handler.Solve)
}

func (handler *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"service": "course-scheduler", "status": "ok"})
}

func (handler *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (handler *Handler) Solve(c echo.Context) error {
	requestID := uuid.NewString()
	started := time.Now()

	var request SolveRequest
	if err := c.Bind(&request); err != nil {
		handler.metrics.ObserveSolve("invalid", time.Since(started).Seconds())
		return c.JSON(http.StatusBadRequest, errorResponse{
			Status:    "error",
			RequestID: requestID,
			Errors:    []engine.ValidationError{{Code: "bad_request", Message: "request body is not valid JSON"}},
		})
	}
	if err := handler.validate.Struct(&request); err != nil || len(request.Input.Sections) == 0 {
		handler.metrics.ObserveSolve("invalid", time.Since(started).Seconds())
		return c.JSON(http.StatusBadRequest, errorResponse{
			Status:    "error",
			RequestID: requestID,
			Errors:    []engine.ValidationError{{Code: "bad_request", Message: "input with at least one section is required"}},
		})
	}

	log := handler.logger.With(
		zap.String("request_id", requestID),
		zap.Int("sections", len(request.Input.Sections)),
		zap.Int("locks", len(request.Locks)),
	)

	if validationErrors := handler.screener.Validate(request.Input); len(validationErrors) > 0 {
		diagnostics := handler.diagnoser.Diagnose(request.Input, validationErrors)
		log.Info("solve_rejected", zap.Int("errors", len(validationErrors)))
		handler.metrics.ObserveSolve("invalid", time.Since(started).Seconds())
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Status:      "error",
			RequestID:   requestID,
			Errors:      validationErrors,
			Diagnostics: &diagnostics,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handler.timeout(request.TimeoutMS))
	defer cancel()

	solution, err := handler.solver.Solve(ctx, request.Input, request.Locks, request.SoftLocks)
	if err != nil {
		var infeasible *engine.InfeasibleError
		if errors.As(err, &infeasible) {
			diagnostics := handler.diagnoser.Diagnose(request.Input, infeasible.Errors)
			log.Info("solve_infeasible", zap.String("code", infeasible.Code), zap.Duration("took", time.Since(started)))
			handler.metrics.ObserveSolve(infeasible.Code, time.Since(started).Seconds())
			return c.JSON(http.StatusUnprocessableEntity, errorResponse{
				Status:      "error",
				RequestID:   requestID,
				Errors:      infeasible.Errors,
				Diagnostics: &diagnostics,
			})
		}
		log.Warn("solve_aborted", zap.Error(err))
		handler.metrics.ObserveSolve("error", time.Since(started).Seconds())
		return err
	}

	solution.Explanations = handler.explainer.Explain(solution, request.Input)

	log.Info("solve_ok",
		zap.Bool("optimal", solution.Optimal),
		zap.Float64("total_score", solution.TotalScore),
		zap.Duration("took", time.Since(started)),
	)
	handler.metrics.ObserveSolve("ok", time.Since(started).Seconds())

	return c.JSON(http.StatusOK, solveResponse{
		Status:           "ok",
		RequestID:        requestID,
		Optimal:          solution.Optimal,
		Assignments:      solution.Assignments,
		TotalScore:       solution.TotalScore,
		PenaltyBreakdown: solution.PenaltyBreakdown,
		Explanations:     solution.Explanations,
	})
}

func (handler *Handler) timeout(requestedMS int) time.Duration {
	timeout := handler.defaultTimeout
	if requestedMS > 0 {
		timeout = time.Duration(requestedMS) * time.Millisecond
	}
	if handler.maxTimeout > 0 && timeout > handler.maxTimeout {
		timeout = handler.maxTimeout
	}
	return timeout
}
