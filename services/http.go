package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"

	docs "github.com/lac-hong-legacy/devscope/docs"
	"github.com/lac-hong-legacy/devscope/middleware"
	"github.com/lac-hong-legacy/devscope/services/handlers"
	"github.com/lac-hong-legacy/devscope/shared"
)

type HttpService struct {
	appContext.DefaultService

	authMw        *AuthMiddleware
	rateLimitSvc  *RateLimitService
	analysisSvc   *AnalysisService
	monitoringSvc *MonitoringService

	port           int
	proxyHeader    string
	trustedProxies []string
	server         *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *appContext.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()
	svc.port = cfg.HTTPPort
	svc.proxyHeader = cfg.ProxyHeader
	svc.trustedProxies = cfg.TrustedProxies
	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authMw = svc.Service(AUTH_MIDDLEWARE_SVC).(*AuthMiddleware)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.analysisSvc = svc.Service(ANALYSIS_SVC).(*AnalysisService)
	svc.monitoringSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.server = svc.NewApp()

	log.WithField("port", svc.port).Info("HTTP server listening")
	return svc.server.Listen(fmt.Sprintf(":%v", svc.port))
}

// NewApp builds the fiber application with every route mounted.
func (svc *HttpService) NewApp() *fiber.App {
	docs.SwaggerInfo.BasePath = ""

	app := fiber.New(middleware.TrustProxies(fiber.Config{
		AppName:      SERVICE_NAME,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: svc.HandleError,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}, svc.proxyHeader, svc.trustedProxies))

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, X-RateLimit-Class, Retry-After",
	}))
	if svc.monitoringSvc != nil {
		app.Use(MonitoringMiddleware(svc.monitoringSvc))
		app.Get("/metrics", svc.monitoringSvc.Handler())
	}

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	submissionHandler := handlers.NewSubmissionHandler(svc.rateLimitSvc)
	jobHandler := handlers.NewJobHandler(svc.analysisSvc)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	v1.Post("/queries", svc.authMw.OptionalAuth(), submissionHandler.SubmitQuery)
	v1.Post("/events", svc.authMw.OptionalAuth(), submissionHandler.SubmitEvent)
	v1.Put("/events/:id", svc.authMw.RequiredAuth(), jobHandler.EditEvent)

	jobs := v1.Group("/jobs")
	jobs.Get("/:id/report", jobHandler.GetReport)
	jobs.Get("/:id/partial", jobHandler.GetPartial)
	jobs.Get("/:id/status", jobHandler.GetStatus)
	jobs.Get("/:id/archive", jobHandler.GetArchive)

	app.Use(func(c *fiber.Ctx) error {
		return shared.NewNotFoundError(errors.New("page not found"), "Not Found")
	})

	return app
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}

// HandleError renders every error returned by a handler.
func (svc *HttpService) HandleError(c *fiber.Ctx, err error) error {
	appErr := toAppError(err)

	entry := log.WithFields(log.Fields{
		"path":   c.Path(),
		"method": c.Method(),
		"status": appErr.StatusCode,
		"error":  err.Error(),
	})
	if appErr.StatusCode >= fiber.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
}

func toAppError(err error) *shared.AppError {
	if appErr, ok := shared.GetAppError(err); ok {
		return appErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &shared.AppError{StatusCode: fiberErr.Code, Message: fiberErr.Message, Err: err}
	}

	switch {
	case errors.Is(err, ErrJobNotFound):
		return shared.NewNotFoundError(err, "Job not found")
	case errors.Is(err, ErrNotArchived):
		return shared.NewNotFoundError(err, "Job payload is not archived")
	case errors.Is(err, ErrNotJobOwner):
		return shared.NewForbiddenError(err, "Only the owner of this event can edit it")
	case errors.Is(err, ErrNotEventJob):
		return shared.NewBadRequestError(err, "Only events can be edited")
	case errors.Is(err, ErrInvalidRoster):
		return shared.NewBadRequestError(err, strings.TrimPrefix(err.Error(), ErrInvalidRoster.Error()+": "))
	case errors.Is(err, ErrUpstreamUnavailable), errors.Is(err, ErrUpstreamNotFound),
		errors.Is(err, ErrUpstreamInvalidResponse), errors.Is(err, ErrUpstreamRejected),
		errors.Is(err, ErrQuotaStoreUnavailable), errors.Is(err, ErrArchiveDisabled):
		return shared.NewServiceUnavailableError(err, "Analysis is temporarily unavailable, please try again")
	}
	return shared.NewInternalError(err, "Internal Server Error")
}
