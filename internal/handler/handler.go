package handler

import (
	"authcore/internal/models"
	"authcore/internal/service"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const tokenType = "Bearer"

type Handler struct {
	serviceLayer service.Service
	log          *slog.Logger
	gatherer     prometheus.Gatherer
}

type errorResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type healthResponse struct {
	Status string `json:"status"`
	Users  int64  `json:"users"`
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Message: errMessage})
}

func NewHandler(srvc service.Service, lgr *slog.Logger, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		serviceLayer: srvc,
		log:          lgr,
		gatherer:     gatherer,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID())

	router.POST("/signup", h.SignUp)
	router.POST("/login", h.LogIn)
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	protected := router.Group("/")
	protected.Use(AuthMiddleware(h.serviceLayer, h.log))
	{
		protected.GET("/protected", h.Protected)
	}

	return router
}

func (h *Handler) logger(c *gin.Context, op string) *slog.Logger {
	return h.log.With(slog.String("op", op), slog.String("request_id", c.GetString(requestIDKey)))
}

// POST /signup
func (h *Handler) SignUp(c *gin.Context) {
	const op = "handler.SignUp"

	log := h.logger(c, op)

	var req models.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "username and password are required")

		return
	}

	err := h.serviceLayer.SignUp(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrAlreadyExists):
		newErrorResponse(c, http.StatusConflict, "user already exists")

		return
	case errors.Is(err, service.ErrWeakPassword):
		newErrorResponse(c, http.StatusBadRequest, service.ErrWeakPassword.Error())

		return
	case errors.Is(err, service.ErrInvalidUsername):
		newErrorResponse(c, http.StatusBadRequest, service.ErrInvalidUsername.Error())

		return
	case errors.Is(err, service.ErrStorageUnavailable):
		newErrorResponse(c, http.StatusServiceUnavailable, "service unavailable")

		return
	default:
		log.Error("failed to create user", slog.Any("error", err))

		newErrorResponse(c, http.StatusInternalServerError, "failed to create user")

		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user created"})
}

// POST /login
func (h *Handler) LogIn(c *gin.Context) {
	const op = "handler.LogIn"

	log := h.logger(c, op)

	var req models.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "username and password are required")

		return
	}

	token, err := h.serviceLayer.LogIn(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		newErrorResponse(c, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())

		return
	case errors.Is(err, service.ErrStorageUnavailable):
		newErrorResponse(c, http.StatusServiceUnavailable, "service unavailable")

		return
	default:
		log.Error("failed to log in", slog.Any("error", err))

		newErrorResponse(c, http.StatusInternalServerError, "failed to log in")

		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   tokenType,
	})
}

// GET /protected
func (h *Handler) Protected(c *gin.Context) {
	username := c.GetString(usernameKey)
	if username == "" {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	c.JSON(http.StatusOK, gin.H{"username": username})
}

// GET /healthz
func (h *Handler) Health(c *gin.Context) {
	const op = "handler.Health"

	stats, err := h.serviceLayer.Stats(c.Request.Context())
	if err != nil {
		h.logger(c, op).Error("health check failed", slog.Any("error", err))

		newErrorResponse(c, http.StatusServiceUnavailable, "storage unavailable")

		return
	}

	c.JSON(http.StatusOK, healthResponse{Status: "ok", Users: stats.Users})
}
