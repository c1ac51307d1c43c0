package v1

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	AuthService    *service.AuthService
	PatientService *service.PatientService
	Metrics        *metrics.Collector
	CORS           config.CORSConfig
	ServiceName    string
	Log            *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logger(deps.Log),
		middleware.Recovery(deps.Log),
		middleware.Tracing(deps.ServiceName),
		corsMiddleware(deps.CORS),
	)
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	r.GET("/", func(c *gin.Context) {
		respondMessage(c, http.StatusOK, "Patient Management System API")
	})
	r.GET("/about", func(c *gin.Context) {
		respondMessage(c, http.StatusOK, "A fully functional API to manage your patient records")
	})
	r.GET("/healthz", healthz(deps.PatientService))
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	authHandler := NewAuthHandler(deps.AuthService, deps.Log)
	authGroup := r.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	patientHandler := NewPatientHandler(deps.PatientService, deps.Log)
	patients := r.Group("/patients", middleware.RequireAuth(deps.AuthService))
	patients.GET("/view", patientHandler.View)
	patients.GET("/patient/:id", patientHandler.Get)
	patients.GET("/sort", patientHandler.Sort)
	patients.GET("/group_by_disease", patientHandler.GroupByDisease)
	patients.GET("/group_by_condition", patientHandler.GroupByCondition)
	patients.GET("/filter", patientHandler.Filter)
	patients.POST("/create", patientHandler.Create)
	patients.PUT("/edit/:id", patientHandler.Update)
	patients.DELETE("/delete/:id", patientHandler.Delete)

	return r
}

func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods: cfg.AllowedMethods,
		AllowHeaders: cfg.AllowedHeaders,
		MaxAge:       cfg.MaxAge,
	}
	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(c)
}

func healthz(svc *service.PatientService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := svc.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
