package main

import (
	"context"

	"maintenance-service/internal/handler"
	"maintenance-service/internal/middleware"
	"maintenance-service/internal/model"
	"maintenance-service/internal/permission"
	"maintenance-service/internal/repository"
	"maintenance-service/internal/scheduler"
	"maintenance-service/pkg/cache"
	"maintenance-service/pkg/config"
	"maintenance-service/pkg/database"
	"maintenance-service/pkg/jwtutil"
	"maintenance-service/pkg/logger"
	"maintenance-service/pkg/storage"
	"maintenance-service/prometheus"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting maintenance-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Database handle connects lazily; run migrations eagerly so schema
	// problems surface at boot.
	db := database.New(&appConfig.Database, appConfig.Server.Env)
	if err := db.Migrate(context.Background(),
		&model.Tenant{}, &model.User{}, &model.Machine{},
		&model.MachineDocument{}, &model.WorkOrder{}, &model.PreventivePlan{},
	); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	repos := repository.New(db)

	// Redis cache for the tenant metrics overview
	metricsCache := cache.New(&appConfig.Redis)
	defer metricsCache.Close()

	// Presigned upload credentials
	presigner, err := storage.NewS3Presigner(context.Background(), &appConfig.Storage)
	if err != nil {
		log.Fatal("Failed to initialize storage presigner", zap.Error(err))
	}

	// Preventive-plan scheduler
	if appConfig.Scheduler.Enabled {
		sched := scheduler.New(repos.Plans, &appConfig.Scheduler, log)
		if err := sched.Start(); err != nil {
			log.Fatal("Failed to start preventive scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	// Handlers
	authHandler := handler.NewAuthHandler(repos)
	userHandler := handler.NewUserHandler(repos)
	machineHandler := handler.NewMachineHandler(repos)
	documentHandler := handler.NewDocumentHandler(repos, presigner)
	workOrderHandler := handler.NewWorkOrderHandler(repos)
	planHandler := handler.NewPlanHandler(repos)
	metricsHandler := handler.NewMetricsHandler(repos, metricsCache)

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler

	// Middleware
	e.Use(echomw.Recover())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(middleware.MetricsMiddleware)

	// Operational endpoints
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	e.GET("/health", handler.Health)

	// Public endpoints
	e.POST("/api/signup", authHandler.Signup)
	e.POST("/api/auth/login", authHandler.Login)

	// Machines
	machines := e.Group("/api/machines")
	machines.GET("", machineHandler.List, middleware.RequireAuth)
	machines.POST("", machineHandler.Create, middleware.RequirePermission(permission.MachinesCreate))
	machines.GET("/:id", machineHandler.Get, middleware.RequireAuth)
	machines.PUT("/:id", machineHandler.Update, middleware.RequirePermission(permission.MachinesUpdate))
	machines.DELETE("/:id", machineHandler.Delete, middleware.RequirePermission(permission.MachinesDelete))

	// Machine documents
	machines.GET("/:id/documents", documentHandler.List, middleware.RequireAuth)
	machines.POST("/:id/documents/prepare-upload", documentHandler.PrepareUpload,
		middleware.RequirePermission(permission.DocumentsUpload))
	machines.POST("/:id/documents/confirm-upload", documentHandler.ConfirmUpload,
		middleware.RequirePermission(permission.DocumentsUpload))

	// Preventive plans
	plans := e.Group("/api/preventive-plans")
	plans.GET("", planHandler.List, middleware.RequireAuth)
	plans.POST("", planHandler.Create, middleware.RequirePermission(permission.PreventivePlansCreate))
	plans.GET("/:id", planHandler.Get, middleware.RequireAuth)
	plans.PUT("/:id", planHandler.Update, middleware.RequirePermission(permission.PreventivePlansUpdate))
	plans.DELETE("/:id", planHandler.Delete, middleware.RequirePermission(permission.PreventivePlansDelete))

	// Work orders
	workOrders := e.Group("/api/work-orders")
	workOrders.GET("", workOrderHandler.List, middleware.RequireAuth)
	workOrders.POST("", workOrderHandler.Create, middleware.RequirePermission(permission.WorkOrdersCreate))
	workOrders.GET("/:id", workOrderHandler.Get, middleware.RequireAuth)
	workOrders.PUT("/:id", workOrderHandler.Update, middleware.RequirePermission(permission.WorkOrdersUpdate))
	workOrders.DELETE("/:id", workOrderHandler.Delete, middleware.RequirePermission(permission.WorkOrdersDelete))
	workOrders.POST("/:id/assign", workOrderHandler.Assign, middleware.RequirePermission(permission.WorkOrdersAssign))
	workOrders.POST("/:id/start", workOrderHandler.Start, middleware.RequirePermission(permission.WorkOrdersStart))
	workOrders.POST("/:id/finish", workOrderHandler.Finish, middleware.RequirePermission(permission.WorkOrdersFinish))

	// Users and tenant metrics
	e.POST("/api/users", userHandler.Create, middleware.RequirePermission(permission.UsersCreate))
	e.GET("/api/metrics", metricsHandler.Overview, middleware.RequirePermission(permission.MetricsRead))

	// Start server
	log.Info("Starting server", zap.String("port", appConfig.Server.Port))
	if err := e.Start(":" + appConfig.Server.Port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
