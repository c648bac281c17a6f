package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/nexlearn/campus-api/api/swagger"
	"github.com/nexlearn/campus-api/internal/handler"
	internalmiddleware "github.com/nexlearn/campus-api/internal/middleware"
	"github.com/nexlearn/campus-api/internal/models"
	"github.com/nexlearn/campus-api/internal/repository"
	"github.com/nexlearn/campus-api/internal/service"
	"github.com/nexlearn/campus-api/pkg/cache"
	"github.com/nexlearn/campus-api/pkg/config"
	"github.com/nexlearn/campus-api/pkg/database"
	"github.com/nexlearn/campus-api/pkg/export"
	"github.com/nexlearn/campus-api/pkg/jobs"
	"github.com/nexlearn/campus-api/pkg/logger"
	corsmiddleware "github.com/nexlearn/campus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nexlearn/campus-api/pkg/middleware/requestid"
	"github.com/nexlearn/campus-api/pkg/storage"
)

// @title Campus API
// @version 1.0.0
// @description School management backend: bulk roster imports and fee lifecycle
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	uploads, err := storage.NewLocalStorage(cfg.Imports.UploadDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare uploads directory", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	historyRepo := repository.NewImportHistoryRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	trackingStart := time.Time{}
	if cfg.Fees.TrackingStart != "" {
		if t, err := time.Parse(models.DueMonthLayout, cfg.Fees.TrackingStart); err == nil {
			trackingStart = t
		} else {
			logr.Sugar().Warnw("invalid FEES_TRACKING_START, ignoring", "value", cfg.Fees.TrackingStart)
		}
	}

	feeService := service.NewFeeService(feeRepo, studentRepo, validate, logr, service.FeeServiceConfig{
		TrackingStart:  trackingStart,
		DefaultFeeType: cfg.Fees.DefaultFeeType,
	})
	importService := service.NewImportService(userRepo, studentRepo, teacherRepo, staffRepo, historyRepo, feeService, cfg.Imports.EmailDomain, logr)
	studentService := service.NewStudentService(studentRepo, userRepo, feeService, validate, logr, cfg.Imports.EmailDomain)
	teacherService := service.NewTeacherService(teacherRepo, userRepo, validate, logr, cfg.Imports.EmailDomain)
	staffService := service.NewStaffService(staffRepo, userRepo, validate, logr)
	noticeService := service.NewNoticeService(noticeRepo, validate, logr)
	meetingService := service.NewMeetingService(meetingRepo, validate, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, validate, logr)
	dashboardService := service.NewDashboardService(dashboardRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)
	metricsService := service.NewMetricsService()

	feeService.SetSummaryCache(dashboardService)
	feeService.SetMetrics(metricsService)
	studentService.SetSummaryCache(dashboardService)
	importService.SetSummaryCache(dashboardService)

	feeQueue := jobs.NewQueue("fee-generation", feeService.HandleGenerationJob, jobs.QueueConfig{
		Workers: cfg.Fees.GenerationWorkers,
		Logger:  logr,
	})
	feeService.SetQueue(feeQueue)

	receipts := export.NewReceiptExporter("Campus")

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := handler.Handlers{
		Imports:       handler.NewImportHandler(importService, metricsService, uploads, cfg.Imports.MaxFileSizeBytes, cfg.Imports.UploadTTL, logr),
		Fees:          handler.NewFeeHandler(feeService, studentService, receipts),
		Students:      handler.NewStudentHandler(studentService),
		Teachers:      handler.NewTeacherHandler(teacherService),
		StudentOwners: studentService,
		TeacherOwners: teacherService,
		AdminStaff:    handler.NewStaffHandler(staffService, models.StaffTypeAdmin),
		Support:       handler.NewStaffHandler(staffService, models.StaffTypeSupport),
		Notices:       handler.NewNoticeHandler(noticeService),
		Meetings:      handler.NewMeetingHandler(meetingService),
		Attendance:    handler.NewAttendanceHandler(attendanceService),
	}
	if cfg.Dashboard.Enabled {
		handlers.Dashboard = handler.NewDashboardHandler(dashboardService)
	}
	api := r.Group(cfg.APIPrefix)
	handler.RegisterRoutes(api, handlers, cfg.JWT.Secret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feeQueue.Start(ctx)
	defer feeQueue.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
