package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskPlanner/internal/broadcast"
	"taskPlanner/internal/config"
	"taskPlanner/internal/handlers"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/middleware"
	"taskPlanner/internal/service"
	"taskPlanner/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	storage   *storage
	hub       *broadcast.Hub
	service   *service.TaskService
	worker    *worker.BottleneckWorker
	shutdowns []func() // функции для graceful shutdown, вызываются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	st, err := openStorage(ctx, a.config)
	if err != nil {
		return err
	}
	a.storage = st
	a.shutdowns = append(a.shutdowns, st.close)

	a.hub = broadcast.NewHub(a.config.Broadcast.BufferSize)
	a.shutdowns = append(a.shutdowns, a.hub.Close)

	a.service = service.NewTaskService(st.tasks, st.users, a.serviceOptions()...)

	a.worker = worker.NewBottleneckWorker(st.tasks, a.hub, worker.Config{
		Interval:   a.config.Worker.Interval,
		BatchSize:  a.config.Worker.BatchSize,
		WarnBefore: a.config.Worker.WarnBefore,
		Cooldown:   a.config.Worker.Cooldown,
	})

	a.router = a.routes()
	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
	return nil
}

func (a *App) serviceOptions() []service.Option {
	start, end := a.config.WorkWindow()
	options := []service.Option{
		service.WithEvents(a.hub),
		service.WithWorkWindow(start, end),
		service.WithLimits(a.config.Coach.Window, a.config.Scheduler.TaskLimit),
		service.WithRetry(service.RetryConfig{
			MaxRetries:      a.config.Service.MaxRetries,
			InitialInterval: a.config.Service.RetryInitial,
			MaxInterval:     a.config.Service.RetryMax,
			FetchTimeout:    a.config.Service.FetchTimeout,
		}),
	}
	if a.config.Service.MembershipCheck {
		options = append(options, service.WithVisibility(service.MembershipVisibility{Users: a.storage.users}))
	}
	return options
}

func (a *App) routes() *chi.Mux {
	taskHandler := handlers.NewTaskHandler(a.service)
	secret := []byte(a.config.Auth.Secret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	r.Get("/health", taskHandler.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(secret))

		// websocket живёт дольше любого таймаута запроса
		r.Handle("/ws", broadcast.NewWSHandler(a.hub, a.service, middleware.CallerIDFromContext))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(a.config.Server.RequestTimeout))

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.GetTasks)  // GET /tasks
				r.Post("/", taskHandler.PostTask) // POST /tasks

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.GetTaskByID)       // GET /tasks/{id}
					r.Patch("/", taskHandler.UpdateTaskByID)  // PATCH /tasks/{id}
					r.Put("/", taskHandler.UpdateTaskByID)    // PUT /tasks/{id}
					r.Delete("/", taskHandler.DeleteTaskByID) // DELETE /tasks/{id}

					r.Post("/timer/start", taskHandler.StartTimer) // POST /tasks/{id}/timer/start
					r.Post("/timer/stop", taskHandler.StopTimer)   // POST /tasks/{id}/timer/stop
				})
			})

			r.Route("/ai", func(r chi.Router) {
				r.Get("/coach", taskHandler.GetCoachAdvice)  // GET /ai/coach
				r.Post("/schedule", taskHandler.PostSchedule) // POST /ai/schedule?apply=true
			})
		})
	})

	return r
}

// Run запускает HTTP-сервер и воркер, блокируется до отмены ctx или ошибки
func (a *App) Run(ctx context.Context) error {
	defer a.shutdown()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr), zap.String("repository", a.config.Repository.Type))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	if a.config.Worker.Enabled {
		g.Go(func() error {
			a.worker.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}

// Close освобождает ресурсы, если Run не вызывался
func (a *App) Close() {
	a.shutdown()
}
