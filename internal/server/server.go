package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/av-mamzikov/family-task-manager/internal/backup"
	"github.com/av-mamzikov/family-task-manager/internal/config"
	"github.com/av-mamzikov/family-task-manager/internal/events"
	"github.com/av-mamzikov/family-task-manager/internal/handler"
	"github.com/av-mamzikov/family-task-manager/internal/middleware"
	"github.com/av-mamzikov/family-task-manager/internal/mood"
	"github.com/av-mamzikov/family-task-manager/internal/push"
	"github.com/av-mamzikov/family-task-manager/internal/scheduler"
	"github.com/av-mamzikov/family-task-manager/internal/store"
	"github.com/av-mamzikov/family-task-manager/internal/task"
	ws "github.com/av-mamzikov/family-task-manager/internal/websocket"
)

// Server wires stores, the task core, the scheduler and the HTTP surface
// together. Construction is pure wiring; nothing starts until the caller
// starts the runner and dispatcher.
type Server struct {
	db  *sql.DB
	hub *ws.Hub

	familyH   *handler.FamilyHandler
	spotH     *handler.SpotHandler
	templateH *handler.TemplateHandler
	taskH     *handler.TaskHandler
	pushH     *handler.PushHandler

	runner     *scheduler.Runner
	dispatcher *events.Dispatcher
	backupMgr  *backup.Manager

	logger *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	familyStore := store.NewFamilyStore(db)
	memberStore := store.NewFamilyMemberStore(db)
	spotStore := store.NewSpotStore(db)
	templateStore := store.NewTemplateStore(db)
	taskStore := store.NewTaskStore(db)
	eventStore := store.NewEventStore(db)
	pushStore := store.NewPushStore(db)
	settingsStore := store.NewSettingsStore(db)

	moodRecalc := mood.NewRecalculator(
		mood.NewTaskPressureCalculator(taskStore),
		spotStore, eventStore, logger.With("component", "mood"),
	)

	taskSvc := task.NewService(taskStore, templateStore, spotStore, memberStore, eventStore,
		moodRecalc, logger.With("component", "task"))

	pushSvc := push.NewService(push.Config{
		VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
		Subscriber:      cfg.Push.Subscriber,
	})
	notifier := push.NewNotifier(pushSvc, pushStore, logger.With("component", "push"))

	orchestrator := scheduler.NewOrchestrator(templateStore, spotStore, taskStore, memberStore,
		eventStore, moodRecalc, logger.With("component", "orchestrator"))
	reminders := scheduler.NewReminderService(familyStore, taskStore, eventStore, notifier,
		cfg.Scheduler.OverdueHour, logger.With("component", "reminders"))
	runner := scheduler.NewRunner(orchestrator, reminders, settingsStore,
		cfg.Scheduler.Interval.Duration(), logger.With("component", "scheduler"))

	dispatcher := events.NewDispatcher(eventStore, hub,
		cfg.Scheduler.DispatchInterval.Duration(), logger.With("component", "dispatcher"))

	backupMgr := backup.NewManager(backup.Config{
		Endpoint:  cfg.Backup.Endpoint,
		Bucket:    cfg.Backup.Bucket,
		Region:    cfg.Backup.Region,
		AccessKey: cfg.Backup.AccessKey,
		SecretKey: cfg.Backup.SecretKey,
	}, db, cfg.DBPath, logger.With("component", "backup"))

	return &Server{
		db:         db,
		hub:        hub,
		familyH:    handler.NewFamilyHandler(familyStore, memberStore, logger.With("component", "family")),
		spotH:      handler.NewSpotHandler(spotStore, memberStore, familyStore, logger.With("component", "spot")),
		templateH:  handler.NewTemplateHandler(templateStore, spotStore, memberStore, taskSvc, logger.With("component", "template")),
		taskH:      handler.NewTaskHandler(taskSvc, taskStore, logger.With("component", "task_handler")),
		pushH:      handler.NewPushHandler(pushStore, memberStore, pushSvc, logger.With("component", "push_handler")),
		runner:     runner,
		dispatcher: dispatcher,
		backupMgr:  backupMgr,
		logger:     logger,
	}
}

// Runner returns the scheduler runner for lifecycle management.
func (s *Server) Runner() *scheduler.Runner {
	return s.runner
}

// Dispatcher returns the event dispatcher for lifecycle management.
func (s *Server) Dispatcher() *events.Dispatcher {
	return s.dispatcher
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupMgr
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Family API routes
	mux.HandleFunc("POST /api/families", s.familyH.Create)
	mux.HandleFunc("GET /api/families/{id}", s.familyH.Get)
	mux.HandleFunc("PUT /api/families/{id}/timezone", s.familyH.UpdateTimezone)
	mux.HandleFunc("POST /api/families/{id}/members", s.familyH.CreateMember)
	mux.HandleFunc("GET /api/families/{id}/members", s.familyH.ListMembers)
	mux.HandleFunc("DELETE /api/members/{id}", s.familyH.DeactivateMember)

	// Spot API routes
	mux.HandleFunc("POST /api/spots", s.spotH.Create)
	mux.HandleFunc("GET /api/spots", s.spotH.List)
	mux.HandleFunc("GET /api/spots/{id}", s.spotH.Get)
	mux.HandleFunc("PUT /api/spots/{id}/members", s.spotH.SetResponsibleMembers)
	mux.HandleFunc("DELETE /api/spots/{id}", s.spotH.Delete)

	// Template API routes
	mux.HandleFunc("POST /api/templates", s.templateH.Create)
	mux.HandleFunc("GET /api/templates", s.templateH.List)
	mux.HandleFunc("GET /api/templates/{id}", s.templateH.Get)
	mux.HandleFunc("PUT /api/templates/{id}", s.templateH.Update)
	mux.HandleFunc("PUT /api/templates/{id}/members", s.templateH.SetResponsibleMembers)
	mux.HandleFunc("DELETE /api/templates/{id}", s.templateH.Delete)
	mux.HandleFunc("POST /api/templates/{id}/materialize", s.templateH.Materialize)

	// Task API routes
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("POST /api/tasks/{id}/take", s.taskH.Take)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("POST /api/tasks/{id}/refuse", s.taskH.Refuse)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Push notification API routes
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscribe", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
