package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"hirebot-engine/internal/admin"
	"hirebot-engine/internal/chat"
	"hirebot-engine/internal/config"
	"hirebot-engine/internal/events"
	"hirebot-engine/internal/intake"
	"hirebot-engine/internal/pipeline"
	"hirebot-engine/internal/queue"
	"hirebot-engine/internal/records"
	"hirebot-engine/internal/scheduler"
	"hirebot-engine/internal/secrets"
	"hirebot-engine/internal/sourcing"
	emailintake "hirebot-engine/internal/sourcing/email"
	"hirebot-engine/internal/statusapi"
	"hirebot-engine/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	dataDir := os.Getenv("USERS_DATA_DIR")
	if dataDir == "" {
		dataDir = "/users_data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine per data dir: the sqlite store and the polling loops
	// must not run twice.
	lock := flock.New(filepath.Join(dataDir, "hirebot.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("data dir lock failed: %v", err)
	}
	if !locked {
		log.Fatalf("another instance already holds %s", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	config.OverlayEnv(&cfg)
	cfg.App.DataDir = dataDir

	cfg, validation := config.NormalizeAndValidate(cfg)
	for _, w := range validation.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !validation.OK() {
		for _, e := range validation.Errors {
			log.Printf("[config] error: %s", e)
		}
		log.Fatal("config is invalid")
	}

	db, err := store.Open(filepath.Join(dataDir, "hirebot.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	botToken, err := secrets.BotToken()
	if err != nil {
		log.Fatal(err)
	}
	tg, err := chat.NewTelegram(botToken, cfg.Admin.ChatID)
	if err != nil {
		log.Fatal(err)
	}

	boardToken, err := secrets.BoardToken(cfg)
	if err != nil {
		// board API commands will fail at call time; sourcing from the
		// public search pages still works
		log.Printf("[secrets] %v", err)
	}

	hub := events.NewHub()
	tasks := queue.New(cfg.Queue.Depth, cfg.Queue.Workers,
		time.Duration(cfg.Queue.TaskTimeoutSeconds)*time.Second, hub)

	recs := records.New(db)
	limiter := sourcing.NewHostLimiter(cfg.Board.ReqPerSec, cfg.Board.Burst)
	board := sourcing.NewBoard(sourcing.BoardConfig{
		SearchURL:  cfg.Board.SearchURL,
		MaxResumes: cfg.Board.MaxResumes,
	}, limiter)
	api := sourcing.NewAPI(cfg.Board.APIBaseURL, boardToken, limiter)

	pipe := pipeline.New(cfg, db, recs, tasks, hub, tg, tg, board, api)

	dispatcher, err := admin.New(admin.Config{
		AdminID: cfg.Admin.ChatID,
		DataDir: dataDir,
	}, recs, pipe, tg, tg)
	if err != nil {
		log.Fatal(err)
	}

	router := chat.NewRouter()
	dispatcher.Register(router)
	intake.New(db, tg).Register(router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := tasks.Start(ctx); err != nil {
			log.Printf("[queue] stopped: %v", err)
		}
	}()

	go forwardTaskFailures(ctx, hub, tg)

	if cfg.App.StatusAddr != "" {
		mux := statusapi.NewMux(statusapi.Deps{DB: db.Pool, Hub: hub, QueueLen: tasks.Len})
		srv := &http.Server{
			Addr:              cfg.App.StatusAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Printf("[statusapi] listening on http://%s", cfg.App.StatusAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("[statusapi] stopped: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()
	}

	go scheduler.Every(ctx, time.Duration(cfg.Polling.NegotiationsSeconds)*time.Second,
		"negotiations", pipe.RefreshAllNegotiations)
	go scheduler.Every(ctx, time.Duration(cfg.Polling.VideoStatusSeconds)*time.Second,
		"video", pipe.RefreshAllVideoStatuses)

	if cfg.Email.Enabled {
		pw, err := secrets.IMAPPassword(cfg)
		if err != nil {
			log.Printf("[secrets] %v; email intake disabled", err)
		} else {
			in := emailintake.NewIntake(cfg, pw)
			go scheduler.Every(ctx, time.Duration(cfg.Polling.VideoStatusSeconds)*time.Second,
				"email-intake", func(ctx context.Context) error {
					subs, err := in.Poll(ctx)
					if err != nil {
						return err
					}
					if len(subs) == 0 {
						return nil
					}
					return pipe.ApplyVideoSubmissions(ctx, subs)
				})
		}
	}

	log.Printf("[bot] running (data=%s)", dataDir)
	router.Run(ctx, tg.Updates(ctx))
	log.Print("[bot] shutting down")
}

// forwardTaskFailures pushes queue failures to the admin chat so
// background tasks fail loudly, matching the command error reports.
func forwardTaskFailures(ctx context.Context, hub *events.Hub, notifier chat.Notifier) {
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if evt.Type != "task_failed" && evt.Type != "task_panic" {
				continue
			}
			text := "⚠️ Background task failed: " + evt.Detail
			if evt.ChatID != "" {
				text += "\nUser ID: " + evt.ChatID
			}
			if err := notifier.NotifyAdmin(ctx, text); err != nil {
				log.Printf("[bot] failure notification failed: %v", err)
			}
		}
	}
}
