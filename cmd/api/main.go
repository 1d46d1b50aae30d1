package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/bryanwahyu/creative-lens/internal/application"
	appanalysis "github.com/bryanwahyu/creative-lens/internal/application/analysis"
	appassets "github.com/bryanwahyu/creative-lens/internal/application/assets"
	appcrm "github.com/bryanwahyu/creative-lens/internal/application/crm"
	apphistory "github.com/bryanwahyu/creative-lens/internal/application/history"
	"github.com/bryanwahyu/creative-lens/internal/config"
	domai "github.com/bryanwahyu/creative-lens/internal/domain/ai"
	domassets "github.com/bryanwahyu/creative-lens/internal/domain/assets"
	domcrm "github.com/bryanwahyu/creative-lens/internal/domain/crm"
	domhistory "github.com/bryanwahyu/creative-lens/internal/domain/history"
	"github.com/bryanwahyu/creative-lens/internal/infra/ai/gateway"
	geminiClient "github.com/bryanwahyu/creative-lens/internal/infra/ai/gemini"
	openaiClient "github.com/bryanwahyu/creative-lens/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/creative-lens/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/creative-lens/internal/infra/db/postgres"
	"github.com/bryanwahyu/creative-lens/internal/infra/httpserver"
	"github.com/bryanwahyu/creative-lens/internal/infra/kv"
	minioStore "github.com/bryanwahyu/creative-lens/internal/infra/storage"
	"github.com/bryanwahyu/creative-lens/internal/middleware"
)

func main() {
	// .env opsional, untuk development lokal
	_ = godotenv.Load()

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect DB sesuai driver
	var db *sql.DB
	var graph domcrm.Graph
	var assetRepo domassets.Repository
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		graph = postgresp.NewGraphRepository(db)
		assetRepo = postgresp.NewAssetRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		graph = mysqlp.NewGraphRepository(db)
		assetRepo = mysqlp.NewAssetRepository(db)
	}
	defer db.Close()

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// init KV backend untuk history
	var store2 domhistory.KV
	var redisKV *kv.RedisKV
	switch cfg.History.Backend {
	case "redis":
		redisKV, err = kv.NewRedisKV(ctx, cfg.History.Redis.Addr, cfg.History.Redis.Password, cfg.History.Redis.DB)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		store2 = redisKV
	case "memory":
		store2 = kv.NewMemoryKV(int(cfg.History.MaxBytes))
	default:
		fileKV, err := kv.NewFileKV(cfg.History.Path, int(cfg.History.MaxBytes))
		if err != nil {
			log.Fatalf("file kv init error: %v", err)
		}
		store2 = fileKV
	}

	// init AI providers sesuai urutan preferensi
	var providers []domai.Provider
	for _, name := range cfg.AI.Preference {
		switch name {
		case "openai":
			if cfg.AI.OpenAIKey != "" {
				providers = append(providers, openaiClient.NewClient(cfg.AI.OpenAIKey, cfg.AI.OpenAIModel))
			}
		case "gemini":
			if cfg.AI.GeminiKey != "" {
				gc, err := geminiClient.NewClient(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiModel)
				if err != nil {
					log.Fatalf("gemini init error: %v", err)
				}
				providers = append(providers, gc)
			}
		default:
			log.Printf("unknown ai provider in preference list: %s", name)
		}
	}
	if len(providers) == 0 {
		log.Println("warning: no ai provider configured, all analyses will degrade")
	}
	gw := gateway.New(providers...)

	clock := application.SystemClock{}

	// init services
	historyStore := &apphistory.Store{
		KV:         store2,
		Clock:      clock,
		MaxEntries: cfg.History.MaxEntries,
	}
	linker := &appcrm.Linker{Graph: graph, Clock: clock}
	analysisSvc := &appanalysis.Service{
		Scorers: &appanalysis.Scorers{Gateway: gw},
		History: historyStore,
		Linker:  linker,
		Clock:   clock,
	}
	assetsSvc := &appassets.Service{
		Repo:     assetRepo,
		Binaries: store,
		Clock:    clock,
	}

	// health checks
	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}
	if redisKV != nil {
		checkers["redis"] = &middleware.PingChecker{Ping: redisKV.Ping}
	}

	// retention sweep, jalan sesuai jadwal cron
	c := cron.New()
	retention := time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
	_, err = c.AddFunc(cfg.History.SweepSchedule, func() {
		for tenant := range cfg.Auth.APIKeys {
			removed, err := historyStore.Sweep(context.Background(), tenant, retention)
			if err != nil {
				log.Printf("history sweep failed: tenant=%s err=%v", tenant, err)
				continue
			}
			if removed > 0 {
				log.Printf("history sweep: tenant=%s removed=%d", tenant, removed)
			}
		}
	})
	if err != nil {
		log.Fatalf("cron schedule error: %v", err)
	}
	c.Start()
	defer c.Stop()

	// init router + middleware chain
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	mux.Mount("/", httpserver.NewRouter(analysisSvc, historyStore, assetsSvc, graph, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second, // analisa vision bisa lama
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s providers=%v history_backend=%s", addr, gw.Providers(), cfg.History.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
