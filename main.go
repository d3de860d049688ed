package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/coedit/coedit/handlers"
	"github.com/coedit/coedit/internal/config"
	"github.com/coedit/coedit/internal/database"
	"github.com/coedit/coedit/internal/document/repository"
	docservice "github.com/coedit/coedit/internal/document/service"
	"github.com/coedit/coedit/internal/room"
	"github.com/coedit/coedit/internal/sessions"
	"github.com/coedit/coedit/internal/storage"
	"github.com/coedit/coedit/internal/tokens"
	"github.com/coedit/coedit/internal/users"
	"github.com/coedit/coedit/pkg/logger"
	"github.com/coedit/coedit/pkg/metrics"
	"github.com/coedit/coedit/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", os.Getenv("MINIO_ENDPOINT") != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond
	// to OPTIONS. Production deployments sit behind a stricter proxy policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Connect to Redis early so sessions and the rate-limiter can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Session store: Redis when available, in-memory otherwise
	var sessionRepo sessions.Repository
	if redisClient != nil {
		sessionRepo = sessions.NewRedisRepository(redisClient, "session:")
		logger.Infof("using Redis for session storage")
	} else {
		sessionRepo = sessions.NewMemoryRepository()
		logger.Warnf("using in-memory session storage; sessions are lost on restart")
	}
	sessionsSvc := sessions.NewService(cfg, sessionRepo)

	// Durable stores: MongoDB when configured, in-memory fallbacks otherwise.
	// Retry/backoff tolerates startup races against the database container.
	var userRepo users.Repository = users.NewMemoryRepository()
	var docRepo repository.Repository = repository.NewMemoryRepo()
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var client *mongo.Client
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts, falling back to in-memory stores: %v", maxAttempts, errConn)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)
			userRepo = users.NewMongoRepository(db.Collection("users"))
			docRepo = repository.NewMongoRepo(db.Collection("documents"))
			logger.Infof("connected to MongoDB database %q", cfg.MongoDB.Database)
		}
	} else {
		logger.Warnf("MONGODB_URI not set; documents and users are stored in memory")
	}

	usersSvc := users.NewService(userRepo)
	docsSvc := docservice.New(docRepo, usersSvc)

	// Optional snapshot archive in object storage
	var snapshots *storage.SnapshotStore
	if mc := storage.LoadMinIOConfig(); mc.Endpoint != "" {
		snapshots, err = storage.NewSnapshotStore(mc)
		if err != nil {
			logger.Warnf("snapshot store unavailable: %v", err)
			snapshots = nil
		} else {
			logger.Infof("snapshot archive enabled (bucket %s)", mc.Bucket)
		}
	}

	// Realtime plumbing: rooms, fan-out, fire-and-forget persistence
	registry := room.NewRegistry()
	var archiver room.Archiver
	if snapshots != nil {
		archiver = snapshots
	}
	router := room.NewRouter(registry, room.NewGateway(docRepo, archiver))

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint: 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["sessions"] = sessionRepo != nil
		deps["documents"] = docRepo != nil
		deps["users"] = userRepo != nil

		// Redis readiness when it backs sessions or the rate-limiter
		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// HTTP surface
	auth := middleware.AuthMiddleware(tokens.NewVerifier(cfg, usersSvc))
	root := r.Group("/")
	handlers.NewAuthHandler(cfg, usersSvc, sessionsSvc).Register(root)
	api := r.Group("/api")
	handlers.NewDocumentsHandler(docsSvc, snapshots).Register(api, auth)
	handlers.NewUsersHandler(usersSvc).Register(api)
	handlers.NewWSHandler(cfg, usersSvc, docsSvc, registry, router).Register(r)
	handlers.RegisterSwagger(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Debugf("services: users=%v sessions=%v snapshots=%v", usersSvc != nil, sessionsSvc != nil, snapshots != nil)
	logger.Infof("starting coedit on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
