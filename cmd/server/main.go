package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/person-api/internal/api"
	"github.com/ignite/person-api/internal/config"
	"github.com/ignite/person-api/internal/pkg/distlock"
	"github.com/ignite/person-api/internal/pkg/logger"
	"github.com/ignite/person-api/internal/repository/postgres"
	"github.com/ignite/person-api/internal/service/person"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

// connectRedis returns nil when url is empty or the server does not answer.
func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		logger.Info("redis not configured, email locks use postgres advisory locks")
		return nil
	}

	opts, err := redis.ParseURL(url)
	var client *redis.Client
	if err != nil {
		client = redis.NewClient(&redis.Options{Addr: url})
	} else {
		client = redis.NewClient(opts)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis connection failed, falling back to postgres advisory locks", "error", err)
		client.Close()
		return nil
	}
	logger.Info("redis connected")
	return client
}

func fatal(msg string, fields ...interface{}) {
	logger.Error(msg, fields...)
	os.Exit(1)
}

func main() {
	configPath := "config/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		fatal("failed to load config", "path", configPath, "error", err)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Redact())

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		fatal("pre-flight check failed", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		fatal("failed to connect to database", "host", postgres.RedactDSN(cfg.Database.URL), "error", err)
	}
	defer db.Close()
	logger.Info("database connected",
		"host", postgres.RedactDSN(cfg.Database.URL),
		"atomic_writes", cfg.Database.Atomic())

	redisClient := connectRedis(ctx, cfg.Redis.URL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	repo := postgres.NewPersonRepo(db, cfg.Database.Atomic())
	validator := person.NewValidator(repo, cfg.Validation.MinAge)

	var opts []person.Option
	if cfg.Locking.Enabled {
		ttl := cfg.Locking.TTL()
		opts = append(opts, person.WithEmailLocks(func(key string) person.Lock {
			return distlock.NewLock(redisClient, db, key, ttl)
		}))
		logger.Info("email reservation locks enabled", "ttl", ttl.String(), "redis", redisClient != nil)
	}
	svc := person.NewService(repo, validator, opts...)

	server := api.NewServer(cfg.Server, svc, db, redisClient)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			fatal("server error", "error", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
