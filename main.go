package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"dealboard/api"
	"dealboard/board"
	"dealboard/domain"
	"dealboard/remote"
	"dealboard/snapshot"
)

const defaultGroups = "backlog:Backlog,contacted:Contacted,proposal:Proposal,won:Won,lost:Lost"

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.New()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("missing DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), envDur("STARTUP_TIMEOUT", 30*time.Second))
	defer cancel()

	gateway, err := remote.Open(ctx, databaseURL)
	if err != nil {
		log.Fatalf("remote store: %v", err)
	}
	defer gateway.Close()

	var snap snapshot.Store
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		opts, err := redis.ParseURL(redisConn)
		if err != nil {
			log.Fatalf("invalid REDIS_CONNECTION_STRING: %v", err)
		}
		snap = snapshot.NewRedis(redis.NewClient(opts), os.Getenv("SNAPSHOT_KEY"), logger)
	} else {
		snap = snapshot.NewFile(envString("SNAPSHOT_PATH", "dealboard-snapshot.json"), logger)
	}

	groups, err := parseGroups(envString("GROUPS", defaultGroups))
	if err != nil {
		log.Fatalf("invalid GROUPS: %v", err)
	}

	b, err := board.New(ctx, board.Config{
		Groups:         groups,
		Snapshot:       snap,
		Gateway:        gateway,
		Logger:         logger,
		DebounceWindow: envDur("DEBOUNCE_WINDOW", 600*time.Millisecond),
		PushTimeout:    envDur("PUSH_TIMEOUT", 30*time.Second),
	})
	if err != nil {
		log.Fatalf("board: %v", err)
	}
	defer b.Close()

	// snapshot first, remote second: the board serves local state even when
	// the remote store is unreachable at startup
	if err := b.RefreshFromRemote(ctx); err != nil {
		logger.WithError(err).Warn("starting from local snapshot only")
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Register(e, b, logger)

	listenAddr := envString("LISTEN_ADDR", ":8080")
	e.Logger.Fatal(e.Start(listenAddr))
}

// parseGroups reads "id:Title,id:Title" into the static group set.
func parseGroups(raw string) ([]domain.Group, error) {
	parts := strings.Split(raw, ",")
	groups := make([]domain.Group, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, title, ok := strings.Cut(p, ":")
		if !ok || id == "" {
			return nil, fmt.Errorf("bad group entry: %q", p)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate group id: %q", id)
		}
		seen[id] = struct{}{}
		groups = append(groups, domain.Group{ID: id, Title: title})
	}
	return groups, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("invalid %s: %v", key, v)
	}
	return d
}
