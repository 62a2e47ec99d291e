package svc

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"coinlook-api/internal/cache"
	"coinlook-api/internal/config"
	marketpkg "coinlook-api/pkg/market"
	_ "coinlook-api/pkg/market/coingecko"
	"coinlook-api/pkg/watchlist"
)

const (
	defaultVsCurrency = "usd"
	migrateTimeout    = 10 * time.Second
)

type ServiceContext struct {
	Config config.Config

	GatewayConfig *marketpkg.Config
	Gateways      map[string]marketpkg.Gateway
	Gateway       marketpkg.Gateway
	// VsCurrency is the quote currency of the default gateway.
	VsCurrency string

	Watchlists *watchlist.Registry

	// Backing connections, set only for the matching watchlist backend.
	Redis  *redis.Redis
	DBConn sqlx.SqlConn
}

// MustNewServiceContext is NewServiceContext for process startup.
func MustNewServiceContext(c config.Config) *ServiceContext {
	svc, err := NewServiceContext(c)
	if err != nil {
		log.Fatalf("failed to build service context: %v", err)
	}
	return svc
}

func NewServiceContext(c config.Config) (*ServiceContext, error) {
	svc := &ServiceContext{Config: c}

	gatewayCfg := c.Gateway.Value
	if gatewayCfg == nil {
		return nil, fmt.Errorf("gateway config not loaded")
	}
	providers, err := gatewayCfg.BuildProviders()
	if err != nil {
		return nil, fmt.Errorf("build gateway providers: %w", err)
	}
	name := gatewayCfg.DefaultName()
	gw, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("gateway config: no default provider selected")
	}
	svc.GatewayConfig = gatewayCfg
	svc.Gateways = providers
	svc.Gateway = gw
	svc.VsCurrency = defaultVsCurrency
	if p := gatewayCfg.Providers[name]; p != nil && p.VsCurrency != "" {
		svc.VsCurrency = strings.ToLower(p.VsCurrency)
	}

	codec, err := watchlist.CodecByName(c.Watchlist.Codec)
	if err != nil {
		return nil, err
	}
	storage, err := svc.newWatchlistStorage(codec)
	if err != nil {
		return nil, err
	}
	svc.Watchlists = watchlist.NewRegistry(storage, codec, cache.WatchlistKey,
		watchlist.WithSessionLimit(c.Watchlist.MaxSessions),
		watchlist.WithSessionTTL(c.Watchlist.SessionTTL))
	return svc, nil
}

func (svc *ServiceContext) newWatchlistStorage(codec watchlist.Codec) (watchlist.Storage, error) {
	c := svc.Config
	switch c.Watchlist.Backend {
	case "", config.BackendMemory:
		return watchlist.NewMemoryStorage(), nil
	case config.BackendFile:
		storage, err := watchlist.NewFileStorage(c.WatchlistDir(), "."+codec.Name())
		if err != nil {
			return nil, fmt.Errorf("watchlist file storage: %w", err)
		}
		return storage, nil
	case config.BackendRedis:
		rds, err := redis.NewRedis(c.Redis)
		if err != nil {
			return nil, fmt.Errorf("watchlist redis storage: %w", err)
		}
		svc.Redis = rds
		return watchlist.NewRedisStorage(rds, c.Watchlist.TTL), nil
	case config.BackendPostgres:
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		if db, err := conn.RawDB(); err == nil {
			db.SetMaxOpenConns(c.Postgres.MaxOpen)
			db.SetMaxIdleConns(c.Postgres.MaxIdle)
		}
		svc.DBConn = conn
		storage := watchlist.NewPostgresStorage(conn)
		if c.Postgres.AutoMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
			defer cancel()
			if err := storage.EnsureSchema(ctx); err != nil {
				return nil, fmt.Errorf("watchlist postgres schema: %w", err)
			}
			logx.Info("watchlist postgres schema ready")
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unsupported watchlist backend %q", c.Watchlist.Backend)
	}
}
