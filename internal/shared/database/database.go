package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"seatstudio/internal/shared/config"
	appLogger "seatstudio/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store states reported by Status
const (
	StoreUp       = "up"
	StoreDown     = "down"
	StoreDisabled = "disabled"
)

// DB holds the optional stores. PostgreSQL backs layout drafts and Redis
// backs the layout cache, the save lock and rate limiting. A nil field
// means the feature it backs is off.
type DB struct {
	PostgreSQL *gorm.DB
	Redis      *redis.Client
}

// InitDB connects both stores. A store that cannot be reached is logged and
// left nil; the service keeps running with the matching feature disabled.
func InitDB(cfg *config.Config) *DB {
	log := appLogger.GetDefault()
	db := &DB{}

	pg, err := initPostgreSQL(cfg)
	if err == nil {
		if err = Migrate(pg); err != nil {
			closeGorm(pg)
		}
	}
	if err != nil {
		log.Warn("PostgreSQL unavailable, layout drafts disabled", slog.Any("error", err))
	} else {
		db.PostgreSQL = pg
		log.Info("PostgreSQL connected, layout drafts enabled")
	}

	rdb, err := initRedis(cfg)
	if err != nil {
		log.Warn("Redis unavailable, layout cache, save lock and rate limiting disabled", slog.Any("error", err))
	} else {
		db.Redis = rdb
		log.Info("Redis connected", slog.String("addr", cfg.Redis.Addr))
	}

	return db
}

func initPostgreSQL(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.IsDevelopment() {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Drafts are written once per failed save, a small pool is plenty
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func initRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}

func closeGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DraftsEnabled reports whether failed saves can be kept as drafts.
func (db *DB) DraftsEnabled() bool { return db.PostgreSQL != nil }

// CacheEnabled reports whether the redis backed features are available.
func (db *DB) CacheEnabled() bool { return db.Redis != nil }

// Close closes every connected store.
func (db *DB) Close() error {
	var errs []error
	if db.PostgreSQL != nil {
		if err := closeGorm(db.PostgreSQL); err != nil {
			errs = append(errs, fmt.Errorf("failed to close PostgreSQL: %w", err))
		}
	}
	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Status pings each store and reports it as up, down or disabled.
func (db *DB) Status(ctx context.Context) map[string]string {
	status := map[string]string{
		"postgres": StoreDisabled,
		"redis":    StoreDisabled,
	}
	if db.PostgreSQL != nil {
		status["postgres"] = StoreUp
		if err := db.pingPostgres(ctx); err != nil {
			status["postgres"] = StoreDown
		}
	}
	if db.Redis != nil {
		status["redis"] = StoreUp
		if err := db.Redis.Ping(ctx).Err(); err != nil {
			status["redis"] = StoreDown
		}
	}
	return status
}

// HealthCheck fails when a store that was connected at boot stops
// answering. Disabled stores never fail it.
func (db *DB) HealthCheck(ctx context.Context) error {
	if db.PostgreSQL != nil {
		if err := db.pingPostgres(ctx); err != nil {
			return fmt.Errorf("PostgreSQL health check failed: %w", err)
		}
	}
	if db.Redis != nil {
		if err := db.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
	}
	return nil
}

func (db *DB) pingPostgres(ctx context.Context) error {
	sqlDB, err := db.PostgreSQL.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// GetRedisClient returns the Redis client, nil when caching is disabled
func (db *DB) GetRedisClient() *redis.Client {
	return db.Redis
}

// GetPostgreSQL returns the GORM instance, nil when drafts are disabled
func (db *DB) GetPostgreSQL() *gorm.DB {
	return db.PostgreSQL
}
