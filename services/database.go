package services

import (
	"context"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lac-hong-legacy/devscope/model"
	"github.com/lac-hong-legacy/devscope/services/repositories"
)

// DatabaseService owns the job registry connection. The driver is chosen
// by configuration; both drivers share migrations and retention.
type DatabaseService struct {
	appContext.DefaultService
	db *gorm.DB

	driver    string
	dsn       string
	retention time.Duration

	jobRepo *repositories.JobRepository
	closed  chan struct{}
}

const DATABASE_SVC = "database_svc"

func (ds DatabaseService) Id() string {
	return DATABASE_SVC
}

func (ds DatabaseService) Db() *gorm.DB {
	return ds.db
}

func (ds *DatabaseService) Configure(ctx *appContext.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()
	ds.driver = cfg.DBDriver
	ds.retention = cfg.JobRetention

	switch ds.driver {
	case "sqlite":
		ds.dsn = cfg.DBDatabase
	default:
		ds.dsn = postgresDSN(cfg.DatabaseURL)
	}

	return ds.DefaultService.Configure(ctx)
}

func (ds *DatabaseService) Start() (err error) {
	switch ds.driver {
	case "sqlite":
		ds.db, err = openSqlite(ds.dsn)
	default:
		ds.db, err = openPostgres(ds.dsn)
	}
	if err != nil {
		return err
	}

	return ds.init()
}

// NewDatabaseService wraps an open connection, outside of the service
// context. Migrations run immediately; the cleanup loop is not started.
func NewDatabaseService(db *gorm.DB, retention time.Duration) (*DatabaseService, error) {
	ds := &DatabaseService{db: db, retention: retention}
	if err := ds.migrate(); err != nil {
		return nil, err
	}
	ds.jobRepo = repositories.NewJobRepository(db)
	return ds, nil
}

func (ds *DatabaseService) init() error {
	if err := ds.migrate(); err != nil {
		return err
	}
	ds.jobRepo = repositories.NewJobRepository(ds.db)

	ds.closed = make(chan struct{})
	go ds.cleanupLoop()

	log.WithField("driver", ds.driver).Info("Database connected and migrated successfully")
	return nil
}

func (ds *DatabaseService) migrate() error {
	models := []interface{}{
		&model.AnalysisJob{},
	}

	if err := ds.db.AutoMigrate(models...); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}
	return nil
}

func (ds *DatabaseService) Shutdown() {
	if ds.closed != nil {
		close(ds.closed)
		ds.closed = nil
	}
	if ds.db == nil {
		return
	}
	if sqlDB, err := ds.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (ds *DatabaseService) Jobs() *repositories.JobRepository {
	return ds.jobRepo
}

func (ds *DatabaseService) cleanupLoop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := ds.CleanupExpiredData(context.Background()); err != nil {
				log.Printf("Failed to cleanup expired data: %v", err)
			}
		case <-ds.closed:
			return
		}
	}
}

// CleanupExpiredData removes jobs older than the retention period.
func (ds *DatabaseService) CleanupExpiredData(ctx context.Context) error {
	if ds.retention <= 0 {
		return nil
	}
	n, err := ds.jobRepo.DeleteOlderThan(ctx, time.Now().Add(-ds.retention))
	if err != nil {
		return fmt.Errorf("delete expired jobs: %w", ds.HandleError(err))
	}
	if n > 0 {
		log.WithField("deleted", n).Info("Expired analysis jobs removed")
	}
	return nil
}
