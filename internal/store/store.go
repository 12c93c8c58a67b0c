// Package store provides typed, transactional persistence for runtimes,
// submissions and templates.
package store

import (
	"errors"
	"fmt"
	"time"

	"yantra/internal/config"
	"yantra/internal/metrics"
	"yantra/pkg/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = errors.New("store: not found")

// Store wraps the GORM database handle used by the API and worker tiers.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured backend, runs AutoMigrate for the three
// entities in §6.2 and sizes the connection pool per §5 (minimum 10
// connections, overflow 20 -> 10 idle / 20 max-in-flight above idle).
func Open(cfg config.DatabaseConfig) (*Store, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.DBName + ".db"
		}
		dialector = sqlite.Open(dsn)
	default:
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.TimeZone,
		)
		dialector = postgres.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to store: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetConnMaxLifetime(time.Hour)

	s := &Store{db: gdb}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	return s.db.AutoMigrate(&models.Runtime{}, &models.Submission{}, &models.Template{})
}

// Health pings the underlying connection.
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Stats reports pool occupancy, used by the health/metrics surface.
func (s *Store) Stats() map[string]interface{} {
	sqlDB, err := s.db.DB()
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	stats := sqlDB.Stats()
	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
	}
}

// Session is a handle bound to one transaction, offering typed queries
// against the four entities described in §4.1.
type Session struct {
	db *gorm.DB
}

// WithTransaction begins a transaction, yields a Session to fn, and commits
// on a nil return or rolls back otherwise. The underlying connection is
// always released back to the pool.
func (s *Store) WithTransaction(fn func(*Session) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Session{db: tx})
	})
}

// session returns a non-transactional Session for read-only callers that do
// not need commit/rollback semantics (e.g. get_results, list).
func (s *Store) session() *Session {
	return &Session{db: s.db}
}

// observeQuery times fn and reports its duration and outcome against
// metrics.RecordDBQuery, giving every store query the latency/error
// observability described in §10.4.
func observeQuery(operation, table string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.Get().RecordDBQuery(operation, table, time.Since(start), err)
	return err
}

// --- Runtimes ---

// CreateRuntime inserts a new runtime row.
func (s *Store) CreateRuntime(r *models.Runtime) error {
	return s.session().CreateRuntime(r)
}

func (sess *Session) CreateRuntime(r *models.Runtime) error {
	return observeQuery("create", "runtimes", func() error {
		return sess.db.Create(r).Error
	})
}

// GetRuntime fetches a runtime by id.
func (s *Store) GetRuntime(id string) (*models.Runtime, error) {
	return s.session().GetRuntime(id)
}

func (sess *Session) GetRuntime(id string) (*models.Runtime, error) {
	var r models.Runtime
	err := observeQuery("get", "runtimes", func() error {
		return sess.db.First(&r, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// UpdateRuntime persists all fields of the given runtime.
func (s *Store) UpdateRuntime(r *models.Runtime) error {
	return s.session().UpdateRuntime(r)
}

func (sess *Session) UpdateRuntime(r *models.Runtime) error {
	return observeQuery("update", "runtimes", func() error {
		return sess.db.Save(r).Error
	})
}

// DeleteRuntime removes a runtime row by id.
func (s *Store) DeleteRuntime(id string) error {
	return s.session().DeleteRuntime(id)
}

func (sess *Session) DeleteRuntime(id string) error {
	return observeQuery("delete", "runtimes", func() error {
		return sess.db.Delete(&models.Runtime{}, "id = ?", id).Error
	})
}

// ListRuntimes lists runtimes ordered by created_at descending, optionally
// filtered by enabled.
func (s *Store) ListRuntimes(enabledOnly bool) ([]models.Runtime, error) {
	return s.session().ListRuntimes(enabledOnly)
}

func (sess *Session) ListRuntimes(enabledOnly bool) ([]models.Runtime, error) {
	q := sess.db.Order("created_at DESC")
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	var out []models.Runtime
	err := observeQuery("list", "runtimes", func() error {
		return q.Find(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListStaleRuntimeBuilds returns runtimes stuck in pending or building
// states whose updated_at predates the cutoff, used by the worker's startup
// reconciliation pass to re-enqueue builds lost to a crash between commit
// and queue push.
func (s *Store) ListStaleRuntimeBuilds(cutoff time.Time) ([]models.Runtime, error) {
	var out []models.Runtime
	err := observeQuery("list_stale", "runtimes", func() error {
		return s.db.Where("build_status IN ? AND updated_at < ?",
			[]models.BuildStatus{models.BuildPending, models.BuildBuilding}, cutoff).Find(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListStaleRunningSubmissions returns submissions stuck in RUNNING whose
// created_at predates the cutoff, used by the same reconciliation pass to
// force-finalize jobs abandoned by a crashed worker.
func (s *Store) ListStaleRunningSubmissions(cutoff time.Time) ([]models.Submission, error) {
	var out []models.Submission
	err := observeQuery("list_stale", "submissions", func() error {
		return s.db.Where("status = ? AND created_at < ?", models.StatusRunning, cutoff).Find(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// --- Submissions ---

// CreateSubmission inserts a new submission row.
func (s *Store) CreateSubmission(sub *models.Submission) error {
	return s.session().CreateSubmission(sub)
}

func (sess *Session) CreateSubmission(sub *models.Submission) error {
	return observeQuery("create", "submissions", func() error {
		return sess.db.Create(sub).Error
	})
}

// GetSubmission fetches a submission by job id.
func (s *Store) GetSubmission(jobID string) (*models.Submission, error) {
	return s.session().GetSubmission(jobID)
}

func (sess *Session) GetSubmission(jobID string) (*models.Submission, error) {
	var sub models.Submission
	err := observeQuery("get", "submissions", func() error {
		return sess.db.First(&sub, "job_id = ?", jobID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// UpdateSubmission persists all fields of the given submission.
func (s *Store) UpdateSubmission(sub *models.Submission) error {
	return s.session().UpdateSubmission(sub)
}

func (sess *Session) UpdateSubmission(sub *models.Submission) error {
	return observeQuery("update", "submissions", func() error {
		return sess.db.Save(sub).Error
	})
}

// --- Templates ---

// CreateTemplate inserts a new template row.
func (s *Store) CreateTemplate(t *models.Template) error {
	return s.session().CreateTemplate(t)
}

func (sess *Session) CreateTemplate(t *models.Template) error {
	return observeQuery("create", "templates", func() error {
		return sess.db.Create(t).Error
	})
}

// GetTemplate fetches a template by id.
func (s *Store) GetTemplate(id string) (*models.Template, error) {
	return s.session().GetTemplate(id)
}

func (sess *Session) GetTemplate(id string) (*models.Template, error) {
	var t models.Template
	err := observeQuery("get", "templates", func() error {
		return sess.db.First(&t, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// DeleteTemplate removes a template row by id.
func (s *Store) DeleteTemplate(id string) error {
	return s.session().DeleteTemplate(id)
}

func (sess *Session) DeleteTemplate(id string) error {
	return observeQuery("delete", "templates", func() error {
		return sess.db.Delete(&models.Template{}, "id = ?", id).Error
	})
}

// ListTemplates lists templates ordered by name, optionally filtered by
// category and is_official.
func (s *Store) ListTemplates(category string, officialOnly bool) ([]models.Template, error) {
	return s.session().ListTemplates(category, officialOnly)
}

func (sess *Session) ListTemplates(category string, officialOnly bool) ([]models.Template, error) {
	q := sess.db.Order("name")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if officialOnly {
		q = q.Where("is_official = ?", true)
	}
	var out []models.Template
	err := observeQuery("list", "templates", func() error {
		return q.Find(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TemplateExists reports whether a template with the given id is already
// present, used by the catalog seeder's idempotence check.
func (sess *Session) TemplateExists(id string) (bool, error) {
	var count int64
	err := observeQuery("exists", "templates", func() error {
		return sess.db.Model(&models.Template{}).Where("id = ?", id).Count(&count).Error
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
