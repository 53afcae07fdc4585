package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"

	"aigen-index/internal/logging"
	"aigen-index/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// driverName is go-sqlite3 with the FOLDCASE collation registered on every
// connection.
const driverName = "sqlite3_foldcase"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterCollation("FOLDCASE", compareFolded)
		},
	})
}

// compareFolded orders strings by their Unicode case folding. SQLite's
// NOCASE only folds ASCII, so "Émile" and "émile" would not compare equal.
func compareFolded(a, b string) int {
	return strings.Compare(cases.Fold().String(a), cases.Fold().String(b))
}

// Database is the index store. Reads run concurrently on pooled connections;
// writes are serialized so at most one write transaction is open at a time.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex // guards write transactions
	now    func() time.Time
	newID  func() string
}

// Option customises a Database.
type Option func(*Database)

// WithClock replaces the clock used for lastScannedAt and audit columns.
func WithClock(now func() time.Time) Option {
	return func(d *Database) { d.now = now }
}

// WithIDGenerator replaces the UUID generator used for new records.
func WithIDGenerator(newID func() string) Option {
	return func(d *Database) { d.newID = newID }
}

// New opens the index store at dbPath, creating the file and its parent
// directory if needed, and migrates the schema to the latest version.
// Opening an existing, up-to-date store changes nothing.
func New(ctx context.Context, dbPath string, opts ...Option) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout makes concurrent writers wait before failing with BUSY;
	// _txlock=immediate takes the write lock at BEGIN so a transaction never
	// fails half way through on lock upgrade.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate", dbPath)

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect to database: %w", err), db.Close())
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	if err := migrateUp(db); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize database schema: %w", err), db.Close())
	}

	d := &Database{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(d)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping checks that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// withWriteTx runs fn in its own write transaction, committing on success
// and rolling back on error.
func (d *Database) withWriteTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) (err error) {
	start := time.Now()
	defer func() { recordQuery(operation, start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyError(fmt.Errorf("begin transaction: %w", err))
	}

	if err = fn(tx); err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(start).Seconds())
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(classifyError(err), fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return classifyError(err)
	}

	if err = tx.Commit(); err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(start).Seconds())
		return classifyError(fmt.Errorf("commit: %w", err))
	}
	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(time.Since(start).Seconds())
	return nil
}

// readCtx bounds a read with the default timeout.
func readCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultTimeout)
}

// withReadSnapshot runs fn against one connection inside a deferred
// transaction, so every statement fn issues reads the same WAL snapshot.
// BeginTx is not used because the connection string sets _txlock=immediate,
// which would take the write lock.
func (d *Database) withReadSnapshot(ctx context.Context, fn func(q rowsQueryer) error) (err error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN DEFERRED"); err != nil {
		return err
	}
	// The transaction must end even when ctx is already done, otherwise the
	// connection goes back to the pool with it still open.
	defer func() {
		if _, endErr := conn.ExecContext(context.WithoutCancel(ctx), "COMMIT"); endErr != nil {
			err = errors.Join(err, fmt.Errorf("end read transaction: %w", endErr))
		}
	}()
	return fn(conn)
}

// Vacuum optimizes the database.
func (d *Database) Vacuum(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("vacuum", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "VACUUM")
	return classifyError(err)
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// subtreeBounds returns the half-open range [lo, hi) that contains exactly
// the paths strictly below root, so subtree scans can use the path index.
func subtreeBounds(root string) (lo, hi string) {
	lo = root
	if !strings.HasSuffix(lo, string(filepath.Separator)) {
		lo += string(filepath.Separator)
	}
	hi = lo[:len(lo)-1] + string(filepath.Separator+1)
	return lo, hi
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("%s is read-only! Mode: %v - this will cause write failures", path, info.Mode())
		if path == dbPath {
			continue
		}
		if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", path, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", path)
		}
	}

	return nil
}
