// Package store persists mind maps.
//
// This package defines the [Store] interface with implementations for
// different backends:
//   - file: one JSON document per map in a directory (CLI default)
//   - sqlite: a single `maps` table of JSON documents
//   - redis: JSON documents plus a sorted index for shared deployments
//   - mongo: one document per map in a `maps` collection
//
// # Contract
//
// Maps are keyed by [mindmap.Map.ID]. Save replaces any existing map with the
// same ID. Get decodes and validates what it reads with [mindmap.Adopt], so a
// corrupted record surfaces as an error instead of a broken tree. List
// returns summaries ordered by last update, newest first.
//
// Every implementation is safe for concurrent use.
//
// # Usage
//
//	s, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, Path: "maps.db"})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if err := s.Save(ctx, m); err != nil {
//	    return err
//	}
//	m, err = s.Get(ctx, m.ID)
//	if errors.Is(err, store.ErrNotFound) {
//	    // unknown map
//	}
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// ErrNotFound is returned when a map does not exist.
var ErrNotFound = errors.New("map not found")

// Summary describes a stored map without its nodes.
type Summary struct {
	ID        string `json:"id" bson:"_id"`
	Title     string `json:"title" bson:"title"`
	CreatedAt int64  `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64  `json:"updatedAt" bson:"updatedAt"`
}

// SummaryOf returns the summary of m.
func SummaryOf(m *mindmap.Map) Summary {
	return Summary{ID: m.ID, Title: m.Title, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

// Store persists maps.
type Store interface {
	// List returns all maps, most recently updated first.
	List(ctx context.Context) ([]Summary, error)
	// Get loads a map. It returns a MAP_NOT_FOUND error wrapping
	// [ErrNotFound] if the map does not exist.
	Get(ctx context.Context, id string) (*mindmap.Map, error)
	// Save inserts or replaces the map.
	Save(ctx context.Context, m *mindmap.Map) error
	// Delete removes a map. Deleting an unknown map is not an error.
	Delete(ctx context.Context, id string) error
	Close() error
}

// Supported drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

// Drivers lists the accepted values of [Config.Driver].
var Drivers = []string{DriverFile, DriverSQLite, DriverRedis, DriverMongo}

// Config selects and configures a backend.
type Config struct {
	// Driver is one of [Drivers]. Empty means [DriverFile].
	Driver string `toml:"driver"`
	// Path is the map directory (file) or the database file (sqlite).
	// Empty selects a default under the user's data directory.
	Path string `toml:"path"`
	// Addr is the Redis address or the MongoDB connection URI.
	Addr string `toml:"addr"`
	// Database is the MongoDB database name or the Redis key prefix.
	Database string `toml:"database"`
}

// DefaultDatabase is used when [Config.Database] is empty.
const DefaultDatabase = "mindmap"

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	db := cfg.Database
	if db == "" {
		db = DefaultDatabase
	}

	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case DriverFile, "":
		s, err = NewFileStore(cfg.Path)
	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path, err = defaultPath("maps.db")
			if err != nil {
				return nil, err
			}
		}
		s, err = NewSQLiteStore(ctx, path)
	case DriverRedis:
		s, err = NewRedisStore(ctx, RedisConfig{Addr: cfg.Addr, Prefix: db})
	case DriverMongo:
		s, err = NewMongoStore(ctx, MongoConfig{URI: cfg.Addr, Database: db})
	default:
		return nil, merrors.New(merrors.ErrCodeInvalidInput, "unknown store driver %q (want one of %v)", cfg.Driver, Drivers)
	}
	if err != nil {
		return nil, merrors.Wrap(merrors.ErrCodeStorage, err, "open %s store", driverName(cfg.Driver))
	}
	logger.Debug("Opened store", "driver", driverName(cfg.Driver))
	return s, nil
}

func driverName(d string) string {
	if d == "" {
		return DriverFile
	}
	return d
}

// defaultPath returns name inside the per-user data directory.
func defaultPath(name string) (string, error) {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".local", "share")
	}
	dir = filepath.Join(dir, "mindmap")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return filepath.Join(dir, name), nil
}

// checkID rejects IDs that are unsafe as file names or keys.
func checkID(id string) error {
	return merrors.ValidateMapID(id)
}

// decode adopts a stored map, reporting failures as invalid maps.
func decode(id string, m *mindmap.Map) (*mindmap.Map, error) {
	if err := mindmap.Adopt(m); err != nil {
		return nil, decodeErr(id, err)
	}
	return m, nil
}

func decodeErr(id string, err error) error {
	return merrors.Wrap(merrors.ErrCodeInvalidMap, err, "stored map %s is corrupt", id)
}

func notFound(id string) error {
	return merrors.Wrap(merrors.ErrCodeMapNotFound, ErrNotFound, "map %q not found", id)
}
