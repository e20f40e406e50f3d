package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string

	// InMemory keeps all data in memory; nothing is written to disk.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// Logger receives Badger's internal logs. Nil silences them.
	Logger *slog.Logger
}

// badgerLogger adapts slog to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore keeps blobs in an embedded BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	closed atomic.Bool
}

// OpenBadger opens (or creates) a Badger database.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger: path is required for a persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Save implements Store.
func (b *BadgerStore) Save(ctx context.Context, key string, data []byte) error {
	if b.closed.Load() {
		return ErrStoreClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Load implements Store.
func (b *BadgerStore) Load(ctx context.Context, key string) ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrStoreClosed
	}
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete implements Store.
func (b *BadgerStore) Delete(ctx context.Context, key string) error {
	if b.closed.Load() {
		return ErrStoreClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close implements Store.
func (b *BadgerStore) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}
