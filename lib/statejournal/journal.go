// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statejournal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/switchagent/lib/codec"
	"github.com/bureau-foundation/switchagent/lib/switchstate"
	"github.com/bureau-foundation/switchagent/lib/warmboot"
)

// ErrNotFound is returned by Load for a generation the journal does not
// hold.
var ErrNotFound = errors.New("generation not in journal")

const schema = `
CREATE TABLE IF NOT EXISTS generations (
	generation   INTEGER PRIMARY KEY,
	published_at INTEGER NOT NULL,
	port_count   INTEGER NOT NULL,
	digest       TEXT NOT NULL,
	compression  TEXT NOT NULL,
	envelope     BLOB NOT NULL
);
`

// Config holds the parameters for opening a journal.
type Config struct {
	// Path is the database file. The parent directory must exist.
	Path string

	// Keep is the number of newest generations retained after each
	// Record. Zero disables automatic pruning.
	Keep int

	// PoolSize is the number of connections. Zero means 2: one for
	// the writer goroutine and one for operator reads.
	PoolSize int

	// Compression applied to stored envelopes. Defaults to zstd.
	Compression warmboot.Compression

	Logger *slog.Logger
}

// Entry describes one journaled generation.
type Entry struct {
	Generation  uint64
	PublishedAt time.Time
	PortCount   int
	Digest      string
	Compression warmboot.Compression
}

// Journal is a SQLite-backed history of published generations. Safe for
// concurrent use.
type Journal struct {
	pool        *sqlitex.Pool
	keep        int
	compression warmboot.Compression
	logger      *slog.Logger
	path        string
}

// Open opens or creates the journal database.
func Open(config Config) (*Journal, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("statejournal: Path is required")
	}
	if config.Keep < 0 {
		return nil, fmt.Errorf("statejournal: Keep must not be negative")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poolSize := config.PoolSize
	if poolSize <= 0 {
		poolSize = 2
	}
	compression := config.Compression
	if compression == "" {
		compression = warmboot.CompressionZstd
	}

	pool, err := sqlitex.NewPool(config.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("statejournal: opening %s: %w", config.Path, err)
	}

	logger.Info("state journal opened",
		"path", config.Path,
		"pool_size", poolSize,
		"keep", config.Keep,
	)
	return &Journal{
		pool:        pool,
		keep:        config.Keep,
		compression: compression,
		logger:      logger,
		path:        config.Path,
	}, nil
}

// prepareConnection runs once per pooled connection.
func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("statejournal: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("statejournal: creating schema: %w", err)
	}
	return nil
}

// Close closes the database. Blocks until borrowed connections are
// returned.
func (j *Journal) Close() error {
	if err := j.pool.Close(); err != nil {
		return fmt.Errorf("statejournal: closing %s: %w", j.path, err)
	}
	j.logger.Info("state journal closed", "path", j.path)
	return nil
}

// Record stores a published generation and prunes old ones. Recording
// a generation that is already present replaces it.
func (j *Journal) Record(ctx context.Context, snapshot switchstate.Snapshot) (err error) {
	envelope, err := warmboot.NewEnvelope(snapshot.State, warmboot.Options{
		Compression: j.compression,
		Generation:  snapshot.Generation,
		WrittenAt:   snapshot.PublishedAt,
	})
	if err != nil {
		return fmt.Errorf("statejournal: generation %d: %w", snapshot.Generation, err)
	}
	data, err := codec.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("statejournal: generation %d: encoding envelope: %w", snapshot.Generation, err)
	}

	conn, err := j.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("statejournal: record: %w", err)
	}
	defer j.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("statejournal: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn, `
		INSERT OR REPLACE INTO generations
			(generation, published_at, port_count, digest, compression, envelope)
		VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				int64(snapshot.Generation),
				snapshot.PublishedAt.UnixNano(),
				snapshot.State.Ports().Len(),
				envelope.Digest.String(),
				string(envelope.Compression),
				data,
			},
		})
	if err != nil {
		return fmt.Errorf("statejournal: inserting generation %d: %w", snapshot.Generation, err)
	}

	if j.keep > 0 {
		var pruned int
		pruned, err = prune(conn, j.keep)
		if err != nil {
			return err
		}
		if pruned > 0 {
			j.logger.Debug("journal pruned", "removed", pruned, "keep", j.keep)
		}
	}
	return nil
}

// Latest returns the newest journaled generation. The boolean is false
// when the journal is empty.
func (j *Journal) Latest(ctx context.Context) (Entry, bool, error) {
	entries, err := j.List(ctx, 1)
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[0], true, nil
}

// List returns up to limit entries, newest first. A limit of zero or
// less returns every entry.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	conn, err := j.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("statejournal: list: %w", err)
	}
	defer j.pool.Put(conn)

	if limit <= 0 {
		limit = -1
	}
	var entries []Entry
	err = sqlitex.Execute(conn, `
		SELECT generation, published_at, port_count, digest, compression
		FROM generations
		ORDER BY generation DESC
		LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entries = append(entries, Entry{
					Generation:  uint64(stmt.ColumnInt64(0)),
					PublishedAt: time.Unix(0, stmt.ColumnInt64(1)).UTC(),
					PortCount:   stmt.ColumnInt(2),
					Digest:      stmt.ColumnText(3),
					Compression: warmboot.Compression(stmt.ColumnText(4)),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("statejournal: list: %w", err)
	}
	return entries, nil
}

// Envelope returns the stored envelope of a generation.
func (j *Journal) Envelope(ctx context.Context, generation uint64) (*warmboot.Envelope, error) {
	conn, err := j.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("statejournal: load: %w", err)
	}
	defer j.pool.Put(conn)

	var data []byte
	found := false
	err = sqlitex.Execute(conn,
		"SELECT envelope FROM generations WHERE generation = ?",
		&sqlitex.ExecOptions{
			Args: []any{int64(generation)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				data = make([]byte, stmt.ColumnLen(0))
				stmt.ColumnBytes(0, data)
				found = true
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("statejournal: load generation %d: %w", generation, err)
	}
	if !found {
		return nil, fmt.Errorf("statejournal: generation %d: %w", generation, ErrNotFound)
	}
	envelope, err := warmboot.DecodeEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("statejournal: generation %d: %w", generation, err)
	}
	return envelope, nil
}

// Load rebuilds the state of a journaled generation. The result is
// unpublished.
func (j *Journal) Load(ctx context.Context, generation uint64, logger *slog.Logger) (*switchstate.SwitchState, error) {
	envelope, err := j.Envelope(ctx, generation)
	if err != nil {
		return nil, err
	}
	state, err := envelope.State(logger)
	if err != nil {
		return nil, fmt.Errorf("statejournal: generation %d: %w", generation, err)
	}
	return state, nil
}

// Prune deletes all but the newest keep generations and returns how
// many rows were removed.
func (j *Journal) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("statejournal: keep must not be negative")
	}
	conn, err := j.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("statejournal: prune: %w", err)
	}
	defer j.pool.Put(conn)
	return prune(conn, keep)
}

func prune(conn *sqlite.Conn, keep int) (int, error) {
	err := sqlitex.Execute(conn, `
		DELETE FROM generations
		WHERE generation NOT IN (
			SELECT generation FROM generations ORDER BY generation DESC LIMIT ?
		)`,
		&sqlitex.ExecOptions{Args: []any{keep}})
	if err != nil {
		return 0, fmt.Errorf("statejournal: prune: %w", err)
	}
	return conn.Changes(), nil
}
