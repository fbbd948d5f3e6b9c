// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package archive persists planner run records in BadgerDB.
//
// Records are stored as JSON under "run/<id>" keys. Run IDs are UUIDv7,
// so key order is creation order and List returns newest first without
// a secondary index.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/aig-upf/fs-private-sub005/services/planner/search"
)

const keyPrefix = "run/"

// StatusError marks a record whose run aborted with an error.
const StatusError = "error"

var (
	// ErrNotFound is returned when no record has the requested ID.
	ErrNotFound = errors.New("archive: run not found")

	// ErrInvalidID is returned for IDs that are not UUIDs.
	ErrInvalidID = errors.New("archive: invalid run id")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("archive: store closed")
)

// Record is one archived run.
type Record struct {
	ID        string       `json:"id"`
	Problem   string       `json:"problem"`
	Digest    string       `json:"digest"`
	Strategy  string       `json:"strategy"`
	Width     int          `json:"width"`
	Status    string       `json:"status"`
	Reason    string       `json:"reason,omitempty"`
	Plan      []string     `json:"plan,omitempty"`
	Cost      int          `json:"cost"`
	Stats     search.Stats `json:"stats"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewRecord builds a record from a run outcome. A run that returned an
// error is archived with StatusError.
func NewRecord(problemName, digest string, cfg search.Config, res *search.Result, runErr error) *Record {
	rec := &Record{
		Problem:  problemName,
		Digest:   digest,
		Strategy: string(cfg.Strategy),
		Width:    cfg.Width,
	}
	if runErr != nil || res == nil {
		rec.Status = StatusError
		if runErr != nil {
			rec.Error = runErr.Error()
		}
		return rec
	}
	rec.Strategy = string(res.Strategy)
	rec.Width = res.Width
	rec.Status = string(res.Status)
	rec.Reason = res.Reason
	rec.Plan = res.PlanNames()
	rec.Cost = res.Cost
	rec.Stats = res.Stats
	return rec
}

// ListOptions filters List.
type ListOptions struct {
	// Limit caps the number of records. Zero means no limit.
	Limit int

	// Problem, when set, keeps only records with this problem name.
	Problem string

	// Status, when set, keeps only records with this status.
	Status string
}

// Store is a BadgerDB-backed run archive.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db        *badger.DB
	gc        *gcRunner
	retention time.Duration
	logger    *slog.Logger
}

// Open opens a store and starts value log GC when configured.
//
// Outputs:
//   - *Store: The store. Call Close when done.
//   - error: Non-nil if the database cannot be opened.
func Open(cfg Config) (*Store, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{db: db, retention: cfg.Retention, logger: logger}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		runner, err := newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create GC runner: %w", err)
		}
		s.gc = runner
		runner.start()
	}
	return s, nil
}

// Close stops GC and closes the database.
func (s *Store) Close() error {
	if s.gc != nil {
		s.gc.stop()
	}
	return s.db.Close()
}

// Put stores rec, assigning ID and CreatedAt when empty.
//
// Outputs:
//   - error: Non-nil on context cancellation, encoding or write failure.
func (s *Store) Put(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	if s.db.IsClosed() {
		return ErrClosed
	}

	if rec.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate run id: %w", err)
		}
		rec.ID = id.String()
	} else if _, err := uuid.Parse(rec.ID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, rec.ID)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key(rec.ID), data)
		if s.retention > 0 {
			entry = entry.WithTTL(s.retention)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("write record %s: %w", rec.ID, err)
	}

	s.logger.Debug("run archived",
		slog.String("run_id", rec.ID),
		slog.String("problem", rec.Problem),
		slog.String("status", rec.Status))
	return nil
}

// Get returns the record with the given ID.
//
// Outputs:
//   - *Record: The record.
//   - error: ErrInvalidID, ErrNotFound, or a read failure.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if s.db.IsClosed() {
		return nil, ErrClosed
	}

	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", id, err)
	}
	return &rec, nil
}

// List returns records newest first, filtered by opts.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Record, error) {
	if s.db.IsClosed() {
		return nil, ErrClosed
	}

	var out []*Record
	err := s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Reverse = true
		itOpts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(itOpts)
		defer it.Close()

		// Reverse iteration seeks from the largest key with the prefix.
		for it.Seek(append([]byte(keyPrefix), 0xff)); it.ValidForPrefix([]byte(keyPrefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("context cancelled: %w", err)
			}

			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if opts.Problem != "" && rec.Problem != opts.Problem {
				continue
			}
			if opts.Status != "" && rec.Status != opts.Status {
				continue
			}
			out = append(out, &rec)
			if opts.Limit > 0 && len(out) >= opts.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the record with the given ID. Missing records are not
// an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(id))
	})
}

func key(id string) []byte {
	return []byte(keyPrefix + id)
}
