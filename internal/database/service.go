/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/store"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.StateStore.
var _ store.StateStore = (*Service)(nil)

// Service owns the primary and stream documents. One lock covers both, so a
// read-modify-flush sequence is never interleaved with another writer.
type Service struct {
	mu      sync.RWMutex
	primary *document[models.Snapshot]
	stream  *document[models.StreamDocument]
	closed  bool
}

func NewService(ctx context.Context, cfg models.StoreConfig) (*Service, error) {
	if cfg.DataFile == "" {
		return nil, fmt.Errorf("data file path cannot be empty")
	}
	if cfg.StreamFile == "" {
		return nil, fmt.Errorf("stream file path cannot be empty")
	}
	if cfg.DataFile == cfg.StreamFile {
		return nil, fmt.Errorf("data and stream documents must use different files, got %q for both", cfg.DataFile)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	service := &Service{
		primary: &document[models.Snapshot]{
			name:      "data",
			path:      cfg.DataFile,
			indent:    cfg.Indent,
			fresh:     models.NewSnapshot,
			normalize: (*models.Snapshot).Normalize,
		},
		stream: &document[models.StreamDocument]{
			name:      "stream",
			path:      cfg.StreamFile,
			indent:    cfg.Indent,
			fresh:     models.NewStreamDocument,
			normalize: (*models.StreamDocument).Normalize,
		},
	}

	zap.L().Info("Loading state documents",
		zap.String("data_file", cfg.DataFile),
		zap.String("stream_file", cfg.StreamFile))
	service.primary.load()
	service.stream.load()

	// documents that were missing or corrupt are written back in full
	if err := multierr.Append(service.primary.flush(), service.stream.flush()); err != nil {
		zap.L().Warn("Initial state flush failed, will retry on next write", zap.Error(err))
	}

	zap.L().Info("State service initialized successfully",
		zap.Int("wallets", len(service.primary.data.Wallet)),
		zap.Int("contests", len(service.primary.data.Contests)),
		zap.Int("streamers", len(service.stream.data.Streamers)))
	return service, nil
}

// View runs fn against the committed primary document under a shared lock.
// fn must not retain s or mutate it.
func (s *Service) View(fn func(snap *models.Snapshot)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.primary.data)
}

// ViewStreams runs fn against the committed stream document under a shared lock.
func (s *Service) ViewStreams(fn func(doc *models.StreamDocument)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.stream.data)
}

func (s *Service) Mutate(ctx context.Context, fn store.SnapshotFunc) error {
	return s.MutateBoth(ctx, func(snap *models.Snapshot, _ *models.StreamDocument) error {
		return fn(snap)
	})
}

func (s *Service) MutateStreams(ctx context.Context, fn store.StreamFunc) error {
	return s.MutateBoth(ctx, func(_ *models.Snapshot, doc *models.StreamDocument) error {
		return fn(doc)
	})
}

// MutateBoth applies fn to private copies of both documents and commits the
// ones that changed. A write failure is logged and leaves the new state in
// memory; it is retried by the next commit or Flush.
func (s *Service) MutateBoth(ctx context.Context, fn store.BothFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}

	snap, err := s.primary.clone()
	if err != nil {
		return err
	}
	doc, err := s.stream.clone()
	if err != nil {
		return err
	}

	if err := fn(snap, doc); err != nil {
		return err
	}

	if err := commitIfChanged(s.primary, snap); err != nil {
		return err
	}
	return commitIfChanged(s.stream, doc)
}

func commitIfChanged[T any](d *document[T], next *T) error {
	raw, err := d.encode(next)
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", d.name, err)
	}
	if string(raw) == string(d.raw) {
		// unchanged, but retry a previously failed write
		_ = d.flush()
		return nil
	}
	return d.commit(next)
}

// Flush retries any write that previously failed.
func (s *Service) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	return multierr.Append(s.primary.flush(), s.stream.flush())
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := multierr.Append(s.primary.flush(), s.stream.flush())
	if err != nil {
		zap.L().Warn("Failed to flush state on close", zap.Error(err))
	}
	return err
}
