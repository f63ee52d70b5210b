/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/suriview/suriview/internal/logger"
	"github.com/suriview/suriview/internal/metrics"
	"github.com/suriview/suriview/internal/record"
	"github.com/suriview/suriview/internal/rule"
	"github.com/suriview/suriview/internal/server"
	"github.com/suriview/suriview/internal/sink"
	"github.com/suriview/suriview/internal/source"
	"github.com/suriview/suriview/internal/transform"
	"github.com/suriview/suriview/internal/version"
	"golang.org/x/sync/errgroup"
)

// Service owns the rule snapshot and serves the API over it. Reloads
// are serialized; readers always see a complete snapshot.
type Service struct {
	Loader   *source.Loader
	Snapshot *rule.Snapshot
	Store    *transform.Store
	Sink     *sink.Sink
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Address  string

	sources  int
	reloadMu sync.Mutex
}

func NewService(logger *logger.Logger, snk *sink.Sink, loader *source.Loader, store *transform.Store, m *metrics.Metrics, address string, sources int) (*Service, error) {
	slog.SetDefault(logger.Logger)

	return &Service{
		Loader:   loader,
		Snapshot: rule.NewSnapshot(),
		Store:    store,
		Sink:     snk,
		Metrics:  m,
		Logger:   logger.Logger,
		Address:  address,
		sources:  sources,
	}, nil
}

// Rules returns the current snapshot contents.
func (s *Service) Rules() []rule.Rule {
	return s.Snapshot.Rules()
}

func (s *Service) RuleBySID(sid int) (rule.Rule, bool) {
	return s.Snapshot.BySID(sid)
}

func (s *Service) Generation() uint64 {
	return s.Snapshot.Generation()
}

func (s *Service) LoadedAt() time.Time {
	return s.Snapshot.LoadedAt()
}

func (s *Service) Transforms() *transform.Store {
	return s.Store
}

func (s *Service) Audit() *slog.Logger {
	return s.Sink.Logger
}

// Reload loads all sources, applies the enabled transforms and swaps
// the snapshot. Concurrent calls run one at a time.
func (s *Service) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	rules, err := s.Loader.Load(ctx)
	if err != nil {
		s.Metrics.ObserveReload(err)
		slog.Error("Failed to load rule sources.", "error", err)
		return err
	}

	transforms, err := s.Store.ListEnabled()
	if err != nil {
		s.Metrics.ObserveReload(err)
		slog.Error("Failed to list enabled transforms.", "error", err)
		return err
	}

	counts := transform.Apply(rules, transforms, s.Logger)
	for id, matched := range counts {
		s.Metrics.ObserveTransform(id, matched)
	}

	s.Snapshot.Swap(rules)
	s.Metrics.ObserveReload(nil)
	s.Metrics.ObserveSnapshot(s.Snapshot.Generation(), perSource(rules))
	record.Load(s.Snapshot.Generation(), rules, s.sources, s.Sink.Logger)

	return nil
}

func perSource(rules []rule.Rule) map[string]int {
	counts := map[string]int{}
	for i := range rules {
		counts[rules[i].Source]++
	}
	return counts
}

// Run performs the initial load and serves the API until the context
// is cancelled. It returns false when startup or serving failed.
func (s *Service) Run(ctx context.Context) bool {
	slog.Info("Starting rule service.",
		"release", version.Release(), "commit", version.Commit(),
	)

	if err := s.Reload(ctx); err != nil {
		return false
	}
	slog.Info("Initial rule snapshot ready.",
		"rules", s.Snapshot.Len(), "generation", s.Snapshot.Generation(),
	)

	api := server.New(s, s.Metrics, s.Logger)
	httpServer := &http.Server{
		Addr:              s.Address,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, errCh := s.startHTTPServer(httpServer)

	return s.handleShutdown(ctx, httpServer, g, errCh)
}

func (s *Service) startHTTPServer(httpServer *http.Server) (*errgroup.Group, chan error) {
	errCh := make(chan error, 1)

	var g errgroup.Group
	g.Go(func() error {
		slog.Info("Listening for API requests.", "address", httpServer.Addr)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return err
		}
		return nil
	})

	return &g, errCh
}

func (s *Service) handleShutdown(ctx context.Context, httpServer *http.Server, g *errgroup.Group, errCh chan error) bool {
	select {
	case err := <-errCh:
		slog.Error("API server error.", "error", err)
		_ = g.Wait()
		return false
	case <-ctx.Done():
		slog.Info("Shutting down rule service.")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down API server cleanly.", "error", err)
		}
		if gErr := g.Wait(); gErr != nil && !errors.Is(gErr, http.ErrServerClosed) {
			slog.Error("Server loop returned error during shutdown.", "error", gErr)
		}
		return true
	}
}
