// Package housekeepers holds the read-only housekeeper roster.
package housekeepers

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/fentz26/roster/internal/dispatch"
	"github.com/fentz26/roster/internal/models"
)

// ErrFetchHousekeepers wraps gateway failures surfaced by FetchAll.
var ErrFetchHousekeepers = errors.New("fetch housekeepers failed")

// Loader is the gateway call the roster owns.
type Loader interface {
	FetchHousekeepers(ctx context.Context) ([]models.Housekeeper, error)
}

// State is a read-only view of the roster.
type State struct {
	Housekeepers []models.Housekeeper
	Loading      bool
	Error        bool
	ErrorMessage string
}

// Store holds the roster and its loading state.
type Store struct {
	gw   Loader
	loop *dispatch.Loop
	log  *log.Entry

	roster  []models.Housekeeper
	loading bool
	hasErr  bool
	errMsg  string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *log.Entry) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New creates an empty roster.
func New(gw Loader, opts ...Option) *Store {
	s := &Store{
		gw:     gw,
		loop:   dispatch.NewLoop(),
		log:    log.WithField("store", "housekeepers"),
		roster: []models.Housekeeper{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close stops the store.
func (s *Store) Close() {
	s.loop.Stop()
}

// FetchAll replaces the roster with the gateway's. On failure the error flag
// is set and the previous roster is kept.
func (s *Store) FetchAll() *dispatch.Future[[]models.Housekeeper] {
	if !s.loop.Do(func() { s.loading = true }) {
		return dispatch.Resolved[[]models.Housekeeper](nil, dispatch.ErrClosed)
	}

	return dispatch.Go(s.loop,
		func() ([]models.Housekeeper, error) {
			return s.gw.FetchHousekeepers(context.Background())
		},
		func(hks []models.Housekeeper, err error) ([]models.Housekeeper, error) {
			s.loading = false
			if err != nil {
				s.hasErr = true
				s.errMsg = err.Error()
				s.log.WithError(err).Warn("fetch housekeepers failed")
				return nil, fmt.Errorf("%w: %w", ErrFetchHousekeepers, err)
			}
			s.roster = models.CloneHousekeepers(hks)
			s.hasErr = false
			s.errMsg = ""
			s.log.WithField("count", len(hks)).Debug("housekeepers loaded")
			return models.CloneHousekeepers(hks), nil
		},
	)
}

// Snapshot returns a copy of the roster state.
func (s *Store) Snapshot() State {
	st := State{Housekeepers: []models.Housekeeper{}}
	s.loop.Do(func() {
		st = State{
			Housekeepers: models.CloneHousekeepers(s.roster),
			Loading:      s.loading,
			Error:        s.hasErr,
			ErrorMessage: s.errMsg,
		}
	})
	return st
}

// Housekeepers returns a copy of the roster.
func (s *Store) Housekeepers() []models.Housekeeper {
	return s.Snapshot().Housekeepers
}
