package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fentz26/roster/internal/gateway"
	"github.com/fentz26/roster/internal/housekeepers"
	"github.com/fentz26/roster/internal/schedule"
	"github.com/fentz26/roster/internal/tasks"
)

const commandTimeout = 30 * time.Second

// stores bundles the client-side state for one command invocation.
type stores struct {
	gw      gateway.Gateway
	tasks   *tasks.Store
	roster  *housekeepers.Store
	session *schedule.Session
}

func openStores() (*stores, error) {
	gw, err := gateway.New(cfg.Gateway)
	if err != nil {
		return nil, err
	}
	logger := log.WithField("gateway", cfg.Gateway.Mode)
	ts := tasks.New(gw, tasks.WithLogger(logger))
	hs := housekeepers.New(gw, housekeepers.WithLogger(logger))
	return &stores{
		gw:      gw,
		tasks:   ts,
		roster:  hs,
		session: schedule.New(ts, hs),
	}, nil
}

func (s *stores) Close() {
	s.tasks.Close()
	s.roster.Close()
}

// mount loads tasks and housekeepers, failing on either error.
func (s *stores) mount() error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := s.session.Mount(ctx); err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	return nil
}

// submit pushes the working set and waits for the result.
func (s *stores) submit() error {
	if !s.tasks.IsModified() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if _, err := s.session.Submit().Wait(ctx); err != nil {
		return err
	}
	return nil
}
