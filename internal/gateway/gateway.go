// Package gateway is the asynchronous boundary to the scheduling backend.
package gateway

import (
	"context"
	"fmt"

	"github.com/fentz26/roster/internal/config"
	"github.com/fentz26/roster/internal/models"
)

// Gateway fetches and submits roster data.
type Gateway interface {
	// FetchTasks returns the task set in server order.
	FetchTasks(ctx context.Context) ([]models.Task, error)

	// FetchHousekeepers returns the roster.
	FetchHousekeepers(ctx context.Context) ([]models.Housekeeper, error)

	// SubmitTasks sends the full working set and returns the set the server
	// accepted, possibly transformed.
	SubmitTasks(ctx context.Context, tasks []models.Task) ([]models.Task, error)
}

// New builds the gateway selected by cfg.
func New(cfg config.GatewayConfig) (Gateway, error) {
	switch cfg.Mode {
	case config.GatewayMock, "":
		return NewMock(
			WithDelays(cfg.Mock.FetchTasksDelay, cfg.Mock.FetchHousekeepersDelay, cfg.Mock.SubmitDelay),
			WithFailures(cfg.Mock.FailFetchTasks, cfg.Mock.FailFetchHousekeepers, cfg.Mock.FailSubmit),
		), nil
	case config.GatewayHTTP:
		return NewHTTPClient(cfg.APIAddr, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown gateway mode %q", cfg.Mode)
	}
}
