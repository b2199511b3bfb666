// Package rpc is the client for the Qubic archiver/RPC node. It owns no
// state; retry policy lives with the callers.
package rpc

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/qubic-markets/qx-indexer/internal/config"
	"github.com/qubic-markets/qx-indexer/internal/eventlog"
)

type Client struct {
	http *resty.Client
}

func NewClient(cfg *config.RPC) *Client {
	c := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond).
		SetHeader("Content-Type", "application/json")

	return &Client{http: c}
}

type tickInfo struct {
	Tick        uint64 `json:"tick"`
	Duration    uint64 `json:"duration"`
	Epoch       uint32 `json:"epoch"`
	InitialTick uint64 `json:"initialTick"`
}

type tickInfoResponse struct {
	TickInfo *tickInfo `json:"tickInfo"`
}

// GetLatestTick returns the node's current tick number.
func (c *Client) GetLatestTick(ctx context.Context) (uint64, error) {
	var out tickInfoResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/tick-info")
	if err != nil {
		return 0, errors.Wrap(err, "tick-info request")
	}
	if err := checkStatus(resp); err != nil {
		return 0, err
	}
	if out.TickInfo == nil {
		return 0, errors.New("tick-info response missing tickInfo")
	}

	return out.TickInfo.Tick, nil
}

type tickEventsRequest struct {
	Tick uint64 `json:"tick"`
}

// GetTickEvents fetches all transaction events emitted in one tick.
func (c *Client) GetTickEvents(ctx context.Context, tick uint64) (*eventlog.TickEvents, error) {
	var out eventlog.TickEvents

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(tickEventsRequest{Tick: tick}).
		SetResult(&out).
		Post("/v1/events/getTickEvents")
	if err != nil {
		return nil, errors.Wrapf(err, "tick events request for tick %d", tick)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	return &out, nil
}

// ArchiverStatus is the archiver's processing summary, used for health
// reporting.
type ArchiverStatus struct {
	LastProcessedTick struct {
		TickNumber uint64 `json:"tickNumber"`
		Epoch      uint32 `json:"epoch"`
	} `json:"lastProcessedTick"`
}

func (c *Client) GetArchiverStatus(ctx context.Context) (*ArchiverStatus, error) {
	var out ArchiverStatus

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/status")
	if err != nil {
		return nil, errors.Wrap(err, "archiver status request")
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	return &out, nil
}

func checkStatus(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return rateLimitFromHeader(resp.Header())
	}

	return errors.Errorf("remote node returned %s for %s", resp.Status(), resp.Request.URL)
}
