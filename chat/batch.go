package chat

import (
	"context"
	"fmt"

	"github.com/aschepis/backscratcher/chatapi/llm"
	"golang.org/x/sync/errgroup"
)

// SendAll sends independent requests concurrently, at most limit at a time
// (no limit when limit <= 0). Responses are returned in request order. The
// first failure cancels the requests still in flight.
func SendAll(ctx context.Context, c *Client, reqs []*Request, limit int) ([]*llm.Response, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	out := make([]*llm.Response, len(reqs))
	for i, req := range reqs {
		g.Go(func() error {
			resp, err := c.Send(ctx, req)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			out[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
