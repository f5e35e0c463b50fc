package client

import (
	"context"
	"fmt"
	"time"
)

// RunHeartbeat pings the proxy every HeartbeatInterval until ctx ends or the
// session closes. A failed ping closes the session and is returned.
func (c *Client) RunHeartbeat(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.sess.Done():
			return nil
		case <-ticker.C:
		}
		rtt, err := c.Ping(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error().Err(err).Msg("heartbeat failed, closing session")
			_ = c.sess.Close()
			return fmt.Errorf("client: heartbeat: %w", err)
		}
		c.log.Debug().Dur("rtt", rtt).Msg("heartbeat")
	}
}
