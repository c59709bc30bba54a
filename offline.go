package featuregate

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// OfflineProbe reports whether the device currently has no connectivity. The
// engine consults it before attempting a remote call so an offline device
// fails fast instead of waiting out the full timeout.
type OfflineProbe interface {
	IsOffline(ctx context.Context) bool
}

// OfflineProbeFunc adapts a function to the OfflineProbe interface.
type OfflineProbeFunc func(ctx context.Context) bool

func (f OfflineProbeFunc) IsOffline(ctx context.Context) bool {
	return f(ctx)
}

const reachabilityTimeout = 150 * time.Millisecond

// httpReachabilityProbe issues a HEAD request against a cheap endpoint with
// its own short deadline. Probe failures report offline; a probe that cannot
// reach the flag service would not complete the real call either.
type httpReachabilityProbe struct {
	client *resty.Client
	url    string
}

// NewReachabilityProbe builds an OfflineProbe that checks whether url is
// reachable.
func NewReachabilityProbe(client *resty.Client, url string) OfflineProbe {
	return &httpReachabilityProbe{client: client, url: url}
}

func (p *httpReachabilityProbe) IsOffline(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, reachabilityTimeout)
	defer cancel()
	_, err := p.client.R().SetContext(ctx).Head(p.url)
	return err != nil
}
