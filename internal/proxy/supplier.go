package proxy

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const (
	probeTimeout    = 5 * time.Second
	maxProbeWorkers = 50
)

// Supplier hands out proxy URLs round-robin. The client asks for a fresh one
// at startup and again whenever the upstream throttles it.
type Supplier interface {
	Get() string
}

type supplier struct {
	mu      sync.Mutex
	proxies []string
	next    int
}

// NewSupplier probes the configured proxies against testURL in parallel and
// keeps only the reachable ones. An empty proxy list is valid; Get then
// returns "" and requests go out directly.
func NewSupplier(ctx context.Context, proxies []string, testURL string) (Supplier, error) {
	if len(proxies) == 0 {
		return &supplier{}, nil
	}

	log.Infof("Probing %d proxies against %s", len(proxies), testURL)

	alive := make([]bool, len(proxies))
	var g errgroup.Group
	g.SetLimit(maxProbeWorkers)
	for i, proxyURL := range proxies {
		g.Go(func() error {
			alive[i] = probe(ctx, proxyURL, testURL)
			return nil
		})
	}
	g.Wait()

	working := make([]string, 0, len(proxies))
	for i, ok := range alive {
		if ok {
			working = append(working, proxies[i])
		} else {
			log.Warnf("Proxy %s failed the probe, dropping it", proxies[i])
		}
	}
	log.Infof("Proxy supplier ready: %d of %d proxies working", len(working), len(proxies))

	return &supplier{proxies: working}, nil
}

func (s *supplier) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.proxies) == 0 {
		return ""
	}
	proxyURL := s.proxies[s.next]
	s.next = (s.next + 1) % len(s.proxies)
	return proxyURL
}

// probe checks that a single request through the proxy reaches testURL.
func probe(ctx context.Context, proxyURL, testURL string) bool {
	probeClient := resty.New().
		SetTimeout(probeTimeout).
		SetRetryCount(0).
		SetProxy(proxyURL).
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})
	defer probeClient.Close()

	resp, err := probeClient.R().
		SetContext(ctx).
		Get(testURL)
	if err != nil {
		log.Debugf("Proxy probe error for %s: %v", proxyURL, err)
		return false
	}
	return !resp.IsError()
}
