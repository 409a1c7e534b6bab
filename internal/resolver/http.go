package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/worldline-go/klient"
)

// maxArtifactSize bounds a single HTTP-fetched artifact; a component
// binary larger than this is almost certainly a misconfigured URI.
const maxArtifactSize = 256 << 20

func (r *Resolver) fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	opts := []klient.OptionClientFn{
		klient.WithLogger(r.logger),
	}
	if r.cfg.Proxy != "" {
		opts = append(opts, klient.WithProxy(r.cfg.Proxy))
	}
	if r.cfg.InsecureSkipVerify {
		opts = append(opts, klient.WithInsecureSkipVerify(true))
	}

	client, err := klient.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: build http client: %v", ErrTransport, err)
	}

	maxRedirects := r.cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	client.HTTP.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", uri, err)
	}

	resp, err := client.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransport, uri, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, uri)
	default:
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %s returned %d", ErrTransport, uri, resp.StatusCode)
		}
		return nil, fmt.Errorf("fetch %s: unexpected status %d", uri, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body of %s: %v", ErrTransport, uri, err)
	}
	if len(data) > maxArtifactSize {
		return nil, fmt.Errorf("fetch %s: artifact exceeds %d bytes", uri, maxArtifactSize)
	}

	return data, nil
}
