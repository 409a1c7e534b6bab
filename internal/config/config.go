package config

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/rakunlabs/chu/loader/external/loaderconsul"
	_ "github.com/rakunlabs/chu/loader/external/loadervault"
	"github.com/rakunlabs/chu/loader/loaderenv"
	"github.com/rakunlabs/logi"

	"github.com/rakunlabs/chu"
	"github.com/rakunlabs/tell"
)

var Service = "wassette"

type Config struct {
	LogLevel string `cfg:"log_level,no_prefix" default:"info"`

	// CacheRoot overrides the directory used for the content-addressed
	// component cache. Defaults to an OS-appropriate user cache dir
	// under a "wassette" subdirectory.
	CacheRoot string `cfg:"cache_root"`

	// ComponentsDir is the directory scanned at startup for already
	// loaded components and their policy files.
	ComponentsDir string `cfg:"components_dir"`

	// SSE configures the Server-Sent Events transport. Only used when
	// the server is started with "serve --sse".
	SSE SSEServer `cfg:"sse"`

	// Resolver configures outbound fetches for oci:// and http(s):// URIs.
	Resolver Resolver `cfg:"resolver"`

	Telemetry tell.Config `cfg:"telemetry,noprefix"`
}

type SSEServer struct {
	Host string `cfg:"host" default:"127.0.0.1"`
	Port string `cfg:"port" default:"9001"`
}

type Resolver struct {
	// Proxy is an optional HTTP/HTTPS/SOCKS5 proxy URL used for http(s)://
	// and oci:// fetches.
	Proxy string `cfg:"proxy"`

	// InsecureSkipVerify disables TLS certificate verification. Intended
	// for internal registries with self-signed certificates.
	InsecureSkipVerify bool `cfg:"insecure_skip_verify"`

	// MaxRedirects bounds redirect-following for http(s):// fetches.
	MaxRedirects int `cfg:"max_redirects" default:"5"`
}

func Load(ctx context.Context, path string) (*Config, error) {
	var cfg Config
	if err := chu.Load(ctx, path, &cfg, chu.WithLoaderOption(loaderenv.New(loaderenv.WithPrefix("WASSETTE_")))); err != nil {
		return nil, err
	}

	if err := logi.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("set log level %s: %w", cfg.LogLevel, err)
	}

	slog.Info("loaded configuration", "config", chu.MarshalMap(cfg))

	return &cfg, nil
}
