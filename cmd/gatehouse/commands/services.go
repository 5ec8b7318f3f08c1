package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/marmos91/gatehouse/internal/logger"
	"github.com/marmos91/gatehouse/pkg/api"
	"github.com/marmos91/gatehouse/pkg/api/handlers"
	"github.com/marmos91/gatehouse/pkg/config"
	"github.com/marmos91/gatehouse/pkg/directory"
	"github.com/marmos91/gatehouse/pkg/gateway"
	"github.com/marmos91/gatehouse/pkg/metrics"
	"github.com/marmos91/gatehouse/pkg/metrics/prometheus"
	"github.com/marmos91/gatehouse/pkg/objects"
	"github.com/marmos91/gatehouse/pkg/objectstore/s3"
	"github.com/marmos91/gatehouse/pkg/session"
	"github.com/marmos91/gatehouse/pkg/session/revocation"
	"github.com/marmos91/gatehouse/pkg/session/revocation/badger"
)

// revocationStore is a session.RevocationList that holds resources.
type revocationStore interface {
	session.RevocationList
	io.Closer
}

// services are the wired components behind the HTTP servers.
type services struct {
	apiServer     *api.Server
	metricsServer *api.MetricsServer // nil when metrics are disabled

	closers []io.Closer
}

// Close releases everything opened by buildServices.
func (s *services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildServices wires the gateway from configuration. Metrics collectors are
// only created when cfg.Metrics.Enabled.
func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	svc := &services{}

	if cfg.Metrics.Enabled {
		reg := metrics.InitRegistry()
		svc.metricsServer = api.NewMetricsServer(cfg.Metrics.Port, reg)
	}

	revocations, err := openRevocations(cfg.Session.Revocation)
	if err != nil {
		return nil, err
	}

	sessionCfg := session.Config{
		Secret: cfg.Session.Secret,
		Issuer: cfg.Session.Issuer,
		TTL:    cfg.Session.TTL,
	}
	if revocations != nil {
		sessionCfg.Revocations = revocations
		svc.closers = append(svc.closers, revocations)
	}
	sessions, err := session.NewStore(sessionCfg)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	dir, err := directory.New(directory.Config{
		URL:                cfg.Directory.URL,
		BindDNTemplate:     cfg.Directory.BindDNTemplate,
		Timeout:            cfg.Directory.Timeout,
		StartTLS:           cfg.Directory.StartTLS,
		InsecureSkipVerify: cfg.Directory.InsecureSkipVerify,
	})
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("failed to create directory client: %w", err)
	}

	store, err := s3.NewFromConfig(ctx, s3.Config{
		Region:          cfg.ObjectStore.Region,
		Endpoint:        cfg.ObjectStore.Endpoint,
		AccessKeyID:     cfg.ObjectStore.AccessKeyID,
		SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
		ForcePathStyle:  cfg.ObjectStore.ForcePathStyle,
		Timeout:         cfg.ObjectStore.Timeout,
	}, prometheus.NewS3Metrics())
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	gw := gateway.New(dir, sessions, prometheus.NewGatewayMetrics())
	proxy := objects.New(store, objects.Config{
		Bucket:            cfg.ObjectStore.Bucket,
		AllowEmptyListing: cfg.Objects.AllowEmptyListing,
		MaxObjectSize:     cfg.Objects.MaxObjectSize.Int64(),
	})

	svc.apiServer = api.NewServer(cfg.Server, api.Dependencies{
		Gateway: gw,
		Cookies: session.NewCookies(session.CookieConfig{
			Name:     cfg.Session.CookieName,
			Domain:   cfg.Session.CookieDomain,
			Insecure: cfg.Session.CookieInsecure,
		}),
		Objects: proxy,
		Store:   store,
		Bucket:  proxy.Bucket(),
		Build:   handlers.BuildInfo{Version: Version, Commit: Commit, Date: Date},
	})
	svc.apiServer.SetShutdownTimeout(cfg.ShutdownTimeout)

	logger.Info("Gateway configured",
		"directory", dir.URL(),
		logger.Bucket(cfg.ObjectStore.Bucket),
		"session_ttl", sessions.TTL().String(),
		"revocation", sessions.RevocationEnabled(),
	)
	if cfg.Session.CookieInsecure {
		logger.Warn("Session cookie Secure attribute disabled; use only for local development")
	}

	return svc, nil
}

// openRevocations returns nil when revocation is disabled.
func openRevocations(cfg config.RevocationConfig) (revocationStore, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Backend {
	case "", "memory":
		return revocation.NewMemory(), nil
	case "badger":
		store, err := badger.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open revocation list at %s: %w", cfg.Path, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown revocation backend: %s", cfg.Backend)
	}
}
