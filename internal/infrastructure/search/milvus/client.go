// Package milvus backs store.SpatialIndex: the "4-D spatial index on
// physicality centroids supporting radius and k-NN queries" the datastore
// contract names, accelerating WalkEngine's spatial-drift candidate
// generation beyond the Hilbert-index range-scan approximation
// CompositionRepository.FindNearCentroid falls back to.
package milvus

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
	"github.com/hartonomous/substrate/pkg/errors"
)

// milvusClientFactory lets tests substitute a fake constructor.
type milvusClientFactory func(ctx context.Context, conf client.Config) (client.Client, error)

var milvusNewClient milvusClientFactory = client.NewClient

var (
	ErrInvalidConfig    = errors.New(errors.CodeInvalidParam, "invalid configuration")
	ErrConnectionFailed = errors.New(errors.CodeSearchError, "connection failed")
	ErrUnhealthy        = errors.New(errors.CodeSearchError, "service unhealthy")
)

// ClientConfig holds the configuration for the Milvus client — distinct
// from internal/config.MilvusConfig the way every other adapter's own
// package-local config is (see the neo4j/opensearch/redis adapters).
type ClientConfig struct {
	Address             string
	Username            string
	Password            string
	DBName              string
	TLSEnabled          bool
	TLSCertPath         string
	TLSServerName       string
	ConnectTimeout      time.Duration
	RequestTimeout      time.Duration
	HealthCheckInterval time.Duration
	KeepAliveTime       time.Duration
	KeepAliveTimeout    time.Duration
}

// Client manages the Milvus client connection, with a background health
// check loop that reconnects after consecutive failures.
type Client struct {
	milvusClient client.Client
	config       ClientConfig
	logger       logging.Logger
	healthy      atomic.Bool
	cancel       context.CancelFunc
	mu           sync.RWMutex
}

// NewClient creates a new Milvus client and verifies connectivity before
// returning.
func NewClient(cfg ClientConfig, logger logging.Logger) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.DBName == "" {
		cfg.DBName = "default"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}
	if cfg.KeepAliveTime == 0 {
		cfg.KeepAliveTime = 60 * time.Second
	}
	if cfg.KeepAliveTimeout == 0 {
		cfg.KeepAliveTimeout = 20 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	mc, err := connect(ctx, cfg)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, errors.CodeSearchError, "failed to create milvus client")
	}

	c := &Client{
		milvusClient: mc,
		config:       cfg,
		logger:       logger,
		cancel:       cancel,
	}

	if err := c.CheckHealth(ctx); err != nil {
		c.Close()
		return nil, ErrConnectionFailed
	}

	go c.startHealthCheck(ctx)

	logger.Info("Milvus client connected", logging.String("address", cfg.Address))
	return c, nil
}

func connect(ctx context.Context, cfg ClientConfig) (client.Client, error) {
	milvusCfg := client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.DBName,
	}

	var dialOpts []grpc.DialOption
	if cfg.TLSEnabled {
		tlsConfig := &tls.Config{ServerName: cfg.TLSServerName}
		if cfg.TLSCertPath != "" {
			caCert, err := os.ReadFile(cfg.TLSCertPath)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidParam, "failed to read TLS cert")
			}
			caCertPool := x509.NewCertPool()
			if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
				return nil, errors.New(errors.CodeInvalidParam, "failed to parse TLS cert")
			}
			tlsConfig.RootCAs = caCertPool
		} else {
			tlsConfig.InsecureSkipVerify = true
		}
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
		milvusCfg.EnableTLSAuth = true
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	dialOpts = append(dialOpts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
		Time:                cfg.KeepAliveTime,
		Timeout:             cfg.KeepAliveTimeout,
		PermitWithoutStream: true,
	}))
	milvusCfg.DialOptions = dialOpts

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	return milvusNewClient(connectCtx, milvusCfg)
}

// CheckHealth checks the connection to Milvus.
func (c *Client) CheckHealth(ctx context.Context) error {
	c.mu.RLock()
	mc := c.milvusClient
	c.mu.RUnlock()

	if mc == nil {
		return ErrConnectionFailed
	}

	if _, err := mc.CheckHealth(ctx); err != nil {
		c.healthy.Store(false)
		c.logger.Warn("Milvus health check failed", logging.Err(err))
		return ErrUnhealthy
	}

	c.healthy.Store(true)
	return nil
}

// IsHealthy returns the current health status of the client.
func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}

// raw returns the underlying SDK client for use by CollectionManager/Searcher.
func (c *Client) raw() client.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.milvusClient
}

// Close stops the health-check loop and closes the underlying connection.
func (c *Client) Close() error {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.milvusClient != nil {
		c.milvusClient.Close()
	}
	c.logger.Info("Milvus client closed")
	return nil
}

func (c *Client) startHealthCheck(ctx context.Context) {
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := c.healthy.Load()
			err := c.CheckHealth(ctx)
			curr := c.healthy.Load()

			switch {
			case prev && !curr:
				failures++
				c.logger.Error("Milvus cluster became unhealthy", logging.Err(err))
			case !prev && curr:
				failures = 0
				c.logger.Info("Milvus cluster recovered")
			case !prev && !curr:
				failures++
			default:
				failures = 0
			}

			if failures >= 3 {
				c.logger.Warn("Milvus consecutive failures, attempting reconnect")
				if err := c.reconnect(ctx); err != nil {
					c.logger.Error("Milvus reconnect failed", logging.Err(err))
				} else {
					failures = 0
				}
			}
		}
	}
}

func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.milvusClient != nil {
		c.milvusClient.Close()
	}

	mc, err := connect(ctx, c.config)
	if err != nil {
		return err
	}
	c.milvusClient = mc
	c.logger.Warn("Milvus client reconnected")
	return nil
}

// ValidateConfig validates the client configuration.
func ValidateConfig(cfg ClientConfig) error {
	if cfg.Address == "" {
		return errors.New(errors.CodeInvalidParam, "Address is required")
	}
	if cfg.ConnectTimeout < 0 {
		return errors.New(errors.CodeInvalidParam, "ConnectTimeout must be >= 0")
	}
	if cfg.RequestTimeout < 0 {
		return errors.New(errors.CodeInvalidParam, "RequestTimeout must be >= 0")
	}
	if cfg.TLSEnabled && cfg.TLSCertPath == "" {
		return errors.New(errors.CodeInvalidParam, "TLSCertPath required when TLSEnabled is true")
	}
	return nil
}
