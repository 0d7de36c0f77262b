package dbclient

import (
	"context"
	"strings"
	"sync"
	"time"

	"docdbctl/src/helpers"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const disconnectTimeout = 5 * time.Second

// Config describes how to reach the database server
type Config struct {
	URI string

	// Stable API version to pin, defaults to "1"
	ServerAPI string

	AppName string

	// Bounds connect, server selection and the initial ping. Zero leaves the driver defaults.
	ConnectTimeout time.Duration
}

// ConnectFunc opens a client. mongo.Connect is used unless replaced with WithConnectFunc.
type ConnectFunc func(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error)

type Option func(*Manager)

// WithConnectFunc replaces the function used to open the client
func WithConnectFunc(fn ConnectFunc) Option {
	return func(m *Manager) {
		m.connect = fn
	}
}

// Manager owns the single database client of the process.
// It is safe for concurrent use once Initialize has returned.
type Manager struct {
	mu      sync.RWMutex
	client  *mongo.Client
	closed  bool
	connect ConnectFunc
	logger  *zap.SugaredLogger
}

// NewManager creates a manager without a client. Call Initialize before use.
func NewManager(logger *zap.SugaredLogger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	m := &Manager{
		connect: defaultConnect,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func defaultConnect(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	return mongo.Connect(ctx, opts)
}

// Initialize connects to the server and verifies it with a ping.
// Only the first successful call stores a client; later calls return ErrAlreadyInitialized.
// When the ping fails nothing is stored and a *ConnectivityError is returned.
func (m *Manager) Initialize(ctx context.Context, cfg Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return ErrAlreadyInitialized
	}

	clientOpts, err := cfg.clientOptions()
	if err != nil {
		return err
	}

	host := helpers.RedactURI(cfg.URI)
	log := m.logger.With("uri", host, "uri_fingerprint", helpers.FingerprintURI(cfg.URI))

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client, err := m.connect(ctx, clientOpts)
	if err != nil {
		log.Errorw("failed to create database client", "error", err)
		return &ConnectivityError{Host: host, Err: err}
	}

	if err := ping(ctx, client); err != nil {
		log.Errorw("database server did not answer the ping", "error", err)

		// release the pool and monitors of the rejected client
		dctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		err = multierr.Append(err, client.Disconnect(dctx))

		return &ConnectivityError{Host: host, Err: err}
	}

	m.client = client
	log.Infow("database connected", "server_api", cfg.serverAPI())
	return nil
}

// Client returns the initialized client
func (m *Manager) Client() (*mongo.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.client == nil {
		return nil, ErrNotInitialized
	}
	if m.closed {
		return nil, ErrClosed
	}
	return m.client, nil
}

// IsAlive pings the server. It never fails: any error becomes false and is logged.
func (m *Manager) IsAlive(ctx context.Context) bool {
	client, err := m.Client()
	if err != nil {
		m.logger.Warnw("liveness check skipped", "error", err)
		return false
	}

	if err := ping(ctx, client); err != nil {
		m.logger.Warnw("liveness check failed", "error", err)
		return false
	}
	return true
}

// Close disconnects the client. The manager cannot be initialized again afterwards.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil || m.closed {
		return nil
	}
	m.closed = true
	return m.client.Disconnect(ctx)
}

func ping(ctx context.Context, client *mongo.Client) error {
	return client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (c Config) serverAPI() options.ServerAPIVersion {
	if c.ServerAPI == "" {
		return options.ServerAPIVersion1
	}
	return options.ServerAPIVersion(c.ServerAPI)
}

// clientOptions turns the config into driver options and validates them
func (c Config) clientOptions() (*options.ClientOptions, error) {
	if strings.TrimSpace(c.URI) == "" {
		return nil, ErrMissingURI
	}

	opts := options.Client().
		ApplyURI(c.URI).
		SetServerAPIOptions(options.ServerAPI(c.serverAPI()))

	if c.AppName != "" {
		opts.SetAppName(c.AppName)
	}
	if c.ConnectTimeout > 0 {
		opts.SetConnectTimeout(c.ConnectTimeout)
		opts.SetServerSelectionTimeout(c.ConnectTimeout)
	}

	if err := opts.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	return opts, nil
}
