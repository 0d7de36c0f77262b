package settings

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingURI is returned when no connection string was configured.
var ErrMissingURI = errors.New("MONGO_URI is not set")

const (
	// EnvPrefix is prepended to every flag name when read from the environment
	EnvPrefix = "docdbctl"

	DefaultServerAPI      = "1"
	DefaultAppName        = "docdbctl"
	DefaultTimeout        = 10 * time.Second
	DefaultConnectTimeout = 10 * time.Second
)

type Arguments struct {
	// The connection string of the database server
	MongoURI string

	// Stable API version pinned during the handshake
	ServerAPI string

	// Reported to the server in the client metadata
	AppName string

	// Upper bound for a single database operation
	OperationTimeout time.Duration

	// Upper bound for connect + ping during startup
	ConnectTimeout time.Duration

	// Path to an additional log file, empty means stderr only
	LogFile string

	Debug   bool
	Verbose bool

	// Dump operation metrics to stderr when the command finishes
	PrintMetrics bool
}

var (
	instance *Arguments
	mu       sync.RWMutex
)

// GetSettings returns the process-wide settings instance
func GetSettings() *Arguments {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = Defaults()
	}
	return instance
}

// SetSettings replaces the process-wide settings instance
func SetSettings(args *Arguments) {
	mu.Lock()
	defer mu.Unlock()
	instance = args
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() *Arguments {
	return &Arguments{
		ServerAPI:        DefaultServerAPI,
		AppName:          DefaultAppName,
		OperationTimeout: DefaultTimeout,
		ConnectTimeout:   DefaultConnectTimeout,
	}
}

// InitConfig loads .env files and prepares v to read the environment.
// Variables already set in the environment win over the files.
func InitConfig(v *viper.Viper) {
	// load env files, missing files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// the connection string keeps its conventional name
	_ = v.BindEnv("uri", "MONGO_URI", "DOCDBCTL_URI")
}

// FromViper builds the settings from the values viper currently holds.
// Flags must already be bound.
func FromViper(v *viper.Viper) *Arguments {
	args := Defaults()

	args.MongoURI = strings.TrimSpace(v.GetString("uri"))
	if s := v.GetString("server-api"); s != "" {
		args.ServerAPI = s
	}
	if s := v.GetString("app-name"); s != "" {
		args.AppName = s
	}
	if d := v.GetDuration("timeout"); d > 0 {
		args.OperationTimeout = d
	}
	if d := v.GetDuration("connect-timeout"); d > 0 {
		args.ConnectTimeout = d
	}
	args.LogFile = v.GetString("log-file")
	args.Debug = v.GetBool("debug")
	args.Verbose = v.GetBool("verbose")
	args.PrintMetrics = v.GetBool("metrics")

	return args
}

// Validate checks the settings and returns a configuration error if invalid
func (a *Arguments) Validate() error {
	if a.MongoURI == "" {
		return ErrMissingURI
	}

	if !strings.HasPrefix(a.MongoURI, "mongodb://") && !strings.HasPrefix(a.MongoURI, "mongodb+srv://") {
		return errors.New("invalid connection string: scheme must be mongodb:// or mongodb+srv://")
	}

	if a.ServerAPI != "1" {
		return fmt.Errorf("unsupported server API version: %s (only \"1\" is defined)", a.ServerAPI)
	}

	if a.OperationTimeout <= 0 {
		return fmt.Errorf("invalid timeout: %s (must be positive)", a.OperationTimeout)
	}

	if a.ConnectTimeout <= 0 {
		return fmt.Errorf("invalid connect timeout: %s (must be positive)", a.ConnectTimeout)
	}

	return nil
}
