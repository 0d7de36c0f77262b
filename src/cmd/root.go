package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docdbctl/src/dbclient"
	"docdbctl/src/directors"
	"docdbctl/src/helpers"
	"docdbctl/src/logging"
	"docdbctl/src/metrics"
	"docdbctl/src/settings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	Version = "0.1.0"

	// Wrap is the number of characters to wrap the help text at
	Wrap int = 50

	closeTimeout = 5 * time.Second
)

// CLI holds the command tree and the state shared by the commands of one invocation
type CLI struct {
	Root *cobra.Command

	v           *viper.Viper
	managerOpts []dbclient.Option

	logger   *zap.SugaredLogger
	service  *directors.DocumentService
	recorder *metrics.Recorder
}

// NewCLI builds the command tree. The options are handed to the connection manager.
func NewCLI(opts ...dbclient.Option) *CLI {
	c := &CLI{
		v:           viper.New(),
		managerOpts: opts,
	}

	c.Root = &cobra.Command{
		Use:   "docdbctl",
		Short: "talk to a MongoDB compatible document database",
		Long: fmt.Sprintf(`docdbctl (v%s)

A small client for MongoDB compatible servers: CRUD on collections
and discovery of databases, collections and field names.
Documents are given as MongoDB Extended JSON.`, Version),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := c.Root.PersistentFlags()
	flags.String("uri", "", WrapString("connection string, defaults to $MONGO_URI"))
	flags.String("server-api", settings.DefaultServerAPI, WrapString("stable API version to pin"))
	flags.String("app-name", settings.DefaultAppName, WrapString("application name reported to the server"))
	flags.Duration("timeout", settings.DefaultTimeout, WrapString("timeout of a single database operation"))
	flags.Duration("connect-timeout", settings.DefaultConnectTimeout, WrapString("timeout for connecting and the initial ping"))
	flags.Bool("debug", false, WrapString("enable debug logging"))
	flags.Bool("verbose", false, WrapString("log informational messages"))
	flags.String("log-file", "", WrapString("also write logs to this file"))
	flags.Bool("metrics", false, WrapString("print operation metrics to stderr on exit"))

	c.Root.AddCommand(
		c.versionCmd(),
		c.pingCmd(),
		c.findCmd(),
		c.insertCmd(),
		c.updateCmd(),
		c.deleteCmd(),
		c.databasesCmd(),
		c.collectionsCmd(),
		c.fieldsCmd(),
	)

	return c
}

// Execute runs the command line and returns the process exit code
func (c *CLI) Execute(ctx context.Context) int {
	err := c.Root.ExecuteContext(ctx)
	c.Shutdown()

	if err != nil {
		fmt.Fprintf(c.Root.ErrOrStderr(), "Error: %s\n", err)
		return 1
	}
	return 0
}

// Shutdown disconnects the client and flushes logs and metrics.
// It does nothing when no command got as far as connecting.
func (c *CLI) Shutdown() {
	if c.logger == nil {
		return
	}

	if manager, err := dbclient.GetConnectionManager(); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := manager.Close(ctx); err != nil {
			c.logger.Warnw("failed to disconnect", "error", err)
		}
	}

	if settings.GetSettings().PrintMetrics {
		c.recorder.WritePrometheus(c.Root.ErrOrStderr())
	}

	_ = c.logger.Sync()
}

// connect loads the settings and initializes the connection on first use
func (c *CLI) connect(cmd *cobra.Command) (*directors.DocumentService, error) {
	if c.service != nil {
		return c.service, nil
	}

	settings.InitConfig(c.v)

	// Bind command flags to viper
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	args := settings.FromViper(c.v)
	if err := args.Validate(); err != nil {
		return nil, err
	}
	settings.SetSettings(args)

	logger, err := logging.NewLogger()
	if err != nil {
		return nil, err
	}
	c.logger = logger.With("run_id", helpers.GenerateUUID())
	c.recorder = metrics.NewRecorder()

	if args.Verbose {
		c.logger.Infow("docdbctl starting",
			"version", Version,
			"uri", helpers.RedactURI(args.MongoURI),
			"server_api", args.ServerAPI,
			"timeout", args.OperationTimeout,
		)
	}

	manager := dbclient.InitConnectionManager(logging.Component(c.logger, "dbclient"), c.managerOpts...)
	err = manager.Initialize(cmd.Context(), dbclient.Config{
		URI:            args.MongoURI,
		ServerAPI:      args.ServerAPI,
		AppName:        args.AppName,
		ConnectTimeout: args.ConnectTimeout,
	})
	if err != nil {
		return nil, err
	}

	client, err := manager.Client()
	if err != nil {
		return nil, err
	}

	c.service = directors.NewDocumentService(client, logging.Component(c.logger, "directors"),
		directors.WithTimeout(args.OperationTimeout),
		directors.WithMetrics(c.recorder),
	)
	return c.service, nil
}

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}
