// Command challengescot runs a challengescot instance with the challenge plugin
package main

import (
	"context"
	"fmt"
	"github.com/codeclub/challengescot"
	"github.com/codeclub/challengescot/challenge"
	"github.com/codeclub/challengescot/config"
	"github.com/codeclub/challengescot/plugins"
	"github.com/codeclub/challengescot/store"
	"github.com/codeclub/challengescot/store/datastoredb"
	"github.com/codeclub/challengescot/store/inmemorydb"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"google.golang.org/api/option"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	name              = "challengescot"
	resultsNamespace  = "challengeResults"
	shutdownTimeout   = 5 * time.Second
	defaultConfigFile = "challengescot.yml"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   name,
	Short: "A slack bot running timed coding challenges",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to slack and run challenges until interrupted",
	Long: `Connect to slack with socket mode and run challenges until interrupted.

The bot and app tokens can be set in the configuration file or with the
CHALLENGESCOT_TOKEN and CHALLENGESCOT_APPTOKEN environment variables (a .env
file in the working directory is loaded if present).`,
	RunE: run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", name, challengescot.VERSION)
	},
}

func init() {
	runCmd.Flags().StringVar(&configFile, "config", defaultConfigFile, "path to the configuration file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) (err error) {
	v, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	logger := challengescot.NewSLogger(os.Stdout, v.GetBool(config.DebugKey))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter, err := prometheus.New()
	if err != nil {
		return errors.Wrap(err, "failed to create metrics exporter")
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	defer provider.Shutdown(context.Background())

	meter := provider.Meter(name)

	if addr := v.GetString(config.MetricsListenAddrKey); addr != "" {
		srv := serveMetrics(addr, logger)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			srv.Shutdown(sctx)
		}()
	}

	archive, err := newResultArchive(v, meter)
	if err != nil {
		return err
	}

	bot, err := challengescot.NewBot(name, v, challengescot.OptionLog(logger), challengescot.OptionMeter(meter)).
		WithConfigurablePluginCloserErr(plugins.ChallengePluginName, func(c *viper.Viper) (closer io.Closer, p *challengescot.Plugin, err error) {
			ch, err := plugins.NewChallenge(c, archive, challenge.OptionMeter(meter))
			if err != nil {
				return nil, nil, err
			}

			return ch, ch.Plugin, nil
		}).
		Build()
	if err != nil {
		if archive != nil {
			archive.(io.Closer).Close()
		}

		return err
	}
	defer bot.Close()

	logger.Printf("Starting %s v%s", name, challengescot.VERSION)

	return bot.Run(ctx)
}

// loadConfig reads the configuration file, layered over defaults and environment variables
func loadConfig(path string) (v *viper.Viper, err error) {
	v = config.NewViperWithDefaults()
	v.SetConfigFile(path)

	if err = v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration [%s]", path)
	}

	if err = config.BindEnv(v, ".env"); err != nil {
		return nil, err
	}

	return v, nil
}

// newResultArchive opens the storage backend configured for challenge results. Archiving is disabled
// with the none backend
func newResultArchive(v *viper.Viper, meter metric.Meter) (archive plugins.ResultArchiver, err error) {
	var storer store.StringStorer

	switch backend := v.GetString(config.StorageBackendKey); backend {
	case config.NoBackend:
		return nil, nil

	case config.LevelDBBackend:
		if storer, err = store.NewLevelDB(resultsNamespace, v.GetString(config.StoragePathKey)); err != nil {
			return nil, errors.Wrapf(err, "failed to open [%s] leveldb", resultsNamespace)
		}

	case config.DatastoreBackend:
		ds, err := datastoredb.New(resultsNamespace, v.GetString(config.StorageGCloudProjectIDKey), meter,
			option.WithCredentialsFile(v.GetString(config.StorageGCloudCredentialsFileKey)))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open [%s] datastore", resultsNamespace)
		}

		// Reads are served from memory to save on datastore round trips
		if storer, err = inmemorydb.New(ds); err != nil {
			ds.Close()
			return nil, errors.Wrapf(err, "failed to load [%s] from datastore", resultsNamespace)
		}

	default:
		return nil, fmt.Errorf("Unknown %s [%s]", config.StorageBackendKey, backend)
	}

	return store.NewResultArchive(storer), nil
}

// serveMetrics exposes the prometheus metrics on /metrics
func serveMetrics(addr string, logger challengescot.SLogger) (srv *http.Server) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv = &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Printf("Serving metrics on [%s]", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("Metrics server failed: %v", err)
		}
	}()

	return srv
}
