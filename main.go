package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"melcloud2mqtt/bridge"
	"melcloud2mqtt/climate"
	"melcloud2mqtt/configflow"
	"melcloud2mqtt/entity"
	"melcloud2mqtt/logging"
	"melcloud2mqtt/melcloud"
	"melcloud2mqtt/metrics"
	"melcloud2mqtt/mqtt"
	"melcloud2mqtt/sensor"
	"melcloud2mqtt/store"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var version = "dev"

// SETUP_RETRY_INTERVAL is the wait between setup attempts of an entry that is not ready
const SETUP_RETRY_INTERVAL = 30 * time.Second

var (
	flagConfig   string
	flagLogLevel string

	flagServer      string
	flagClientID    string
	flagUsername    string
	flagPassword    string
	flagPrefix      string
	flagHassPrefix  string
	flagIntegration string
	flagEntries     string
	flagMetrics     string
	flagInterval    time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "melcloud2mqtt",
	Short:        "Bridge MELCloud heat pumps to Home Assistant over MQTT",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Publish the configured MELCloud accounts and forward commands",
	RunE:  runBridges,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagEntries, "entries", "", "Config entries file")
	rootCmd.PersistentFlags().StringVar(&flagIntegration, "integration", "", "Integration variant: legacy or current")

	runCmd.Flags().StringVar(&flagServer, "server", "", "The full url of the MQTT server to connect to ex: tcp://127.0.0.1:1883")
	runCmd.Flags().StringVar(&flagClientID, "clientid", "", "A clientid for the connection")
	runCmd.Flags().StringVar(&flagUsername, "username", "", "A username to authenticate to the MQTT server")
	runCmd.Flags().StringVar(&flagPassword, "password", "", "Password to match username")
	runCmd.Flags().StringVar(&flagPrefix, "prefix", "", "MQTT topic root where to publish/read topics")
	runCmd.Flags().StringVar(&flagHassPrefix, "hassPrefix", "", "Home assistant discovery prefix")
	runCmd.Flags().StringVar(&flagMetrics, "metrics", "", "Address to serve /metrics and /health on, ex: :9090")
	runCmd.Flags().DurationVar(&flagInterval, "interval", 0, "Poll interval")
	rootCmd.AddCommand(runCmd)
}

func main() {
	Execute(version)
}

// Execute runs the root command.
func Execute(version string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("melcloud2mqtt %s\n", version))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies the flags that were set
func loadConfig(cmd *cobra.Command) (*Config, error) {
	config, err := LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	set := func(name string, value string, target *string) {
		if cmd.Flags().Changed(name) {
			*target = value
		}
	}
	set("log-level", flagLogLevel, &config.LogLevel)
	set("entries", flagEntries, &config.EntriesFile)
	set("integration", flagIntegration, &config.Integration)
	set("server", flagServer, &config.Mqtt.Server)
	set("clientid", flagClientID, &config.Mqtt.ClientID)
	set("username", flagUsername, &config.Mqtt.Username)
	set("password", flagPassword, &config.Mqtt.Password)
	set("prefix", flagPrefix, &config.TopicPrefix)
	set("hassPrefix", flagHassPrefix, &config.HassPrefix)
	set("metrics", flagMetrics, &config.MetricsAddr)
	if cmd.Flags().Changed("interval") {
		config.PollInterval = flagInterval
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logging.Setup(config.LogLevel)
	return config, nil
}

func newFlow(config *Config, entries *store.File) *configflow.Flow {
	domain, _ := config.Domain()
	return configflow.New(&configflow.Config{
		Domain:    domain,
		Connector: &configflow.MelCloud{},
		Store:     entries,
	})
}

// entryEntities holds the entities built for one config entry
type entryEntities struct {
	name     string
	climates []climate.Climate
	sensors  []sensor.Sensor
}

// setupEntry connects one config entry, retrying while MELCloud is not ready
func setupEntry(ctx context.Context, domain string, entry store.Entry) (*entryEntities, error) {
	connect := func(token string) entity.DeviceLister {
		return melcloud.New(token)
	}
	for {
		account, err := entity.Setup(ctx, domain, connect, entry.Data[store.DATA_TOKEN])
		if err == nil {
			e := &entryEntities{name: bridge.ObjectID(entry.Email())}
			if domain == entity.DOMAIN_LEGACY {
				e.climates = climate.NewLegacyEntities(account.All())
				e.sensors = sensor.NewLegacySensors(account.All())
			} else {
				e.climates = climate.NewEntities(account)
				e.sensors = sensor.NewSensors(account)
			}
			return e, nil
		}
		if !errors.Is(err, entity.ErrNotReady) {
			return nil, err
		}
		slog.Warn("MELCloud not ready, retrying", "entry", entry.Title, "in", SETUP_RETRY_INTERVAL)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(SETUP_RETRY_INTERVAL):
		}
	}
}

func runBridges(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	domain, _ := config.Domain()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := store.NewFile(config.EntriesFile)
	if err != nil {
		return err
	}
	if config.Token != "" {
		result, err := newFlow(config, entries).StepImport(ctx, map[string]string{configflow.FIELD_TOKEN: config.Token})
		if err != nil {
			return err
		}
		slog.Info("Imported configured token", "result", describeResult(result))
	}

	var accounts []*entryEntities
	for _, entry := range entries.Entries(domain) {
		e, err := setupEntry(ctx, domain, entry)
		if err != nil {
			slog.Error("Cannot set up entry", "entry", entry.Title, "error", err)
			continue
		}
		accounts = append(accounts, e)
	}
	if len(accounts) == 0 {
		return errors.New("no MELCloud account configured, run login or import first")
	}

	collector := metrics.NewCollector()
	if config.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collector)
		server := metrics.NewHTTPServer(config.MetricsAddr, metrics.Handler(registry))
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server stopped", "error", err)
			}
		}()
		defer server.Server.Close()
	}

	mqttClient := mqtt.New(&mqtt.Config{
		Server:   config.Mqtt.Server,
		ClientID: config.Mqtt.ClientID,
		Username: config.Mqtt.Username,
		Password: config.Mqtt.Password,
		Insecure: config.Mqtt.Insecure,
	})
	defer mqttClient.Close()

	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()
	var sessionID int
	var bridges []*bridge.Bridge
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down")
			return nil
		case <-ticker.C:
		}
		newSessionID := mqttClient.SessionID()
		if sessionID != newSessionID {
			bridges = newBridges(accounts, mqttClient, config)
			started := true
			for _, b := range bridges {
				if err := b.Start(ctx); err != nil {
					slog.Error("Error starting bridge", "module", b.ModuleName, "error", err)
					started = false
					break
				}
			}
			if started {
				sessionID = newSessionID
				sources := make([]metrics.Bridge, 0, len(bridges))
				for _, b := range bridges {
					sources = append(sources, b)
				}
				collector.SetBridges(sources)
			}
		} else {
			for _, b := range bridges {
				b.Tick(ctx)
			}
		}
	}
}

func newBridges(accounts []*entryEntities, mqttClient *mqtt.Client, config *Config) []*bridge.Bridge {
	var bridges []*bridge.Bridge
	for _, a := range accounts {
		bridges = append(bridges, bridge.NewBridge(&bridge.Config{
			ModuleName:  a.name,
			Mqtt:        mqttClient,
			TopicPrefix: config.TopicPrefix,
			HassPrefix:  config.HassPrefix,
			HostUnit:    config.HostUnit,
			Climates:    a.climates,
			Sensors:     a.sensors,
		}))
	}
	return bridges
}
