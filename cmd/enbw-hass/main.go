package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"enbw-hass/internal/api"
	"enbw-hass/internal/app"
	"enbw-hass/internal/config"
	"enbw-hass/internal/finder"
	"enbw-hass/internal/httpapi"
	"enbw-hass/internal/mqtt"
	"enbw-hass/internal/station"
	"enbw-hass/internal/transmission"

	"github.com/sirupsen/logrus"
)

// version is injected at build time via ldflags
var version = "dev"

func main() {
	cfg, mode := parseFlags()

	logger := setupLogger(cfg.Verbose)

	// Search runs before a station number exists, so it only needs the key.
	if mode == modeSearch {
		if cfg.APIKey == "" {
			logger.Fatal("API key is required")
		}
	} else if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	client := api.NewClient(cfg.BaseURL, cfg.APIKey, cfg.UserAgent, config.APITimeout, logger)
	stationFinder := finder.NewFinder(client, cfg.HomeLatitude, cfg.HomeLongitude, logger)

	// One-shot setup-flow modes --------------------------------------------
	switch mode {
	case modeSearch:
		os.Exit(runSearch(cfg, stationFinder))
	case modeLookup:
		os.Exit(runLookup(cfg, stationFinder))
	}

	logger.WithFields(logrus.Fields{
		"version":          version,
		"station":          cfg.StationNumber,
		"refresh_interval": cfg.GetRefreshInterval(),
	}).Info("Starting enbw-hass")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("Shutdown signal received")
		cancel()
	}()

	poller := station.NewPoller(client, cfg.Name, cfg.StationNumber, cfg.GetRefreshInterval(), logger)

	// Transmitters ---------------------------------------------------------
	var mqttTx *transmission.MQTTTransmitter
	if cfg.HasMQTT() {
		mqttClient, err := mqtt.NewClient(cfg.MQTTUrl, station.GenerateEntityID(cfg.StationNumber), logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create MQTT client")
		}
		defer mqttClient.Disconnect(250)
		mqttTx = transmission.NewMQTTTransmitter(mqttClient, cfg.DiscoveryPrefix, logger)
		logger.Info("MQTT transmitter ready")
	} else {
		logger.Warn("No MQTT URL configured; data will only be served over HTTP")
	}

	var statusSrv *httpapi.Server
	if cfg.HTTPListen != "" {
		statusSrv = httpapi.NewServer(poller, stationFinder, logger)
	}

	app.Run(ctx, cfg, poller, mqttTx, statusSrv, logger)

	logger.Info("enbw-hass stopped")
}

// -----------------------------------------------------------------------------
// Helpers & Flags
// -----------------------------------------------------------------------------

type runMode int

const (
	modeRun runMode = iota
	modeSearch
	modeLookup
)

func parseFlags() (*config.Config, runMode) {
	cfg := config.GetDefaultConfig()

	showVersion := flag.Bool("version", false, "Show version and exit")
	search := flag.Bool("search", false, "Search stations around the configured location and exit")
	lookup := flag.Bool("lookup", false, "Look the configured station number up and exit")
	configPath := flag.String("config", getEnv("ENBW_HASS_CONFIG", ""), "Path to YAML config file")

	// Load the file first so flags can override it.
	flag.CommandLine.Parse(extractConfigFlag())
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	flag.StringVar(&cfg.Name, "name", getEnv("ENBW_HASS_NAME", cfg.Name), "Station display name")
	flag.StringVar(&cfg.StationNumber, "station", getEnv("ENBW_HASS_STATION_NUMBER", cfg.StationNumber), "EnBW station number")
	flag.StringVar(&cfg.APIKey, "api-key", getEnv("ENBW_HASS_API_KEY", cfg.APIKey), "EnBW API subscription key")
	flag.StringVar(&cfg.MQTTUrl, "mqtt-url", getEnv("ENBW_HASS_MQTT_URL", cfg.MQTTUrl), "MQTT URL")
	flag.StringVar(&cfg.DiscoveryPrefix, "discovery-prefix", getEnv("ENBW_HASS_DISCOVERY_PREFIX", cfg.DiscoveryPrefix), "HA discovery prefix")
	flag.StringVar(&cfg.HTTPListen, "http-listen", getEnv("ENBW_HASS_HTTP_LISTEN", cfg.HTTPListen), "Status server listen address (empty = disabled)")
	flag.Float64Var(&cfg.HomeLatitude, "latitude", getEnvFloat("ENBW_HASS_LATITUDE", cfg.HomeLatitude), "Home latitude")
	flag.Float64Var(&cfg.HomeLongitude, "longitude", getEnvFloat("ENBW_HASS_LONGITUDE", cfg.HomeLongitude), "Home longitude")
	flag.Float64Var(&cfg.SearchRadiusKm, "radius", getEnvFloat("ENBW_HASS_SEARCH_RADIUS", cfg.SearchRadiusKm), "Search radius in km")
	flag.IntVar(&cfg.RefreshInterval, "refresh-interval", getEnvInt("ENBW_HASS_REFRESH_INTERVAL", cfg.RefreshInterval), "Minimum seconds between station fetches")
	flag.BoolVar(&cfg.Verbose, "verbose", getEnvBool("ENBW_HASS_VERBOSE", cfg.Verbose), "Verbose logging")

	flag.Parse()

	if *showVersion {
		fmt.Printf("enbw-hass %s\n", version)
		os.Exit(0)
	}

	switch {
	case *search:
		return cfg, modeSearch
	case *lookup:
		return cfg, modeLookup
	}
	return cfg, modeRun
}

// extractConfigFlag pre-parses only the -config flag so the YAML file can be
// loaded before the remaining flags register their defaults.
func extractConfigFlag() []string {
	args := os.Args[1:]
	for i, arg := range args {
		if arg == "-config" || arg == "--config" {
			if i+1 < len(args) {
				return args[i : i+2]
			}
		}
		if strings.HasPrefix(arg, "-config=") || strings.HasPrefix(arg, "--config=") {
			return args[i : i+1]
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func setupLogger(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// runSearch prints the stations around the configured home location, closest
// first, for the user to pick a station number from.
func runSearch(cfg *config.Config, stationFinder *finder.Finder) int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	candidates := stationFinder.Search(ctx, cfg.HomeLatitude, cfg.HomeLongitude, cfg.SearchRadiusKm)
	if len(candidates) == 0 {
		fmt.Println("No stations found")
		return 1
	}

	fmt.Printf("%-10s %-8s %-7s %-8s %s\n", "STATION", "DIST", "POINTS", "MAX KW", "ADDRESS")
	for _, c := range candidates {
		fmt.Printf("%-10s %5.1fkm %7d %8.1f %s\n",
			c.StationNumber, c.DistanceKm, c.ChargePointCount, c.MaxPowerKw, c.Address)
	}
	return 0
}

// runLookup validates the configured station number.
func runLookup(cfg *config.Config, stationFinder *finder.Finder) int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	candidate, found := stationFinder.LookupByID(ctx, cfg.StationNumber)
	if !found {
		fmt.Printf("Station %s not found\n", cfg.StationNumber)
		return 1
	}

	fmt.Printf("Station %s\n", candidate.StationNumber)
	fmt.Printf("  Address:       %s\n", candidate.Address)
	fmt.Printf("  Charge points: %d\n", candidate.ChargePointCount)
	fmt.Printf("  Max power:     %.1f kW\n", candidate.MaxPowerKw)
	fmt.Printf("  Plug types:    %v\n", candidate.PlugTypes)
	return 0
}
