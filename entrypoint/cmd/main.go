package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/adapters/astroport"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/adapters/ibctransfer"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/adapters/lido"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/adapters/osmosis"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/config"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/host"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/router"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/rpc"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	// Share the logger with the packages that expose a setter
	rpc.SetLogger(log.With().Str("component", "rpc").Logger())
	host.SetLogger(log)
	router.SetLogger(log)
	osmosis.SetLogger(log)
	astroport.SetLogger(log)
	ibctransfer.SetLogger(log)
	lido.SetLogger(log)
}

func main() {
	configRPC := flag.String("config-rpc", "", "toml config for the rpc server, ENTRYPOINT_* env vars are used when empty")
	deploymentFile := flag.String("deployment", "", "deployment file, overrides deployment_file from the rpc config")
	flag.Parse()

	var configPath *string
	if *configRPC != "" {
		configPath = configRPC
	}
	rpcConfig, err := config.LoadRPCConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load RPC config")
	}
	if *deploymentFile != "" {
		rpcConfig.DeploymentFile = *deploymentFile
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if rpcConfig.DeploymentSource != "" {
		log.Info().
			Str("source", rpcConfig.DeploymentSource).
			Str("file", rpcConfig.DeploymentFile).
			Msg("Fetching deployment")
		if err := config.FetchDeployment(ctx, rpcConfig.DeploymentSource, rpcConfig.DeploymentFile); err != nil {
			log.Fatal().Err(err).Msg("Failed to fetch deployment")
		}
	}

	deployment, err := config.LoadDeployment(rpcConfig.DeploymentFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load deployment")
	}
	log.Info().
		Str("chain_id", deployment.ChainID).
		Str("entry_point", deployment.EntryPointAddress).
		Int("venues", len(deployment.SwapVenues)).
		Msg("Loaded deployment")

	chain, err := buildChain(ctx, deployment, osmosis.DefaultFailoverConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build entry point chain")
	}
	defer chain.Close()

	serverConfig := buildServerConfig(rpcConfig)
	serverConfig.Ready = chain.ready

	svc := rpc.NewEntryPointServer(chain.host, chain.entryPoint)
	server, err := rpc.NewServer(ctx, serverConfig, svc)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create RPC server")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

// buildServerConfig converts the loaded RPCConfig to rpc.ServerConfig
func buildServerConfig(cfg *config.RPCConfig) *rpc.ServerConfig {
	serverConfig := &rpc.ServerConfig{
		Address:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  cfg.UsePrometheus,
	}

	if cfg.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.RatePerMinute
	}
	if cfg.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.MaxConcurrentRequests
	}

	if cfg.EnableTracing || cfg.EnableMetrics || cfg.EnableLogs {
		serverConfig.OTelConfig = &rpc.OTelConfig{
			ServiceName:     defaultString(cfg.ServiceName, "spectra-entry-point"),
			ServiceVersion:  defaultString(cfg.ServiceVersion, "1.0.0"),
			Environment:     defaultString(cfg.Environment, "development"),
			EnableTracing:   cfg.EnableTracing,
			UseOTLPTraces:   cfg.UseOTLPTraces,
			OTLPTracesURL:   cfg.OTLPTracesURL,
			EnableMetrics:   cfg.EnableMetrics,
			UsePrometheus:   cfg.UsePrometheus,
			UseOTLPMetrics:  cfg.UseOTLPMetrics,
			OTLPMetricsURL:  cfg.OTLPMetricsURL,
			EnableLogs:      cfg.EnableLogs,
			UseOTLPLogs:     cfg.UseOTLPLogs,
			OTLPLogsURL:     cfg.OTLPLogsURL,
			InsecureOTLP:    cfg.InsecureOTLP,
			DevelopmentMode: cfg.DevelopmentMode,
		}
	}

	return serverConfig
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
