package config

// RPCConfig configures the entry point RPC service
type RPCConfig struct {
	// rpc configs
	Port int    `mapstructure:"port" toml:"port"`
	Host string `mapstructure:"host" toml:"host"`

	// CORS configs
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `mapstructure:"rate_per_minute" toml:"rate_per_minute"`
	MaxConcurrentRequests int `mapstructure:"max_concurrent_requests" toml:"max_concurrent_requests"`

	// OpenTelemetry configs
	ServiceName    string `mapstructure:"service_name" toml:"service_name"`
	ServiceVersion string `mapstructure:"service_version" toml:"service_version"`
	Environment    string `mapstructure:"environment" toml:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `mapstructure:"enable_tracing" toml:"enable_tracing"`
	UseOTLPTraces  bool   `mapstructure:"use_otlp_traces" toml:"use_otlp_traces"`
	OTLPTracesURL  string `mapstructure:"otlp_traces_url" toml:"otlp_traces_url"`
	EnableMetrics  bool   `mapstructure:"enable_metrics" toml:"enable_metrics"`
	UsePrometheus  bool   `mapstructure:"use_prometheus" toml:"use_prometheus"`
	UseOTLPMetrics bool   `mapstructure:"use_otlp_metrics" toml:"use_otlp_metrics"`
	OTLPMetricsURL string `mapstructure:"otlp_metrics_url" toml:"otlp_metrics_url"`
	EnableLogs     bool   `mapstructure:"enable_logs" toml:"enable_logs"`
	UseOTLPLogs    bool   `mapstructure:"use_otlp_logs" toml:"use_otlp_logs"`
	OTLPLogsURL    string `mapstructure:"otlp_logs_url" toml:"otlp_logs_url"`

	InsecureOTLP bool `mapstructure:"insecure_otlp" toml:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `mapstructure:"development_mode" toml:"development_mode"`

	// DeploymentFile is the local deployment.toml. When DeploymentSource is set
	// the file is fetched from there first.
	DeploymentFile   string `mapstructure:"deployment_file" toml:"deployment_file"`
	DeploymentSource string `mapstructure:"deployment_source" toml:"deployment_source"`
}

const (
	VenueKindOsmosis   = "osmosis"
	VenueKindAstroport = "astroport"
	VenueKindLido      = "lido"
)

var VenueKinds = []string{VenueKindOsmosis, VenueKindAstroport, VenueKindLido}

// Deployment describes the contracts the entry point chain runs
type Deployment struct {
	ChainID                   string        `toml:"chain_id"`
	Bech32Prefix              string        `toml:"bech32_prefix"`
	EntryPointAddress         string        `toml:"entry_point_address"`
	IbcTransferAdapterAddress string        `toml:"ibc_transfer_adapter_address"`
	EnforceMinCoin            bool          `toml:"enforce_min_coin"`
	SwapVenues                []VenueConfig `toml:"swap_venues"`
}

// VenueConfig is one [[swap_venues]] entry. Which of the optional fields are
// required depends on Kind.
type VenueConfig struct {
	Name           string `toml:"name"`
	Kind           string `toml:"kind"`
	AdapterAddress string `toml:"adapter_address"`

	// astroport
	RouterAddress string `toml:"router_address,omitempty"`
	LcdURL        string `toml:"lcd_url,omitempty"`

	// lido
	SatelliteAddress string `toml:"satellite_address,omitempty"`

	// osmosis, the first url is the primary
	SqsURLs []string `toml:"sqs_urls,omitempty"`
}
