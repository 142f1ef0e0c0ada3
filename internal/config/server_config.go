package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	// EnvPrefix is prepended to every automatically bound environment variable,
	// e.g. "agent.request_timeout" is read from SERVER_AGENT_REQUEST_TIMEOUT.
	EnvPrefix = "SERVER"

	CoordinationMemory = "memory"
	CoordinationRedis  = "redis"

	FeeModeAuto    = "auto"
	FeeModeEIP1559 = "eip1559"
	FeeModeLegacy  = "legacy"
)

type EchoServer struct {
	Debug                          bool   `mapstructure:"debug"`
	ListenAddress                  string `mapstructure:"listen_address" validate:"required"`
	HideInternalServerErrorDetails bool   `mapstructure:"hide_internal_server_error_details"`
	BaseURL                        string `mapstructure:"base_url"`
	BodyLimit                      string `mapstructure:"body_limit"`
	EnableCORSMiddleware           bool   `mapstructure:"enable_cors_middleware"`
	EnableLoggerMiddleware         bool   `mapstructure:"enable_logger_middleware"`
	EnableRecoverMiddleware        bool   `mapstructure:"enable_recover_middleware"`
	EnableRequestIDMiddleware      bool   `mapstructure:"enable_request_id_middleware"`
	EnableTrailingSlashMiddleware  bool   `mapstructure:"enable_trailing_slash_middleware"`
	EnableMetricsMiddleware        bool   `mapstructure:"enable_metrics_middleware"`
}

type LoggerServer struct {
	Level              string `mapstructure:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	RequestLevel       string `mapstructure:"request_level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	PrettyPrintConsole bool   `mapstructure:"pretty_print_console"`
}

type Management struct {
	ProbeBaseURL string        `mapstructure:"probe_base_url" validate:"omitempty,url"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" validate:"gt=0"`
}

type Chain struct {
	RPCURLs                []string      `mapstructure:"rpc_urls" validate:"required,min=1,dive,url"`
	ChainID                int64         `mapstructure:"chain_id" validate:"gte=0"`
	CallTimeout            time.Duration `mapstructure:"call_timeout" validate:"gt=0"`
	FeeMode                string        `mapstructure:"fee_mode" validate:"oneof=auto eip1559 legacy"`
	GasLimit               uint64        `mapstructure:"gas_limit" validate:"gte=21000,lte=30000000"`
	FallbackPriorityFeeWei uint64        `mapstructure:"fallback_priority_fee_wei" validate:"gt=0"`
	FallbackMaxFeeWei      uint64        `mapstructure:"fallback_max_fee_wei" validate:"gt=0,gtefield=FallbackPriorityFeeWei"`
}

type Executor struct {
	PrivateKey       string `mapstructure:"private_key" json:"-" validate:"required_without=KeystoreFile"`
	KeystoreFile     string `mapstructure:"keystore_file" validate:"required_without=PrivateKey"`
	KeystorePassword string `mapstructure:"keystore_password" json:"-"`
	Passphrase       string `mapstructure:"passphrase" json:"-"`
	DerivationPath   string `mapstructure:"derivation_path"`
	ContractAddress  string `mapstructure:"contract_address" validate:"required,eth_addr"`
}

type Agent struct {
	Secret                     string        `mapstructure:"secret" json:"-" validate:"required"`
	RequestTimeout             time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	ReservationTTL             time.Duration `mapstructure:"reservation_ttl" validate:"gt=0"`
	LockTTL                    time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
	ResultTTL                  time.Duration `mapstructure:"result_ttl" validate:"gt=0"`
	IncludeCoinbasePlaceholder bool          `mapstructure:"include_coinbase_placeholder"`
	Coordination               string        `mapstructure:"coordination" validate:"oneof=memory redis"`
}

type Redis struct {
	Addr      string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password  string `mapstructure:"password" json:"-"`
	DB        int    `mapstructure:"db" validate:"gte=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Enabled   bool   `mapstructure:"-"`
}

type Kafka struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic" validate:"required_with=Brokers"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
}

// Enabled reports whether signing events are published to Kafka.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

type Server struct {
	Echo       EchoServer   `mapstructure:"echo"`
	Logger     LoggerServer `mapstructure:"logger"`
	Management Management   `mapstructure:"management"`
	Chain      Chain        `mapstructure:"chain"`
	Executor   Executor     `mapstructure:"executor"`
	Agent      Agent        `mapstructure:"agent"`
	Redis      Redis        `mapstructure:"redis"`
	Kafka      Kafka        `mapstructure:"kafka"`
}

// legacyEnvAliases keeps the variable names of the original deployment working.
var legacyEnvAliases = map[string][]string{
	"executor.private_key":      {"EXECUTOR_PRIVATE_KEY"},
	"executor.contract_address": {"SUBFLOW_CONTRACT", "CONTRACT_ADDRESS"},
	"chain.rpc_urls":            {"RPC_URL"},
	"chain.chain_id":            {"CHAIN_ID"},
	"agent.secret":              {"AGENT_SECRET"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("echo.debug", false)
	v.SetDefault("echo.listen_address", ":8080")
	v.SetDefault("echo.hide_internal_server_error_details", true)
	v.SetDefault("echo.base_url", "http://localhost:8080")
	v.SetDefault("echo.body_limit", "64K")
	v.SetDefault("echo.enable_cors_middleware", true)
	v.SetDefault("echo.enable_logger_middleware", true)
	v.SetDefault("echo.enable_recover_middleware", true)
	v.SetDefault("echo.enable_request_id_middleware", true)
	v.SetDefault("echo.enable_trailing_slash_middleware", true)
	v.SetDefault("echo.enable_metrics_middleware", true)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.request_level", "info")
	v.SetDefault("logger.pretty_print_console", false)

	v.SetDefault("management.probe_base_url", "http://127.0.0.1:8080")
	v.SetDefault("management.probe_timeout", 5*time.Second)

	v.SetDefault("chain.rpc_urls", []string{})
	v.SetDefault("chain.chain_id", 0)
	v.SetDefault("chain.call_timeout", 10*time.Second)
	v.SetDefault("chain.fee_mode", FeeModeAuto)
	v.SetDefault("chain.gas_limit", 300000)
	v.SetDefault("chain.fallback_priority_fee_wei", 1_000_000_000)
	v.SetDefault("chain.fallback_max_fee_wei", 60_000_000_000)

	v.SetDefault("executor.private_key", "")
	v.SetDefault("executor.keystore_file", "")
	v.SetDefault("executor.keystore_password", "")
	v.SetDefault("executor.passphrase", "")
	v.SetDefault("executor.derivation_path", "m/44'/60'/0'/0/0")
	v.SetDefault("executor.contract_address", "")

	v.SetDefault("agent.secret", "")
	v.SetDefault("agent.request_timeout", 30*time.Second)
	v.SetDefault("agent.reservation_ttl", 2*time.Minute)
	v.SetDefault("agent.lock_ttl", 30*time.Second)
	v.SetDefault("agent.result_ttl", 10*time.Minute)
	v.SetDefault("agent.include_coinbase_placeholder", false)
	v.SetDefault("agent.coordination", CoordinationMemory)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "subflow-agent")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "subflow.signed-transactions")
	v.SetDefault("kafka.write_timeout", 5*time.Second)
}

// NewServiceConfigFromEnv assembles the process-wide configuration from an optional .env file,
// environment variables and defaults. The result is not validated, see Server.Validate.
func NewServiceConfigFromEnv() (Server, error) {
	// .env never overrides variables already present in the environment
	if err := gotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	for key, aliases := range legacyEnvAliases {
		envs := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Server{}, errors.Wrapf(err, "failed to bind env for %s", key)
		}
	}

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return Server{}, errors.Wrap(err, "failed to decode configuration")
	}

	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		if _, explicit := os.LookupEnv(EnvPrefix + "_ECHO_LISTEN_ADDRESS"); !explicit {
			cfg.Echo.ListenAddress = ":" + port
		}
	}

	cfg.Chain.RPCURLs = splitURLs(cfg.Chain.RPCURLs)
	if len(cfg.Chain.RPCURLs) == 0 {
		network, ok := LookupNetwork(cfg.Chain.ChainID)
		if !ok {
			network, _ = LookupNetwork(ChainIDFlowEVMTestnet)
		}
		cfg.Chain.RPCURLs = []string{network.RPCURL}
	}

	cfg.Kafka.Brokers = splitURLs(cfg.Kafka.Brokers)
	cfg.Redis.Enabled = cfg.Agent.Coordination == CoordinationRedis

	return cfg, nil
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined above.
func DefaultServiceConfigFromEnv() Server {
	cfg, err := NewServiceConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load service config")
	}

	return cfg
}

// Validate checks the configuration and is used to refuse startup on missing key material,
// contract address or shared secret.
func (s Server) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	return nil
}

// ValidateLocal is Validate without the shared secret, which only guards the HTTP endpoints.
// Local commands such as sign run with the key from the process environment instead.
func (s Server) ValidateLocal() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructExcept(s, "Agent.Secret"); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	return nil
}

// splitURLs flattens comma separated entries, as RPC_URL may carry several failover endpoints.
func splitURLs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
