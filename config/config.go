package config

import (
	"encoding/json"
	"os"
	"strconv"
)

type Config struct {
	MoralisAPIKey       string             `json:"moralis_api_key"`
	MoralisFallbackKeys []string           `json:"moralis_fallback_keys"`
	BirdeyeAPIKey       string             `json:"birdeye_api_key"`
	AnalysisFilters     AnalysisFilters    `json:"analysis_filters"`
	APISettings         APISettings        `json:"api_settings"`
	TradingSettings     TradingSettings    `json:"trading_settings"`
	WebSocketSettings   WebSocketSettings  `json:"websocket_settings"`
	ShyftAPIKey         string             `json:"shyft_api_key"`
	FanOutEngine        FanOutEngineConfig `json:"fanout_engine"`
	Redis               RedisConfig        `json:"redis"`
	Programs            ProgramsConfig     `json:"programs"`
	Sniper              SniperConfig       `json:"sniper"`
	RateLimits          RateLimits         `json:"rate_limits"`
	Pipeline            PipelineSettings   `json:"pipeline"`
	Environment         EnvironmentInputs  `json:"environment"`
}

type AnalysisFilters struct {
	MinWinrate     float64 `json:"min_winrate"`
	MinRealizedPnL float64 `json:"min_realized_pnl"`
}

type APISettings struct {
	MaxRetries   int    `json:"max_retries"`
	TokenLimit   int    `json:"token_limit"`
	TokenSource  string `json:"token_source"` // "birdeye" or "moralis"
	FetchTraders bool   `json:"fetch_traders"`
}

type TradingSettings struct {
	JitoTipLamports    int64  `json:"jito_tip_lamports"`
	JitoBlockEngineURL string `json:"jito_block_engine_url"`
	JitoPrivateKey     string `json:"jito_private_key"`
	DefaultSlippageBps int    `json:"default_slippage_bps"`
	MaxSlippageBps     int    `json:"max_slippage_bps"`

	// BuyTipSOL/SellTipSOL are the fan-out engine's per-side priority-tip
	// defaults (spec.md §4.F), kept asymmetric per the original's divergent
	// buy/sell urgency — see DESIGN.md Open Question 4.
	BuyTipSOL  float64 `json:"buy_tip_sol"`
	SellTipSOL float64 `json:"sell_tip_sol"`
}

// PipelineSettings carries the core event pipeline's worker/runtime knobs,
// analogous to FanOutEngineConfig but scoped to the custody-delegated
// copy-trade pipeline rather than the dropped Telegram bot.
type PipelineSettings struct {
	ClassifierRetryAttempts int `json:"classifier_retry_attempts"`
	ControlAPIPort          int `json:"control_api_port"`
}

// EnvironmentInputs holds spec.md §6's four environment-sourced wire targets
// (NODE_HTTP, NODE_WSS, METIS_HTTP, JITO_BLOCK_ENGINE_URL) plus the custody
// signer's base URL and API credentials; each is overlaid atop the JSON file
// from its environment variable when that variable is set.
type EnvironmentInputs struct {
	NodeHTTP            string `json:"node_http"`
	NodeWSS             string `json:"node_wss"`
	MetisHTTP           string `json:"metis_http"`
	JitoBlockEngineURL  string `json:"jito_block_engine_url_env"`
	CustodyBaseURL      string `json:"custody_base_url"`
	CustodyAPIPublicKey string `json:"custody_api_public_key"`
	CustodyAPIPrivKey   string `json:"custody_api_private_key"`
	CustodyOrgID        string `json:"custody_organization_id"`
}

type WebSocketSettings struct {
	ShyftWSURL       string `json:"shyft_ws_url"`
	ReconnectDelayMs int    `json:"reconnect_delay_ms"`
	PingIntervalMs   int    `json:"ping_interval_ms"`
}

type RateLimits struct {
	ShyftRPS       int `json:"shyft_rps"`
	ShyftAPIPerSec int `json:"shyft_api_per_sec"`
}

type FanOutEngineConfig struct {
	WorkerCount           int `json:"worker_count"`
	LogBufferSize         int `json:"log_buffer_size"`
	NotificationRateLimit int `json:"notification_rate_limit"`
	TelegramBatchSize     int `json:"telegram_batch_size"`
	ReconnectDelaySeconds int `json:"reconnect_delay_seconds"`
	MaxReconnectAttempts  int `json:"max_reconnect_attempts"`
}

type RedisConfig struct {
	Address      string `json:"address"`
	Password     string `json:"password"`
	DB           int    `json:"db"`
	PoolSize     int    `json:"pool_size"`
	MinIdleConns int    `json:"min_idle_conns"`
}

type ProgramsConfig struct {
	JupiterLimitOrder string `json:"jupiter_limit_order"`
	RaydiumAMMV4      string `json:"raydium_amm_v4"`
	RaydiumCLMM       string `json:"raydium_clmm"`
}

type SniperConfig struct {
	Enabled          bool     `json:"enabled"`
	MinLiquiditySOL  float64  `json:"min_liquidity_sol"`
	MaxLiquiditySOL  float64  `json:"max_liquidity_sol"`
	AutoBuyAmountSOL float64  `json:"auto_buy_amount_sol"`
	BlacklistTokens  []string `json:"blacklist_tokens"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults if not specified
	if cfg.FanOutEngine.WorkerCount == 0 {
		cfg.FanOutEngine.WorkerCount = 20
	}
	if cfg.FanOutEngine.LogBufferSize == 0 {
		cfg.FanOutEngine.LogBufferSize = 50000
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 50
	}
	if cfg.TradingSettings.BuyTipSOL == 0 {
		cfg.TradingSettings.BuyTipSOL = 0.0015
	}
	if cfg.TradingSettings.SellTipSOL == 0 {
		cfg.TradingSettings.SellTipSOL = 0.005
	}
	if cfg.Pipeline.ClassifierRetryAttempts == 0 {
		cfg.Pipeline.ClassifierRetryAttempts = 3
	}
	if cfg.Pipeline.ControlAPIPort == 0 {
		cfg.Pipeline.ControlAPIPort = 8090
	}

	overlayEnv(&cfg)

	return &cfg, nil
}

// overlayEnv applies spec.md §6's four environment inputs (plus the custody
// signer's credentials) atop the JSON file, following config.go's existing
// convention of environment values taking precedence when present.
func overlayEnv(cfg *Config) {
	if v := os.Getenv("NODE_HTTP"); v != "" {
		cfg.Environment.NodeHTTP = v
	}
	if v := os.Getenv("NODE_WSS"); v != "" {
		cfg.Environment.NodeWSS = v
	}
	if v := os.Getenv("METIS_HTTP"); v != "" {
		cfg.Environment.MetisHTTP = v
	}
	if v := os.Getenv("JITO_BLOCK_ENGINE_URL"); v != "" {
		cfg.Environment.JitoBlockEngineURL = v
		cfg.TradingSettings.JitoBlockEngineURL = v
	}
	if v := os.Getenv("CUSTODY_BASE_URL"); v != "" {
		cfg.Environment.CustodyBaseURL = v
	}
	if v := os.Getenv("CUSTODY_API_PUBLIC_KEY"); v != "" {
		cfg.Environment.CustodyAPIPublicKey = v
	}
	if v := os.Getenv("CUSTODY_API_PRIVATE_KEY"); v != "" {
		cfg.Environment.CustodyAPIPrivKey = v
	}
	if v := os.Getenv("CUSTODY_ORGANIZATION_ID"); v != "" {
		cfg.Environment.CustodyOrgID = v
	}
	if v := os.Getenv("CONTROL_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.ControlAPIPort = port
		}
	}
}
