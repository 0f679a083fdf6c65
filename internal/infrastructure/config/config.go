package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Storage     StorageConfig
	Telemetry   TelemetryConfig
	Import      ImportConfig
	Fulfillment FulfillmentConfig
	Browser     BrowserConfig
	Site        SiteConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds capability token settings
type JWTConfig struct {
	Secret          string
	Issuer          string
	TokenExpiration time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string

	// Extract previews drive a browser, so they are rate limited per tenant
	PreviewRateLimit  int
	PreviewRateWindow time.Duration
}

// StorageConfig holds object storage settings for confirmation screenshots
type StorageConfig struct {
	Provider     string // s3 or stub
	Endpoint     string // empty means the AWS default endpoint
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool // required by MinIO and most S3-compatible stores
	KeyPrefix    string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	LogsEnabled       bool // Export zap records through the otel logs bridge
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only, disable in prod for security)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)
	Profiling         ProfilingConfig
}

// ProfilingConfig holds Pyroscope continuous profiling configuration
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string // e.g. "http://localhost:4040"
	ApplicationName   string // defaults to the telemetry service name
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string
	SpanProfiles      bool // Link CPU profiles to trace spans (needs telemetry.enabled)
}

// ImportConfig holds import coordinator settings
type ImportConfig struct {
	DefaultPlatform string
	MaxBatchSize    int
}

// FulfillmentConfig holds queue producer and automation worker settings
type FulfillmentConfig struct {
	WorkerEnabled  bool
	WorkerID       string // empty means hostname-pid
	PollInterval   time.Duration
	LeaseTTL       time.Duration
	StepTimeout    time.Duration
	OrderTimeout   time.Duration
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	MaxRetries     int
	Platform       string
	Notifier       string // log or redis
	EnqueueGuard   bool   // Redis SETNX guard in front of the unique order constraint
}

// Validate checks the worker timing constraints
func (f *FulfillmentConfig) Validate() error {
	if f.PollInterval < time.Second {
		return fmt.Errorf("fulfillment.poll_interval must be at least 1s")
	}
	if f.StepTimeout <= 0 || f.OrderTimeout <= 0 {
		return fmt.Errorf("fulfillment.step_timeout and fulfillment.order_timeout must be positive")
	}
	if f.StepTimeout > f.OrderTimeout {
		return fmt.Errorf("fulfillment.step_timeout (%s) cannot exceed fulfillment.order_timeout (%s)",
			f.StepTimeout, f.OrderTimeout)
	}
	if f.LeaseTTL <= f.OrderTimeout {
		return fmt.Errorf("fulfillment.lease_ttl (%s) must exceed fulfillment.order_timeout (%s)",
			f.LeaseTTL, f.OrderTimeout)
	}
	if f.RetryBaseDelay <= 0 || f.RetryMaxDelay < f.RetryBaseDelay {
		return fmt.Errorf("fulfillment.retry_max_delay must be at least fulfillment.retry_base_delay")
	}
	if f.MaxRetries < 0 {
		return fmt.Errorf("fulfillment.max_retries cannot be negative")
	}
	switch f.Notifier {
	case "log", "redis":
	default:
		return fmt.Errorf("fulfillment.notifier must be 'log' or 'redis', got %q", f.Notifier)
	}
	return nil
}

// BrowserConfig holds headless browser settings shared by the extractor and the worker
type BrowserConfig struct {
	Driver            string // chromedp or replay
	RemoteURL         string // DevTools websocket of a running browser; empty launches a local one
	Headless          bool
	NoSandbox         bool
	NavigationTimeout time.Duration
	ExtractTimeout    time.Duration
	ReplayFixtures    string // directory of snapshot fixtures for the replay driver
}

// SiteConfig holds the storefront selectors the automation worker drives
type SiteConfig struct {
	CartURL     string
	SettleDelay time.Duration
	Selectors   SiteSelectorsConfig
}

// SiteSelectorsConfig holds CSS selectors of the source storefront
type SiteSelectorsConfig struct {
	QuantityInput  string
	AddToCart      string
	CartItemRemove string
	Checkout       string
	PlaceOrder     string
	Confirmation   string
	OrderNumber    string
	TrackingNumber string
	TrackingLink   string
	AddressFields  map[string]string // address field key -> input selector
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with DROPSHIP_ prefix (e.g., DROPSHIP_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/dropship")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("DROPSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans whose default is true cannot use the zero-value defaulting below
	v.SetDefault("fulfillment.worker_enabled", true)
	v.SetDefault("fulfillment.enqueue_guard", true)
	v.SetDefault("browser.headless", true)

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("jwt.secret"),
			Issuer:          v.GetString("jwt.issuer"),
			TokenExpiration: v.GetDuration("jwt.token_expiration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),

			PreviewRateLimit:  v.GetInt("http.preview_rate_limit"),
			PreviewRateWindow: v.GetDuration("http.preview_rate_window"),
		},
		Storage: StorageConfig{
			Provider:     v.GetString("storage.provider"),
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
			KeyPrefix:    v.GetString("storage.key_prefix"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			Profiling: ProfilingConfig{
				Enabled:           v.GetBool("telemetry.profiling.enabled"),
				ServerAddress:     v.GetString("telemetry.profiling.server_address"),
				ApplicationName:   v.GetString("telemetry.profiling.application_name"),
				BasicAuthUser:     v.GetString("telemetry.profiling.basic_auth_user"),
				BasicAuthPassword: v.GetString("telemetry.profiling.basic_auth_password"),
				ProfileTypes:      v.GetStringSlice("telemetry.profiling.profile_types"),
				SpanProfiles:      v.GetBool("telemetry.profiling.span_profiles"),
			},
		},
		Import: ImportConfig{
			DefaultPlatform: v.GetString("import.default_platform"),
			MaxBatchSize:    v.GetInt("import.max_batch_size"),
		},
		Fulfillment: FulfillmentConfig{
			WorkerEnabled:  v.GetBool("fulfillment.worker_enabled"),
			WorkerID:       v.GetString("fulfillment.worker_id"),
			PollInterval:   v.GetDuration("fulfillment.poll_interval"),
			LeaseTTL:       v.GetDuration("fulfillment.lease_ttl"),
			StepTimeout:    v.GetDuration("fulfillment.step_timeout"),
			OrderTimeout:   v.GetDuration("fulfillment.order_timeout"),
			RetryBaseDelay: v.GetDuration("fulfillment.retry_base_delay"),
			RetryMaxDelay:  v.GetDuration("fulfillment.retry_max_delay"),
			MaxRetries:     v.GetInt("fulfillment.max_retries"),
			Platform:       v.GetString("fulfillment.platform"),
			Notifier:       v.GetString("fulfillment.notifier"),
			EnqueueGuard:   v.GetBool("fulfillment.enqueue_guard"),
		},
		Browser: BrowserConfig{
			Driver:            v.GetString("browser.driver"),
			RemoteURL:         v.GetString("browser.remote_url"),
			Headless:          v.GetBool("browser.headless"),
			NoSandbox:         v.GetBool("browser.no_sandbox"),
			NavigationTimeout: v.GetDuration("browser.navigation_timeout"),
			ExtractTimeout:    v.GetDuration("browser.extract_timeout"),
			ReplayFixtures:    v.GetString("browser.replay_fixtures"),
		},
		Site: SiteConfig{
			CartURL:     v.GetString("site.cart_url"),
			SettleDelay: v.GetDuration("site.settle_delay"),
			Selectors: SiteSelectorsConfig{
				QuantityInput:  v.GetString("site.selectors.quantity_input"),
				AddToCart:      v.GetString("site.selectors.add_to_cart"),
				CartItemRemove: v.GetString("site.selectors.cart_item_remove"),
				Checkout:       v.GetString("site.selectors.checkout"),
				PlaceOrder:     v.GetString("site.selectors.place_order"),
				Confirmation:   v.GetString("site.selectors.confirmation"),
				OrderNumber:    v.GetString("site.selectors.order_number"),
				TrackingNumber: v.GetString("site.selectors.tracking_number"),
				TrackingLink:   v.GetString("site.selectors.tracking_link"),
				AddressFields:  v.GetStringMapString("site.selectors.address_fields"),
			},
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "dropship-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "dropship"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "dropship-backend"
	}
	if cfg.JWT.TokenExpiration == 0 {
		cfg.JWT.TokenExpiration = 24 * time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// Extract preview drives a browser inside the request
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	// An empty origin list means no cross-origin requests are allowed until configured.
	if cfg.HTTP.PreviewRateLimit == 0 {
		cfg.HTTP.PreviewRateLimit = 30
	}
	if cfg.HTTP.PreviewRateWindow == 0 {
		cfg.HTTP.PreviewRateWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = "stub"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "confirmations"
	}

	// Telemetry defaults
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0 // 100% in development
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "dropship-backend"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.Profiling.ServerAddress == "" {
		cfg.Telemetry.Profiling.ServerAddress = "http://localhost:4040"
	}
	if cfg.Telemetry.Profiling.ApplicationName == "" {
		cfg.Telemetry.Profiling.ApplicationName = cfg.Telemetry.ServiceName
	}

	if cfg.Import.DefaultPlatform == "" {
		cfg.Import.DefaultPlatform = "aliexpress"
	}
	if cfg.Import.MaxBatchSize == 0 {
		cfg.Import.MaxBatchSize = 500
	}

	// Fulfillment defaults
	if cfg.Fulfillment.PollInterval == 0 {
		cfg.Fulfillment.PollInterval = 30 * time.Second
	}
	if cfg.Fulfillment.StepTimeout == 0 {
		cfg.Fulfillment.StepTimeout = time.Minute
	}
	if cfg.Fulfillment.OrderTimeout == 0 {
		cfg.Fulfillment.OrderTimeout = 3 * time.Minute
	}
	if cfg.Fulfillment.LeaseTTL == 0 {
		cfg.Fulfillment.LeaseTTL = 5 * time.Minute
	}
	if cfg.Fulfillment.RetryBaseDelay == 0 {
		cfg.Fulfillment.RetryBaseDelay = 30 * time.Second
	}
	if cfg.Fulfillment.RetryMaxDelay == 0 {
		cfg.Fulfillment.RetryMaxDelay = 30 * time.Minute
	}
	if cfg.Fulfillment.MaxRetries == 0 {
		cfg.Fulfillment.MaxRetries = 3
	}
	if cfg.Fulfillment.Platform == "" {
		cfg.Fulfillment.Platform = "aliexpress"
	}
	if cfg.Fulfillment.Notifier == "" {
		cfg.Fulfillment.Notifier = "log"
	}

	// Browser defaults
	if cfg.Browser.Driver == "" {
		cfg.Browser.Driver = "chromedp"
	}
	if cfg.Browser.NavigationTimeout == 0 {
		cfg.Browser.NavigationTimeout = 30 * time.Second
	}
	if cfg.Browser.ExtractTimeout == 0 {
		cfg.Browser.ExtractTimeout = 45 * time.Second
	}
	if cfg.Browser.ReplayFixtures == "" {
		cfg.Browser.ReplayFixtures = "testdata/snapshots"
	}

	applySiteDefaults(&cfg.Site)
}

// applySiteDefaults fills the storefront selectors with the AliExpress layout
func applySiteDefaults(site *SiteConfig) {
	if site.CartURL == "" {
		site.CartURL = "https://www.aliexpress.com/p/shoppingcart/index.html"
	}
	if site.SettleDelay == 0 {
		site.SettleDelay = 2 * time.Second
	}
	s := &site.Selectors
	if s.QuantityInput == "" {
		s.QuantityInput = `input[class*="quantity"], .comet-input-number-input`
	}
	if s.AddToCart == "" {
		s.AddToCart = `button[class*="add-to-cart"], .addcart`
	}
	if s.CartItemRemove == "" {
		s.CartItemRemove = `button[class*="cart-product-remove"], .cart-delete`
	}
	if s.Checkout == "" {
		s.Checkout = `button[class*="checkout"], .cart-checkout`
	}
	if s.PlaceOrder == "" {
		s.PlaceOrder = `button[class*="place-order"], #checkout-button`
	}
	if s.Confirmation == "" {
		s.Confirmation = `[class*="order-success"], .payment-success`
	}
	if s.OrderNumber == "" {
		s.OrderNumber = `[class*="order-number"], .order-no`
	}
	if s.TrackingNumber == "" {
		s.TrackingNumber = `[class*="tracking-number"]`
	}
	if s.TrackingLink == "" {
		s.TrackingLink = `a[href*="track"]`
	}
	if len(s.AddressFields) == 0 {
		s.AddressFields = map[string]string{
			"full_name":   `input[name="contactPerson"]`,
			"phone":       `input[name="mobileNo"]`,
			"line1":       `input[name="address"]`,
			"line2":       `input[name="address2"]`,
			"city":        `input[name="city"]`,
			"state":       `input[name="province"]`,
			"postal_code": `input[name="zip"]`,
			"country":     `input[name="country"]`,
		}
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Storage.Provider {
	case "stub":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the s3 provider")
		}
	default:
		return fmt.Errorf("storage.provider must be 's3' or 'stub', got %q", c.Storage.Provider)
	}

	switch c.Browser.Driver {
	case "chromedp", "replay":
	default:
		return fmt.Errorf("browser.driver must be 'chromedp' or 'replay', got %q", c.Browser.Driver)
	}

	if err := c.Fulfillment.Validate(); err != nil {
		return err
	}
	if c.Fulfillment.Notifier == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("fulfillment.notifier=redis requires redis.enabled=true")
	}
	if c.Import.MaxBatchSize < 0 {
		return fmt.Errorf("import.max_batch_size cannot be negative")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Storage.Provider == "stub" {
			return fmt.Errorf("storage.provider cannot be 'stub' in production")
		}
		if c.Browser.Driver == "replay" {
			return fmt.Errorf("browser.driver cannot be 'replay' in production")
		}
		// Full SQL in traces would leak shipping addresses
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Telemetry.Profiling.SpanProfiles && !c.Telemetry.Profiling.Enabled {
		return fmt.Errorf("telemetry.profiling.span_profiles requires telemetry.profiling.enabled")
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
