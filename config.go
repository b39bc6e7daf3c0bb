package composer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/viant/composer/model"
	"github.com/viant/composer/policy"
	"github.com/viant/composer/service/cache"
	"github.com/viant/composer/service/cache/redis"
	"github.com/viant/composer/service/scheduler"
)

// EnvPrefix prefixes environment overrides, e.g. COMPOSER_ORCHESTRATOR_MAXPARALLELISM.
const EnvPrefix = "COMPOSER"

// DefaultMaxNestingDepth bounds template:<id> recursion.
const DefaultMaxNestingDepth = 4

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFS     = "fs"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is a serialisable representation of the engine configuration. The
// zero value of every section falls back to the package defaults.
type Config struct {
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator" mapstructure:"orchestrator"`
	Cache        CacheConfig        `json:"cache" yaml:"cache" mapstructure:"cache"`
	Store        StoreConfig        `json:"store" yaml:"store" mapstructure:"store"`
	Audit        AuditConfig        `json:"audit" yaml:"audit" mapstructure:"audit"`
	RateLimit    RateLimitConfig    `json:"rateLimit" yaml:"rateLimit" mapstructure:"rateLimit"`
	Tracing      TracingConfig      `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
	Templates    TemplatesConfig    `json:"templates" yaml:"templates" mapstructure:"templates"`
	Policy       *policy.Config     `json:"policy,omitempty" yaml:"policy,omitempty" mapstructure:"policy"`
}

// OrchestratorConfig holds run defaults; requests may override them.
type OrchestratorConfig struct {
	MaxParallelism  int               `json:"maxParallelism" yaml:"maxParallelism" mapstructure:"maxParallelism"`
	EnableCaching   bool              `json:"enableCaching" yaml:"enableCaching" mapstructure:"enableCaching"`
	RetryPolicy     model.RetryPolicy `json:"retryPolicy" yaml:"retryPolicy" mapstructure:"retryPolicy"`
	MaxBackoffDelay time.Duration     `json:"maxBackoffDelay,omitempty" yaml:"maxBackoffDelay,omitempty" mapstructure:"maxBackoffDelay"`
	MaxNestingDepth int               `json:"maxNestingDepth" yaml:"maxNestingDepth" mapstructure:"maxNestingDepth"`
}

// CacheConfig selects and tunes the result cache.
type CacheConfig struct {
	Backend       string        `json:"backend" yaml:"backend" mapstructure:"backend"`
	TTL           time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
	SweepInterval time.Duration `json:"sweepInterval" yaml:"sweepInterval" mapstructure:"sweepInterval"`
	Redis         redis.Config  `json:"redis" yaml:"redis" mapstructure:"redis"`
}

// StoreConfig selects the execution registry.
type StoreConfig struct {
	Kind string `json:"kind" yaml:"kind" mapstructure:"kind"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
}

// AuditConfig enables the durable audit sink when SQLitePath is set.
type AuditConfig struct {
	SQLitePath string `json:"sqlitePath,omitempty" yaml:"sqlitePath,omitempty" mapstructure:"sqlitePath"`
}

// RateLimitConfig throttles tool calls; zero disables throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond" mapstructure:"requestsPerSecond"`
	Burst             int     `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// TracingConfig enables OpenTelemetry tracing.
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	ServiceName    string `json:"serviceName" yaml:"serviceName" mapstructure:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion" mapstructure:"serviceVersion"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty" mapstructure:"outputFile"`
}

// TemplatesConfig controls registry seeding.
type TemplatesConfig struct {
	Builtins bool     `json:"builtins" yaml:"builtins" mapstructure:"builtins"`
	URLs     []string `json:"urls,omitempty" yaml:"urls,omitempty" mapstructure:"urls"`
}

// DefaultConfig returns the configuration used when nothing is supplied.
func DefaultConfig() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			MaxParallelism:  scheduler.DefaultMaxParallelism,
			EnableCaching:   true,
			RetryPolicy:     *model.DefaultRetryPolicy(),
			MaxNestingDepth: DefaultMaxNestingDepth,
		},
		Cache: CacheConfig{
			Backend:       CacheMemory,
			TTL:           cache.DefaultTTL,
			SweepInterval: cache.DefaultSweepInterval,
		},
		Store:     StoreConfig{Kind: StoreMemory},
		Tracing:   TracingConfig{ServiceName: "composer", ServiceVersion: Version},
		Templates: TemplatesConfig{Builtins: true},
	}
}

// Clone returns a copy that shares no slices or pointers with c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	ret := *c
	if c.Templates.URLs != nil {
		ret.Templates.URLs = append([]string(nil), c.Templates.URLs...)
	}
	if c.Policy != nil {
		rules := *c.Policy
		rules.AllowList = append([]string(nil), c.Policy.AllowList...)
		rules.BlockList = append([]string(nil), c.Policy.BlockList...)
		ret.Policy = &rules
	}
	return &ret
}

// Validate returns the first invalid setting or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Orchestrator.MaxParallelism <= 0 {
		return fmt.Errorf("orchestrator.maxParallelism must be > 0")
	}
	if c.Orchestrator.MaxNestingDepth <= 0 {
		return fmt.Errorf("orchestrator.maxNestingDepth must be > 0")
	}
	if err := c.Orchestrator.RetryPolicy.Validate(); err != nil {
		return fmt.Errorf("orchestrator.retryPolicy: %w", err)
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "", CacheMemory:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return errors.New("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 || c.Cache.SweepInterval < 0 {
		return errors.New("cache.ttl and cache.sweepInterval must be >= 0")
	}
	switch strings.ToLower(c.Store.Kind) {
	case "", StoreMemory:
	case StoreFS:
		if c.Store.URL == "" {
			return errors.New("store.url is required for the fs store")
		}
	default:
		return fmt.Errorf("unsupported store.kind %q", c.Store.Kind)
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rateLimit values must be >= 0")
	}
	return nil
}

// LoadConfig reads a YAML, JSON or TOML file (optional when path is empty)
// on top of DefaultConfig, then applies COMPOSER_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	ret := &Config{}
	hook := mapstructure.ComposeDecodeHookFunc(millisHook, mapstructure.StringToSliceHookFunc(","))
	if err := v.Unmarshal(ret, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// millisHook reads plain numbers as milliseconds and strings as either
// milliseconds or Go durations.
func millisHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != durationType || from == durationType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return model.ParseMillis(reflect.ValueOf(data).Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return model.ParseMillis(reflect.ValueOf(data).Uint())
	case reflect.Float32, reflect.Float64:
		return model.ParseMillis(reflect.ValueOf(data).Float())
	case reflect.String:
		return model.ParseMillis(reflect.ValueOf(data).String())
	}
	return data, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("orchestrator.maxParallelism", c.Orchestrator.MaxParallelism)
	v.SetDefault("orchestrator.enableCaching", c.Orchestrator.EnableCaching)
	v.SetDefault("orchestrator.retryPolicy.maxRetries", c.Orchestrator.RetryPolicy.MaxRetries)
	v.SetDefault("orchestrator.retryPolicy.backoffStrategy", string(c.Orchestrator.RetryPolicy.BackoffStrategy))
	v.SetDefault("orchestrator.retryPolicy.backoffDelay", c.Orchestrator.RetryPolicy.BackoffDelay)
	v.SetDefault("orchestrator.maxBackoffDelay", c.Orchestrator.MaxBackoffDelay)
	v.SetDefault("orchestrator.maxNestingDepth", c.Orchestrator.MaxNestingDepth)
	v.SetDefault("cache.backend", c.Cache.Backend)
	v.SetDefault("cache.ttl", c.Cache.TTL)
	v.SetDefault("cache.sweepInterval", c.Cache.SweepInterval)
	v.SetDefault("cache.redis.addr", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", redis.DefaultPrefix)
	v.SetDefault("store.kind", c.Store.Kind)
	v.SetDefault("store.url", c.Store.URL)
	v.SetDefault("audit.sqlitePath", c.Audit.SQLitePath)
	v.SetDefault("rateLimit.requestsPerSecond", c.RateLimit.RequestsPerSecond)
	v.SetDefault("rateLimit.burst", c.RateLimit.Burst)
	v.SetDefault("tracing.enabled", c.Tracing.Enabled)
	v.SetDefault("tracing.serviceName", c.Tracing.ServiceName)
	v.SetDefault("tracing.serviceVersion", c.Tracing.ServiceVersion)
	v.SetDefault("tracing.outputFile", c.Tracing.OutputFile)
	v.SetDefault("templates.builtins", c.Templates.Builtins)
}
