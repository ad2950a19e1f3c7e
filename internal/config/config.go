package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
	CORS        CORSConfig        `yaml:"cors"`
	Enrichment  EnrichmentConfig  `yaml:"enrichment"`
	Media       MediaConfig       `yaml:"media"`
	ObjectStore ObjectStoreConfig `yaml:"objectstore"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Decks       DecksConfig       `yaml:"decks"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// EnrichRatePerMinute limits enrichment requests per client; 0 disables.
	EnrichRatePerMinute int `yaml:"enrich_rate_per_minute" env:"SERVER_ENRICH_RATE_PER_MINUTE" env-default:"30"`
}

// DatabaseConfig holds PostgreSQL connection settings. An empty DSN runs the
// server without vocabulary persistence.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// EnrichmentConfig tunes the source aggregator.
type EnrichmentConfig struct {
	StageTimeout      time.Duration `yaml:"stage_timeout"       env:"ENRICH_STAGE_TIMEOUT"       env-default:"20s"`
	SentenceCount     int           `yaml:"sentence_count"      env:"ENRICH_SENTENCE_COUNT"      env-default:"3"`
	MaxStrokeDiagrams int           `yaml:"max_stroke_diagrams" env:"ENRICH_MAX_STROKE_DIAGRAMS" env-default:"6"`
	MaxRelatedEntries int           `yaml:"max_related_entries" env:"ENRICH_MAX_RELATED_ENTRIES" env-default:"5"`
	BatchConcurrency  int           `yaml:"batch_concurrency"   env:"ENRICH_BATCH_CONCURRENCY"   env-default:"2"`
	MirrorStrokes     bool          `yaml:"mirror_strokes"      env:"ENRICH_MIRROR_STROKES"      env-default:"false"`
}

// Legacy media backends.
const (
	LegacyBackendPostgres = "postgres"
	LegacyBackendSQLite   = "sqlite"
	LegacyBackendNone     = "none"
)

// MediaConfig tunes the media cache.
type MediaConfig struct {
	MemoryCapacity    int           `yaml:"memory_capacity"       env:"MEDIA_MEMORY_CAPACITY"       env-default:"200"`
	ResolveTimeout    time.Duration `yaml:"resolve_timeout"       env:"MEDIA_RESOLVE_TIMEOUT"       env-default:"30s"`
	AppURL            string        `yaml:"app_url"               env:"APP_URL"                     env-default:"http://localhost:8080"`
	LegacyBackend     string        `yaml:"legacy_backend"        env:"MEDIA_LEGACY_BACKEND"        env-default:"none"`
	SQLitePath        string        `yaml:"sqlite_path"           env:"MEDIA_SQLITE_PATH"           env-default:"./media_cache.db"`
	BackgroundWorkers int           `yaml:"background_workers"    env:"MEDIA_BACKGROUND_WORKERS"    env-default:"8"`
	BackgroundTimeout time.Duration `yaml:"background_timeout"    env:"MEDIA_BACKGROUND_TIMEOUT"    env-default:"60s"`
}

// ObjectStoreConfig describes the S3-compatible bucket (Cloudflare R2).
// An empty endpoint disables the tier.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"   env:"OBJECTSTORE_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"OBJECTSTORE_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"OBJECTSTORE_SECRET_KEY"`
	Bucket    string `yaml:"bucket"     env:"OBJECTSTORE_BUCKET"     env-default:"anki-card-creator"`
	Region    string `yaml:"region"     env:"OBJECTSTORE_REGION"     env-default:"auto"`
	UseSSL    bool   `yaml:"use_ssl"    env:"OBJECTSTORE_USE_SSL"    env-default:"true"`
	PublicURL string `yaml:"public_url" env:"OBJECTSTORE_PUBLIC_URL"`
}

// Enabled reports whether the object-storage tier is configured.
func (c ObjectStoreConfig) Enabled() bool {
	return c.Endpoint != ""
}

// LLM backends.
const (
	LLMProviderOpenAI    = "openai"
	LLMProviderAnthropic = "anthropic"
)

// ProvidersConfig holds endpoints and credentials of the external sources.
// Empty base URLs select each adapter's public default.
type ProvidersConfig struct {
	MDBGURL           string `yaml:"mdbg_url"           env:"PROVIDER_MDBG_URL"`
	WrittenChineseURL string `yaml:"writtenchinese_url" env:"PROVIDER_WRITTENCHINESE_URL"`
	UnsplashURL       string `yaml:"unsplash_url"       env:"PROVIDER_UNSPLASH_URL"`
	UnsplashKey       string `yaml:"unsplash_key"       env:"UNSPLASH_API_KEY"`
	TTSURL            string `yaml:"tts_url"            env:"PROVIDER_TTS_URL"`
	TTSLang           string `yaml:"tts_lang"           env:"PROVIDER_TTS_LANG"           env-default:"zh-CN"`
	LLMProvider       string `yaml:"llm_provider"       env:"LLM_PROVIDER"                env-default:"openai"`
	LLMBaseURL        string `yaml:"llm_base_url"       env:"LLM_BASE_URL"`
	LLMModel          string `yaml:"llm_model"          env:"LLM_MODEL"`
	LLMKey            string `yaml:"llm_key"            env:"LLM_API_KEY"`
}

// DecksConfig holds deck migration settings.
type DecksConfig struct {
	// LegacyOwner receives the pre-migration numeric decks.
	LegacyOwner string `yaml:"legacy_owner" env:"DECKS_LEGACY_OWNER" env-default:"admin"`
}
