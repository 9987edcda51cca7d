package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// BaseConfig contains common configuration for all services
type BaseConfig struct {
	ServiceName string `env:"SERVICE_NAME"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
}

// NATSConfig contains configuration for NATS messaging
type NATSConfig struct {
	URLs          []string      `env:"NATS_URLS" envSeparator:"," envDefault:"nats://localhost:4222"`
	MaxReconnects int           `env:"NATS_MAX_RECONNECTS" envDefault:"-1"` // -1 for unlimited
	ReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT_MS" envDefault:"2s"`
	Timeout       time.Duration `env:"NATS_TIMEOUT_MS" envDefault:"5s"`
}

// StorageConfig contains configuration for the object storage layer.
// Driver selects between "s3" (MinIO/S3-compatible) and "disk".
type StorageConfig struct {
	Driver    string `env:"STORAGE_DRIVER" envDefault:"disk"`
	Endpoint  string `env:"STORAGE_S3_ENDPOINT"`
	Bucket    string `env:"STORAGE_S3_BUCKET" envDefault:"pagecraft"`
	AccessKey string `env:"STORAGE_S3_ACCESS_KEY"`
	SecretKey string `env:"STORAGE_S3_SECRET_KEY"`
	UseSSL    bool   `env:"STORAGE_S3_USE_SSL" envDefault:"false"`
	DiskRoot  string `env:"STORAGE_DISK_ROOT" envDefault:"/var/lib/pagecraft/objects"`
	PublicURL string `env:"STORAGE_PUBLIC_URL"` // base URL where stored objects are served from
}

// AIConfig contains configuration for the AI generation endpoints
type AIConfig struct {
	APIKey          string        `env:"AI_API_KEY"`
	Model           string        `env:"AI_MODEL" envDefault:"gemini-2.0-flash"`
	RequestsPerMin  int           `env:"AI_REQUESTS_PER_MINUTE" envDefault:"10"` // per-user token bucket
	CacheTTL        time.Duration `env:"AI_CACHE_TTL_MS" envDefault:"10m"`
	CacheMaxEntries int           `env:"AI_CACHE_MAX_ENTRIES" envDefault:"1000"`
}

// APIConfig contains configuration for the public API service
type APIConfig struct {
	BaseConfig     `envPrefix:"API_"`
	Port           string        `env:"API_PORT" envDefault:"8080"`
	BaseURL        string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL    string        `env:"API_DATABASE_URL" required:"true"`
	JWTSecret      string        `env:"API_JWT_SECRET" required:"true"`
	GitHubClientID string        `env:"API_GITHUB_CLIENT_ID"`
	GitHubSecret   string        `env:"API_GITHUB_CLIENT_SECRET"`
	UnsplashKey    string        `env:"API_UNSPLASH_ACCESS_KEY"`
	MaxUploadMB    int64         `env:"API_MAX_UPLOAD_MB" envDefault:"10"`
	RequestsPerMin int           `env:"API_REQUESTS_PER_MINUTE" envDefault:"120"` // per-client global limit
	SessionTTL     time.Duration `env:"API_SESSION_TTL" envDefault:"720h"`        // 30 days
	EdgeTarget     string        `env:"API_EDGE_TARGET" envDefault:"edge.pagecraft.site"`
	EdgeIPs        []string      `env:"API_EDGE_IPS" envSeparator:","`
	Storage        StorageConfig `envPrefix:"API_"`
	AI             AIConfig      `envPrefix:"API_"`
}

// PublisherConfig contains configuration for the publisher worker
type PublisherConfig struct {
	BaseConfig             `envPrefix:"PUBLISHER_"`
	DatabaseURL            string        `env:"PUBLISHER_DATABASE_URL" required:"true"`
	MaxConcurrentPublishes int           `env:"PUBLISHER_MAX_CONCURRENT" envDefault:"3"`
	PublishTimeout         time.Duration `env:"PUBLISHER_TIMEOUT_MS" envDefault:"5m"` // maximum time for a single publish
	SweepInterval          time.Duration `env:"PUBLISHER_SWEEP_INTERVAL_MS" envDefault:"1m"`
	SiteBaseDomain         string        `env:"PUBLISHER_SITE_BASE_DOMAIN" envDefault:"pagecraft.site"`
	NATS                   *NATSConfig   `envPrefix:"PUBLISHER_"`
	Storage                StorageConfig `envPrefix:"PUBLISHER_"`
}

// DomainVerifierConfig contains configuration for the domain verifier service
type DomainVerifierConfig struct {
	BaseConfig        `envPrefix:"DOMAIND_"`
	DatabaseURL       string        `env:"DOMAIND_DATABASE_URL" required:"true"`
	ReconcileInterval time.Duration `env:"DOMAIND_RECONCILE_INTERVAL_MS" envDefault:"5m"`
	VerifyTimeout     time.Duration `env:"DOMAIND_VERIFY_TIMEOUT_MS" envDefault:"10s"` // per-domain DNS budget
	EdgeTarget        string        `env:"DOMAIND_EDGE_TARGET" envDefault:"edge.pagecraft.site"`
	EdgeIPs           []string      `env:"DOMAIND_EDGE_IPS" envSeparator:","`
	NATS              *NATSConfig   `envPrefix:"DOMAIND_"`
}

// ListenerConfig contains configuration for the replication listener service
type ListenerConfig struct {
	BaseConfig          `envPrefix:"LISTENER_"`
	DatabaseURL         string        `env:"LISTENER_DATABASE_URL" required:"true"`
	ReplicationSlotName string        `env:"LISTENER_REPLICATION_SLOT" envDefault:"pagecraft_listener"`
	PublicationName     string        `env:"LISTENER_PUBLICATION" envDefault:"pagecraft_changes"`
	StandbyTimeout      time.Duration `env:"LISTENER_STANDBY_TIMEOUT" envDefault:"10s"`
	NATS                *NATSConfig   `envPrefix:"LISTENER_"`
}

// LoadAPIConfig loads configuration for the public API service
func LoadAPIConfig() (*APIConfig, error) {
	config, err := env.ParseAs[APIConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse API config: %w", err)
	}
	if config.ServiceName == "" {
		config.ServiceName = "api"
	}
	return &config, nil
}

// LoadPublisherConfig loads configuration for the publisher worker
func LoadPublisherConfig() (*PublisherConfig, error) {
	config, err := env.ParseAs[PublisherConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse Publisher config: %w", err)
	}
	if config.ServiceName == "" {
		config.ServiceName = "publisher"
	}
	if config.NATS == nil {
		config.NATS = &NATSConfig{}
	}
	return &config, nil
}

// LoadDomainVerifierConfig loads configuration for the domain verifier service
func LoadDomainVerifierConfig() (*DomainVerifierConfig, error) {
	config, err := env.ParseAs[DomainVerifierConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse DomainVerifier config: %w", err)
	}
	if config.ServiceName == "" {
		config.ServiceName = "domaind"
	}
	if config.NATS == nil {
		config.NATS = &NATSConfig{}
	}
	return &config, nil
}

// LoadListenerConfig loads configuration for the listener service
func LoadListenerConfig() (*ListenerConfig, error) {
	config, err := env.ParseAs[ListenerConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse Listener config: %w", err)
	}
	if config.ServiceName == "" {
		config.ServiceName = "listener"
	}
	if config.NATS == nil {
		config.NATS = &NATSConfig{}
	}
	return &config, nil
}
