package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	sharedauth "github.com/ticketnest/ticketnest/pkg/auth"
	"github.com/ticketnest/ticketnest/pkg/envconfig"
)

// Config encapsulates the runtime configuration for the ticketing service.
type Config struct {
	Port           string `validate:"required"`
	GCPProjectID   string
	DataStore      DataStore `validate:"required"`
	AdminSecretKey string
	Auth           AuthConfig
	Firestore      FirestoreConfig
	Minting        MintingConfig
	Storage        StorageConfig
	Scheduler      SchedulerConfig
}

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	// DataStoreMemory keeps everything in process memory (local development and tests).
	DataStoreMemory DataStore = "memory"
	// DataStoreFirestore stores documents in Google Cloud Firestore.
	DataStoreFirestore DataStore = "firestore"
)

// MinterKind selects the minting backend.
type MinterKind string

const (
	MinterMock  MinterKind = "mock"
	MinterRelay MinterKind = "relay"
)

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode     sharedauth.Mode
	JWKSURL  string
	Audience string
	Issuer   string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	Database     string
	EmulatorHost string
}

// MintingConfig points at the token minting relay.
type MintingConfig struct {
	Kind     MinterKind
	RelayURL string
	RelayKey string
}

// StorageConfig contains Cloud Storage settings. An empty bucket keeps QR
// images inline on the ticket.
type StorageConfig struct {
	QRBucket string
}

// SchedulerConfig drives the event status refresher.
type SchedulerConfig struct {
	Interval      time.Duration `validate:"gt=0"`
	EventDuration time.Duration `validate:"gt=0"`
}

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	cfg := Config{
		Port:           envconfig.Get("PORT", "8080"),
		GCPProjectID:   envconfig.Get("GCP_PROJECT_ID", ""),
		DataStore:      DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreMemory)))),
		AdminSecretKey: envconfig.Get("ADMIN_SECRET_KEY", ""),
		Auth: AuthConfig{
			Mode:     sharedauth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(sharedauth.ModeNone)))),
			JWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
			Audience: envconfig.Get("CLERK_AUDIENCE", ""),
			Issuer:   envconfig.Get("CLERK_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			Database:     envconfig.Get("FIRESTORE_DATABASE", "(default)"),
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
		Minting: MintingConfig{
			Kind:     MinterKind(strings.ToLower(envconfig.Get("MINTER", string(MinterMock)))),
			RelayURL: envconfig.Get("MINT_RELAY_URL", ""),
			RelayKey: envconfig.Get("MINT_RELAY_KEY", ""),
		},
		Storage: StorageConfig{
			QRBucket: envconfig.Get("QR_STORAGE_BUCKET", ""),
		},
		Scheduler: SchedulerConfig{
			Interval:      envconfig.GetDuration("EVENT_STATUS_INTERVAL", 5*time.Minute),
			EventDuration: envconfig.GetDuration("EVENT_DURATION", 6*time.Hour),
		},
	}

	if err := envconfig.Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return fmt.Errorf("port must be specified")
	}

	switch cfg.DataStore {
	case DataStoreMemory:
		// no-op
	case DataStoreFirestore:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("gcp project id required when datastore=firestore")
		}
	default:
		return fmt.Errorf("unsupported datastore: %s", cfg.DataStore)
	}

	switch cfg.Auth.Mode {
	case sharedauth.ModeClerk:
		if cfg.Auth.JWKSURL == "" {
			return fmt.Errorf("CLERK_JWKS_URL is required when AUTH_MODE=clerk")
		}
	case sharedauth.ModeNoop, sharedauth.ModeNone:
		// no-op
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}

	switch cfg.Minting.Kind {
	case MinterMock:
		// no-op
	case MinterRelay:
		u, err := url.Parse(cfg.Minting.RelayURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("MINT_RELAY_URL must be an absolute url when MINTER=relay")
		}
	default:
		return fmt.Errorf("unsupported minter: %s", cfg.Minting.Kind)
	}

	if cfg.Storage.QRBucket != "" && cfg.GCPProjectID == "" {
		return fmt.Errorf("GCP_PROJECT_ID is required when QR_STORAGE_BUCKET is set")
	}

	return nil
}
