package blobstore

import (
	"fmt"
	"net/url"
	"strings"
)

type Mode string

const (
	ModeLocal       Mode = "local"
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
)

// Config selects and parameterises a backend.
type Config struct {
	Mode         Mode
	Root         string
	Bucket       string
	EmulatorHost string
	// CompatibilityFallback is set when the mode was inferred from
	// STORAGE_EMULATOR_HOST rather than configured.
	CompatibilityFallback bool
}

func (c Config) ModeSource() string {
	if c.CompatibilityFallback {
		return "compatibility_fallback"
	}
	return "explicit_or_default"
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingRoot         ConfigErrorCode = "missing_root"
	ConfigErrorMissingBucket       ConfigErrorCode = "missing_bucket"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
)

type ConfigError struct {
	Code         ConfigErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q, %q)", e.Mode, ModeLocal, ModeGCS, ModeGCSEmulator)
	case ConfigErrorMissingRoot:
		return "OBJECT_STORAGE_MODE=local requires STORAGE_ROOT"
	case ConfigErrorMissingBucket:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires ATTACHMENT_GCS_BUCKET_NAME", e.Mode)
	case ConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ModeGCSEmulator)
	case ConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.EmulatorHost)
	default:
		return "invalid object storage config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveMode normalises a raw mode string. An empty mode falls back to the
// emulator when an emulator host is configured and to local storage otherwise.
func ResolveMode(raw string, cfg Config) (Config, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case "":
		if strings.TrimSpace(cfg.EmulatorHost) != "" {
			cfg.Mode = ModeGCSEmulator
			cfg.CompatibilityFallback = true
		} else {
			cfg.Mode = ModeLocal
		}
	case ModeLocal, ModeGCS, ModeGCSEmulator:
		cfg.Mode = mode
	default:
		return cfg, &ConfigError{Code: ConfigErrorInvalidMode, Mode: raw}
	}
	return cfg, Validate(cfg)
}

func Validate(cfg Config) error {
	switch cfg.Mode {
	case ModeLocal:
		if strings.TrimSpace(cfg.Root) == "" {
			return &ConfigError{Code: ConfigErrorMissingRoot, Mode: string(cfg.Mode)}
		}
		return nil
	case ModeGCS, ModeGCSEmulator:
		if strings.TrimSpace(cfg.Bucket) == "" {
			return &ConfigError{Code: ConfigErrorMissingBucket, Mode: string(cfg.Mode)}
		}
	default:
		return &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
	if cfg.Mode != ModeGCSEmulator {
		return nil
	}
	if strings.TrimSpace(cfg.EmulatorHost) == "" {
		return &ConfigError{Code: ConfigErrorMissingEmulatorHost, Mode: string(cfg.Mode)}
	}
	u, err := url.Parse(cfg.EmulatorHost)
	if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
		return &ConfigError{
			Code:         ConfigErrorInvalidEmulatorHost,
			Mode:         string(cfg.Mode),
			EmulatorHost: cfg.EmulatorHost,
			Cause:        err,
		}
	}
	return nil
}
