package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/platform/gcp"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

var (
	newBucketService = func(ctx context.Context, log *logger.Logger, cfg blobstore.Config) (blobstore.Store, io.Closer, error) {
		bs, err := gcp.NewBucketService(ctx, log, cfg)
		if err != nil {
			return nil, nil, err
		}
		return bs, bs, nil
	}
	newLocalStore = func(log *logger.Logger, root string) (blobstore.Store, error) {
		return blobstore.NewLocalStore(log, root)
	}
)

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingRoot         StorageProviderBootstrapErrorCode = "missing_root"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveBlobStore picks the attachment backend from cfg. The returned closer
// is nil for backends without resources to release.
func resolveBlobStore(ctx context.Context, log *logger.Logger, cfg Config) (blobstore.Store, io.Closer, error) {
	storageCfg, err := blobstore.ResolveMode(cfg.StorageModeRaw, cfg.Storage)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider selection failed",
			"mode", cfg.StorageModeRaw,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, nil, classified
	}

	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"compatibility_fallback", storageCfg.CompatibilityFallback,
		"emulator_host", storageCfg.EmulatorHost,
	)

	if storageCfg.Mode == blobstore.ModeLocal {
		store, err := newLocalStore(log, storageCfg.Root)
		if err != nil {
			classified := classifyStorageProviderBootstrapError(storageCfg, err)
			log.Error("Local object storage bootstrap failed", "root", storageCfg.Root, "error", classified)
			return nil, nil, classified
		}
		return store, nil, nil
	}

	store, closer, err := newBucketService(ctx, log, storageCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"mode_source", storageCfg.ModeSource(),
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, nil, classified
	}
	return store, closer, nil
}

var configErrorCodes = map[blobstore.ConfigErrorCode]StorageProviderBootstrapErrorCode{
	blobstore.ConfigErrorInvalidMode:         StorageProviderBootstrapErrorInvalidMode,
	blobstore.ConfigErrorMissingRoot:         StorageProviderBootstrapErrorMissingRoot,
	blobstore.ConfigErrorMissingBucket:       StorageProviderBootstrapErrorMissingBucket,
	blobstore.ConfigErrorMissingEmulatorHost: StorageProviderBootstrapErrorMissingEmulatorHost,
	blobstore.ConfigErrorInvalidEmulatorHost: StorageProviderBootstrapErrorInvalidEmulatorHost,
}

func classifyStorageProviderBootstrapError(storageCfg blobstore.Config, err error) error {
	out := &StorageProviderBootstrapError{
		Code:         StorageProviderBootstrapErrorConnectFailed,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
	var cfgErr *blobstore.ConfigError
	if errors.As(err, &cfgErr) {
		if code, ok := configErrorCodes[cfgErr.Code]; ok {
			out.Code = code
		}
		if cfgErr.Mode != "" {
			out.Mode = cfgErr.Mode
		}
	}
	return out
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
