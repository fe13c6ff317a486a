package services

import (
	"context"

	"audionav/logging"

	"go.uber.org/zap"
)

// PermissionStatus is the grant state reported by the OS permission subsystem.
type PermissionStatus int

const (
	PermissionDenied PermissionStatus = iota
	PermissionGranted
	PermissionPermanentlyDenied
)

func (s PermissionStatus) String() string {
	switch s {
	case PermissionGranted:
		return "granted"
	case PermissionPermanentlyDenied:
		return "permanently_denied"
	default:
		return "denied"
	}
}

// PermissionGate ensures the process may read arbitrary storage paths.
type PermissionGate interface {
	EnsurePermission(ctx context.Context) bool
}

// PermissionPlatform is the OS collaborator behind a PlatformPermissionGate.
type PermissionPlatform interface {
	Status(ctx context.Context) (PermissionStatus, error)
	Request(ctx context.Context) (PermissionStatus, error)
	OpenSettings(ctx context.Context) error
}

// NoopPermissionGate is used on platforms without a storage permission model.
type NoopPermissionGate struct{}

// EnsurePermission always succeeds.
func (NoopPermissionGate) EnsurePermission(context.Context) bool { return true }

// PlatformPermissionGate checks the current grant and requests it when missing.
type PlatformPermissionGate struct {
	platform PermissionPlatform
}

// NewPlatformPermissionGate wraps an OS permission collaborator.
func NewPlatformPermissionGate(platform PermissionPlatform) *PlatformPermissionGate {
	return &PlatformPermissionGate{platform: platform}
}

// EnsurePermission returns whether the storage grant is active after checking and,
// if needed, requesting it. A permanent denial opens the settings screen best-effort.
func (g *PlatformPermissionGate) EnsurePermission(ctx context.Context) bool {
	logger := logging.WithContext(ctx)

	status, err := g.platform.Status(ctx)
	if err != nil {
		logger.Warn("permission status check failed", zap.Error(err))
	}
	if err == nil && status == PermissionGranted {
		return true
	}

	status, err = g.platform.Request(ctx)
	if err != nil {
		logger.Warn("permission request failed", zap.Error(err))
		return false
	}

	if status == PermissionPermanentlyDenied {
		if err := g.platform.OpenSettings(ctx); err != nil {
			logger.Warn("could not open permission settings", zap.Error(err))
		}
	}

	logger.Info("storage permission requested", zap.Stringer("status", status))
	return status == PermissionGranted
}
