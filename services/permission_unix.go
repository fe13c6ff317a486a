//go:build unix

package services

import (
	"context"
	"errors"

	"audionav/logging"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// AccessPermissionPlatform derives the storage grant from read/search access on a root
// directory. It cannot prompt, so a request re-checks and an EACCES/EPERM answer is final.
type AccessPermissionPlatform struct {
	Root string
}

// Status implements PermissionPlatform.
func (p AccessPermissionPlatform) Status(ctx context.Context) (PermissionStatus, error) {
	if err := ctx.Err(); err != nil {
		return PermissionDenied, err
	}
	err := unix.Access(p.Root, unix.R_OK|unix.X_OK)
	switch {
	case err == nil:
		return PermissionGranted, nil
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return PermissionDenied, nil
	default:
		return PermissionDenied, err
	}
}

// Request implements PermissionPlatform.
func (p AccessPermissionPlatform) Request(ctx context.Context) (PermissionStatus, error) {
	status, err := p.Status(ctx)
	if err != nil || status == PermissionGranted {
		return status, err
	}
	return PermissionPermanentlyDenied, nil
}

// OpenSettings implements PermissionPlatform. There is no settings screen; it logs a hint.
func (p AccessPermissionPlatform) OpenSettings(ctx context.Context) error {
	logging.WithContext(ctx).Warn("storage root is not readable, grant access to continue", zap.String("root", p.Root))
	return nil
}

// NewPermissionGate returns the gate for mode: "unix" checks access on root, anything else is a no-op.
func NewPermissionGate(mode, root string) PermissionGate {
	if mode == "unix" {
		return NewPlatformPermissionGate(AccessPermissionPlatform{Root: root})
	}
	return NoopPermissionGate{}
}
