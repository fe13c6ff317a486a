//go:build unix

package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessPermissionPlatform(t *testing.T) {
	ctx := context.Background()

	readable := AccessPermissionPlatform{Root: t.TempDir()}
	status, err := readable.Status(ctx)
	assert.NoError(t, err)
	assert.Equal(t, PermissionGranted, status)
	assert.True(t, NewPermissionGate("unix", readable.Root).EnsurePermission(ctx))

	if os.Geteuid() == 0 {
		t.Skip("root bypasses access checks")
	}
	locked := t.TempDir()
	assert.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	status, err = AccessPermissionPlatform{Root: locked}.Request(ctx)
	assert.NoError(t, err)
	assert.Equal(t, PermissionPermanentlyDenied, status)
	assert.False(t, NewPermissionGate("unix", locked).EnsurePermission(ctx))
}

func TestNewPermissionGateNone(t *testing.T) {
	assert.IsType(t, NoopPermissionGate{}, NewPermissionGate("none", "/does/not/matter"))
}
