//go:build !unix

package services

// NewPermissionGate returns a no-op gate; only unix hosts have an access probe.
func NewPermissionGate(mode, root string) PermissionGate {
	return NoopPermissionGate{}
}
