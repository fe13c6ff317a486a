package services

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"audionav/logging"
	"audionav/metrics"
	"audionav/types"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// PrimaryVolumePath is the canonical path of the device's internal storage.
	PrimaryVolumePath   = "/storage/emulated/0"
	PrimaryVolumeName   = "Internal Storage"
	RemovableVolumeName = "SD Card"

	// DefaultStorageRoot is where removable volumes are mounted.
	DefaultStorageRoot = "/storage"

	probePlatform  = "platform"
	probeMountScan = "mount_scan"
)

// removableMountName matches raw UUID-named mounts such as "ABCD-1234".
var removableMountName = regexp.MustCompile(`(?i)^[0-9a-f]{4}-[0-9a-f]{4}$`)

// ignoredMounts are children of the storage root that never denote a removable volume.
var ignoredMounts = map[string]bool{
	"emulated": true,
	"self":     true,
	"sdcard0":  true,
}

// ExternalStorageLister returns the platform's external storage directory list.
type ExternalStorageLister interface {
	ExternalStorageDirs(ctx context.Context) ([]string, error)
}

// StaticStorageLister serves a fixed directory list, typically read from configuration.
type StaticStorageLister []string

// ExternalStorageDirs implements ExternalStorageLister.
func (l StaticStorageLister) ExternalStorageDirs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), l...), nil
}

// VolumeDiscovery enumerates the browsable storage roots of the device.
type VolumeDiscovery struct {
	fs          afero.Fs
	lister      ExternalStorageLister
	storageRoot string
}

// NewVolumeDiscovery creates a discovery that scans storageRoot on fs and asks lister
// for the platform directory list. A nil lister disables the platform probe.
func NewVolumeDiscovery(fs afero.Fs, lister ExternalStorageLister, storageRoot string) *VolumeDiscovery {
	if storageRoot == "" {
		storageRoot = DefaultStorageRoot
	}
	if lister == nil {
		lister = StaticStorageLister(nil)
	}
	return &VolumeDiscovery{
		fs:          fs,
		lister:      lister,
		storageRoot: storageRoot,
	}
}

// Discover returns the discovered volumes, primary volume first.
func (d *VolumeDiscovery) Discover(ctx context.Context) []types.Entry {
	return d.Probe(ctx).Volumes
}

// Probe runs both probes and reports their individual outcomes along with the merged result.
// Probe failures never abort discovery.
func (d *VolumeDiscovery) Probe(ctx context.Context) types.DiscoveryReport {
	start := time.Now()
	logger := logging.WithContext(ctx)

	report := types.DiscoveryReport{
		Platform:  d.probePlatform(ctx),
		MountScan: d.probeMounts(ctx),
	}

	for name, result := range map[string]types.ProbeResult{probePlatform: report.Platform, probeMountScan: report.MountScan} {
		if result.Failed {
			metrics.RecordProbeFailure(name)
			logger.Debug("volume probe failed", zap.String("probe", name), zap.String("error", result.Err))
		}
	}

	volumes := make([]types.Entry, 0, len(report.Platform.Volumes)+len(report.MountScan.Volumes)+1)
	seen := make(map[string]bool)
	for _, group := range [][]types.Entry{report.Platform.Volumes, report.MountScan.Volumes} {
		for _, v := range group {
			if seen[v.Path] {
				continue
			}
			seen[v.Path] = true
			volumes = append(volumes, v)
		}
	}

	volumes, report.SynthesizedPrimary = primaryFirst(volumes)
	report.Volumes = volumes

	metrics.RecordDiscovery(time.Since(start), len(volumes))
	logger.Debug("volumes discovered",
		zap.Int("count", len(volumes)),
		zap.Bool("synthesized_primary", report.SynthesizedPrimary))

	return report
}

// probePlatform maps the platform's external storage directories to volumes.
func (d *VolumeDiscovery) probePlatform(ctx context.Context) types.ProbeResult {
	dirs, err := d.lister.ExternalStorageDirs(ctx)
	if err != nil {
		return failedProbe(fmt.Errorf("list external storage: %w", err))
	}

	result := types.ProbeResult{Volumes: []types.Entry{}}
	for _, dir := range dirs {
		id, ok := volumeID(dir)
		if !ok {
			continue
		}
		result.Volumes = append(result.Volumes, volumeForID(id))
	}
	return result
}

// probeMounts scans the immediate children of the storage root for UUID-named mounts.
func (d *VolumeDiscovery) probeMounts(ctx context.Context) types.ProbeResult {
	if err := ctx.Err(); err != nil {
		return failedProbe(err)
	}

	children, err := afero.ReadDir(d.fs, d.storageRoot)
	if err != nil {
		return failedProbe(fmt.Errorf("scan %s: %w", d.storageRoot, err))
	}

	result := types.ProbeResult{Volumes: []types.Entry{}}
	for _, child := range children {
		name := child.Name()
		if ignoredMounts[name] || !removableMountName.MatchString(name) {
			continue
		}
		result.Volumes = append(result.Volumes, types.Entry{
			Path:        filepath.Join(d.storageRoot, name),
			Name:        RemovableVolumeName,
			IsDirectory: true,
		})
	}
	return result
}

func failedProbe(err error) types.ProbeResult {
	return types.ProbeResult{Volumes: []types.Entry{}, Failed: true, Err: err.Error()}
}

// volumeID extracts <volume-id> from a path of the form /storage/<volume-id>/...
func volumeID(dir string) (string, bool) {
	clean := filepath.ToSlash(filepath.Clean(dir))
	segments := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	if !strings.HasPrefix(clean, "/") || len(segments) < 2 || segments[0] != "storage" || segments[1] == "" {
		return "", false
	}
	return segments[1], true
}

func volumeForID(id string) types.Entry {
	if id == "emulated" {
		return primaryVolume()
	}
	return types.Entry{
		Path:        "/storage/" + id,
		Name:        RemovableVolumeName,
		IsDirectory: true,
	}
}

func primaryVolume() types.Entry {
	return types.Entry{
		Path:            PrimaryVolumePath,
		Name:            PrimaryVolumeName,
		IsDirectory:     true,
		IsPrimaryVolume: true,
	}
}

// primaryFirst moves the primary volume to index 0, synthesizing it when absent.
func primaryFirst(volumes []types.Entry) ([]types.Entry, bool) {
	for i, v := range volumes {
		if !v.IsPrimaryVolume {
			continue
		}
		if i == 0 {
			return volumes, false
		}
		out := make([]types.Entry, 0, len(volumes))
		out = append(out, v)
		out = append(out, volumes[:i]...)
		out = append(out, volumes[i+1:]...)
		return out, false
	}
	return append([]types.Entry{primaryVolume()}, volumes...), true
}
