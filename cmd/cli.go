package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"audionav/logging"
	"audionav/services"
	"audionav/types"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// PrintVolumes runs volume discovery and prints each volume and probe outcome.
func PrintVolumes(ctx context.Context, svc *Services, w io.Writer) error {
	report := svc.Discovery.Probe(ctx)

	for _, v := range report.Volumes {
		marker := " "
		if v.IsPrimaryVolume {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-18s %s\n", marker, v.Name, v.Path)
	}

	printProbe(w, "platform", report.Platform)
	printProbe(w, "mount scan", report.MountScan)
	if report.SynthesizedPrimary {
		fmt.Fprintln(w, "primary volume was not reported by any probe and was added")
	}
	return nil
}

func printProbe(w io.Writer, name string, result types.ProbeResult) {
	if result.Failed {
		fmt.Fprintf(w, "probe %s failed: %s\n", name, result.Err)
		return
	}
	fmt.Fprintf(w, "probe %s: %d volume(s)\n", name, len(result.Volumes))
}

// PrintDirectory lists path the way a browsing session would show it.
func PrintDirectory(ctx context.Context, svc *Services, path string, w io.Writer) error {
	navigator := svc.NewNavigator()
	navigator.Init(ctx)

	state := navigator.NavigateTo(ctx, path, true)
	if state.Error != "" {
		return errors.New(state.Error)
	}

	fmt.Fprintf(w, "%s (%d items)\n", state.CurrentPath, len(state.Items))
	for _, item := range state.Items {
		kind := "     "
		if item.IsDirectory {
			kind = "[dir]"
		}
		pin := " "
		if item.IsPinned {
			pin = "*"
		}
		fmt.Fprintf(w, "%s %s %s\n", pin, kind, item.Name)
	}
	return nil
}

// ScanLibrary walks every discovered volume and prints a per-format summary of the audio
// files found. Volumes that cannot be walked are reported and skipped.
func ScanLibrary(ctx context.Context, svc *Services, w io.Writer) error {
	volumes := svc.Discovery.Discover(ctx)

	bar := progressbar.NewOptions(len(volumes),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("scanning volumes"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	byFormat := make(map[string]int)
	total := 0
	for _, volume := range volumes {
		bar.Describe("scanning " + volume.Name)

		files, err := services.FindAudioFiles(ctx, svc.FS, volume.Path)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			logging.WithContext(ctx).Warn("scan failed", zap.String("volume", volume.Path), zap.Error(err))
		}
		for _, f := range files {
			byFormat[services.AudioFormat(f)]++
		}
		total += len(files)
		bar.Add(1)
	}
	bar.Finish()

	formats := make([]string, 0, len(byFormat))
	for format := range byFormat {
		formats = append(formats, format)
	}
	sort.Strings(formats)

	fmt.Fprintf(w, "%d audio file(s) on %d volume(s)\n", total, len(volumes))
	for _, format := range formats {
		fmt.Fprintf(w, "  %-5s %d\n", format, byFormat[format])
	}
	return nil
}
