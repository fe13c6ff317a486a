package types

// ProbeResult is the outcome of one volume discovery probe.
// Failed distinguishes a probe that errored from one that found nothing.
type ProbeResult struct {
	Volumes []Entry `json:"volumes"`
	Failed  bool    `json:"failed"`
	Err     string  `json:"error,omitempty"`
}

// DiscoveryReport describes a full discovery run.
type DiscoveryReport struct {
	Platform  ProbeResult `json:"platform"`
	MountScan ProbeResult `json:"mountScan"`

	// SynthesizedPrimary is set when neither probe reported the primary volume.
	SynthesizedPrimary bool `json:"synthesizedPrimary"`

	Volumes []Entry `json:"volumes"`
}
