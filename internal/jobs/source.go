package jobs

// Source identifies which applicant tracking system a posting came from.
type Source string

const (
	// SourceGreenhouse is the Greenhouse ATS.
	SourceGreenhouse Source = "greenhouse"
	// SourceLever is the Lever ATS.
	SourceLever Source = "lever"
	// SourceAshby is the Ashby ATS.
	SourceAshby Source = "ashby"
	// SourceWorkday is the Workday ATS.
	SourceWorkday Source = "workday"
	// SourceUnknown is a site with no recognized ATS.
	SourceUnknown Source = "unknown"
)

// KnownSources lists every vendor the detector can name, in probe-priority order.
func KnownSources() []Source {
	return []Source{SourceGreenhouse, SourceLever, SourceAshby, SourceWorkday}
}

// Confidence grades how sure the ATS detector is about a detection.
type Confidence string

const (
	ConfidenceCertain     Confidence = "certain"
	ConfidenceLikely      Confidence = "likely"
	ConfidenceUncertain   Confidence = "uncertain"
	ConfidenceNotDetected Confidence = "not_detected"
)

// DetectionResult is the outcome of ATS detection for one URL.
// Source is nil when nothing was detected.
type DetectionResult struct {
	Source       *Source    `json:"source,omitempty"`
	Confidence   Confidence `json:"confidence"`
	APIEndpoint  string     `json:"api_endpoint,omitempty"`
	ActualATSURL string     `json:"actual_ats_url,omitempty"`
	Message      string     `json:"message,omitempty"`
}

// Detected reports whether a vendor was named with usable confidence.
func (r *DetectionResult) Detected() bool {
	return r != nil && r.Source != nil && r.Confidence != ConfidenceNotDetected
}
