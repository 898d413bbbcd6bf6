package checker

// Verdict is the rendered outcome of a single check.
type Verdict string

const (
	VerdictOK    Verdict = "OK"
	VerdictFail  Verdict = "FAIL"
	VerdictError Verdict = "ERROR"
)

// CheckResult is the outcome of executing one endpoint check.
type CheckResult struct {
	Service        string   `json:"service"`
	Endpoint       string   `json:"endpoint"`
	URL            string   `json:"url"`
	Method         string   `json:"method"`
	StatusCode     *int     `json:"status_code"`
	ExpectedStatus int      `json:"expected_status"`
	ResponseMs     float64  `json:"response_ms"`
	MaxResponseMs  *float64 `json:"max_response_ms"`
	StatusOK       bool     `json:"ok_status"`
	TimeOK         bool     `json:"ok_time"`
	OK             bool     `json:"ok"`
	// Error is set only when no response was received.
	Error string `json:"error,omitempty"`
}

// Verdict classifies the result: ERROR when no response was received,
// otherwise OK or FAIL.
func (r CheckResult) Verdict() Verdict {
	switch {
	case r.StatusCode == nil:
		return VerdictError
	case r.OK:
		return VerdictOK
	default:
		return VerdictFail
	}
}

// Summary holds aggregate counts for a run. Total is always Passed + Failed.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Add counts r into exactly one bucket.
func (s *Summary) Add(r CheckResult) {
	s.Total++
	if r.OK {
		s.Passed++
	} else {
		s.Failed++
	}
}

// Report is the full output of a run.
type Report struct {
	Summary Summary       `json:"summary"`
	Results []CheckResult `json:"results"`
}

// Failed reports whether any check in the run did not pass.
func (r Report) Failed() bool {
	return r.Summary.Failed > 0
}
