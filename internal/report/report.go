// Package report renders check results for humans and persists run reports.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/hazz-dev/apismoke/internal/checker"
)

// Line renders the one-line progress record for a completed check.
func Line(r checker.CheckResult) string {
	v := r.Verdict()
	if v == checker.VerdictError {
		return fmt.Sprintf("[%s] %s/%s %s %s failed after %.1f ms: %s",
			v, r.Service, r.Endpoint, r.Method, r.URL, r.ResponseMs, r.Error)
	}
	return fmt.Sprintf("[%s] %s/%s %s %s -> %d (%.1f ms)",
		v, r.Service, r.Endpoint, r.Method, r.URL, *r.StatusCode, r.ResponseMs)
}

// Encode writes rep as indented JSON followed by a newline.
func Encode(w io.Writer, rep checker.Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Write persists rep at path, creating parent directories as needed.
func Write(path string, rep checker.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report %q: %w", path, err)
	}
	if err := Encode(f, rep); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing report %q: %w", path, err)
	}
	return nil
}

// PrintSummary writes the totals block shown at the end of a run.
func PrintSummary(w io.Writer, s checker.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  total:  %d\n", s.Total)
	fmt.Fprintf(w, "  passed: %d\n", s.Passed)
	fmt.Fprintf(w, "  failed: %d\n", s.Failed)
}
