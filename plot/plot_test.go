package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cavecrawl/go-cavecrawl/policy"
)

func sampleResult() *policy.Result {
	return &policy.Result{
		Deltas:        []float64{1.2, 0.4, 0.05, 0.001},
		PolicyChanges: []int{6, 2, 0},
		Converged:     true,
		Stable:        true,
	}
}

func TestConvergenceRendersHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := Convergence(&buf, sampleResult()); err != nil {
		t.Fatalf("Convergence failed: %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, "Policy evaluation convergence") {
		t.Error("Delta chart title missing")
	}
	if !strings.Contains(html, "Policy improvement") {
		t.Error("Changes chart title missing")
	}
}

func TestConvergenceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergence.html")
	if err := ConvergenceFile(path, sampleResult()); err != nil {
		t.Fatalf("ConvergenceFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("Rendered file is empty")
	}
}
