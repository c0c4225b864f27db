package scenario

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunGolden executes a scenario and compares its report against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/scenario -update
//
// Returns an error if the scenario fails to execute or if any of its
// expect assertions do not hold. Report mismatches against the golden
// file fail the test via goldie.
func RunGolden(t *testing.T, s *Scenario) error {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return err
	}
	if !result.Pass() {
		return fmt.Errorf("scenario %s: %s", s.Name, strings.Join(result.Errors, "; "))
	}

	AssertGolden(t, s.Name, result)
	return nil
}

// AssertGolden compares an already-computed result's report against the
// golden file named after the scenario. Useful when a test has run the
// scenario itself and only wants the snapshot comparison.
func AssertGolden(t *testing.T, name string, r *Result) {
	t.Helper()

	var buf bytes.Buffer
	Report(&buf, r)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
}
