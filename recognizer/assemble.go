package recognizer

import (
	"image"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/juruen/inkmath/ink"
)

// Policy decides what a failed cluster does to the answer
type Policy int

const (
	// SkipFailed drops failed clusters and joins the remaining digits.
	// A failure in the middle of a number therefore yields a shorter
	// number rather than no answer.
	SkipFailed Policy = iota
	// FailFast discards the whole answer as soon as one cluster fails
	FailFast
)

func (p Policy) String() string {
	switch p {
	case FailFast:
		return "failfast"
	default:
		return "skip"
	}
}

// ParsePolicy maps a configuration value onto a Policy
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SkipFailed, nil
	case "failfast", "fail-fast":
		return FailFast, nil
	default:
		return SkipFailed, errors.Errorf("unknown failure policy %q", s)
	}
}

// DigitResult is the outcome for one cluster
type DigitResult struct {
	// Index is the cluster's position in scan order
	Index         int
	Cluster       ink.Cluster
	Image         *image.Gray
	Label         int
	Probabilities map[int]float64
	// Err is set when the cluster produced no digit
	Err error
}

func (d DigitResult) OK() bool {
	return d.Err == nil
}

// Answer is the outcome of a prediction pass
type Answer struct {
	// Value is only meaningful when OK is true
	Value   int
	OK      bool
	Digits  string
	Results []DigitResult
	// Err explains a missing answer
	Err error
}

// Assemble joins the per-cluster labels in scan order into one integer
func Assemble(results []DigitResult, policy Policy) Answer {
	a := Answer{Results: results}

	var sb strings.Builder
	for _, r := range results {
		if r.Err != nil {
			if policy == FailFast {
				a.Err = errors.Wrapf(ErrAssembly, "cluster %d failed: %v", r.Index, r.Err)
				return a
			}
			continue
		}
		sb.WriteString(strconv.Itoa(r.Label))
	}
	a.Digits = sb.String()

	if a.Digits == "" {
		a.Err = errors.Wrap(ErrAssembly, "no digits recognized")
		return a
	}

	v, err := strconv.Atoi(a.Digits)
	if err != nil || v < 0 {
		a.Err = errors.Wrapf(ErrAssembly, "can't parse %q", a.Digits)
		return a
	}

	a.Value = v
	a.OK = true
	return a
}
