package evaluate

import (
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/feateval/feateval/errors"
)

// Role distinguishes the two training runs compared per feature set.
type Role int

const (
	// Baseline trains without the candidate features, per mode
	Baseline Role = iota
	// Testing trains with the candidate features, for comparison
	Testing
)

func (r Role) String() string {
	if r == Baseline {
		return "baseline"
	}
	return "testing"
}

// ignoredFeatures computes the features to exclude from training for the
// given role and tested feature set, sorted ascending.
func ignoredFeatures(mode Mode, featureSets [][]int, role Role, setIdx int) ([]int, error) {
	var ignored []int
	if role == Testing {
		if mode == OthersVsAll {
			ignored = append(ignored, featureSets[setIdx]...)
		} else {
			// ignore every tested feature outside the current set
			asSet := make(map[int]bool)
			for _, set := range featureSets {
				for _, f := range set {
					asSet[f] = true
				}
			}
			for _, f := range featureSets[setIdx] {
				delete(asSet, f)
			}
			for f := range asSet {
				ignored = append(ignored, f)
			}
		}
	} else {
		switch mode {
		case OneVsAll, OthersVsAll:
			// no additional ignored features
		case OneVsOthers:
			ignored = append(ignored, featureSets[setIdx]...)
		case OneVsNone:
			for _, set := range featureSets {
				ignored = append(ignored, set...)
			}
		default:
			return nil, errors.Errorf("unknown feature evaluation mode %v", mode)
		}
	}
	sort.Ints(ignored)
	return ignored, nil
}

// logIgnoredFeatures reports the selector's decision for operator visibility.
func logIgnoredFeatures(role Role, setIdx int, ignored []int) {
	if len(ignored) == 0 {
		log.Printf("feature set %d, %s, no additional ignored features", setIdx, role)
		return
	}
	parts := make([]string, len(ignored))
	for i, f := range ignored {
		parts[i] = strconv.Itoa(f)
	}
	log.Printf("feature set %d, %s, additional ignored features %s", setIdx, role, strings.Join(parts, ":"))
}
