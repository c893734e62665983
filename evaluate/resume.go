package evaluate

// progress identifies one unit of work: training one model for one
// (foldRangeBegin, featureSetIndex, isTest, foldIndex) tuple. Units complete
// in lexicographic progress order, which is what makes resumption a simple
// tuple comparison.
type progress struct {
	FoldRangeBegin  int
	FeatureSetIndex int
	IsTest          bool
	FoldIndex       int
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// less is the lexicographic order on progress tuples, with IsTest compared as
// 0/1.
func (p progress) less(q progress) bool {
	if p.FoldRangeBegin != q.FoldRangeBegin {
		return p.FoldRangeBegin < q.FoldRangeBegin
	}
	if p.FeatureSetIndex != q.FeatureSetIndex {
		return p.FeatureSetIndex < q.FeatureSetIndex
	}
	if p.IsTest != q.IsTest {
		return boolToInt(p.IsTest) < boolToInt(q.IsTest)
	}
	return p.FoldIndex < q.FoldIndex
}

// resumeState is the pure progress-comparison half of the resume protocol: it
// answers "was this unit already completed by the run that produced the
// snapshot". The snapshot load that fills it is one-shot: the state
// invalidates itself once the run catches up, so a stale snapshot can never
// cause an infinite resume loop.
type resumeState struct {
	persisted progress
	valid     bool
}

// restore arms the state with the progress recovered from a snapshot.
func (r *resumeState) restore(p progress) {
	r.persisted = p
	r.valid = true
}

// shouldSkip reports whether the unit was completed by the snapshotted run.
// Units are skipped iff their tuple is strictly less than the persisted one:
// the persisted unit itself was in flight when the snapshot was taken and
// must re-execute.
func (r *resumeState) shouldSkip(p progress) bool {
	return r.valid && p.less(r.persisted)
}

// invalidate disarms the state; called when the run reaches the first
// non-skipped unit.
func (r *resumeState) invalidate() {
	r.valid = false
}
