package formscan

// ProgressSink receives progress updates while an index is being built.
//
// SetMax announces the expected total number of steps for the run, SetStatus
// describes the current phase or discovery, and Step advances the completed
// count by n. Calls arrive from the worker goroutine; implementations must be
// safe for concurrent use or marshal to their own context.
type ProgressSink interface {
	SetMax(n int)
	SetStatus(status string)
	Step(n int)
}

// Interface compliance.
var _ ProgressSink = nopSink{}

// nopSink discards all progress updates. It is the default when no sink is
// configured.
type nopSink struct{}

func (nopSink) SetMax(int)       {}
func (nopSink) SetStatus(string) {}
func (nopSink) Step(int)         {}
