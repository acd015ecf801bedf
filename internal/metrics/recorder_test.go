package metrics

import (
	"testing"
	"time"
)

// Compile-time checks that both implementations satisfy Recorder.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("load", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("load", ResultFatal)
	r.IncBuildOutcome(BuildOutcomeCanceled)
	r.SetPlannedPages(PageKindListing, 3)
	r.SetContentItems(3)
}
