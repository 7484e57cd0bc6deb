package logging

import "testing"

func TestProgressSamplerEmitsOnBucketCrossing(t *testing.T) {
	sampler := NewProgressSampler(5)

	if !sampler.ShouldLog(0, "ripping", "") {
		t.Fatal("expected first event to emit")
	}
	if sampler.ShouldLog(1, "ripping", "") {
		t.Fatal("expected same bucket to suppress")
	}
	if !sampler.ShouldLog(6, "ripping", "") {
		t.Fatal("expected new bucket to emit")
	}
}

func TestProgressSamplerEmitsOnStageChange(t *testing.T) {
	sampler := NewProgressSampler(5)
	sampler.ShouldLog(50, "ripping", "")

	if !sampler.ShouldLog(50, "encoding", "") {
		t.Fatal("expected stage change to emit even at the same percent")
	}
}

func TestProgressSamplerResetClearsState(t *testing.T) {
	sampler := NewProgressSampler(5)
	sampler.ShouldLog(80, "encoding", "")
	sampler.Reset()

	if !sampler.ShouldLog(80, "encoding", "") {
		t.Fatal("expected reset to allow re-emitting the same bucket")
	}
}
