package softtimer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestZeroValueIsStopped(t *testing.T) {
	var tm Timer
	assert.Equal(t, Stopped, tm.State())
	assert.False(t, tm.Update(at(0)))
	assert.Equal(t, time.Duration(0), tm.Elapsed(at(100)))
	assert.Equal(t, time.Duration(0), tm.Remaining(at(100)))
}

func TestOnceFiresExactlyOnce(t *testing.T) {
	tm := New(time.Second)
	tm.Start(at(0), Once)

	assert.False(t, tm.Update(at(0)))
	assert.False(t, tm.Update(at(999)))
	assert.True(t, tm.Update(at(1000)), "should fire at delay")
	assert.Equal(t, Stopped, tm.State())
	assert.False(t, tm.Update(at(1001)), "edge-triggered: no second expiry")
	assert.False(t, tm.Update(at(5000)))
}

func TestOnceFiresWhenPolledLate(t *testing.T) {
	tm := New(time.Second)
	tm.Start(at(0), Once)
	assert.True(t, tm.Update(at(1700)))
	assert.False(t, tm.Update(at(1800)))
}

func TestLoopHasNoDrift(t *testing.T) {
	tm := New(500 * time.Millisecond)
	tm.Start(at(0), Loop)

	// First expiry polled late at 530ms.
	require.True(t, tm.Update(at(530)))
	// Next deadline is 1000ms from the original start, not 1030ms.
	assert.False(t, tm.Update(at(999)))
	assert.True(t, tm.Update(at(1000)))
	assert.False(t, tm.Update(at(1200)))
	assert.True(t, tm.Update(at(1500)))
	assert.Equal(t, Running, tm.State())
}

func TestCountStopsAfterN(t *testing.T) {
	tm := New(100 * time.Millisecond)
	tm.Start(at(0), Count(3))

	fired := 0
	for ms := 0; ms <= 1000; ms += 10 {
		if tm.Update(at(ms)) {
			fired++
		}
	}
	assert.Equal(t, 3, fired)
	assert.Equal(t, Stopped, tm.State())
}

func TestCountFinalExpirySignals(t *testing.T) {
	tm := New(100 * time.Millisecond)
	tm.Start(at(0), Count(1))
	assert.True(t, tm.Update(at(100)))
	assert.Equal(t, Stopped, tm.State())
}

func TestCountBelowOneActsAsOnce(t *testing.T) {
	tm := New(100 * time.Millisecond)
	tm.Start(at(0), Count(0))
	assert.True(t, tm.Update(at(100)))
	assert.False(t, tm.Update(at(200)))
}

func TestPauseFreezesElapsed(t *testing.T) {
	tm := New(10 * time.Second)
	tm.Start(at(0), Once)
	tm.Pause(at(3000))

	assert.Equal(t, Paused, tm.State())
	assert.Equal(t, 3*time.Second, tm.Elapsed(at(3000)))
	assert.Equal(t, 3*time.Second, tm.Elapsed(at(60000)), "paused time must not advance")
	assert.False(t, tm.Update(at(60000)), "paused timer never expires")
}

func TestPauseResumeRoundTrip(t *testing.T) {
	paused := New(10 * time.Second)
	paused.Start(at(0), Once)
	paused.Pause(at(2500))
	paused.Resume(at(47500)) // 45s paused

	plain := New(10 * time.Second)
	plain.Start(at(0), Once)

	// Remaining after resume matches an unpaused timer offset by the pause.
	for _, ms := range []int{0, 1, 1000, 4321, 7499} {
		assert.Equal(t, plain.Remaining(at(2500+ms)), paused.Remaining(at(47500+ms)), "offset %dms", ms)
	}
	assert.False(t, paused.Update(at(47500+7499)))
	assert.True(t, paused.Update(at(47500+7500)))
}

func TestMultiplePauses(t *testing.T) {
	tm := New(10 * time.Second)
	tm.Start(at(0), Once)
	tm.Pause(at(1000))
	tm.Resume(at(5000))
	tm.Pause(at(6000)) // 2s counted
	tm.Resume(at(9000))

	assert.Equal(t, 2*time.Second, tm.Elapsed(at(9000)))
	assert.False(t, tm.Update(at(16999)))
	assert.True(t, tm.Update(at(17000)))
}

func TestResumeKeepsLoopPhase(t *testing.T) {
	tm := New(500 * time.Millisecond)
	tm.Start(at(0), Loop)
	tm.Pause(at(300))
	tm.Resume(at(10000))

	// 200ms remained in the period when paused.
	assert.False(t, tm.Update(at(10199)))
	assert.True(t, tm.Update(at(10200)))
}

func TestPauseResumeNoOpsInWrongState(t *testing.T) {
	tm := New(time.Second)
	tm.Pause(at(0))
	assert.Equal(t, Stopped, tm.State())
	tm.Resume(at(0))
	assert.Equal(t, Stopped, tm.State())

	tm.Start(at(0), Once)
	tm.Resume(at(500))
	assert.Equal(t, Running, tm.State())
	assert.Equal(t, 500*time.Millisecond, tm.Elapsed(at(500)))
}

func TestStopDiscardsElapsed(t *testing.T) {
	tm := New(time.Second)
	tm.Start(at(0), Once)
	tm.Pause(at(400))
	tm.Stop()

	assert.Equal(t, Stopped, tm.State())
	assert.Equal(t, time.Duration(0), tm.Elapsed(at(400)))

	tm.Start(at(1000), Once)
	assert.Equal(t, time.Second, tm.Remaining(at(1000)))
}

func TestQueriesArePure(t *testing.T) {
	tm := New(time.Second)
	tm.Start(at(0), Once)
	for i := 0; i < 5; i++ {
		tm.Remaining(at(2000))
		tm.Elapsed(at(2000))
		tm.ElapsedMinutes(at(2000))
	}
	assert.Equal(t, Running, tm.State())
	assert.True(t, tm.Update(at(2000)))
}

func TestElapsedTruncates(t *testing.T) {
	tm := New(10 * time.Minute)
	tm.Start(at(0), Once)

	assert.Equal(t, 0, tm.ElapsedSeconds(at(999)))
	assert.Equal(t, 1, tm.ElapsedSeconds(at(1000)))
	assert.Equal(t, 59, tm.ElapsedSecondsMod60(at(59999)))
	assert.Equal(t, 0, tm.ElapsedMinutes(at(59999)))
	assert.Equal(t, 1, tm.ElapsedMinutes(at(60000)))
	assert.Equal(t, 0, tm.ElapsedSecondsMod60(at(60000)))
	assert.Equal(t, 2, tm.ElapsedMinutes(at(125500)))
	assert.Equal(t, 5, tm.ElapsedSecondsMod60(at(125500)))
}

func TestRemainingNeverNegative(t *testing.T) {
	tm := New(time.Second)
	tm.Start(at(0), Loop)
	assert.Equal(t, time.Duration(0), tm.Remaining(at(5000)))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "STOPPED", Stopped.String())
	assert.Equal(t, "RUNNING", Running.String())
	assert.Equal(t, "PAUSED", Paused.String())
	assert.Equal(t, "UNKNOWN", State(9).String())
}
