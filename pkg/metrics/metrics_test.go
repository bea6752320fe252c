package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.ObserveFollowUp("domain_fallback", "domain_fallback", false)
	c.ObserveFollowUp("domain_fallback", "domain_fallback", false)
	c.ObserveCacheLookup(true)
	c.ObserveDegradation("high_confidence_refine", "synthesis_timeout")
	c.SetBreakerState("vector_index", 2)
	c.ObserveStage("embedding", 40*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.FollowUps.WithLabelValues("domain_fallback", "domain_fallback", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Degradations.WithLabelValues("high_confidence_refine", "synthesis_timeout")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.BreakerState.WithLabelValues("vector_index")))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveFollowUp("x", "y", true)
		c.ObserveDegradation("x", "y")
		c.ObserveCacheLookup(false)
		c.ObserveStage("x", time.Second)
		c.SetBreakerState("x", 1)
		c.SessionStarted()
		c.SessionCompleted()
		c.ObserveSync(true)
	})
	assert.Nil(t, c.Registry())
}

func TestSeparateCollectorsDoNotConflict(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector()
		NewCollector()
	})
}
