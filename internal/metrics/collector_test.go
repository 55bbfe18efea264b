package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

// Metrics live in the default registry, so each collector under test gets
// its own namespace.
func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.teamsFormed)
	assert.NotNil(t, collector.formationDuration)
	assert.NotNil(t, collector.negotiationsCreated)
	assert.NotNil(t, collector.proposalsResolved)
	assert.NotNil(t, collector.allocationsTotal)
}

func TestCollector_RecordTeamFormed(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordTeamFormed("optimal_coverage", 3, 5*time.Millisecond)

	count := testutil.CollectAndCount(collector.teamsFormed)
	assert.Greater(t, count, 0)

	collector.RecordTeamFormed("optimal_coverage", 2, 3*time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.teamsFormed.WithLabelValues("optimal_coverage")))
}

func TestCollector_RecordTeamLifecycle(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordTeamDisbanded()
	collector.RecordTeamAdjusted()

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.teamsDisbanded))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.teamAdjustments))
}

func TestCollector_RecordNegotiationMetrics(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordNegotiationCreated("task_allocation")
	collector.RecordNegotiationCompleted("task_allocation", "successful")
	collector.RecordProposalSubmitted()
	collector.RecordProposalResolved("accepted")
	collector.RecordConflictResolved()
	collector.RecordCompromiseSuggested("priority_setting")

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.negotiationsCreated.WithLabelValues("task_allocation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.negotiationsCompleted.WithLabelValues("task_allocation", "successful")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.proposalsSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.proposalsResolved.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.conflictsResolved))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.compromisesSuggested.WithLabelValues("priority_setting")))
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			collector.RecordTeamFormed("hybrid", 2, time.Millisecond)
			collector.RecordAllocation("round_robin")
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.teamsFormed.WithLabelValues("hybrid")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.allocationsTotal.WithLabelValues("round_robin")))
}
