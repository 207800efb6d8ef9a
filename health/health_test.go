package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatuses(t *testing.T) {
	h := NewHealthy("cache", "ok")
	assert.True(t, h.Healthy)
	assert.True(t, h.IsHealthy())
	assert.False(t, h.Timestamp.IsZero())

	d := NewDegraded("classifier", "slow")
	assert.False(t, d.Healthy)
	assert.True(t, d.IsDegraded())

	u := NewUnhealthy("classifier", "down")
	assert.False(t, u.Healthy)
	assert.True(t, u.IsUnhealthy())
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		subs   []Status
		expect string
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Status{NewHealthy("a", ""), NewHealthy("b", "")}, StatusHealthy},
		{"one degraded", []Status{NewHealthy("a", ""), NewDegraded("b", "")}, StatusDegraded},
		{"unhealthy wins", []Status{NewDegraded("a", ""), NewUnhealthy("b", "")}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := Aggregate("system", tt.subs)
			assert.Equal(t, tt.expect, agg.Status)
			assert.Len(t, agg.SubStatuses, len(tt.subs))
		})
	}
}

func TestAggregate_DoesNotShareInput(t *testing.T) {
	subs := []Status{NewHealthy("a", "")}
	agg := Aggregate("system", subs)
	agg.SubStatuses[0].Message = "changed"
	assert.Equal(t, "", subs[0].Message)
}

func TestMonitor(t *testing.T) {
	m := NewMonitor()
	assert.True(t, m.AggregateHealth("svc").IsHealthy())

	m.UpdateHealthy("cache", "500 capacity")
	m.UpdateDegraded("classifier", "last call failed")

	s, ok := m.Get("classifier")
	require.True(t, ok)
	assert.Equal(t, "classifier", s.Component)

	agg := m.AggregateHealth("svc")
	assert.True(t, agg.IsDegraded())
	require.Len(t, agg.SubStatuses, 2)
	assert.Equal(t, "cache", agg.SubStatuses[0].Component)

	m.UpdateUnhealthy("classifier", "down")
	assert.True(t, m.AggregateHealth("svc").IsUnhealthy())

	m.Update("cache", Status{Status: StatusHealthy, Healthy: true})
	s, _ = m.Get("cache")
	assert.Equal(t, "cache", s.Component)
	assert.False(t, s.Timestamp.IsZero())

	_, ok = m.Get("missing")
	assert.False(t, ok)
}
