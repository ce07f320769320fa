package circuit

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBreakerStartsClosed(t *testing.T) {
	b := New("ollama")
	assert.Equal(t, "ollama", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.True(t, b.Allow())
}

// Each script is a run of outcomes: 'f' records a failure, 's' a success.
// want is the state after every step.
func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		script string
		want   string
	}{
		{
			name:   "opens on the threshold failure",
			opts:   []Option{WithFailureThreshold(3)},
			script: "fff",
			want:   "cco",
		},
		{
			name:   "success while closed clears failures",
			opts:   []Option{WithFailureThreshold(3)},
			script: "ffsfff",
			want:   "ccccco",
		},
		{
			name:   "closes after enough successes",
			opts:   []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			script: "fss",
			want:   "ooc",
		},
		{
			name:   "failure while open restarts the success run",
			opts:   []Option{WithFailureThreshold(1), WithSuccessThreshold(3)},
			script: "fssfsss",
			want:   "ooooooc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, tt.want, len(tt.script))
			b := New("ollama", tt.opts...)
			for i, step := range tt.script {
				if step == 'f' {
					b.RecordFailure()
				} else {
					b.RecordSuccess()
				}
				want := StateClosed
				if tt.want[i] == 'o' {
					want = StateOpen
				}
				assert.Equal(t, want, b.State(), "after step %d (%c)", i+1, step)
			}
		})
	}
}

func TestBreakerReportsChanges(t *testing.T) {
	b := New("ollama", WithFailureThreshold(1), WithSuccessThreshold(1))

	open, change := b.RecordFailure()
	assert.True(t, open)
	assert.Equal(t, StateChange{Opened: true}, change)

	open, change = b.RecordFailure()
	assert.True(t, open)
	assert.Equal(t, StateChange{}, change, "already open")

	closed, change := b.RecordSuccess()
	assert.True(t, closed)
	assert.Equal(t, StateChange{Closed: true}, change)
}

func TestBreakerReset(t *testing.T) {
	b := New("ollama", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
}

func TestBreakerAllowWaitsForCooldown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New("ollama", WithFailureThreshold(1), WithCooldown(5*time.Second), WithClock(clock))

	b.RecordFailure()
	assert.False(t, b.Allow())

	clock.Advance(5 * time.Second)
	assert.True(t, b.Allow(), "trial call admitted after cooldown")

	b.RecordFailure()
	assert.False(t, b.Allow(), "failed trial restarts the cooldown")
}
