package deadline

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	hasDeadline bool
	remaining   int
	err         error
	calls       int
}

func (f *fakeTx) HasDeadline() bool { return f.hasDeadline }

func (f *fakeTx) RemainingSeconds() (int, error) {
	f.calls++
	return f.remaining, f.err
}

type fakeStmt struct {
	timeout int
	sets    int
}

func (f *fakeStmt) QueryTimeout() int { return f.timeout }

func (f *fakeStmt) SetQueryTimeout(seconds int) {
	f.sets++
	f.timeout = seconds
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name     string
		tx       *fakeTx
		timeout  int
		want     int
		wantSets int
	}{
		{
			name:    "no deadline keeps unset timeout",
			tx:      &fakeTx{hasDeadline: false, remaining: 5},
			timeout: 0,
			want:    0,
		},
		{
			name:    "no deadline keeps explicit timeout",
			tx:      &fakeTx{hasDeadline: false, remaining: 5},
			timeout: 30,
			want:    30,
		},
		{
			name:     "unset timeout takes remaining",
			tx:       &fakeTx{hasDeadline: true, remaining: 2},
			timeout:  0,
			want:     2,
			wantSets: 1,
		},
		{
			name:     "looser timeout is lowered",
			tx:       &fakeTx{hasDeadline: true, remaining: 2},
			timeout:  10,
			want:     2,
			wantSets: 1,
		},
		{
			name:    "tighter timeout is kept",
			tx:      &fakeTx{hasDeadline: true, remaining: 8},
			timeout: 3,
			want:    3,
		},
		{
			name:    "equal timeout is kept",
			tx:      &fakeTx{hasDeadline: true, remaining: 3},
			timeout: 3,
			want:    3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := &fakeStmt{timeout: tt.timeout}
			require.NoError(t, Reconcile(tt.tx, stmt))
			assert.Equal(t, tt.want, stmt.timeout)
			assert.Equal(t, tt.wantSets, stmt.sets)
		})
	}
}

func TestReconcile_NilTransaction(t *testing.T) {
	stmt := &fakeStmt{timeout: 7}
	require.NoError(t, Reconcile(nil, stmt))
	assert.Equal(t, 7, stmt.timeout)
	assert.Zero(t, stmt.sets)
}

func TestReconcile_NoDeadlineSkipsRemainingQuery(t *testing.T) {
	tx := &fakeTx{hasDeadline: false, err: Exceeded("remaining", nil)}
	require.NoError(t, Reconcile(tx, &fakeStmt{}))
	assert.Zero(t, tx.calls)
}

func TestReconcile_Idempotent(t *testing.T) {
	for _, timeout := range []int{0, 1, 4, 60} {
		t.Run(fmt.Sprint(timeout), func(t *testing.T) {
			tx := &fakeTx{hasDeadline: true, remaining: 4}
			once := &fakeStmt{timeout: timeout}
			require.NoError(t, Reconcile(tx, once))

			twice := &fakeStmt{timeout: timeout}
			require.NoError(t, Reconcile(tx, twice))
			require.NoError(t, Reconcile(tx, twice))

			assert.Equal(t, once.timeout, twice.timeout)
			assert.LessOrEqual(t, twice.timeout, 4)
		})
	}
}

func TestReconcile_PropagatesDeadlineExceeded(t *testing.T) {
	expired := Exceeded("remaining", nil)
	stmt := &fakeStmt{timeout: 5}

	err := Reconcile(&fakeTx{hasDeadline: true, err: expired}, stmt)

	require.Error(t, err)
	assert.True(t, IsExceeded(err))
	assert.Equal(t, expired, err)
	assert.Equal(t, 5, stmt.timeout)
	assert.Zero(t, stmt.sets)
}

func TestReconcile_PassesOtherErrorsThrough(t *testing.T) {
	broken := errors.New("connection reset")

	err := Reconcile(&fakeTx{hasDeadline: true, err: broken}, &fakeStmt{})

	assert.Equal(t, broken, err)
	assert.False(t, IsExceeded(err))
}

func TestIsExceeded(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
		{name: "exceeded", err: Exceeded("commit", nil), want: true},
		{name: "wrapped with stack", err: errors.WithStack(Exceeded("exec", errors.New("canceled"))), want: true},
		{name: "wrapped with message", err: errors.Wrap(Exceeded("exec", nil), "select"), want: true},
		{name: "other kind", err: &Error{Kind: Kind(99)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExceeded(tt.err))
		})
	}
}

func TestError_Error(t *testing.T) {
	err := &Error{Kind: KindDeadlineExceeded, Op: "exec", Err: errors.New("context deadline exceeded")}
	assert.Equal(t, "exec: deadline exceeded: context deadline exceeded", err.Error())
	assert.Equal(t, "deadline exceeded", (&Error{Kind: KindDeadlineExceeded}).Error())
}
