package saga_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jcpaschoal/crm-tenancy/business/sdk/saga"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLog() *logger.Logger {
	return logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
}

func TestCompensatesInReverseOrder(t *testing.T) {
	var trail []string
	rec := func(s string) func(context.Context) error {
		return func(context.Context) error {
			trail = append(trail, s)
			return nil
		}
	}

	s := saga.New(newLog(), "create tenant")
	ctx := context.Background()

	require.NoError(t, s.Run(ctx, saga.Step{Name: "org", Do: rec("do org"), Undo: rec("undo org")}))
	require.NoError(t, s.Run(ctx, saga.Step{Name: "identity", Do: rec("do identity"), Undo: rec("undo identity")}))

	boom := errors.New("membership insert failed")
	err := s.Run(ctx, saga.Step{Name: "membership", Do: func(context.Context) error { return boom }})

	var stepErr *saga.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "membership", stepErr.Step)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, stepErr.Compensation)

	assert.Equal(t, []string{"do org", "do identity", "undo identity", "undo org"}, trail)
}

func TestCompensationFailureIsReported(t *testing.T) {
	s := saga.New(newLog(), "create tenant")
	ctx := context.Background()

	undoErr := errors.New("delete org failed")
	var identityUndone bool

	require.NoError(t, s.Run(ctx, saga.Step{
		Name: "org",
		Do:   func(context.Context) error { return nil },
		Undo: func(context.Context) error { return undoErr },
	}))
	require.NoError(t, s.Run(ctx, saga.Step{
		Name: "identity",
		Do:   func(context.Context) error { return nil },
		Undo: func(context.Context) error { identityUndone = true; return nil },
	}))

	err := s.Run(ctx, saga.Step{Name: "membership", Do: func(context.Context) error { return errors.New("x") }})

	var stepErr *saga.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.ErrorIs(t, stepErr.Compensation, undoErr)
	assert.ErrorIs(t, err, undoErr)
	assert.True(t, identityUndone)
}

func TestStepTimeoutIsAFailure(t *testing.T) {
	s := saga.New(newLog(), "create tenant", saga.WithStepTimeout(10*time.Millisecond))

	var undone bool
	require.NoError(t, s.Run(context.Background(), saga.Step{
		Name: "org",
		Do:   func(context.Context) error { return nil },
		Undo: func(ctx context.Context) error {
			undone = ctx.Err() == nil
			return nil
		},
	}))

	err := s.Run(context.Background(), saga.Step{
		Name: "identity",
		Do: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, undone)
}

func TestLateStepIsUndone(t *testing.T) {
	s := saga.New(newLog(), "create tenant", saga.WithStepTimeout(10*time.Millisecond))

	var trail []string
	require.NoError(t, s.Run(context.Background(), saga.Step{
		Name: "org",
		Do:   func(context.Context) error { return nil },
		Undo: func(context.Context) error { trail = append(trail, "undo org"); return nil },
	}))

	err := s.Run(context.Background(), saga.Step{
		Name: "identity",
		Do: func(ctx context.Context) error {
			<-ctx.Done()
			trail = append(trail, "do identity")
			return nil
		},
		Undo: func(ctx context.Context) error {
			if ctx.Err() == nil {
				trail = append(trail, "undo identity")
			}
			return nil
		},
	})

	var stepErr *saga.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "identity", stepErr.Step)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, stepErr.Compensation)

	assert.Equal(t, []string{"do identity", "undo identity", "undo org"}, trail)
}

func TestCompensationSurvivesCallerCancel(t *testing.T) {
	s := saga.New(newLog(), "create tenant")
	ctx, cancel := context.WithCancel(context.Background())

	var undone bool
	require.NoError(t, s.Run(ctx, saga.Step{
		Name: "org",
		Do:   func(context.Context) error { return nil },
		Undo: func(ctx context.Context) error {
			undone = ctx.Err() == nil
			return nil
		},
	}))

	cancel()

	err := s.Run(ctx, saga.Step{Name: "identity", Do: func(ctx context.Context) error { return ctx.Err() }})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, undone)
}

func TestForget(t *testing.T) {
	s := saga.New(newLog(), "update tenant")
	ctx := context.Background()

	var undone bool
	require.NoError(t, s.Run(ctx, saga.Step{
		Name: "org",
		Do:   func(context.Context) error { return nil },
		Undo: func(context.Context) error { undone = true; return nil },
	}))

	s.Forget()
	assert.NoError(t, s.Compensate(ctx))
	assert.False(t, undone)
}
