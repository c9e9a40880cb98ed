package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/ir"
)

func TestRecordingInvoker_RecordsCalls(t *testing.T) {
	inv := NewRecordingInvoker()

	require.NoError(t, inv.Invoke(context.Background(), "greeting", "greet", ir.Array{ir.String("hi")}))

	calls := inv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "greeting", calls[0].Contract)
	assert.Equal(t, "greet", calls[0].Action)
	assert.Equal(t, ir.Array{ir.String("hi")}, calls[0].Args)
}

func TestRecordingInvoker_FailOn(t *testing.T) {
	inv := NewRecordingInvoker()
	boom := errors.New("boom")
	inv.FailOn("greeting", "greet", boom)

	err := inv.Invoke(context.Background(), "greeting", "greet", nil)
	assert.ErrorIs(t, err, boom)

	err = inv.Invoke(context.Background(), "greeting", "wave", nil)
	assert.NoError(t, err)
	assert.Len(t, inv.Calls(), 2, "failed calls are recorded too")
}

func TestRecordingInvoker_BlockUntilRelease(t *testing.T) {
	inv := NewRecordingInvoker()
	inv.Block = true

	done := make(chan error)
	go func() {
		done <- inv.Invoke(context.Background(), "c", "a", nil)
	}()

	<-inv.Started
	select {
	case <-done:
		t.Fatal("invoke returned before release")
	default:
	}

	close(inv.Release)
	assert.NoError(t, <-done)
}

func TestRecordingInvoker_BlockHonorsContext(t *testing.T) {
	inv := NewRecordingInvoker()
	inv.Block = true
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- inv.Invoke(ctx, "c", "a", nil)
	}()

	<-inv.Started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
