package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/amqp"
)

type fakeMirrorer struct {
	mirrored []string
	backlog  int
	calls    int
	err      error
}

func (f *fakeMirrorer) MirrorPayment(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.mirrored = append(f.mirrored, key)
	return nil
}

func (f *fakeMirrorer) ReconcileMirrors(_ context.Context, limit int) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	n := limit
	if f.backlog < n {
		n = f.backlog
	}
	f.backlog -= n
	return n, nil
}

func TestHandlePaymentRecorded(t *testing.T) {
	m := &fakeMirrorer{}
	w := NewMirrorWorker(m, 5, nil)

	err := w.HandlePaymentRecorded(context.Background(), &amqp.PaymentRecordedMessage{MirrorKey: "d1:42", DebtID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1:42"}, m.mirrored)

	m.err = errors.New("db locked")
	err = w.HandlePaymentRecorded(context.Background(), &amqp.PaymentRecordedMessage{MirrorKey: "d1:43"})
	assert.ErrorIs(t, err, m.err)
}

func TestStartupCheckDrainsBacklog(t *testing.T) {
	m := &fakeMirrorer{backlog: 12}
	w := NewMirrorWorker(m, 5, nil)

	require.NoError(t, w.StartupCheck(context.Background()))
	assert.Zero(t, m.backlog)
	assert.Equal(t, 3, m.calls)
}

func TestStartupCheckStopsOnError(t *testing.T) {
	m := &fakeMirrorer{backlog: 3, err: errors.New("boom")}
	w := NewMirrorWorker(m, 5, nil)

	assert.Error(t, w.StartupCheck(context.Background()))
	assert.Equal(t, 1, m.calls)
}

func TestRunStopsWithContext(t *testing.T) {
	w := NewMirrorWorker(&fakeMirrorer{}, 5, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
