package notification

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-availability-backend/internal/model"
)

type fakeSender struct {
	status  int
	err     error
	lastSub *webpush.Subscription
	payload []byte
}

func (f *fakeSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	f.lastSub = sub
	f.payload = payload
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func testAlert() Alert {
	return Alert{
		Subscription: model.WatchSubscription{
			Endpoint: "https://push.example/abc",
			P256DH:   "key",
			Auth:     "secret",
		},
		Message: "Sound Studio NOAH has an opening on 2026-09-01 between 18:00 and 24:00",
	}
}

func TestWorkerPool_Deliver(t *testing.T) {
	st := newFakeWatchStore()
	st.subs["https://push.example/abc"] = model.WatchSubscription{Endpoint: "https://push.example/abc"}

	pool := NewWorkerPool(1, st, &webpush.Options{})
	sender := &fakeSender{status: http.StatusCreated}
	pool.sender = sender

	pool.deliver(context.Background(), testAlert())

	require.NotNil(t, sender.lastSub)
	assert.Equal(t, "https://push.example/abc", sender.lastSub.Endpoint)
	assert.Equal(t, "key", sender.lastSub.Keys.P256dh)
	assert.Contains(t, string(sender.payload), "opening")

	// A successful delivery keeps the subscription.
	assert.Contains(t, st.subs, "https://push.example/abc")
}

func TestWorkerPool_DeliverExpiredSubscription(t *testing.T) {
	st := newFakeWatchStore()
	st.subs["https://push.example/abc"] = model.WatchSubscription{Endpoint: "https://push.example/abc"}

	pool := NewWorkerPool(1, st, &webpush.Options{})
	pool.sender = &fakeSender{status: http.StatusGone}

	pool.deliver(context.Background(), testAlert())

	assert.NotContains(t, st.subs, "https://push.example/abc")
}

func TestWorkerPool_DeliverSendError(t *testing.T) {
	st := newFakeWatchStore()
	st.subs["https://push.example/abc"] = model.WatchSubscription{Endpoint: "https://push.example/abc"}

	pool := NewWorkerPool(1, st, &webpush.Options{})
	pool.sender = &fakeSender{err: errors.New("push service unreachable")}

	pool.deliver(context.Background(), testAlert())

	// Transient failures do not delete the subscription.
	assert.Contains(t, st.subs, "https://push.example/abc")
}

func TestWorkerPool_WorkerDrainsJobs(t *testing.T) {
	st := newFakeWatchStore()
	pool := NewWorkerPool(1, st, &webpush.Options{})
	sender := &fakeSender{status: http.StatusCreated}
	pool.sender = sender

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	pool.Dispatch(testAlert())

	assert.Eventually(t, func() bool {
		return sender.lastSub != nil
	}, 2*time.Second, 10*time.Millisecond)
}
