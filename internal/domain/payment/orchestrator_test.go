package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway scripts gateway behaviour for a test.
type fakeGateway struct {
	mu         sync.Mutex
	loadCalls  int
	loadErr    error
	presentErr error
	event      *Event // delivered once Present is called; nil closes the channel
	delay      time.Duration
}

func (g *fakeGateway) Load(_ context.Context) error {
	g.mu.Lock()
	g.loadCalls++
	g.mu.Unlock()
	return g.loadErr
}

func (g *fakeGateway) Present(_ context.Context, _ Options) (<-chan Event, error) {
	if g.presentErr != nil {
		return nil, g.presentErr
	}
	ch := make(chan Event, 1)
	go func() {
		if g.delay > 0 {
			time.Sleep(g.delay)
		}
		if g.event != nil {
			ch <- *g.event
		}
		close(ch)
	}()
	return ch, nil
}

func (g *fakeGateway) loads() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loadCalls
}

func testRequest() Request {
	return Request{
		OrderID:  "ORD-TEST",
		Amount:   decimal.NewFromInt(750),
		Currency: "USD",
	}
}

func TestInitiate_Settled(t *testing.T) {
	gw := &fakeGateway{event: &Event{Kind: EventCaptured, PaymentRef: "pay_AbC123xyz789"}}
	o := NewOrchestrator(gw)

	out := o.Initiate(context.Background(), testRequest())

	assert.Equal(t, StatusSettled, out.Status)
	assert.True(t, out.Settled())
	assert.Equal(t, "pay_AbC123xyz789", out.PaymentRef)
}

func TestInitiate_Dismissed(t *testing.T) {
	gw := &fakeGateway{event: &Event{Kind: EventDismissed}}
	o := NewOrchestrator(gw)

	out := o.Initiate(context.Background(), testRequest())

	assert.Equal(t, StatusCancelled, out.Status)
	assert.False(t, out.Settled())
}

func TestInitiate_ChannelClosedWithoutEvent(t *testing.T) {
	gw := &fakeGateway{}
	o := NewOrchestrator(gw)

	out := o.Initiate(context.Background(), testRequest())
	assert.Equal(t, StatusCancelled, out.Status)
}

func TestInitiate_VerificationFailed(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{"empty reference", ""},
		{"wrong prefix", "ref_AbC123xyz789"},
		{"too short", "pay_abc"},
		{"illegal characters", "pay_AbC123-xyz789"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{event: &Event{Kind: EventCaptured, PaymentRef: tt.ref}}
			o := NewOrchestrator(gw)

			out := o.Initiate(context.Background(), testRequest())

			assert.Equal(t, StatusVerificationFailed, out.Status)
			assert.Equal(t, tt.ref, out.PaymentRef)
		})
	}
}

func TestInitiate_LoadFailure(t *testing.T) {
	gw := &fakeGateway{loadErr: errors.New("dns failure")}
	o := NewOrchestrator(gw)

	out := o.Initiate(context.Background(), testRequest())

	assert.Equal(t, StatusScriptLoadFailed, out.Status)
	require.Error(t, out.Fault)

	// A failed load is not memoized: the next attempt tries again.
	gw.loadErr = nil
	gw.event = &Event{Kind: EventCaptured, PaymentRef: "pay_AbC123xyz789"}
	out = o.Initiate(context.Background(), testRequest())
	assert.Equal(t, StatusSettled, out.Status)
	assert.Equal(t, 2, gw.loads())
}

func TestInitiate_PresentFailure(t *testing.T) {
	gw := &fakeGateway{presentErr: errors.New("503 from gateway")}
	o := NewOrchestrator(gw)

	out := o.Initiate(context.Background(), testRequest())

	assert.Equal(t, StatusScriptLoadFailed, out.Status)
	require.Error(t, out.Fault)
}

func TestInitiate_LoadMemoized(t *testing.T) {
	gw := &fakeGateway{event: &Event{Kind: EventCaptured, PaymentRef: "pay_AbC123xyz789"}}
	o := NewOrchestrator(gw)

	for range 3 {
		out := o.Initiate(context.Background(), testRequest())
		require.Equal(t, StatusSettled, out.Status)
	}

	assert.Equal(t, 1, gw.loads())
}

func TestInitiate_ContextCancelledDuringAwait(t *testing.T) {
	gw := &fakeGateway{
		event: &Event{Kind: EventCaptured, PaymentRef: "pay_AbC123xyz789"},
		delay: 5 * time.Second,
	}
	o := NewOrchestrator(gw)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	out := o.Initiate(ctx, testRequest())
	assert.Equal(t, StatusCancelled, out.Status)
}
