package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jcass77/WTFIX-sub000/dictionary"
	"github.com/jcass77/WTFIX-sub000/field"
	"github.com/jcass77/WTFIX-sub000/message"
	"github.com/jcass77/WTFIX-sub000/wire"
)

type recordingStage struct {
	BaseStage
	name     string
	received *[]string
	sent     *[]string
	onSend   func(ctx context.Context, msg *message.Message) (*message.Message, error)
}

func (s *recordingStage) Name() string { return s.name }

func (s *recordingStage) OnReceive(ctx context.Context, msg *message.Message) (*message.Message, error) {
	*s.received = append(*s.received, s.name)
	return msg, nil
}

func (s *recordingStage) OnSend(ctx context.Context, msg *message.Message) (*message.Message, error) {
	*s.sent = append(*s.sent, s.name)
	if s.onSend != nil {
		return s.onSend(ctx, msg)
	}
	return msg, nil
}

func buildRaw(t *testing.T) []byte {
	t.Helper()
	m := message.New(dictionary.MsgTypeHeartbeat)
	m.Set(field.NewInt(34, 1))
	m.Set(field.New(49, "SENDER"))
	m.Set(field.New(56, "TARGET"))
	raw, err := wire.Encode(m)
	if err != nil {
		t.Fatalf("wire.Encode: %v", err)
	}
	return raw
}

func TestReceiveDispatchesLowToHigh(t *testing.T) {
	var order []string
	sentOrder := []string{}
	low := &recordingStage{name: "low", received: &order, sent: &sentOrder}
	high := &recordingStage{name: "high", received: &order, sent: &sentOrder}

	p := New([]Stage{low, high}, func([]byte) error { return nil }, nil)

	if err := p.Receive(context.Background(), buildRaw(t)); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(order) != 2 || order[0] != "low" || order[1] != "high" {
		t.Fatalf("got dispatch order %v, want [low high]", order)
	}
}

func TestSendDispatchesHighToLow(t *testing.T) {
	var received, sent []string
	low := &recordingStage{name: "low", received: &received, sent: &sent}
	high := &recordingStage{name: "high", received: &received, sent: &sent}

	var written []byte
	p := New([]Stage{low, high}, func(data []byte) error {
		written = data
		return nil
	}, nil)

	m := message.New(dictionary.MsgTypeHeartbeat)
	m.Set(field.NewInt(34, 1))
	m.Set(field.New(49, "SENDER"))
	m.Set(field.New(56, "TARGET"))

	if err := p.Send(context.Background(), m); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sent) != 2 || sent[0] != "high" || sent[1] != "low" {
		t.Fatalf("got dispatch order %v, want [high low]", sent)
	}
	if len(written) == 0 {
		t.Fatal("expected Sender to receive encoded bytes")
	}
}

type stoppingStage struct {
	BaseStage
}

func (stoppingStage) Name() string { return "stopper" }
func (stoppingStage) OnReceive(ctx context.Context, msg *message.Message) (*message.Message, error) {
	return nil, &StopProcessing{Reason: "test"}
}

func TestReceiveStopProcessingHaltsSilently(t *testing.T) {
	var order []string
	sent := []string{}
	after := &recordingStage{name: "after", received: &order, sent: &sent}

	p := New([]Stage{stoppingStage{}, after}, func([]byte) error { return nil }, nil)
	if err := p.Receive(context.Background(), buildRaw(t)); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(order) != 0 {
		t.Fatalf("expected no further stages to run after StopProcessing, got %v", order)
	}
}

type fatalStage struct {
	BaseStage
}

func (fatalStage) Name() string { return "fatal" }
func (fatalStage) OnReceive(ctx context.Context, msg *message.Message) (*message.Message, error) {
	return nil, &SessionFatal{Reason: "boom"}
}

// depthStage records, for every OnSend call, how many OnSend calls (itself
// included) were concurrently in flight across the whole pipeline at that
// instant. A properly serialized Send never lets that exceed one.
type depthStage struct {
	BaseStage
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func (*depthStage) Name() string { return "depth" }

func (d *depthStage) OnSend(ctx context.Context, msg *message.Message) (*message.Message, error) {
	d.mu.Lock()
	d.inFlight++
	if d.inFlight > d.maxInFlight {
		d.maxInFlight = d.inFlight
	}
	d.mu.Unlock()

	// Give a concurrent Send a window to race in, if the caller's mutex
	// isn't actually serializing stamp+encode+write.
	time.Sleep(5 * time.Millisecond)

	d.mu.Lock()
	d.inFlight--
	d.mu.Unlock()
	return msg, nil
}

func TestSendIsSerializedAcrossConcurrentCallers(t *testing.T) {
	depth := &depthStage{}

	var writeMu sync.Mutex
	var writes [][]byte
	p := New([]Stage{depth}, func(data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		cp := append([]byte(nil), data...)
		writes = append(writes, cp)
		return nil
	}, nil)

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			m := message.New(dictionary.MsgTypeHeartbeat)
			m.Set(field.NewInt(34, i+1))
			m.Set(field.New(49, "SENDER"))
			m.Set(field.New(56, "TARGET"))
			if err := p.Send(context.Background(), m); err != nil {
				t.Errorf("Send: %v", err)
			}
		}()
	}
	wg.Wait()

	if depth.maxInFlight > 1 {
		t.Fatalf("observed %d concurrent OnSend calls in flight, want at most 1 (Send must serialize stamp+encode+write)", depth.maxInFlight)
	}
	if len(writes) != n {
		t.Fatalf("got %d writes, want %d", len(writes), n)
	}
	for _, w := range writes {
		if !bytes.HasPrefix(w, []byte("8=FIX.4.4\x01")) {
			t.Fatalf("write is not a complete, unmangled message: %q", w)
		}
	}
}

func TestReceiveSessionFatalPropagates(t *testing.T) {
	p := New([]Stage{fatalStage{}}, func([]byte) error { return nil }, nil)
	err := p.Receive(context.Background(), buildRaw(t))
	var fatal *SessionFatal
	if !errors.As(err, &fatal) {
		t.Fatalf("expected a SessionFatal, got %v", err)
	}
}
