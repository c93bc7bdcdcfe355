// Package heartbeat implements the liveness monitor: a periodic TestRequest
// probe when the counterparty has gone quiet, and an immediate Heartbeat
// reply to any inbound TestRequest.
package heartbeat

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcass77/WTFIX-sub000/dictionary"
	"github.com/jcass77/WTFIX-sub000/field"
	"github.com/jcass77/WTFIX-sub000/message"
	"github.com/jcass77/WTFIX-sub000/pipeline"
)

// Sender delivers msg through the full pipeline send path.
type Sender func(ctx context.Context, msg *message.Message) error

// Monitor is the pipeline.Stage implementing heartbeat liveness: it tracks
// time since the last inbound message, probes with a TestRequest once the
// interval has elapsed, and declares the counterparty unresponsive if no
// Heartbeat echoing that probe arrives within the grace window.
type Monitor struct {
	pipeline.BaseStage

	HeartbeatInterval time.Duration
	senderID          string
	targetID          string
	send              Sender
	logger            *log.Logger

	// NotResponding is closed when the grace window elapses with no
	// response to a pending probe. The owner (session wiring) selects on
	// this to trigger a session stop.
	NotResponding chan struct{}

	mu          sync.Mutex
	lastReceive time.Time
	pendingID   string

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewMonitor constructs a Monitor for the given negotiated heartbeat
// interval (seconds).
func NewMonitor(heartbeatIntervalSeconds int, senderID, targetID string, send Sender, logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.Default()
	}
	return &Monitor{
		HeartbeatInterval: time.Duration(heartbeatIntervalSeconds) * time.Second,
		senderID:          senderID,
		targetID:          targetID,
		send:              send,
		logger:            logger,
		NotResponding:     make(chan struct{}),
		lastReceive:       time.Now(),
		stopCh:            make(chan struct{}),
		doneCh:            make(chan struct{}),
	}
}

func (m *Monitor) Name() string { return "heartbeat" }

// testRequestDelay is the grace window for a TestRequest response:
// 2*HeartBtInt + 4 seconds.
func (m *Monitor) testRequestDelay() time.Duration {
	return 2*m.HeartbeatInterval + 4*time.Second
}

// Start launches the monitor loop as a background goroutine.
func (m *Monitor) Start(ctx context.Context) error {
	go m.loop(ctx)
	m.logger.Printf("heartbeat: started monitor with %s interval", m.HeartbeatInterval)
	return nil
}

// Stop signals the monitor loop to exit and waits for it to finish.
func (m *Monitor) Stop(ctx context.Context) error {
	close(m.stopCh)
	select {
	case <-m.doneCh:
	case <-ctx.Done():
	}
	return nil
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.doneCh)

	for {
		idle := time.Since(m.lastSince())
		wait := m.HeartbeatInterval - idle
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-m.stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if time.Since(m.lastSince()) < m.HeartbeatInterval {
			continue // a message arrived while we were waiting
		}

		if err := m.sendTestRequest(ctx); err != nil {
			m.logger.Printf("heartbeat: failed to send test request: %v", err)
			return
		}

		grace := time.NewTimer(m.testRequestDelay())
		select {
		case <-m.stopCh:
			grace.Stop()
			return
		case <-ctx.Done():
			grace.Stop()
			return
		case <-grace.C:
		}

		if m.isWaiting() {
			m.logger.Printf("heartbeat: no response received for test request %q, initiating shutdown...", m.pendingProbe())
			close(m.NotResponding)
			return
		}
	}
}

func (m *Monitor) lastSince() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReceive
}

func (m *Monitor) isWaiting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingID != ""
}

func (m *Monitor) pendingProbe() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingID
}

func (m *Monitor) sendTestRequest(ctx context.Context) error {
	id := uuid.New().String()
	m.mu.Lock()
	m.pendingID = id
	m.mu.Unlock()

	m.logger.Printf("heartbeat: heartbeat exceeded, sending test request %q...", id)

	req := message.New(dictionary.MsgTypeTestRequest)
	req.Set(field.New(message.TagSenderCompID, m.senderID))
	req.Set(field.New(message.TagTargetCompID, m.targetID))
	req.Set(field.New(112, id)) // TestReqID
	return m.send(ctx, req)
}

// OnReceive updates the last-received timestamp on every inbound message,
// and dispatches TestRequest/Heartbeat handling.
func (m *Monitor) OnReceive(ctx context.Context, msg *message.Message) (*message.Message, error) {
	m.mu.Lock()
	m.lastReceive = time.Now()
	m.mu.Unlock()

	switch msg.Type() {
	case dictionary.MsgTypeTestRequest:
		return m.onTestRequest(ctx, msg)
	case dictionary.MsgTypeHeartbeat:
		return m.onHeartbeat(msg)
	default:
		return msg, nil
	}
}

func (m *Monitor) onTestRequest(ctx context.Context, msg *message.Message) (*message.Message, error) {
	testReqID, err := msg.Get(112)
	if err != nil {
		return nil, &pipeline.ProcessingError{Stage: m.Name(), Err: fmt.Errorf("TestRequest missing TestReqID (112)")}
	}

	m.logger.Printf("heartbeat: sending heartbeat in response to request %q", testReqID.String())
	hb := message.New(dictionary.MsgTypeHeartbeat)
	hb.Set(field.New(message.TagSenderCompID, m.senderID))
	hb.Set(field.New(message.TagTargetCompID, m.targetID))
	hb.Set(field.New(112, testReqID.String()))
	if err := m.send(ctx, hb); err != nil {
		return nil, &pipeline.ProcessingError{Stage: m.Name(), Err: err}
	}
	return msg, nil
}

func (m *Monitor) onHeartbeat(msg *message.Message) (*message.Message, error) {
	testReqID, err := msg.Get(112)
	if err != nil {
		// A plain heartbeat, not a probe response - nothing to reconcile.
		return msg, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if testReqID.String() == m.pendingID {
		m.pendingID = ""
		return msg, nil
	}
	return nil, &pipeline.ProcessingError{Stage: m.Name(), Err: fmt.Errorf("unexpected heartbeat for test request %q", testReqID.String())}
}
