// Command fixclient dials a FIX 4.4 counterparty, runs the logon handshake,
// and keeps the session alive (sequencing, heartbeats, resend handling)
// until it is told to disconnect or the counterparty stops responding.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcass77/WTFIX-sub000/config"
	"github.com/jcass77/WTFIX-sub000/dictionary"
	"github.com/jcass77/WTFIX-sub000/heartbeat"
	"github.com/jcass77/WTFIX-sub000/message"
	"github.com/jcass77/WTFIX-sub000/pipeline"
	"github.com/jcass77/WTFIX-sub000/sequence"
	"github.com/jcass77/WTFIX-sub000/session"
	"github.com/jcass77/WTFIX-sub000/store"
	"github.com/jcass77/WTFIX-sub000/transport"
	"github.com/jcass77/WTFIX-sub000/wire"
)

// Exit codes, per the engine's CLI surface: 0 clean logout, 1 fatal session
// error, 2 configuration error, 130 interrupted by signal.
const (
	exitOK        = 0
	exitFatal     = 1
	exitConfig    = 2
	exitInterrupt = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	interactive := flag.Bool("repl", false, "start an interactive REPL for manual order entry once logged in")
	flag.Parse()

	logger := log.New(os.Stderr, "fixclient: ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Printf("config: %v", err)
		return exitConfig
	}

	identity, err := session.NewIdentity(cfg.SenderCompID, cfg.TargetCompID, cfg.SessionIDFile)
	if err != nil {
		logger.Printf("session: %v", err)
		return exitConfig
	}

	groupTemplates, err := cfg.ParseGroupTemplates()
	if err != nil {
		logger.Printf("config: %v", err)
		return exitConfig
	}
	for _, spec := range groupTemplates {
		registerGroupTemplate(spec)
	}

	msgStore, err := openStore(cfg)
	if err != nil {
		logger.Printf("store: %v", err)
		return exitConfig
	}

	t, err := transport.Dial(cfg.Host, cfg.Port, "8="+cfg.BeginString, logger)
	if err != nil {
		logger.Printf("transport: %v", err)
		return exitFatal
	}
	defer t.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := msgStore.Initialize(ctx); err != nil {
		logger.Printf("store: initialize: %v", err)
		return exitFatal
	}
	defer msgStore.Finalize(ctx)

	// pl is assigned after construction: session.Manager and heartbeat.Monitor
	// need a Sender that delivers through the full pipeline (stamping,
	// archival, encoding), but the pipeline itself is built from those same
	// stages. The closure defers the pl.Send call until after pl exists,
	// which is guaranteed by the time either Manager's Start runs.
	var pl *pipeline.Pipeline
	pipelineSend := func(ctx context.Context, msg *message.Message) error {
		return pl.Send(ctx, msg)
	}

	// bypassSend writes directly to the transport, skipping the pipeline
	// entirely. sequence.Manager uses this for ResendRequests, GapFills, and
	// resent messages that it has already stamped itself - routing those
	// back through pl.Send would hand them to this same Manager a second
	// time and double-count the sequence number.
	bypassSend := func(ctx context.Context, msg *message.Message) error {
		raw, err := wire.Encode(msg)
		if err != nil {
			return err
		}
		return t.Send(raw)
	}

	seqMgr := sequence.NewManager(identity.UUID, cfg.SenderCompID, cfg.TargetCompID, msgStore, bypassSend, logger)
	sessionMgr := session.NewManager(identity, cfg.HeartbeatInterval, cfg.Username, cfg.Password, cfg.ResetSeqNums, cfg.TestMode, pipelineSend, logger)
	sessionMgr.HandshakeTimeout = cfg.HandshakeTimeout
	sessionMgr.OnSeqNumsReset = func() {
		seqMgr.ResetSendSeqNum(1)
		seqMgr.ResetRecvSeqNum(1)
	}
	heartbeatMon := heartbeat.NewMonitor(cfg.HeartbeatInterval, cfg.SenderCompID, cfg.TargetCompID, pipelineSend, logger)

	pl = pipeline.New(
		[]pipeline.Stage{seqMgr, sessionMgr, heartbeatMon},
		func(data []byte) error { return t.Send(data) },
		logger,
	)

	if err := pl.Initialize(ctx); err != nil {
		logger.Printf("pipeline: %v", err)
		return exitFatal
	}
	if err := pl.Start(ctx); err != nil {
		logger.Printf("pipeline: %v", err)
		return exitFatal
	}

	t.Settle()

	if err := sessionMgr.Start(ctx); err != nil {
		logger.Printf("session: %v", err)
		_ = pl.Stop(ctx)
		return exitFatal
	}

	readErrCh := make(chan error, 1)
	go func() {
		readErrCh <- t.Listen(func(data []byte) {
			if err := pl.Receive(ctx, data); err != nil {
				logger.Printf("pipeline: receive: %v", err)
			}
		})
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if *interactive {
		go runRepl(pl, cfg, logger)
	}

	exitCode := exitOK
	select {
	case <-sigCh:
		logger.Printf("interrupted, shutting down...")
		exitCode = exitInterrupt
	case <-heartbeatMon.NotResponding:
		logger.Printf("counterparty stopped responding, shutting down...")
		exitCode = exitFatal
	case err := <-readErrCh:
		if err != nil {
			logger.Printf("transport: %v", err)
			exitCode = exitFatal
		}
	}

	_ = sessionMgr.Stop(ctx)
	_ = pl.Stop(ctx)

	return exitCode
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreDSN == "" {
		return store.NewMemory(), nil
	}
	return store.NewDurable(cfg.StoreDSN)
}

// registerGroupTemplate converts a config.GroupTemplateSpec (and, recursively,
// its nested templates) into a dictionary.RegisterGroup call.
func registerGroupTemplate(spec config.GroupTemplateSpec) {
	dictionary.RegisterGroup(spec.IdentifierTag, spec.MsgType, spec.InstanceTags, nestedTemplates(spec.Nested))
}

func nestedTemplates(specs []config.GroupTemplateSpec) map[int]dictionary.GroupTemplate {
	if len(specs) == 0 {
		return nil
	}
	out := make(map[int]dictionary.GroupTemplate, len(specs))
	for _, s := range specs {
		out[s.IdentifierTag] = dictionary.GroupTemplate{
			IdentifierTag: s.IdentifierTag,
			InstanceTags:  s.InstanceTags,
			Nested:        nestedTemplates(s.Nested),
		}
	}
	return out
}
