// elara-node is a minimal two-peer demonstration of the runtime loop: it
// spins up two in-process nodes joined to the same session over a pipe
// transport, optionally (with -advertise) advertises one of them over
// mDNS, exchanges a handful of
// chat messages, and prints presence/degradation updates as they arrive.
//
// Usage:
//
//	elara-node [options]
//
// Options:
//
//	-advertise  advertise node A over mDNS as it runs (default: false)
//	-duration   how long to run before shutting down (default: 5s)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/rafaelsistems/elara/pkg/config"
	"github.com/rafaelsistems/elara/pkg/crypto"
	"github.com/rafaelsistems/elara/pkg/discovery"
	"github.com/rafaelsistems/elara/pkg/id"
	"github.com/rafaelsistems/elara/pkg/logging"
	"github.com/rafaelsistems/elara/pkg/msp"
	"github.com/rafaelsistems/elara/pkg/node"
	"github.com/rafaelsistems/elara/pkg/state"
	"github.com/rafaelsistems/elara/pkg/transport"
)

type options struct {
	advertise bool
	duration  time.Duration
}

func parseFlags() options {
	var o options
	flag.BoolVar(&o.advertise, "advertise", false, "advertise node A over mDNS while running")
	flag.DurationVar(&o.duration, "duration", 5*time.Second, "how long to run before shutting down")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loggerFactory := logging.NewDefaultLoggerFactory()

	identityA, err := crypto.NewIdentity()
	if err != nil {
		log.Fatalf("create identity A: %v", err)
	}
	identityB, err := crypto.NewIdentity()
	if err != nil {
		log.Fatalf("create identity B: %v", err)
	}

	transportA, transportB := transport.NewPipeTransportPair(0)

	cfg := config.Config{}.WithDefaults()

	nodeA := node.New(identityA, cfg, transportA, node.Options{LoggerFactory: loggerFactory})
	nodeB := node.New(identityB, cfg, transportB, node.Options{LoggerFactory: loggerFactory})
	nodeA.Start()
	nodeB.Start()
	defer nodeA.Close()
	defer nodeB.Close()

	var advertiser *discovery.Manager
	if opts.advertise {
		advertiser, err = discovery.NewManager(discovery.ManagerConfig{
			LoggerFactory: loggerFactory,
		})
		if err != nil {
			log.Fatalf("create discovery manager: %v", err)
		}
		defer advertiser.Close()
		if err := advertiser.StartAdvertising(discovery.NodeTXT{
			NodeID:          uint64(nodeA.NodeID()),
			ProtocolVersion: 1,
			DegradationHint: uint8(id.L0FullPerception),
		}); err != nil {
			log.Fatalf("start advertising: %v", err)
		}
		log.Printf("node A advertising as %s", nodeA.NodeID())
	}

	sessionID := id.SessionId(1)
	rootKey := make([]byte, 32)
	for i := range rootKey {
		rootKey[i] = byte(i)
	}

	if err := nodeA.SessionOpen(sessionID, rootKey); err != nil {
		log.Fatalf("open session on A: %v", err)
	}
	if err := nodeB.SessionOpen(sessionID, rootKey); err != nil {
		log.Fatalf("open session on B: %v", err)
	}

	if err := nodeA.AddPeer(sessionID, nodeB.NodeID(), transportB.LocalAddr()); err != nil {
		log.Fatalf("add peer B on A: %v", err)
	}
	if err := nodeB.AddPeer(sessionID, nodeA.NodeID(), transportA.LocalAddr()); err != nil {
		log.Fatalf("add peer A on B: %v", err)
	}

	chatTarget := id.StateId{StateType: msp.TextChatStateType, Instance: 0}
	presenceCh, unsubPresence, err := nodeB.SubscribePresence(sessionID)
	if err != nil {
		log.Fatalf("subscribe presence on B: %v", err)
	}
	defer unsubPresence()
	degradationCh, unsubDegradation, err := nodeB.SubscribeDegradation(sessionID)
	if err != nil {
		log.Fatalf("subscribe degradation on B: %v", err)
	}
	defer unsubDegradation()
	fieldCh, unsubField, err := nodeB.SubscribeField(sessionID, chatTarget)
	if err != nil {
		log.Fatalf("subscribe chat field on B: %v", err)
	}
	defer unsubField()

	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		n := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n++
				text := fmt.Sprintf("hello #%d from A", n)
				if _, err := nodeA.SubmitEvent(sessionID, chatTarget, state.MutationOp{
					Kind:        state.MutationAppend,
					AppendValue: []byte(text),
				}, uint32(len(text))); err != nil {
					log.Printf("submit chat message: %v", err)
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-fieldCh:
				if !ok {
					return
				}
				log.Printf("B sees chat transcript: %q", string(snap.Append))
			case pv, ok := <-presenceCh:
				if !ok {
					return
				}
				log.Printf("B presence: liveness=%.2f immediacy=%.2f coherence=%.2f", pv.Liveness, pv.Immediacy, pv.Coherence)
			case lvl, ok := <-degradationCh:
				if !ok {
					return
				}
				log.Printf("B degradation changed: %s", lvl)
			}
		}
	}()

	timeout, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()
	<-timeout.Done()
	log.Println("shutting down")
}
