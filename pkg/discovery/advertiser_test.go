package discovery

import (
	"net"
	"sync"
	"testing"
)

type fakeServer struct {
	shutdown bool
}

func (f *fakeServer) Shutdown() { f.shutdown = true }

type fakeServerFactory struct {
	mu       sync.Mutex
	registered []fakeRegistration
}

type fakeRegistration struct {
	instance, service, domain string
	port                      int
	txt                       []string
}

func (f *fakeServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, fakeRegistration{instance, service, domain, port, txt})
	return &fakeServer{}, nil
}

func TestAdvertiser_StartPublishesNodeTXT(t *testing.T) {
	factory := &fakeServerFactory{}
	a, err := NewAdvertiser(AdvertiserConfig{Port: 4097, ServerFactory: factory})
	if err != nil {
		t.Fatalf("NewAdvertiser: %v", err)
	}

	if err := a.Start(NodeTXT{NodeID: 0xAABBCCDD, ProtocolVersion: 1, DegradationHint: 0}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !a.IsAdvertising() {
		t.Fatal("expected IsAdvertising to be true")
	}

	factory.mu.Lock()
	defer factory.mu.Unlock()
	if len(factory.registered) != 1 {
		t.Fatalf("got %d registrations, want 1", len(factory.registered))
	}
	reg := factory.registered[0]
	if reg.service != ServiceNode || reg.port != 4097 {
		t.Fatalf("unexpected registration: %+v", reg)
	}
	if reg.txt[0] != "N=00000000AABBCCDD" {
		t.Fatalf("unexpected TXT[0]: %q", reg.txt[0])
	}
}

func TestAdvertiser_StartTwiceFails(t *testing.T) {
	a, _ := NewAdvertiser(AdvertiserConfig{ServerFactory: &fakeServerFactory{}})
	if err := a.Start(NodeTXT{NodeID: 1}); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := a.Start(NodeTXT{NodeID: 1}); err != ErrAlreadyStarted {
		t.Fatalf("err = %v, want ErrAlreadyStarted", err)
	}
}

func TestAdvertiser_StopWithoutStartFails(t *testing.T) {
	a, _ := NewAdvertiser(AdvertiserConfig{ServerFactory: &fakeServerFactory{}})
	if err := a.Stop(); err != ErrNotStarted {
		t.Fatalf("err = %v, want ErrNotStarted", err)
	}
}

func TestAdvertiser_CloseAfterClosedFails(t *testing.T) {
	a, _ := NewAdvertiser(AdvertiserConfig{ServerFactory: &fakeServerFactory{}})
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Close(); err != ErrClosed {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}
