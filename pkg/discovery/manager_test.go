package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

type fakeResolver struct {
	entries []*zeroconf.ServiceEntry
}

func (f *fakeResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	for _, e := range f.entries {
		select {
		case entries <- e:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func TestManager_StartStopAdvertising(t *testing.T) {
	m, err := NewManager(ManagerConfig{ServerFactory: &fakeServerFactory{}})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer m.Close()

	if m.IsAdvertising() {
		t.Fatal("expected not advertising initially")
	}
	if err := m.StartAdvertising(NodeTXT{NodeID: 42, ProtocolVersion: 1}); err != nil {
		t.Fatalf("StartAdvertising: %v", err)
	}
	if !m.IsAdvertising() {
		t.Fatal("expected advertising after Start")
	}
	if err := m.StopAdvertising(); err != nil {
		t.Fatalf("StopAdvertising: %v", err)
	}
	if m.IsAdvertising() {
		t.Fatal("expected not advertising after Stop")
	}
}

func TestManager_BrowseDecodesNodeTXT(t *testing.T) {
	resolver := &fakeResolver{entries: []*zeroconf.ServiceEntry{
		{
			ServiceRecord: zeroconf.ServiceRecord{Instance: "ABCDEF0123456789", Service: ServiceNode, Domain: DefaultDomain},
			HostName:      "peer.local.",
			Port:          4097,
			AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
			Text:          []string{"N=000000000000002A", "V=1", "D=2"},
		},
	}}

	m, err := NewManager(ManagerConfig{ServerFactory: &fakeServerFactory{}, MDNSResolver: resolver, BrowseTimeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer m.Close()

	results, err := m.Browse(context.Background())
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}

	select {
	case node := <-results:
		if node.NodeID != 42 {
			t.Errorf("NodeID = %d, want 42", node.NodeID)
		}
		if node.ProtocolVersion != 1 {
			t.Errorf("ProtocolVersion = %d, want 1", node.ProtocolVersion)
		}
		if node.DegradationHint != 2 {
			t.Errorf("DegradationHint = %d, want 2", node.DegradationHint)
		}
		if node.PreferredIP() == nil {
			t.Error("expected a preferred IP")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for browse result")
	}
}

func TestManager_CloseIsIdempotentError(t *testing.T) {
	m, err := NewManager(ManagerConfig{ServerFactory: &fakeServerFactory{}})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != ErrClosed {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}
