package crypto

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/rafaelsistems/elara/pkg/wire"
)

// SecureFrameProcessor owns per-session keying material: the ratchet, the
// outbound sequence counter and the inbound replay window.
type SecureFrameProcessor struct {
	sessionID uint64
	nodeID    uint64

	mu      sync.Mutex
	ratchet *Ratchet
	seq     uint32
	replay  map[uint64]*ReplayWindow // keyed by peer (source) node id

	maxFrameSize int
}

// DecryptedFrame is the result of successfully opening a frame.
type DecryptedFrame struct {
	Header     wire.Header
	Extensions []wire.Extension
	Plaintext  []byte
}

// NewSecureFrameProcessor initializes ratchet state and an empty replay
// window table for a session.
func NewSecureFrameProcessor(sessionID, nodeID uint64, rootKey []byte, framesPerEpoch uint32, secondsPerEpoch time.Duration, maxFrameSize int) (*SecureFrameProcessor, error) {
	ratchet, err := NewRatchet(rootKey, framesPerEpoch, secondsPerEpoch)
	if err != nil {
		return nil, err
	}
	return &SecureFrameProcessor{
		sessionID:    sessionID,
		nodeID:       nodeID,
		ratchet:      ratchet,
		replay:       make(map[uint64]*ReplayWindow),
		maxFrameSize: maxFrameSize,
	}, nil
}

// EncryptFrame derives the current ratchet key, seals payload with
// ChaCha20-Poly1305 under a nonce built from (session, node, seq, epoch),
// and returns the fully serialized, canonical frame. Advances seq by 1.
func (p *SecureFrameProcessor) EncryptFrame(class wire.Class, profile wire.Profile, timeHint uint32, extensions []wire.Extension, payload []byte) ([]byte, error) {
	p.mu.Lock()
	seq := p.seq
	p.seq++
	key, epoch, err := p.ratchet.SealingKey()
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	header := wire.Header{
		Version:   wire.Version,
		Class:     class,
		Profile:   profile,
		SessionID: p.sessionID,
		NodeID:    p.nodeID,
		Seq:       seq,
		TimeHint:  timeHint,
	}

	allExts := append(append([]wire.Extension(nil), extensions...), epochExtension(epoch))
	frame := wire.Frame{Header: header, Extensions: allExts}
	aad := frame.AAD()

	nonce := BuildFrameNonce(p.sessionID, p.nodeID, seq, epoch)
	ciphertext, err := SealChaCha20Poly1305(key, nonce, payload, aad)
	if err != nil {
		return nil, err
	}
	frame.Ciphertext = ciphertext

	return frame.Serialize(p.maxFrameSize)
}

// DecryptFrame parses the frame, resolves the ratchet key for the epoch it
// advertises, checks replay, verifies the AEAD tag with header+extensions
// as AAD, and returns the plaintext.
func (p *SecureFrameProcessor) DecryptFrame(data []byte) (*DecryptedFrame, error) {
	frame, err := wire.Parse(data)
	if err != nil {
		return nil, err
	}

	epoch, err := frameEpoch(frame.Extensions)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	key, err := p.ratchet.OpeningKey(epoch)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	window, ok := p.replay[frame.Header.NodeID]
	if !ok {
		window = NewReplayWindow()
		p.replay[frame.Header.NodeID] = window
	}
	p.mu.Unlock()

	if !window.CheckAndAccept(frame.Header.Seq) {
		return nil, ErrReplayDetected
	}

	aad := frame.AAD()
	nonce := BuildFrameNonce(frame.Header.SessionID, frame.Header.NodeID, frame.Header.Seq, epoch)
	plaintext, err := OpenChaCha20Poly1305(key, nonce, frame.Ciphertext, aad)
	if err != nil {
		return nil, err
	}

	return &DecryptedFrame{Header: frame.Header, Extensions: frame.Extensions, Plaintext: plaintext}, nil
}

func epochExtension(epoch uint32) wire.Extension {
	var v [4]byte
	binary.BigEndian.PutUint32(v[:], epoch)
	return wire.Extension{Type: wire.ExtKeyEpoch, Value: v[:]}
}

func frameEpoch(exts []wire.Extension) (uint32, error) {
	for _, e := range exts {
		if e.Type == wire.ExtKeyEpoch && len(e.Value) == 4 {
			return binary.BigEndian.Uint32(e.Value), nil
		}
	}
	return 0, ErrRatchetOutOfSync
}
