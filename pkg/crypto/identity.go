package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/rafaelsistems/elara/pkg/id"
)

// Identity is a node's long-lived Ed25519 signing keypair.
//
// Identity signs authority proofs attached to events; it is not
// used for per-frame AEAD integrity, which is keyed off the session ratchet
// instead.
type Identity struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// NewIdentity generates a fresh Ed25519 identity.
func NewIdentity() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate identity: %w", err)
	}
	return &Identity{public: pub, private: priv}, nil
}

// NewIdentityFromSeed reconstructs an identity from a 32-byte seed, for
// embedders that persist identity material themselves ("Identity
// key material may be persisted by the embedder").
func NewIdentityFromSeed(seed []byte) (*Identity, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("crypto: identity seed must be %d bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Identity{public: priv.Public().(ed25519.PublicKey), private: priv}, nil
}

// PublicKey returns the raw 32-byte Ed25519 public key.
func (id *Identity) PublicKey() ed25519.PublicKey {
	return id.public
}

// Sign produces a detached signature over message, used for authority proofs.
func (id *Identity) Sign(message []byte) []byte {
	return ed25519.Sign(id.private, message)
}

// NodeID derives this identity's stable node id from its public key: the
// first 8 bytes of SHA-256(public key), big-endian. Identity persists
// across session/transport reinitialization because it is derived from key
// material, never assigned by a transport or session layer.
func (i *Identity) NodeID() id.NodeId {
	return DeriveNodeID(i.public)
}

// DeriveNodeID derives a NodeId from a raw Ed25519 public key.
func DeriveNodeID(publicKey ed25519.PublicKey) id.NodeId {
	digest := SHA256(publicKey)
	return id.NodeId(binary.BigEndian.Uint64(digest[:8]))
}

// Verify checks a detached signature against a raw public key.
func Verify(publicKey ed25519.PublicKey, message, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(publicKey, message, signature)
}
