package crypto

import (
	"encoding/binary"
	"sync"
	"time"
)

// ratchetInfo is the fixed HKDF info label for epoch key derivation.
var ratchetInfo = []byte("elara-ratchet-epoch")

// RetainedEpochs is the number of prior ratchet epochs a receiver keeps
// live, so frames from a sender that has already advanced can still be
// opened while reordered or delayed frames from the previous epoch arrive.
// Four epochs tolerates delay or reordering spanning several epoch
// boundaries without forcing a resync.
const RetainedEpochs = 4

// Ratchet derives per-epoch AEAD keys from a session root key and decides
// when to advance to a new epoch.
//
// An epoch advances when either ratchetFramesPerEpoch frames have been
// sealed under it, or ratchetSecondsPerEpoch have elapsed since it began,
// whichever comes first.
type Ratchet struct {
	mu sync.Mutex

	rootKey []byte
	epoch   uint32

	framesPerEpoch   uint32
	secondsPerEpoch  time.Duration
	framesThisEpoch  uint32
	epochStartedAt   time.Time

	// keys caches derived keys for [epoch-RetainedEpochs, epoch].
	keys map[uint32][]byte
}

// NewRatchet initializes ratchet state at epoch 0 from a 32-byte root key.
func NewRatchet(rootKey []byte, framesPerEpoch uint32, secondsPerEpoch time.Duration) (*Ratchet, error) {
	if len(rootKey) != SymmetricKeySize {
		return nil, ErrInvalidKeySize
	}
	r := &Ratchet{
		rootKey:         append([]byte(nil), rootKey...),
		framesPerEpoch:  framesPerEpoch,
		secondsPerEpoch: secondsPerEpoch,
		epochStartedAt:  time.Now(),
		keys:            make(map[uint32][]byte),
	}
	if _, err := r.keyForEpochLocked(0); err != nil {
		return nil, err
	}
	return r, nil
}

// deriveEpochKey runs HKDF over the root key, salted by the epoch number,
// to produce a fresh 32-byte AEAD key per epoch.
func (r *Ratchet) deriveEpochKey(epoch uint32) ([]byte, error) {
	var salt [4]byte
	binary.LittleEndian.PutUint32(salt[:], epoch)
	return HKDFSHA256(r.rootKey, salt[:], ratchetInfo, SymmetricKeySize)
}

func (r *Ratchet) keyForEpochLocked(epoch uint32) ([]byte, error) {
	if key, ok := r.keys[epoch]; ok {
		return key, nil
	}
	key, err := r.deriveEpochKey(epoch)
	if err != nil {
		return nil, err
	}
	r.keys[epoch] = key
	r.pruneLocked()
	return key, nil
}

// pruneLocked drops cached keys for epochs older than RetainedEpochs below
// the current epoch, bounding memory regardless of session lifetime.
func (r *Ratchet) pruneLocked() {
	floor := int64(r.epoch) - int64(RetainedEpochs)
	for e := range r.keys {
		if int64(e) < floor {
			delete(r.keys, e)
		}
	}
}

// CurrentEpoch returns the sender's active epoch number.
func (r *Ratchet) CurrentEpoch() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch
}

// SealingKey returns the key to seal the next frame under, advancing the
// epoch first if the frame or time budget for the current epoch is spent.
func (r *Ratchet) SealingKey() (key []byte, epoch uint32, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.framesThisEpoch >= r.framesPerEpoch || time.Since(r.epochStartedAt) >= r.secondsPerEpoch {
		r.epoch++
		r.framesThisEpoch = 0
		r.epochStartedAt = time.Now()
	}

	key, err = r.keyForEpochLocked(r.epoch)
	if err != nil {
		return nil, 0, err
	}
	r.framesThisEpoch++
	return key, r.epoch, nil
}

// OpeningKey returns the key for a frame advertising the given epoch.
// Returns ErrRatchetOutOfSync if epoch is below the lowest retained epoch.
// An epoch ahead of the current one is adopted as the new current epoch,
// however far ahead it is.
func (r *Ratchet) OpeningKey(epoch uint32) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lowest := int64(r.epoch) - int64(RetainedEpochs)
	if lowest < 0 {
		lowest = 0
	}
	if int64(epoch) < lowest {
		return nil, ErrRatchetOutOfSync
	}
	if epoch > r.epoch {
		// A sender's epoch has advanced ahead of what we've observed; adopt
		// it as the new current epoch so future frames stay in sync.
		r.epoch = epoch
		r.framesThisEpoch = 0
		r.epochStartedAt = time.Now()
	}
	return r.keyForEpochLocked(epoch)
}
