package wire

import (
	"bytes"
	"testing"
)

func sampleFrame() Frame {
	return Frame{
		Header: Header{
			Version:   Version,
			Class:     ClassCore,
			Profile:   ProfileTextual,
			SessionID: 1,
			NodeID:    2,
			Seq:       3,
			TimeHint:  4,
		},
		Extensions: []Extension{
			{Type: ExtKeyEpoch, Value: []byte{0, 0, 0, 1}},
		},
		Ciphertext: bytes.Repeat([]byte{0xAB}, 32+AuthTagSize),
	}
}

func TestFrameSerializeParseRoundTrip(t *testing.T) {
	f := sampleFrame()
	raw, err := f.Serialize(MaxFrameSize)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got.Header.SessionID != f.Header.SessionID || got.Header.NodeID != f.Header.NodeID {
		t.Fatalf("header mismatch: %+v", got.Header)
	}
	if !got.Header.Flags.Has(FlagExtension) {
		t.Fatal("expected EXTENSION flag to be set")
	}
	if len(got.Extensions) != 1 || got.Extensions[0].Type != ExtKeyEpoch {
		t.Fatalf("extensions mismatch: %+v", got.Extensions)
	}
	if !bytes.Equal(got.Ciphertext, f.Ciphertext) {
		t.Fatal("ciphertext mismatch")
	}
}

func TestFrameSerializeIsCanonical(t *testing.T) {
	f1 := sampleFrame()
	f2 := sampleFrame()
	f2.Extensions = []Extension{f2.Extensions[0]} // same single extension

	b1, err := f1.Serialize(MaxFrameSize)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := f2.Serialize(MaxFrameSize)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatal("serialize is not canonical for identical frames")
	}
}

func TestSerialize_ExceedsMaxFrameSize(t *testing.T) {
	f := sampleFrame()
	f.Ciphertext = make([]byte, MaxFrameSize)
	_, err := f.Serialize(MaxFrameSize)
	if err != ErrFrameTooLarge {
		t.Fatalf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestParse_ResidualSmallerThanAuthTagFails(t *testing.T) {
	f := sampleFrame()
	f.Ciphertext = make([]byte, AuthTagSize-1)
	raw, err := f.Serialize(0)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Parse(raw)
	if err != ErrInvalidWireFormat {
		t.Fatalf("err = %v, want ErrInvalidWireFormat", err)
	}
}

func TestParse_ExtensionLengthOvershootFails(t *testing.T) {
	f := sampleFrame()
	raw, err := f.Serialize(0)
	if err != nil {
		t.Fatal(err)
	}
	// Corrupt the extension_length field (last 2 bytes of the fixed header)
	// to claim far more extension bytes than are actually present.
	raw[28] = 0xFF
	raw[29] = 0xFF
	_, err = Parse(raw)
	if err != ErrInvalidWireFormat {
		t.Fatalf("err = %v, want ErrInvalidWireFormat", err)
	}
}

func TestFrameAAD_CoversHeaderAndExtensions(t *testing.T) {
	f := sampleFrame()
	aad := f.AAD()
	wantLen := HeaderSize + len(encodeExtensions(f.Extensions))
	if len(aad) != wantLen {
		t.Fatalf("AAD length = %d, want %d", len(aad), wantLen)
	}
}
