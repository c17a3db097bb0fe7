package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func newTestSealer(t *testing.T, passphrase, context string) *Sealer {
	t.Helper()
	s, err := NewSealer(passphrase, context)
	if err != nil {
		t.Fatalf("NewSealer failed: %v", err)
	}
	return s
}

func TestSealer_SealOpen(t *testing.T) {
	s := newTestSealer(t, "correct horse battery staple", "cob")

	plaintext := []byte("Hello, World! This is a test record.")

	sealed, err := s.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("sealed data should not contain the plaintext")
	}
	if len(sealed) != 1+NonceSize+len(plaintext)+16 {
		t.Errorf("unexpected sealed length %d", len(sealed))
	}

	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("opened text mismatch: got %q, want %q", opened, plaintext)
	}
}

func TestSealer_Deterministic(t *testing.T) {
	a := newTestSealer(t, "passphrase", "cob")
	b := newTestSealer(t, "passphrase", "cob")

	first, err := a.Seal([]byte("same record"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Seal([]byte("same record"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("equal plaintexts should seal to equal blobs")
	}

	other, err := a.Seal([]byte("other record"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(first[1:1+NonceSize], other[1:1+NonceSize]) {
		t.Error("different plaintexts should use different nonces")
	}
}

func TestSealer_EmptyPlaintext(t *testing.T) {
	s := newTestSealer(t, "passphrase", "cob")

	sealed, err := s.Seal(nil)
	if err != nil {
		t.Fatal(err)
	}
	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatal(err)
	}
	if len(opened) != 0 {
		t.Errorf("expected empty plaintext, got %q", opened)
	}
}

func TestSealer_WrongKey(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		context    string
	}{
		{"other passphrase", "wrong", "cob"},
		{"other context", "passphrase", "alice"},
	}

	sealed, err := newTestSealer(t, "passphrase", "cob").Seal([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestSealer(t, tt.passphrase, tt.context).Open(sealed)
			if !errors.Is(err, ErrDecryptionFailed) {
				t.Errorf("expected ErrDecryptionFailed, got %v", err)
			}
		})
	}
}

func TestSealer_Tampered(t *testing.T) {
	s := newTestSealer(t, "passphrase", "cob")
	sealed, err := s.Seal([]byte("secret record"))
	if err != nil {
		t.Fatal(err)
	}

	flipped := bytes.Clone(sealed)
	flipped[len(flipped)-1] ^= 0xff
	if _, err := s.Open(flipped); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}

	versioned := bytes.Clone(sealed)
	versioned[0] = 9
	if _, err := s.Open(versioned); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("expected ErrUnknownVersion, got %v", err)
	}

	if _, err := s.Open(sealed[:10]); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("expected ErrCiphertextTooShort, got %v", err)
	}
}

func TestNewSealer_EmptyPassphrase(t *testing.T) {
	if _, err := NewSealer("", "cob"); !errors.Is(err, ErrEmptyPassphrase) {
		t.Errorf("expected ErrEmptyPassphrase, got %v", err)
	}
}
