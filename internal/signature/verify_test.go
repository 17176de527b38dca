package signature

import (
	"errors"
	"testing"
)

func TestVerify(t *testing.T) {
	secret := "test-secret-key"
	body := []byte(`[{"id":"e1","timestamp":1700000000}]`)

	tests := []struct {
		name      string
		body      []byte
		signature string
		secret    string
		wantErr   error
	}{
		{
			name:      "valid signature - plain hex",
			body:      body,
			signature: HexDigest(body, secret),
			secret:    secret,
			wantErr:   nil,
		},
		{
			name:      "valid signature - sha1 prefix",
			body:      body,
			signature: "sha1=" + HexDigest(body, secret),
			secret:    secret,
			wantErr:   nil,
		},
		{
			name:      "valid signature - base64",
			body:      body,
			signature: Base64Digest(body, secret),
			secret:    secret,
			wantErr:   nil,
		},
		{
			name:      "invalid signature - wrong digest",
			body:      body,
			signature: "0000000000000000000000000000000000000000",
			secret:    secret,
			wantErr:   ErrMismatch,
		},
		{
			name:      "invalid signature - tampered body",
			body:      []byte(`[{"id":"e2","timestamp":1700000000}]`),
			signature: HexDigest(body, secret),
			secret:    secret,
			wantErr:   ErrMismatch,
		},
		{
			name:      "invalid signature - wrong secret",
			body:      body,
			signature: HexDigest(body, secret),
			secret:    "wrong-secret",
			wantErr:   ErrMismatch,
		},
		{
			name:      "invalid signature - signed with different encoding of wrong digest",
			body:      body,
			signature: Base64Digest(body, "wrong-secret"),
			secret:    secret,
			wantErr:   ErrMismatch,
		},
		{
			name:      "missing signature header",
			body:      body,
			signature: "",
			secret:    secret,
			wantErr:   ErrMissingSignature,
		},
		{
			name:      "missing secret",
			body:      body,
			signature: HexDigest(body, secret),
			secret:    "",
			wantErr:   ErrMissingSecret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.body, tt.signature, tt.secret)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCandidatesAreDistinct(t *testing.T) {
	body := []byte("payload")
	secret := "s"

	hexSig := HexDigest(body, secret)
	b64Sig := Base64Digest(body, secret)

	if hexSig == b64Sig {
		t.Fatalf("hex and base64 encodings should differ: %q", hexSig)
	}
	if len(hexSig) != 40 {
		t.Errorf("SHA-1 hex digest length = %d, want 40", len(hexSig))
	}
}
