// Package signature authenticates webhook deliveries via HMAC-SHA1.
//
// The upstream sender signs the raw request body and puts the digest in a
// header, but is not consistent about the encoding: deployments in the wild
// send plain hex, "sha1="-prefixed hex (GitHub style), or base64 of the raw
// digest bytes. Rather than guessing which one a given delivery uses, the
// verifier computes all accepted encodings of the expected digest and compares
// each against the header value in constant time. Normalizing the header to a
// single encoding first would be simpler but risks introducing a decode-path
// timing or correctness bug, so every candidate is compared independently.
package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

var (
	// ErrMissingSecret indicates a server-side misconfiguration: no shared
	// secret is configured, so no delivery can be authenticated. Fail closed.
	ErrMissingSecret = errors.New("webhook secret is not configured")

	// ErrMissingSignature indicates the delivery carried no signature header.
	ErrMissingSignature = errors.New("signature header is missing")

	// ErrMismatch indicates the provided signature matched none of the
	// accepted encodings of the expected digest.
	ErrMismatch = errors.New("signature mismatch")
)

// Verify checks provided against the HMAC-SHA1 of body under secret.
//
// body must be the exact bytes received on the wire, not a re-serialization
// of the parsed payload: JSON re-encoding is not guaranteed to reproduce
// byte-identical output.
func Verify(body []byte, provided, secret string) error {
	if secret == "" {
		return ErrMissingSecret
	}
	if provided == "" {
		return ErrMissingSignature
	}

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	digest := mac.Sum(nil)

	// Compare every candidate; no early exit on the first match would leak
	// anything, but keeping each comparison constant-time matters.
	matched := false
	for _, candidate := range candidates(digest) {
		if subtle.ConstantTimeCompare([]byte(provided), []byte(candidate)) == 1 {
			matched = true
		}
	}
	if !matched {
		return ErrMismatch
	}
	return nil
}

// candidates returns the accepted wire encodings of a digest.
func candidates(digest []byte) []string {
	hexDigest := hex.EncodeToString(digest)
	return []string{
		hexDigest,
		"sha1=" + hexDigest,
		base64.StdEncoding.EncodeToString(digest),
	}
}

// HexDigest returns the hex-encoded HMAC-SHA1 of body under secret.
// Used by tests and by operators reproducing a sender's signature.
func HexDigest(body []byte, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Base64Digest returns the base64-encoded HMAC-SHA1 of body under secret.
func Base64Digest(body []byte, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
