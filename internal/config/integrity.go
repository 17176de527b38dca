package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// VerifySidecarChecksum checks the config file against an optional sidecar
// checksum file at <path>.sha containing the BLAKE3 hex digest of the config
// bytes (first whitespace-separated token, so "digest  filename" output from
// tooling works too). A missing sidecar skips the check; a present sidecar
// that does not match refuses startup, since a silently edited config could
// swap the webhook secret or the store path.
func VerifySidecarChecksum(path string, data []byte) error {
	sidecar := path + ".sha"
	raw, err := os.ReadFile(sidecar)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read checksum file %s: %w", sidecar, err)
	}

	expected := strings.Fields(string(raw))
	if len(expected) == 0 {
		return fmt.Errorf("checksum file %s is empty", sidecar)
	}

	sum := blake3.Sum256(data)
	actual := hex.EncodeToString(sum[:])
	if !strings.EqualFold(expected[0], actual) {
		return fmt.Errorf("config integrity check failed for %s: expected %s, got %s\n"+
			"Hint: regenerate %s after intentional config edits", path, expected[0], actual, sidecar)
	}
	return nil
}

// WriteSidecarChecksum writes the BLAKE3 digest of the config file to the
// sidecar, authorizing the current contents.
func WriteSidecarChecksum(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	sum := blake3.Sum256(data)
	sidecar := path + ".sha"
	content := hex.EncodeToString(sum[:]) + "  " + path + "\n"
	if err := os.WriteFile(sidecar, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write checksum file %s: %w", sidecar, err)
	}
	return nil
}
