package certmgr

import (
	"os"
	"path/filepath"
	"strings"
)

// AFUniqueID builds the flat, AS-visible certificate identifier from a
// Provisioning Session id and a certificate id scoped within it.
func AFUniqueID(provisioningSessionID, certificateID string) string {
	return provisioningSessionID + ":" + certificateID
}

// pemFilename derives a deterministic, filesystem-safe filename for an
// AF-unique identifier's PEM bytes. The colon separator is not safe on all
// filesystems, so it is replaced with a double underscore.
func pemFilename(afUniqueID string) string {
	return strings.ReplaceAll(afUniqueID, ":", "__") + ".pem"
}

// pemPath returns the full path certDir/pemFilename(afUniqueID).
func pemPath(certDir, afUniqueID string) string {
	return filepath.Join(certDir, pemFilename(afUniqueID))
}

// ensureDir creates certDir if it does not already exist.
func ensureDir(certDir string) error {
	return os.MkdirAll(certDir, 0o700)
}
