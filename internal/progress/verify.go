package progress

import (
	"time"

	"github.com/pro-xee/editor-dojo/internal/integrity"
)

// VerificationStatus classifies how far a stored result could be trusted.
// It is derived on demand, never stored.
type VerificationStatus int

const (
	// Legacy entries predate signing and carry no signature.
	Legacy VerificationStatus = iota
	// Unverified entries have a signature but lack the fields needed to
	// re-run the check.
	Unverified
	// Verified entries have a valid signature and, when a recording is
	// present, a matching recording hash.
	Verified
	// SignatureFailed entries have a signature that does not match the
	// stored fields.
	SignatureFailed
	// RecordingHashFailed entries have a valid signature but a recording
	// file whose content no longer matches the stored hash.
	RecordingHashFailed
)

func (v VerificationStatus) String() string {
	switch v {
	case Legacy:
		return "legacy"
	case Unverified:
		return "unverified"
	case Verified:
		return "verified"
	case SignatureFailed:
		return "signature failed"
	case RecordingHashFailed:
		return "recording hash failed"
	default:
		return "unknown"
	}
}

// Verify re-runs the signature and recording-hash checks for one stats
// entry. recordingPath is the live recording file, or empty when none is
// expected; then a valid signature alone is sufficient.
func Verify(signer *integrity.Signer, stats *ChallengeStats, recordingPath string) VerificationStatus {
	if stats.Signature == "" {
		return Legacy
	}
	if stats.BestTimeSecs == nil || stats.LastAttemptedAt == nil {
		return Unverified
	}

	strokes := 0
	if stats.BestKeystrokes != nil {
		strokes = *stats.BestKeystrokes
	}
	timeMs := *stats.BestTimeSecs * 1000
	timestamp := stats.LastAttemptedAt.UTC().Format(time.RFC3339)

	if !signer.Verify(stats.ChallengeID, strokes, timeMs, timestamp, stats.RecordingHash, stats.Signature) {
		return SignatureFailed
	}
	if recordingPath == "" {
		return Verified
	}
	ok, err := integrity.VerifyFileHash(recordingPath, stats.RecordingHash)
	if err != nil || !ok {
		return RecordingHashFailed
	}
	return Verified
}
