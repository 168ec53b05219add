package codes

import "crypto/rand"

// Alphabet excludes visually confusable glyphs (I, O, 0, 1) so codes survive
// human transcription and printed QR labels.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	// InviteCodeLength is the event-level join code size.
	InviteCodeLength = 8
	// ShortCodeLength is the invitation-level code size.
	ShortCodeLength = 6
)

// MaxAttempts bounds the generate-and-check collision loop callers run
// against the store.
const MaxAttempts = 10

// New returns a random code of length n drawn from Alphabet. Collision
// avoidance is the caller's job.
func New(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	for i := range b {
		b[i] = Alphabet[int(b[i])%len(Alphabet)]
	}
	return string(b)
}

// NewInviteCode returns an 8-character event invite code.
func NewInviteCode() string {
	return New(InviteCodeLength)
}

// NewShortCode returns a 6-character invitation short code.
func NewShortCode() string {
	return New(ShortCodeLength)
}
