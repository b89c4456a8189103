package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SystemRootID is the fixed well-known identifier of the process-level system
// root anchor. It is created on first use and read thereafter.
const SystemRootID = "n:root:000000000000000000000000"

// Anchor is a persisted identity-root record in the execution store. The
// shape of the graph beneath an anchor belongs to the execution runtime; this
// layer only stores the root records dispatch is scoped against.
type Anchor struct {
	ID          string    `json:"id"`
	IsRoot      bool      `json:"is_root"`
	Access      string    `json:"access"`
	Edges       []string  `json:"edges"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewAnchorID mints an identifier for a user root anchor.
func NewAnchorID() string {
	return "n:root:" + uuid.NewString()
}

// DeriveContentHash computes the anchor's content hash over its identity,
// access and edge set. Timestamps and the stored hash itself are excluded so
// re-derivation is stable.
func DeriveContentHash(a *Anchor) string {
	edges, _ := json.Marshal(a.Edges)
	sum := sha256.Sum256([]byte(a.ID + "|" + a.Access + "|" + string(edges)))
	return hex.EncodeToString(sum[:])
}

// AnchorStore exposes storage operations for identity root anchors.
type AnchorStore interface {
	// EnsureSystemRoot bootstraps the canonical system root record if it is
	// absent and returns it. Calling it when the record exists is a plain
	// read.
	EnsureSystemRoot(ctx context.Context) (*Anchor, error)

	GetAnchor(ctx context.Context, id string) (*Anchor, bool, error)
	SaveAnchor(ctx context.Context, anchor *Anchor) error

	Close() error
}

var _ AnchorStore = (*SQLiteStore)(nil)
