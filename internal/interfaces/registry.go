package interfaces

import (
	"context"

	"github.com/raysh454/textmark/internal/model"
)

// HighlightRegistry is the narrow contract for a named highlight registry:
// the host facility that renders published highlight sets. textmark never
// paints anything itself; it only computes sets and publishes them here.
//
// Implementations: registry.Memory (process-wide, in-memory),
// browser.Registry (CSS.highlights in a Chrome tab) and the recording
// double in testutil.
type HighlightRegistry interface {
	// Supported reports whether the host exposes a named highlight registry
	// at all. Callers check it before doing any work.
	Supported(ctx context.Context) bool

	// Set publishes set under name, replacing whatever was there before.
	// Other names are not affected.
	Set(ctx context.Context, name string, set model.HighlightSet) error

	// Clear removes every name from the registry. Clearing an empty
	// registry succeeds.
	Clear(ctx context.Context) error
}
