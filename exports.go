package streampay

import (
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/types"
)

// Re-export common types for convenience so users don't have to import the
// types and stream packages.

// Amount is re-exported from the types package.
type Amount = types.Amount

// Entity is re-exported from the types package.
type Entity = types.Entity

// Stream is re-exported from the stream package.
type Stream = stream.Stream

// ListOpts is re-exported from the stream package.
type ListOpts = stream.ListOpts

// MaxAmount is re-exported from the types package.
const MaxAmount = types.MaxAmount

// Re-export Entity constructor
var NewEntity = types.NewEntity
