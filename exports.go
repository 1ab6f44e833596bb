package groupbuy

import "github.com/xraph/groupbuy/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Re-export Money constructors
var (
	TWD  = types.TWD
	Zero = types.Zero
	Sum  = types.Sum
)
