package groupbuy

import "github.com/xraph/groupbuy/id"

// ID is the primary identifier type for ledgers and order rows.
type ID = id.ID
