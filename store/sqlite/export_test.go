package sqlite

// Insert helpers without the existence pre-check, for exercising the
// constraint path a concurrent writer would hit.
var (
	InsertLedger = (*Store).insertLedger
	InsertRow    = (*Store).insertRow
)
