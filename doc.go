// Package groupbuy runs group-buy order ledgers driven by chat messages.
//
// A coordinator opens one ledger per product. Members then raise or lower
// their own quantity on a ledger with short text commands such as "D1+2" or
// "D1-1#no ice". The engine keeps exactly one row per member and ledger,
// derives the row price from the quantity, deletes a row whose quantity
// reaches zero and refuses every write while the ledger is closed.
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/groupbuy"
//	    "github.com/xraph/groupbuy/store/sqlite"
//	)
//
//	s, err := sqlite.Open(ctx, "groupbuy.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	e := groupbuy.New(s, groupbuy.WithLogger(logger))
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop(ctx)
//
// # Core Concepts
//
// Ledgers are created by the coordinator and start OPEN:
//
//	l, err := e.CreateLedger(ctx, groupbuy.CreateLedgerInput{
//	    Title:     "D1",
//	    Product:   "Mango",
//	    UnitPrice: 100,
//	})
//
// Members apply signed deltas to their own row:
//
//	res, err := e.ApplyDelta(ctx, groupbuy.DeltaInput{
//	    Title:       "D1",
//	    MemberID:    userID,
//	    DisplayName: "Alice",
//	    Amount:      2,
//	})
//
// The command package turns chat text into these calls, the query package
// aggregates rows across ledgers and the reply package renders results. The
// bot package ties them together for one chat event.
//
// # Stores
//
// Ledgers and rows live behind store.Store. Memory, SQLite, PostgreSQL and
// MongoDB implementations are provided; the SQL and Mongo stores use Grove.
//
// # Concurrency
//
// Every mutation holds a per-ledger lock for its whole read-modify-write
// sequence and re-reads the ledger header before writing, so concurrent
// events on one ledger are serialized inside a process.
//
// # TypeID
//
// Ledgers and rows carry TypeIDs:
//
//	ldg_01h2xcejqtf2nbrexx3vqjhp41  // Ledger ID
//	ord_01h455vb4pex5vsknk084sn02q  // Order row ID
package groupbuy
