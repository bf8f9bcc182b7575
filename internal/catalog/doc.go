// Package catalog provides a SQLite-backed record of generation runs.
//
// Each generate invocation that asks for cataloging becomes one run row
// plus one descriptor row per compiled container. The catalog is an
// append-only history: rows are never updated, and queries order by
// recorded time so the newest run wins.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: descriptors must reference a recorded run
package catalog
