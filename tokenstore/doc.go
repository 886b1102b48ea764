// Package tokenstore keeps the access and refresh tokens of a client session.
//
// Storage is a convenience, not a correctness requirement: every Storage
// method absorbs backend failures (they are logged) and a session simply
// behaves as signed out when nothing could be read. Two variants exist:
//
//   - Memory keeps both slots in process memory.
//   - Durable writes through a Backend (file, SQLite or Redis) so the session
//     survives restarts and is shared by every process using the same backend.
//
// New selects the variant once from Config and falls back to Memory when the
// durable backend cannot be opened.
package tokenstore
