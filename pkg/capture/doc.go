// Package capture implements interactive capture sessions: a stateful
// engine that tracks the operator's active browser tab, persists numbered
// artifacts (text captures and downloaded images) with collision-safe
// numbering, and supports undoing the most recent save.
//
// # Architecture
//
// The package is built around three pieces:
//
//  1. Allocator: hands out zero-padded sequence numbers for one artifact
//     kind, recovering its counter from the output directory at startup.
//  2. Session: the per-run state — allocators, duplicate sets, index
//     files — with save/undo operations for text and images.
//  3. Loop: a blocking read-eval command loop (save, undo, check, view,
//     list, next, prev, copy, image, leave, exit) over a Session.
//
// Tab tracking lives in the nested browser package; the session only sees
// its Tracker.
//
// # Durability
//
// Counters and duplicate sets are never persisted on their own. They are
// re-derived at startup from the artifact directories and the index files,
// so the only state that matters is the output tree itself. Saves write
// the artifact before appending the index, bounding the crash window to
// "artifact exists but not yet indexed", which the startup scan absorbs.
package capture
