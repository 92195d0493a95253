// Package watch keeps notebooks on disk synchronized.
//
// SyncFile is the single-file operation shared with the CLI: parse,
// optionally track the origin signature, synchronize, and rewrite the file
// only when its lineage metadata changed. Because synchronize is
// idempotent, the watcher's own writes produce one more event that ends in
// no write, so there is no feedback loop.
//
// Watcher applies SyncFile to .ipynb files under a directory tree as they
// are saved, debouncing bursts of events per file. Hidden files and
// directories, including .ipynb_checkpoints, are ignored.
package watch
