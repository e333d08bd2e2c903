// Package util provides the filesystem building blocks of linkcache.
//
// Directory Enumeration:
//   - Walker lists regular files below a root lazily, holding one open
//     directory cursor per level and a bounded batch of entries per cursor
//   - Symlinks and special files are skipped; per-entry errors are yielded
//     and traversal can continue with the siblings
//   - CountFiles is a tolerant walk used by the count command
//
// Content Addressing:
//   - SHA-1 hex digests of canonical URLs
//   - Cache paths of the form <3 hex>/<37 hex>[.ext], with extensions of at
//     most MaxExtensionLength bytes
//   - IsCachePath validates existing cache entries
//
// Errors:
//   - Sentinel kinds (ErrFileSystem, ErrDecode, ErrURLParse, ErrNetwork,
//     ErrWrite) wrapped together with their cause, checked with errors.Is
package util
