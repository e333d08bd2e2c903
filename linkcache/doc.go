// Package linkcache rewrites exported chat JSON so that media URLs point at a
// local, content-addressed copy of the same content.
//
// The pipeline is built from four pieces, leaves first:
//   - Resolver: canonicalizes a captured URL, downloads it at most once into
//     content/<3 hex>/<37 hex>[.ext] and returns the replacement text
//   - Rewriter: a LineProcessor that finds quoted "field": "url" pairs for the
//     configured hosts and splices in the Resolver's output
//   - StreamProcessor: streams a file line by line through any LineProcessor
//   - Driver: enumerates the data tree and runs the StreamProcessor per file
//
// The cache directory is the only shared state. A cache slot is claimed by
// creating its file with O_EXCL; whoever loses the race (or runs later) sees
// fs.ErrExist and treats the URL as cached. Nothing else locks the cache, so
// several processes or Driver jobs may share one cache directory.
package linkcache
