// Package formscan recovers a navigable index from an opaque FORM-rooted
// chunked game archive without knowing the archive's real schema.
//
// The scan is purely heuristic: it locates the root container span, walks it
// byte-by-byte for tagged length-prefixed chunks, harvests NUL-terminated
// strings, finds embedded PNG / RIFF / Ogg byte ranges by signature, and
// pairs ranges with nearby strings to guess asset names. Results are
// deterministic for a given buffer and degrade gracefully on malformed
// input: invalid candidates are skipped, never fatal.
//
// # Quick Start
//
// Scan a buffer and read an asset:
//
//	data, err := os.ReadFile("data.win")
//	if err != nil {
//	    return err
//	}
//	idx, err := formscan.Scan(data)
//	if err != nil {
//	    return err
//	}
//	for _, img := range idx.Images() {
//	    raw, _ := idx.ReadBytes(img.Start, img.End)
//	    // raw is a complete PNG file
//	}
//
// # Background indexing
//
// [Indexer] runs scans on a worker goroutine with progress reporting.
// Starting a new scan supersedes the one in flight:
//
//	ix := formscan.NewIndexer(formscan.WithProgress(sink))
//	ix.RescanFile(ctx, "data.win")
//	idx, err := ix.Wait(ctx)
//
// # Materialization
//
// Indexing never decodes asset bytes. [Index.Image] decodes an image range
// on first use and memoizes the result; racing callers are deduplicated.
// Audio and chunk payloads are raw slices via [Index.ReadBytes].
package formscan
