package job

import "sort"

// Merge combines a previously accumulated snapshot with a freshly fetched
// one for the same job.
//
// Scalar fields come from incoming verbatim: the backend is the source of
// truth for status, progress and timestamps. Chunks are the union of both
// sides keyed by Index, sorted ascending; a chunk present after poll N can
// never disappear after poll N+1. On an index collision the incoming chunk
// wins (the backend may re-emit a chunk with refined text).
//
// Merge is pure: it never mutates its arguments, and re-applying the same
// incoming snapshot is a no-op beyond the first application, so a duplicated
// poll response is harmless.
func Merge(prev, incoming *Snapshot) *Snapshot {
	if incoming == nil {
		return prev
	}

	out := *incoming
	out.Chunks = mergeChunks(prevChunks(prev), incoming.Chunks)
	return &out
}

func prevChunks(prev *Snapshot) []Chunk {
	if prev == nil {
		return nil
	}
	return prev.Chunks
}

func mergeChunks(prev, incoming []Chunk) []Chunk {
	merged := make(map[int]Chunk, len(prev)+len(incoming))
	for _, c := range prev {
		merged[c.Index] = c
	}
	for _, c := range incoming {
		merged[c.Index] = c
	}

	out := make([]Chunk, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	sortChunks(out)
	return out
}

func sortChunks(chunks []Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Index < chunks[j].Index
	})
}
