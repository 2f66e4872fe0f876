// Package propdex provides an embedded client for the propdex property
// index: the same flattening, chunking, and hybrid retrieval pipeline the
// HTTP service runs, wired in-process against Redis or an in-memory store.
//
//	client, _ := propdex.New(ctx,
//	    propdex.WithRedis("localhost:6379", ""),
//	    propdex.WithEmbedder(embedder),
//	)
//	defer client.Close()
//
//	_, _ = client.IndexProperty(ctx, record)
//	hits, _ := client.Search(ctx, "quiet two bedroom near the river", propdex.SearchOptions{TopK: 5})
package propdex
