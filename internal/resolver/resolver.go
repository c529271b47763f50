// Package resolver turns batches of transcript IDs into protein sequences.
//
// The request/response shape follows the warehouse remote-function contract:
// each call record carries one transcript ID at index 0, and the reply list
// mirrors the call list position for position.
package resolver

import (
	"context"
	"fmt"
	"log"
	"sync"

	"rnaseq/internal/ensembl"
)

// Lookup resolves one normalized transcript ID. ok=false means the service
// had no sequence for the ID; err is a transport-level fault.
type Lookup interface {
	ProteinSequence(ctx context.Context, transcriptID string) (string, bool, error)
}

type Resolver struct {
	lookup      Lookup
	concurrency int
}

func New(lookup Lookup, concurrency int) *Resolver {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Resolver{lookup: lookup, concurrency: concurrency}
}

// ResolveBatch resolves every call's transcript ID. replies[i] is nil when
// calls[i] carries no ID, the lookup found nothing, or the lookup faulted —
// one bad item never aborts the batch. Lookups fan out up to the configured
// concurrency; each goroutine writes only its own index, so replies come
// back in call order.
//
// A record with no elements is a malformed batch and fails the whole call.
func (r *Resolver) ResolveBatch(ctx context.Context, calls [][]string) ([]*string, error) {
	replies := make([]*string, len(calls))

	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i, call := range calls {
		if len(call) == 0 {
			return nil, fmt.Errorf("call %d: record has no elements", i)
		}
		id := call[0]
		if id == "" {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()

			seq, ok, err := r.lookup.ProteinSequence(ctx, ensembl.NormalizeTranscriptID(id))
			if err != nil {
				// Degrade to no-sequence, same as a non-2xx answer.
				log.Printf("resolver: lookup %s failed: %v", id, err)
				return
			}
			if !ok {
				return
			}
			replies[i] = &seq
		}(i, id)
	}

	wg.Wait()
	return replies, nil
}
