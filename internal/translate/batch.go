package translate

import (
	"context"
	"fmt"
	"sync"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 3
)

// BatchTranslator sends items to the model in batches of BatchSize, with at
// most Concurrency requests in flight. The first failing batch cancels the
// ones still waiting.
type BatchTranslator struct {
	model   completer
	options Options
}

var _ Translator = (*BatchTranslator)(nil)

func newBatchTranslator(model completer, opts Options) *BatchTranslator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &BatchTranslator{model: model, options: opts}
}

// Translate returns the results ordered like items.
func (t *BatchTranslator) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	batches := split(items, t.options.BatchSize)
	if len(batches) == 0 {
		return []TranslationResult{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan int, len(batches))
	for i := range batches {
		queue <- i
	}
	close(queue)

	var (
		done     = make([][]TranslationResult, len(batches))
		wg       sync.WaitGroup
		failOnce sync.Once
		failure  error
	)
	workers := min(t.options.Concurrency, len(batches))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				if ctx.Err() != nil {
					return
				}
				results, err := t.translateBatch(ctx, batches[i])
				if err != nil {
					failOnce.Do(func() {
						failure = fmt.Errorf("batch %d failed: %w", i, err)
						cancel()
					})
					return
				}
				done[i] = results
			}
		}()
	}
	wg.Wait()

	if failure != nil {
		return nil, failure
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := make([]TranslationResult, 0, len(items))
	for i, batch := range batches {
		// a reply may list its items in any order
		byIndex := make(map[int]TranslationResult, len(batch))
		for _, r := range done[i] {
			byIndex[r.Index] = r
		}
		for _, item := range batch {
			ordered = append(ordered, byIndex[item.Index])
		}
	}
	return ordered, nil
}

func split(items []TranslationItem, size int) [][]TranslationItem {
	var batches [][]TranslationItem
	for len(items) > 0 {
		n := min(size, len(items))
		batches = append(batches, items[:n])
		items = items[n:]
	}
	return batches
}

func (t *BatchTranslator) translateBatch(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	reply, err := t.model.complete(ctx, BuildPrompt(t.options, items))
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	return parseResponse(reply, items)
}
