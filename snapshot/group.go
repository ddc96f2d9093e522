package snapshot

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SaveAll writes multiple snapshots concurrently. The images map keys are
// snapshot names. parallelism <= 0 means one goroutine per image.
// On error, already written snapshots are left in place.
func SaveAll(ctx context.Context, store Store, images map[string][][]byte, parallelism int, opts ...Option) error {
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for name, sections := range images {
		g.Go(func() error {
			return Save(ctx, store, name, sections, opts...)
		})
	}

	return g.Wait()
}

// LoadAll reads multiple snapshots concurrently and returns them keyed by
// name. parallelism <= 0 means one goroutine per name.
func LoadAll(ctx context.Context, store Store, names []string, parallelism int, opts ...Option) (map[string][][]byte, error) {
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	var mu sync.Mutex
	images := make(map[string][][]byte, len(names))

	for _, name := range names {
		g.Go(func() error {
			sections, err := Load(ctx, store, name, opts...)
			if err != nil {
				return err
			}
			mu.Lock()
			images[name] = sections
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}
