package napp

import "golang.org/x/sync/errgroup"

// parallelFor applies fn to every index in [0, n) using the given
// number of workers. The range is split into contiguous chunks, one per
// worker, and fn receives a stable worker id alongside the item index -
// the build pipeline relies on the worker id to address thread-local
// scratch. The first error cancels nothing in-flight but is returned
// after all workers finish.
func parallelFor(n, workers int, fn func(i, worker int) error) error {
	if n <= 0 {
		return nil
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i, 0); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		lo := w * n / workers
		hi := (w + 1) * n / workers
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := fn(i, w); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
