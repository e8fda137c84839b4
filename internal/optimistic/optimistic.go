// Package optimistic runs an in-memory update ahead of its remote side
// effects and replays the inverse when any of them fails.
package optimistic

import (
	"context"
	"sync"
)

// Command is one optimistic update. Apply runs synchronously before any
// effect is issued, so the caller's view reflects the new state immediately.
// Effects run concurrently; Run waits for all of them to settle and calls
// Revert if at least one failed. Revert must restore the exact pre-Apply
// state for everything Apply touched, not just the failed part.
type Command struct {
	Apply   func()
	Revert  func()
	Effects []func(ctx context.Context) error
}

// Run executes the command. It returns the first effect error encountered
// (in effect order) after all effects have settled; rollback is all or
// nothing. No effect is ever re-attempted.
func (c Command) Run(ctx context.Context) error {
	c.Apply()

	errs := make([]error, len(c.Effects))
	var wg sync.WaitGroup
	for i, effect := range c.Effects {
		wg.Add(1)
		go func(i int, effect func(ctx context.Context) error) {
			defer wg.Done()
			errs[i] = effect(ctx)
		}(i, effect)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			c.Revert()
			return err
		}
	}
	return nil
}
