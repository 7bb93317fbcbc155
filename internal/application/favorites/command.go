package favorites

import (
	"context"
	"fmt"
)

// Command is an optimistic local change paired with the remote call that
// confirms it and the action that undoes it.
type Command struct {
	Name       string
	Apply      func()
	Remote     func(ctx context.Context) error
	Compensate func()
}

// Execute applies the change, calls the remote side and compensates when the
// remote call fails.
func (c Command) Execute(ctx context.Context) error {
	if c.Apply != nil {
		c.Apply()
	}
	if c.Remote == nil {
		return nil
	}
	if err := c.Remote(ctx); err != nil {
		if c.Compensate != nil {
			c.Compensate()
		}
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}
