package delivery

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/service"
)

// ConsoleDeliverer prints reset links instead of emailing them. It stands in
// for a mail server during local development.
type ConsoleDeliverer struct {
	mu  sync.Mutex
	out io.Writer
}

var _ service.TokenDelivery = (*ConsoleDeliverer)(nil)

func NewConsoleDeliverer(out io.Writer) *ConsoleDeliverer {
	return &ConsoleDeliverer{out: out}
}

func (c *ConsoleDeliverer) Deliver(ctx context.Context, d service.ResetDelivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.out,
		"--- password reset for %s ---\nlink: %s\nexpires: %s\n---\n",
		d.To, d.ResetURL, d.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return err
}
