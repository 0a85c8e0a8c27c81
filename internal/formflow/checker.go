package formflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/early-access-api/internal/application/domaincheck"
	"github.com/early-access-api/internal/domain"
)

// DomainChecking is reported while a lookup is pending.
const DomainChecking domain.DomainStatus = "checking"

// DefaultDebounce is the quiet period before an email is looked up.
const DefaultDebounce = 500 * time.Millisecond

type lookupFunc func(ctx context.Context, email string) (domain.DomainStatus, error)

// DomainChecker debounces email edits into allowlist lookups. A new edit
// cancels the pending or in-flight lookup, and results from superseded
// lookups are dropped.
type DomainChecker struct {
	lookup   lookupFunc
	delay    time.Duration
	onResult func(domain.DomainStatus)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDomainChecker(lookup lookupFunc, delay time.Duration, onResult func(domain.DomainStatus)) *DomainChecker {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &DomainChecker{lookup: lookup, delay: delay, onResult: onResult}
}

// Update records a new email value.
func (c *DomainChecker) Update(email string) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if _, ok := domaincheck.ExtractDomain(email); !ok {
		c.mu.Unlock()
		c.onResult(domain.DomainIndeterminate)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	c.onResult(DomainChecking)
	go c.run(ctx, gen, email)
}

func (c *DomainChecker) run(ctx context.Context, gen uint64, email string) {
	defer c.wg.Done()
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	status, err := c.lookup(ctx, email)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Debug("domain lookup failed", "err", err)
		status = domain.DomainInvalid
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.cancel = nil
	c.onResult(status)
}

// Close cancels any pending lookup and waits for it to exit.
func (c *DomainChecker) Close() {
	c.mu.Lock()
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}
