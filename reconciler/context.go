// Package reconciler maps discovered test cases and execution records onto
// entities in the test management system. Reconciliation is idempotent: each
// identity is created at most once per sync, lookups warm a shared cache and
// existing entities are left untouched unless a forced update is requested.
package reconciler

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/testman-sync/client"
)

// reqTypeFunctional is the requirement classification given to requirements
// created for test modules.
const reqTypeFunctional = "functional"

// Config carries the settings shared by all reconcilers of one sync.
type Config struct {
	Log     log.Logger
	Store   client.Store
	Project string
	// User is recorded as the executor of attached test records.
	User string
	// ForceUpdate overwrites the fields of test cases that already exist
	// instead of leaving them untouched.
	ForceUpdate bool
	// CollectOnly derives identities and payloads without any store calls.
	CollectOnly bool
	// CustomFields are merged into every created entity's field set.
	CustomFields map[string]any
}

// SyncContext is the state of one synchronization invocation: the store
// handle, the sync settings and the caches mapping identities onto remote
// entities. A single SyncContext is shared by all workers of a sync and is
// safe for concurrent use; cache writes are first-write-wins so an identity
// resolves to the same entity for the whole invocation.
type SyncContext struct {
	cfg Config
	log log.Logger

	mu           sync.RWMutex
	cases        map[string]*client.TestCase
	requirements map[string]*client.Requirement
	reqCreated   int
}

// NewSyncContext creates the shared state for one sync invocation.
func NewSyncContext(cfg Config) *SyncContext {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	return &SyncContext{
		cfg:          cfg,
		log:          cfg.Log,
		cases:        make(map[string]*client.TestCase),
		requirements: make(map[string]*client.Requirement),
	}
}

// CachedCase returns the test case previously resolved for an identity.
func (c *SyncContext) CachedCase(identity string) (*client.TestCase, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tc, ok := c.cases[identity]
	return tc, ok
}

// StoreCase records the test case resolved for an identity and returns the
// cached entry. The first write wins: a concurrent resolution of the same
// identity keeps the entry that arrived first.
func (c *SyncContext) StoreCase(identity string, tc *client.TestCase) *client.TestCase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.cases[identity]; ok {
		return cached
	}
	c.cases[identity] = tc
	return tc
}

// RequirementsCreated returns how many requirements this sync created.
func (c *SyncContext) RequirementsCreated() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reqCreated
}

// ensureRequirement resolves the requirement a test module links against,
// creating it when the store has none with the derived title. Requirements
// are cached by title so each module costs at most one query per sync.
func (c *SyncContext) ensureRequirement(ctx context.Context, title string) (*client.Requirement, error) {
	c.mu.RLock()
	req, ok := c.requirements[title]
	c.mu.RUnlock()
	if ok {
		return req, nil
	}

	req, err := c.cfg.Store.RequirementByTitle(ctx, c.cfg.Project, title)
	if client.IsNotFound(err) {
		req, err = c.cfg.Store.CreateRequirement(ctx, client.Requirement{
			Project: c.cfg.Project,
			Title:   title,
			Type:    reqTypeFunctional,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create requirement %q: %w", title, err)
		}
		c.log.Info("Created requirement", "title", title, "work_item_id", req.WorkItemID)
		c.mu.Lock()
		c.reqCreated++
		c.mu.Unlock()
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up requirement %q: %w", title, err)
	}

	return c.storeRequirement(title, req), nil
}

func (c *SyncContext) storeRequirement(title string, req *client.Requirement) *client.Requirement {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.requirements[title]; ok {
		return cached
	}
	c.requirements[title] = req
	return req
}
