package resilience

import (
	"context"
	"sort"
	"sync"
)

// Endpoint groups guarded by separate breakers.
const (
	GroupPush      = "push"
	GroupPull      = "pull"
	GroupConflicts = "conflicts"
)

// Group holds one breaker per endpoint group. It is meant to be created once
// per process and shared by every component talking to the server.
type Group struct {
	breakers map[string]*Breaker
	opts     []Option
	settings Settings
	mu       sync.Mutex
}

// NewGroup creates an empty group; breakers are created on first use.
func NewGroup(settings Settings, opts ...Option) *Group {
	return &Group{
		breakers: make(map[string]*Breaker),
		settings: settings,
		opts:     opts,
	}
}

// Get returns the breaker of the endpoint group, creating it if needed.
func (g *Group) Get(name string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.breakers[name]
	if !ok {
		b = NewBreaker(name, g.settings, g.opts...)
		g.breakers[name] = b
	}
	return b
}

// Execute runs op through the breaker of the endpoint group.
func (g *Group) Execute(ctx context.Context, name string, op func(ctx context.Context) error) error {
	return g.Get(name).Execute(ctx, op)
}

// Snapshots returns the state of every breaker ordered by name.
func (g *Group) Snapshots() []Snapshot {
	g.mu.Lock()
	breakers := make([]*Breaker, 0, len(g.breakers))
	for _, b := range g.breakers {
		breakers = append(breakers, b)
	}
	g.mu.Unlock()

	out := make([]Snapshot, 0, len(breakers))
	for _, b := range breakers {
		out = append(out, b.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResetAll closes every breaker.
func (g *Group) ResetAll() {
	g.mu.Lock()
	breakers := make([]*Breaker, 0, len(g.breakers))
	for _, b := range g.breakers {
		breakers = append(breakers, b)
	}
	g.mu.Unlock()

	for _, b := range breakers {
		b.Reset()
	}
}
