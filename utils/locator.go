package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"review-extractor/internal/types"
)

// Locator resolves ordered strategy lists against the live page. Each
// strategy gets its own short polling window so a long fallback chain stays
// bounded; a strategy that errors is treated as a miss.
type Locator struct {
	driver Driver
	wait   time.Duration
	poll   time.Duration
	logger types.Logger
}

// NewLocator creates a locator with the per-strategy wait and poll interval
func NewLocator(driver Driver, wait, poll time.Duration, logger types.Logger) *Locator {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	return &Locator{
		driver: driver,
		wait:   wait,
		poll:   poll,
		logger: logger,
	}
}

// Driver returns the underlying driver
func (l *Locator) Driver() Driver {
	return l.driver
}

// Filter rejects a candidate node. Used to skip sponsored containers.
type Filter func(Node) bool

// Locate returns the first visible element matched by the strategies, in
// order. It fails with ErrElementNotFound when every strategy is exhausted.
func (l *Locator) Locate(ctx context.Context, strategies ...Strategy) (Node, error) {
	return l.LocateIn(ctx, "", nil, strategies...)
}

// LocateIn is Locate restricted to the subtree of scope, skipping nodes for
// which exclude returns true.
func (l *Locator) LocateIn(ctx context.Context, scope string, exclude Filter, strategies ...Strategy) (Node, error) {
	for _, s := range strategies {
		node, ok := l.try(ctx, scope, s, exclude)
		if ok {
			l.logger.Debugf("Locator hit: %s", s)
			return node, nil
		}
		if ctx.Err() != nil {
			return Node{}, ctx.Err()
		}
		l.logger.Debugf("Locator miss: %s", s)
	}
	return Node{}, fmt.Errorf("%d strategies tried: %w", len(strategies), types.ErrElementNotFound)
}

// try polls one strategy until a visible, non-excluded match appears or the
// wait window closes.
func (l *Locator) try(ctx context.Context, scope string, s Strategy, exclude Filter) (Node, bool) {
	deadline := time.Now().Add(l.wait)
	for {
		for _, n := range l.query(ctx, scope, s) {
			if !n.Visible() {
				continue
			}
			if exclude != nil && exclude(n) {
				continue
			}
			return n, true
		}
		if time.Now().After(deadline) {
			return Node{}, false
		}
		if err := Settle(ctx, l.poll); err != nil {
			return Node{}, false
		}
	}
}

// All returns every match of s right now, without waiting. Errors count as no
// match.
func (l *Locator) All(ctx context.Context, s Strategy) []Node {
	return l.query(ctx, "", s)
}

// AllIn is All restricted to the subtree of scope.
func (l *Locator) AllIn(ctx context.Context, scope string, s Strategy) []Node {
	return l.query(ctx, scope, s)
}

// WaitAll polls s until at least one element matches or the wait window
// closes.
func (l *Locator) WaitAll(ctx context.Context, s Strategy) []Node {
	deadline := time.Now().Add(l.wait)
	for {
		if nodes := l.query(ctx, "", s); len(nodes) > 0 {
			return nodes
		}
		if time.Now().After(deadline) {
			return nil
		}
		if err := Settle(ctx, l.poll); err != nil {
			return nil
		}
	}
}

// WaitForURL polls the current URL until it contains fragment. It fails with
// ErrNavigationTimeout when timeout passes first.
func (l *Locator) WaitForURL(ctx context.Context, fragment string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	var current string
	for {
		if u, err := l.driver.CurrentURL(ctx); err == nil {
			current = u
			if strings.Contains(u, fragment) {
				return u, nil
			}
		}
		if time.Now().After(deadline) {
			return current, fmt.Errorf("url never contained %q (at %s): %w", fragment, current, types.ErrNavigationTimeout)
		}
		if err := Settle(ctx, l.poll); err != nil {
			return current, err
		}
	}
}

func (l *Locator) query(ctx context.Context, scope string, s Strategy) []Node {
	nodes, err := l.driver.Query(ctx, scope, s.By, s.Selector)
	if err != nil {
		l.logger.Debugf("Strategy %s failed: %v", s, err)
		return nil
	}
	if s.Text == "" {
		return nodes
	}

	want := strings.ToLower(s.Text)
	var kept []Node
	for _, n := range nodes {
		if strings.Contains(strings.ToLower(n.Text), want) {
			kept = append(kept, n)
		}
	}
	return kept
}
