package service

import (
	"sort"
	"sync"
)

// SubscriptionManager tracks which connections want notifications for
// which timers.
type SubscriptionManager struct {
	mu    sync.RWMutex
	conns map[string]*subscription
}

// subscription is the interest of one connection.
type subscription struct {
	all    bool
	timers map[string]bool
}

// NewSubscriptionManager creates a new subscription manager.
func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{conns: make(map[string]*subscription)}
}

// Subscribe registers connID for timerID. An empty timerID subscribes to
// every timer.
func (m *SubscriptionManager) Subscribe(connID, timerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := m.conns[connID]
	if sub == nil {
		sub = &subscription{timers: make(map[string]bool)}
		m.conns[connID] = sub
	}
	if timerID == "" {
		sub.all = true
		return
	}
	sub.timers[timerID] = true
}

// Unsubscribe removes the subscription of connID for timerID. An empty
// timerID removes every subscription of the connection.
// Returns true if something was removed.
func (m *SubscriptionManager) Unsubscribe(connID, timerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := m.conns[connID]
	if sub == nil {
		return false
	}
	if timerID == "" {
		delete(m.conns, connID)
		return true
	}
	if !sub.timers[timerID] {
		return false
	}
	delete(sub.timers, timerID)
	if !sub.all && len(sub.timers) == 0 {
		delete(m.conns, connID)
	}
	return true
}

// RemoveConnection drops all subscriptions of connID.
func (m *SubscriptionManager) RemoveConnection(connID string) {
	m.mu.Lock()
	delete(m.conns, connID)
	m.mu.Unlock()
}

// Subscribers returns the connections interested in timerID, sorted.
func (m *SubscriptionManager) Subscribers(timerID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for connID, sub := range m.conns {
		if sub.all || sub.timers[timerID] {
			ids = append(ids, connID)
		}
	}
	sort.Strings(ids)
	return ids
}

// IsSubscribed returns true if connID receives notifications for timerID.
func (m *SubscriptionManager) IsSubscribed(connID, timerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub := m.conns[connID]
	return sub != nil && (sub.all || sub.timers[timerID])
}

// Count returns the number of connections with at least one subscription.
func (m *SubscriptionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}
