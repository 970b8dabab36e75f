// Package notify keeps the in-memory notification list shown in the
// dashboard header.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"deployhub/internal/deployment"
)

// DefaultCapacity is the number of notifications retained
const DefaultCapacity = 50

// ErrNotFound is returned when a notification id does not exist
var ErrNotFound = errors.New("notification not found")

// Notification is a single message in the notification list
type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
}

// Center manages the notification list, newest first
type Center struct {
	mu            sync.RWMutex
	notifications []Notification
	capacity      int
	nextID        int64
	now           func() time.Time
}

// NewCenter creates an empty notification center holding up to capacity entries
func NewCenter(capacity int) *Center {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Center{
		capacity: capacity,
		nextID:   1,
		now:      time.Now,
	}
}

// Seed adds the startup notifications relative to now
func (c *Center) Seed(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seed := []Notification{
		{Message: `Deployment of "E-commerce Platform" completed successfully`, CreatedAt: now.Add(-5 * time.Minute)},
		{Message: `Deployment of "Task Management App" failed`, CreatedAt: now.Add(-20 * time.Minute)},
		{Message: "New deployment started by @web3_enthusiast", CreatedAt: now.Add(-time.Hour), Read: true},
	}
	// Oldest first so ids ascend with age
	for i := len(seed) - 1; i >= 0; i-- {
		c.addLocked(seed[i])
	}
}

// Add appends a new unread notification and returns it
func (c *Center) Add(message string) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.addLocked(Notification{Message: message, CreatedAt: c.now().UTC()})
}

func (c *Center) addLocked(n Notification) Notification {
	n.ID = c.nextID
	c.nextID++

	next := make([]Notification, 0, min(len(c.notifications)+1, c.capacity))
	next = append(next, n)
	for _, existing := range c.notifications {
		if len(next) == c.capacity {
			break
		}
		next = append(next, existing)
	}
	c.notifications = next
	return n
}

// List returns a copy of all notifications, newest first
func (c *Center) List() []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// UnreadCount returns the number of unread notifications
func (c *Center) UnreadCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, n := range c.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkRead marks a single notification as read
func (c *Center) MarkRead(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.notifications {
		if c.notifications[i].ID == id {
			c.notifications[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %d: %w", id, ErrNotFound)
}

// MarkAllRead marks every notification as read and returns how many changed
func (c *Center) MarkAllRead() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := 0
	for i := range c.notifications {
		if !c.notifications[i].Read {
			c.notifications[i].Read = true
			changed++
		}
	}
	return changed
}

// Observe adds a notification for a newly generated deployment.
// It matches the simulator hook signature.
func (c *Center) Observe(_ context.Context, r deployment.Record) {
	c.Add(MessageFor(r))
}

// MessageFor describes a deployment as a notification message
func MessageFor(r deployment.Record) string {
	switch r.Status {
	case deployment.StatusSuccess:
		return fmt.Sprintf("Deployment of \"%s\" completed successfully", r.ProjectName)
	case deployment.StatusFailed:
		return fmt.Sprintf("Deployment of \"%s\" failed", r.ProjectName)
	case deployment.StatusInProgress:
		return fmt.Sprintf("New deployment started by @%s", r.Username)
	default:
		return fmt.Sprintf("Deployment of \"%s\" reported an unknown status", r.ProjectName)
	}
}
