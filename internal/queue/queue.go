package queue

import (
	"sync"

	"github.com/DanielBelovol/ThumbnailTester/internal/models"
)

// Registry maps video IDs to their variant queues. A video can carry only one
// live thumbnail/title at a time, so everything that mutates a video goes
// through its queue. Queues for different videos are independent; operations
// on the same video are linearized by the queue's own lock.
type Registry struct {
	mu     sync.Mutex
	queues map[string]*VideoQueue
}

func NewRegistry() *Registry {
	return &Registry{queues: make(map[string]*VideoQueue)}
}

// GetOrCreate returns the queue for videoID, creating an empty one if absent.
func (r *Registry) GetOrCreate(videoID string) *VideoQueue {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.queues[videoID]
	if !ok {
		q = &VideoQueue{videoID: videoID}
		r.queues[videoID] = q
	}
	return q
}

// Claim reserves the queue for one session. A second session targeting the
// same video is rejected at creation time instead of corrupting the first
// session's measurement windows.
func (r *Registry) Claim(videoID string) bool {
	q := r.GetOrCreate(videoID)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.claimed {
		return false
	}
	q.claimed = true
	return true
}

// Release gives the video's queue back and drops any leftover items.
func (r *Registry) Release(videoID string) {
	q := r.GetOrCreate(videoID)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.claimed = false
	q.items = nil
	q.active = nil
}

// VideoQueue is the ordered set of pending variants for one video plus a
// single active marker. At most one variant is active at any time.
type VideoQueue struct {
	mu      sync.Mutex
	videoID string
	claimed bool
	items   []*models.Variant
	active  *models.Variant
}

func (q *VideoQueue) VideoID() string {
	return q.videoID
}

// EnqueueAll appends variants preserving their order.
func (q *VideoQueue) EnqueueAll(variants []*models.Variant) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, variants...)
}

// TakeNext removes and returns the head variant, marking it active. The
// second return is false when the queue is empty; an empty queue is a normal
// state, not an error.
func (q *VideoQueue) TakeNext() (*models.Variant, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	q.active = head
	return head, true
}

// ReleaseActive clears the active marker once a variant's cycle completed,
// successfully or not.
func (q *VideoQueue) ReleaseActive() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.active = nil
}

// Active returns the currently live variant, if any.
func (q *VideoQueue) Active() (*models.Variant, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active, q.active != nil
}

// Len reports how many variants are still pending.
func (q *VideoQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
