package cache

import (
	"context"
	"sync"

	"postboard/models"
)

// ResponseCache holds the response list of each post.
//
// Every post has a generation that Invalidate bumps. A reader takes the
// generation before it queries the database and passes it to Set, which drops
// the list when the post was invalidated in between.
type ResponseCache interface {
	Get(ctx context.Context, postID int) ([]models.Response, bool, error)
	Generation(ctx context.Context, postID int) (int64, error)
	Set(ctx context.Context, postID int, generation int64, responses []models.Response) error
	Invalidate(ctx context.Context, postID int) error
}

// Noop never stores anything. It is used when no Redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, int) ([]models.Response, bool, error) { return nil, false, nil }
func (Noop) Generation(context.Context, int) (int64, error)            { return 0, nil }
func (Noop) Set(context.Context, int, int64, []models.Response) error  { return nil }
func (Noop) Invalidate(context.Context, int) error                     { return nil }

// Memory is a process-local ResponseCache without expiry.
type Memory struct {
	mu          sync.Mutex
	lists       map[int][]models.Response
	generations map[int]int64
}

func NewMemory() *Memory {
	return &Memory{lists: make(map[int][]models.Response), generations: make(map[int]int64)}
}

func (m *Memory) Get(_ context.Context, postID int) ([]models.Response, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	responses, ok := m.lists[postID]
	return responses, ok, nil
}

func (m *Memory) Generation(_ context.Context, postID int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[postID], nil
}

func (m *Memory) Set(_ context.Context, postID int, generation int64, responses []models.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generations[postID] != generation {
		return nil
	}
	m.lists[postID] = responses
	return nil
}

func (m *Memory) Invalidate(_ context.Context, postID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[postID]++
	delete(m.lists, postID)
	return nil
}
