// Package streams tracks in-flight completion streams so the gateway can cap
// how many a single user may hold open at once.
package streams

import (
	"fmt"
	"sync"
	"time"
)

// StreamID represents a unique identifier for an in-flight stream
type StreamID uint64

// Stream represents one active completion stream
type Stream struct {
	ID        StreamID
	UserID    string
	FileID    string
	StartedAt time.Time
}

// Registry manages active completion streams across all users
type Registry struct {
	nextStreamID  StreamID
	streams       map[StreamID]*Stream
	streamsByUser map[string]map[StreamID]struct{}
	mu            sync.RWMutex
}

// NewRegistry creates a new stream registry
func NewRegistry() *Registry {
	return &Registry{
		nextStreamID:  1,
		streams:       make(map[StreamID]*Stream),
		streamsByUser: make(map[string]map[StreamID]struct{}),
	}
}

// Add registers a new stream for a user and returns its ID
func (r *Registry) Add(userID, fileID string) StreamID {
	r.mu.Lock()
	defer r.mu.Unlock()

	streamID := r.nextStreamID
	r.nextStreamID++

	stream := &Stream{
		ID:        streamID,
		UserID:    userID,
		FileID:    fileID,
		StartedAt: time.Now(),
	}

	r.streams[streamID] = stream

	// Track streams by user
	if _, exists := r.streamsByUser[userID]; !exists {
		r.streamsByUser[userID] = make(map[StreamID]struct{})
	}
	r.streamsByUser[userID][streamID] = struct{}{}

	return streamID
}

// Remove deregisters a finished or aborted stream
func (r *Registry) Remove(streamID StreamID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stream, exists := r.streams[streamID]
	if !exists {
		return fmt.Errorf("stream %d not found", streamID)
	}

	if userStreams, exists := r.streamsByUser[stream.UserID]; exists {
		delete(userStreams, streamID)
		if len(userStreams) == 0 {
			delete(r.streamsByUser, stream.UserID)
		}
	}

	delete(r.streams, streamID)

	return nil
}

// Get returns a stream by ID
func (r *Registry) Get(streamID StreamID) (*Stream, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stream, exists := r.streams[streamID]
	return stream, exists
}

// ActiveForUser returns the number of streams a user currently holds open
func (r *Registry) ActiveForUser(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.streamsByUser[userID])
}
