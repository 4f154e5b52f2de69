package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/pkordes/belatedly/internal/remote"
)

// ContainerResolver finds the calendar that holds date records and caches its
// id for the life of the process. Concurrent first resolutions share one
// remote round trip.
type ContainerResolver struct {
	remote remote.Service
	name   string
	group  singleflight.Group

	mu sync.RWMutex
	id string
}

// NewContainerResolver returns a resolver for the calendar named name.
func NewContainerResolver(svc remote.Service, name string) *ContainerResolver {
	return &ContainerResolver{remote: svc, name: name}
}

// Name returns the calendar name the resolver looks for.
func (r *ContainerResolver) Name() string {
	return r.name
}

// Cached returns the cached id, if any.
func (r *ContainerResolver) Cached() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.id, r.id != ""
}

// Lookup returns the container id without creating the container.
// ok is false when no calendar with the name exists.
func (r *ContainerResolver) Lookup(ctx context.Context) (id string, ok bool, err error) {
	if id, ok := r.Cached(); ok {
		return id, true, nil
	}
	// The shared call outlives any one caller's cancellation.
	flight := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do("lookup", func() (any, error) {
		return r.find(flight)
	})
	if err != nil {
		return "", false, fmt.Errorf("service.ContainerResolver.Lookup: %w", err)
	}
	id = v.(string)
	return id, id != "", nil
}

// Resolve returns the container id, creating the calendar when it does not
// exist yet.
func (r *ContainerResolver) Resolve(ctx context.Context) (string, error) {
	if id, ok := r.Cached(); ok {
		return id, nil
	}
	flight := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do("resolve", func() (any, error) {
		id, err := r.find(flight)
		if err != nil || id != "" {
			return id, err
		}
		c, err := r.remote.CreateContainer(flight, r.name)
		if err != nil {
			return "", err
		}
		r.store(c.ID)
		return c.ID, nil
	})
	if err != nil {
		return "", fmt.Errorf("service.ContainerResolver.Resolve: %w", err)
	}
	return v.(string), nil
}

// Invalidate drops the cached id if it still equals id. Passing the id that
// failed keeps a newer resolution from being discarded.
func (r *ContainerResolver) Invalidate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.id == id {
		r.id = ""
	}
}

func (r *ContainerResolver) find(ctx context.Context) (string, error) {
	if id, ok := r.Cached(); ok {
		return id, nil
	}
	containers, err := r.remote.ListContainers(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range containers {
		if c.Name == r.name {
			r.store(c.ID)
			return c.ID, nil
		}
	}
	return "", nil
}

func (r *ContainerResolver) store(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.id = id
}
