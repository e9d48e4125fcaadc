// Package memory provides in-process implementations of the service
// stores. Documents are kept BSON-encoded so callers never share memory
// with the store, matching what a round trip through MongoDB gives them.
package memory

import (
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
)

type collection[T any] struct {
	mu    sync.RWMutex
	docs  map[primitive.ObjectID][]byte
	order []primitive.ObjectID
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{docs: make(map[primitive.ObjectID][]byte)}
}

func (c *collection[T]) insert(id primitive.ObjectID, doc *T) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[id]; ok {
		return fmt.Errorf("duplicate _id %s: %w", id.Hex(), models.ErrConflict)
	}
	c.docs[id] = raw
	c.order = append(c.order, id)
	return nil
}

func (c *collection[T]) replace(id primitive.ObjectID, doc *T) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[id]; !ok {
		return models.ErrNotFound
	}
	c.docs[id] = raw
	return nil
}

func (c *collection[T]) get(id primitive.ObjectID) (*T, error) {
	c.mu.RLock()
	raw, ok := c.docs[id]
	c.mu.RUnlock()
	if !ok {
		return nil, models.ErrNotFound
	}
	return decode[T](raw)
}

// find returns matching documents in insertion order.
func (c *collection[T]) find(match func(*T) bool) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []T{}
	for _, id := range c.order {
		doc, err := decode[T](c.docs[id])
		if err != nil {
			return nil, err
		}
		if match == nil || match(doc) {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (c *collection[T]) delete(id primitive.ObjectID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[id]; !ok {
		return models.ErrNotFound
	}
	c.removeLocked(id)
	return nil
}

// deleteWhere removes every match and reports how many went.
func (c *collection[T]) deleteWhere(match func(*T) bool) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var doomed []primitive.ObjectID
	for _, id := range c.order {
		doc, err := decode[T](c.docs[id])
		if err != nil {
			return 0, err
		}
		if match(doc) {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		c.removeLocked(id)
	}
	return int64(len(doomed)), nil
}

// update applies fn to every document and stores those it reports changed.
func (c *collection[T]) update(fn func(*T) bool) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, id := range c.order {
		doc, err := decode[T](c.docs[id])
		if err != nil {
			return n, err
		}
		if !fn(doc) {
			continue
		}
		raw, err := bson.Marshal(doc)
		if err != nil {
			return n, err
		}
		c.docs[id] = raw
		n++
	}
	return n, nil
}

func (c *collection[T]) removeLocked(id primitive.ObjectID) {
	delete(c.docs, id)
	for i, candidate := range c.order {
		if candidate == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func decode[T any](raw []byte) (*T, error) {
	doc := new(T)
	if err := bson.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

func sameRef(ref *primitive.ObjectID, want *primitive.ObjectID) bool {
	return want == nil || (ref != nil && *ref == *want)
}
