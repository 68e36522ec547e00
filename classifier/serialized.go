package classifier

import (
	"context"
	"image"
	"io"
	"sync"
)

type serialized struct {
	mu sync.Mutex
	c  Classifier
}

// Serialize guards a classifier whose runtime is not reentrant so that
// at most one inference runs at a time
func Serialize(c Classifier) Classifier {
	if _, ok := c.(*serialized); ok {
		return c
	}
	return &serialized{c: c}
}

func (s *serialized) Classify(ctx context.Context, img *image.Gray) (Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	return s.c.Classify(ctx, img)
}

func (s *serialized) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.c.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
