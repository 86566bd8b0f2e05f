package pool

import (
	"testing"
)

type conn struct {
	id    int
	state []string
}

func TestPoolFactory(t *testing.T) {
	built := 0
	p := New(func() *conn {
		built++
		return &conn{id: built}
	}, nil)

	c := p.Get()
	if c == nil || c.id != 1 {
		t.Fatalf("Expected a fresh item with id 1, got %+v", c)
	}
	if built != 1 {
		t.Errorf("Expected factory to run once, ran %d times", built)
	}
}

func TestPoolResetOnPut(t *testing.T) {
	resets := 0
	p := New(func() *conn { return &conn{} }, func(c *conn) {
		resets++
		c.state = c.state[:0]
	})

	c := p.Get()
	c.state = append(c.state, "dirty")
	p.Put(c)

	if resets != 1 {
		t.Errorf("Expected reset to run once, ran %d times", resets)
	}
	if len(c.state) != 0 {
		t.Errorf("Expected state to be cleared, got %v", c.state)
	}

	// Whatever Get returns, pooled or new, carries no state.
	if got := p.Get(); len(got.state) != 0 {
		t.Errorf("Expected clean item, got %v", got.state)
	}
}

func TestPoolValueTypes(t *testing.T) {
	p := New(func() int { return 42 }, nil)
	if v := p.Get(); v != 42 {
		t.Errorf("Expected 42, got %d", v)
	}
	p.Put(7)
	_ = p.Get()
}
