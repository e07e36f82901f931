package di

import (
	"sync"
	"testing"
)

func TestRegisterAndGet(t *testing.T) {
	c := NewContainer()
	c.Register("answer", 42)

	if got := c.Get("answer"); got != 42 {
		t.Errorf("Get(answer) = %v, want 42", got)
	}
}

func TestGetUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Get on unknown name did not panic")
		}
	}()

	NewContainer().Get("missing")
}

func TestDuplicateRegisterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()

	c := NewContainer()
	c.Register("svc", 1)
	c.Register("svc", 2)
}

func TestFactoryRunsOnce(t *testing.T) {
	c := NewContainer()

	var calls int
	c.RegisterFactory("lazy", func(ServiceRegistry) any {
		calls++
		return "built"
	})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := c.Get("lazy"); got != "built" {
				t.Errorf("Get(lazy) = %v, want built", got)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("factory ran %d times, want 1", calls)
	}
}

func TestFactoryResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("prefix", "tri")
	c.RegisterFactory("name", func(sr ServiceRegistry) any {
		return sr.Get("prefix").(string) + "scan"
	})

	if got := c.Get("name"); got != "triscan" {
		t.Errorf("Get(name) = %v, want triscan", got)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	type service struct{ id int }

	c := NewContainer()
	token := NewToken[*service]("test.Service")

	RegisterToken(c, token, func(ServiceRegistry) *service {
		return &service{id: 7}
	})

	got := GetToken(c, token)
	if got.id != 7 {
		t.Errorf("GetToken returned id %d, want 7", got.id)
	}
}

func TestTokenTypeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("type mismatch did not panic")
		}
	}()

	c := NewContainer()
	c.Register("svc", "a string")
	GetToken(c, NewToken[int]("svc"))
}
