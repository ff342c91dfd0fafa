package pipeline

import (
	"sync"
	"testing"
)

func TestGeneration(t *testing.T) {
	var g Generation
	if g.Current() != 0 {
		t.Errorf("zero value Current = %d, want 0", g.Current())
	}

	first := g.Next()
	if !g.IsCurrent(first) {
		t.Error("first generation should be current")
	}

	second := g.Next()
	if second <= first {
		t.Errorf("Next went from %d to %d", first, second)
	}
	if g.IsCurrent(first) {
		t.Error("superseded generation still reported current")
	}
	if !g.IsCurrent(second) {
		t.Error("newest generation not current")
	}
}

func TestGeneration_Concurrent(t *testing.T) {
	var g Generation
	var wg sync.WaitGroup
	seen := make(chan uint64, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- g.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool)
	for n := range seen {
		if unique[n] {
			t.Fatalf("generation %d handed out twice", n)
		}
		unique[n] = true
	}
	if g.Current() != 100 {
		t.Errorf("Current = %d, want 100", g.Current())
	}
}
