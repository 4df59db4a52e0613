package resource

import (
	"sync"
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

type dropCounter struct {
	drops int
}

func (d *dropCounter) Drop() { d.drops++ }

func TestTable_Basic(t *testing.T) {
	table := NewTable[string]()

	h := table.Insert("test")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	val, ok = table.Remove(h)
	if !ok || val != "test" {
		t.Fatalf("Remove = %v, %v", val, ok)
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}
	if _, ok := table.Get(h); ok {
		t.Fatal("Get after Remove should fail")
	}
	if _, ok := table.Remove(h); ok {
		t.Fatal("double Remove should fail")
	}
}

func TestTable_HandlesNotReused(t *testing.T) {
	table := NewTable[int]()

	h1 := table.Insert(1)
	table.Remove(h1)
	h2 := table.Insert(2)

	if h1 != 1 {
		t.Errorf("first handle = %d, want 1", h1)
	}
	if h2 == h1 {
		t.Errorf("handle %d reused", h2)
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable[string]()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Insert("a")
	table.Remove(h)

	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventCreated || obs.events[0].Len != 1 {
		t.Errorf("unexpected first event %+v", obs.events[0])
	}
	if obs.events[1].Type != EventDropped || obs.events[1].Handle != h || obs.events[1].Len != 0 {
		t.Errorf("unexpected second event %+v", obs.events[1])
	}
}

func TestTable_Dropper(t *testing.T) {
	table := NewTable[*dropCounter]()
	d := &dropCounter{}

	h := table.Insert(d)
	table.Remove(h)

	if d.drops != 1 {
		t.Errorf("Expected 1 drop, got %d", d.drops)
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable[*dropCounter]()
	a, b := &dropCounter{}, &dropCounter{}
	table.Insert(a)
	table.Insert(b)

	if err := table.Close(); err != nil {
		t.Fatal(err)
	}
	if a.drops != 1 || b.drops != 1 {
		t.Errorf("drops = %d, %d", a.drops, b.drops)
	}
	if h := table.Insert(&dropCounter{}); h != 0 {
		t.Errorf("Insert after Close returned %d", h)
	}
}

func TestTable_Each(t *testing.T) {
	table := NewTable[int]()
	for i := 0; i < 5; i++ {
		table.Insert(i)
	}

	sum := 0
	table.Each(func(_ Handle, v int) bool {
		sum += v
		return true
	})
	if sum != 10 {
		t.Errorf("sum = %d, want 10", sum)
	}

	visited := 0
	table.Each(func(Handle, int) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("early stop visited %d", visited)
	}
}

func TestTable_Concurrent(t *testing.T) {
	table := NewTable[int]()
	var wg sync.WaitGroup
	seen := make([]Handle, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = table.Insert(i)
		}(i)
	}
	wg.Wait()

	unique := make(map[Handle]bool)
	for _, h := range seen {
		if h == 0 || unique[h] {
			t.Fatalf("bad or duplicate handle %d", h)
		}
		unique[h] = true
	}
	if table.Len() != 100 {
		t.Errorf("Len = %d", table.Len())
	}
}

func TestEventType_String(t *testing.T) {
	if EventCreated.String() != "created" || EventDropped.String() != "dropped" {
		t.Error("unexpected event names")
	}
	if EventType(9).String() != "unknown" {
		t.Error("expected unknown")
	}
}
