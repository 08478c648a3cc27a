package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SubscribeNotify(t *testing.T) {
	reg := NewRegistry()

	var got []string
	unsubA := reg.Subscribe(func(e Event) { got = append(got, "a:"+e.Text) })
	reg.Subscribe(func(e Event) { got = append(got, "b:"+e.Text) })

	reg.Notify(Event{Kind: EventPurified, Text: "1"})
	unsubA()
	unsubA()
	reg.Notify(Event{Kind: EventPurified, Text: "2"})

	assert.Equal(t, []string{"a:1", "b:1", "b:2"}, got)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var reg *Registry
	assert.NotPanics(t, func() { reg.Notify(Event{Kind: EventPurified}) })
}

func TestSession_CloseRemovesOnlyItsSubscribers(t *testing.T) {
	reg := NewRegistry()
	reg.Subscribe(func(Event) {})

	a := New(reg, "fr", "user-a")
	b := New(reg, "ar", "user-b")
	a.Subscribe(func(Event) {})
	a.Subscribe(func(Event) {})
	b.Subscribe(func(Event) {})
	require.Equal(t, 4, reg.Len())

	a.Close()
	assert.Equal(t, 2, reg.Len())

	a.Subscribe(func(Event) {})
	assert.Equal(t, 2, reg.Len(), "closed session must not subscribe")

	b.Close()
	assert.Equal(t, 1, reg.Len())
}

func TestSession_NotifyStampsID(t *testing.T) {
	reg := NewRegistry()
	s := New(reg, "fr", nil)
	assert.NotEmpty(t, s.ID)
	assert.NotEqual(t, s.ID, New(reg, "fr", nil).ID)

	var got Event
	s.Subscribe(func(e Event) { got = e })
	s.Notify(Event{Kind: EventFragmentFixed, FragmentID: "f1"})

	assert.Equal(t, s.ID, got.SessionID)
	assert.Equal(t, "f1", got.FragmentID)
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	s := New(nil, "ar", "token")
	got, ok := FromContext(NewContext(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, "token", got.Caller)
}

func TestRegistry_Concurrent(t *testing.T) {
	reg := NewRegistry()
	var (
		mu    sync.Mutex
		count int
	)
	reg.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := New(reg, "fr", nil)
			s.Subscribe(func(Event) {})
			s.Notify(Event{Kind: EventPurified})
			s.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, count)
	assert.Equal(t, 1, reg.Len())
}
