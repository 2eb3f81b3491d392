package depcache

import (
	"errors"
	"io/fs"
	"reflect"
	"testing"

	"github.com/warpdl/idleload/pkg/logger"
)

type countingStore struct {
	data     map[string][]string
	readErr  error
	writeErr error
	reads    int
	writes   int
}

func (s *countingStore) Read() (map[string][]string, error) {
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	if s.data == nil {
		return nil, fs.ErrNotExist
	}
	return s.data, nil
}

func (s *countingStore) Write(m map[string][]string) error {
	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.data = m
	return nil
}

func (s *countingStore) Close() error   { return nil }
func (s *countingStore) String() string { return "counting" }

func TestEnsureLoadedReadsOnce(t *testing.T) {
	st := &countingStore{data: map[string][]string{"foo": {"bar", "foo"}}}
	c := New(st, nil)

	c.EnsureLoaded()
	c.EnsureLoaded()
	if st.reads != 1 {
		t.Fatalf("expected 1 read, got %d", st.reads)
	}
	if !c.Loaded() || c.Dirty() {
		t.Errorf("expected loaded and clean, got loaded=%v dirty=%v", c.Loaded(), c.Dirty())
	}
	deps, ok := c.Lookup("foo")
	if !ok || !reflect.DeepEqual(deps, []string{"bar", "foo"}) {
		t.Errorf("Lookup(foo) = %v, %v", deps, ok)
	}
}

func TestLookupBeforeLoadMisses(t *testing.T) {
	st := &countingStore{data: map[string][]string{"foo": {"foo"}}}
	c := New(st, nil)
	if _, ok := c.Lookup("foo"); ok {
		t.Error("expected miss before EnsureLoaded")
	}
	if st.reads != 0 {
		t.Errorf("Lookup must not read the store, got %d reads", st.reads)
	}
}

func TestMissingStoreIsEmptyWithoutWarning(t *testing.T) {
	l := logger.NewMockLogger()
	c := New(&countingStore{}, l)
	c.EnsureLoaded()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
	if len(l.Warnings()) != 0 {
		t.Errorf("expected no warning for a missing file, got %v", l.Warnings())
	}
}

func TestUnreadableStoreIsEmptyWithWarning(t *testing.T) {
	l := logger.NewMockLogger()
	c := New(&countingStore{readErr: errors.New("garbage")}, l)
	c.EnsureLoaded()
	if !c.Loaded() || c.Len() != 0 {
		t.Errorf("expected loaded empty cache, got loaded=%v len=%d", c.Loaded(), c.Len())
	}
	if len(l.Warnings()) != 1 {
		t.Errorf("expected one warning, got %v", l.Warnings())
	}
}

func TestRecordImpliesLoaded(t *testing.T) {
	st := &countingStore{data: map[string][]string{"old": {"old"}}}
	c := New(st, nil)

	c.Record("new", []string{"dep", "new"})
	if !c.Loaded() || !c.Dirty() {
		t.Fatalf("expected loaded and dirty, got loaded=%v dirty=%v", c.Loaded(), c.Dirty())
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	want := map[string][]string{"old": {"old"}, "new": {"dep", "new"}}
	if !reflect.DeepEqual(st.data, want) {
		t.Errorf("stored %v, want %v", st.data, want)
	}
}

func TestRecordCopiesInput(t *testing.T) {
	c := New(&countingStore{}, nil)
	deps := []string{"a", "b"}
	c.Record("x", deps)
	deps[0] = "mutated"
	got, _ := c.Lookup("x")
	if got[0] != "a" {
		t.Errorf("expected cache to own its copy, got %v", got)
	}
	got[1] = "mutated"
	again, _ := c.Lookup("x")
	if again[1] != "b" {
		t.Errorf("expected Lookup to return a copy, got %v", again)
	}
}

func TestFlushCleanIsNoop(t *testing.T) {
	st := &countingStore{}
	c := New(st, nil)
	c.EnsureLoaded()
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if st.writes != 0 {
		t.Errorf("expected no write, got %d", st.writes)
	}
}

func TestFlushErrorKeepsDirty(t *testing.T) {
	st := &countingStore{writeErr: errors.New("read-only")}
	c := New(st, nil)
	c.Record("x", []string{"x"})
	if err := c.Flush(); err == nil {
		t.Fatal("expected error")
	}
	if !c.Dirty() {
		t.Error("expected cache to stay dirty")
	}
	st.writeErr = nil
	if err := c.Flush(); err != nil {
		t.Fatalf("retry Flush: %v", err)
	}
	if c.Dirty() || st.writes != 2 {
		t.Errorf("expected clean after retry, dirty=%v writes=%d", c.Dirty(), st.writes)
	}
}

func TestForgetAndReset(t *testing.T) {
	st := &countingStore{data: map[string][]string{"a": {"a"}, "b": {"b"}}}
	c := New(st, nil)

	if !c.Forget("a") {
		t.Error("expected Forget(a) to report an entry")
	}
	if c.Forget("missing") {
		t.Error("expected Forget(missing) to report nothing")
	}
	if !reflect.DeepEqual(c.Features(), []string{"b"}) {
		t.Errorf("features %v, want [b]", c.Features())
	}
	c.Reset()
	if c.Len() != 0 || !c.Dirty() {
		t.Errorf("expected empty dirty cache, len=%d dirty=%v", c.Len(), c.Dirty())
	}
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(st.data) != 0 {
		t.Errorf("expected empty mapping stored, got %v", st.data)
	}
}
