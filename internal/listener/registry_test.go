package listener_test

import (
	"errors"
	"testing"

	"github.com/dshills/cmdqueue/internal/command"
	"github.com/dshills/cmdqueue/internal/listener"
)

// counted is a receiver that records messages and how often it was disposed.
type counted struct {
	name     string
	messages []string
	disposed int
	closeErr error
}

func (c *counted) Action(message string) error {
	c.messages = append(c.messages, message)
	return nil
}

func (c *counted) Close() error {
	c.disposed++
	return c.closeErr
}

func TestRegistryAddAndGet(t *testing.T) {
	r := listener.New()
	a := &counted{name: "a"}

	if err := r.Add("console", a); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := r.Get("console")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != a {
		t.Error("expected Get to return the stored receiver")
	}
	if !r.Has("console") || r.Len() != 1 {
		t.Error("expected one stored receiver under 'console'")
	}
}

func TestRegistryAddNil(t *testing.T) {
	r := listener.New()
	if err := r.Add("x", nil); !errors.Is(err, listener.ErrNilReceiver) {
		t.Errorf("expected ErrNilReceiver, got %v", err)
	}
	if r.Len() != 0 {
		t.Error("expected nothing stored")
	}
}

func TestRegistryReplaceDisposesPrevious(t *testing.T) {
	r := listener.New()
	a := &counted{name: "a"}
	b := &counted{name: "b"}

	if err := r.Add("key", a); err != nil {
		t.Fatalf("Add a: %v", err)
	}
	if err := r.Add("key", b); err != nil {
		t.Fatalf("Add b: %v", err)
	}

	got, err := r.Get("key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != b {
		t.Error("expected Get to return the replacement")
	}
	if a.disposed != 1 {
		t.Errorf("expected replaced receiver disposed once, got %d", a.disposed)
	}
	if b.disposed != 0 {
		t.Errorf("expected current receiver not disposed, got %d", b.disposed)
	}
	if r.Len() != 1 {
		t.Errorf("expected keys to stay unique, got %d entries", r.Len())
	}
}

func TestRegistryReAddSameInstance(t *testing.T) {
	r := listener.New()
	a := &counted{}
	_ = r.Add("key", a)
	ref, _ := r.Ref("key")

	if err := r.Add("key", a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.disposed != 0 {
		t.Error("expected re-adding the stored instance not to dispose it")
	}
	if !ref.Alive() {
		t.Error("expected ref to stay alive when the same instance is re-added")
	}
}

func TestRegistryAddFuncReceiver(t *testing.T) {
	r := listener.New()
	f := command.ReceiverFunc(func(string) error { return nil })

	// Function values are not comparable; replacing one must not panic.
	if err := r.Add("fn", f); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add("fn", f); err != nil {
		t.Fatalf("Add again: %v", err)
	}
}

func TestRegistryDelete(t *testing.T) {
	r := listener.New()
	a := &counted{}
	_ = r.Add("key", a)

	r.Delete("key")

	if r.Has("key") {
		t.Error("expected key to be removed")
	}
	if a.disposed != 1 {
		t.Errorf("expected deleted receiver disposed once, got %d", a.disposed)
	}
}

func TestRegistryDeleteAbsentIsNoop(t *testing.T) {
	r := listener.New()
	a := &counted{}
	_ = r.Add("present", a)

	r.Delete("absent")

	if r.Len() != 1 || !r.Has("present") {
		t.Error("expected Delete of an absent key to leave the registry unchanged")
	}
	if a.disposed != 0 {
		t.Error("expected no disposal")
	}
}

func TestRegistryGetMissing(t *testing.T) {
	r := listener.New()

	got, err := r.Get("missing")
	if !errors.Is(err, listener.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if got != nil {
		t.Error("expected nil receiver for a missing key")
	}
}

func TestRegistryConstruct(t *testing.T) {
	r := listener.New()

	c, err := listener.Construct(r, "built", func() (*counted, error) {
		return &counted{name: "built"}, nil
	})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if c.name != "built" {
		t.Errorf("expected typed receiver, got %+v", c)
	}

	got, _ := r.Get("built")
	if got != c {
		t.Error("expected constructed receiver to be stored")
	}
}

func TestRegistryConstructFailure(t *testing.T) {
	r := listener.New()
	want := errors.New("bad args")

	_, err := listener.Construct(r, "broken", func() (*counted, error) {
		return nil, want
	})
	if !errors.Is(err, want) {
		t.Errorf("expected build error, got %v", err)
	}
	if r.Has("broken") {
		t.Error("expected nothing stored after a failed build")
	}
}

func TestRegistryKeysAndClear(t *testing.T) {
	r := listener.New()
	receivers := map[string]*counted{"b": {}, "a": {}, "c": {}}
	for k, v := range receivers {
		_ = r.Add(k, v)
	}

	keys := r.Keys()
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("expected sorted keys [a b c], got %v", keys)
	}

	r.Clear()

	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
	for k, v := range receivers {
		if v.disposed != 1 {
			t.Errorf("%s: expected disposed once, got %d", k, v.disposed)
		}
	}
}

func TestRegistryCloseReportsErrors(t *testing.T) {
	r := listener.New()
	want := errors.New("close failed")
	_ = r.Add("ok", &counted{})
	_ = r.Add("bad", &counted{closeErr: want})

	err := r.Close()
	if !errors.Is(err, want) {
		t.Errorf("expected joined close error, got %v", err)
	}
	if r.Len() != 0 {
		t.Error("expected registry to be emptied even when a close fails")
	}
}

func TestRefForwardsAction(t *testing.T) {
	r := listener.New()
	a := &counted{}
	_ = r.Add("console", a)

	ref, err := r.Ref("console")
	if err != nil {
		t.Fatalf("Ref: %v", err)
	}
	if ref.Key() != "console" {
		t.Errorf("expected key 'console', got %q", ref.Key())
	}
	if err := ref.Action("hit"); err != nil {
		t.Fatalf("Action: %v", err)
	}
	if len(a.messages) != 1 || a.messages[0] != "hit" {
		t.Errorf("expected message forwarded, got %v", a.messages)
	}
}

func TestRefMissingKey(t *testing.T) {
	r := listener.New()
	if _, err := r.Ref("missing"); !errors.Is(err, listener.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRefAfterDelete(t *testing.T) {
	r := listener.New()
	_ = r.Add("console", &counted{})
	ref, _ := r.Ref("console")

	r.Delete("console")

	if ref.Alive() {
		t.Error("expected ref to be dead after Delete")
	}
	if err := ref.Action("late"); !errors.Is(err, listener.ErrReceiverGone) {
		t.Errorf("expected ErrReceiverGone, got %v", err)
	}
}

func TestRefAfterReplace(t *testing.T) {
	r := listener.New()
	a, b := &counted{}, &counted{}
	_ = r.Add("console", a)
	ref, _ := r.Ref("console")

	_ = r.Add("console", b)

	if err := ref.Action("late"); !errors.Is(err, listener.ErrReceiverGone) {
		t.Errorf("expected ErrReceiverGone after replacement, got %v", err)
	}
	if len(b.messages) != 0 {
		t.Error("expected the replacement not to receive messages meant for the old receiver")
	}
}

func TestRefBoundToCommand(t *testing.T) {
	r := listener.New()
	_ = r.Add("console", &counted{})
	ref, _ := r.Ref("console")

	cmd := command.NewFunc("report", func(c *command.Func) error {
		return c.Report("hello")
	})
	cmd.SetReceiver(ref)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute with live receiver: %v", err)
	}

	r.Delete("console")
	if err := cmd.Execute(); !errors.Is(err, listener.ErrReceiverGone) {
		t.Errorf("expected ErrReceiverGone once the receiver is deleted, got %v", err)
	}
}
