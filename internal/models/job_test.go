package models

import (
	"testing"
	"time"
)

func TestJob_Lifecycle(t *testing.T) {
	store := NewJobStore()
	j := store.Create("generate-descriptor", "portal-1", "name=Lab Desktop")
	if j.ID == "" {
		t.Fatal("Create did not assign an ID")
	}
	if j.State() != JobRunning || j.Done() {
		t.Fatalf("new job state = %q, want running", j.State())
	}
	if _, ok := j.Descriptor(); ok {
		t.Error("Descriptor should not be available while running")
	}

	j.AppendLog("one")
	j.AppendLog("two")
	if got := j.LogsSince(1); len(got) != 1 || got[0] != "two" {
		t.Errorf("LogsSince(1) = %v, want [two]", got)
	}
	if got := j.LogsSince(5); got != nil {
		t.Errorf("LogsSince(5) = %v, want nil", got)
	}

	j.Complete("[WFClient]")
	if !j.Done() || j.FinishedAt == nil {
		t.Fatal("Complete did not finish the job")
	}
	if d, ok := j.Descriptor(); !ok || d != "[WFClient]" {
		t.Errorf("Descriptor() = (%q, %v)", d, ok)
	}

	snap := j.Snapshot()
	snap.Output[0] = "mutated"
	if j.LogsSince(0)[0] != "one" {
		t.Error("Snapshot shares the output slice with the job")
	}
}

func TestJob_Fail(t *testing.T) {
	j := NewJobStore().Create("generate-descriptor", "p", "")
	j.Fail("boom")
	if j.State() != JobFailed || j.Error != "boom" {
		t.Errorf("Fail: state=%q error=%q", j.State(), j.Error)
	}
	if _, ok := j.Descriptor(); ok {
		t.Error("failed job must not expose a descriptor")
	}
}

func TestJobStore_ListOrder(t *testing.T) {
	store := NewJobStore()
	older := store.Create("generate-descriptor", "p", "")
	older.StartedAt = time.Now().Add(-time.Minute)
	newer := store.Create("generate-descriptor", "p", "")

	list := store.List()
	if len(list) != 2 || list[0] != newer || list[1] != older {
		t.Errorf("List() not sorted most recent first")
	}
	if store.Get(newer.ID) != newer {
		t.Error("Get did not return the created job")
	}
}
