package storage

import (
	"testing"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
)

func TestSummaryStore_PutGet(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	store := NewSummaryStore(db)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	summary := &core.DailySummary{
		Date:       day,
		Counts:     map[core.Source]int{core.SourceEmail: 2, core.SourceMeeting: 1},
		Highlights: []core.RecordID{"email-1"},
		Insights:   []string{"1 high priority item needs attention"},
	}

	if err := store.Put(user.ID, summary); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(user.ID, day)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil for cached day")
	}
	if got.Total() != 3 || len(got.Highlights) != 1 || got.Highlights[0] != "email-1" {
		t.Errorf("summary = %+v", got)
	}
}

func TestSummaryStore_Miss(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	store := NewSummaryStore(db)

	got, err := store.Get(user.ID, time.Now())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil on miss", got)
	}
}

func TestSummaryStore_PutReplaces(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	store := NewSummaryStore(db)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	store.Put(user.ID, &core.DailySummary{Date: day, Counts: map[core.Source]int{core.SourceEmail: 1}})

	if err := store.Put(user.ID, &core.DailySummary{Date: day, Counts: map[core.Source]int{core.SourceEmail: 5}}); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	got, err := store.Get(user.ID, day)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Counts[core.SourceEmail] != 5 {
		t.Errorf("count = %d, want replaced value 5", got.Counts[core.SourceEmail])
	}
}

func TestSummaryStore_Delete(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	store := NewSummaryStore(db)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	store.Put(user.ID, &core.DailySummary{Date: day})

	if err := store.Delete(user.ID, day); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, _ := store.Get(user.ID, day)
	if got != nil {
		t.Error("summary should be gone after Delete")
	}
}
