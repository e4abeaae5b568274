package summary

import (
	"fmt"
	"testing"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
)

func day(h int) time.Time {
	return time.Date(2024, 3, 15, h, 0, 0, 0, time.UTC)
}

func rec(id string, source core.Source, ts time.Time) *core.NormalizedRecord {
	return &core.NormalizedRecord{
		ID:        core.RecordID(id),
		Source:    source,
		Timestamp: ts,
		Priority:  core.PriorityMedium,
	}
}

func TestSummarizeDay_Counts(t *testing.T) {
	records := []*core.NormalizedRecord{
		rec("e1", core.SourceEmail, day(9)),
		rec("e2", core.SourceEmail, day(11)),
		rec("m1", core.SourceMeeting, day(14)),
		rec("t1", core.SourceTask, day(16)),
		rec("prev", core.SourceEmail, day(0).Add(-time.Hour)),
		rec("next", core.SourceEmail, day(0).Add(24*time.Hour)),
	}

	s := SummarizeDay(records, day(0))

	if s.Counts[core.SourceEmail] != 2 {
		t.Errorf("email count = %d, want 2", s.Counts[core.SourceEmail])
	}
	if s.Counts[core.SourceMeeting] != 1 || s.Counts[core.SourceTask] != 1 {
		t.Errorf("counts = %v", s.Counts)
	}
	if s.Total() != 4 {
		t.Errorf("Total() = %d, want 4 (day boundaries are inclusive/exclusive)", s.Total())
	}
}

func TestSummarizeDay_CountsSumMatchesDayRecords(t *testing.T) {
	var records []*core.NormalizedRecord
	inDay := 0
	for i := 0; i < 50; i++ {
		ts := day(0).Add(time.Duration(i) * time.Hour) // spills into later days
		if i < 24 {
			inDay++
		}
		records = append(records, rec(fmt.Sprintf("r%d", i), core.SourceEmail, ts))
	}

	s := SummarizeDay(records, day(0))
	if s.Total() != inDay {
		t.Errorf("Total() = %d, want %d records on the day", s.Total(), inDay)
	}
}

func TestSummarizeDay_Highlights(t *testing.T) {
	urgent := rec("urgent", core.SourceEmail, day(10))
	urgent.Priority = core.PriorityHigh

	withActions := rec("actions", core.SourceMeeting, day(9))
	withActions.ActionItems = []string{"Follow up"}

	plain := rec("plain", core.SourceEmail, day(8))

	s := SummarizeDay([]*core.NormalizedRecord{urgent, withActions, plain}, day(0))

	if len(s.Highlights) != 2 {
		t.Fatalf("Highlights = %v, want 2", s.Highlights)
	}
	// Timestamp-ascending: the 9:00 meeting before the 10:00 email
	if s.Highlights[0] != "actions" || s.Highlights[1] != "urgent" {
		t.Errorf("Highlights order = %v, want [actions urgent]", s.Highlights)
	}
}

func TestSummarizeDay_HighlightsCapKeepsEarliest(t *testing.T) {
	var records []*core.NormalizedRecord
	for i := 0; i < 15; i++ {
		r := rec(fmt.Sprintf("h%d", i), core.SourceEmail, day(0).Add(time.Duration(i)*time.Minute))
		r.Priority = core.PriorityHigh
		records = append(records, r)
	}

	s := SummarizeDay(records, day(0))

	if len(s.Highlights) != core.MaxHighlights {
		t.Fatalf("Highlights length = %d, want cap %d", len(s.Highlights), core.MaxHighlights)
	}
	if s.Highlights[0] != "h0" || s.Highlights[core.MaxHighlights-1] != core.RecordID(fmt.Sprintf("h%d", core.MaxHighlights-1)) {
		t.Errorf("cap should keep the earliest qualifying records: %v", s.Highlights)
	}
}

func TestSummarizeDay_Idempotent(t *testing.T) {
	records := []*core.NormalizedRecord{
		rec("e1", core.SourceEmail, day(9)),
		rec("m1", core.SourceMeeting, day(14)),
	}

	first := SummarizeDay(records, day(0))
	second := SummarizeDay(records, day(0))

	if first.Total() != second.Total() || len(first.Highlights) != len(second.Highlights) {
		t.Error("SummarizeDay is not idempotent")
	}
	if !first.Date.Equal(second.Date) {
		t.Errorf("dates differ: %v vs %v", first.Date, second.Date)
	}
}

func TestSummarizeDay_EmptyDay(t *testing.T) {
	s := SummarizeDay(nil, day(0))

	if s.Total() != 0 {
		t.Errorf("Total() = %d, want 0", s.Total())
	}
	if len(s.Highlights) != 0 {
		t.Errorf("Highlights = %v, want empty", s.Highlights)
	}
	if len(s.Insights) != 0 {
		t.Errorf("Insights = %v, want none for an empty day", s.Insights)
	}
}

func TestSummarizeDay_Insights(t *testing.T) {
	var records []*core.NormalizedRecord
	for i := 0; i < 5; i++ {
		records = append(records, rec(fmt.Sprintf("m%d", i), core.SourceMeeting, day(9+i)))
	}
	urgent := rec("u1", core.SourceEmail, day(8))
	urgent.Priority = core.PriorityHigh
	records = append(records, urgent)

	s := SummarizeDay(records, day(0))

	foundMeetings := false
	foundHigh := false
	for _, in := range s.Insights {
		if in == "Heavy meeting day: 5 meetings" {
			foundMeetings = true
		}
		if in == "1 high priority item need attention" || in == "1 high priority item needs attention" {
			foundHigh = true
		}
	}
	if !foundMeetings {
		t.Errorf("Insights = %v, want heavy meeting day note", s.Insights)
	}
	if !foundHigh {
		t.Errorf("Insights = %v, want high priority note", s.Insights)
	}
}
