package vectors

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/glassdesk/glassdesk/internal/core"
)

func TestPointID_Deterministic(t *testing.T) {
	rec := &core.NormalizedRecord{ID: "email-1", Source: core.SourceEmail}

	a := pointID("user-1", rec)
	b := pointID("user-1", rec)
	if a != b {
		t.Errorf("pointID not stable: %s vs %s", a, b)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("pointID is not a UUID: %s", a)
	}
}

func TestPointID_DistinguishesUsersAndSources(t *testing.T) {
	rec := &core.NormalizedRecord{ID: "shared-id", Source: core.SourceEmail}
	task := &core.NormalizedRecord{ID: "shared-id", Source: core.SourceTask}

	if pointID("user-1", rec) == pointID("user-2", rec) {
		t.Error("same point ID across users")
	}
	if pointID("user-1", rec) == pointID("user-1", task) {
		t.Error("same point ID across sources")
	}
}

func TestIndexText(t *testing.T) {
	rec := &core.NormalizedRecord{
		Title:       "Roadmap review",
		Body:        "Agreed on the dashboard.",
		ActionItems: []string{"Draft the spec", "Schedule review"},
	}

	text := indexText(rec)
	for _, want := range []string{"Roadmap review", "Agreed on the dashboard.", "Draft the spec"} {
		if !strings.Contains(text, want) {
			t.Errorf("indexText missing %q in %q", want, text)
		}
	}
}

func TestIndexText_EmptyActionItems(t *testing.T) {
	rec := &core.NormalizedRecord{Title: "FYI", Body: "No action."}
	if got := indexText(rec); got != "FYI\n\nNo action." {
		t.Errorf("indexText() = %q", got)
	}
}

func TestBuildFilter(t *testing.T) {
	if buildFilter(nil) != nil {
		t.Error("empty filter should be nil")
	}

	f := buildFilter(map[string]string{"user_id": "user-1"})
	if f == nil || len(f.Must) != 1 {
		t.Fatalf("filter = %+v", f)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	in := map[string]any{
		"user_id": "user-1",
		"count":   int64(3),
		"score":   0.5,
		"unread":  true,
	}

	out := fromQdrantPayload(toQdrantPayload(in))
	if out["user_id"] != "user-1" || out["count"] != int64(3) || out["score"] != 0.5 || out["unread"] != true {
		t.Errorf("round trip = %+v", out)
	}
}
