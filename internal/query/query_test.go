package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
	"github.com/glassdesk/glassdesk/internal/storage"
)

// fakeGenerator is an llm.Generator that records the prompt it saw
type fakeGenerator struct {
	reply      string
	err        error
	lastSystem string
	lastPrompt string
	calls      int
}

func (f *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	f.lastSystem = system
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func rec(id string, source core.Source, ts time.Time) *core.NormalizedRecord {
	return &core.NormalizedRecord{
		ID:        core.RecordID(id),
		Source:    source,
		Timestamp: ts,
		Title:     "Record " + id,
		Priority:  core.PriorityMedium,
		Status:    core.StatusUnknown,
	}
}

// =============================================================================
// Classifier Tests
// =============================================================================

func TestClassifier_Categories(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	tests := []struct {
		question string
		want     core.QueryCategory
	}{
		{"What are my action items?", core.CategoryActionItems},
		{"What happened today?", core.CategoryDailySummary},
		{"What's most urgent? Show my priorities", core.CategoryPriorities},
		{"What is due this week? Any deadlines?", core.CategoryDeadlines},
		{"When was my last zoom meeting?", core.CategoryMeetingInfo},
		{"Summarize my inbox emails", core.CategoryEmailSummary},
		{"Give me an overview", core.CategoryGeneralSummary},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got, conf := c.Classify(tt.question)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.question, got, tt.want)
			}
			if conf < 0 || conf > 1 {
				t.Errorf("confidence = %v, want in [0,1]", conf)
			}
		})
	}
}

func TestClassifier_NoMatches(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	got, conf := c.Classify("xyzzy plugh")
	if got != core.CategoryGeneralSummary {
		t.Errorf("Classify() = %v, want general_summary fallback", got)
	}
	if conf != 0 {
		t.Errorf("confidence = %v, want 0 when nothing matches", conf)
	}
}

func TestClassifier_TieFallsBackToGeneral(t *testing.T) {
	c := NewClassifier(ClassifierConfig{
		Keywords: map[core.QueryCategory][]string{
			core.CategoryDeadlines:   {"thing"},
			core.CategoryMeetingInfo: {"thing"},
		},
	})

	got, _ := c.Classify("one thing")
	if got != core.CategoryGeneralSummary {
		t.Errorf("Classify() = %v, want general_summary on tie", got)
	}
}

func TestClassifier_ConfidenceFormula(t *testing.T) {
	c := NewClassifier(ClassifierConfig{
		Keywords: map[core.QueryCategory][]string{
			core.CategoryDeadlines:    {"due"},
			core.CategoryEmailSummary: {"email"},
		},
	})

	// "due" twice, "email" once: winner 2, total 3, conf 2/4
	_, conf := c.Classify("the report is due and the invoice is due, check email")
	if conf != 0.5 {
		t.Errorf("confidence = %v, want 0.5 (winner / total+1)", conf)
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	firstCat, firstConf := c.Classify("what meetings do I have today")
	for i := 0; i < 20; i++ {
		cat, conf := c.Classify("what meetings do I have today")
		if cat != firstCat || conf != firstConf {
			t.Fatalf("Classify() varied: (%v, %v) then (%v, %v)", firstCat, firstConf, cat, conf)
		}
	}
}

// =============================================================================
// Retriever Tests
// =============================================================================

func TestRetriever_ActionItems(t *testing.T) {
	r := NewRetriever(10, 10000)
	now := time.Now().UTC()

	meeting := rec("mtg", core.SourceMeeting, now)
	meeting.ActionItems = []string{"Follow up with design team"}
	task := rec("task", core.SourceTask, now)

	got := r.Retrieve(core.CategoryActionItems, []*core.NormalizedRecord{meeting, task})
	if len(got) != 1 || got[0].ID != "mtg" {
		t.Errorf("Retrieve() = %v, want only the record with action items", got)
	}
}

func TestRetriever_Deadlines_OpenTasksSoonestFirst(t *testing.T) {
	r := NewRetriever(10, 10000)
	base := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	later := rec("later", core.SourceTask, base.Add(72*time.Hour))
	later.Status = core.StatusOpen
	soon := rec("soon", core.SourceTask, base.Add(24*time.Hour))
	soon.Status = core.StatusOpen
	done := rec("done", core.SourceTask, base)
	done.Status = core.StatusCompleted
	email := rec("email", core.SourceEmail, base)

	got := r.Retrieve(core.CategoryDeadlines, []*core.NormalizedRecord{later, soon, done, email})
	if len(got) != 2 {
		t.Fatalf("Retrieve() = %d records, want 2 open tasks", len(got))
	}
	if got[0].ID != "soon" || got[1].ID != "later" {
		t.Errorf("order = [%s %s], want soonest due first", got[0].ID, got[1].ID)
	}
}

func TestRetriever_Priorities_MostRecentFirst(t *testing.T) {
	r := NewRetriever(10, 10000)
	base := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	old := rec("old", core.SourceEmail, base)
	old.Priority = core.PriorityHigh
	recent := rec("recent", core.SourceMeeting, base.Add(5*time.Hour))
	recent.Priority = core.PriorityHigh
	medium := rec("medium", core.SourceEmail, base.Add(6*time.Hour))

	got := r.Retrieve(core.CategoryPriorities, []*core.NormalizedRecord{old, recent, medium})
	if len(got) != 2 {
		t.Fatalf("Retrieve() = %d records, want 2 high priority", len(got))
	}
	if got[0].ID != "recent" {
		t.Errorf("first = %s, want most recent", got[0].ID)
	}
}

func TestRetriever_MeetingsAndEmails_Descending(t *testing.T) {
	r := NewRetriever(10, 10000)
	base := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	records := []*core.NormalizedRecord{
		rec("m1", core.SourceMeeting, base),
		rec("m2", core.SourceMeeting, base.Add(time.Hour)),
		rec("e1", core.SourceEmail, base.Add(2*time.Hour)),
	}

	meetings := r.Retrieve(core.CategoryMeetingInfo, records)
	if len(meetings) != 2 || meetings[0].ID != "m2" {
		t.Errorf("meeting retrieval = %v, want [m2 m1]", meetings)
	}

	emails := r.Retrieve(core.CategoryEmailSummary, records)
	if len(emails) != 1 || emails[0].ID != "e1" {
		t.Errorf("email retrieval = %v, want [e1]", emails)
	}
}

func TestRetriever_GeneralSummary_MostRecentDay(t *testing.T) {
	r := NewRetriever(10, 10000)
	day1 := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	records := []*core.NormalizedRecord{
		rec("old", core.SourceEmail, day1),
		rec("b", core.SourceMeeting, day2.Add(2*time.Hour)),
		rec("a", core.SourceEmail, day2),
	}

	got := r.Retrieve(core.CategoryGeneralSummary, records)
	if len(got) != 2 {
		t.Fatalf("Retrieve() = %d records, want 2 from the latest day", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("order = [%s %s], want ascending within the day", got[0].ID, got[1].ID)
	}
}

func TestRetriever_MaxItemsBudget(t *testing.T) {
	r := NewRetriever(3, 100000)
	now := time.Now().UTC()

	var records []*core.NormalizedRecord
	for i := 0; i < 10; i++ {
		e := rec(fmt.Sprintf("e%d", i), core.SourceEmail, now.Add(time.Duration(i)*time.Minute))
		records = append(records, e)
	}

	got := r.Retrieve(core.CategoryEmailSummary, records)
	if len(got) != 3 {
		t.Errorf("Retrieve() = %d records, want max_items 3", len(got))
	}
}

func TestRetriever_MaxCharsBudget(t *testing.T) {
	r := NewRetriever(10, 100)
	now := time.Now().UTC()

	small := rec("small", core.SourceEmail, now.Add(time.Hour))
	small.Body = strings.Repeat("a", 50)
	big := rec("big", core.SourceEmail, now)
	big.Body = strings.Repeat("b", 200)

	// Descending order puts small first; big would blow the budget
	got := r.Retrieve(core.CategoryEmailSummary, []*core.NormalizedRecord{small, big})
	if len(got) != 1 || got[0].ID != "small" {
		t.Errorf("Retrieve() = %v, record exceeding char budget must be dropped whole", got)
	}

	total := 0
	for _, g := range got {
		total += g.ContentLength()
	}
	if total > 100 {
		t.Errorf("combined chars = %d, exceeds budget", total)
	}
}

func TestRetriever_EmptyRecordSet(t *testing.T) {
	r := NewRetriever(10, 1000)

	got := r.Retrieve(core.CategoryActionItems, nil)
	if len(got) != 0 {
		t.Errorf("Retrieve() = %v, want empty for empty input", got)
	}
}

// =============================================================================
// Composer Tests
// =============================================================================

func TestComposer_Success(t *testing.T) {
	gen := &fakeGenerator{reply: "You have one action item."}
	c := NewComposer(gen)

	meeting := rec("mtg", core.SourceMeeting, time.Now().UTC())
	meeting.ActionItems = []string{"Follow up with design team"}

	result := c.Compose(context.Background(), "What are my action items?",
		core.CategoryActionItems, 0.8, []*core.NormalizedRecord{meeting})

	if result.ResponseText != "You have one action item." {
		t.Errorf("ResponseText = %q", result.ResponseText)
	}
	if result.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want classifier confidence kept", result.Confidence)
	}
	if len(result.ContextRecords) != 1 || result.ContextRecords[0] != "mtg" {
		t.Errorf("ContextRecords = %v", result.ContextRecords)
	}
	if !strings.Contains(gen.lastPrompt, "Follow up with design team") {
		t.Errorf("prompt should contain the action item text:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "What are my action items?") {
		t.Error("prompt should contain the verbatim question")
	}
}

func TestComposer_LLMFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("timeout")}
	c := NewComposer(gen)

	email := rec("e1", core.SourceEmail, time.Now().UTC())
	result := c.Compose(context.Background(), "anything",
		core.CategoryEmailSummary, 0.7, []*core.NormalizedRecord{email})

	if result.ResponseText != FallbackResponse {
		t.Errorf("ResponseText = %q, want fixed fallback", result.ResponseText)
	}
	if result.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0 on failure", result.Confidence)
	}
	// Category and context kept for diagnostics
	if result.Category != core.CategoryEmailSummary || len(result.ContextRecords) != 1 {
		t.Errorf("diagnostic fields lost: %+v", result)
	}
}

func TestBuildPrompt_EmptyContext(t *testing.T) {
	prompt := BuildPrompt("What's new?", nil)

	if !strings.Contains(prompt, noContextMarker) {
		t.Errorf("prompt missing no-data marker:\n%s", prompt)
	}
	if !strings.Contains(prompt, "What's new?") {
		t.Error("prompt missing question")
	}
}

func TestBuildPrompt_TruncatesBody(t *testing.T) {
	r := rec("e1", core.SourceEmail, time.Now().UTC())
	r.Body = strings.Repeat("x", 1000)

	prompt := BuildPrompt("q", []*core.NormalizedRecord{r})
	if strings.Contains(prompt, strings.Repeat("x", 1000)) {
		t.Error("prompt should truncate long bodies")
	}
	if !strings.Contains(prompt, strings.Repeat("x", promptBodyLimit)+"...") {
		t.Error("prompt should keep the truncated prefix")
	}
}

// =============================================================================
// Service Tests
// =============================================================================

func testService(t *testing.T, gen *fakeGenerator, semantic SemanticSearcher) (*Service, *storage.RecordStore) {
	t.Helper()
	db, err := storage.Open(storage.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	user := &core.User{ID: "user-1", Email: "test@example.com"}
	if err := storage.NewUserStore(db).Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	records := storage.NewRecordStore(db)
	svc := NewService(records,
		NewClassifier(DefaultClassifierConfig()),
		NewRetriever(20, 8000),
		NewComposer(gen),
		semantic,
	)
	return svc, records
}

func TestService_ActionItemScenario(t *testing.T) {
	gen := &fakeGenerator{reply: "Follow up with the design team."}
	svc, records := testService(t, gen, nil)

	meeting := rec("mtg-1", core.SourceMeeting, time.Now().UTC())
	meeting.ActionItems = []string{"Follow up with design team"}
	task := rec("task-1", core.SourceTask, time.Now().UTC())
	task.Status = core.StatusOpen

	records.Upsert("user-1", meeting)
	records.Upsert("user-1", task)

	result, err := svc.AnswerQuery(context.Background(), "user-1", "What are my action items?")
	if err != nil {
		t.Fatalf("AnswerQuery() error = %v", err)
	}

	if result.Category != core.CategoryActionItems {
		t.Errorf("Category = %v, want action_items", result.Category)
	}
	if len(result.ContextRecords) != 1 || result.ContextRecords[0] != "mtg-1" {
		t.Errorf("ContextRecords = %v, want exactly the meeting", result.ContextRecords)
	}
	if !strings.Contains(gen.lastPrompt, "Follow up with design team") {
		t.Errorf("prompt missing action item:\n%s", gen.lastPrompt)
	}
}

func TestService_EmptyRecordSet(t *testing.T) {
	gen := &fakeGenerator{reply: "I have no data about your work yet."}
	svc, _ := testService(t, gen, nil)

	result, err := svc.AnswerQuery(context.Background(), "user-1", "Summarize my day")
	if err != nil {
		t.Fatalf("AnswerQuery() error = %v", err)
	}

	if len(result.ContextRecords) != 0 {
		t.Errorf("ContextRecords = %v, want empty", result.ContextRecords)
	}
	if !strings.Contains(gen.lastPrompt, noContextMarker) {
		t.Error("prompt should carry the no-data marker so the LLM does not fabricate")
	}
}

func TestService_LLMTimeout(t *testing.T) {
	gen := &fakeGenerator{err: context.DeadlineExceeded}
	svc, records := testService(t, gen, nil)

	records.Upsert("user-1", rec("e1", core.SourceEmail, time.Now().UTC()))

	result, err := svc.AnswerQuery(context.Background(), "user-1", "summarize my email")
	if err != nil {
		t.Fatalf("AnswerQuery() error = %v, LLM failure must not propagate", err)
	}
	if result.ResponseText != FallbackResponse {
		t.Errorf("ResponseText = %q, want fallback", result.ResponseText)
	}
	if result.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", result.Confidence)
	}
}

func TestService_EmptyQuestion(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := testService(t, gen, nil)

	_, err := svc.AnswerQuery(context.Background(), "user-1", "   ")
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("AnswerQuery() error = %v, want ErrInvalidInput", err)
	}
}

type fakeSemantic struct {
	ids []core.RecordID
	err error
}

func (f *fakeSemantic) Search(ctx context.Context, userID, question string, limit int) ([]core.RecordID, error) {
	return f.ids, f.err
}

func TestService_SemanticSearchForGeneral(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	semantic := &fakeSemantic{ids: []core.RecordID{"e2"}}
	svc, records := testService(t, gen, semantic)

	records.Upsert("user-1", rec("e1", core.SourceEmail, time.Now().UTC()))
	records.Upsert("user-1", rec("e2", core.SourceEmail, time.Now().UTC().Add(-48*time.Hour)))

	result, err := svc.AnswerQuery(context.Background(), "user-1", "give me an overview")
	if err != nil {
		t.Fatalf("AnswerQuery() error = %v", err)
	}
	if len(result.ContextRecords) != 1 || result.ContextRecords[0] != "e2" {
		t.Errorf("ContextRecords = %v, want semantic pick [e2]", result.ContextRecords)
	}
}

func TestService_SemanticFailureFallsBack(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	semantic := &fakeSemantic{err: errors.New("qdrant down")}
	svc, records := testService(t, gen, semantic)

	records.Upsert("user-1", rec("e1", core.SourceEmail, time.Now().UTC()))

	result, err := svc.AnswerQuery(context.Background(), "user-1", "give me an overview")
	if err != nil {
		t.Fatalf("AnswerQuery() error = %v", err)
	}
	if len(result.ContextRecords) != 1 {
		t.Errorf("ContextRecords = %v, want rule-based fallback to find e1", result.ContextRecords)
	}
}
