package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/cover-rota/internal/domain"
)

// CandidateProfile is the ground truth sent for one potential cover.
type CandidateProfile struct {
	Name            string         `json:"name"`
	Role            string         `json:"role"`
	CanCoverPeriods bool           `json:"can_cover_periods"`
	Profile         string         `json:"profile"`
	IsPriority      bool           `json:"is_priority"`
	IsSpecialist    bool           `json:"is_specialist"`
	FreePeriods     []int          `json:"free_periods"`
	BusyPeriods     map[int]string `json:"busy_periods"`
	CalendarEvents  map[int]string `json:"calendar_events"`
}

// CoverRequest is everything the ranking prompt needs.
type CoverRequest struct {
	AbsentName string
	Day        time.Weekday
	Periods    []domain.Period
	Candidates []CandidateProfile
}

// Assistant phrases cover suggestions and reports. Its output is opaque text; failures are
// returned as "Error: ..." strings so callers can embed them in a response.
type Assistant struct {
	gen    TextGenerator
	logger *zap.Logger
}

// NewAssistant wraps gen. A nil gen behaves as an unconfigured generator.
func NewAssistant(gen TextGenerator, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{gen: gen, logger: logger}
}

// SuggestCover asks for the best cover per period.
func (a *Assistant) SuggestCover(ctx context.Context, req CoverRequest) string {
	if a.gen == nil {
		return notConfiguredMessage()
	}
	prompt, err := BuildCoverPrompt(req)
	if err != nil {
		return "Error: Failed to generate AI content. " + err.Error()
	}
	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		a.logger.Error("cover suggestion generation failed", zap.Error(err))
		return "Error: Failed to generate AI content. " + err.Error()
	}
	return text
}

// Report answers a free-text question over a plain-text data summary.
func (a *Assistant) Report(ctx context.Context, query, dataContext string) string {
	if a.gen == nil {
		return notConfiguredMessage()
	}
	text, err := a.gen.Generate(ctx, BuildReportPrompt(query, dataContext))
	if err != nil {
		a.logger.Error("report generation failed", zap.Error(err))
		return "Error: Failed to generate report. " + err.Error()
	}
	return text
}

func notConfiguredMessage() string {
	return "Error: " + ErrNotConfigured.Error() + "."
}

// BuildCoverPrompt renders the ranking rules around the candidate profiles.
func BuildCoverPrompt(req CoverRequest) (string, error) {
	profiles, err := json.MarshalIndent(req.Candidates, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode candidates: %w", err)
	}
	periods := make([]string, 0, len(req.Periods))
	for _, p := range req.Periods {
		periods = append(periods, fmt.Sprint(int(p)))
	}

	var b strings.Builder
	b.WriteString("Internal School Cover System:\n\n")
	fmt.Fprintf(&b, "Teacher Absent: %s\n", req.AbsentName)
	fmt.Fprintf(&b, "Day: %s\n", req.Day)
	fmt.Fprintf(&b, "Periods Required: [%s]\n\n", strings.Join(periods, ", "))
	b.WriteString("Available staff with their specialty, priority and schedule:\n")
	b.Write(profiles)
	b.WriteString("\n\n")
	b.WriteString(coverRules)
	return b.String(), nil
}

const coverRules = `Goal: Pick the best cover for each period.
Constraints:
1. Dedicated cover staff (is_priority: true) are the first port of call.
2. Specialist and non-form teachers (is_specialist: true) come next as they have no form of their own.
3. Match specialties where possible, for example Music for Music.
4. Busy times:
   - busy_periods is the regular timetable (for example "Year 4 Lesson"). These are hard to move.
   - calendar_events are Outlook/ICS events (for example "Meeting with Head").
   - If nobody is free, you may suggest someone whose busy activity looks like a meeting or planning
     time that could be moved. Name the event and suggest they move it.
   - Do not pull someone from class teaching unless there is no alternative.
5. CRITICAL: staff with can_cover_periods: false cannot cover teaching periods 1-8. They may only
   cover duties (before school, lunch, break, after school). Never suggest them for classes.
6. Explain why you chose each person, mentioning any meeting they would have to move.

Output format: concise text explaining the selection per period.
`

// BuildReportPrompt frames a reporting question over historical data.
func BuildReportPrompt(query, dataContext string) string {
	var b strings.Builder
	b.WriteString("Internal School Rota Report Generator:\n\n")
	b.WriteString("You are an assistant for a school cover system. You have the following historical data:\n\n")
	b.WriteString(dataContext)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "User Query: %s\n\n", query)
	b.WriteString("Goal: Provide a concise and accurate report based only on the data provided.\n")
	b.WriteString("Be specific when asked for counts. If the data cannot answer the query, say so.\n\n")
	b.WriteString("Output format: concise, professional text or a small table if appropriate.\n")
	return b.String()
}
