package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/repository"
	apperrors "github.com/spec-kit/cover-rota/pkg/util/errorutil"
)

const reportHistoryLimit = 100

// ReportService answers free-text questions over recent absence and cover history.
type ReportService struct {
	absences repository.AbsenceRepository
	covers   repository.CoverRepository
	advisor  Advisor
	loc      *time.Location
}

// ReportDependencies bundles collaborators.
type ReportDependencies struct {
	AbsenceRepo repository.AbsenceRepository
	CoverRepo   repository.CoverRepository
	Advisor     Advisor
	Location    *time.Location
}

// NewReportService creates the service.
func NewReportService(deps ReportDependencies) *ReportService {
	return &ReportService{
		absences: deps.AbsenceRepo,
		covers:   deps.CoverRepo,
		advisor:  deps.Advisor,
		loc:      locationOrUTC(deps.Location),
	}
}

// GenerateReport returns the advisor's answer. Generation failures come back as an
// "Error: ..." string, not an error.
func (s *ReportService) GenerateReport(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", apperrors.NewValidationError("query is required", nil)
	}
	absences, err := s.absences.ListRecent(ctx, reportHistoryLimit)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	covers, err := s.covers.ListRecent(ctx, reportHistoryLimit)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	return s.advisor.Report(ctx, query, s.summarize(absences, covers)), nil
}

// summarize renders history oldest first, one line per record.
func (s *ReportService) summarize(absences []domain.Absence, covers []domain.LedgerEntry) string {
	var b strings.Builder
	b.WriteString("Staff Absences:\n")
	for i := len(absences) - 1; i >= 0; i-- {
		a := absences[i]
		fmt.Fprintf(&b, "- Staff: %s, Date: %s, Periods: %d-%d\n",
			a.StaffName, domain.DateIn(a.Date, s.loc).Format(dateLayout), a.StartPeriod, a.EndPeriod)
	}
	b.WriteString("\nCover Assignments:\n")
	for i := len(covers) - 1; i >= 0; i-- {
		c := covers[i]
		fmt.Fprintf(&b, "- Covering Staff: %s, Covered For: %s, Date: %s, Period: %d\n",
			c.CoveringName, c.AbsentName, domain.DateIn(c.Date, s.loc).Format(dateLayout), c.Period)
	}
	return b.String()
}
