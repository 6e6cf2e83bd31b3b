package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/cover-rota/internal/domain"
)

func TestEligible(t *testing.T) {
	staff := []domain.StaffMember{
		{ID: 1, Name: "Teacher", Active: true, CanCoverPeriods: true},
		{ID: 2, Name: "B", Active: true, CanCoverPeriods: false},
		{ID: 3, Name: "Left", Active: false, CanCoverPeriods: true},
	}

	names := func(in []domain.StaffMember) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Teacher"}, names(Eligible(staff, []domain.Period{2})))
	assert.Equal(t, []string{"Teacher"}, names(Eligible(staff, []domain.Period{9, 2})))
	assert.Equal(t, []string{"Teacher", "B"}, names(Eligible(staff, []domain.Period{domain.PeriodLunch})))
}

func TestResolver_Board(t *testing.T) {
	ctx := context.Background()
	formTeacher := domain.StaffMember{ID: 1, Name: "Form", Active: true, CanCoverPeriods: true}
	specialist := domain.StaffMember{ID: 2, Name: "Spec", Active: true, CanCoverPeriods: true, IsSpecialist: true}
	busyForm := domain.StaffMember{ID: 3, Name: "BusyForm", Active: true, CanCoverPeriods: true}
	dutyOnly := domain.StaffMember{ID: 4, Name: "B", Active: true, CanCoverPeriods: false}

	tt := &fakeTimetable{}
	tt.set(1, time.Thursday,
		domain.ScheduleEntry{Period: 3, Activity: "6 RG Music", IsFree: true},
		domain.ScheduleEntry{Period: 4, Activity: "Y6 Thai", IsFree: true},
		free(9))
	tt.set(2, time.Thursday, lesson(3, "Y3 PE"), free(4), free(9))
	tt.set(3, time.Thursday, lesson(3, "Y1 Phonics"), free(4), free(9))
	tt.set(4, time.Thursday, free(9))
	resolver := NewResolver(ResolverDependencies{Timetable: tt})
	staff := []domain.StaffMember{formTeacher, specialist, busyForm, dutyOnly}

	t.Run("free form teacher shows the released class", func(t *testing.T) {
		board, err := resolver.Board(ctx, staff, time.Thursday, []domain.Period{3}, thursday, nil, false)
		require.NoError(t, err)

		require.Len(t, board, 2)
		assert.Equal(t, "Form", board[0].Staff.Name)
		assert.True(t, board[0].IsFree)
		assert.Equal(t, "class doing 6 RG Music", board[0].Activity)

		assert.Equal(t, "Spec", board[1].Staff.Name)
		assert.False(t, board[1].IsFree)
		assert.Equal(t, "Y3 PE", board[1].Activity)
	})

	t.Run("several released classes", func(t *testing.T) {
		board, err := resolver.Board(ctx, staff, time.Thursday, []domain.Period{3, 4}, thursday, nil, false)
		require.NoError(t, err)

		require.NotEmpty(t, board)
		assert.Equal(t, "Various Activities", board[0].Activity)
	})

	t.Run("include busy lists hidden form teachers", func(t *testing.T) {
		board, err := resolver.Board(ctx, staff, time.Thursday, []domain.Period{3}, thursday, nil, true)
		require.NoError(t, err)

		require.Len(t, board, 3)
		assert.Equal(t, "BusyForm", board[2].Staff.Name)
		assert.Equal(t, "Y1 Phonics", board[2].Activity)
	})

	t.Run("duty-only staff appear for lunch", func(t *testing.T) {
		board, err := resolver.Board(ctx, staff, time.Thursday, []domain.Period{domain.PeriodLunch}, thursday, nil, false)
		require.NoError(t, err)

		require.Len(t, board, 4)
		assert.Equal(t, "B", board[3].Staff.Name)
		assert.True(t, board[3].IsFree)
		assert.Equal(t, "Free", board[3].Activity)
	})

	t.Run("duty-only staff busy covering lunch stay hidden", func(t *testing.T) {
		ledger := domain.NewLedger([]domain.LedgerEntry{{CoveringStaffID: 4, Period: domain.PeriodLunch, AbsentName: "Claire"}})

		board, err := resolver.Board(ctx, staff, time.Thursday, []domain.Period{domain.PeriodLunch}, thursday, ledger, false)
		require.NoError(t, err)

		for _, l := range board {
			assert.NotEqual(t, "B", l.Staff.Name)
		}
	})

	t.Run("specialist free period reads Free", func(t *testing.T) {
		board, err := resolver.Board(ctx, []domain.StaffMember{specialist}, time.Thursday, []domain.Period{4}, thursday, nil, false)
		require.NoError(t, err)

		require.Len(t, board, 1)
		assert.Equal(t, "Free", board[0].Activity)
	})
}
