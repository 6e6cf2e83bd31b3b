package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/cover-rota/internal/domain"
)

func TestPeriodList_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    PeriodList
		wantErr bool
	}{
		{name: "array", body: `{"periods":[1,3,9]}`, want: PeriodList{1, 3, 9}},
		{name: "comma string", body: `{"periods":"1, 3,4"}`, want: PeriodList{1, 3, 4}},
		{name: "unknown period", body: `{"periods":[12]}`, wantErr: true},
		{name: "bad string", body: `{"periods":"one"}`, wantErr: true},
		{name: "object", body: `{"periods":{"p":1}}`, wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var req AssignCoverRequest
			err := json.Unmarshal([]byte(c.body), &req)
			if c.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, req.Periods)
		})
	}
}

func TestNewStaffResponse_HidesFeed(t *testing.T) {
	url := "https://outlook.example/owa/calendar/secret/reachcalendar.ics"
	resp := NewStaffResponse(domain.StaffMember{Name: "Dan", Role: domain.StaffRoleTeacher, CalendarURL: &url})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.True(t, resp.HasCalendar)
}
