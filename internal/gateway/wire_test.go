package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeGroup(t *testing.T, raw string) groupWire {
	t.Helper()
	var w groupWire
	require.NoError(t, json.Unmarshal([]byte(raw), &w))
	return w
}

func TestNormalizeGroupSpellingsAgree(t *testing.T) {
	spellings := []string{
		`{"mTask_id": 12, "mTask_name": "Launch", "assigned_by": 7, "is_active": 1, "creation_date": "2024-03-01T10:00:00"}`,
		`{"main_task_id": 12, "main_task_name": "Launch", "assigned_by": 7, "is_active": 1, "creation_date": "2024-03-01T10:00:00"}`,
		`{"task_id": 12, "task_name": "Launch", "assigned_by": 7, "is_active": 1, "creation_date": "2024-03-01 10:00:00"}`,
	}
	want := normalizeGroup(decodeGroup(t, spellings[0]))
	assert.Equal(t, int64(12), want.ID)
	assert.Equal(t, "Launch", want.Name)
	assert.Equal(t, int64(7), want.OwnerID)
	assert.True(t, want.Active)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), want.CreatedAt)

	for _, raw := range spellings[1:] {
		assert.Equal(t, want, normalizeGroup(decodeGroup(t, raw)), raw)
	}
}

func TestNormalizeGroupDefaults(t *testing.T) {
	g := normalizeGroup(decodeGroup(t, `{"mTask_id": 3, "mTask_name": "x"}`))
	assert.True(t, g.Active, "absent is_active defaults to active")
	assert.Zero(t, g.OwnerID)
	assert.True(t, g.CreatedAt.IsZero())

	g = normalizeGroup(decodeGroup(t, `{"mTask_id": 3, "is_active": 0}`))
	assert.False(t, g.Active, "explicit 0 is kept")
}

func TestActiveFlagEncodings(t *testing.T) {
	tests := []struct {
		raw      string
		want     bool
		explicit bool
	}{
		{`1`, true, true},
		{`0`, false, true},
		{`true`, true, true},
		{`false`, false, true},
		{`"1"`, true, true},
		{`null`, false, false},
		{`"yes"`, false, false},
	}
	for _, tt := range tests {
		var f activeFlag
		require.NoError(t, f.UnmarshalJSON([]byte(tt.raw)))
		assert.Equal(t, tt.explicit, f.set, tt.raw)
		if tt.explicit {
			assert.Equal(t, tt.want, f.value, tt.raw)
		}
	}
}

func TestTimestampUnparseableIsZero(t *testing.T) {
	var ts timestamp
	require.NoError(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.True(t, ts.t.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01T10:00:00+02:00"`), &ts))
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), ts.t)
}

func TestLoginShapes(t *testing.T) {
	shapes := []string{
		`{"user": {"user_id": 4, "username": "dana"}, "token": "abc"}`,
		`{"data": {"user": {"user_id": 4, "username": "dana"}, "token": "abc"}}`,
		`{"user_id": 4, "username": "dana", "token": "abc"}`,
	}
	for _, raw := range shapes {
		var w loginWire
		require.NoError(t, json.Unmarshal([]byte(raw), &w))
		u, token := w.identity()
		assert.Equal(t, int64(4), u.ID, raw)
		assert.Equal(t, "dana", u.Username, raw)
		assert.Equal(t, "abc", token, raw)
	}
}

func TestTaskStatusDefaultsToPending(t *testing.T) {
	var w taskWire
	require.NoError(t, json.Unmarshal([]byte(`{"task_id": 1, "task_name": "a", "task_group_id": null}`), &w))
	task := w.toDomain()
	assert.Equal(t, "PENDING", string(task.Status))
	assert.Nil(t, task.GroupID)
}
