package timelabel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/marketchat/internal/core"
	"github.com/vovakirdan/marketchat/internal/locale"
)

var shanghai = time.FixedZone("CST", 8*3600)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, shanghai)
}

func TestShowDivider(t *testing.T) {
	base := at(2024, time.May, 10, 9, 0)
	msgs := []core.Message{
		{ID: 1, CreatedAt: base},
		{ID: 2, CreatedAt: base.Add(5 * time.Minute)},
		{ID: 3, CreatedAt: base.Add(10*time.Minute + time.Millisecond)},
		{ID: 4, CreatedAt: base.Add(10*time.Minute + 2*time.Millisecond)},
	}

	want := []bool{true, false, true, false}
	for i := range msgs {
		assert.Equal(t, want[i], ShowDivider(msgs, i), "index %d", i)
	}
	assert.False(t, ShowDivider(nil, 0))
	assert.False(t, ShowDivider(msgs, len(msgs)))
}

func TestShowDividerProperty(t *testing.T) {
	base := at(2024, time.January, 1, 0, 0)
	gaps := []time.Duration{0, time.Second, 299 * time.Second, 300 * time.Second, 300*time.Second + time.Millisecond, time.Hour}
	msgs := []core.Message{{CreatedAt: base}}
	for _, g := range gaps {
		msgs = append(msgs, core.Message{CreatedAt: msgs[len(msgs)-1].CreatedAt.Add(g)})
	}

	for i := range msgs {
		expected := i == 0 || msgs[i].CreatedAt.Sub(msgs[i-1].CreatedAt) > 300000*time.Millisecond
		assert.Equal(t, expected, ShowDivider(msgs, i), "index %d", i)
	}
}

func TestLabelBuckets(t *testing.T) {
	now := at(2024, time.May, 10, 12, 0) // Friday
	f := New(locale.English)

	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"same day", at(2024, time.May, 10, 8, 5), "08:05"},
		{"yesterday", at(2024, time.May, 9, 23, 59), "yesterday 23:59"},
		{"two days back", at(2024, time.May, 8, 7, 30), "Wednesday 07:30"},
		{"six days back", at(2024, time.May, 4, 7, 30), "Saturday 07:30"},
		{"seven days back", at(2024, time.May, 3, 7, 30), "5/3 07:30"},
		{"same year", at(2024, time.January, 2, 18, 0), "1/2 18:00"},
		{"other year", at(2023, time.December, 31, 23, 0), "2023/12/31 23:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Label(tt.ts, now))
		})
	}
}

func TestLabelUsesCalendarDates(t *testing.T) {
	f := New(locale.English)
	now := at(2024, time.May, 10, 0, 1)
	lastNight := at(2024, time.May, 9, 23, 59)

	require.Equal(t, "00:01", f.Label(now, now))
	require.Equal(t, "yesterday 23:59", f.Label(lastNight, now))
}

func TestLabelChinese(t *testing.T) {
	f := New(locale.Chinese)
	now := at(2024, time.May, 10, 12, 0)

	assert.Equal(t, "昨天 10:00", f.Label(at(2024, time.May, 9, 10, 0), now))
	assert.Equal(t, "周三 10:00", f.Label(at(2024, time.May, 8, 10, 0), now))
	assert.Equal(t, "3月1日 10:00", f.Label(at(2024, time.March, 1, 10, 0), now))
	assert.Equal(t, "2022年3月1日 10:00", f.Label(at(2022, time.March, 1, 10, 0), now))
}

func TestListLabel(t *testing.T) {
	f := New(locale.English)
	now := at(2024, time.May, 10, 12, 0)

	assert.Equal(t, "09:15", f.ListLabel(at(2024, time.May, 10, 9, 15), now))
	assert.Equal(t, "05-09", f.ListLabel(at(2024, time.May, 9, 9, 15), now))
	assert.Equal(t, "", f.ListLabel(time.Time{}, now))
}

func TestRenderHidesRecalledContent(t *testing.T) {
	now := at(2024, time.May, 10, 12, 0)
	policy := core.RecallPolicy{Self: 7, Window: core.DefaultRecallWindow}
	msgs := []core.Message{
		{ID: 1, SenderID: 7, Type: core.MessageTypeRecall, CreatedAt: now.Add(-time.Hour)},
		{ID: 2, SenderID: 9, Type: core.MessageTypeRecall, CreatedAt: now.Add(-50 * time.Minute)},
		{ID: 3, SenderID: 7, Type: core.MessageTypeImage, Content: "data:image/png;base64,AAAA", CreatedAt: now.Add(-time.Minute)},
		{ID: 4, SenderID: 7, Type: core.MessageTypeText, Content: "hi", CreatedAt: now.Add(-30 * time.Second)},
	}

	rows := New(locale.English).Render(msgs, now, policy)
	require.Len(t, rows, 4)

	assert.Equal(t, locale.English.RecalledBySelf, rows[0].Text)
	assert.Equal(t, locale.English.RecalledByPartner, rows[1].Text)
	assert.Equal(t, "[Image]", rows[2].Text)
	assert.True(t, rows[0].Divider)
	assert.True(t, rows[2].Divider)
	assert.False(t, rows[3].Divider)
	assert.Empty(t, rows[3].Label)
	assert.False(t, rows[0].Recallable)
	assert.True(t, rows[2].Recallable)
	assert.True(t, rows[3].Recallable)
	assert.True(t, rows[3].Mine)
	assert.False(t, rows[1].Mine)
}
