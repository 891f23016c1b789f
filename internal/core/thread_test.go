package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBase = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func TestThreadRejectsLoadForOtherSession(t *testing.T) {
	th := NewMessageThread()
	th.Reset(2)

	ok := th.Load(1, []Message{{ID: 1, CreatedAt: testBase}})
	assert.False(t, ok)
	assert.Zero(t, th.Len())
	assert.False(t, th.Loaded())

	require.True(t, th.Load(2, []Message{{ID: 5, CreatedAt: testBase}}))
	assert.Equal(t, int64(2), th.Messages()[0].SessionID)
}

func TestThreadLoadOrdersByCreatedAt(t *testing.T) {
	th := NewMessageThread()
	th.Reset(1)
	th.Load(1, []Message{
		{ID: 3, CreatedAt: testBase.Add(time.Minute)},
		{ID: 2, CreatedAt: testBase},
		{ID: 1, CreatedAt: testBase},
	})

	msgs := th.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestThreadLoadKeepsLocalEntries(t *testing.T) {
	th := NewMessageThread()
	th.Reset(1)
	pending := th.AppendOptimistic(Draft{Type: MessageTypeText, Content: "early"}, 10, testBase)
	th.AppendIncoming(Message{ID: 7, SessionID: 1, Type: MessageTypeText, CreatedAt: testBase})

	th.Load(1, []Message{{ID: 7, CreatedAt: testBase}, {ID: 6, CreatedAt: testBase.Add(-time.Minute)}})

	msgs := th.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, int64(6), msgs[0].ID)
	assert.Equal(t, int64(7), msgs[1].ID)
	assert.Equal(t, pending.TempID, msgs[2].TempID)
}

func TestThreadReconcileReplacesInPlace(t *testing.T) {
	th := NewMessageThread()
	th.Reset(1)
	th.Load(1, []Message{{ID: 1, CreatedAt: testBase}})

	pending := th.AppendOptimistic(Draft{Type: MessageTypeText, Content: "hello"}, 10, testBase)
	assert.True(t, strings.HasPrefix(pending.TempID, "tmp-"))
	assert.True(t, pending.Pending())
	th.AppendIncoming(Message{ID: 9, SessionID: 1, CreatedAt: testBase.Add(time.Second)})

	idx, ok := th.Reconcile(pending.TempID, Message{ID: 42, Type: MessageTypeText, Content: "hello", CreatedAt: testBase})
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	msgs := th.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, int64(42), msgs[1].ID)
	assert.Empty(t, msgs[1].TempID)
	assert.Equal(t, int64(9), msgs[2].ID)

	_, ok = th.Reconcile(pending.TempID, Message{ID: 42})
	assert.False(t, ok, "temp id is gone after reconcile")
}

func TestThreadReconcileDropsDuplicate(t *testing.T) {
	th := NewMessageThread()
	th.Reset(1)
	pending := th.AppendOptimistic(Draft{Type: MessageTypeText, Content: "x"}, 10, testBase)
	th.AppendIncoming(Message{ID: 42, SessionID: 1, CreatedAt: testBase})

	idx, ok := th.Reconcile(pending.TempID, Message{ID: 42})
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, th.Len())
}

func TestThreadMarkFailed(t *testing.T) {
	th := NewMessageThread()
	th.Reset(1)
	pending := th.AppendOptimistic(Draft{Type: MessageTypeText, Content: "x"}, 10, testBase)

	idx, ok := th.MarkFailed(pending.TempID)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.True(t, th.Messages()[0].Failed)

	_, ok = th.MarkFailed("tmp-unknown")
	assert.False(t, ok)
}

func TestThreadApplyRecallIsTerminal(t *testing.T) {
	th := NewMessageThread()
	th.Reset(1)
	th.Load(1, []Message{{ID: 1, SenderID: 10, Type: MessageTypeImage, Content: "data:image/png;base64,AA", CreatedAt: testBase}})

	idx, ok := th.ApplyRecall(1, Message{ID: 1, Type: MessageTypeRecall, CreatedAt: testBase.Add(time.Hour)})
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	got, _ := th.Find(1)
	assert.Equal(t, MessageTypeRecall, got.Type)
	assert.Empty(t, got.Content)
	assert.Equal(t, testBase, got.CreatedAt, "creation time stays put")

	_, ok = th.ApplyRecall(99, Message{})
	assert.False(t, ok)
}

func TestThreadAppendIncomingDedupes(t *testing.T) {
	th := NewMessageThread()
	th.Reset(1)

	_, ok := th.AppendIncoming(Message{ID: 5, SessionID: 1})
	require.True(t, ok)
	_, ok = th.AppendIncoming(Message{ID: 5, SessionID: 1})
	assert.False(t, ok)
	_, ok = th.AppendIncoming(Message{ID: 6, SessionID: 2})
	assert.False(t, ok, "other session")

	assert.True(t, th.IsLast(5))
	assert.Equal(t, 1, th.Len())
}

func TestThreadMessagesIsCopy(t *testing.T) {
	th := NewMessageThread()
	th.Reset(1)
	th.Load(1, []Message{{ID: 1, Content: "a"}})

	msgs := th.Messages()
	msgs[0].Content = "changed"

	got, _ := th.Find(1)
	assert.Equal(t, "a", got.Content)
}
