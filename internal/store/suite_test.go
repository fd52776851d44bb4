package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/models"
)

func strPtr(s string) *string { return &s }

func msg(id, from, ts, text string) models.Message {
	m := models.Message{MessageID: id, From: from, To: "+222222", TS: ts}
	if text != "" {
		m.Text = strPtr(text)
	}
	return m
}

func mustInsert(t *testing.T, s MessageStore, msgs ...models.Message) {
	t.Helper()
	for _, m := range msgs {
		inserted, err := s.Insert(context.Background(), m)
		require.NoError(t, err)
		require.True(t, inserted, m.MessageID)
	}
}

func ids(msgs []models.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.MessageID)
	}
	return out
}

// runStoreSuite exercises the MessageStore contract against a fresh, empty
// store per subtest.
func runStoreSuite(t *testing.T, open func(t *testing.T) MessageStore) {
	ctx := context.Background()
	all := QueryFilter{Limit: 100}

	t.Run("insert is idempotent", func(t *testing.T) {
		s := open(t)

		m := msg("m1", "+1234567890", "2025-01-15T10:00:00Z", "Hello World")
		inserted, err := s.Insert(ctx, m)
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = s.Insert(ctx, m)
		require.NoError(t, err)
		assert.False(t, inserted)

		items, total, err := s.Query(ctx, all)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, "m1", items[0].MessageID)
		assert.Equal(t, "+1234567890", items[0].From)
		assert.Equal(t, "+222222", items[0].To)
		require.NotNil(t, items[0].Text)
		assert.Equal(t, "Hello World", *items[0].Text)
		assert.NotEmpty(t, items[0].CreatedAt)
	})

	t.Run("duplicate with different payload keeps first row", func(t *testing.T) {
		s := open(t)
		mustInsert(t, s, msg("m1", "+1", "2025-01-01T00:00:00Z", "first"))

		inserted, err := s.Insert(ctx, msg("m1", "+9", "2030-01-01T00:00:00Z", "second"))
		require.NoError(t, err)
		assert.False(t, inserted)

		items, _, err := s.Query(ctx, all)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "+1", items[0].From)
		assert.Equal(t, "first", *items[0].Text)
	})

	t.Run("concurrent inserts of one id create exactly one row", func(t *testing.T) {
		s := open(t)

		const k = 20
		var (
			wg      sync.WaitGroup
			created atomic.Int32
			dups    atomic.Int32
			start   = make(chan struct{})
		)
		for i := 0; i < k; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				inserted, err := s.Insert(ctx, msg("same", "+1", "2025-01-01T00:00:00Z", "x"))
				if !assert.NoError(t, err) {
					return
				}
				if inserted {
					created.Add(1)
				} else {
					dups.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), created.Load())
		assert.Equal(t, int32(k-1), dups.Load())

		_, total, err := s.Query(ctx, all)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("query orders by ts then message_id", func(t *testing.T) {
		s := open(t)
		mustInsert(t, s,
			msg("m3", "+1", "2025-01-01T11:00:00Z", ""),
			msg("m2", "+1", "2025-01-01T10:00:00Z", ""),
			msg("m1", "+1", "2025-01-01T10:00:00Z", ""),
		)

		items, total, err := s.Query(ctx, all)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, []string{"m1", "m2", "m3"}, ids(items))
		assert.Nil(t, items[0].Text)
	})

	t.Run("query paginates and reports total", func(t *testing.T) {
		s := open(t)
		for i := 0; i < 7; i++ {
			mustInsert(t, s, msg(fmt.Sprintf("p%d", i), "+1", fmt.Sprintf("2025-01-01T10:00:0%dZ", i), ""))
		}

		items, total, err := s.Query(ctx, QueryFilter{Limit: 3, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, 7, total)
		assert.Equal(t, []string{"p2", "p3", "p4"}, ids(items))

		items, total, err = s.Query(ctx, QueryFilter{Limit: 3, Offset: 10})
		require.NoError(t, err)
		assert.Equal(t, 7, total)
		assert.Empty(t, items)
		assert.NotNil(t, items)
	})

	t.Run("query filters", func(t *testing.T) {
		s := open(t)
		mustInsert(t, s,
			msg("a", "+111", "2025-01-01T10:00:00Z", "Hello A"),
			msg("b", "+111", "2025-01-02T10:00:00Z", "hello b"),
			msg("c", "+222", "2025-01-03T10:00:00Z", "100% Hello"),
			msg("d", "+222", "2025-01-04T10:00:00Z", ""),
		)

		cases := []struct {
			name   string
			filter QueryFilter
			want   []string
		}{
			{"from exact", QueryFilter{From: "+111"}, []string{"a", "b"}},
			{"from no partial match", QueryFilter{From: "+11"}, []string{}},
			{"since inclusive", QueryFilter{Since: "2025-01-02T10:00:00Z"}, []string{"b", "c", "d"}},
			{"contains is case-sensitive", QueryFilter{Contains: "Hello"}, []string{"a", "c"}},
			{"contains is unanchored", QueryFilter{Contains: "ell"}, []string{"a", "b", "c"}},
			{"contains treats % literally", QueryFilter{Contains: "%"}, []string{"c"}},
			{"combined", QueryFilter{From: "+222", Contains: "Hello"}, []string{"c"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				f := tc.filter
				f.Limit = 100
				items, total, err := s.Query(ctx, f)
				require.NoError(t, err)
				assert.Equal(t, tc.want, ids(items))
				assert.Equal(t, len(tc.want), total)
			})
		}
	})

	t.Run("stats on empty store", func(t *testing.T) {
		s := open(t)

		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, st.TotalMessages)
		assert.Equal(t, 0, st.SendersCount)
		assert.NotNil(t, st.MessagesPerSender)
		assert.Empty(t, st.MessagesPerSender)
		assert.Nil(t, st.FirstMessageTS)
		assert.Nil(t, st.LastMessageTS)
	})

	t.Run("stats aggregates senders", func(t *testing.T) {
		s := open(t)
		mustInsert(t, s,
			msg("s1", "+999999999", "2025-01-03T10:00:00Z", "Hi"),
			msg("s2", "+999999999", "2025-01-01T10:00:00Z", "Hi"),
			msg("s3", "+999999999", "2025-01-05T10:00:00Z", "Hi"),
			msg("t1", "+888888888", "2025-01-02T10:00:00Z", "Hi"),
			msg("t2", "+888888888", "2025-01-04T10:00:00Z", "Hi"),
		)

		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, st.TotalMessages)
		assert.Equal(t, 2, st.SendersCount)
		assert.Equal(t, []models.SenderStats{
			{From: "+999999999", Count: 3},
			{From: "+888888888", Count: 2},
		}, st.MessagesPerSender)
		require.NotNil(t, st.FirstMessageTS)
		require.NotNil(t, st.LastMessageTS)
		assert.Equal(t, "2025-01-01T10:00:00Z", *st.FirstMessageTS)
		assert.Equal(t, "2025-01-05T10:00:00Z", *st.LastMessageTS)
	})

	t.Run("stats keeps top ten with deterministic ties", func(t *testing.T) {
		s := open(t)
		// +100 sends twice, then twelve senders tie with one message each.
		mustInsert(t, s,
			msg("x1", "+100", "2025-01-01T00:00:00Z", ""),
			msg("x2", "+100", "2025-01-01T00:00:01Z", ""),
		)
		for i := 12; i >= 1; i-- {
			mustInsert(t, s, msg(fmt.Sprintf("y%d", i), fmt.Sprintf("+2%02d", i), "2025-01-01T00:00:00Z", ""))
		}

		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 13, st.SendersCount)
		require.Len(t, st.MessagesPerSender, TopSendersLimit)
		assert.Equal(t, models.SenderStats{From: "+100", Count: 2}, st.MessagesPerSender[0])
		assert.Equal(t, "+201", st.MessagesPerSender[1].From)
		assert.Equal(t, "+209", st.MessagesPerSender[9].From)
	})

	t.Run("ensure schema is idempotent", func(t *testing.T) {
		s := open(t)
		mustInsert(t, s, msg("keep", "+1", "2025-01-01T00:00:00Z", ""))
		require.NoError(t, s.EnsureSchema(ctx))

		_, total, err := s.Query(ctx, all)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})
}
