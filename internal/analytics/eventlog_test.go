package analytics

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
	"github.com/newsroomhq/newsdesk/internal/testutil"
)

func TestSerializeMetadata(t *testing.T) {
	var nilMap map[string]any
	var nilPtr *struct{ A int }

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"empty string", "", ""},
		{"string passthrough", "not json at all", "not json at all"},
		{"empty map", map[string]any{}, ""},
		{"nil map", nilMap, ""},
		{"nil pointer", nilPtr, ""},
		{"empty raw", json.RawMessage("{}"), ""},
		{"map", map[string]any{"a": 1}, `{"a":1}`},
		{"struct", struct {
			Channel string `json:"channel"`
		}{"email"}, `{"channel":"email"}`},
		{"slice", []int{1, 2}, `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SerializeMetadata(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerializeMetadata_Unencodable(t *testing.T) {
	got, err := SerializeMetadata(map[string]any{"bad": math.NaN()})
	assert.Error(t, err)
	assert.Empty(t, got)
}

func TestEventLogger_UnencodableMetadataStillRecorded(t *testing.T) {
	db := testutil.MemoryDB(t)
	q := store.New(db)
	article := testutil.CreateArticle(t, db, model.Article{Title: "Metadata"})

	l := NewEventLogger(q, testutil.TestLoggerSilent())
	id, err := l.LogArticleEvent(context.Background(), ArticleEventInput{
		ArticleID:  article.ID,
		Kind:       model.EventKindCustom,
		OccurredAt: time.Now(),
		Reader:     model.Guest(""),
		Metadata:   map[string]any{"bad": make(chan int)},
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	events, err := q.ListArticleEvents(context.Background(), article.ID, model.EventKindCustom)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Metadata)
}

func TestEventLogger_RequiresArticleAndKind(t *testing.T) {
	l := NewEventLogger(nil, nil)
	_, err := l.LogArticleEvent(context.Background(), ArticleEventInput{Kind: model.EventKindView})
	assert.Error(t, err)
	_, err = l.LogShareEvent(context.Background(), ShareEventInput{ArticleID: 1})
	assert.Error(t, err)
}
