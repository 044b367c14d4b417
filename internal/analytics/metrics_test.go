package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
)

func TestComputeAudience(t *testing.T) {
	views := []store.ViewerCount{
		{ReaderType: string(model.ReaderGuest), Views: 5},
		{ReaderType: string(model.ReaderRegistered), UserID: 1, Views: 3},
		{ReaderType: string(model.ReaderRegistered), UserID: 2, Views: 1},
		{ReaderType: string(model.ReaderRegistered), UserID: 99, Views: 2},
	}
	roles := map[int64]string{1: model.RoleEditor, 2: model.RoleAdmin}

	m := ComputeAudience(views, roles)

	assert.Equal(t, int64(11), m.TotalViews)
	assert.Equal(t, int64(5), m.GuestViews)
	assert.Equal(t, int64(6), m.RegisteredViews)
	assert.Equal(t, map[string]int64{
		model.RoleAdmin:   1,
		model.RoleEditor:  3,
		model.RoleReader:  0,
		model.RoleUnknown: 2,
	}, m.ByRole)
}

func TestComputeAudience_Empty(t *testing.T) {
	m := ComputeAudience(nil, nil)
	assert.Zero(t, m.TotalViews)
	assert.Len(t, m.ByRole, 4)
}

func TestComputeReading(t *testing.T) {
	sessions := []model.ReadingSession{
		{DurationSeconds: ptr(30.0), ProgressPercent: ptr(20.0)},
		{DurationSeconds: ptr(250.0)},
		{ProgressPercent: ptr(100.0)},
		{},
	}

	m := ComputeReading(sessions)

	assert.Equal(t, 4, m.Sessions)
	assert.Equal(t, 2, m.Duration.Count)
	require.NotNil(t, m.Duration.Mean)
	assert.InDelta(t, 140, *m.Duration.Mean, 1e-9)
	require.NotNil(t, m.MeanProgress)
	assert.InDelta(t, 60, *m.MeanProgress, 1e-9)
	assert.Equal(t, 2, m.ProgressSamples)
	assert.Equal(t, 2, m.Completed)
}

func TestComputeShares(t *testing.T) {
	shares := []model.ShareEvent{
		{Channel: "Facebook", Reader: model.Guest("")},
		{Channel: "facebook", Reader: model.Registered(4)},
		{Channel: "email", Reader: model.Guest("v")},
	}

	m := ComputeShares(shares, 30)

	assert.Equal(t, int64(3), m.TotalShares)
	require.NotNil(t, m.ShareRate)
	assert.InDelta(t, 0.1, *m.ShareRate, 1e-9)
	require.Len(t, m.Channels, 2)
	assert.Equal(t, ChannelShares{Channel: "facebook", Total: 2, Guest: 1, Registered: 1}, m.Channels[0])
	assert.Equal(t, ChannelShares{Channel: "email", Total: 1, Guest: 1}, m.Channels[1])
}

func TestComputeShares_NoViews(t *testing.T) {
	m := ComputeShares([]model.ShareEvent{{Channel: "x"}}, 0)
	assert.Nil(t, m.ShareRate)
	assert.Equal(t, int64(1), m.TotalShares)
}
