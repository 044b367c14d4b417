// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"sort"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
)

// AudienceMetrics splits all view events by who viewed.
type AudienceMetrics struct {
	TotalViews      int64            `json:"total_views"`
	GuestViews      int64            `json:"guest_views"`
	RegisteredViews int64            `json:"registered_views"`
	ByRole          map[string]int64 `json:"registered_by_role"`
}

// ComputeAudience attributes registered views to the viewer's current role.
// Views by users that no longer exist count as "unknown".
func ComputeAudience(views []store.ViewerCount, roles map[int64]string) AudienceMetrics {
	m := AudienceMetrics{
		ByRole: map[string]int64{
			model.RoleAdmin:   0,
			model.RoleEditor:  0,
			model.RoleReader:  0,
			model.RoleUnknown: 0,
		},
	}
	for _, v := range views {
		m.TotalViews += v.Views
		if model.ReaderType(v.ReaderType) != model.ReaderRegistered {
			m.GuestViews += v.Views
			continue
		}
		m.RegisteredViews += v.Views

		role, ok := roles[v.UserID]
		if !ok || v.UserID <= 0 || !model.IsValidRole(role) {
			role = model.RoleUnknown
		}
		m.ByRole[role] += v.Views
	}
	return m
}

// ReadingMetrics summarizes every session ever recorded.
type ReadingMetrics struct {
	Sessions        int          `json:"sessions"`
	Duration        Distribution `json:"duration_seconds"`
	MeanProgress    *float64     `json:"mean_progress_percent"`
	ProgressSamples int          `json:"progress_samples"`
	Completed       int          `json:"completed"`
}

// ComputeReading computes global reading statistics. Sessions without a
// finite duration or progress are left out of that statistic only.
func ComputeReading(sessions []model.ReadingSession) ReadingMetrics {
	var durations, progress []float64
	completed := 0
	for i := range sessions {
		s := &sessions[i]
		if s.DurationSeconds != nil && model.IsFinite(*s.DurationSeconds) {
			durations = append(durations, *s.DurationSeconds)
		}
		if s.ProgressPercent != nil && model.IsFinite(*s.ProgressPercent) {
			progress = append(progress, *s.ProgressPercent)
		}
		if s.IsCompleted() {
			completed++
		}
	}
	return ReadingMetrics{
		Sessions:        len(sessions),
		Duration:        Summarize(durations),
		MeanProgress:    Mean(progress),
		ProgressSamples: len(progress),
		Completed:       completed,
	}
}

// ChannelShares counts shares on one channel by reader type.
type ChannelShares struct {
	Channel    string `json:"channel"`
	Total      int64  `json:"total"`
	Guest      int64  `json:"guest"`
	Registered int64  `json:"registered"`
}

// ShareMetrics is the global share breakdown.
type ShareMetrics struct {
	TotalShares int64           `json:"total_shares"`
	TotalViews  int64           `json:"total_views"`
	ShareRate   *float64        `json:"share_rate"`
	Channels    []ChannelShares `json:"channels"`
}

// ComputeShares groups shares by case-insensitive channel and relates the
// total to all view events.
func ComputeShares(shares []model.ShareEvent, totalViews int64) ShareMetrics {
	byChannel := make(map[string]*ChannelShares)
	for _, s := range shares {
		ch := normalizeChannel(s.Channel)
		c, ok := byChannel[ch]
		if !ok {
			c = &ChannelShares{Channel: ch}
			byChannel[ch] = c
		}
		c.Total++
		if s.Reader.IsRegistered() {
			c.Registered++
		} else {
			c.Guest++
		}
	}

	m := ShareMetrics{
		TotalShares: int64(len(shares)),
		TotalViews:  totalViews,
		ShareRate:   ratio(int64(len(shares)), totalViews),
		Channels:    make([]ChannelShares, 0, len(byChannel)),
	}
	for _, c := range byChannel {
		m.Channels = append(m.Channels, *c)
	}
	sort.Slice(m.Channels, func(i, j int) bool {
		if m.Channels[i].Total != m.Channels[j].Total {
			return m.Channels[i].Total > m.Channels[j].Total
		}
		return m.Channels[i].Channel < m.Channels[j].Channel
	})
	return m
}
