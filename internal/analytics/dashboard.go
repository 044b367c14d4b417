// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
)

// Dashboard window sizes.
const (
	HistogramDays = 30
	WeekDays      = 7
	TopArticles   = 5
	TopChannels   = 5
)

// Totals are whole-table counts shown on the dashboard.
type Totals struct {
	Articles          int64 `json:"articles"`
	PublishedArticles int64 `json:"published_articles"`
	Users             int64 `json:"users"`
	Comments          int64 `json:"comments"`
	PendingComments   int64 `json:"pending_comments"`
	Sessions          int64 `json:"sessions"`
	ViewEvents        int64 `json:"view_events"`
}

// DashboardInput is everything ComputeDashboard needs, already loaded.
type DashboardInput struct {
	Totals Totals
	// Articles holds the view counter of every article.
	Articles []store.ArticleStat
	// ViewTimes are view events since DashboardSince(now).
	ViewTimes []time.Time
	// Sessions started since WindowStart(now).
	Sessions []model.ReadingSession
	// Shares recorded since WindowStart(now).
	Shares []model.ShareEvent
}

// DayCount is the number of views on one UTC day.
type DayCount struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// PeriodViews are view counts for calendar periods.
type PeriodViews struct {
	Today     int64    `json:"today"`
	Week      int64    `json:"week"`
	Month     int64    `json:"month"`
	LastMonth int64    `json:"last_month"`
	Growth    *float64 `json:"month_over_month_growth"`
}

// ArticleViews is one row of the top articles list.
type ArticleViews struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Views int64  `json:"views"`
}

// SectionViews sums article view counters per section.
type SectionViews struct {
	Section string `json:"section"`
	Views   int64  `json:"views"`
}

// ReaderSplit describes sessions started inside the dashboard window.
type ReaderSplit struct {
	Sessions       int64    `json:"sessions"`
	Guest          int64    `json:"guest"`
	Registered     int64    `json:"registered"`
	Completed      int64    `json:"completed"`
	CompletionRate *float64 `json:"completion_rate"`
}

// ChannelRate is the share volume of one channel in the window.
type ChannelRate struct {
	Channel string   `json:"channel"`
	Shares  int64    `json:"shares"`
	Rate    *float64 `json:"rate"`
}

// DashboardStats is the computed dashboard snapshot.
type DashboardStats struct {
	GeneratedAt    time.Time      `json:"generated_at"`
	Estimated      bool           `json:"estimated"`
	Totals         Totals         `json:"totals"`
	DailyViews     []DayCount     `json:"daily_views"`
	Views          PeriodViews    `json:"views"`
	TopArticles    []ArticleViews `json:"top_articles"`
	ViewsBySection []SectionViews `json:"views_by_section"`
	Readers        ReaderSplit    `json:"readers"`
	ReadingTime    Distribution   `json:"reading_time"`
	Shares         []ChannelRate  `json:"shares"`
	TotalShares    int64          `json:"total_shares"`
}

// startOfDay truncates t to midnight UTC.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// WindowStart is the first instant of the trailing 30-day window ending today.
func WindowStart(now time.Time) time.Time {
	return startOfDay(now).AddDate(0, 0, -(HistogramDays - 1))
}

// DashboardSince is the earliest view time the dashboard needs: the start of
// the histogram window or of the previous month, whichever is earlier.
func DashboardSince(now time.Time) time.Time {
	lastMonth := startOfMonth(now).AddDate(0, -1, 0)
	if w := WindowStart(now); w.Before(lastMonth) {
		return w
	}
	return lastMonth
}

// weightedTime is a view timestamp counting for n views.
type weightedTime struct {
	at time.Time
	n  int64
}

// ComputeDashboard builds the dashboard snapshot for now.
// When no view events exist at all, every article's view counter is
// attributed to its effective publish day and the result is marked Estimated.
func ComputeDashboard(in DashboardInput, now time.Time) DashboardStats {
	now = now.UTC()
	stats := DashboardStats{
		GeneratedAt: now,
		Totals:      in.Totals,
	}

	views := make([]weightedTime, 0, len(in.ViewTimes))
	if in.Totals.ViewEvents == 0 {
		stats.Estimated = true
		for _, a := range in.Articles {
			if a.Views > 0 {
				views = append(views, weightedTime{at: a.EffectivePublishDate, n: a.Views})
			}
		}
	} else {
		for _, t := range in.ViewTimes {
			views = append(views, weightedTime{at: t, n: 1})
		}
	}

	today := startOfDay(now)
	windowStart := WindowStart(now)
	weekStart := today.AddDate(0, 0, -(WeekDays - 1))
	monthStart := startOfMonth(now)
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	buckets := make([]int64, HistogramDays)
	var windowViews int64
	for _, v := range views {
		at := v.at.UTC()
		if at.After(now) {
			continue
		}
		if !at.Before(windowStart) {
			idx := int(startOfDay(at).Sub(windowStart).Hours() / 24)
			if idx >= 0 && idx < HistogramDays {
				buckets[idx] += v.n
				windowViews += v.n
			}
		}
		if !at.Before(today) {
			stats.Views.Today += v.n
		}
		if !at.Before(weekStart) {
			stats.Views.Week += v.n
		}
		if !at.Before(monthStart) {
			stats.Views.Month += v.n
		} else if !at.Before(lastMonthStart) {
			stats.Views.LastMonth += v.n
		}
	}
	stats.Views.Growth = growthPercent(stats.Views.Month, stats.Views.LastMonth)

	stats.DailyViews = make([]DayCount, HistogramDays)
	for i := range buckets {
		stats.DailyViews[i] = DayCount{
			Date:  windowStart.AddDate(0, 0, i).Format(time.DateOnly),
			Views: buckets[i],
		}
	}

	stats.TopArticles = topArticles(in.Articles, TopArticles)
	stats.ViewsBySection = viewsBySection(in.Articles)
	stats.Readers, stats.ReadingTime = readerSplit(in.Sessions, windowStart)
	stats.Shares, stats.TotalShares = channelRates(in.Shares, windowStart, windowViews, TopChannels)

	return stats
}

func topArticles(articles []store.ArticleStat, limit int) []ArticleViews {
	sorted := make([]store.ArticleStat, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Views != sorted[j].Views {
			return sorted[i].Views > sorted[j].Views
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]ArticleViews, 0, len(sorted))
	for _, a := range sorted {
		out = append(out, ArticleViews{ID: a.ID, Title: a.Title, Views: a.Views})
	}
	return out
}

func viewsBySection(articles []store.ArticleStat) []SectionViews {
	sums := make(map[string]int64)
	for _, a := range articles {
		sums[a.Section] += a.Views
	}
	out := make([]SectionViews, 0, len(sums))
	for section, v := range sums {
		out = append(out, SectionViews{Section: section, Views: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Section < out[j].Section
	})
	return out
}

func readerSplit(sessions []model.ReadingSession, since time.Time) (ReaderSplit, Distribution) {
	var (
		split     ReaderSplit
		durations []float64
	)
	for i := range sessions {
		s := &sessions[i]
		if s.StartedAt.Before(since) {
			continue
		}
		split.Sessions++
		if s.Reader.IsRegistered() {
			split.Registered++
		} else {
			split.Guest++
		}
		if s.IsCompleted() {
			split.Completed++
		}
		if s.DurationSeconds != nil {
			durations = append(durations, *s.DurationSeconds)
		}
	}
	split.CompletionRate = ratio(split.Completed, split.Sessions)
	return split, Summarize(durations)
}

// normalizeChannel folds channel names so "Twitter " and "twitter" group together.
func normalizeChannel(ch string) string {
	ch = strings.ToLower(strings.TrimSpace(ch))
	if ch == "" {
		return "unknown"
	}
	return ch
}

func channelRates(shares []model.ShareEvent, since time.Time, windowViews int64, limit int) ([]ChannelRate, int64) {
	counts := make(map[string]int64)
	var total int64
	for _, s := range shares {
		if s.OccurredAt.Before(since) {
			continue
		}
		counts[normalizeChannel(s.Channel)]++
		total++
	}

	out := make([]ChannelRate, 0, len(counts))
	for ch, n := range counts {
		out = append(out, ChannelRate{Channel: ch, Shares: n, Rate: ratio(n, windowViews)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Shares != out[j].Shares {
			return out[i].Shares > out[j].Shares
		}
		return out[i].Channel < out[j].Channel
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total
}
