// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"strings"

	"github.com/mileusna/useragent"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/util"
)

// Device types
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// CountryLookup resolves an IP address to an ISO country code.
type CountryLookup interface {
	LookupCountry(ip string) string
}

// ClientInfo is request metadata used to fill session context gaps.
// The request's own Referer header points at the article page, so the
// acquisition referrer only ever comes from the client payload.
type ClientInfo struct {
	UserAgent string
	IP        string
}

// DeviceType classifies a User-Agent string.
func DeviceType(uaString string) string {
	if strings.TrimSpace(uaString) == "" {
		return ""
	}
	ua := useragent.Parse(uaString)
	switch {
	case ua.Bot:
		return DeviceBot
	case ua.Tablet:
		return DeviceTablet
	case ua.Mobile:
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

// EnrichContext normalizes client-reported context and fills empty fields
// from request metadata. Client values always win over derived ones.
func EnrichContext(c model.SessionContext, info ClientInfo, geo CountryLookup) model.SessionContext {
	c.Referrer = util.ReferrerHost(c.Referrer)
	c.UTMSource = strings.TrimSpace(c.UTMSource)
	c.UTMMedium = strings.TrimSpace(c.UTMMedium)
	c.UTMCampaign = strings.TrimSpace(c.UTMCampaign)
	c.DeviceType = strings.ToLower(strings.TrimSpace(c.DeviceType))
	c.CountryCode = strings.ToUpper(strings.TrimSpace(c.CountryCode))

	derived := model.SessionContext{
		DeviceType: DeviceType(info.UserAgent),
	}
	if geo != nil && info.IP != "" {
		derived.CountryCode = geo.LookupCountry(info.IP)
	}
	c.FillMissing(derived)
	return c
}
