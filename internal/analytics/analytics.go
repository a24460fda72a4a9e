package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"career-mentor/internal/storage"
)

// DailyStats summarises one day of recorded events.
type DailyStats struct {
	Date             string               `json:"date"`
	Replies          int                  `json:"replies"`
	UserMessages     int                  `json:"user_messages"`
	Rejected         int                  `json:"rejected"`
	RateLimited      int                  `json:"rate_limited"`
	Roadmaps         int                  `json:"roadmaps"`
	FallbackRoadmaps int                  `json:"fallback_roadmaps"`
	UniqueUsers      int                  `json:"unique_users"`
	ByProvider       map[string]int       `json:"by_provider"`
	ByStage          map[string]int       `json:"by_stage"`
	UserStats        map[string]UserStats `json:"user_stats"`
}

type UserStats struct {
	Identity    string `json:"identity"`
	Messages    int    `json:"messages"`
	Rejected    int    `json:"rejected"`
	RateLimited int    `json:"rate_limited"`
	Roadmaps    int    `json:"roadmaps"`
}

// AnalyzeDailyLogs aggregates the events that fall on targetDate.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:       startOfDay.Format("2006-01-02"),
		ByProvider: make(map[string]int),
		ByStage:    make(map[string]int),
		UserStats:  make(map[string]UserStats),
	}

	for _, ev := range events {
		if ev.Timestamp.Before(startOfDay) || !ev.Timestamp.Before(endOfDay) {
			continue
		}
		us, ok := stats.UserStats[ev.Identity]
		if !ok {
			us = UserStats{Identity: ev.Identity}
		}
		switch ev.Kind {
		case storage.KindReply:
			stats.Replies++
			if ev.UserMessage != "" {
				stats.UserMessages++
				us.Messages++
			}
			if ev.Stage != "" {
				stats.ByStage[ev.Stage]++
			}
			provider := ev.Provider
			if provider == "" {
				provider = "canned"
			}
			stats.ByProvider[provider]++
		case storage.KindRejected:
			stats.Rejected++
			us.Rejected++
		case storage.KindRateLimited:
			stats.RateLimited++
			us.RateLimited++
		case storage.KindRoadmap:
			stats.Roadmaps++
			us.Roadmaps++
			if ev.Fallback {
				stats.FallbackRoadmaps++
			}
		default:
			continue
		}
		stats.UserStats[ev.Identity] = us
	}

	stats.UniqueUsers = len(stats.UserStats)
	return stats
}

// GenerateReportSummary renders the stats as a plain-text report.
func (ds *DailyStats) GenerateReportSummary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Career mentor usage for %s:\n\n", ds.Date)
	fmt.Fprintf(&sb, "- Replies: %d (%d user messages)\n", ds.Replies, ds.UserMessages)
	fmt.Fprintf(&sb, "- Unique users: %d\n", ds.UniqueUsers)
	fmt.Fprintf(&sb, "- Too-short messages: %d\n", ds.Rejected)
	fmt.Fprintf(&sb, "- Rate-limit denials: %d\n", ds.RateLimited)
	fmt.Fprintf(&sb, "- Roadmaps: %d (%d fallback)\n", ds.Roadmaps, ds.FallbackRoadmaps)

	if len(ds.ByProvider) > 0 {
		sb.WriteString("\nReplies by provider:\n")
		for _, k := range sortedKeys(ds.ByProvider) {
			fmt.Fprintf(&sb, "- %s: %d\n", k, ds.ByProvider[k])
		}
	}
	if len(ds.ByStage) > 0 {
		sb.WriteString("\nReplies by stage:\n")
		for _, k := range sortedKeys(ds.ByStage) {
			fmt.Fprintf(&sb, "- %s: %d\n", k, ds.ByStage[k])
		}
	}
	return sb.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
