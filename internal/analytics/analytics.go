package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/korgalidze/persona-chat/internal/conversation"
)

// DailyStats summarizes visitor activity for one UTC day.
type DailyStats struct {
	Date                string         `json:"date"`
	Questions           int            `json:"questions"`
	Answers             int            `json:"answers"`
	ActiveConversations int            `json:"active_conversations"`
	NewConversations    int            `json:"new_conversations"`
	UniqueVisitors      int            `json:"unique_visitors"`
	QuestionsByVisitor  map[string]int `json:"questions_by_visitor"`
}

// AnalyzeDay counts the messages of records that fall on targetDate.
func AnalyzeDay(records []conversation.Record, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)
	inDay := func(t time.Time) bool { return !t.Before(startOfDay) && t.Before(endOfDay) }

	stats := &DailyStats{
		Date:               startOfDay.Format("2006-01-02"),
		QuestionsByVisitor: make(map[string]int),
	}

	for _, rec := range records {
		active := false
		for _, m := range rec.Messages {
			if !inDay(m.Timestamp) {
				continue
			}
			active = true
			switch m.Role {
			case "user":
				stats.Questions++
				stats.QuestionsByVisitor[rec.VisitorIP]++
			case "assistant":
				stats.Answers++
			}
		}
		if active {
			stats.ActiveConversations++
		}
		if inDay(rec.CreatedAt) {
			stats.NewConversations++
		}
	}

	stats.UniqueVisitors = len(stats.QuestionsByVisitor)
	return stats
}

// Summary renders the stats as the plain-text digest body.
func (ds *DailyStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "AI Assistant activity for %s:\n\n", ds.Date)
	fmt.Fprintf(&b, "- Questions: %d\n", ds.Questions)
	fmt.Fprintf(&b, "- Answers: %d\n", ds.Answers)
	fmt.Fprintf(&b, "- Active conversations: %d (%d new)\n", ds.ActiveConversations, ds.NewConversations)
	fmt.Fprintf(&b, "- Unique visitors: %d\n", ds.UniqueVisitors)

	if len(ds.QuestionsByVisitor) > 0 {
		visitors := make([]string, 0, len(ds.QuestionsByVisitor))
		for ip := range ds.QuestionsByVisitor {
			visitors = append(visitors, ip)
		}
		// busiest first, ties by address for stable output
		sort.Slice(visitors, func(i, j int) bool {
			qi, qj := ds.QuestionsByVisitor[visitors[i]], ds.QuestionsByVisitor[visitors[j]]
			if qi != qj {
				return qi > qj
			}
			return visitors[i] < visitors[j]
		})
		b.WriteString("\nQuestions by visitor:\n")
		for _, ip := range visitors {
			fmt.Fprintf(&b, "- %s: %d\n", ip, ds.QuestionsByVisitor[ip])
		}
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
