package services

import (
	"encoding/json"
	"strings"

	"github.com/samber/lo"

	"agilboard/internal/upstream"
)

// Problem statuses known to the dashboard.
const (
	StatusWaiting     = "waiting"
	StatusProgressing = "progressing"
	StatusSolved      = "solved"
	StatusUnknown     = "unknown"
)

const unknownValue = "unknown"

// KnownStatuses lists the statuses counted in problems_by_status.
var KnownStatuses = []string{StatusWaiting, StatusProgressing, StatusSolved}

// UserStats summarizes the user directory.
type UserStats struct {
	TotalUsers       int            `json:"total_users"`
	UsersByRole      map[string]int `json:"users_by_role"`
	AvailableUsers   int            `json:"available_users"`
	UnavailableUsers int            `json:"unavailable_users"`
}

// ProblemStats summarizes the problem tracker. RecentProblems and MonthlyComparison are
// passed through from the problem service.
type ProblemStats struct {
	TotalProblems     int               `json:"total_problems"`
	ProblemsByStatus  map[string]int    `json:"problems_by_status"`
	ProblemsByType    map[string]int    `json:"problems_by_type"`
	RecentProblems    []json.RawMessage `json:"recent_problems"`
	MonthlyComparison map[string]int    `json:"monthly_comparison"`
}

// computeUserStats counts every user record, including those without an ID.
func computeUserStats(users []upstream.User) UserStats {
	available := lo.CountBy(users, func(u upstream.User) bool {
		return lo.FromPtrOr(u.IsAvailable, false)
	})

	return UserStats{
		TotalUsers: len(users),
		UsersByRole: lo.CountValuesBy(users, func(u upstream.User) string {
			return lo.FromPtrOr(u.Role, unknownValue)
		}),
		AvailableUsers:   available,
		UnavailableUsers: len(users) - available,
	}
}

// computeProblemStats buckets statuses case-insensitively. Statuses outside KnownStatuses are
// counted in the total only.
func computeProblemStats(problems []upstream.Problem, recent []json.RawMessage, monthly map[string]int) ProblemStats {
	byStatus := lo.SliceToMap(KnownStatuses, func(s string) (string, int) { return s, 0 })
	for _, p := range problems {
		status := strings.ToLower(lo.FromPtrOr(p.Status, StatusUnknown))
		if _, ok := byStatus[status]; ok {
			byStatus[status]++
		}
	}

	if recent == nil {
		recent = []json.RawMessage{}
	}
	if monthly == nil {
		monthly = map[string]int{}
	}

	return ProblemStats{
		TotalProblems:    len(problems),
		ProblemsByStatus: byStatus,
		ProblemsByType: lo.CountValuesBy(problems, func(p upstream.Problem) string {
			return lo.FromPtrOr(p.Type, unknownValue)
		}),
		RecentProblems:    recent,
		MonthlyComparison: monthly,
	}
}

// IsKnownStatus reports whether status is one a problem can be moved to.
func IsKnownStatus(status string) bool {
	return lo.Contains(KnownStatuses, status)
}
