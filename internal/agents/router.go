package agents

import (
	"regexp"
	"strings"
)

// Recommendation tells the frontend which specialist agent should pick up
// an error report, plus the skills that agent should load.
type Recommendation struct {
	Agent  string   `json:"agent"`
	Skills []string `json:"skills"`
}

// Ordered signal checks. First match wins, so the order here matters:
// frontend signals are checked before backend/database, which are checked
// before infra and devops signals.
var (
	frontendPattern = regexp.MustCompile(`react|jsx|css|tailwind|component|render|dom`)
	databasePattern = regexp.MustCompile(`sql|database|query|migration|orm|deadlock|constraint`)
	infraPattern    = regexp.MustCompile(`timeout|connection refused|econnrefused|port|socket|dns`)
	devopsPattern   = regexp.MustCompile(`docker|kubernetes|k8s|ci\b|pipeline|deploy|helm`)
)

// RouteError maps a free-text error log plus user-selected tags to a
// specialist recommendation. It is a pure function: no state, no I/O.
func RouteError(errorLog string, tags []string) Recommendation {
	text := strings.ToLower(errorLog)

	tagSet := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tagSet[strings.ToLower(strings.TrimSpace(tag))] = true
	}

	// The "database" tag is an explicit user signal and overrides the
	// keyword scan entirely.
	if tagSet["database"] {
		return Recommendation{
			Agent:  "backend-specialist",
			Skills: []string{"api-patterns", "sql-debugging"},
		}
	}

	switch {
	case frontendPattern.MatchString(text) || tagSet["frontend"]:
		return Recommendation{
			Agent:  "frontend-specialist",
			Skills: []string{"component-debugging", "layout-analysis"},
		}
	case databasePattern.MatchString(text):
		return Recommendation{
			Agent:  "backend-specialist",
			Skills: []string{"api-patterns", "sql-debugging"},
		}
	case infraPattern.MatchString(text) || tagSet["backend"]:
		return Recommendation{
			Agent:  "backend-specialist",
			Skills: []string{"api-patterns", "network-diagnostics"},
		}
	case devopsPattern.MatchString(text) || tagSet["devops"]:
		return Recommendation{
			Agent:  "devops-specialist",
			Skills: []string{"pipeline-debugging", "container-ops"},
		}
	}

	return Recommendation{
		Agent:  "debugger",
		Skills: []string{"systematic-debugging"},
	}
}
