// Package repl implements the interactive shell: a command router for
// direct commands plus free-form dispatch to the agent.
package repl

import "strings"

// Route classifies one input line.
type Route int

const (
	// RouteEmpty means a blank line, nothing to do.
	RouteEmpty Route = iota
	// RouteDirect means a recognized command with arguments.
	RouteDirect
	// RouteAgent means free-form text for the agent.
	RouteAgent
	// RouteExit ends the session.
	RouteExit
)

// Command is one parsed input line.
type Command struct {
	Route Route
	Name  string
	Args  []string
	Raw   string
}

// directCommands maps first tokens to their canonical command name.
var directCommands = map[string]string{
	"help":          "help",
	"?":             "help",
	"actions":       "actions",
	"stats":         "stats",
	"profile":       "stats",
	"reel":          "reel",
	"reels":         "reels",
	"search":        "search",
	"open":          "open",
	"followers":     "followers",
	"top-followers": "top-followers",
	"likers":        "likers",
	"rank-likers":   "rank-likers",
	"comments":      "comments",
	"stories":       "stories",
	"highlights":    "highlights",
	"download":      "download",
	"export":        "export",
	"last":          "last",
	"model":         "model",
	"render":        "render",
	"reload":        "reload",
	"budget":        "budget",
	"ask":           "ask",
}

// Parse routes one input line. Command matching is case-insensitive on
// the first token; a bare URL or @handle is treated as a stats request.
func Parse(line string) Command {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return Command{Route: RouteEmpty, Raw: raw}
	}

	fields := strings.Fields(raw)
	head := strings.ToLower(fields[0])

	switch head {
	case "exit", "quit", "q":
		return Command{Route: RouteExit, Name: "exit", Raw: raw}
	}

	if name, ok := directCommands[head]; ok {
		return Command{Route: RouteDirect, Name: name, Args: fields[1:], Raw: raw}
	}

	if len(fields) == 1 && looksLikeTarget(fields[0]) {
		return Command{Route: RouteDirect, Name: "stats", Args: fields, Raw: raw}
	}

	return Command{Route: RouteAgent, Raw: raw}
}

// looksLikeTarget reports whether a lone token is a profile or media
// reference rather than a question. Bare usernames count: a single
// handle-shaped word is a stats shortcut, not a prompt.
func looksLikeTarget(token string) bool {
	if strings.HasPrefix(token, "@") {
		return true
	}
	lower := strings.ToLower(token)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return strings.Contains(lower, "instagram.com")
	}
	if strings.Contains(lower, "instagram.com/") {
		return true
	}
	return isHandleShaped(token)
}

// isHandleShaped matches the username charset: letters, digits, dots
// and underscores, at most 30 characters.
func isHandleShaped(token string) bool {
	if token == "" || len(token) > 30 {
		return false
	}
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_':
		default:
			return false
		}
	}
	return true
}
