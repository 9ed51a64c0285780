package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirectCommands(t *testing.T) {
	cases := []struct {
		line string
		name string
		args []string
	}{
		{"help", "help", nil},
		{"?", "help", nil},
		{"actions", "actions", nil},
		{"stats @natgeo", "stats", []string{"@natgeo"}},
		{"profile natgeo", "stats", []string{"natgeo"}},
		{"STATS @natgeo", "stats", []string{"@natgeo"}},
		{"reels @natgeo 5 30", "reels", []string{"@natgeo", "5", "30"}},
		{"top-followers @natgeo 30 5", "top-followers", []string{"@natgeo", "30", "5"}},
		{"rank-likers AAA11 BBB22 5", "rank-likers", []string{"AAA11", "BBB22", "5"}},
		{"download media", "download", []string{"media"}},
		{"export csv", "export", []string{"csv"}},
		{"ask how viral was it", "ask", []string{"how", "viral", "was", "it"}},
		{"  budget  ", "budget", nil},
	}
	for _, tc := range cases {
		cmd := Parse(tc.line)
		assert.Equal(t, RouteDirect, cmd.Route, tc.line)
		assert.Equal(t, tc.name, cmd.Name, tc.line)
		if len(tc.args) > 0 {
			assert.Equal(t, tc.args, cmd.Args, tc.line)
		}
	}
}

func TestParseExitForms(t *testing.T) {
	for _, line := range []string{"exit", "quit", "q", "EXIT"} {
		assert.Equal(t, RouteExit, Parse(line).Route, line)
	}
}

func TestParseEmptyLine(t *testing.T) {
	assert.Equal(t, RouteEmpty, Parse("   ").Route)
}

func TestParseBareTargetsRouteToStats(t *testing.T) {
	cases := []string{
		"@natgeo",
		"natgeo",
		"nat.geo_travel",
		"https://www.instagram.com/natgeo/",
		"https://www.instagram.com/reel/AAA11/",
		"instagram.com/natgeo/",
	}
	for _, line := range cases {
		cmd := Parse(line)
		assert.Equal(t, RouteDirect, cmd.Route, line)
		assert.Equal(t, "stats", cmd.Name, line)
		assert.Equal(t, []string{line}, cmd.Args, line)
	}
}

func TestParseFreeTextRoutesToAgent(t *testing.T) {
	cases := []string{
		"how viral was the last reel?",
		"what's trending?", // apostrophe disqualifies the handle shape
		"https://example.com/page",
		"compare the last two reels",
		"a_username_way_too_long_to_be_real_x",
	}
	for _, line := range cases {
		cmd := Parse(line)
		assert.Equal(t, RouteAgent, cmd.Route, line)
		assert.Equal(t, line, cmd.Raw, line)
	}
}
