package agent

// Tool schemas advertised to the model. Every tool maps onto the same
// service calls the direct commands use, so the session context and
// budget counters stay consistent no matter which path ran.

func stringParam(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func intParam(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func fn(name, desc string, params map[string]interface{}) Tool {
	return Tool{Type: "function", Function: FunctionSpec{Name: name, Description: desc, Parameters: params}}
}

const targetDesc = "Profile or media reference: a URL, @handle, bare username, shortcode, search-result index, or empty to use the current session context."

// AllTools lists every tool the agent can call.
func AllTools() []Tool {
	return []Tool{
		fn("get_profile_stats",
			"Fetch follower counts, bio and story presence for a profile.",
			objectSchema(map[string]interface{}{"target": stringParam(targetDesc)})),
		fn("search_instagram",
			"Search profiles by name or keyword. Results are kept for selection by index.",
			objectSchema(map[string]interface{}{
				"query": stringParam("Search query."),
				"limit": intParam("Maximum hits, 1-50."),
			}, "query")),
		fn("get_reel_stats",
			"Fetch views, likes, comments, saves and virality metrics for one reel.",
			objectSchema(map[string]interface{}{"target": stringParam(targetDesc)})),
		fn("get_recent_reels",
			"Fetch a profile's most recent reels, newest first.",
			objectSchema(map[string]interface{}{
				"target": stringParam(targetDesc),
				"limit":  intParam("Maximum reels, 1-20."),
			})),
		fn("get_profile_reels",
			"Fetch a profile's reels with optional recency window.",
			objectSchema(map[string]interface{}{
				"target":    stringParam(targetDesc),
				"limit":     intParam("Maximum reels, 1-20."),
				"days_back": intParam("Only reels published within the last N days."),
			})),
		fn("get_followers_page",
			"Fetch one page of a profile's followers.",
			objectSchema(map[string]interface{}{
				"target": stringParam(targetDesc),
				"limit":  intParam("Page size, 1-50."),
			})),
		fn("get_top_followers",
			"Sample a profile's followers and rank the sample by audience size. Costs one API request per enriched profile.",
			objectSchema(map[string]interface{}{
				"target":      stringParam(targetDesc),
				"sample_size": intParam("Followers to sample, 5-50."),
				"top_n":       intParam("Ranked entries to return, 1-20."),
				"max_pages":   intParam("Follower pages to spend, 1-4."),
			})),
		fn("get_media_comments",
			"Fetch comments on a reel or post.",
			objectSchema(map[string]interface{}{
				"target": stringParam(targetDesc),
				"limit":  intParam("Maximum comments, 1-100."),
			})),
		fn("get_profile_stories",
			"List a profile's active stories.",
			objectSchema(map[string]interface{}{"target": stringParam(targetDesc)})),
		fn("get_profile_highlights",
			"List a profile's pinned highlight trays.",
			objectSchema(map[string]interface{}{"target": stringParam(targetDesc)})),
		fn("download_media_content",
			"Download a reel's video (or image) to the output directory.",
			objectSchema(map[string]interface{}{"target": stringParam(targetDesc)})),
		fn("download_media_audio",
			"Download a reel's original audio track.",
			objectSchema(map[string]interface{}{"target": stringParam(targetDesc)})),
		fn("download_profile_stories",
			"Download a profile's active stories.",
			objectSchema(map[string]interface{}{"target": stringParam(targetDesc)})),
		fn("download_profile_highlights",
			"Download a profile's highlight covers.",
			objectSchema(map[string]interface{}{"target": stringParam(targetDesc)})),
		fn("get_media_likers",
			"Fetch the (upstream-capped) list of users who liked a media.",
			objectSchema(map[string]interface{}{"target": stringParam(targetDesc)})),
		fn("rank_media_likers_by_followers",
			"Aggregate likers across one or more media and rank them by follower count. Costs one API request per unique liker.",
			objectSchema(map[string]interface{}{
				"targets": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Media URLs or shortcodes; empty uses the current media.",
				},
				"top_n": intParam("Ranked entries to return, 1-100."),
			})),
		fn("get_last_reel_metric",
			"Fetch a profile's newest reel and return one metric: views, likes, comments, saves, engagement_rate, viral_index or viral_status.",
			objectSchema(map[string]interface{}{
				"target": stringParam(targetDesc),
				"metric": stringParam("Metric name."),
			}, "metric")),
		fn("export_session_data",
			"Export the most recently fetched collection to a csv or json file.",
			objectSchema(map[string]interface{}{
				"format":        stringParam("Either csv or json."),
				"filename_hint": stringParam("Optional base name for the exported file."),
			}, "format")),
		fn("get_session_context",
			"Inspect the current session: active profile and media, recent reels, last collection and API budget.",
			objectSchema(map[string]interface{}{})),
	}
}
