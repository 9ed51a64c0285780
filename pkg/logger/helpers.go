package logger

// LogRequest logs one data API round trip.
func LogRequest(method, url string, statusCode int, durationMS float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMS,
	}

	switch {
	case statusCode >= 500:
		GetLogger().ErrorWithFields("api request server error", fields)
	case statusCode >= 400:
		GetLogger().WarnWithFields("api request client error", fields)
	default:
		GetLogger().DebugWithFields("api request completed", fields)
	}
}

// LogToolCall logs one agent tool execution.
func LogToolCall(tool string, ok bool, durationMS float64) {
	fields := map[string]interface{}{
		"tool":        tool,
		"ok":          ok,
		"duration_ms": durationMS,
	}
	if ok {
		GetLogger().DebugWithFields("tool call completed", fields)
	} else {
		GetLogger().WarnWithFields("tool call failed", fields)
	}
}

// LogBudget logs the running API budget after a sampling operation.
func LogBudget(operation string, pageRequests, profileLookups, cacheHits int) {
	GetLogger().InfoWithFields("api budget", map[string]interface{}{
		"operation":       operation,
		"page_requests":   pageRequests,
		"profile_lookups": profileLookups,
		"cache_hits":      cacheHits,
	})
}
