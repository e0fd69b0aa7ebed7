package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getBoolFromRecord(record *neo4j.Record, key string) bool {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return false
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return false
}

func getTimeFromRecord(record *neo4j.Record, key string) time.Time {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return time.Time{}
	}
	return toTime(val)
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok && str != "" {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

func getStringFromMap(m map[string]interface{}, key, defaultValue string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}

func getInt64FromMap(m map[string]interface{}, key string) int64 {
	val, ok := m[key]
	if !ok || val == nil {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// toTime converts Neo4j temporal values to time.Time.
// The driver returns time.Time for DATETIME and neo4j.LocalDateTime for
// values written without a zone.
func toTime(val interface{}) time.Time {
	switch v := val.(type) {
	case time.Time:
		return v.UTC()
	case neo4j.LocalDateTime:
		return v.Time().UTC()
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// filesFromRecord parses a collected list of file maps, skipping the null
// placeholders OPTIONAL MATCH produces when nothing is attached.
func filesFromRecord(record *neo4j.Record, key string) []File {
	files := []File{}
	val, ok := record.Get(key)
	if !ok || val == nil {
		return files
	}
	list, ok := val.([]interface{})
	if !ok {
		return files
	}
	for _, item := range list {
		fm, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id := getStringFromMap(fm, "file_id", "")
		if id == "" {
			continue
		}
		files = append(files, File{
			ID:       id,
			URL:      getStringFromMap(fm, "url", ""),
			FileType: getStringFromMap(fm, "file_type", ""),
			Size:     getInt64FromMap(fm, "size"),
		})
	}
	return files
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
