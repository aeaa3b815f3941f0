package api

import (
	"net/url"
	"strings"
)

// Paths of the question API.
const (
	PathHealth    = "/health"
	PathQuestions = "/questions"
)

// QuestionPath returns the path of a single question. The id is escaped so
// a slash stays inside the segment. Dot segments are not escaped; callers
// must reject them (see ValidQuestionID).
func QuestionPath(id string) string {
	return PathQuestions + "/" + url.PathEscape(id)
}

// ValidQuestionID reports whether id can name a single question. Empty ids
// and the dot segments, which path cleaning would resolve to another
// resource, cannot.
func ValidQuestionID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != "." && id != ".."
}
