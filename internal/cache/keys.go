package cache

import (
	"github.com/stemsi/quizling/internal/api"
	"github.com/stemsi/quizling/internal/model"
)

const keyPrefix = "quizling:"

// QuestionKey is the cache key of a single question.
func QuestionKey(id string) string {
	return keyPrefix + "question:" + id
}

// QuestionsKey is the cache key of one collection page. Queries that encode
// to the same URL parameters share an entry.
func QuestionsKey(q model.QuestionQuery) string {
	return keyPrefix + "questions:" + api.EncodeQuery(q).Encode()
}
