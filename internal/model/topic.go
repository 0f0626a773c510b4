package model

import "fmt"

// Topic is a cluster of documents addressing the same subject area. Member
// order is assignment order; a document's primary topic is the first topic
// (in topic order) that lists it.
type Topic struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	MemberIDs []string `json:"member_document_ids"`
}

// TopicID derives the identifier for the nth topic created during
// clustering (0-based).
func TopicID(n int) string {
	return fmt.Sprintf("topic-%02d", n)
}
