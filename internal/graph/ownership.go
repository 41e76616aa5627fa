package graph

import (
	"context"
	"fmt"
	"log"
)

// Label names a node kind the service stores. Cypher cannot take a label as
// a query parameter, so any label reaching a statement must come from this
// closed set.
type Label string

const (
	LabelCharacter Label = "Character"
	LabelLocation  Label = "Location"
	LabelItem      Label = "Item"
	LabelMoment    Label = "Moment"
	LabelNote      Label = "Note"
)

// Labels returns every label the service stores.
func Labels() []Label {
	return []Label{LabelCharacter, LabelLocation, LabelItem, LabelMoment, LabelNote}
}

// ParseLabel maps client input onto the closed label set.
func ParseLabel(s string) (Label, bool) {
	switch l := Label(s); l {
	case LabelCharacter, LabelLocation, LabelItem, LabelMoment, LabelNote:
		return l, true
	}
	return "", false
}

func (l Label) valid() bool {
	_, ok := ParseLabel(string(l))
	return ok
}

// VerifyOwnership reports whether a node with the given label and id exists
// and belongs to the user in the ambient auth context. A node owned by
// someone else answers exactly like a node that does not exist. Failures of
// any kind are logged and reported as false; an unconfirmed check denies.
func (s *Store) VerifyOwnership(ctx context.Context, label Label, nodeID string) bool {
	return s.VerifyOwnershipAs(ctx, FromContext(ctx), label, nodeID)
}

// VerifyOwnershipAs is VerifyOwnership with an explicit auth context.
func (s *Store) VerifyOwnershipAs(ctx context.Context, actx *AuthContext, label Label, nodeID string) bool {
	userID, err := UserID(actx)
	if err != nil {
		log.Printf("graph: ownership check without session: %v", err)
		return false
	}
	if !label.valid() {
		log.Printf("graph: ownership check with unknown label %q", label)
		return false
	}

	cypher := fmt.Sprintf(
		"MATCH (n:%s {id: $nodeId, user_id: $userId}) RETURN count(n) > 0 AS owned",
		label,
	)

	sess := s.newSession(ctx)
	defer sess.close(ctx)

	records, err := sess.run(ctx, cypher, scopeParams(map[string]any{"nodeId": nodeID}, userID))
	if err != nil {
		log.Printf("graph: ownership check failed: %v", err)
		return false
	}
	if len(records) == 0 {
		return false
	}
	owned, ok := records[0].Get("owned")
	if !ok {
		return false
	}
	b, ok := owned.(bool)
	return ok && b
}
