package graph

import (
	"context"
	"log"
)

// EraseUserData removes every node the given user owns, across all labels,
// together with any relationships attached to those nodes. It returns the
// number of nodes deleted. Writes racing the erasure may leave nodes behind;
// callers that need certainty run the erasure again.
func (s *Store) EraseUserData(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrUnauthorized
	}

	sess := s.newSession(ctx)
	defer sess.close(ctx)

	_, deleted, err := sess.writeTx(ctx,
		"MATCH (n {user_id: $userId}) DETACH DELETE n",
		map[string]any{"userId": userID},
	)
	if err != nil {
		log.Printf("graph: erase user data failed: %v", err)
		return 0, err
	}
	return deleted, nil
}
