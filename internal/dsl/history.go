package dsl

import (
	"fmt"

	"dsl-go/internal/model"
)

// GetHistory returns the most recent recorded operations, newest first.
func (s *DSLService) GetHistory(limit int) ([]*model.Operation, error) {
	ops, err := s.database.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
