package service

import (
	"context"

	"auditorium/pkg/constraints"
)

type contextKey string

const operatorKey contextKey = "operator"

// OperatorInfo is the identity carried by a verified access token.
type OperatorInfo struct {
	UserID string
	Name   string
	Role   constraints.Role
}

func (o *OperatorInfo) Is(roles ...constraints.Role) bool {
	if o == nil {
		return false
	}
	for _, r := range roles {
		if o.Role == r {
			return true
		}
	}
	return false
}

// WithOperator injects the operator info into the context
func WithOperator(ctx context.Context, op *OperatorInfo) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}

// GetOperatorInfo retrieves the operator info from the context
func GetOperatorInfo(ctx context.Context) *OperatorInfo {
	val, ok := ctx.Value(operatorKey).(*OperatorInfo)
	if !ok {
		return nil
	}
	return val
}
