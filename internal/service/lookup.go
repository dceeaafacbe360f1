// Package service holds lookup helpers shared by the domain services.
package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/repository"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
)

// Get loads one record by id. A missing record or malformed id is reported as
// a not found error carrying code.
func Get[T any](ctx context.Context, f *repository.Facade[T], id, code, resource string) (*T, error) {
	doc, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperrors.NotFound(code, resource)
	}
	return doc, nil
}

// Update applies patch to one record and returns it as stored afterwards.
// patch may be a bson.M or a struct whose zero fields are omitted.
func Update[T any](ctx context.Context, f *repository.Facade[T], id string, patch interface{}, code, resource string) (*T, error) {
	set, ok := patch.(bson.M)
	if !ok {
		var err error
		if set, err = repository.SetFields(patch); err != nil {
			return nil, err
		}
	}
	matched, err := f.UpdateByID(ctx, id, set)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", resource, err)
	}
	if !matched {
		return nil, apperrors.NotFound(code, resource)
	}
	return Get(ctx, f, id, code, resource)
}

// Delete removes one record by id.
func Delete[T any](ctx context.Context, f *repository.Facade[T], id, code, resource string) error {
	deleted, err := f.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", resource, err)
	}
	if !deleted {
		return apperrors.NotFound(code, resource)
	}
	return nil
}
