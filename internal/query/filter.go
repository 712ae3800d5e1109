package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Validation errors for filters and update documents.
var (
	ErrEmptyFilter  = errors.New("filter must be a non-empty document")
	ErrUnsafeFilter = errors.New("top-level query operators are not allowed")
	ErrEmptyUpdate  = errors.New("update must be a non-empty document")
	ErrUnsafeUpdate = errors.New("update contains a disallowed operator or field")
)

// allowedUpdateOps is the safe subset of update operators the repository
// accepts. Everything else is rejected before reaching MongoDB.
var allowedUpdateOps = map[string]struct{}{
	"$set":   {},
	"$unset": {},
	"$inc":   {},
	"$push":  {},
	"$pull":  {},
}

// ValidateFilter checks a MongoDB filter document before it is sent to the
// server. An empty (or nil) filter is permitted only when allowEmpty is true,
// e.g. for "read everything" listings. Top-level $-operators are always
// rejected so a fallible caller cannot inject arbitrary server-side operators.
func ValidateFilter(filter bson.M, allowEmpty bool) error {
	if len(filter) == 0 {
		if allowEmpty {
			return nil
		}
		return ErrEmptyFilter
	}
	for key := range filter {
		if strings.HasPrefix(key, "$") {
			return fmt.Errorf("%w: %q", ErrUnsafeFilter, key)
		}
	}
	return nil
}

// ValidateUpdate checks an update document. Every top-level key must be one
// of the allowed update operators, and field names inside operator payloads
// must not themselves start with '$'.
func ValidateUpdate(update bson.M) error {
	if len(update) == 0 {
		return ErrEmptyUpdate
	}
	for op, payload := range update {
		if _, ok := allowedUpdateOps[op]; !ok {
			return fmt.Errorf("%w: operator %q", ErrUnsafeUpdate, op)
		}
		fields, ok := payload.(bson.M)
		if !ok {
			if m, isMap := payload.(map[string]interface{}); isMap {
				fields = bson.M(m)
				ok = true
			}
		}
		if !ok {
			continue
		}
		for field := range fields {
			if strings.HasPrefix(field, "$") {
				return fmt.Errorf("%w: field %q", ErrUnsafeUpdate, field)
			}
		}
	}
	return nil
}

// AllowedUpdateOps returns the update operators ValidateUpdate accepts,
// for use in error messages and API documentation.
func AllowedUpdateOps() []string {
	ops := make([]string, 0, len(allowedUpdateOps))
	for op := range allowedUpdateOps {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
