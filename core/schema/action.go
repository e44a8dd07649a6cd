package schema

import (
	"fmt"
	"net/http"
	"strings"
)

// Operation is one of the six entity operations a route can bind to.
type Operation int

const (
	OpCount Operation = iota + 1
	OpFindByID
	OpUpdateByID
	OpDeleteByID
	OpFindAll
	OpCreate
)

var operationNames = map[Operation]string{
	OpCount:      "count",
	OpFindByID:   "findById",
	OpUpdateByID: "updateById",
	OpDeleteByID: "deleteById",
	OpFindAll:    "findAll",
	OpCreate:     "create",
}

// Operations returns every operation in default route order.
func Operations() []Operation {
	return []Operation{OpCount, OpFindByID, OpUpdateByID, OpDeleteByID, OpFindAll, OpCreate}
}

// String returns the operation name used in model documents.
func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// ParseOperation resolves an operation name. Matching is case-insensitive.
func ParseOperation(name string) (Operation, error) {
	for op, n := range operationNames {
		if strings.EqualFold(n, name) {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", name)
}

// TakesID reports whether the operation addresses a single entity by id.
func (o Operation) TakesID() bool {
	return o == OpFindByID || o == OpUpdateByID || o == OpDeleteByID
}

// TakesBody reports whether the operation reads an entity from the request body.
func (o Operation) TakesBody() bool {
	return o == OpCreate || o == OpUpdateByID
}

// TakesFilter reports whether the operation accepts filter query parameters.
func (o Operation) TakesFilter() bool {
	return o == OpCount || o == OpFindAll
}

// ParseVerb resolves an HTTP verb as written in a model document ("get", "PUT", ...).
func ParseVerb(verb string) (string, error) {
	switch v := strings.ToUpper(strings.TrimSpace(verb)); v {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return v, nil
	default:
		return "", fmt.Errorf("unsupported http verb %q", verb)
	}
}
