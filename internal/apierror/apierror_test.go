package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := E(KindInsufficientStock, "not enough units")
	assert.Equal(t, KindInsufficientStock, KindOf(err))

	wrapped := fmt.Errorf("checkout failed: %w", err)
	assert.Equal(t, KindInsufficientStock, KindOf(wrapped))

	// Unclassified errors must never leak as a client-facing kind.
	assert.Equal(t, KindStoreUnavailable, KindOf(errors.New("pq: connection reset")))
}

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := Ef(KindProductNotFound, "product %s does not exist", "x")
	assert.True(t, errors.Is(err, E(KindProductNotFound, "")))
	assert.False(t, errors.Is(err, E(KindNotFound, "")))
}

func TestIsKindWalksTheChain(t *testing.T) {
	inner := E(KindSessionAlreadyOpen, "a cash session is already open")
	outer := fmt.Errorf("open: %w", inner)
	assert.True(t, IsKind(outer, KindSessionAlreadyOpen))
	assert.False(t, IsKind(outer, KindNoOpenSession))
	assert.False(t, IsKind(nil, KindNoOpenSession))
}

func TestWithField(t *testing.T) {
	err := E(KindInvalidLineItem, "quantity must be at least 1").
		WithField("line", "2").
		WithField("product_id", "abc")
	assert.Equal(t, "2", err.Fields["line"])
	assert.Equal(t, "abc", err.Fields["product_id"])
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindPermissionDenied:    http.StatusForbidden,
		KindProductNotFound:     http.StatusNotFound,
		KindNotFound:            http.StatusNotFound,
		KindSessionAlreadyOpen:  http.StatusConflict,
		KindConcurrencyConflict: http.StatusConflict,
		KindStoreUnavailable:    http.StatusServiceUnavailable,
		KindInvalidInput:        http.StatusUnprocessableEntity,
		KindInvalidAmount:       http.StatusBadRequest,
		KindNoOpenSession:       http.StatusBadRequest,
		KindInsufficientStock:   http.StatusBadRequest,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
}

func TestFromErrorHidesStoreDetails(t *testing.T) {
	env := FromError(Store(errors.New("dial tcp 10.0.0.5:5432: timeout")))
	assert.Equal(t, string(KindStoreUnavailable), env.Code)
	assert.NotContains(t, env.Detail, "10.0.0.5")

	env = FromError(errors.New("raw driver error"))
	assert.Equal(t, "internal error", env.Detail)

	env = FromError(E(KindInvalidAmount, "amount must not be negative").WithField("field", "initial_cash"))
	assert.Equal(t, string(KindInvalidAmount), env.Code)
	assert.Equal(t, "amount must not be negative", env.Detail)
	assert.Equal(t, "initial_cash", env.Fields["field"])
}
