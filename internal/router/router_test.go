package router

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zlomke76-del/solace-adapter/pkg/domain"
)

func testTargets() map[string]domain.ForwardTarget {
	return map[string]domain.ForwardTarget{
		"billing": {Service: "billing", URL: "https://billing.internal/execute"},
	}
}

func TestRoute_Success(t *testing.T) {
	target, service, err := Route("billing:issue_refund", testTargets())
	require.NoError(t, err)
	require.Equal(t, "billing", service)
	require.Equal(t, "https://billing.internal/execute", target.URL)
}

func TestRoute_MissingColon(t *testing.T) {
	_, _, err := Route("billing", testTargets())
	require.Error(t, err)
	require.Equal(t, ReasonInvalidActionFormat, err.(*RouteError).Reason)
}

func TestRoute_EmptyServiceOrOperation(t *testing.T) {
	_, _, err := Route(":issue_refund", testTargets())
	require.Error(t, err)
	require.Equal(t, ReasonInvalidActionFormat, err.(*RouteError).Reason)

	_, _, err = Route("billing:", testTargets())
	require.Error(t, err)
	require.Equal(t, ReasonInvalidActionFormat, err.(*RouteError).Reason)
}

func TestRoute_UnknownService(t *testing.T) {
	_, service, err := Route("unknown:op", testTargets())
	require.Error(t, err)
	require.Equal(t, "unknown", service)
	require.Equal(t, ReasonUnknownForwardTarget, err.(*RouteError).Reason)
}

func TestRoute_TrimsWhitespace(t *testing.T) {
	target, service, err := Route(" billing : issue_refund ", testTargets())
	require.NoError(t, err)
	require.Equal(t, "billing", service)
	require.Equal(t, "https://billing.internal/execute", target.URL)
}
