package router

import (
	"strings"

	"github.com/zlomke76-del/solace-adapter/pkg/domain"
)

const (
	ReasonInvalidActionFormat  = "invalid_action_format"
	ReasonUnknownForwardTarget = "unknown_forward_target"
)

type RouteError struct {
	Reason string
}

func (e *RouteError) Error() string { return "router: " + e.Reason }

func Route(action string, targets map[string]domain.ForwardTarget) (domain.ForwardTarget, string, error) {
	idx := strings.Index(action, ":")
	if idx <= 0 || idx == len(action)-1 {
		return domain.ForwardTarget{}, "", &RouteError{Reason: ReasonInvalidActionFormat}
	}
	service := strings.TrimSpace(action[:idx])
	operation := strings.TrimSpace(action[idx+1:])
	if service == "" || operation == "" {
		return domain.ForwardTarget{}, "", &RouteError{Reason: ReasonInvalidActionFormat}
	}

	target, ok := targets[service]
	if !ok {
		return domain.ForwardTarget{}, service, &RouteError{Reason: ReasonUnknownForwardTarget}
	}
	return target, service, nil
}
