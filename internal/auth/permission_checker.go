package auth

import (
	"context"

	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
)

type PermissionChecker interface {
	HasPermission(ctx context.Context, p *Principal, resource permission.Resource, action permission.Action) bool
	IsAdmin(ctx context.Context, p *Principal) bool
	CanSeeAISummary(ctx context.Context, p *Principal) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(_ context.Context, p *Principal, resource permission.Resource, action permission.Action) bool {
	if p == nil {
		return false
	}
	return p.Can(resource, action)
}

func (c *DefaultPermissionChecker) IsAdmin(_ context.Context, p *Principal) bool {
	return p != nil && p.IsAdmin()
}

func (c *DefaultPermissionChecker) CanSeeAISummary(ctx context.Context, p *Principal) bool {
	return c.HasPermission(ctx, p, permission.ResourceAISummary, permission.ActionView)
}
