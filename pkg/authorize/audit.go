package authorize

import (
	"context"
	"log/slog"
)

// AuditedAuthorization wraps an IAuthorization and logs every denial.
type AuditedAuthorization struct {
	inner IAuthorization
	log   *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, log *slog.Logger) *AuditedAuthorization {
	return &AuditedAuthorization{inner: inner, log: log}
}

func (a *AuditedAuthorization) Can(ctx context.Context, role Role, resource Resource, action Action) (bool, error) {
	ok, err := a.inner.Can(ctx, role, resource, action)
	if err != nil {
		a.log.Error("authorization check failed",
			"role", role, "resource", resource, "action", action, "error", err)
		return ok, err
	}
	if !ok {
		a.log.Warn("authorization denied",
			"role", role, "resource", resource, "action", action)
	}
	return ok, nil
}

func (a *AuditedAuthorization) MustEnforce(ctx context.Context, role Role, resource Resource, action Action) error {
	ok, err := a.Can(ctx, role, resource, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
