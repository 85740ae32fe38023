package api

import (
	"context"

	"github.com/consolelogkochan/dev-cockpit/models"
)

type keyType string

const userKey keyType = "user"

// ctxWithUser adds the authenticated user to the context
func ctxWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// ctxGetUser retrieves the authenticated user, or nil outside authenticated routes
func ctxGetUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
