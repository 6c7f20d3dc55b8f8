package cont

import (
	"context"
)

type ctxKey string

const PrincipalKey ctxKey = "principal"

// PutPrincipal stores the authenticated API caller.
func PutPrincipal(c context.Context, principal string) context.Context {
	return context.WithValue(c, PrincipalKey, principal)
}

func GetPrincipal(c context.Context) string {
	principal, ok := c.Value(PrincipalKey).(string)
	if !ok {
		return ""
	}
	return principal
}
