package rest

import (
	"context"
	"net/http"
)

// HeaderTenantID передаётся identity-прослойкой выше по стеку;
// сама аутентификация вне зоны ответственности сервиса.
const HeaderTenantID = "X-Tenant-ID"

type contextKey string

const tenantIDKey contextKey = "tenant_id"

// requireTenant отклоняет запросы без идентификатора тенанта.
func requireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(HeaderTenantID)
		if tenantID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+HeaderTenantID+" header")
			return
		}
		ctx := context.WithValue(r.Context(), tenantIDKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tenantFromContext(ctx context.Context) string {
	tenantID, _ := ctx.Value(tenantIDKey).(string)
	return tenantID
}
