package testutil

import (
	"net/http"

	"catapult/pkg/requestcontext"
)

// WithTenant simulates the tenant middleware for handler tests.
func WithTenant(req *http.Request, tenantID int64) *http.Request {
	return req.WithContext(requestcontext.WithTenantID(req.Context(), tenantID))
}

// WithRequestID simulates the request id middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
