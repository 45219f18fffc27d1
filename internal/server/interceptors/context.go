package interceptors

import (
	"context"

	"github.com/gin-gonic/gin"

	customerdomain "slot-booking/backend/internal/customer/domain"
	staffdomain "slot-booking/backend/internal/staff/domain"
)

type contextKey struct{ name string }

var (
	customerKey  = contextKey{"customer"}
	staffKey     = contextKey{"staff"}
	requestIDKey = contextKey{"request_id"}
)

// Gin context keys, mirrored into the request context.
const (
	ginCustomerKey  = "customer"
	ginStaffKey     = "staff"
	ginRequestIDKey = "request_id"
)

// WithCustomer returns a context carrying the authenticated customer.
func WithCustomer(ctx context.Context, c *customerdomain.Customer) context.Context {
	return context.WithValue(ctx, customerKey, c)
}

// CustomerFromContext returns the authenticated customer and true if set.
func CustomerFromContext(ctx context.Context) (*customerdomain.Customer, bool) {
	c, ok := ctx.Value(customerKey).(*customerdomain.Customer)
	return c, ok && c != nil
}

// Customer returns the customer set by Auth on the gin context.
func Customer(c *gin.Context) (*customerdomain.Customer, bool) {
	v, ok := c.Get(ginCustomerKey)
	if !ok {
		return nil, false
	}
	cust, ok := v.(*customerdomain.Customer)
	return cust, ok && cust != nil
}

func setCustomer(c *gin.Context, cust *customerdomain.Customer) {
	c.Set(ginCustomerKey, cust)
	c.Request = c.Request.WithContext(WithCustomer(c.Request.Context(), cust))
}

// WithStaff returns a context carrying the authenticated staff member.
func WithStaff(ctx context.Context, s *staffdomain.Staff) context.Context {
	return context.WithValue(ctx, staffKey, s)
}

// StaffFromContext returns the authenticated staff member and true if set.
func StaffFromContext(ctx context.Context) (*staffdomain.Staff, bool) {
	s, ok := ctx.Value(staffKey).(*staffdomain.Staff)
	return s, ok && s != nil
}

// Staff returns the staff member set by StaffAuth on the gin context.
func Staff(c *gin.Context) (*staffdomain.Staff, bool) {
	v, ok := c.Get(ginStaffKey)
	if !ok {
		return nil, false
	}
	st, ok := v.(*staffdomain.Staff)
	return st, ok && st != nil
}

func setStaff(c *gin.Context, st *staffdomain.Staff) {
	c.Set(ginStaffKey, st)
	c.Request = c.Request.WithContext(WithStaff(c.Request.Context(), st))
}

// RequestIDFromContext returns the request id set by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
