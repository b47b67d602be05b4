package tenantbus

import "github.com/jcpaschoal/crm-tenancy/business/sdk/order"

// DefaultOrderBy represents the default way we sort.
var DefaultOrderBy = order.NewBy(OrderByCreatedAt, order.ASC)

// Set of fields that the results can be ordered by.
const (
	OrderByID        = "a"
	OrderByName      = "b"
	OrderBySlug      = "c"
	OrderByStatus    = "d"
	OrderByCreatedAt = "e"
)
