package tenantdb

import (
	"fmt"

	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/order"
)

var orderByFields = map[string]string{
	tenantbus.OrderByID:        "id",
	tenantbus.OrderByName:      "name",
	tenantbus.OrderBySlug:      "slug",
	tenantbus.OrderByStatus:    "lifecycle_status",
	tenantbus.OrderByCreatedAt: "created_at",
}

func orderByClause(orderBy order.By) (string, error) {
	by, exists := orderByFields[orderBy.Field]
	if !exists {
		return "", fmt.Errorf("field %q does not exist", orderBy.Field)
	}

	return " ORDER BY " + by + " " + orderBy.Direction + ", id ASC", nil
}
