package tenantdb_test

import (
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/order"
)

func orderByName() order.By {
	return order.NewBy(tenantbus.OrderByName, order.DESC)
}
