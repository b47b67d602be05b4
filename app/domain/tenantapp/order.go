package tenantapp

import (
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
)

var orderByFields = map[string]string{
	"org_id":     tenantbus.OrderByID,
	"name":       tenantbus.OrderByName,
	"slug":       tenantbus.OrderBySlug,
	"status":     tenantbus.OrderByStatus,
	"created_at": tenantbus.OrderByCreatedAt,
}
