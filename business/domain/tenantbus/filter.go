package tenantbus

import (
	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/types/slug"
	"github.com/jcpaschoal/crm-tenancy/business/types/status"
)

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	ID     *uuid.UUID
	Name   *string
	Slug   *slug.Slug
	Status *status.Status
}
