package tenantdb

import (
	"bytes"
	"strings"

	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
)

func applyFilter(filter tenantbus.QueryFilter, data map[string]any, buf *bytes.Buffer) {
	var wc []string

	if filter.ID != nil {
		data["id"] = *filter.ID
		wc = append(wc, "id = :id")
	}

	if filter.Name != nil {
		data["name"] = "%" + *filter.Name + "%"
		wc = append(wc, "name ILIKE :name")
	}

	if filter.Slug != nil {
		data["slug"] = filter.Slug.String()
		wc = append(wc, "slug = :slug")
	}

	if filter.Status != nil {
		data["lifecycle_status"] = filter.Status.String()
		wc = append(wc, "lifecycle_status = :lifecycle_status")
	}

	if len(wc) > 0 {
		buf.WriteString(" WHERE ")
		buf.WriteString(strings.Join(wc, " AND "))
	}
}
