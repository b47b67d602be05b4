package tenantapp

import (
	"net/http"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/errs"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/types/slug"
	"github.com/jcpaschoal/crm-tenancy/business/types/status"
)

type queryParams struct {
	Page    string
	Rows    string
	OrderBy string
	Name    string
	Slug    string
	Status  string
}

func parseQueryParams(r *http.Request) queryParams {
	values := r.URL.Query()

	return queryParams{
		Page:    values.Get("page"),
		Rows:    values.Get("rows"),
		OrderBy: values.Get("orderBy"),
		Name:    values.Get("name"),
		Slug:    values.Get("slug"),
		Status:  values.Get("status"),
	}
}

func parseFilter(qp queryParams) (tenantbus.QueryFilter, error) {
	var fieldErrors errs.FieldErrors
	var filter tenantbus.QueryFilter

	if qp.Name != "" {
		filter.Name = &qp.Name
	}

	if qp.Slug != "" {
		sl, err := slug.Parse(qp.Slug)
		switch err {
		case nil:
			filter.Slug = &sl
		default:
			fieldErrors.Add("slug", err)
		}
	}

	if qp.Status != "" {
		st, err := status.Parse(qp.Status)
		switch err {
		case nil:
			filter.Status = &st
		default:
			fieldErrors.Add("status", err)
		}
	}

	if fieldErrors != nil {
		return tenantbus.QueryFilter{}, fieldErrors.ToError()
	}

	return filter, nil
}
