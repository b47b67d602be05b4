package memberdb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
)

type membershipDB struct {
	PrincipalID uuid.UUID     `db:"principal_id"`
	OrgID       uuid.NullUUID `db:"organization_id"`
	Role        string        `db:"role"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

func toDBMembership(bus memberbus.Membership) membershipDB {
	return membershipDB{
		PrincipalID: bus.PrincipalID,
		OrgID:       uuid.NullUUID{UUID: bus.OrgID, Valid: bus.OrgID != uuid.Nil},
		Role:        bus.Role.String(),
		CreatedAt:   bus.CreatedAt.UTC(),
		UpdatedAt:   bus.UpdatedAt.UTC(),
	}
}

func toBusMembership(db membershipDB) (memberbus.Membership, error) {
	r, err := role.Parse(db.Role)
	if err != nil {
		return memberbus.Membership{}, fmt.Errorf("parse role: %w", err)
	}

	bus := memberbus.Membership{
		PrincipalID: db.PrincipalID,
		Role:        r,
		CreatedAt:   db.CreatedAt.In(time.Local),
		UpdatedAt:   db.UpdatedAt.In(time.Local),
	}

	if db.OrgID.Valid {
		bus.OrgID = db.OrgID.UUID
	}

	return bus, nil
}

func toBusMemberships(dbs []membershipDB) ([]memberbus.Membership, error) {
	bus := make([]memberbus.Membership, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusMembership(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
