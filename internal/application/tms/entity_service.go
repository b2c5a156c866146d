package tms

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/fleet"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/partner"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// createRecord adds a validated record optimistically
func createRecord[T any, P shared.Record[T]](
	ctx context.Context,
	s *Session,
	actor shared.Actor,
	c *Collection[T, P],
	store shared.EntityStore[T],
	rec P,
	name string,
) (P, *Pending) {
	s.mu.Lock()
	m := &mutation{}
	putRecord(m, c, store, rec)
	s.mu.Unlock()

	entityType := c.EntityType()
	snapshot := P(rec.Clone())
	pending := s.coord.Submit(ctx, "create "+strings.ToLower(entityType), rec.GetID(), m, &s.mu, func(ctx context.Context) {
		s.recorder.Created(ctx, s.tenantID, actor, entityType, snapshot.GetID(), snapshot,
			fmt.Sprintf("Created %s %s", entityType, name))
	})
	return P(rec.Clone()), pending
}

// updateRecord applies a partial update optimistically. after, when set,
// runs once the update is persisted.
func updateRecord[T any, P shared.Record[T]](
	ctx context.Context,
	s *Session,
	actor shared.Actor,
	c *Collection[T, P],
	store shared.EntityStore[T],
	id uuid.UUID,
	apply func(P) ([]string, error),
	after func(ctx context.Context, next P, changed []string),
) (P, *Pending, error) {
	entityType := c.EntityType()
	if err := authorize(actor, entityType, ActionUpdate); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	current, ok := c.Get(id)
	if !ok {
		s.mu.Unlock()
		return nil, nil, shared.NewNotFoundError(entityType, id)
	}
	next := P(current.Clone())
	changed, err := apply(next)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	if len(changed) == 0 {
		s.mu.Unlock()
		return current, resolvedPending(id, nil), nil
	}
	m := &mutation{}
	putRecord(m, c, store, next)
	s.mu.Unlock()

	before, afterPayload := payloadOf(current), payloadOf(next)
	snapshot := P(next.Clone())
	pending := s.coord.Submit(ctx, "update "+strings.ToLower(entityType), id, m, &s.mu, func(ctx context.Context) {
		s.recorder.Updated(ctx, s.tenantID, actor, entityType, id, before, afterPayload,
			fmt.Sprintf("Updated %s fields: %s", entityType, strings.Join(changed, ", ")))
		if after != nil {
			after(ctx, snapshot, changed)
		}
	})
	return P(next.Clone()), pending, nil
}

func getRecord[T any, P shared.Record[T]](c *Collection[T, P], id uuid.UUID) (P, error) {
	rec, ok := c.Get(id)
	if !ok {
		return nil, shared.NewNotFoundError(c.EntityType(), id)
	}
	return rec, nil
}

// GetEmployee returns an employee by id
func (s *Session) GetEmployee(id uuid.UUID) (*fleet.Employee, error) {
	return getRecord(s.employees, id)
}

// ListEmployees returns all employees, optionally only drivers
func (s *Session) ListEmployees(driversOnly bool) []*fleet.Employee {
	if !driversOnly {
		return s.employees.List()
	}
	return s.employees.Filter((*fleet.Employee).IsDriver)
}

// CreateEmployee adds a driver or dispatcher
func (s *Session) CreateEmployee(ctx context.Context, actor shared.Actor, in CreateEmployeeInput) (*fleet.Employee, *Pending, error) {
	if err := authorize(actor, EntityEmployee, ActionCreate); err != nil {
		return nil, nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}
	e, err := fleet.NewEmployee(s.tenantID, in.FirstName, in.LastName, in.Type)
	if err != nil {
		return nil, nil, err
	}
	e.Email = strings.TrimSpace(in.Email)
	e.Phone = strings.TrimSpace(in.Phone)
	e.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	if e.IsDriver() {
		driverType := in.DriverType
		if driverType == "" {
			driverType = fleet.DriverTypeCompany
		}
		if err := e.SetPay(driverType, in.Split, in.PerMileRate); err != nil {
			return nil, nil, err
		}
		if err := e.SetProfile(in.Profile); err != nil {
			return nil, nil, err
		}
	}
	createdBy := actor.UserID
	e.CreatedBy = &createdBy

	out, pending := createRecord(ctx, s, actor, s.employees, s.deps.Stores.Employees, e, e.FullName())
	return out, pending, nil
}

// UpdateEmployee changes an employee. Pay changes are carried into the
// driver's draft settlements.
func (s *Session) UpdateEmployee(ctx context.Context, actor shared.Actor, id uuid.UUID, in UpdateEmployeeInput) (*fleet.Employee, *Pending, error) {
	return updateRecord(ctx, s, actor, s.employees, s.deps.Stores.Employees, id,
		func(e *fleet.Employee) ([]string, error) { return e.Apply(in) },
		func(ctx context.Context, e *fleet.Employee, changed []string) {
			for _, f := range changed {
				if f == "pay" || f == "profile" {
					s.resyncDriverSettlements(ctx, actor, e.ID)
					return
				}
			}
		})
}

func (s *Session) resyncDriverSettlements(ctx context.Context, actor shared.Actor, driverID uuid.UUID) {
	seen := make(map[uuid.UUID]bool)
	for _, stlID := range s.index.ReferrersOfType(driverID, EntitySettlement) {
		stl, ok := s.settlements.Get(stlID)
		if !ok || len(stl.LoadIDs) == 0 || seen[stl.LoadIDs[0]] {
			continue
		}
		seen[stl.LoadIDs[0]] = true
		s.resyncSettlements(ctx, actor, stl.LoadIDs[0])
	}
}

// GetTruck returns a truck by id
func (s *Session) GetTruck(id uuid.UUID) (*fleet.Truck, error) {
	return getRecord(s.trucks, id)
}

// ListTrucks returns all trucks by unit number
func (s *Session) ListTrucks() []*fleet.Truck {
	return s.trucks.List()
}

// CreateTruck adds a truck
func (s *Session) CreateTruck(ctx context.Context, actor shared.Actor, in CreateTruckInput) (*fleet.Truck, *Pending, error) {
	if err := authorize(actor, EntityTruck, ActionCreate); err != nil {
		return nil, nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}
	t, err := fleet.NewTruck(s.tenantID, in.UnitNumber)
	if err != nil {
		return nil, nil, err
	}
	t.VIN, t.Make, t.Model, t.Year = strings.ToUpper(in.VIN), in.Make, in.Model, in.Year
	createdBy := actor.UserID
	t.CreatedBy = &createdBy

	out, pending := createRecord(ctx, s, actor, s.trucks, s.deps.Stores.Trucks, t, t.DisplayName())
	return out, pending, nil
}

// UpdateTruck changes a truck
func (s *Session) UpdateTruck(ctx context.Context, actor shared.Actor, id uuid.UUID, in UpdateTruckInput) (*fleet.Truck, *Pending, error) {
	return updateRecord(ctx, s, actor, s.trucks, s.deps.Stores.Trucks, id,
		func(t *fleet.Truck) ([]string, error) { return t.Apply(in) }, nil)
}

// GetTrailer returns a trailer by id
func (s *Session) GetTrailer(id uuid.UUID) (*fleet.Trailer, error) {
	return getRecord(s.trailers, id)
}

// ListTrailers returns all trailers by unit number
func (s *Session) ListTrailers() []*fleet.Trailer {
	return s.trailers.List()
}

// CreateTrailer adds a trailer
func (s *Session) CreateTrailer(ctx context.Context, actor shared.Actor, in CreateTrailerInput) (*fleet.Trailer, *Pending, error) {
	if err := authorize(actor, EntityTrailer, ActionCreate); err != nil {
		return nil, nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}
	t, err := fleet.NewTrailer(s.tenantID, in.UnitNumber, in.Type)
	if err != nil {
		return nil, nil, err
	}
	createdBy := actor.UserID
	t.CreatedBy = &createdBy

	out, pending := createRecord(ctx, s, actor, s.trailers, s.deps.Stores.Trailers, t, t.DisplayName())
	return out, pending, nil
}

// UpdateTrailer changes a trailer
func (s *Session) UpdateTrailer(ctx context.Context, actor shared.Actor, id uuid.UUID, in UpdateTrailerInput) (*fleet.Trailer, *Pending, error) {
	return updateRecord(ctx, s, actor, s.trailers, s.deps.Stores.Trailers, id,
		func(t *fleet.Trailer) ([]string, error) { return t.Apply(in) }, nil)
}

// GetBroker returns a broker by id
func (s *Session) GetBroker(id uuid.UUID) (*partner.Broker, error) {
	return getRecord(s.brokers, id)
}

// ListBrokers returns all brokers by name
func (s *Session) ListBrokers() []*partner.Broker {
	return s.brokers.List()
}

// CreateBroker adds a broker
func (s *Session) CreateBroker(ctx context.Context, actor shared.Actor, in CreateBrokerInput) (*partner.Broker, *Pending, error) {
	if err := authorize(actor, EntityBroker, ActionCreate); err != nil {
		return nil, nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}
	b, err := partner.NewBroker(s.tenantID, in.Name, in.MCNumber)
	if err != nil {
		return nil, nil, err
	}
	b.Email, b.Phone = strings.TrimSpace(in.Email), strings.TrimSpace(in.Phone)
	createdBy := actor.UserID
	b.CreatedBy = &createdBy

	out, pending := createRecord(ctx, s, actor, s.brokers, s.deps.Stores.Brokers, b, b.Name)
	return out, pending, nil
}

// UpdateBroker changes a broker
func (s *Session) UpdateBroker(ctx context.Context, actor shared.Actor, id uuid.UUID, in UpdateBrokerInput) (*partner.Broker, *Pending, error) {
	return updateRecord(ctx, s, actor, s.brokers, s.deps.Stores.Brokers, id,
		func(b *partner.Broker) ([]string, error) { return b.Apply(in) }, nil)
}

// GetFactoringCompany returns a factoring company by id
func (s *Session) GetFactoringCompany(id uuid.UUID) (*partner.FactoringCompany, error) {
	return getRecord(s.factoringCompanies, id)
}

// ListFactoringCompanies returns all factoring companies by name
func (s *Session) ListFactoringCompanies() []*partner.FactoringCompany {
	return s.factoringCompanies.List()
}

// CreateFactoringCompany adds a factoring company
func (s *Session) CreateFactoringCompany(ctx context.Context, actor shared.Actor, in CreateFactoringCompanyInput) (*partner.FactoringCompany, *Pending, error) {
	if err := authorize(actor, EntityFactoringCompany, ActionCreate); err != nil {
		return nil, nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}
	f, err := partner.NewFactoringCompany(s.tenantID, in.Name, in.FeePercentage)
	if err != nil {
		return nil, nil, err
	}
	f.Email, f.Phone = strings.TrimSpace(in.Email), strings.TrimSpace(in.Phone)
	createdBy := actor.UserID
	f.CreatedBy = &createdBy

	out, pending := createRecord(ctx, s, actor, s.factoringCompanies, s.deps.Stores.FactoringCompanies, f, f.Name)
	return out, pending, nil
}

// UpdateFactoringCompany changes a factoring company. Existing invoices keep
// the fee they were created with.
func (s *Session) UpdateFactoringCompany(ctx context.Context, actor shared.Actor, id uuid.UUID, in UpdateFactoringCompanyInput) (*partner.FactoringCompany, *Pending, error) {
	return updateRecord(ctx, s, actor, s.factoringCompanies, s.deps.Stores.FactoringCompanies, id,
		func(f *partner.FactoringCompany) ([]string, error) { return f.Apply(in) },
		func(ctx context.Context, f *partner.FactoringCompany, changed []string) {
			for _, c := range changed {
				if c == "fee_percentage" {
					s.resyncFactoredInvoices(ctx, actor, f.ID)
					return
				}
			}
		})
}

// resyncFactoredInvoices recomputes invoices of loads sold to the company
func (s *Session) resyncFactoredInvoices(ctx context.Context, actor shared.Actor, companyID uuid.UUID) {
	for _, loadID := range s.index.ReferrersOfType(companyID, EntityLoad) {
		s.resyncInvoices(ctx, actor, loadID)
	}
}
