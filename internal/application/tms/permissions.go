package tms

import (
	"fmt"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
)

// Entity type names used in messages, audit entries and the reference index
const (
	EntityLoad             = "Load"
	EntityEmployee         = "Employee"
	EntityTruck            = "Truck"
	EntityTrailer          = "Trailer"
	EntityBroker           = "Broker"
	EntityFactoringCompany = "FactoringCompany"
	EntityInvoice          = "Invoice"
	EntitySettlement       = "Settlement"
	EntityExpense          = "Expense"
	EntityTask             = "Task"
)

// Action is a write operation subject to role checks
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var (
	operations = []shared.Role{shared.RoleAdmin, shared.RoleDispatcher}
	accounting = []shared.Role{shared.RoleAdmin, shared.RoleAccounting}
	office     = []shared.Role{shared.RoleAdmin, shared.RoleDispatcher, shared.RoleAccounting}
	everyone   = []shared.Role{shared.RoleAdmin, shared.RoleDispatcher, shared.RoleAccounting, shared.RoleDriver}
)

// writePolicy lists the roles allowed to write each entity type. Load updates
// are open to every role; the per-field allow-list narrows them further.
var writePolicy = map[string]map[Action][]shared.Role{
	EntityLoad:             {ActionCreate: operations, ActionUpdate: everyone, ActionDelete: operations},
	EntityEmployee:         {ActionCreate: operations, ActionUpdate: operations, ActionDelete: operations},
	EntityTruck:            {ActionCreate: operations, ActionUpdate: operations, ActionDelete: operations},
	EntityTrailer:          {ActionCreate: operations, ActionUpdate: operations, ActionDelete: operations},
	EntityBroker:           {ActionCreate: office, ActionUpdate: office, ActionDelete: office},
	EntityFactoringCompany: {ActionCreate: accounting, ActionUpdate: accounting, ActionDelete: accounting},
	EntityInvoice:          {ActionCreate: accounting, ActionUpdate: accounting, ActionDelete: accounting},
	EntitySettlement:       {ActionCreate: accounting, ActionUpdate: accounting, ActionDelete: accounting},
	EntityExpense:          {ActionCreate: office, ActionUpdate: office, ActionDelete: accounting},
	EntityTask:             {ActionUpdate: everyone},
}

// authorize checks the actor may perform action on entityType
func authorize(actor shared.Actor, entityType string, action Action) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	for _, r := range writePolicy[entityType][action] {
		if r == actor.Role {
			return nil
		}
	}
	return shared.NewPermissionDeniedError(
		fmt.Sprintf("Role %s may not %s %s records", actor.Role, action, entityType))
}
