package persistence

import (
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/fleet"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/partner"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/workflow"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/changefeed"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Concrete store types, one per table
type (
	LoadStore             = GormStore[freight.Load, models.LoadModel, *models.LoadModel]
	EmployeeStore         = GormStore[fleet.Employee, models.EmployeeModel, *models.EmployeeModel]
	TruckStore            = GormStore[fleet.Truck, models.TruckModel, *models.TruckModel]
	TrailerStore          = GormStore[fleet.Trailer, models.TrailerModel, *models.TrailerModel]
	BrokerStore           = GormStore[partner.Broker, models.BrokerModel, *models.BrokerModel]
	FactoringCompanyStore = GormStore[partner.FactoringCompany, models.FactoringCompanyModel, *models.FactoringCompanyModel]
	InvoiceStore          = GormStore[finance.Invoice, models.InvoiceModel, *models.InvoiceModel]
	SettlementStore       = GormStore[finance.Settlement, models.SettlementModel, *models.SettlementModel]
	ExpenseStore          = GormStore[finance.Expense, models.ExpenseModel, *models.ExpenseModel]
	TaskStore             = GormStore[workflow.Task, models.TaskModel, *models.TaskModel]
)

// GormStores holds a store for every table behind a tenant session
type GormStores struct {
	Loads              *LoadStore
	Employees          *EmployeeStore
	Trucks             *TruckStore
	Trailers           *TrailerStore
	Brokers            *BrokerStore
	FactoringCompanies *FactoringCompanyStore
	Invoices           *InvoiceStore
	Settlements        *SettlementStore
	Expenses           *ExpenseStore
	Tasks              *TaskStore
}

// NewGormStores creates every table store on one connection and change feed
func NewGormStores(db *gorm.DB, feed changefeed.Feed, logger *zap.Logger) *GormStores {
	return &GormStores{
		Loads:              NewGormStore[freight.Load, models.LoadModel](db, freight.AggregateTypeLoad, feed, logger),
		Employees:          NewGormStore[fleet.Employee, models.EmployeeModel](db, "Employee", feed, logger),
		Trucks:             NewGormStore[fleet.Truck, models.TruckModel](db, "Truck", feed, logger),
		Trailers:           NewGormStore[fleet.Trailer, models.TrailerModel](db, "Trailer", feed, logger),
		Brokers:            NewGormStore[partner.Broker, models.BrokerModel](db, "Broker", feed, logger),
		FactoringCompanies: NewGormStore[partner.FactoringCompany, models.FactoringCompanyModel](db, "FactoringCompany", feed, logger),
		Invoices:           NewGormStore[finance.Invoice, models.InvoiceModel](db, finance.AggregateTypeInvoice, feed, logger),
		Settlements:        NewGormStore[finance.Settlement, models.SettlementModel](db, finance.AggregateTypeSettlement, feed, logger),
		Expenses:           NewGormStore[finance.Expense, models.ExpenseModel](db, "Expense", feed, logger),
		Tasks:              NewGormStore[workflow.Task, models.TaskModel](db, "Task", feed, logger),
	}
}

// Models lists every persistence model, for AutoMigrate in tests and
// development databases
func Models() []any {
	return []any{
		&models.LoadModel{},
		&models.EmployeeModel{},
		&models.TruckModel{},
		&models.TrailerModel{},
		&models.BrokerModel{},
		&models.FactoringCompanyModel{},
		&models.InvoiceModel{},
		&models.SettlementModel{},
		&models.ExpenseModel{},
		&models.TaskModel{},
		&models.AuditLogModel{},
		&models.SequenceCounterModel{},
	}
}
