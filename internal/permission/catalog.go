package permission

// Def is a single catalog entry. Codes are namespaced "area:action" and are
// globally unique; the catalog is the source of truth for persisted permission
// rows, which are reconciled against it at startup (see RoleService.SyncCatalog).
type Def struct {
	Code        string
	Label       string
	Description string
	Area        string
}

// Areas, in display order.
const (
	AreaUsers     = "users"
	AreaRoles     = "roles"
	AreaClients   = "clients"
	AreaVisits    = "visits"
	AreaOrders    = "orders"
	AreaExpenses  = "expenses"
	AreaInventory = "inventory"
	AreaHR        = "hr"
	AreaAudit     = "audit"
)

// Permission codes referenced from code. Keep in sync with the catalog below.
const (
	UsersRead   = "users:read"
	UsersWrite  = "users:write"
	UsersDelete = "users:delete"

	RolesManage = "roles:manage"

	ClientsRead  = "clients:read"
	ClientsWrite = "clients:write"

	VisitsRead  = "visits:read"
	VisitsWrite = "visits:write"

	OrdersRead    = "orders:read"
	OrdersWrite   = "orders:write"
	OrdersApprove = "orders:approve"
	OrdersCancel  = "orders:cancel"

	PurchaseOrdersWrite = "orders:purchase"
	InvoicesWrite       = "orders:invoice"
	DeliveriesWrite     = "orders:deliver"

	ExpensesRead  = "expenses:read"
	ExpensesWrite = "expenses:write"

	InventoryRead  = "inventory:read"
	InventoryWrite = "inventory:write"

	HRRead  = "hr:read"
	HRWrite = "hr:write"

	AuditRead = "audit:read"
)

// catalog is immutable after init; Catalog returns a copy of the slice header
// only, entries are never mutated.
var catalog = []Def{
	{Code: UsersRead, Label: "View users", Description: "List and inspect user accounts", Area: AreaUsers},
	{Code: UsersWrite, Label: "Manage users", Description: "Create and edit user accounts, assign roles and grants", Area: AreaUsers},
	{Code: UsersDelete, Label: "Delete users", Description: "Deactivate or remove user accounts", Area: AreaUsers},

	{Code: RolesManage, Label: "Manage roles", Description: "Create, edit and delete roles and their permission sets", Area: AreaRoles},

	{Code: ClientsRead, Label: "View clients", Description: "List and inspect client records", Area: AreaClients},
	{Code: ClientsWrite, Label: "Manage clients", Description: "Create and edit client records", Area: AreaClients},

	{Code: VisitsRead, Label: "View technical visits", Description: "List and inspect technical visits", Area: AreaVisits},
	{Code: VisitsWrite, Label: "Manage technical visits", Description: "Schedule and edit technical visits", Area: AreaVisits},

	{Code: OrdersRead, Label: "View service orders", Description: "List and inspect service orders", Area: AreaOrders},
	{Code: OrdersWrite, Label: "Manage service orders", Description: "Create and edit service orders", Area: AreaOrders},
	{Code: OrdersApprove, Label: "Approve service orders", Description: "Approve or reject pending service orders", Area: AreaOrders},
	{Code: OrdersCancel, Label: "Cancel service orders", Description: "Cancel non-terminal service orders", Area: AreaOrders},
	{Code: PurchaseOrdersWrite, Label: "Issue purchase orders", Description: "Attach client purchase orders to approved service orders", Area: AreaOrders},
	{Code: InvoicesWrite, Label: "Issue invoices", Description: "Issue invoices against purchase orders", Area: AreaOrders},
	{Code: DeliveriesWrite, Label: "Register deliveries", Description: "Register delivery acceptance for service orders", Area: AreaOrders},

	{Code: ExpensesRead, Label: "View expenses", Description: "List and inspect expense records", Area: AreaExpenses},
	{Code: ExpensesWrite, Label: "Manage expenses", Description: "Create and edit expense records", Area: AreaExpenses},

	{Code: InventoryRead, Label: "View inventory", Description: "List stock items and movements", Area: AreaInventory},
	{Code: InventoryWrite, Label: "Manage inventory", Description: "Register stock movements", Area: AreaInventory},

	{Code: HRRead, Label: "View HR records", Description: "List employees and payroll records", Area: AreaHR},
	{Code: HRWrite, Label: "Manage HR records", Description: "Create and edit employee and payroll records", Area: AreaHR},

	{Code: AuditRead, Label: "View audit log", Description: "Inspect the system activity history", Area: AreaAudit},
}

// Catalog returns every permission definition in catalog order.
func Catalog() []Def {
	return catalog
}

// ByArea groups the catalog by business area, preserving catalog order within
// each area.
func ByArea() map[string][]Def {
	grouped := make(map[string][]Def)
	for _, d := range catalog {
		grouped[d.Area] = append(grouped[d.Area], d)
	}
	return grouped
}

// Lookup returns the definition for a code, if it exists in the catalog.
func Lookup(code string) (Def, bool) {
	for _, d := range catalog {
		if d.Code == code {
			return d, true
		}
	}
	return Def{}, false
}

// Valid reports whether every given code exists in the catalog.
func Valid(codes ...string) bool {
	for _, c := range codes {
		if _, ok := Lookup(c); !ok {
			return false
		}
	}
	return true
}
