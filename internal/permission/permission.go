package permission

// Role is a user's role within its tenant.
type Role string

const (
	RoleGeneralSupervisor     Role = "general_supervisor"
	RoleMaintenanceSupervisor Role = "maintenance_supervisor"
	RoleMaintainer            Role = "maintainer"
	RoleOperator              Role = "operator"
	RoleSuperAdmin            Role = "super_admin"
)

// Permission is a named capability required to perform an action.
type Permission string

const (
	MachinesCreate Permission = "MACHINES_CREATE"
	MachinesUpdate Permission = "MACHINES_UPDATE"
	MachinesDelete Permission = "MACHINES_DELETE"

	DocumentsUpload Permission = "DOCUMENTS_UPLOAD"

	PreventivePlansCreate Permission = "PREVENTIVE_PLANS_CREATE"
	PreventivePlansUpdate Permission = "PREVENTIVE_PLANS_UPDATE"
	PreventivePlansDelete Permission = "PREVENTIVE_PLANS_DELETE"

	WorkOrdersCreate Permission = "WORK_ORDERS_CREATE"
	WorkOrdersUpdate Permission = "WORK_ORDERS_UPDATE"
	WorkOrdersDelete Permission = "WORK_ORDERS_DELETE"
	WorkOrdersAssign Permission = "WORK_ORDERS_ASSIGN"
	WorkOrdersStart  Permission = "WORK_ORDERS_START"
	WorkOrdersFinish Permission = "WORK_ORDERS_FINISH"

	MetricsRead Permission = "METRICS_READ"

	UsersCreate Permission = "USERS_CREATE"
)

var allPermissions = []Permission{
	MachinesCreate, MachinesUpdate, MachinesDelete,
	DocumentsUpload,
	PreventivePlansCreate, PreventivePlansUpdate, PreventivePlansDelete,
	WorkOrdersCreate, WorkOrdersUpdate, WorkOrdersDelete,
	WorkOrdersAssign, WorkOrdersStart, WorkOrdersFinish,
	MetricsRead,
	UsersCreate,
}

// rolePermissions is the static mapping from role to its granted permission
// set. Checked via Granted, never via dynamic lookups.
var rolePermissions = map[Role][]Permission{
	RoleSuperAdmin:        allPermissions,
	RoleGeneralSupervisor: allPermissions,
	RoleMaintenanceSupervisor: {
		MachinesCreate, MachinesUpdate,
		DocumentsUpload,
		PreventivePlansCreate, PreventivePlansUpdate, PreventivePlansDelete,
		WorkOrdersCreate, WorkOrdersUpdate, WorkOrdersDelete,
		WorkOrdersAssign, WorkOrdersStart, WorkOrdersFinish,
		MetricsRead,
	},
	RoleMaintainer: {
		DocumentsUpload,
		WorkOrdersStart, WorkOrdersFinish,
	},
	RoleOperator: {
		WorkOrdersCreate,
	},
}

// Valid reports whether r is a known role.
func Valid(r Role) bool {
	_, ok := rolePermissions[r]
	return ok
}

// Granted reports whether role grants the given permission.
func Granted(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// Assignable reports whether a user with the given role may be assigned a
// work order.
func Assignable(role Role) bool {
	switch role {
	case RoleMaintainer, RoleMaintenanceSupervisor, RoleGeneralSupervisor:
		return true
	}
	return false
}
