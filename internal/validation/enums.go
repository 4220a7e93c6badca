package validation

// Enum values - these MUST match what the back office accepts.
var (
	ValidOrderStatuses = []string{"pendiente", "completada", "incompleta"}
	ValidRoles         = []string{"empleado", "gerente", "admin"}
)
