package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldUserID      = "user_id"
	FieldFamilyID    = "family_id"
	FieldAccountID   = "account_id"
	FieldCategoryID  = "category_id"
	FieldBudgetID    = "budget_id"
	FieldTxID        = "transaction_id"
	FieldAmountCents = "amount_cents"
	FieldKind        = "kind"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldWindowStart = "window_start"
	FieldInviteCode  = "invite_code"
	FieldRole        = "role"
	FieldPersona     = "persona"
)

// Components defines standard component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentPostgres = "postgres"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentFamily   = "family"
	ComponentBudget   = "budget"
	ComponentExport   = "export"
	ComponentCache    = "cache"
	ComponentSeed     = "seed"
)

// Operations defines standard operation names.
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpJoin      = "join"
	OpLeave     = "leave"
	OpRotate    = "rotate"
	OpSnapshot  = "snapshot"
	OpReconcile = "reconcile"
	OpExport    = "export"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
