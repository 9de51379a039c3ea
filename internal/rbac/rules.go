package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"learner": {
		"assessment:view",
		"eligibility:view",
		"session:start",
		"session:answer",
		"session:submit",
		"session:exit",
		"attempt:view-own",
	},
	"instructor": {
		"assessment:view",
		"assessment:publish",
		"eligibility:view",
		"attempt:view-all",
	},
	"admin": {
		"*", // everything
	},
}
