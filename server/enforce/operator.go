package enforce

// Operators run routes but never change the catalog.
func OperatorPolicies() []Policy {
	var OperatorPolicies = []Policy{
		{"/routes/execute/*", POST},
		{"/routes/bluemind/sequence/*", POST},
		{"/routes/query/*", POST},
	}
	return append(OperatorPolicies, GuestPolicies()...)
}
