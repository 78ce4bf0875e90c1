package enforce

func GuestPolicies() []Policy {
	var GuestPolicies = []Policy{
		{"/user", GET},
		{"/connections*", GET},
		{"/routes*", GET},
		{"/jobs*", GET},
	}
	return GuestPolicies
}
