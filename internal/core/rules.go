package core

// NewDefaultRulesEngine builds a rules engine with the built-in policy set:
// blocking referential integrity and register uniqueness checks, plus the
// advisory parent-link and username-overlap checks.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewReferentialIntegrityRule())
	engine.Register(NewAttendanceUniquenessRule())
	engine.Register(NewDanglingParentLinkRule())
	engine.Register(NewStaffUsernameOverlapRule())
	return engine
}
