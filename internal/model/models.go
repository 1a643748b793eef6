package model

// All returns every persisted model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&UserApprovalRequest{},
		&Property{},
		&Contract{},
		&ContractStatusChange{},
		&Notification{},
	}
}
