// Package models holds the gorm models for every persisted table and the
// read views built from them.
package models

// All lists the models in migration order.
func All() []any {
	return []any{
		&User{},
		&Token{},
		&PasswordReset{},
		&Book{},
		&Follow{},
		&Post{},
		&Like{},
		&Comment{},
	}
}
