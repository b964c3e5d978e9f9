package model

// DirectoryUser is the slice of a tenant user that grouping needs.
type DirectoryUser struct {
	UserID       string  `db:"id" json:"user_id"`
	DepartmentID *string `db:"department_id" json:"department_id,omitempty"`
}
