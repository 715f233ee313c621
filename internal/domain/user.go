package domain

import "time"

type User struct {
	Id               UserId
	Email            Email
	FirstName        string
	LastName         string
	DepartmentId     DepartmentId
	ClassificationId ClassificationId
	Level            int
	Admin            bool
	PassHash         string // set only for administrator accounts
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProfileUpdate carries the mutable profile fields. Email is deliberately
// absent: it is immutable after registration.
type ProfileUpdate struct {
	FirstName        string
	LastName         string
	DepartmentId     DepartmentId
	ClassificationId ClassificationId
	Level            int
}

type Department struct {
	Id   DepartmentId
	Name string
}

type Classification struct {
	Id   ClassificationId
	Name string
}
