package domain

type (
	Email            = string
	UserId           = int64
	PostingId        = int64
	DepartmentId     = int64
	ClassificationId = int64
)
