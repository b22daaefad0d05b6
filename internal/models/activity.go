package models

// Action is the kind of mutation sent to the remote catalog.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Activity is a row of the activities table: one per mutation request, successful or not.
type Activity struct {
	Base
	Action    Action `gorm:"type:varchar(16);not null;index"`
	ProductID int    `gorm:"index"`
	Title     string
	Status    int    // HTTP status of the remote response, 0 when the request never completed
	Error     string `gorm:"type:text"`
}

// OK reports whether the remote call succeeded.
func (a Activity) OK() bool {
	return a.Error == "" && a.Status >= 200 && a.Status < 300
}
