package core

// ChangeAction names the kind of mutation applied to an entry.
type ChangeAction string

const (
	ActionCreated  ChangeAction = "created"
	ActionUpdated  ChangeAction = "updated"
	ActionDeleted  ChangeAction = "deleted"
	ActionProgress ChangeAction = "progress"
)

func (a ChangeAction) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionProgress:
		return true
	}
	return false
}
