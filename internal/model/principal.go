package model

// Principal identifies who asked a question. Anonymous callers have an empty UserID.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAnonymous() bool {
	return p.UserID == ""
}
