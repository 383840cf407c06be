package friends

import (
	"errors"

	"github.com/kevinaaaquil/shelfmates/models"
)

// ErrLoginRequired means no current user identity was available.
var ErrLoginRequired = errors.New("login required")

// Kind classifies the outcome of a friend-list mutation.
type Kind string

const (
	Success       Kind = "success"
	UserNotFound  Kind = "user_not_found"
	AlreadyFriend Kind = "already_friend"
	SelfFriend    Kind = "self_friend"
	NotFriend     Kind = "not_friend"
	Error         Kind = "error"
)

// Result is returned by both AddFriend and RemoveFriend. Err is set only for the
// Error kind; Friend is set on a successful add when the friend could be loaded.
type Result struct {
	Kind    Kind
	Message string
	Friend  *models.Friend
	Err     error
}

func (r Result) OK() bool { return r.Kind == Success }

func errorResult(err error) Result {
	return Result{Kind: Error, Message: err.Error(), Err: err}
}
