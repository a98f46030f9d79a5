package dashboard

import (
	"context"

	"github.com/dailyyoga/dashsync/cache"
	"github.com/dailyyoga/dashsync/mutation"
	"github.com/dailyyoga/dashsync/rest"
)

// Mutator runs a write with a declared invalidation set; *syncer.Syncer and
// *mutation.Coordinator both satisfy it.
type Mutator interface {
	Apply(ctx context.Context, set mutation.Set, fn mutation.Func) (any, error)
}

// Dashboard issues the dashboard's writes.
type Dashboard struct {
	api *rest.Client
	m   Mutator
}

// New creates a Dashboard writing through api and invalidating through m.
func New(api *rest.Client, m Mutator) (*Dashboard, error) {
	if api == nil {
		return nil, ErrNilClient
	}
	if m == nil {
		return nil, ErrNilMutator
	}
	return &Dashboard{api: api, m: m}, nil
}

// apply runs call under set and decodes the envelope's data into a T. The
// write has already succeeded when decoding runs, so a decode failure does
// not hold back the invalidation.
func apply[T any](ctx context.Context, d *Dashboard, set mutation.Set, call func(ctx context.Context) (*rest.Result, error)) (T, error) {
	var v T
	out, err := d.m.Apply(ctx, set, func(ctx context.Context) (any, error) {
		return call(ctx)
	})
	if err != nil {
		return v, err
	}
	if res, ok := out.(*rest.Result); ok && res != nil {
		err = res.Decode(&v)
	}
	return v, err
}

func id(v string) cache.Params {
	return cache.Params{"id": v}
}

// DeleteComment deletes a comment; lists and statistics are refreshed.
func (d *Dashboard) DeleteComment(ctx context.Context, commentID string) error {
	if commentID == "" {
		return ErrMissingID("comment")
	}
	_, err := apply[struct{}](ctx, d, DeleteCommentSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Delete(ctx, "/comments/{id}", id(commentID))
	})
	return err
}

// ToggleGroup flips a group's enabled flag.
func (d *Dashboard) ToggleGroup(ctx context.Context, groupID string) (Group, error) {
	if groupID == "" {
		return Group{}, ErrMissingID("group")
	}
	return apply[Group](ctx, d, ToggleGroupSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Post(ctx, "/groups/{id}/toggle", id(groupID), nil)
	})
}

// CreateAccount adds an account.
func (d *Dashboard) CreateAccount(ctx context.Context, in AccountInput) (Account, error) {
	return apply[Account](ctx, d, SaveAccountSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Post(ctx, "/accounts", nil, in)
	})
}

// UpdateAccount replaces an account's writable fields.
func (d *Dashboard) UpdateAccount(ctx context.Context, accountID string, in AccountInput) (Account, error) {
	if accountID == "" {
		return Account{}, ErrMissingID("account")
	}
	return apply[Account](ctx, d, SaveAccountSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Put(ctx, "/accounts/{id}", id(accountID), in)
	})
}

// DeleteAccount removes an account together with its probe state.
func (d *Dashboard) DeleteAccount(ctx context.Context, accountID string) error {
	if accountID == "" {
		return ErrMissingID("account")
	}
	_, err := apply[struct{}](ctx, d, DeleteAccountSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Delete(ctx, "/accounts/{id}", id(accountID))
	})
	return err
}

// CreateGroup adds a group.
func (d *Dashboard) CreateGroup(ctx context.Context, in GroupInput) (Group, error) {
	return apply[Group](ctx, d, SaveGroupSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Post(ctx, "/groups", nil, in)
	})
}

// UpdateGroup replaces a group's writable fields.
func (d *Dashboard) UpdateGroup(ctx context.Context, groupID string, in GroupInput) (Group, error) {
	if groupID == "" {
		return Group{}, ErrMissingID("group")
	}
	return apply[Group](ctx, d, SaveGroupSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Put(ctx, "/groups/{id}", id(groupID), in)
	})
}

// DeleteGroup removes a group and its keywords.
func (d *Dashboard) DeleteGroup(ctx context.Context, groupID string) error {
	if groupID == "" {
		return ErrMissingID("group")
	}
	_, err := apply[struct{}](ctx, d, DeleteGroupSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Delete(ctx, "/groups/{id}", id(groupID))
	})
	return err
}

// CreateKeyword adds a keyword to a group.
func (d *Dashboard) CreateKeyword(ctx context.Context, in KeywordInput) (Keyword, error) {
	return apply[Keyword](ctx, d, SaveKeywordSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Post(ctx, "/keywords", nil, in)
	})
}

// UpdateKeyword replaces a keyword.
func (d *Dashboard) UpdateKeyword(ctx context.Context, keywordID string, in KeywordInput) (Keyword, error) {
	if keywordID == "" {
		return Keyword{}, ErrMissingID("keyword")
	}
	return apply[Keyword](ctx, d, SaveKeywordSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Put(ctx, "/keywords/{id}", id(keywordID), in)
	})
}

// DeleteKeyword removes a keyword.
func (d *Dashboard) DeleteKeyword(ctx context.Context, keywordID string) error {
	if keywordID == "" {
		return ErrMissingID("keyword")
	}
	_, err := apply[struct{}](ctx, d, DeleteKeywordSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Delete(ctx, "/keywords/{id}", id(keywordID))
	})
	return err
}

// StartScanTask starts scanning a group. Subscribed task lists pick up the
// new task and keep polling until it finishes.
func (d *Dashboard) StartScanTask(ctx context.Context, groupID string) (ScanTask, error) {
	if groupID == "" {
		return ScanTask{}, ErrMissingID("group")
	}
	return apply[ScanTask](ctx, d, ScanTaskSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Post(ctx, "/scan-tasks", nil, map[string]string{"group_id": groupID})
	})
}

// StopScanTask cancels a running task.
func (d *Dashboard) StopScanTask(ctx context.Context, taskID string) (ScanTask, error) {
	if taskID == "" {
		return ScanTask{}, ErrMissingID("scan task")
	}
	return apply[ScanTask](ctx, d, ScanTaskSet, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Post(ctx, "/scan-tasks/{id}/stop", id(taskID), nil)
	})
}

// StartLoginProbe asks the server to probe an account's login. The
// account's probe key is invalidated, so a subscribed view polls it until
// the probe resolves.
func (d *Dashboard) StartLoginProbe(ctx context.Context, accountID string) (LoginProbe, error) {
	if accountID == "" {
		return LoginProbe{}, ErrMissingID("account")
	}
	set := StartLoginSet.With(cache.ByKey(LoginKey(accountID)))
	return apply[LoginProbe](ctx, d, set, func(ctx context.Context) (*rest.Result, error) {
		return d.api.Post(ctx, "/accounts/{id}/login", id(accountID), nil)
	})
}
