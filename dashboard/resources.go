// Package dashboard declares the fleet dashboard's resources, their poll
// policies and the invalidation set of every write.
package dashboard

import (
	"github.com/dailyyoga/dashsync/cache"
	"github.com/dailyyoga/dashsync/rest"
)

// Resource names.
const (
	Accounts      = "accounts"
	AccountLogin  = "account-login"
	Groups        = "groups"
	Keywords      = "keywords"
	ScanTasks     = "scan-tasks"
	Comments      = "comments"
	CommentsStats = "comments-stats"
)

// Registrar accepts resource definitions; *cache.Store and *syncer.Syncer
// both satisfy it.
type Registrar interface {
	Register(res cache.Resource) error
}

// Resources returns every dashboard resource fetched through api.
func Resources(api *rest.Client) []cache.Resource {
	return []cache.Resource{
		{Name: Accounts, Fetch: rest.Paged[Account](api, "/accounts")},
		{Name: AccountLogin, Fetch: rest.Typed[LoginProbe](api, "/accounts/{id}/login"), Interval: LoginProbePolicy},
		{Name: Groups, Fetch: rest.Paged[Group](api, "/groups")},
		{Name: Keywords, Fetch: rest.Paged[Keyword](api, "/keywords")},
		{Name: ScanTasks, Fetch: rest.Paged[ScanTask](api, "/scan-tasks"), Interval: ScanTaskListPolicy},
		{Name: Comments, Fetch: rest.Paged[Comment](api, "/comments")},
		{Name: CommentsStats, Fetch: rest.Typed[CommentStats](api, "/comments/stats")},
	}
}

// Register registers every dashboard resource with r.
func Register(r Registrar, api *rest.Client) error {
	for _, res := range Resources(api) {
		if err := r.Register(res); err != nil {
			return err
		}
	}
	return nil
}

// LoginKey is the cache key of one account's login probe.
func LoginKey(accountID string) cache.Key {
	return cache.NewKey(AccountLogin, cache.Params{"id": accountID})
}
