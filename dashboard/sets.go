package dashboard

import "github.com/dailyyoga/dashsync/mutation"

// Invalidation sets of every dashboard write. A comment deletion changes the
// aggregate statistics too, which no response says; the set has to.
var (
	DeleteCommentSet = mutation.Resources("delete-comment", Comments, CommentsStats)
	ToggleGroupSet   = mutation.Resources("toggle-group", Groups)

	SaveAccountSet   = mutation.Resources("save-account", Accounts)
	DeleteAccountSet = mutation.Resources("delete-account", Accounts, AccountLogin, Groups)

	SaveGroupSet   = mutation.Resources("save-group", Groups)
	DeleteGroupSet = mutation.Resources("delete-group", Groups, Keywords)

	SaveKeywordSet   = mutation.Resources("save-keyword", Keywords)
	DeleteKeywordSet = mutation.Resources("delete-keyword", Keywords)

	ScanTaskSet = mutation.Resources("scan-task", ScanTasks)

	// StartLoginSet is extended with the probed account's exact key per call
	StartLoginSet = mutation.Resources("start-login", Accounts)
)
