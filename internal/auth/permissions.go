package auth

const (
	PermManageArticles = "article.manage"
	PermManageComments = "comment.manage"
	PermManageUsers    = "user.manage"
	PermManageSystem   = "system.manage"
)

var BuiltinPermissions = []Permission{
	{Key: PermManageArticles, Description: "Create, edit and delete articles"},
	{Key: PermManageComments, Description: "Moderate and delete comments"},
	{Key: PermManageUsers, Description: "Manage accounts, roles and statuses"},
	{Key: PermManageSystem, Description: "Change system configuration"},
}
