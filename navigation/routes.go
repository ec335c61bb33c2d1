package navigation

import "github.com/jrsteele09/star-console/users"

const AppTitle = "GitHub Star Organizer"

// Route names
const (
	RouteLogin              = "login"
	RouteHome               = "home"
	RouteProjects           = "projects"
	RouteProjectDetail      = "project-detail"
	RouteTags               = "tags"
	RouteTagDetail          = "tag-detail"
	RouteAccountProfile     = "account-profile"
	RouteAdmin              = "admin"
	RouteAdminQueues        = "admin-queues"
	RouteAdminSyncStars     = "admin-sync-stars"
	RouteAdminAIManagement  = "admin-ai-management"
	RouteAdminAIBatches     = "admin-ai-batches"
	RouteAdminAIBatchDetail = "admin-ai-batch-detail"
	RouteAdminArchive       = "admin-archive"
	RouteAdminArchiveDetail = "admin-archive-detail"
	RouteAdminMaintenance   = "admin-maintenance"
	RouteNotFound           = "not-found"
)

const (
	PathLogin    = "/login"
	PathProjects = "/projects"

	// RedirectParam carries the originally requested location through the login page.
	RedirectParam = "redirect"
)

// Route is one navigable screen. Routes require authentication unless Public is set.
type Route struct {
	Name    string
	Pattern string // chi pattern, e.g. /projects/{id}
	Public  bool
	Roles   []users.RoleType
	Title   string

	// RedirectTo names the route this one forwards to.
	RedirectTo string
}

func (r Route) RequiresAuth() bool {
	return !r.Public
}

var adminOnly = []users.RoleType{users.RoleAdmin}

// DefaultRoutes is the dashboard's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteLogin, Pattern: PathLogin, Public: true, Title: "Sign in"},
		{Name: RouteHome, Pattern: "/", RedirectTo: RouteProjects},
		{Name: RouteProjects, Pattern: PathProjects, Title: "Projects"},
		{Name: RouteProjectDetail, Pattern: "/projects/{id}", Title: "Project details"},
		{Name: RouteTags, Pattern: "/tags", Title: "Tags"},
		{Name: RouteTagDetail, Pattern: "/tags/{id}", Title: "Tag details"},
		{Name: RouteAccountProfile, Pattern: "/account/profile", Title: "Account"},
		{Name: RouteAdmin, Pattern: "/admin", Roles: adminOnly, Title: "Administration", RedirectTo: RouteAdminQueues},
		{Name: RouteAdminQueues, Pattern: "/admin/queues", Roles: adminOnly, Title: "Queue overview"},
		{Name: RouteAdminSyncStars, Pattern: "/admin/sync-stars", Roles: adminOnly, Title: "Stars sync"},
		{Name: RouteAdminAIManagement, Pattern: "/admin/ai", Roles: adminOnly, Title: "AI management"},
		{Name: RouteAdminAIBatches, Pattern: "/admin/ai/batches", Roles: adminOnly, Title: "AI batches"},
		{Name: RouteAdminAIBatchDetail, Pattern: "/admin/ai/batches/{id}", Roles: adminOnly, Title: "AI batch details"},
		{Name: RouteAdminArchive, Pattern: "/admin/archive", Roles: adminOnly, Title: "Archived projects"},
		{Name: RouteAdminArchiveDetail, Pattern: "/admin/archive/{id}", Roles: adminOnly, Title: "Archive details"},
		{Name: RouteAdminMaintenance, Pattern: "/admin/maintenance", Roles: adminOnly, Title: "Maintenance tasks"},
		{Name: RouteNotFound, Title: "Page not found"},
	}
}

// MenuItem is an entry of the dashboard's side menu.
type MenuItem struct {
	Key       string
	Label     string
	RouteName string
	Roles     []users.RoleType
}

var PrimaryMenu = []MenuItem{
	{Key: RouteProjects, Label: "Projects", RouteName: RouteProjects},
	{Key: RouteTags, Label: "Tags", RouteName: RouteTags},
}

var AdminMenu = []MenuItem{
	{Key: RouteAdminQueues, Label: "Queue overview", RouteName: RouteAdminQueues, Roles: adminOnly},
	{Key: RouteAdminSyncStars, Label: "Stars sync", RouteName: RouteAdminSyncStars, Roles: adminOnly},
	{Key: RouteAdminAIManagement, Label: "AI management", RouteName: RouteAdminAIManagement, Roles: adminOnly},
	{Key: RouteAdminAIBatches, Label: "AI batches", RouteName: RouteAdminAIBatches, Roles: adminOnly},
	{Key: RouteAdminArchive, Label: "Archived projects", RouteName: RouteAdminArchive, Roles: adminOnly},
	{Key: RouteAdminMaintenance, Label: "Maintenance tasks", RouteName: RouteAdminMaintenance, Roles: adminOnly},
}

// VisibleItems filters items down to those user may open.
func VisibleItems(items []MenuItem, user *users.User) []MenuItem {
	var visible []MenuItem
	for _, item := range items {
		if user.HasAnyRole(item.Roles...) {
			visible = append(visible, item)
		}
	}
	return visible
}
