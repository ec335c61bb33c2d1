package navigation_test

import (
	"testing"

	"github.com/jrsteele09/star-console/navigation"
	"github.com/jrsteele09/star-console/users"
	"github.com/stretchr/testify/require"
)

func TestRouter_Resolve(t *testing.T) {
	router := navigation.NewRouter(navigation.DefaultRoutes())

	tests := []struct {
		target   string
		name     string
		path     string
		fullPath string
		params   map[string]string
		ok       bool
	}{
		{target: "/login", name: navigation.RouteLogin, path: "/login", fullPath: "/login", ok: true},
		{target: "/projects?page=2", name: navigation.RouteProjects, path: "/projects", fullPath: "/projects?page=2", ok: true},
		{target: "/projects/17", name: navigation.RouteProjectDetail, path: "/projects/17", fullPath: "/projects/17", params: map[string]string{"id": "17"}, ok: true},
		{target: "/tags/3", name: navigation.RouteTagDetail, path: "/tags/3", fullPath: "/tags/3", params: map[string]string{"id": "3"}, ok: true},
		{target: "/admin/ai/batches/b-1", name: navigation.RouteAdminAIBatchDetail, path: "/admin/ai/batches/b-1", fullPath: "/admin/ai/batches/b-1", params: map[string]string{"id": "b-1"}, ok: true},
		{target: "/", name: navigation.RouteProjects, path: "/projects", fullPath: "/projects", ok: true},
		{target: "/admin?tab=1", name: navigation.RouteAdminQueues, path: "/admin/queues", fullPath: "/admin/queues?tab=1", ok: true},
		{target: "/nowhere/at/all", name: navigation.RouteNotFound, path: "/nowhere/at/all", fullPath: "/nowhere/at/all", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			match, ok := router.Resolve(tt.target)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.name, match.Route.Name)
			require.Equal(t, tt.path, match.Path)
			require.Equal(t, tt.fullPath, match.FullPath)
			for k, v := range tt.params {
				require.Equal(t, v, match.Param(k))
			}
		})
	}
}

func TestRouter_NotFoundRequiresAuth(t *testing.T) {
	router := navigation.NewRouter(navigation.DefaultRoutes())
	match, _ := router.Resolve("/missing")
	require.True(t, match.Route.RequiresAuth())
	require.Equal(t, "Page not found", match.Route.Title)
}

func TestRouter_PathFor(t *testing.T) {
	router := navigation.NewRouter(navigation.DefaultRoutes())
	require.Equal(t, "/projects/42", router.PathFor(navigation.RouteProjectDetail, map[string]string{"id": "42"}))
	require.Equal(t, "/tags", router.PathFor(navigation.RouteTags, nil))
	require.Equal(t, "/", router.PathFor("unknown", nil))
}

func TestVisibleItems(t *testing.T) {
	admin := &users.User{Sub: "1", Role: users.RoleAdmin}
	member := &users.User{Sub: "2", Role: users.RoleUser}

	require.Len(t, navigation.VisibleItems(navigation.AdminMenu, admin), len(navigation.AdminMenu))
	require.Empty(t, navigation.VisibleItems(navigation.AdminMenu, member))
	require.Len(t, navigation.VisibleItems(navigation.PrimaryMenu, member), 2)
}
