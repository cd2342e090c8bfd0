package user

import "strings"

// Navigation is the shell a member sees once logged in.
type Navigation struct {
	Role          string    `json:"role"`
	DashboardPath string    `json:"dashboard_path"`
	Items         []NavItem `json:"items"`
}

type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var (
	vavaNav = []NavItem{
		{Label: "Dashboard", Path: "/vava"},
		{Label: "Courses", Path: "/courses"},
		{Label: "Challenges", Path: "/challenges"},
		{Label: "Forum", Path: "/forum"},
		{Label: "Messages", Path: "/messages"},
		{Label: "Events", Path: "/events"},
		{Label: "Plans", Path: "/plans"},
		{Label: "Profile", Path: "/profile"},
	}
	nunuNav = []NavItem{
		{Label: "Dashboard", Path: "/nunu"},
		{Label: "Students", Path: "/nunu/students"},
		{Label: "Feedback", Path: "/nunu/feedback"},
		{Label: "Courses", Path: "/courses"},
		{Label: "Forum", Path: "/forum"},
		{Label: "Messages", Path: "/messages"},
		{Label: "Events", Path: "/events"},
		{Label: "Profile", Path: "/profile"},
	}
	guardianNav = []NavItem{
		{Label: "Dashboard", Path: "/guardian"},
		{Label: "Users", Path: "/guardian/users"},
		{Label: "Courses", Path: "/guardian/courses"},
		{Label: "Challenges", Path: "/guardian/challenges"},
		{Label: "Events", Path: "/guardian/events"},
		{Label: "Coaching", Path: "/guardian/coaching"},
		{Label: "Broadcast", Path: "/guardian/broadcast"},
		{Label: "Forum", Path: "/forum"},
		{Label: "Profile", Path: "/profile"},
	}
)

// PrimaryRole returns the family ("guardian", "nunu" or "vava") of the highest priority role.
// Users without any role are treated as Vavas.
func PrimaryRole(roles []string) string {
	var top string
	for _, role := range roles {
		if top == "" || RolePriority(role) > RolePriority(top) {
			top = role
		}
	}
	if top == "" || RolePriority(top) == 0 {
		top = RoleVava
	}
	return strings.SplitN(top, ":", 2)[0]
}

// NavigationFor builds the navigation of usr.
func NavigationFor(usr User) Navigation {
	role := PrimaryRole(usr.Roles)
	var items []NavItem
	switch role {
	case "guardian":
		items = guardianNav
	case "nunu":
		items = nunuNav
	default:
		items = vavaNav
	}
	nav := Navigation{Role: role, DashboardPath: items[0].Path, Items: make([]NavItem, len(items))}
	copy(nav.Items, items)
	return nav
}
