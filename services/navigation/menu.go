// Package navigation decides which sidebar entries a user sees.
package navigation

import "github.com/rede-abrigo/admin-backend/models"

// MenuItem is one sidebar entry
type MenuItem struct {
	Title         string `json:"title" yaml:"title"`
	Icon          string `json:"icon" yaml:"icon"`
	Route         string `json:"route" yaml:"route"`
	RequiresAdmin bool   `json:"requires_admin" yaml:"requires_admin"`
}

// VisibleMenu returns the items the caller may see, in input order. Items
// flagged RequiresAdmin are dropped unless isAdmin is true; a nil flag counts
// as false. The input slice is never modified.
func VisibleMenu(items []MenuItem, isAdmin *bool) []MenuItem {
	admin := isAdmin != nil && *isAdmin

	visible := make([]MenuItem, 0, len(items))
	for _, item := range items {
		if item.RequiresAdmin && !admin {
			continue
		}
		visible = append(visible, item)
	}
	return visible
}

// IsPrivileged reports whether role sees administrative entries
func IsPrivileged(role models.UserRole) bool {
	return role.Privileged()
}

// MenuForRole is VisibleMenu over DefaultMenu for role
func MenuForRole(role models.UserRole) []MenuItem {
	admin := IsPrivileged(role)
	return VisibleMenu(DefaultMenu(), &admin)
}

// DefaultMenu returns a fresh copy of the application's sidebar
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{Title: "Dashboard", Icon: "layout-dashboard", Route: "/"},
		{Title: "Acolhidos", Icon: "users", Route: "/acolhidos"},
		{Title: "Agendamentos", Icon: "calendar", Route: "/agendamentos"},
		{Title: "Documentos", Icon: "file-text", Route: "/documentos"},
		{Title: "Relatórios", Icon: "bar-chart-3", Route: "/relatorios"},
		{Title: "Mensagens", Icon: "message-square", Route: "/mensagens"},
		{Title: "Usuários", Icon: "user-cog", Route: "/usuarios", RequiresAdmin: true},
		{Title: "Abrigos", Icon: "building-2", Route: "/abrigos", RequiresAdmin: true},
		{Title: "Permissões", Icon: "shield", Route: "/permissoes", RequiresAdmin: true},
		{Title: "Configurações", Icon: "settings", Route: "/configuracoes", RequiresAdmin: true},
	}
}
