package enums

import "fmt"

// Role is the clinic staff function assigned to every account.
type Role string

const (
	RoleAdministrador Role = "ADMINISTRADOR"
	RoleDiretoria     Role = "DIRETORIA"
	RoleDentista      Role = "DENTISTA"
	RoleRecepcionista Role = "RECEPCIONISTA"
	RoleVendas        Role = "VENDAS"
	RoleASB           Role = "ASB"
	RoleLimpeza       Role = "LIMPEZA"
	RoleLaboratorio   Role = "LABORATORIO"
)

var validRoles = []Role{
	RoleAdministrador,
	RoleDiretoria,
	RoleDentista,
	RoleRecepcionista,
	RoleVendas,
	RoleASB,
	RoleLimpeza,
	RoleLaboratorio,
}

// IsValid checks whether the role matches the canonical enum.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw strings into Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// Roles returns the canonical role set, usable as broadcast group names.
func Roles() []Role {
	return append([]Role(nil), validRoles...)
}

// IsAdmin reports whether the role is the single administrator function.
func IsAdmin(role Role) bool {
	return role == RoleAdministrador
}

// IsAdminOrDiretoria reports whether the role carries privileged access.
func IsAdminOrDiretoria(role Role) bool {
	return role == RoleAdministrador || role == RoleDiretoria
}
