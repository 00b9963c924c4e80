package testutil

import (
	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/store"
)

// Relation names in the sample catalog.
const (
	Projects  = "projets.csv"
	Employees = "employes.csv"
)

// ProjectsTable returns the projects relation: idp, titre, responsable,
// budget.
func ProjectsTable() *ir.Table {
	return NewTable("idp", "titre", "responsable", "budget").
		Row(1, "Apollo", "Ann", 100).
		Row(2, "Hermes", "Bo", 250).
		Row(3, "Zeus", "Ann", 75).
		Row(4, "Atlas", "Cy", 300).
		Build()
}

// EmployeesTable returns the employees relation: nom, email, service.
func EmployeesTable() *ir.Table {
	return NewTable("nom", "email", "service").
		Row("Ann", "ann@x.org", "R&D").
		Row("Bo", "bo@x.org", "Ops").
		Row("Cy", "cy@x.org", "R&D").
		Build()
}

// Catalog returns an in-memory source holding both sample relations under
// the file names plans load them by.
func Catalog() *store.Memory {
	m := store.NewMemory()
	m.Put(Projects, ProjectsTable())
	m.Put(Employees, EmployeesTable())
	return m
}
