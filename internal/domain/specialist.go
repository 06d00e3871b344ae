package domain

// Specialist is an IT staff member tickets can be assigned to.
type Specialist struct {
	ID     string
	Name   string
	Role   string
	Active bool
}

// SpecialistSeed is the natural-key description of a seeded specialist.
type SpecialistSeed struct {
	Name string
	Role string
}

// DefaultSpecialists is the roster created at startup.
var DefaultSpecialists = []SpecialistSeed{
	{Name: "Will Brown", Role: "IT Specialist"},
	{Name: "Trey Lake", Role: "IT Specialist"},
	{Name: "Frank Pizza", Role: "IT Specialist"},
	{Name: "Chaunice Devine", Role: "IT Specialist"},
	{Name: "Sr. IT Manager", Role: "Sr. IT Manager"},
}
