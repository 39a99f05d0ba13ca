package core

const (
	NecessityLow      = "Baja"
	NecessityMedium   = "Media"
	NecessityHigh     = "Alta"
	NecessityCritical = "Crítica"
)

const (
	CategoryFood          = "Alimentación 🍞"
	CategoryTransport     = "Transporte 🚗"
	CategoryEntertainment = "Entretenimiento 🎬"
	CategoryHealth        = "Salud 💊"
	CategoryEducation     = "Educación 📚"
	CategoryOther         = "Otro ➕"
)

func DefaultProfiles() []Profile {
	return []Profile{
		{ID: 1, Name: "Daniel"},
		{ID: 2, Name: "Pareja"},
	}
}

func DefaultCategories() []string {
	return []string{
		CategoryFood,
		CategoryTransport,
		CategoryEntertainment,
		CategoryHealth,
		CategoryEducation,
		CategoryOther,
	}
}

func DefaultNecessities() []string {
	return []string{NecessityLow, NecessityMedium, NecessityHigh, NecessityCritical}
}

// DefaultSnapshot is the first-run state.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Profiles:        DefaultProfiles(),
		ActiveProfileID: 1,
		Categories:      DefaultCategories(),
		Necessities:     DefaultNecessities(),
		Transactions:    []Transaction{},
		Activity:        []ActivityEntry{},
	}
}
