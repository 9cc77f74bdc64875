package brackets

// Pairing - пара игроков для одного матча. Player1ID всегда участник с меньшим индексом.
type Pairing struct {
	Player1ID int
	Player2ID int
}

// BracketGenerator строит список пар по упорядоченному списку user ID участников.
// Реализации не должны иметь побочных эффектов.
type BracketGenerator interface {
	GenerateMatches(participants []int) []Pairing

	GetName() string
}
