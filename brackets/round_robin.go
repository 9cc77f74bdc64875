package brackets

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

func (g *RoundRobinGenerator) GenerateMatches(participants []int) []Pairing {
	return GenerateMatches(participants)
}

// GenerateMatches creates every unordered pair of participants exactly once.
// Pairs come out as (i, j) for 0 <= i < j < n in nested-loop order, so the
// match order is deterministic. Fewer than two participants yield no pairs.
func GenerateMatches(participants []int) []Pairing {
	n := len(participants)
	if n < 2 {
		return []Pairing{}
	}

	pairings := make([]Pairing, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairings = append(pairings, Pairing{
				Player1ID: participants[i],
				Player2ID: participants[j],
			})
		}
	}
	return pairings
}
