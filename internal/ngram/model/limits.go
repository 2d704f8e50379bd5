package model

// Limits bounds every expansion the pipeline performs. Exceeding any of
// them truncates silently.
type Limits struct {
	MaxChars        int `yaml:"maxChars"`
	MaxTerms        int `yaml:"maxTerms"`
	MaxWildcards    int `yaml:"maxWildcards"`
	MaxTokens       int `yaml:"maxTokens"`
	MaxPieces       int `yaml:"maxPieces"`
	MaxAlternatives int `yaml:"maxAlternatives"`
	WildcardTopK    int `yaml:"wildcardTopK"`
	MinYear         int `yaml:"minYear"`
}

// DefaultLimits returns the budgets the viewer has always used.
func DefaultLimits() Limits {
	return Limits{
		MaxChars:        200,
		MaxTerms:        10,
		MaxWildcards:    5,
		MaxTokens:       3,
		MaxPieces:       10,
		MaxAlternatives: 5,
		WildcardTopK:    10,
		MinYear:         1810,
	}
}

// WithDefaults fills zero fields from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.MaxChars <= 0 {
		l.MaxChars = d.MaxChars
	}
	if l.MaxTerms <= 0 {
		l.MaxTerms = d.MaxTerms
	}
	if l.MaxWildcards <= 0 {
		l.MaxWildcards = d.MaxWildcards
	}
	if l.MaxTokens <= 0 || l.MaxTokens > d.MaxTokens {
		l.MaxTokens = d.MaxTokens
	}
	if l.MaxPieces <= 0 {
		l.MaxPieces = d.MaxPieces
	}
	if l.MaxAlternatives <= 0 {
		l.MaxAlternatives = d.MaxAlternatives
	}
	if l.WildcardTopK <= 0 {
		l.WildcardTopK = d.WildcardTopK
	}
	if l.MinYear <= 0 {
		l.MinYear = d.MinYear
	}
	return l
}
