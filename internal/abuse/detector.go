// Package abuse flags prompt-injection and jailbreak attempts in chat input.
package abuse

import "regexp"

// Detector reports whether a message is an abuse attempt.
type Detector interface {
	Detect(text string) bool
}

// DetectorFunc adapts a plain function to Detector.
type DetectorFunc func(text string) bool

func (f DetectorFunc) Detect(text string) bool {
	return f(text)
}

// PatternDetector matches text against a fixed list of case-insensitive patterns.
type PatternDetector struct {
	patterns []*regexp.Regexp
}

// NewPatternDetector compiles patterns; each is matched case-insensitively.
func NewPatternDetector(patterns []string) (*PatternDetector, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return &PatternDetector{patterns: compiled}, nil
}

// Default returns a detector loaded with DefaultPatterns.
func Default() *PatternDetector {
	d, err := NewPatternDetector(DefaultPatterns)
	if err != nil {
		panic("abuse: invalid default pattern: " + err.Error())
	}
	return d
}

func (d *PatternDetector) Detect(text string) bool {
	for _, re := range d.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// DefaultPatterns are known jailbreak and prompt-injection phrasings.
var DefaultPatterns = []string{
	`ignore\s+(all\s+)?(the\s+)?(previous|prior|above|earlier)\s+(instructions|prompts|rules)`,
	`disregard\s+(all\s+)?(your|the|previous|prior)\s+(instructions|rules|guidelines)`,
	`forget\s+(all\s+)?(your|the|previous)\s+(instructions|rules|training)`,
	`(reveal|show|print|repeat)\s+(me\s+)?(your|the)\s+(system\s+prompt|instructions|hidden\s+prompt)`,
	`system\s+prompt`,
	`you\s+are\s+now\s+(a|an|in)\b`,
	`pretend\s+(that\s+)?you\s+(are|have)\s+no\s+(rules|restrictions|limits)`,
	`act\s+as\s+(an?\s+)?(unrestricted|unfiltered|uncensored)`,
	`\bjailbreak`,
	`\bDAN\s+mode\b`,
	`do\s+anything\s+now`,
	`developer\s+mode`,
	`bypass\s+(your\s+|the\s+)?(restrictions|filters|rules|safety)`,
	`override\s+(your\s+)?(instructions|programming|safety)`,
}
