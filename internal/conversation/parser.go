// Package conversation provides intent parsing and user notification implementations.
package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// KeywordParser matches user input to intents using keywords and simple patterns.
// Typed commands and voice transcripts go through the same parser.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
	commands map[string]domain.IntentType
}

type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
}

// counterStep matches "+", "-", "+5", "-10".
var counterStep = regexp.MustCompile(`^([+-])(\d*)$`)

// NewKeywordParser creates a keyword-based intent parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(play|start|go|resume|begin|let'?s go)$`), domain.IntentPlay},
		{regexp.MustCompile(`(?i)^(pause|wait|hold on|p)$`), domain.IntentPause},
		{regexp.MustCompile(`(?i)^(toggle|t)$`), domain.IntentToggle},
		{regexp.MustCompile(`(?i)^(stop|reset|x)$`), domain.IntentStop},
		{regexp.MustCompile(`(?i)^(next|skip|n)$`), domain.IntentNext},
		{regexp.MustCompile(`(?i)^(prev|previous|back|b)$`), domain.IntentPrev},
		{regexp.MustCompile(`(?i)^(skip cycle|skip round|next cycle|next round|cycle)$`), domain.IntentSkipCycle},
		{regexp.MustCompile(`(?i)^(status|where|progress|info)$`), domain.IntentStatus},
		{regexp.MustCompile(`(?i)^(list|profiles|ls)$`), domain.IntentListProfiles},
		{regexp.MustCompile(`(?i)^(presets|workouts)$`), domain.IntentListPresets},
		{regexp.MustCompile(`(?i)^(show|activities|sequence|seq)$`), domain.IntentShowActivities},
		{regexp.MustCompile(`(?i)^(sound|mute|unmute)$`), domain.IntentToggleSound},
		{regexp.MustCompile(`(?i)^(haptics|vibrate|vibration)$`), domain.IntentToggleHaptics},
		{regexp.MustCompile(`(?i)^(awake|keep awake|wakelock)$`), domain.IntentToggleAwake},
		{regexp.MustCompile(`(?i)^(longpress|long press|accel)$`), domain.IntentToggleLongPress},
		{regexp.MustCompile(`(?i)^(clear|clear all|wipe)$`), domain.IntentClearAll},
		{regexp.MustCompile(`(?i)^(export)$`), domain.IntentExport},
		{regexp.MustCompile(`(?i)^(quit|exit|q)$`), domain.IntentQuit},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.IntentHelp},
	}
	p.commands = map[string]domain.IntentType{
		"load":      domain.IntentLoadProfile,
		"open":      domain.IntentLoadProfile,
		"save":      domain.IntentSaveProfile,
		"delete":    domain.IntentDeleteProfile,
		"del":       domain.IntentDeleteProfile,
		"duplicate": domain.IntentDuplicateProfile,
		"dup":       domain.IntentDuplicateProfile,
		"preset":    domain.IntentLoadPreset,
		"export":    domain.IntentExport,
		"import":    domain.IntentImport,
		"add":       domain.IntentAddActivity,
		"remove":    domain.IntentRemoveActivity,
		"rm":        domain.IntentRemoveActivity,
		"move":      domain.IntentMoveActivity,
		"mv":        domain.IntentMoveActivity,
		"rename":    domain.IntentRenameActivity,
		"duration":  domain.IntentSetDuration,
		"dur":       domain.IntentSetDuration,
		"category":  domain.IntentSetCategory,
		"cat":       domain.IntentSetCategory,
		"repeat":    domain.IntentSetRepeat,
		"cycles":    domain.IntentSetRepeat,
		"theme":     domain.IntentSetTheme,
		"label":     domain.IntentCounterLabel,
	}
	return p
}

// Parse converts user input into an intent.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	trimmed := strings.Join(strings.Fields(input), " ")
	trimmed = strings.TrimRight(trimmed, ".!,")
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	// Profile selection by list number (e.g., "1", "2", "3").
	if len(trimmed) <= 2 && isDigits(trimmed) {
		return &domain.Intent{Type: domain.IntentLoadProfile, Payload: trimmed, Args: []string{trimmed}}, nil
	}

	if m := counterStep.FindStringSubmatch(trimmed); m != nil {
		return counterIntent(m[1], m[2]), nil
	}

	for _, rule := range p.patterns {
		if rule.regex.MatchString(trimmed) {
			p.log.Debug("matched intent: %s", rule.intent)
			return &domain.Intent{Type: rule.intent}, nil
		}
	}

	keyword, rest, _ := strings.Cut(trimmed, " ")
	keyword = strings.ToLower(keyword)

	if keyword == "count" || keyword == "counter" {
		return p.parseCounter(rest), nil
	}

	intent, ok := p.commands[keyword]
	if !ok || (rest == "" && intent != domain.IntentExport) {
		p.log.Debug("no match, returning unknown intent")
		return &domain.Intent{Type: domain.IntentUnknown, Payload: trimmed}, nil
	}

	out := &domain.Intent{Type: intent, Payload: rest}
	switch intent {
	case domain.IntentAddActivity:
		out.Args = splitAdd(rest)
	case domain.IntentRenameActivity:
		index, name, _ := strings.Cut(rest, " ")
		out.Args = compact(index, name)
	case domain.IntentSaveProfile, domain.IntentCounterLabel, domain.IntentExport, domain.IntentImport:
		out.Args = compact(rest)
	default:
		out.Args = strings.Fields(rest)
	}
	p.log.Debug("matched command: %s %v", out.Type, out.Args)
	return out, nil
}

// parseCounter handles "count reset", "count label Squats" and "count +5".
func (p *KeywordParser) parseCounter(rest string) *domain.Intent {
	sub, arg, _ := strings.Cut(rest, " ")
	switch strings.ToLower(sub) {
	case "", "up", "inc":
		return &domain.Intent{Type: domain.IntentCounterInc}
	case "down", "dec":
		return &domain.Intent{Type: domain.IntentCounterDec}
	case "reset", "zero":
		return &domain.Intent{Type: domain.IntentCounterReset}
	case "label", "name":
		if arg == "" {
			break
		}
		return &domain.Intent{Type: domain.IntentCounterLabel, Payload: arg, Args: []string{arg}}
	default:
		if m := counterStep.FindStringSubmatch(sub); m != nil {
			return counterIntent(m[1], m[2])
		}
	}
	return &domain.Intent{Type: domain.IntentUnknown, Payload: rest}
}

func counterIntent(sign, step string) *domain.Intent {
	t := domain.IntentCounterInc
	if sign == "-" {
		t = domain.IntentCounterDec
	}
	return &domain.Intent{Type: t, Payload: step, Args: compact(step)}
}

// splitAdd splits "Jumping Jacks 0:45 rest" into name, duration and an
// optional category. The duration is the last token that looks like one.
func splitAdd(rest string) []string {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return fields
	}

	var category string
	if last := strings.ToLower(fields[len(fields)-1]); isCategory(last) {
		category = last
		fields = fields[:len(fields)-1]
	}
	if len(fields) < 2 || !looksLikeDuration(fields[len(fields)-1]) {
		return strings.Fields(rest)
	}

	name := strings.Join(fields[:len(fields)-1], " ")
	return compact(name, fields[len(fields)-1], category)
}

func isCategory(s string) bool {
	_, err := domain.ParseCategory(s)
	return err == nil
}

func looksLikeDuration(s string) bool {
	mins, secs, found := strings.Cut(s, ":")
	if !found {
		return isDigits(s)
	}
	return isDigits(mins) && isDigits(secs)
}

// compact drops empty strings.
func compact(parts ...string) []string {
	var out []string
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
