package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/reconcilia/internal/model"
)

// Matcher recognizes one family of canonical subjects in a logical line.
// Matchers are swappable strategies; the default library covers the
// quantities and capability statements the support corpus talks about.
type Matcher interface {
	// Name returns the matcher name.
	Name() string

	// Match returns every subject/value pair recognized in the line.
	Match(line string) []Match
}

// Match is one recognized claim before it is bound to a document and topic.
type Match struct {
	Subject string
	Value   model.Value
	Span    string
}

const maxSpanLen = 160

func span(line string) string {
	runes := []rune(line)
	if len(runes) <= maxSpanLen {
		return line
	}
	return string(runes[:maxSpanLen])
}

// planRe picks up plan qualifiers so "5 GB storage (Free)" and "100 GB
// storage (Pro)" become distinct subjects instead of a false conflict.
var planRe = regexp.MustCompile(`(?i)\b(free|pro|team|business|enterprise)\b`)

func planScope(lower string) string {
	m := planRe.FindString(lower)
	if m == "" {
		return ""
	}
	return "." + strings.ToLower(m)
}

func hasAll(lower string, require []string) bool {
	for _, kw := range require {
		if !strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

// --- durations -------------------------------------------------------------

var durationRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(seconds?|secs?|minutes?|mins?|hours?|hrs?|days?)\b`)

var durationUnits = map[string]float64{
	"sec": 1, "second": 1,
	"min": 60, "minute": 60,
	"hr": 3600, "hour": 3600,
	"day": 86400,
}

type durationRule struct {
	subject string
	require []string // lowercase substrings that must all be present
}

type durationMatcher struct {
	rules []durationRule
}

func newDurationMatcher() *durationMatcher {
	return &durationMatcher{rules: []durationRule{
		{"password_reset.link_expiry", []string{"reset link"}},
		{"password_reset.link_expiry", []string{"magic link"}},
		{"password_reset.code_expiry", []string{"code", "expir"}},
		{"session.timeout", []string{"session"}},
		{"trial.length", []string{"trial"}},
		{"invite.expiry", []string{"invit", "expir"}},
	}}
}

func (m *durationMatcher) Name() string { return "duration" }

func (m *durationMatcher) Match(line string) []Match {
	lower := strings.ToLower(line)
	var out []Match
	for _, rule := range m.rules {
		if !hasAll(lower, rule.require) {
			continue
		}
		for _, hit := range durationRe.FindAllStringSubmatch(line, -1) {
			n, err := strconv.ParseFloat(hit[1], 64)
			if err != nil {
				continue
			}
			unit := strings.TrimSuffix(strings.ToLower(hit[2]), "s")
			mult, ok := durationUnits[unit]
			if !ok {
				continue
			}
			out = append(out, Match{
				Subject: rule.subject,
				Value:   model.NumberValue(n*mult, "s"),
				Span:    span(line),
			})
		}
	}
	return out
}

// --- sizes -----------------------------------------------------------------

var sizeRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kb|mb|gb|tb|kilobytes?|megabytes?|gigabytes?|terabytes?)\b`)

var sizeUnits = map[string]float64{
	"kb": 1 << 10, "kilobyte": 1 << 10,
	"mb": 1 << 20, "megabyte": 1 << 20,
	"gb": 1 << 30, "gigabyte": 1 << 30,
	"tb": 1 << 40, "terabyte": 1 << 40,
}

type sizeRule struct {
	subject string
	require []string
}

type sizeMatcher struct {
	rules []sizeRule
}

func newSizeMatcher() *sizeMatcher {
	return &sizeMatcher{rules: []sizeRule{
		{"storage.limit", []string{"storage"}},
		{"upload.max_size", []string{"upload"}},
		{"attachment.max_size", []string{"attachment"}},
	}}
}

func (m *sizeMatcher) Name() string { return "size" }

func (m *sizeMatcher) Match(line string) []Match {
	lower := strings.ToLower(line)
	var out []Match
	for _, rule := range m.rules {
		if !hasAll(lower, rule.require) {
			continue
		}
		for _, hit := range sizeRe.FindAllStringSubmatch(line, -1) {
			n, err := strconv.ParseFloat(hit[1], 64)
			if err != nil {
				continue
			}
			unit := strings.TrimSuffix(strings.ToLower(hit[2]), "s")
			mult, ok := sizeUnits[unit]
			if !ok {
				continue
			}
			out = append(out, Match{
				Subject: rule.subject + planScope(lower),
				Value:   model.NumberValue(n*mult, "bytes"),
				Span:    span(line),
			})
		}
	}
	return out
}

// --- counts ----------------------------------------------------------------

type countRule struct {
	subject string
	require []string
	re      *regexp.Regexp // group 1 captures the count
	scoped  bool
}

type countMatcher struct {
	rules []countRule
}

func newCountMatcher() *countMatcher {
	return &countMatcher{rules: []countRule{
		{"backup_codes.count", []string{"backup"}, regexp.MustCompile(`(?i)(\d+)\s+(?:single-use\s+)?backup\s+codes?`), false},
		{"password_reset.code_length", []string{"code"}, regexp.MustCompile(`(?i)(\d+)[- ]digit`), false},
		{"password.min_length", []string{"password"}, regexp.MustCompile(`(?i)(?:at least|minimum(?: of)?)\s+(\d+)\s+characters`), false},
		{"webhook.retry_count", []string{"webhook"}, regexp.MustCompile(`(?i)(?:up to\s+)?(\d+)\s+(?:times|retries|retry attempts|attempts)`), false},
		{"team.max_members", []string{"member"}, regexp.MustCompile(`(?i)(?:up to\s+)?(\d+)\s+(?:team\s+)?members`), true},
	}}
}

func (m *countMatcher) Name() string { return "count" }

func (m *countMatcher) Match(line string) []Match {
	lower := strings.ToLower(line)
	var out []Match
	for _, rule := range m.rules {
		if !hasAll(lower, rule.require) {
			continue
		}
		for _, hit := range rule.re.FindAllStringSubmatch(line, -1) {
			n, err := strconv.ParseFloat(hit[1], 64)
			if err != nil {
				continue
			}
			subject := rule.subject
			if rule.scoped {
				subject += planScope(lower)
			}
			out = append(out, Match{
				Subject: subject,
				Value:   model.NumberValue(n, "count"),
				Span:    span(line),
			})
		}
	}
	return out
}

// --- rates -----------------------------------------------------------------

var rateRe = regexp.MustCompile(`(?i)(\d+(?:,\d{3})*)\s+requests?\s+per\s+(second|minute|hour)`)

type rateMatcher struct{}

func newRateMatcher() *rateMatcher { return &rateMatcher{} }

func (m *rateMatcher) Name() string { return "rate" }

func (m *rateMatcher) Match(line string) []Match {
	lower := strings.ToLower(line)
	var out []Match
	for _, hit := range rateRe.FindAllStringSubmatch(line, -1) {
		n, err := strconv.ParseFloat(strings.ReplaceAll(hit[1], ",", ""), 64)
		if err != nil {
			continue
		}
		perMinute := n
		switch strings.ToLower(hit[2]) {
		case "second":
			perMinute = n * 60
		case "hour":
			perMinute = n / 60
		}
		out = append(out, Match{
			Subject: "api.rate_limit" + planScope(lower),
			Value:   model.NumberValue(perMinute, "req/min"),
			Span:    span(line),
		})
	}
	return out
}

// --- enumerated methods ----------------------------------------------------

type enumOption struct {
	phrase string
	token  string
}

type enumRule struct {
	subject string
	require []string
	options []enumOption // sorted by phrase; first hit wins
}

type enumMatcher struct {
	rules []enumRule
}

func newEnumMatcher() *enumMatcher {
	return &enumMatcher{rules: []enumRule{
		{
			subject: "password_reset.method",
			require: []string{"reset"},
			options: sortedOptions(map[string]string{
				"magic link":        "magic_link",
				"sms code":          "sms_code",
				"text message":      "sms_code",
				"security question": "security_questions",
				"phone call":        "voice_call",
			}),
		},
		{
			subject: "two_factor.method",
			require: []string{"two-factor"},
			options: sortedOptions(map[string]string{
				"authenticator app": "totp",
				"security key":      "webauthn",
				"email code":        "email",
			}),
		},
	}}
}

func sortedOptions(m map[string]string) []enumOption {
	out := make([]enumOption, 0, len(m))
	for phrase, token := range m {
		out = append(out, enumOption{phrase: phrase, token: token})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].phrase < out[j].phrase })
	return out
}

func (m *enumMatcher) Name() string { return "enum" }

func (m *enumMatcher) Match(line string) []Match {
	lower := strings.ToLower(line)
	var out []Match
	for _, rule := range m.rules {
		if !hasAll(lower, rule.require) {
			continue
		}
		for _, opt := range rule.options {
			if strings.Contains(lower, opt.phrase) {
				out = append(out, Match{
					Subject: rule.subject,
					Value:   model.TextValue(opt.token),
					Span:    span(line),
				})
				break
			}
		}
	}
	return out
}

// --- boolean capabilities --------------------------------------------------

var boolNegations = []string{
	"not supported", "not available", "no longer supported",
	"no longer available", "unavailable", "cannot be", "is disabled",
}

var boolPositives = []string{
	"supported", "available", "enabled", "included", "offered",
}

type boolFeature struct {
	re    *regexp.Regexp
	token string
}

type boolMatcher struct {
	features []boolFeature
}

func newBoolMatcher() *boolMatcher {
	options := sortedOptions(map[string]string{
		"sso":                       "sso",
		"single sign-on":            "sso",
		"two-factor authentication": "two_factor",
		"api access":                "api_access",
		"custom domain":             "custom_domains",
		"priority support":          "priority_support",
		"data export":               "data_export",
	})
	features := make([]boolFeature, 0, len(options))
	for _, opt := range options {
		// Word boundaries keep "sso" from matching inside e.g. "associated".
		features = append(features, boolFeature{
			re:    regexp.MustCompile(`\b` + regexp.QuoteMeta(opt.phrase) + `\b`),
			token: opt.token,
		})
	}
	return &boolMatcher{features: features}
}

func (m *boolMatcher) Name() string { return "capability" }

func (m *boolMatcher) Match(line string) []Match {
	lower := strings.ToLower(line)
	var out []Match
	for _, feature := range m.features {
		if !feature.re.MatchString(lower) {
			continue
		}
		enabled, ok := polarity(lower)
		if !ok {
			continue
		}
		out = append(out, Match{
			Subject: feature.token + ".available" + planScope(lower),
			Value:   model.BoolValue(enabled),
			Span:    span(line),
		})
	}
	return dedupeMatches(out)
}

// dedupeMatches collapses alias hits ("sso" + "single sign-on") that name
// the same subject in the same line.
func dedupeMatches(in []Match) []Match {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]bool, len(in))
	var out []Match
	for _, m := range in {
		key := m.Subject + "|" + m.Value.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

func polarity(lower string) (bool, bool) {
	for _, neg := range boolNegations {
		if strings.Contains(lower, neg) {
			return false, true
		}
	}
	for _, pos := range boolPositives {
		if strings.Contains(lower, pos) {
			return true, true
		}
	}
	return false, false
}
