package moderation

import (
	"regexp"
	"strings"
)

const (
	ReasonLanguage = "inappropriate_language"
	ReasonURL      = "url_not_allowed"
	ReasonContact  = "contact_info_not_allowed"
)

var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
}

var messages = map[string]string{
	ReasonLanguage: "Your review contains inappropriate language.",
	ReasonURL:      "URLs and web links are not allowed.",
	ReasonContact:  "Contact information is not allowed.",
}

// Rejection is returned when text fails moderation.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	if msg, ok := messages[r.Reason]; ok {
		return msg
	}
	return "Your review does not meet our content guidelines."
}

// Filter checks user supplied text. It is safe for concurrent use.
type Filter struct {
	banned *regexp.Regexp
	url    *regexp.Regexp
	email  *regexp.Regexp
	phone  *regexp.Regexp
}

func NewFilter(extraWords ...string) *Filter {
	words := make([]string, 0, len(BannedWords)+len(extraWords))
	for _, w := range append(append([]string{}, BannedWords...), extraWords...) {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, regexp.QuoteMeta(strings.ToLower(w)))
		}
	}

	return &Filter{
		banned: regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`),
		url:    regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`),
		email:  regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		phone:  regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`),
	}
}

// Check returns a *Rejection for the first rule the texts break, or nil.
// A nil Filter accepts everything.
func (f *Filter) Check(texts ...string) error {
	if f == nil {
		return nil
	}
	for _, text := range texts {
		switch {
		case text == "":
			continue
		case f.banned.MatchString(text):
			return &Rejection{Reason: ReasonLanguage}
		case f.url.MatchString(text):
			return &Rejection{Reason: ReasonURL}
		case f.email.MatchString(text), f.phone.MatchString(text):
			return &Rejection{Reason: ReasonContact}
		}
	}
	return nil
}
