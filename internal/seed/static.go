// ABOUTME: Static fallback name pool used when no OpenAI API key is available.
// ABOUTME: Provides enough first names, surnames and company words for varied leads.

package seed

import (
	"math/rand"
	"regexp"
	"strings"
)

// NamePool draws lead names and business domains from fixed word lists.
// It satisfies leads.Namer.
type NamePool struct {
	FirstNames   []string `json:"first_names"`
	LastNames    []string `json:"last_names"`
	CompanyWords []string `json:"company_words"`
	TLDs         []string `json:"tlds"`
}

var domainLabel = regexp.MustCompile(`^[a-z][a-z0-9]{1,30}$`)

// FullName returns "First Last".
func (p *NamePool) FullName(r *rand.Rand) string {
	return pick(r, p.FirstNames) + " " + pick(r, p.LastNames)
}

// CompanyDomain returns a domain such as "hartley.com" or "stone-mercer.net".
func (p *NamePool) CompanyDomain(r *rand.Rand) string {
	label := pick(r, p.CompanyWords)
	if r.Intn(3) == 0 {
		label += "-" + pick(r, p.LastNames)
	}
	return strings.ToLower(label) + "." + pick(r, p.TLDs)
}

// Size returns the number of words in the smallest list.
func (p *NamePool) Size() int {
	return min(len(p.FirstNames), len(p.LastNames), len(p.CompanyWords), len(p.TLDs))
}

func pick(r *rand.Rand, words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[r.Intn(len(words))]
}

// StaticNamePool returns the built-in pool.
func StaticNamePool() *NamePool {
	return &NamePool{
		FirstNames: []string{
			"Alice", "Bob", "Carmen", "David", "Elena", "Farid", "Grace", "Hiro",
			"Ines", "Jamal", "Keiko", "Liam", "Maya", "Nikolai", "Olivia", "Pedro",
			"Quinn", "Rosa", "Samuel", "Tara", "Umar", "Vera", "Wesley", "Ximena",
			"Yusuf", "Zoe", "Harper", "Jenna", "Peter", "Sarah", "Emma", "Chris",
		},
		LastNames: []string{
			"Chen", "Martinez", "Johnson", "Wilson", "Rivera", "Brown", "Davis", "Taylor",
			"Lee", "Zhang", "Kim", "Okafor", "Nakamura", "Silva", "Novak", "Haddad",
			"Larsen", "Moreau", "Kowalski", "Patel", "Fischer", "Costa", "Murphy", "Stone",
			"Mercer", "Hartley", "Bauer", "Quintero", "Ward", "Lindqvist",
		},
		CompanyWords: []string{
			"techcorp", "acmeinc", "clientco", "globex", "initech", "umbrella", "hooli",
			"vandelay", "stark", "wayne", "cyberdyne", "soylent", "tyrell", "wonka",
			"aperture", "massive", "gringotts", "oscorp", "pied", "vehement",
			"brightline", "northwind", "contoso", "fabrikam", "litware", "adatum",
		},
		TLDs: []string{"com", "com", "com", "net", "org", "io", "biz", "info"},
	}
}

// sanitize keeps only entries usable for the given list.
func sanitize(words []string, keep func(string) bool) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] || !keep(w) {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func isNameWord(w string) bool {
	return !strings.ContainsAny(w, " @.\t\n")
}

func isDomainLabel(w string) bool {
	return domainLabel.MatchString(strings.ToLower(w))
}
