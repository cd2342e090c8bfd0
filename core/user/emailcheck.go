package user

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const emailDomainMinSim = .8

var (
	knownEmailDomains = []string{
		"163.com", "aol.com", "gmail.com", "gmx.com", "googlemail.com", "hotmail.co.uk", "hotmail.com",
		"hotmail.co.jp", "hotmail.fr", "icloud.com", "live.com", "mac.com", "mail.com", "me.com", "msn.com",
		"outlook.com", "outlook.jp", "proton.me", "protonmail.com", "qq.com", "yahoo.co.jp", "yahoo.co.uk",
		"yahoo.com", "yahoo.com.au", "yahoo.com.hk", "yahoo.com.sg", "yahoo.com.tw", "yahoo.fr",
	}

	tldTypos = map[string]string{
		"c0m":  "com",
		"cm":   "com",
		"cmo":  "com",
		"co,":  "com",
		"com,": "com",
		"comm": "com",
		"con":  "com",
		"coom": "com",
		"ocm":  "com",
		"om":   "com",
		"vom":  "com",
		"xom":  "com",
		"nte":  "net",
		"ner":  "net",
		"ogr":  "org",
		"rog":  "org",
	}
)

// SuggestEmail returns a corrected address when email looks like a mistyped
// address at a well known provider, e.g. "ann@gmial.com" -> "ann@gmail.com".
// It returns "" when there is nothing to suggest.
func SuggestEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	local, domain := email[:at], email[at+1:]

	if suggestion := suggestDomain(domain); suggestion != "" && suggestion != domain {
		return local + "@" + suggestion
	}
	return ""
}

func suggestDomain(domain string) string {
	fixed := domain
	if dot := strings.LastIndex(domain, "."); dot > 0 {
		if tld, ok := tldTypos[domain[dot+1:]]; ok {
			fixed = domain[:dot+1] + tld
		}
	}

	for _, known := range knownEmailDomains {
		if known == fixed {
			return fixed
		}
	}

	// a regional domain of a known provider, e.g. yahoo.com.br
	if label, suffix, _ := strings.Cut(fixed, "."); strings.Contains(suffix, ".") && isKnownProvider(label) {
		return fixed
	}

	best, bestRatio := "", 0.0
	for _, known := range knownEmailDomains {
		if known[0] != fixed[0] {
			continue
		}
		ratio := difflib.NewMatcher(strings.Split(fixed, ""), strings.Split(known, "")).Ratio()
		if ratio > bestRatio {
			best, bestRatio = known, ratio
		}
	}
	if bestRatio >= emailDomainMinSim {
		return best
	}
	return fixed
}

func isKnownProvider(label string) bool {
	for _, known := range knownEmailDomains {
		if strings.HasPrefix(known, label+".") {
			return true
		}
	}
	return false
}
