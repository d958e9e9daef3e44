package matching

import (
	"strings"

	"github.com/Ramsey-B/clover/pkg/similarity"
)

// AffiliationThreshold is the cosine similarity an institution's initials
// must exceed against a domain label for the email to be accepted.
const AffiliationThreshold = 0.75

// EmailMatchesInstitution reports whether an email address plausibly belongs
// to the named institution. Two checks, in order:
//
//  1. Any word of the institution name appearing as a substring of the email
//     domain (TLD stripped) is accepted outright.
//  2. Otherwise the institution's initials are compared to each dot-separated
//     domain label by cosine similarity; the best label must exceed
//     AffiliationThreshold.
//
// stripFillerWords drops "of" from the institution name before both checks,
// so "Institute of Things" can match an "it.example" style domain on
// initials.
func EmailMatchesInstitution(institution, email string, stripFillerWords bool) bool {
	email = strings.ToLower(email)

	at := strings.IndexByte(email, '@')
	if at < 0 || at == len(email)-1 {
		return false
	}

	// Drop the TLD; "mail.scarts.edu" leaves the labels ["mail", "scarts"].
	labels := strings.Split(email[at+1:], ".")
	labels = labels[:len(labels)-1]
	domain := strings.Join(labels, ".")

	skip := func(word string) bool { return stripFillerWords && word == "of" }

	for _, word := range similarity.Words(institution) {
		if skip(word) {
			continue
		}
		if strings.Contains(domain, word) {
			return true
		}
	}

	initials := similarity.Initials(institution, skip)

	best := 0.0
	if len(labels) > 1 {
		for _, label := range labels {
			if sim := similarity.Cosine(initials, label); sim > best {
				best = sim
			}
		}
	} else {
		best = similarity.Cosine(initials, domain)
	}

	return best > AffiliationThreshold
}
