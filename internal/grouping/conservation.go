package grouping

import (
	"fmt"
	"sort"
	"strings"

	appErrors "github.com/unclebandit/phishing-campaigns/internal/errors"
)

// CheckConservation verifies that res holds exactly the users given, each as
// many times as it was given.
func CheckConservation(users []Member, res Result) error {
	want := make(map[string]int, len(users))
	for _, u := range users {
		want[u.UserID]++
	}

	got := 0
	for _, g := range res.Groups {
		for _, m := range g.Members {
			want[m.UserID]--
			got++
		}
	}

	var off []string
	for id, n := range want {
		switch {
		case n > 0:
			off = append(off, fmt.Sprintf("%s missing", id))
		case n < 0:
			off = append(off, fmt.Sprintf("%s duplicated", id))
		}
	}
	if got == len(users) && len(off) == 0 {
		return nil
	}
	sort.Strings(off)
	return appErrors.NewConservation(len(users), got, strings.Join(off, ", "))
}
