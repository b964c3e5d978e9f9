// Package grouping splits a pool of users into campaign groups under a
// department concentration quota and scores each group.
//
// Everything here is a pure function of its arguments. Defaults such as the
// 0.2 department share belong to the caller.
package grouping

import (
	"fmt"

	appErrors "github.com/unclebandit/phishing-campaigns/internal/errors"
	"github.com/unclebandit/phishing-campaigns/internal/model"
)

const quotaEpsilon = 1e-6

// Member is one user to place. A nil DepartmentID is bucketed under a
// single "no department" key.
type Member struct {
	UserID       string
	DepartmentID *string
}

type Group struct {
	Name       string
	Difficulty model.Difficulty
	AIScore    float64
	Members    []Member
}

// Relaxation records a placement that ignored the quota because no group
// could take the user without exceeding it.
type Relaxation struct {
	UserID       string  `json:"user_id"`
	DepartmentID *string `json:"department_id,omitempty"`
	GroupIndex   int     `json:"group_index"`
}

type Result struct {
	Groups      []Group
	Relaxations []Relaxation
}

// deptKey keeps "no department" distinct from any real department id.
type deptKey struct {
	id   string
	none bool
}

func keyOf(departmentID *string) deptKey {
	if departmentID == nil {
		return deptKey{none: true}
	}
	return deptKey{id: *departmentID}
}

func (k deptKey) departmentID() *string {
	if k.none {
		return nil
	}
	id := k.id
	return &id
}

// Partition distributes users into desiredGroups groups.
//
// Departments are visited round-robin in order of first appearance, one user
// per department per pass. Each user goes to the lowest-index group where
// its department share stays within maxSharePerDept; when none qualifies the
// user goes to the smallest group (lowest index on ties) and the placement is
// reported in Result.Relaxations.
func Partition(users []Member, desiredGroups int, maxSharePerDept float64) (Result, error) {
	if desiredGroups <= 0 {
		return Result{}, appErrors.NewValidation("groups", "must be > 0")
	}
	if len(users) == 0 {
		return Result{Groups: []Group{}}, nil
	}

	// queues[d] holds indices into users for department d, in arrival order.
	var keys []deptKey
	var queues [][]int
	{
		seen := make(map[deptKey]int)
		for i, u := range users {
			k := keyOf(u.DepartmentID)
			d, ok := seen[k]
			if !ok {
				d = len(keys)
				seen[k] = d
				keys = append(keys, k)
				queues = append(queues, nil)
			}
			queues[d] = append(queues[d], i)
		}
	}
	cursor := make([]int, len(keys))

	buckets := make([][]int, desiredGroups)
	counts := make([][]int, desiredGroups) // counts[b][d] = members of department d in bucket b
	for b := range counts {
		counts[b] = make([]int, len(keys))
	}

	var relaxations []Relaxation
	placed := 0
	for placed < len(users) {
		progress := false
		for d := range keys {
			if cursor[d] >= len(queues[d]) {
				continue
			}
			u := queues[d][cursor[d]]

			target := -1
			for b := range buckets {
				if fits(counts[b][d], len(buckets[b]), maxSharePerDept) {
					target = b
					break
				}
			}
			if target < 0 {
				target = smallest(buckets)
				relaxations = append(relaxations, Relaxation{
					UserID:       users[u].UserID,
					DepartmentID: keys[d].departmentID(),
					GroupIndex:   target,
				})
			}

			buckets[target] = append(buckets[target], u)
			counts[target][d]++
			cursor[d]++
			placed++
			progress = true
		}
		if !progress {
			break
		}
	}

	groups := make([]Group, len(buckets))
	for b, idx := range buckets {
		members := make([]Member, len(idx))
		for j, u := range idx {
			members[j] = Member{UserID: users[u].UserID, DepartmentID: keyOf(users[u].DepartmentID).departmentID()}
		}
		score := Score(members)
		groups[b] = Group{
			Name:       fmt.Sprintf("Grupo %d", b+1),
			Difficulty: DifficultyFor(score),
			AIScore:    score,
			Members:    members,
		}
	}

	return Result{Groups: groups, Relaxations: relaxations}, nil
}

func fits(deptCount, size int, maxShare float64) bool {
	return float64(deptCount+1)/float64(size+1) <= maxShare+quotaEpsilon
}

func smallest(buckets [][]int) int {
	best := 0
	for i := range buckets {
		if len(buckets[i]) < len(buckets[best]) {
			best = i
		}
	}
	return best
}
