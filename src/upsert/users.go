package upsert

import (
	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"git.handmade.network/hmn/forumsync/src/store"
	"github.com/google/uuid"
)

/*
MergePlan says how to collapse several rows that describe the same user. The
canonical row survives and takes over everything that refers to the others.
*/
type MergePlan struct {
	Canonical *models.User
	Discard   []*models.User
}

// PlanUserMerge keeps the first candidate, in store order. Candidates are
// expected in store order already.
func PlanUserMerge(candidates []*models.User) MergePlan {
	if len(candidates) == 0 {
		return MergePlan{}
	}
	return MergePlan{
		Canonical: candidates[0],
		Discard:   candidates[1:],
	}
}

// Apply carries out the merge. A plan with nothing to discard does nothing.
func (p MergePlan) Apply(tx *store.Tx) error {
	u := newUpserter(tx, Options{})
	p.apply(u)
	return u.err
}

func (p MergePlan) apply(u *upserter) {
	if p.Canonical == nil || len(p.Discard) == 0 {
		return
	}

	canonical := p.Canonical
	discard := make(map[*models.User]bool, len(p.Discard))
	for _, d := range p.Discard {
		if d != canonical {
			discard[d] = true
		}
	}
	if len(discard) == 0 {
		return
	}

	for _, post := range fetchWhere(u, func(post *models.Post) bool { return discard[post.Author] }) {
		set(u, post, "Author", &post.Author, canonical)
	}
	for _, thread := range fetchWhere(u, func(t *models.Thread) bool { return discard[t.Author] }) {
		set(u, thread, "Author", &thread.Author, canonical)
	}
	for _, m := range fetchWhere(u, func(m *models.PrivateMessage) bool { return discard[m.From] || discard[m.To] }) {
		if discard[m.From] {
			set(u, m, "From", &m.From, canonical)
		}
		if discard[m.To] {
			set(u, m, "To", &m.To, canonical)
		}
	}
	for _, f := range fetchWhere(u, func(f *models.ThreadFilter) bool { return discard[f.Author] }) {
		set(u, f, "Author", &f.Author, canonical)
	}
	for _, a := range fetchWhere(u, func(a *models.Announcement) bool { return discard[a.Author] }) {
		set(u, a, "Author", &a.Author, canonical)
	}

	profiles := fetchWhere(u, func(pr *models.Profile) bool { return pr.User == canonical || discard[pr.User] })
	var kept *models.Profile
	for _, pr := range profiles {
		if pr.User == canonical {
			kept = pr
		}
	}
	for _, pr := range profiles {
		if pr.User == canonical {
			continue
		}
		if kept == nil {
			set(u, pr, "User", &pr.User, canonical)
			kept = pr
		} else {
			u.delete(pr)
		}
	}

	for _, d := range p.Discard {
		if !discard[d] {
			continue
		}
		if canonical.UserID.IsZero() && !d.UserID.IsZero() {
			set(u, canonical, "UserID", &canonical.UserID, d.UserID)
		}
		if canonical.Username == "" && d.Username != "" {
			set(u, canonical, "Username", &canonical.Username, d.Username)
		}
		if canonical.CustomTitleHTML == "" && d.CustomTitleHTML != "" {
			set(u, canonical, "CustomTitleHTML", &canonical.CustomTitleHTML, d.CustomTitleHTML)
		}
		if canonical.RegDate == nil && d.RegDate != nil {
			setTime(u, canonical, "RegDate", &canonical.RegDate, d.RegDate)
		}
		u.delete(d)
	}
}

func refKey(ref snapshot.UserRef) string {
	if id, ok := ref.ID.Get(); ok {
		return "id:" + id.Raw()
	}
	return "name:" + ref.Username
}

// ResolveUsers finds or creates the user for each ref, in ref order. Refs
// with neither ID nor username give nil.
func ResolveUsers(tx *store.Tx, refs []snapshot.UserRef) ([]*models.User, error) {
	u := newUpserter(tx, Options{})
	lookup := resolveUsers(u, refs)
	if u.err != nil {
		return nil, u.err
	}
	users := make([]*models.User, len(refs))
	for i, ref := range refs {
		users[i] = lookup(ref)
	}
	return users, nil
}

/*
Finds or creates the user for each ref, merging duplicate rows on the way. A
ref with an ID matches users with that ID as well as users with the ref's
username and no ID. A ref without an ID matches by username alone; rows that
already carry a different ID are other people who once had the name, and are
never merged.

The returned function looks up the user for a ref. Refs with neither ID nor
username resolve to nil.
*/
func resolveUsers(u *upserter, refs []snapshot.UserRef) func(snapshot.UserRef) *models.User {
	var userIDs []ids.UserID
	var usernames []string
	for _, ref := range refs {
		if id, ok := ref.ID.Get(); ok {
			userIDs = append(userIDs, id)
		}
		if ref.Username != "" {
			usernames = append(usernames, ref.Username)
		}
	}
	userIDs = uniq(userIDs)
	usernames = uniq(usernames)

	byID := fetchIn(u, func(user *models.User) ids.UserID { return user.UserID }, userIDs)
	byName := fetchIn(u, func(user *models.User) string { return user.Username }, usernames)

	seen := make(map[*models.User]bool)
	pool := make([]*models.User, 0, len(byID)+len(byName))
	for _, list := range [][]*models.User{byID, byName} {
		for _, user := range list {
			if !seen[user] {
				seen[user] = true
				pool = append(pool, user)
			}
		}
	}
	// Each fetch is in store order, but the two together are not.
	sortByStoreOrder(u, pool)

	deleted := make(map[*models.User]bool)
	resolved := make(map[string]*models.User)

	for _, ref := range refs {
		if u.err != nil {
			break
		}
		key := refKey(ref)
		if _, done := resolved[key]; done || (ref.Username == "" && !ref.ID.Valid) {
			continue
		}

		var candidates []*models.User
		if id, ok := ref.ID.Get(); ok {
			for _, user := range pool {
				if deleted[user] {
					continue
				}
				if user.UserID == id || (user.UserID.IsZero() && ref.Username != "" && user.Username == ref.Username) {
					candidates = append(candidates, user)
				}
			}
		} else {
			var firstID ids.UserID
			for _, user := range pool {
				if deleted[user] || user.Username != ref.Username {
					continue
				}
				if !user.UserID.IsZero() {
					if !firstID.IsZero() && user.UserID != firstID {
						continue
					}
					firstID = user.UserID
				}
				candidates = append(candidates, user)
			}
		}

		var user *models.User
		if len(candidates) == 0 {
			user = insert[models.User](u)
			if user == nil {
				break
			}
			pool = append(pool, user)
		} else {
			plan := PlanUserMerge(candidates)
			plan.apply(u)
			for _, d := range plan.Discard {
				deleted[d] = true
			}
			user = plan.Canonical
		}

		if id, ok := ref.ID.Get(); ok {
			set(u, user, "UserID", &user.UserID, id)
		}
		if ref.Username != "" {
			set(u, user, "Username", &user.Username, ref.Username)
		}
		resolved[key] = user
		if id, ok := ref.ID.Get(); ok && ref.Username != "" {
			resolved["name:"+ref.Username] = user
			resolved["id:"+id.Raw()] = user
		}
	}

	return func(ref snapshot.UserRef) *models.User {
		if ref.Username == "" && !ref.ID.Valid {
			return nil
		}
		if user, ok := resolved[refKey(ref)]; ok {
			return user
		}
		return resolved["name:"+ref.Username]
	}
}

func sortByStoreOrder(u *upserter, users []*models.User) {
	if len(users) < 2 {
		return
	}
	wanted := make(map[uuid.UUID]bool, len(users))
	for _, user := range users {
		wanted[user.OID] = true
	}
	ordered := fetchWhere(u, func(user *models.User) bool { return wanted[user.OID] })
	if len(ordered) == len(users) {
		copy(users, ordered)
	}
}

// Copies the author block of a post or message onto the user.
func applySidebar(u *upserter, user *models.User, sidebar snapshot.AuthorSidebar) {
	set(u, user, "CustomTitleHTML", &user.CustomTitleHTML, sidebar.CustomTitleHTML)
	if regDate, ok := sidebar.RegDate.Get(); ok {
		setTime(u, user, "RegDate", &user.RegDate, &regDate)
	}
	set(u, user, "Administrator", &user.Administrator, sidebar.IsAdministrator)
	set(u, user, "Moderator", &user.Moderator, sidebar.IsModerator)
	set(u, user, "AuthorClasses", &user.AuthorClasses, sidebar.AuthorClasses)
	set(u, user, "CanReceivePrivateMessages", &user.CanReceivePrivateMessages, sidebar.CanReceivePrivateMessages)
}
