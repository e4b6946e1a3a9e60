package upsert

import (
	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"git.handmade.network/hmn/forumsync/src/store"
)

type ProfileResult struct {
	TouchedSet

	User    *models.User
	Profile *models.Profile
}

func UpsertProfile(tx *store.Tx, p *snapshot.Profile) (*ProfileResult, error) {
	u := newUpserter(tx, Options{})

	users := resolveUsers(u, []snapshot.UserRef{p.Author.Ref()})
	if u.err != nil {
		return nil, u.err
	}
	user := users(p.Author.Ref())
	applySidebar(u, user, p.Author)

	var profile *models.Profile
	if existing := fetchWhere(u, func(pr *models.Profile) bool { return pr.User == user }); len(existing) > 0 {
		profile = existing[0]
	} else {
		profile = insert[models.Profile](u)
		if profile == nil {
			return nil, u.err
		}
		set(u, profile, "User", &profile.User, user)
	}

	set(u, profile, "AboutMeHTML", &profile.AboutMeHTML, p.AboutMeHTML)
	set(u, profile, "Location", &profile.Location, p.Location)
	set(u, profile, "Interests", &profile.Interests, p.Interests)
	set(u, profile, "Occupation", &profile.Occupation, p.Occupation)
	set(u, profile, "Homepage", &profile.Homepage, urlString(p.Homepage))
	if postCount, ok := p.PostCount.Get(); ok {
		set(u, profile, "PostCount", &profile.PostCount, postCount)
	}
	set(u, profile, "PostRate", &profile.PostRate, p.PostRate)
	if lastPost, ok := p.LastPostDate.Get(); ok {
		setTime(u, profile, "LastPostDate", &profile.LastPostDate, &lastPost)
	}
	set(u, profile, "AvatarURL", &profile.AvatarURL, urlString(p.AvatarURL))

	if u.err != nil {
		return nil, u.err
	}
	return &ProfileResult{TouchedSet: *u.touched, User: user, Profile: profile}, nil
}
